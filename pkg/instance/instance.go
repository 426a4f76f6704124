package instance

import (
	"os"

	"github.com/angelmondragon/dirtyfeed/pkg/env"
)

const defaultID = "feeder-0"

// GetID returns the feeder instance identifier, preferring DIRTYFEED_WORKER_ID,
// then the container hostname.
func GetID() string {
	if id := env.Get("DIRTYFEED_WORKER_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return defaultID
}
