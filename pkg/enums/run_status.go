package enums

import "fmt"

// RunStatus is the outcome of publishing one artifact, as stored in the run ledger.
type RunStatus string

const (
	RunStatusUploaded RunStatus = "uploaded"
	RunStatusFailed   RunStatus = "failed"
)

var validRunStatuses = []RunStatus{
	RunStatusUploaded,
	RunStatusFailed,
}

func (s RunStatus) String() string {
	return string(s)
}

func (s RunStatus) IsValid() bool {
	for _, candidate := range validRunStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseRunStatus(value string) (RunStatus, error) {
	for _, candidate := range validRunStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid run status %q", value)
}
