package enums

import "fmt"

// ArtifactFormat is the encoding of an uploaded artifact.
type ArtifactFormat string

const (
	ArtifactFormatJSON ArtifactFormat = "json"
	ArtifactFormatCSV  ArtifactFormat = "csv"
)

var validArtifactFormats = []ArtifactFormat{
	ArtifactFormatJSON,
	ArtifactFormatCSV,
}

func (f ArtifactFormat) String() string {
	return string(f)
}

// ContentType returns the MIME type used when uploading the artifact.
func (f ArtifactFormat) ContentType() string {
	switch f {
	case ArtifactFormatCSV:
		return "text/csv"
	default:
		return "application/json"
	}
}

func (f ArtifactFormat) IsValid() bool {
	for _, candidate := range validArtifactFormats {
		if candidate == f {
			return true
		}
	}
	return false
}

func ParseArtifactFormat(value string) (ArtifactFormat, error) {
	for _, candidate := range validArtifactFormats {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid artifact format %q", value)
}
