package audio

import (
	"path/filepath"
	"strings"
)

// MIMEType returns the MIME type of an audio file name by extension, or
// application/octet-stream.
func MIMEType(name string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "flac":
		return "audio/flac"
	case "wav":
		return "audio/wav"
	case "mp3":
		return "audio/mpeg"
	case "ogg", "opus":
		return "audio/ogg"
	}

	return "application/octet-stream"
}
