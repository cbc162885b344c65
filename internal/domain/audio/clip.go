package audio

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// Clip is a synthesized audio payload. The bytes are opaque to the client.
type Clip struct {
	Data        []byte
	ContentType string
	// Filename is the name the backend suggested, if any.
	Filename  string
	CreatedAt time.Time
}

// Format guesses the container from the content type, the suggested filename
// and finally the leading bytes. It returns "wav", "mp3", "ogg", "flac" or "".
func (c *Clip) Format() string {
	ct := strings.ToLower(c.ContentType)
	switch {
	case strings.Contains(ct, "wav"):
		return "wav"
	case strings.Contains(ct, "mpeg"), strings.Contains(ct, "mp3"):
		return "mp3"
	case strings.Contains(ct, "ogg"):
		return "ogg"
	case strings.Contains(ct, "flac"):
		return "flac"
	}

	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(c.Filename)), "."); ext != "" {
		switch ext {
		case "wav", "mp3", "ogg", "flac":
			return ext
		}
	}

	switch sniffed := http.DetectContentType(c.Data); {
	case strings.HasPrefix(sniffed, "audio/wave"):
		return "wav"
	case strings.HasPrefix(sniffed, "audio/mpeg"):
		return "mp3"
	case strings.HasPrefix(sniffed, "application/ogg"):
		return "ogg"
	}
	if len(c.Data) >= 4 && string(c.Data[:4]) == "fLaC" {
		return "flac"
	}
	if len(c.Data) >= 2 && c.Data[0] == 0xFF && c.Data[1]&0xE0 == 0xE0 {
		return "mp3"
	}
	return ""
}

// Size is the payload length in bytes.
func (c *Clip) Size() int {
	return len(c.Data)
}
