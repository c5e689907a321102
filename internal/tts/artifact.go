package tts

import (
	"encoding/base64"
	"fmt"
)

// Artifact is synthesized audio ready to be played or embedded.
type Artifact struct {
	Audio       []byte
	ContentType string
}

// DataURI returns the audio as a base64 data URI.
func (a Artifact) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", a.contentType(), base64.StdEncoding.EncodeToString(a.Audio))
}

// HTMLPlayer wraps the audio in an embeddable <audio> element.
func (a Artifact) HTMLPlayer() string {
	return fmt.Sprintf(`<audio controls preload="auto" src="%s"></audio>`, a.DataURI())
}

func (a Artifact) contentType() string {
	if a.ContentType == "" {
		return "audio/mpeg"
	}
	return a.ContentType
}
