package stt

import (
	"context"
	"io"
)

// Transcript is the text Deepgram produced for one audio source, plus the
// metadata it reported alongside.
type Transcript struct {
	Text      string  // The transcribed text (may be empty)
	Duration  float64 // Audio duration in seconds
	RequestID string  // Deepgram request ID, for support tickets
	Model     string  // Model that produced the transcript
}

// Client defines the interface for prerecorded speech-to-text providers.
type Client interface {
	// TranscribeURL transcribes audio the provider fetches from url.
	TranscribeURL(ctx context.Context, url, model string) (Transcript, error)

	// TranscribeFile transcribes uploaded audio bytes.
	// contentType may be empty; the provider then sniffs the format.
	TranscribeFile(ctx context.Context, audio io.Reader, contentType, model string) (Transcript, error)
}
