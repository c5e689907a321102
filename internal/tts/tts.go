package tts

import "context"

// Client defines the interface for text-to-speech providers.
type Client interface {
	// Synthesize converts text to speech with the given voice persona and
	// language and returns the encoded audio (MP3).
	Synthesize(ctx context.Context, text, voice, language string) ([]byte, error)
}
