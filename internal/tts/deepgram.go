package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/apperr"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/deepgram"
)

// DeepgramClient implements the Client interface using Deepgram's Aura-2 voices.
type DeepgramClient struct {
	api *deepgram.Client
}

// NewDeepgramClient creates a new Deepgram TTS client.
func NewDeepgramClient(api *deepgram.Client) *DeepgramClient {
	return &DeepgramClient{api: api}
}

// speakRequest represents a Deepgram /v1/speak request.
type speakRequest struct {
	Text string `json:"text"`
}

// ModelName returns the Aura-2 model for a voice persona and language,
// e.g. "aura-2-thalia-en".
func ModelName(voice, language string) string {
	return fmt.Sprintf("aura-2-%s-%s", voice, language)
}

// Synthesize converts text to speech and returns MP3 audio.
func (c *DeepgramClient) Synthesize(ctx context.Context, text, voice, language string) ([]byte, error) {
	body, err := json.Marshal(speakRequest{Text: text})
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindSynthesis, Msg: "failed to marshal request", Err: err}
	}

	resp, err := c.api.Post(ctx, deepgram.Request{
		Path:        "/v1/speak",
		Query:       url.Values{"model": {ModelName(voice, language)}},
		Body:        bytes.NewReader(body),
		ContentType: "application/json",
		Accept:      "audio/mpeg",
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindSynthesis, err)
	}
	if len(resp.Body) == 0 {
		return nil, apperr.New(apperr.KindSynthesis, "empty audio response")
	}

	return resp.Body, nil
}
