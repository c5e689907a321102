package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/apperr"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/deepgram"
)

// DefaultModel is used when the caller does not pick one.
const DefaultModel = "nova-3-general"

// DeepgramClient implements the Client interface using Deepgram's prerecorded API.
type DeepgramClient struct {
	api *deepgram.Client
}

// NewDeepgramClient creates a new Deepgram prerecorded STT client.
func NewDeepgramClient(api *deepgram.Client) *DeepgramClient {
	return &DeepgramClient{api: api}
}

// listenResponse is the part of a /v1/listen response we read.
type listenResponse struct {
	Metadata struct {
		RequestID string  `json:"request_id"`
		Duration  float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// TranscribeURL asks Deepgram to fetch and transcribe the audio at audioURL.
func (c *DeepgramClient) TranscribeURL(ctx context.Context, audioURL, model string) (Transcript, error) {
	body, err := json.Marshal(map[string]string{"url": audioURL})
	if err != nil {
		return Transcript{}, &apperr.Error{Kind: apperr.KindTranscription, Msg: "failed to marshal request", Err: err}
	}
	return c.listen(ctx, bytes.NewReader(body), "application/json", model)
}

// TranscribeFile uploads audio bytes for transcription.
func (c *DeepgramClient) TranscribeFile(ctx context.Context, audio io.Reader, contentType, model string) (Transcript, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.listen(ctx, audio, contentType, model)
}

func (c *DeepgramClient) listen(ctx context.Context, body io.Reader, contentType, model string) (Transcript, error) {
	if model == "" {
		model = DefaultModel
	}

	q := url.Values{}
	q.Set("model", model)
	q.Set("smart_format", "true")

	resp, err := c.api.Post(ctx, deepgram.Request{
		Path:        "/v1/listen",
		Query:       q,
		Body:        body,
		ContentType: contentType,
		Accept:      "application/json",
	})
	if err != nil {
		return Transcript{}, apperr.Wrap(apperr.KindTranscription, err)
	}

	var lr listenResponse
	if err := json.Unmarshal(resp.Body, &lr); err != nil {
		return Transcript{}, &apperr.Error{Kind: apperr.KindTranscription, Msg: "failed to parse response", Err: err}
	}

	out := Transcript{
		Duration:  lr.Metadata.Duration,
		RequestID: lr.Metadata.RequestID,
		Model:     model,
	}

	// Extract transcript from first alternative of the first channel (can be empty).
	if len(lr.Results.Channels) > 0 && len(lr.Results.Channels[0].Alternatives) > 0 {
		out.Text = lr.Results.Channels[0].Alternatives[0].Transcript
	}

	return out, nil
}

// String is used in log lines.
func (t Transcript) String() string {
	return fmt.Sprintf("transcript(model=%s, duration=%.1fs, chars=%d, request_id=%s)", t.Model, t.Duration, len(t.Text), t.RequestID)
}
