package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/apperr"
	"github.com/VijayPrakashReddy-k/deepgram-stt-tts-intelligence/internal/deepgram"
)

// DeepgramClient runs text intelligence (sentiment, topics, intents, summary)
// through Deepgram's /v1/read endpoint.
type DeepgramClient struct {
	api *deepgram.Client
}

// NewDeepgramClient creates a new text-analysis client.
func NewDeepgramClient(api *deepgram.Client) *DeepgramClient {
	return &DeepgramClient{api: api}
}

type readRequest struct {
	Text string `json:"text"`
}

// Analyze sends text for analysis and returns the raw JSON response.
// Failures are reported as analysis errors.
func (c *DeepgramClient) Analyze(ctx context.Context, text, language string) (json.RawMessage, error) {
	body, err := json.Marshal(readRequest{Text: text})
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindAnalysis, Msg: "failed to marshal request", Err: err}
	}

	q := url.Values{}
	q.Set("language", language)
	q.Set("summarize", "v2")
	q.Set("sentiment", "true")
	q.Set("intents", "true")
	q.Set("topics", "true")

	resp, err := c.api.Post(ctx, deepgram.Request{
		Path:        "/v1/read",
		Query:       q,
		Body:        bytes.NewReader(body),
		ContentType: "application/json",
		Accept:      "application/json",
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindAnalysis, err)
	}

	if !json.Valid(resp.Body) {
		return nil, apperr.New(apperr.KindAnalysis, fmt.Sprintf("invalid JSON response (%d bytes)", len(resp.Body)))
	}
	return json.RawMessage(resp.Body), nil
}
