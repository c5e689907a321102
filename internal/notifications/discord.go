package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// Discord is a simple Discord webhook notifier.
type Discord struct {
	webhookURL string
	logger     *logrus.Logger
	client     *http.Client
}

// NewDiscord creates a new Discord notifier. If webhookURL is empty,
// notifications are silently skipped.
func NewDiscord(webhookURL string, logger *logrus.Logger) *Discord {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Discord{
		webhookURL: webhookURL,
		logger:     logger,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled returns true if the webhook is configured.
func (d *Discord) Enabled() bool {
	return d != nil && d.webhookURL != ""
}

// discordMessage is the payload for Discord webhook.
type discordMessage struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []embedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// send posts a message to Discord webhook asynchronously.
// Errors are logged but don't affect caller. The returned channel is
// closed once the attempt finished.
func (d *Discord) send(ctx context.Context, msg discordMessage) <-chan struct{} {
	done := make(chan struct{})
	if !d.Enabled() {
		close(done)
		return done
	}

	// The request that triggered the alert is usually finished by now.
	ctx = context.WithoutCancel(ctx)

	go func() {
		defer close(done)

		body, err := json.Marshal(msg)
		if err != nil {
			d.logger.WithError(err).Warn("discord: failed to marshal message")
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", d.webhookURL, bytes.NewReader(body))
		if err != nil {
			d.logger.WithError(err).Warn("discord: failed to create request")
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			d.logger.WithError(err).Warn("discord: failed to send webhook")
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			d.logger.Warnf("discord: webhook returned status %d", resp.StatusCode)
		}
	}()
	return done
}

// maxErrorRunes keeps alerts under Discord's embed description limit.
const maxErrorRunes = 1000

// NotifyProcessingFailed sends an alert when a remote stage fails.
func (d *Discord) NotifyProcessingFailed(ctx context.Context, requestID, stage, errMsg string) <-chan struct{} {
	if utf8.RuneCountInString(errMsg) > maxErrorRunes {
		errMsg = string([]rune(errMsg)[:maxErrorRunes]) + "..."
	}
	msg := discordMessage{
		Embeds: []discordEmbed{{
			Title:       "Processing failed",
			Description: fmt.Sprintf("```%s```", errMsg),
			Color:       0xFF0000, // Red
			Fields: []embedField{
				{Name: "Stage", Value: stage, Inline: true},
				{Name: "Request ID", Value: fmt.Sprintf("`%s`", requestID), Inline: true},
			},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	}
	return d.send(ctx, msg)
}
