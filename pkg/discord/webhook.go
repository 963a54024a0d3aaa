// Package discord posts messages to Discord incoming webhooks.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/asucbc/cbc-api/pkg/httpclient"
	"github.com/asucbc/cbc-api/pkg/logger"
	"github.com/asucbc/cbc-api/pkg/metrics"
	"go.uber.org/zap"
)

// Message is the JSON body accepted by a Discord webhook
type Message struct {
	Content     string   `json:"content,omitempty"`
	Embeds      []Embed  `json:"embeds,omitempty"`
	Attachments []string `json:"attachments"`
}

// Embed is a rich message block
type Embed struct {
	Title     string       `json:"title,omitempty"`
	Color     int          `json:"color,omitempty"`
	Fields    []EmbedField `json:"fields,omitempty"`
	Timestamp string       `json:"timestamp,omitempty"`
	Thumbnail *Thumbnail   `json:"thumbnail,omitempty"`
}

// EmbedField is a name/value row inside an embed
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Thumbnail is an image shown beside the embed
type Thumbnail struct {
	URL string `json:"url"`
}

// StatusError is returned when the webhook answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("discord webhook returned status %d", e.StatusCode)
}

// Client sends messages to webhook URLs
type Client struct {
	httpClient httpclient.Client
}

// NewClient creates a webhook client on top of httpClient
func NewClient(httpClient httpclient.Client) *Client {
	return &Client{httpClient: httpClient}
}

// Send posts msg to webhookURL. Any 2xx response is an acknowledgment.
// The caller's context bounds the attempt.
func (c *Client) Send(ctx context.Context, webhookURL string, msg *Message) error {
	start := time.Now()

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode discord message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = redactURL(err)
		metrics.WebhookDeliveryAttempts.WithLabelValues("error").Inc()
		logger.LogAPICall("discord", "send_webhook", "error", metrics.MeasureDuration(start),
			zap.String("host", Host(webhookURL)), zap.Error(err))
		return fmt.Errorf("failed to call discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck // best-effort diagnostic
		metrics.WebhookDeliveryAttempts.WithLabelValues("rejected").Inc()
		logger.LogAPICall("discord", "send_webhook", "error", metrics.MeasureDuration(start),
			zap.String("host", Host(webhookURL)), zap.Int("status_code", resp.StatusCode))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	metrics.WebhookDeliveryAttempts.WithLabelValues("success").Inc()
	logger.LogAPICall("discord", "send_webhook", "success", metrics.MeasureDuration(start),
		zap.String("host", Host(webhookURL)), zap.Int("status_code", resp.StatusCode))
	return nil
}

// Host returns the host part of a webhook URL for logging; webhook paths carry tokens
func Host(webhookURL string) string {
	u, err := url.Parse(webhookURL)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Host
}

// redactURL drops the request URL from transport errors so they are safe to log
func redactURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s %s: %w", uerr.Op, Host(uerr.URL), uerr.Err)
	}
	return err
}
