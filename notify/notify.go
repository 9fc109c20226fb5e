// Package notify delivers a finished message to the configured destinations.
// Delivery failures are isolated per destination: one unreachable endpoint
// must never block the remaining ones.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Result struct {
	Destination Destination
	Err         error
}

type Sender struct {
	logger *slog.Logger
}

func NewSender(logger *slog.Logger) *Sender {
	return &Sender{logger: logger}
}

// Fanout attempts every destination independently and reports one Result per
// destination in order. It never returns an error: failures are logged and
// left for the caller's journal.
func (s *Sender) Fanout(ctx context.Context, dests []Destination, message string) []Result {
	results := make([]Result, len(dests))
	for i, d := range dests {
		err := s.Send(ctx, d, message)
		if err != nil {
			s.logger.Error("delivery failed",
				slog.String("kind", d.Kind.String()),
				slog.String("destination", d.Redacted()),
				slog.Any("error", err))
		} else {
			s.logger.Info("delivered",
				slog.String("kind", d.Kind.String()),
				slog.String("destination", d.Redacted()))
		}
		results[i] = Result{Destination: d, Err: err}
	}
	return results
}

func (s *Sender) Send(ctx context.Context, d Destination, message string) error {
	switch d.Kind {
	case KindSlackWebhook:
		return postWebhook(ctx, d.URL, message)
	case KindMastodon:
		return postStatus(ctx, d.URL, d.Token, message)
	default:
		return fmt.Errorf("unsupported destination kind %s", d.Kind)
	}
}

func postWebhook(ctx context.Context, webhookURL string, message string) error {
	body, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return doPost(req)
}

func postStatus(ctx context.Context, baseURL string, token string, message string) error {
	if token == "" {
		return fmt.Errorf("destination %s is missing an access token after '?'", baseURL)
	}

	form := url.Values{}
	form.Set("status", message)
	form.Set("visibility", "public")

	endpoint := fmt.Sprintf("%s/api/v1/statuses", baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return doPost(req)
}

func doPost(req *http.Request) error {
	client := http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}
