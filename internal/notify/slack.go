package notify

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Slack posts to an incoming webhook. Messages are sent as plain text with
// link unfurling off so host names do not turn into previews.
type Slack struct {
	Webhook string
	Client  *http.Client
}

func NewSlack(webhook string) *Slack {
	if webhook == "" {
		return nil
	}
	return &Slack{
		Webhook: webhook,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type slackPayload struct {
	Text        string `json:"text"`
	UnfurlLinks bool   `json:"unfurl_links"`
	UnfurlMedia bool   `json:"unfurl_media"`
}

func (s *Slack) Send(ctx context.Context, text string) error {
	if s == nil || s.Webhook == "" {
		return notificationError("slack", errors.New("no webhook configured"))
	}
	return postJSON(ctx, s.Client, "slack", s.Webhook, nil, slackPayload{Text: text})
}
