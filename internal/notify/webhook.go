package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Webhook posts {"text": ...} as JSON to an arbitrary endpoint.
type Webhook struct {
	URL     string
	Headers map[string]string
	Client  *http.Client
}

func NewWebhook(u string, headers map[string]string) *Webhook {
	return &Webhook{
		URL:     u,
		Headers: headers,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Webhook) Send(ctx context.Context, text string) error {
	return postJSON(ctx, w.Client, "webhook", w.URL, w.Headers, map[string]string{"text": text})
}

// postJSON POSTs payload and treats anything but 2xx as a failure. Up to 512
// bytes of the response body are kept in the error.
func postJSON(ctx context.Context, c *http.Client, provider, url string, headers map[string]string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return notificationError(provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return notificationError(provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if c == nil {
		c = http.DefaultClient
	}

	resp, err := c.Do(req)
	if err != nil {
		return notificationError(provider, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return notificationError(provider, fmt.Errorf("status %s: %s", resp.Status, bytes.TrimSpace(snippet)))
	}
	return nil
}
