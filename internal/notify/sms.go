package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const smsGatewayAPI = "https://account.cheapconnect.net/API/v1/sms/SendSMS"

// SMSGateway sends an SMS with a single GET of
// <base>/<token>/<sender>/<recipient>/<message>.
type SMSGateway struct {
	BaseURL   string
	Token     string
	Sender    string
	Recipient string
	Client    *http.Client
}

func NewSMSGateway(token, sender, recipient, baseURL string) *SMSGateway {
	if baseURL == "" {
		baseURL = smsGatewayAPI
	}
	return &SMSGateway{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Token:     token,
		Sender:    sender,
		Recipient: recipient,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SMSGateway) Send(ctx context.Context, text string) error {
	endpoint := strings.Join([]string{
		s.BaseURL,
		url.PathEscape(s.Token),
		url.PathEscape(s.Sender),
		url.PathEscape(s.Recipient),
		url.QueryEscape(text),
	}, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return notificationError("sms-gateway", errors.New("build request"))
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return notificationError("sms-gateway", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return notificationError("sms-gateway", fmt.Errorf("recipient %s: status %s: %s", s.Recipient, resp.Status, strings.TrimSpace(string(body))))
	}
	return nil
}
