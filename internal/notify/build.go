package notify

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/hamed0406/praesto/internal/domain"
)

// FromTarget builds the transport for one configured target.
func FromTarget(t domain.NotificationTarget) (Notifier, error) {
	switch t.Type {
	case domain.TargetTelegram:
		if t.TelegramToken == "" || t.TelegramChatID == "" {
			return nil, fmt.Errorf("telegram target needs telegram_token and telegram_chat_id")
		}
		return NewTelegram(t.TelegramToken, t.TelegramChatID, t.BaseURL), nil
	case domain.TargetSMSGateway, domain.TargetCheapConnect:
		if t.Token == "" || t.Sender == "" || t.Recipient == "" {
			return nil, fmt.Errorf("sms-gateway target needs cc_token, sender and recipient")
		}
		return NewSMSGateway(t.Token, t.Sender, t.Recipient, t.BaseURL), nil
	case domain.TargetSlack:
		if t.URL == "" {
			return nil, fmt.Errorf("slack target needs url")
		}
		return NewSlack(t.URL), nil
	case domain.TargetWebhook:
		if t.URL == "" {
			return nil, fmt.Errorf("webhook target needs url")
		}
		return NewWebhook(t.URL, t.Headers), nil
	default:
		return nil, fmt.Errorf("unknown notification type %q", t.Type)
	}
}

// BuildTargets builds every configured target, reporting all bad ones at once.
func BuildTargets(targets map[string]domain.NotificationTarget) (map[string]Notifier, error) {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]Notifier, len(targets))
	var errs error
	for _, name := range names {
		n, err := FromTarget(targets[name])
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("notification %q: %w", name, err))
			continue
		}
		out[name] = n
	}
	return out, errs
}
