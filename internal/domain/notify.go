package domain

// NotificationTarget is one configured notification destination. Which fields
// apply depends on Type.
type NotificationTarget struct {
	Type string `yaml:"type" json:"type"`

	// telegram
	TelegramToken  string `yaml:"telegram_token,omitempty" json:"-"`
	TelegramChatID string `yaml:"telegram_chat_id,omitempty" json:"telegram_chat_id,omitempty"`

	// sms-gateway
	Token     string `yaml:"cc_token,omitempty" json:"-"`
	Sender    string `yaml:"sender,omitempty" json:"sender,omitempty"`
	Recipient string `yaml:"recipient,omitempty" json:"recipient,omitempty"`

	// slack and webhook
	URL     string            `yaml:"url,omitempty" json:"-"`
	Headers map[string]string `yaml:"headers,omitempty" json:"-"`

	// overrides the provider's API endpoint (telegram, sms-gateway)
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
}

// Notification target types.
const (
	TargetTelegram     = "telegram"
	TargetSMSGateway   = "sms-gateway"
	TargetCheapConnect = "cheapconnect"
	TargetSlack        = "slack"
	TargetWebhook      = "webhook"
)

// AllGroups as a report group selects every check.
const AllGroups = "_ALL"

// ReportSpec selects checks by group and names the targets the digest goes to.
type ReportSpec struct {
	Group  string   `yaml:"group" json:"group"`
	Notify []string `yaml:"notify" json:"notify"`
	// IncludeQuiet adds checks with no history inside the window.
	IncludeQuiet bool `yaml:"include_quiet,omitempty" json:"include_quiet,omitempty"`
}

// Matches reports whether the check is selected by the report's group.
func (r ReportSpec) Matches(c CheckSpec) bool {
	return r.Group == AllGroups || c.InGroup(r.Group)
}
