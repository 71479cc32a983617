package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/praesto/internal/domain"
	"github.com/hamed0406/praesto/internal/repo"
)

// DefaultPath is where the config is looked up when no --config is given.
const DefaultPath = "config/config.yaml"

type Config struct {
	StateDir string `yaml:"state_dir"`
	StateDSN string `yaml:"state_dsn"` // postgres://...; when set, states live in Postgres

	CheckIntervalSec       int     `yaml:"check_interval"`     // seconds between sweeps
	ReportingIntervalHours float64 `yaml:"reporting_interval"` // hours between digests, also the digest window
	ReportSchedule         string  `yaml:"report_schedule"`    // optional cron spec replacing the fixed interval
	Threads                int     `yaml:"threads"`
	ProbeTimeoutSec        float64 `yaml:"probe_timeout"`
	RetryAttempts          int     `yaml:"retry_attempts"` // only for probes that could not run
	RetryBackoffMS         int     `yaml:"retry_backoff_ms"`

	Checks        []domain.CheckSpec                   `yaml:"checks"`
	Notifications map[string]domain.NotificationTarget `yaml:"notifications"`
	Reports       []domain.ReportSpec                  `yaml:"reports"`

	DebugLog    bool   `yaml:"debug_log"`
	LogIdentity string `yaml:"log_identity"`
	LogDir      string `yaml:"log_dir"`

	API API `yaml:"api"`
}

// API configures the optional read-only status server.
type API struct {
	Addr           string   `yaml:"addr"` // empty disables the server
	PublicKeys     []string `yaml:"public_keys"`
	AdminKeys      []string `yaml:"admin_keys"`
	PublicRPM      int      `yaml:"public_rpm"`
	PublicBurst    int      `yaml:"public_burst"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func (c Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSec) * time.Second
}

func (c Config) ReportingInterval() time.Duration {
	return time.Duration(c.ReportingIntervalHours * float64(time.Hour))
}

// ReportBoundary returns the schedule digests are sent on: report_schedule
// when set, otherwise every reporting_interval.
func (c Config) ReportBoundary() (cron.Schedule, error) {
	if c.ReportSchedule != "" {
		return cron.ParseStandard(c.ReportSchedule)
	}
	return cron.Every(c.ReportingInterval()), nil
}

func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSec * float64(time.Second))
}

func (c Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

// EnabledChecks returns the checks that will be probed.
func (c Config) EnabledChecks() []domain.CheckSpec {
	var out []domain.CheckSpec
	for _, chk := range c.Checks {
		if chk.Enabled {
			out = append(out, chk)
		}
	}
	return out
}

// Check returns the check with the given id.
func (c Config) Check(id string) (domain.CheckSpec, bool) {
	for _, chk := range c.Checks {
		if chk.ID == id {
			return chk, true
		}
	}
	return domain.CheckSpec{}, false
}

// Load reads, defaults, overrides from the environment and validates a config
// file. Every error wraps domain.ErrConfig.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse is Load for an already opened document.
func Parse(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("%w: read: %w", domain.ErrConfig, err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: parse: %w", domain.ErrConfig, err)
	}

	applyDefaults(&cfg)
	ApplyEnv(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}
	return cfg, nil
}

func applyDefaults(c *Config) {
	if c.StateDir == "" {
		c.StateDir = "state"
	}
	if c.CheckIntervalSec == 0 {
		c.CheckIntervalSec = 60
	}
	if c.ReportingIntervalHours == 0 {
		c.ReportingIntervalHours = 24
	}
	if c.Threads == 0 {
		c.Threads = 4
	}
	if c.ProbeTimeoutSec == 0 {
		c.ProbeTimeoutSec = 2
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 1
	}
	if c.LogIdentity == "" {
		c.LogIdentity = "praesto"
	}
	if c.LogDir == "" {
		c.LogDir = "logs"
	}
	if c.API.PublicRPM == 0 {
		c.API.PublicRPM = 120
	}
	if c.API.PublicBurst == 0 {
		c.API.PublicBurst = 60
	}
}

// ApplyEnv lets the environment override deployment-specific settings.
func ApplyEnv(c *Config) {
	if v := os.Getenv("PRAESTO_LOG_DIR"); v != "" {
		c.LogDir = v
	}
	if v := os.Getenv("PRAESTO_STATE_DSN"); v != "" {
		c.StateDSN = v
	}
	if v := os.Getenv("PRAESTO_API_ADDR"); v != "" {
		c.API.Addr = v
	}
	if v := os.Getenv("PRAESTO_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Threads = n
		}
	}
	if v := os.Getenv("PRAESTO_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.DebugLog = b
		}
	}
}

var knownTargetTypes = map[string]bool{
	domain.TargetTelegram:     true,
	domain.TargetSMSGateway:   true,
	domain.TargetCheapConnect: true,
	domain.TargetSlack:        true,
	domain.TargetWebhook:      true,
}

// Validate reports every problem in the config at once.
func Validate(c Config) error {
	var errs error
	add := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	if c.StateDSN == "" && strings.TrimSpace(c.StateDir) == "" {
		add("state_dir is required")
	}
	if c.CheckIntervalSec < 0 {
		add("check_interval must not be negative")
	}
	if c.ReportingIntervalHours < 0 {
		add("reporting_interval must not be negative")
	}
	if c.ReportSchedule != "" {
		if _, err := cron.ParseStandard(c.ReportSchedule); err != nil {
			add("report_schedule: %v", err)
		}
	}
	if c.Threads < 1 {
		add("threads must be at least 1")
	}
	if c.ProbeTimeoutSec <= 0 {
		add("probe_timeout must be positive")
	}
	if c.RetryAttempts < 1 {
		add("retry_attempts must be at least 1")
	}

	for name, t := range c.Notifications {
		if !knownTargetTypes[t.Type] {
			add("notification %q: unknown type %q", name, t.Type)
		}
	}

	if len(c.Checks) == 0 {
		add("at least one check is required")
	}
	seen := make(map[string]bool, len(c.Checks))
	for i, chk := range c.Checks {
		if err := repo.ValidateID(chk.ID); err != nil {
			add("check %d: %v", i, err)
			continue
		}
		if seen[chk.ID] {
			add("check %q: duplicate id", chk.ID)
		}
		seen[chk.ID] = true
		if strings.TrimSpace(chk.Destination) == "" {
			add("check %q: destination is required", chk.ID)
		}
		if chk.Type == "" {
			add("check %q: type is required", chk.ID)
		}
		if chk.Threshold < 0 {
			add("check %q: threshold must not be negative", chk.ID)
		}
		for _, n := range chk.Notify {
			if _, ok := c.Notifications[n]; !ok {
				add("check %q: unknown notification %q", chk.ID, n)
			}
		}
	}

	for i, r := range c.Reports {
		if r.Group == "" {
			add("report %d: group is required", i)
		}
		if len(r.Notify) == 0 {
			add("report %d (%s): notify is required", i, r.Group)
		}
		for _, n := range r.Notify {
			if _, ok := c.Notifications[n]; !ok {
				add("report %d (%s): unknown notification %q", i, r.Group, n)
			}
		}
	}
	return errs
}
