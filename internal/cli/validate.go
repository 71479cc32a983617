package cli

import (
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/hamed0406/praesto/internal/cli/style"
	"github.com/hamed0406/praesto/internal/config"
	"github.com/hamed0406/praesto/internal/notify"
	"github.com/hamed0406/praesto/internal/probe"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the config file and the host for problems before running",
	Args:  cobra.NoArgs,
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

var errValidate = errors.New("validation failed")

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg, err := config.Load(configPath)
	if err != nil {
		for _, e := range configProblems(err) {
			fail(out, e.Error())
		}
		return errValidate
	}
	ok(out, fmt.Sprintf("%s parsed: %d check(s), %d notification target(s), %d report(s)",
		configPath, len(cfg.Checks), len(cfg.Notifications), len(cfg.Reports)))

	if problems := preflight(out, cfg); problems > 0 {
		return errValidate
	}
	ok(out, "ready")
	return nil
}

// configProblems splits a config.Load error into the individual problems.
func configProblems(err error) []error {
	if w, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := w.Unwrap(); len(errs) == 2 {
			return multierr.Errors(errs[1])
		}
	}
	return []error{err}
}

// preflight reports problems config.Validate cannot see, returning how many
// of them are fatal.
func preflight(w io.Writer, cfg config.Config) int {
	fatal := 0

	if _, err := notify.BuildTargets(cfg.Notifications); err != nil {
		for _, e := range multierr.Errors(err) {
			fail(w, e.Error())
			fatal++
		}
	}

	registry := probe.Default(probe.Options{Timeout: cfg.ProbeTimeout()})
	needsPing := false
	for _, c := range cfg.Checks {
		if !registry.Supports(c.Type) {
			warn(w, fmt.Sprintf("check %q: type %q is not supported and will be skipped (known: %v)", c.ID, c.Type, registry.Kinds()))
		}
		if c.Type == "ping" && c.Enabled {
			needsPing = true
		}
		if c.Enabled && len(c.Notify) == 0 {
			warn(w, fmt.Sprintf("check %q notifies nobody", c.ID))
		}
	}
	if needsPing {
		if path, err := exec.LookPath("ping"); err != nil {
			fail(w, "ping binary not found in PATH; every ping check would fail to run")
			fatal++
		} else {
			ok(w, "ping="+path)
		}
	}

	if cfg.StateDSN != "" {
		ok(w, "state in postgres")
	} else {
		ok(w, "state_dir="+cfg.StateDir)
	}
	if len(cfg.Reports) == 0 {
		warn(w, "no reports configured; digests are disabled")
	}

	if cfg.API.Addr != "" {
		ok(w, "api.addr="+cfg.API.Addr)
		if len(cfg.API.AdminKeys) == 0 {
			warn(w, "api.admin_keys is empty; anyone reaching the API can trigger digests")
		}
		if len(cfg.API.PublicKeys) == 0 && len(cfg.API.AdminKeys) == 0 {
			warn(w, "no API keys configured; the status API is open")
		}
		if len(cfg.API.AllowedOrigins) == 0 {
			warn(w, "api.allowed_origins is empty; CORS allows every origin")
		}
	}
	return fatal
}

func ok(w io.Writer, msg string)   { fmt.Fprintln(w, style.OK, msg) }
func warn(w io.Writer, msg string) { fmt.Fprintln(w, style.Warn, msg) }
func fail(w io.Writer, msg string) { fmt.Fprintln(w, style.Fail, msg) }
