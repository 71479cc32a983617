package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/praesto/internal/cli/style"
)

var (
	reportPrint  bool
	reportWindow time.Duration
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Send the configured digests now",
	Long: `Builds every digest listed under reports: in the config from the state
history of the last reporting_interval and sends it to its targets.
With --print the digests are written to stdout instead.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportPrint, "print", false, "print digests instead of sending them")
	reportCmd.Flags().DurationVar(&reportWindow, "window", 0, "history window (default reporting_interval)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	window := a.cfg.ReportingInterval()
	if reportWindow > 0 {
		window = reportWindow
	}
	now := time.Now()
	out := cmd.OutOrStdout()

	if !reportPrint {
		n := a.router.SendReports(ctx, a.cfg.Checks, a.cfg.Reports, window, now)
		fmt.Fprintf(out, "%s %d of %d digest(s) sent\n", style.OK, n, len(a.cfg.Reports))
		return nil
	}
	for _, rs := range a.cfg.Reports {
		rep, ok := a.router.BuildReport(ctx, a.cfg.Checks, rs, window, now)
		fmt.Fprintln(out, style.Banner.Render("Group "+rs.Group)+style.Subtitle.Render("  since "+rep.Since.Local().Format(time.DateTime)))
		if !ok {
			fmt.Fprintln(out, style.DimText.Render("  nothing changed"))
			fmt.Fprintln(out)
			continue
		}
		fmt.Fprintln(out, rep.Text)
	}
	return nil
}
