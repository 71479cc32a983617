package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/praesto/internal/cli/style"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single sweep over all checks and print the result",
	Args:  cobra.NoArgs,
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	pool := a.newPool()
	defer pool.Close()

	sweepID := uuid.NewString()
	elapsed, stats := pool.SweepWithID(ctx, sweepID, a.cfg.Checks)
	a.log.Info("sweep_finished", zap.String("sweep_id", sweepID), zap.Duration("elapsed", elapsed), zap.Any("stats", stats))

	out := cmd.OutOrStdout()
	printStatusTable(ctx, out, a.cfg.Checks, a.store)
	summary := fmt.Sprintf("probed %d, skipped %d, changed %d, confirmed %d in %s",
		stats.Probed, stats.Skipped, stats.Changed, stats.Confirmed, elapsed.Round(time.Millisecond))
	fmt.Fprintln(out, style.OK+" "+summary)
	if stats.ProbeErrors > 0 {
		fmt.Fprintln(out, style.Warn+" "+style.Warning.Render(fmt.Sprintf("%d probe(s) could not run", stats.ProbeErrors)))
	}
	if stats.SaveErrors > 0 || stats.Panics > 0 {
		return fmt.Errorf("%d state save(s) failed, %d check(s) panicked; see %s", stats.SaveErrors, stats.Panics, a.cfg.LogDir)
	}
	return nil
}
