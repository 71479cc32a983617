// Package cli holds the praesto command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hamed0406/praesto/internal/config"
)

var (
	configPath string
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "praesto",
	Short: "Host availability monitor",
	Long: `praesto probes a list of hosts on a fixed interval, debounces their
reachability so a single lost packet does not page anyone, and notifies
Telegram, SMS, Slack or webhooks when a host really goes down or comes back.
Periodic digests summarize what changed per group.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	def := os.Getenv("PRAESTO_CONFIG")
	if def == "" {
		def = config.DefaultPath
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", def, "path to config.yaml")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "keep state in memory and print notifications instead of sending them")
}
