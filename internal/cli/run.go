package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/praesto/internal/config"
	"github.com/hamed0406/praesto/internal/httpapi"
	apimw "github.com/hamed0406/praesto/internal/httpapi/middleware"
	"github.com/hamed0406/praesto/internal/hub"
	"github.com/hamed0406/praesto/internal/scheduler"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Probe all checks forever, notifying on confirmed changes",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	var extra []scheduler.ChangeHandler
	var stream *hub.Hub
	if a.cfg.API.Addr != "" {
		stream = hub.New(a.log, a.cfg.API.AllowedOrigins)
		go stream.Run(ctx)
		extra = append(extra, stream)
	}

	pool := a.newPool(extra...)
	defer pool.Close()

	runner := scheduler.NewRunner(a.log, pool, a.router, a.cfg, func() (config.Config, error) {
		return config.Load(configPath)
	})
	runner.OnReload(a.onReload)

	if stream != nil {
		shutdown := serveAPI(a, runner, stream)
		defer shutdown()
	}
	return runner.Run(ctx)
}

// serveAPI starts the status API in the background and returns its shutdown.
func serveAPI(a *app, runner *scheduler.Runner, stream *hub.Hub) func() {
	api := a.cfg.API
	srv := httpapi.NewServer(a.log, runner, a.store, a.router, stream.HandleConnect)
	hs := &http.Server{
		Addr:              api.Addr,
		Handler:           srv.Router(apimw.Keys{Public: api.PublicKeys, Admin: api.AdminKeys}, api.AllowedOrigins, api.PublicRPM, api.PublicBurst),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.log.Info("api_listen", zap.String("addr", api.Addr))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("api_listen_failed", zap.String("addr", api.Addr), zap.Error(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(ctx)
	}
}
