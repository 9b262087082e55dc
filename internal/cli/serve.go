package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/watchdog/internal/logging"
	"github.com/ppiankov/watchdog/internal/metrics"
	"github.com/ppiankov/watchdog/internal/pipeline"
	"github.com/ppiankov/watchdog/internal/server"
	"github.com/ppiankov/watchdog/internal/telemetry"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP safety gateway",
	Long: `Serve the Watchdog API:

  POST /api/chat          forward, score, enforce, audit and store a prompt
  POST /api/analyze       forward, score and enforce a prompt
  GET  /api/prompts       stored records, newest first
  GET  /api/prompts/:id   one stored record
  GET  /api/health        liveness
  GET  /                  risk engine information
  GET  /metrics           Prometheus metrics

Policy thresholds are reloaded on SIGHUP, and on file change when
policy.watch is enabled.

Example:
  watchdog serve
  watchdog serve --addr :9000 --mock`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	shutdownTracing, err := telemetry.Init(cfg.Telemetry, Version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	m := metrics.New()
	comps, err := pipeline.Build(cfg, log, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := comps.Close(); err != nil {
			log.Warn("audit log close failed", zap.Error(err))
		}
	}()

	log.Info("starting watchdog",
		zap.String("version", Version),
		zap.String("addr", cfg.Server.Addr),
		zap.String("llm_provider", comps.LLM.Provider().Name()),
		zap.Bool("fallback_to_mock", cfg.LLM.FallbackToMock),
		zap.String("policy_path", cfg.Policy.Path),
		zap.String("audit_path", cfg.Audit.Path))

	srv := server.New(comps.Gateway, comps.Store, server.Options{
		Config:  cfg.Server,
		Version: Version,
		Info:    comps.Analyzer.Info(),
		Metrics: m,
		Tracing: cfg.Telemetry.Tracing,
		Log:     log.Named("http"),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	g.Go(func() error {
		return comps.Policy.Store().Watch(ctx, cfg.Policy.Watch, log.Named("policy"))
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("watchdog stopped")
	return nil
}
