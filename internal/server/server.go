// Package server exposes the gateway over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/ppiankov/watchdog/internal/analyze"
	"github.com/ppiankov/watchdog/internal/metrics"
	"github.com/ppiankov/watchdog/internal/model"
	"github.com/ppiankov/watchdog/internal/pipeline"
	"github.com/ppiankov/watchdog/internal/store"
)

// ServiceName is reported by the health and info endpoints
const ServiceName = "WATCHDOG AI Safety Gateway"

// Gateway is the request flow behind the API
type Gateway interface {
	Chat(ctx context.Context, prompt string, domain model.Domain) (*pipeline.Result, error)
	Analyze(ctx context.Context, prompt string, domain model.Domain) (*pipeline.Result, error)
}

// Options configure a Server
type Options struct {
	Config  model.ServerConfig
	Version string
	Info    analyze.SystemInfo
	Metrics *metrics.Metrics // nil disables /metrics
	Tracing bool
	Log     *zap.Logger
}

// Server is the HTTP API
type Server struct {
	gateway Gateway
	records store.Store
	cfg     model.ServerConfig
	version string
	info    analyze.SystemInfo
	metrics *metrics.Metrics
	tracing bool
	log     *zap.Logger
}

// New creates a server over a gateway and record store
func New(gw Gateway, records store.Store, opts Options) *Server {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Server{
		gateway: gw,
		records: records,
		cfg:     opts.Config,
		version: opts.Version,
		info:    opts.Info,
		metrics: opts.Metrics,
		tracing: opts.Tracing,
		log:     opts.Log,
	}
}

// Router builds the gin engine with all routes
func (s *Server) Router() *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	if s.tracing {
		r.Use(otelgin.Middleware("watchdog"))
	}
	r.Use(requestLogger(s.log))
	r.Use(cors(s.cfg.CORSOrigins))

	r.GET("/", s.handleInfo)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api")
	{
		api.POST("/chat", s.handleChat)
		api.POST("/analyze", s.handleAnalyze)
		api.GET("/prompts", s.handleListPrompts)
		api.GET("/prompts/:id", s.handleGetPrompt)
		api.GET("/health", s.handleHealth)
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx := context.Background()
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, s.cfg.ShutdownTimeout)
		defer cancel()
	}
	s.log.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
