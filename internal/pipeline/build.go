package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/watchdog/internal/analyze"
	"github.com/ppiankov/watchdog/internal/audit"
	"github.com/ppiankov/watchdog/internal/cache"
	"github.com/ppiankov/watchdog/internal/evidence"
	"github.com/ppiankov/watchdog/internal/llm"
	"github.com/ppiankov/watchdog/internal/metrics"
	"github.com/ppiankov/watchdog/internal/model"
	"github.com/ppiankov/watchdog/internal/policy"
	"github.com/ppiankov/watchdog/internal/rules"
	"github.com/ppiankov/watchdog/internal/store"
	"github.com/ppiankov/watchdog/internal/telemetry"
	"github.com/ppiankov/watchdog/internal/worker"
)

// Components is a wired gateway together with the parts callers manage directly
type Components struct {
	Gateway  *Gateway
	Analyzer *analyze.Analyzer
	Policy   *policy.Engine
	Store    *store.Memory
	Audit    *audit.FileLog
	Metrics  *metrics.Metrics
	LLM      *llm.Proxy
}

// Build wires every collaborator from configuration. m may be nil.
func Build(cfg *model.Config, log *zap.Logger, m *metrics.Metrics) (*Components, error) {
	if log == nil {
		log = zap.NewNop()
	}

	set, err := rules.LoadOrDefault(cfg.Rules.Path)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	analyzer := analyze.NewDefault(set)

	thresholds := policy.NewStore(cfg.Policy.Path)
	if _, err := thresholds.Lookup(model.DomainGeneral); err != nil {
		// Every decision will fail safe to BLOCK until a reload succeeds.
		log.Error("policy thresholds unavailable", zap.String("path", cfg.Policy.Path), zap.Error(err))
	}
	engine := policy.NewEngine(thresholds, log.Named("policy"))

	c := cache.New(cfg.Cache)
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	proxy, err := llm.NewProxyFromConfig(cfg.LLM, c, cfg.Cache.MemoryTTL, limiter, log.Named("llm"))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	providers, err := evidenceProviders(cfg, c, limiter, log)
	if err != nil {
		return nil, err
	}

	var auditLog *audit.FileLog
	var sink audit.Sink
	if cfg.Audit.Path != "" {
		auditLog = audit.NewFileLog(cfg.Audit.Path)
		sink = auditLog
	}

	records := store.NewMemory()
	gw := New(Deps{
		LLM:        proxy,
		Evidence:   providers,
		Analyzer:   analyzer,
		Policy:     engine,
		Audit:      audit.NewRecorder(sink, log.Named("audit")),
		Store:      records,
		Metrics:    m,
		Tracer:     telemetry.Tracer(),
		Log:        log.Named("gateway"),
		TopK:       cfg.Evidence.TopK,
		SafetyMode: cfg.Audit.SafetyMode,
	})

	return &Components{
		Gateway:  gw,
		Analyzer: analyzer,
		Policy:   engine,
		Store:    records,
		Audit:    auditLog,
		Metrics:  m,
		LLM:      proxy,
	}, nil
}

func evidenceProviders(cfg *model.Config, c cache.Cache, limiter *worker.Limiter, log *zap.Logger) (evidence.Provider, error) {
	var providers evidence.Multi
	if cfg.Evidence.Dir != "" {
		dir, err := evidence.NewDirProvider(cfg.Evidence.Dir)
		if err != nil {
			return nil, fmt.Errorf("evidence dir: %w", err)
		}
		log.Info("evidence documents loaded", zap.String("dir", cfg.Evidence.Dir), zap.Int("documents", dir.Len()))
		providers = append(providers, dir)
	}
	if len(cfg.Evidence.URLs) > 0 {
		providers = append(providers, evidence.NewURLProvider(cfg.Evidence, c, cfg.Cache.DiskTTL, limiter, log.Named("evidence")))
	}
	if len(providers) == 0 {
		return evidence.None{}, nil
	}
	return providers, nil
}

// Close releases the audit log
func (c *Components) Close() error {
	if c.Audit == nil {
		return nil
	}
	return c.Audit.Close()
}
