package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "watchdog"

// Metrics holds the gateway's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	Decisions        *prometheus.CounterVec
	AutoBlocks       prometheus.Counter
	UpstreamFailures *prometheus.CounterVec
	LLMFallbacks     prometheus.Counter
	PolicyFailures   prometheus.Counter
	AuditFailures    prometheus.Counter
	RiskScores       *prometheus.HistogramVec
	StageDuration    *prometheus.HistogramVec
}

// New registers collectors on a fresh registry together with Go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Enforcement decisions by action and domain.",
		}, []string{"action", "domain"}),
		AutoBlocks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auto_blocks_total",
			Help:      "Responses blocked by an auto-block rule.",
		}),
		UpstreamFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_failures_total",
			Help:      "Failures replaced by the conservative report, by stage.",
		}, []string{"stage"}),
		LLMFallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_fallbacks_total",
			Help:      "Upstream LLM failures answered with canned mock responses.",
		}),
		PolicyFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_failures_total",
			Help:      "Policy evaluations that failed safe to BLOCK.",
		}),
		AuditFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_write_failures_total",
			Help:      "Audit records that could not be written.",
		}),
		RiskScores: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_score",
			Help:      "Distribution of final risk scores.",
			Buckets:   []float64{10, 20, 35, 50, 70, 80, 95, 100},
		}, []string{"domain"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each gateway stage.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"stage"}),
	}
}

// Registry exposes the underlying registry for tests and custom collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
