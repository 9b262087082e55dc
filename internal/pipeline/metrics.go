package pipeline

import (
	"time"

	"github.com/ppiankov/watchdog/internal/policy"
)

func (g *Gateway) observe(stage string, start time.Time) {
	if g.metrics == nil {
		return
	}
	g.metrics.StageDuration.WithLabelValues(stage).Observe(g.now().Sub(start).Seconds())
}

func (g *Gateway) countDecision(res *Result) {
	if g.metrics == nil {
		return
	}
	g.metrics.Decisions.WithLabelValues(string(res.Enforcement.FinalAction), string(res.Domain)).Inc()
	g.metrics.RiskScores.WithLabelValues(string(res.Domain)).Observe(float64(res.Enforcement.RiskScore))
	if res.Report.Metadata.AutoBlock {
		g.metrics.AutoBlocks.Inc()
	}
	if res.Enforcement.Decision.Reason == policy.FailSafeReason {
		g.metrics.PolicyFailures.Inc()
	}
}

func (g *Gateway) countUpstreamFailure(stage string) {
	if g.metrics != nil {
		g.metrics.UpstreamFailures.WithLabelValues(stage).Inc()
	}
}

func (g *Gateway) countFallback() {
	if g.metrics != nil {
		g.metrics.LLMFallbacks.Inc()
	}
}

func (g *Gateway) countAuditFailure() {
	if g.metrics != nil {
		g.metrics.AuditFailures.Inc()
	}
}
