package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/ppiankov/watchdog/internal/analyze"
	"github.com/ppiankov/watchdog/internal/evidence"
	"github.com/ppiankov/watchdog/internal/llm"
	"github.com/ppiankov/watchdog/internal/metrics"
	"github.com/ppiankov/watchdog/internal/model"
	"github.com/ppiankov/watchdog/internal/policy"
	"github.com/ppiankov/watchdog/internal/store"
)

// ErrEmptyPrompt is returned when there is nothing to forward
var ErrEmptyPrompt = errors.New("prompt is empty")

// Forwarder sends a prompt to the upstream model
type Forwarder interface {
	Forward(ctx context.Context, prompt string, domain model.Domain) (*llm.Response, error)
}

// Analyzer scores a prompt/response pair
type Analyzer interface {
	Analyze(prompt, response string, docs []model.Document) (model.RiskReport, error)
}

// Enforcer turns a report into a final action and user-visible text
type Enforcer interface {
	Enforce(prompt, rawResponse string, report model.RiskReport, domain model.Domain) model.Enforcement
}

// Recorder accepts one audit record per decision
type Recorder interface {
	Record(rec model.AuditRecord) bool
}

// Deps are the collaborators of a Gateway. Evidence, Audit, Store, Metrics
// and Tracer are optional.
type Deps struct {
	LLM        Forwarder
	Evidence   evidence.Provider
	Analyzer   Analyzer
	Policy     Enforcer
	Audit      Recorder
	Store      store.Store
	Metrics    *metrics.Metrics
	Tracer     trace.Tracer
	Log        *zap.Logger
	TopK       int
	SafetyMode string
}

// Gateway runs a request through RECEIVED → SCORED → DECIDED → ALLOWED/WARNED/BLOCKED
type Gateway struct {
	llm        Forwarder
	evidence   evidence.Provider
	analyzer   Analyzer
	policy     Enforcer
	audit      Recorder
	store      store.Store
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	log        *zap.Logger
	topK       int
	safetyMode string
	now        func() time.Time
	newID      func() string
}

// New creates a gateway from its collaborators
func New(d Deps) *Gateway {
	g := &Gateway{
		llm:        d.LLM,
		evidence:   d.Evidence,
		analyzer:   d.Analyzer,
		policy:     d.Policy,
		audit:      d.Audit,
		store:      d.Store,
		metrics:    d.Metrics,
		tracer:     d.Tracer,
		log:        d.Log,
		topK:       d.TopK,
		safetyMode: d.SafetyMode,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	if g.evidence == nil {
		g.evidence = evidence.None{}
	}
	if g.tracer == nil {
		g.tracer = noop.NewTracerProvider().Tracer("")
	}
	if g.log == nil {
		g.log = zap.NewNop()
	}
	if g.topK <= 0 {
		g.topK = 3
	}
	if g.safetyMode == "" {
		g.safetyMode = "balanced"
	}
	return g
}

// Result is everything the gateway learned about one request
type Result struct {
	RequestID   string             `json:"request_id"`
	Prompt      string             `json:"prompt"`
	Domain      model.Domain       `json:"domain"`
	RawAnswer   string             `json:"gpt_raw_answer"`
	Fallback    bool               `json:"fallback"`
	Evidence    []model.Document   `json:"evidence,omitempty"`
	Report      model.RiskReport   `json:"report"`
	Enforcement model.Enforcement  `json:"enforcement"`
	Confidence  float64            `json:"confidence"`
	Record      model.PromptRecord `json:"record"`
	Stored      bool               `json:"stored"`
}

// Analyze forwards, scores and enforces a prompt and writes the audit record
func (g *Gateway) Analyze(ctx context.Context, prompt string, domain model.Domain) (*Result, error) {
	return g.process(ctx, prompt, domain, false)
}

// Chat is Analyze followed by saving a prompt record
func (g *Gateway) Chat(ctx context.Context, prompt string, domain model.Domain) (*Result, error) {
	return g.process(ctx, prompt, domain, true)
}

func (g *Gateway) process(ctx context.Context, prompt string, domain model.Domain, save bool) (*Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	res := &Result{
		RequestID: g.newID(),
		Prompt:    prompt,
		Domain:    domain,
	}
	log := g.log.With(zap.String("request_id", res.RequestID), zap.String("domain", string(domain)))

	ctx, span := g.tracer.Start(ctx, "gateway.process", trace.WithAttributes(
		attribute.String("watchdog.request_id", res.RequestID),
		attribute.String("watchdog.domain", string(domain)),
	))
	defer span.End()

	log.Info("request received", zap.Int("prompt_length", len([]rune(prompt))))

	// RECEIVED: forward upstream. A failed call still yields a report, the conservative one.
	answer, upstreamErr := g.forward(ctx, prompt, domain)
	if upstreamErr == nil {
		res.RawAnswer = answer.Text
		res.Fallback = answer.Fallback
		if answer.Fallback {
			g.countFallback()
		}
	} else {
		log.Error("upstream llm failed", zap.Error(upstreamErr))
		g.countUpstreamFailure("llm")
	}

	// SCORED
	if upstreamErr != nil {
		res.Report = analyze.Conservative(upstreamErr)
	} else {
		res.Evidence = g.retrieve(ctx, log, prompt+"\n"+res.RawAnswer)
		res.Report = g.score(ctx, log, prompt, res.RawAnswer, res.Evidence)
	}
	log.Info("risk analysis complete",
		zap.Int("risk_score", res.Report.RiskScore),
		zap.String("rag_status", res.Report.Signals.RAGLabel()),
		zap.String("contradiction_check", res.Report.Signals.ContradictionLabel()))

	// DECIDED
	res.Enforcement = g.enforce(ctx, prompt, res.RawAnswer, res.Report, domain)
	res.Confidence = Confidence(res.Report)
	span.SetAttributes(
		attribute.String("watchdog.action", string(res.Enforcement.FinalAction)),
		attribute.Int("watchdog.risk_score", res.Enforcement.RiskScore),
	)
	g.countDecision(res)

	g.recordAudit(res)
	if save && g.store != nil {
		res.Record = g.store.Save(g.promptRecord(res))
		res.Stored = true
		log.Info("record saved", zap.Int64("record_id", res.Record.ID))
	}

	log.Info("request complete", zap.String("action", string(res.Enforcement.FinalAction)))
	return res, nil
}

func (g *Gateway) forward(ctx context.Context, prompt string, domain model.Domain) (_ *llm.Response, err error) {
	ctx, span := g.tracer.Start(ctx, "llm.forward")
	defer endSpan(span, &err)
	defer g.observe("llm", g.now())

	if g.llm == nil {
		return nil, fmt.Errorf("forward: %w", llm.ErrProviderUnavailable)
	}
	resp, err := g.llm.Forward(ctx, prompt, domain)
	if err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}
	span.SetAttributes(
		attribute.String("llm.provider", resp.Provider),
		attribute.Bool("llm.cached", resp.Cached),
		attribute.Bool("llm.fallback", resp.Fallback),
	)
	return resp, nil
}

// retrieve returns whatever documents were found; failures only narrow the evidence
func (g *Gateway) retrieve(ctx context.Context, log *zap.Logger, query string) []model.Document {
	var err error
	ctx, span := g.tracer.Start(ctx, "evidence.retrieve")
	defer endSpan(span, &err)
	defer g.observe("evidence", g.now())

	docs, err := g.evidence.Retrieve(ctx, query, g.topK)
	if err != nil {
		log.Warn("evidence retrieval failed", zap.Int("documents", len(docs)), zap.Error(err))
		g.countUpstreamFailure("evidence")
	}
	span.SetAttributes(attribute.Int("evidence.documents", len(docs)))
	return docs
}

func (g *Gateway) score(ctx context.Context, log *zap.Logger, prompt, answer string, docs []model.Document) model.RiskReport {
	var err error
	_, span := g.tracer.Start(ctx, "risk.analyze")
	defer endSpan(span, &err)
	defer g.observe("analysis", g.now())

	if g.analyzer == nil {
		err = errors.New("no analyzer configured")
	} else {
		var report model.RiskReport
		report, err = g.analyzer.Analyze(prompt, answer, docs)
		if err == nil {
			return report
		}
	}
	log.Error("risk analysis failed", zap.Error(err))
	g.countUpstreamFailure("analysis")
	return analyze.Conservative(err)
}

func (g *Gateway) enforce(ctx context.Context, prompt, answer string, report model.RiskReport, domain model.Domain) model.Enforcement {
	_, span := g.tracer.Start(ctx, "policy.enforce")
	defer span.End()
	defer g.observe("policy", g.now())

	if g.policy == nil {
		return policy.NewEngine(nil, g.log).Enforce(prompt, answer, report, domain)
	}
	return g.policy.Enforce(prompt, answer, report, domain)
}

func (g *Gateway) recordAudit(res *Result) {
	if g.audit == nil {
		return
	}
	if !g.audit.Record(AuditRecord(res, g.now().UTC(), g.safetyMode)) {
		g.countAuditFailure()
	}
}

func (g *Gateway) promptRecord(res *Result) model.PromptRecord {
	return model.PromptRecord{
		Timestamp:          g.now().UTC(),
		Prompt:             res.Prompt,
		GPTRawAnswer:       res.RawAnswer,
		UserVisibleAnswer:  res.Enforcement.Response,
		Confidence:         res.Confidence,
		RAGStatus:          res.Report.Signals.RAGLabel(),
		ContradictionCheck: res.Report.Signals.ContradictionLabel(),
		Action:             res.Enforcement.FinalAction,
		RiskScore:          res.Enforcement.RiskScore,
		Explanation:        res.Enforcement.Explanation,
		Metadata:           res.Report.Metadata,
	}
}

// Confidence is the trust score when the report has one, otherwise the inverse risk
func Confidence(report model.RiskReport) float64 {
	if report.Metadata.TrustScore != nil {
		return *report.Metadata.TrustScore
	}
	return float64(100-report.RiskScore) / 100.0
}

func endSpan(span trace.Span, err *error) {
	if *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}
