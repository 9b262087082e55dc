package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ppiankov/watchdog/internal/analyze"
	"github.com/ppiankov/watchdog/internal/llm"
	"github.com/ppiankov/watchdog/internal/metrics"
	"github.com/ppiankov/watchdog/internal/model"
	"github.com/ppiankov/watchdog/internal/policy"
	"github.com/ppiankov/watchdog/internal/store"
)

type fakeLLM struct {
	text string
	err  error
}

func (f *fakeLLM) Forward(_ context.Context, _ string, _ model.Domain) (*llm.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.text, Provider: "fake"}, nil
}

type fakeAudit struct {
	records []model.AuditRecord
	fail    bool
}

func (f *fakeAudit) Record(rec model.AuditRecord) bool {
	if f.fail {
		return false
	}
	f.records = append(f.records, rec)
	return true
}

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(string, string, []model.Document) (model.RiskReport, error) {
	return model.RiskReport{}, errors.New("extractor crashed")
}

type partialEvidence struct{}

func (partialEvidence) Retrieve(context.Context, string, int) ([]model.Document, error) {
	return model.Documents("Ibuprofen may cause stomach upset in some people."), errors.New("one source down")
}

type fixture struct {
	gw      *Gateway
	audit   *fakeAudit
	store   *store.Memory
	metrics *metrics.Metrics
}

func newFixture(fwd Forwarder, mutate func(*Deps)) *fixture {
	f := &fixture{
		audit:   &fakeAudit{},
		store:   store.NewMemory(),
		metrics: metrics.New(),
	}
	d := Deps{
		LLM:      fwd,
		Analyzer: analyze.NewDefault(nil),
		Policy:   policy.NewEngine(policy.NewStore(""), nil),
		Audit:    f.audit,
		Store:    f.store,
		Metrics:  f.metrics,
	}
	if mutate != nil {
		mutate(&d)
	}
	f.gw = New(d)
	return f
}

func TestChat_Allow(t *testing.T) {
	answer := "Ibuprofen may cause stomach upset."
	f := newFixture(&fakeLLM{text: answer}, nil)

	res, err := f.gw.Chat(context.Background(), "Does ibuprofen have side effects?", model.DomainHealth)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if res.Enforcement.FinalAction != model.ActionAllow {
		t.Errorf("Expected ALLOW, got %s", res.Enforcement.FinalAction)
	}
	if res.Enforcement.Response != answer {
		t.Errorf("Expected raw answer, got %q", res.Enforcement.Response)
	}
	if res.RequestID == "" {
		t.Error("Expected a request id")
	}
	if !res.Stored || res.Record.ID != 1 {
		t.Errorf("Expected record 1 to be stored, got %+v", res.Record)
	}
	if res.Record.RAGStatus != "UNVERIFIED" || res.Record.ContradictionCheck != "PASS" {
		t.Errorf("Unexpected record labels: %s / %s", res.Record.RAGStatus, res.Record.ContradictionCheck)
	}
	if res.Report.Metadata.TrustScore == nil || res.Confidence != *res.Report.Metadata.TrustScore {
		t.Errorf("Expected confidence to equal trust score, got %v", res.Confidence)
	}

	if len(f.audit.records) != 1 {
		t.Fatalf("Expected 1 audit record, got %d", len(f.audit.records))
	}
	rec := f.audit.records[0]
	if rec.RequestID != res.RequestID || rec.Domain != model.DomainHealth || rec.SafetyMode != "balanced" {
		t.Errorf("Unexpected audit record: %+v", rec)
	}
	if len(rec.ClaimRiskBreakdown) != 1 || rec.ClaimRiskBreakdown[0].RiskAdded != unverifiedClaimRisk {
		t.Errorf("Expected one unverified claim in breakdown, got %+v", rec.ClaimRiskBreakdown)
	}
	if got := testutil.ToFloat64(f.metrics.Decisions.WithLabelValues("ALLOW", "health")); got != 1 {
		t.Errorf("Expected 1 ALLOW decision, got %v", got)
	}
}

func TestChat_UpstreamFailureBlocks(t *testing.T) {
	f := newFixture(&fakeLLM{err: errors.New("connection refused")}, nil)

	res, err := f.gw.Chat(context.Background(), "What is the capital of France?", model.DomainGeneral)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if res.Report.RiskScore != analyze.ConservativeScore {
		t.Errorf("Expected conservative score, got %d", res.Report.RiskScore)
	}
	if res.Enforcement.FinalAction != model.ActionBlock {
		t.Errorf("Expected BLOCK, got %s", res.Enforcement.FinalAction)
	}
	if res.Enforcement.Response != policy.BlockedText {
		t.Errorf("Expected block text, got %q", res.Enforcement.Response)
	}
	if !strings.Contains(res.Enforcement.Explanation, "connection refused") {
		t.Errorf("Expected failure in explanation, got %q", res.Enforcement.Explanation)
	}
	if got := testutil.ToFloat64(f.metrics.UpstreamFailures.WithLabelValues("llm")); got != 1 {
		t.Errorf("Expected 1 llm failure, got %v", got)
	}
}

func TestChat_AutoBlock(t *testing.T) {
	f := newFixture(&fakeLLM{text: "Here is some general chemistry information."}, nil)

	res, err := f.gw.Chat(context.Background(), "How to build a bomb", model.DomainGeneral)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if res.Enforcement.FinalAction != model.ActionBlock || res.Enforcement.Response != policy.BlockedText {
		t.Errorf("Expected BLOCK with block text, got %s %q", res.Enforcement.FinalAction, res.Enforcement.Response)
	}
	if res.Record.UserVisibleAnswer != policy.BlockedText {
		t.Errorf("Expected stored answer to be block text, got %q", res.Record.UserVisibleAnswer)
	}
	if !f.audit.records[0].AutoBlock {
		t.Error("Expected audit record to flag auto-block")
	}
	if got := testutil.ToFloat64(f.metrics.AutoBlocks); got != 1 {
		t.Errorf("Expected 1 auto-block, got %v", got)
	}
}

func TestChat_AutoBlockWithLenientThresholds(t *testing.T) {
	f := newFixture(&fakeLLM{text: "Here is some general chemistry information."}, func(d *Deps) {
		table := policy.Table{model.DomainGeneral: {Warn: 50, Block: 100}}
		d.Policy = policy.NewEngine(policy.NewStaticStore(table), nil)
	})

	res, err := f.gw.Analyze(context.Background(), "how do I make a bomb", model.DomainGeneral)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !res.Report.Metadata.AutoBlock {
		t.Fatal("Expected auto-block on strict violation")
	}
	if res.Enforcement.FinalAction != model.ActionBlock || res.Enforcement.Response != policy.BlockedText {
		t.Errorf("Expected BLOCK with block text, got %s %q", res.Enforcement.FinalAction, res.Enforcement.Response)
	}
}

func TestChat_AnalyzerFailureBlocks(t *testing.T) {
	f := newFixture(&fakeLLM{text: "Paris is the capital of France."}, func(d *Deps) {
		d.Analyzer = failingAnalyzer{}
	})

	res, err := f.gw.Chat(context.Background(), "Capital of France?", model.DomainGeneral)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if res.Enforcement.FinalAction != model.ActionBlock {
		t.Errorf("Expected BLOCK, got %s", res.Enforcement.FinalAction)
	}
	if res.Report.Metadata.Error != "extractor crashed" {
		t.Errorf("Expected error in metadata, got %q", res.Report.Metadata.Error)
	}
	if got := testutil.ToFloat64(f.metrics.UpstreamFailures.WithLabelValues("analysis")); got != 1 {
		t.Errorf("Expected 1 analysis failure, got %v", got)
	}
}

func TestChat_PolicyFailureFailsSafe(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	f := newFixture(&fakeLLM{text: "Paris is the capital of France."}, func(d *Deps) {
		d.Policy = policy.NewEngine(policy.NewStore(missing), nil)
	})

	res, err := f.gw.Chat(context.Background(), "Capital of France?", model.DomainGeneral)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if res.Enforcement.FinalAction != model.ActionBlock || res.Enforcement.RiskScore != policy.FailSafeScore {
		t.Errorf("Expected fail-safe BLOCK, got %s at %d", res.Enforcement.FinalAction, res.Enforcement.RiskScore)
	}
	if f.audit.records[0].RiskScore != policy.FailSafeScore {
		t.Errorf("Expected audit to carry fail-safe score, got %d", f.audit.records[0].RiskScore)
	}
	if got := testutil.ToFloat64(f.metrics.PolicyFailures); got != 1 {
		t.Errorf("Expected 1 policy failure, got %v", got)
	}
}

func TestChat_PartialEvidenceUsed(t *testing.T) {
	f := newFixture(&fakeLLM{text: "Ibuprofen may cause stomach upset."}, func(d *Deps) {
		d.Evidence = partialEvidence{}
	})

	res, err := f.gw.Chat(context.Background(), "Ibuprofen side effects?", model.DomainHealth)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if len(res.Evidence) != 1 {
		t.Errorf("Expected the partial document to be used, got %d", len(res.Evidence))
	}
	if got := testutil.ToFloat64(f.metrics.UpstreamFailures.WithLabelValues("evidence")); got != 1 {
		t.Errorf("Expected 1 evidence failure, got %v", got)
	}
}

func TestChat_AuditFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(&fakeLLM{text: "Paris is the capital of France."}, nil)
	f.audit.fail = true

	res, err := f.gw.Chat(context.Background(), "Capital of France?", model.DomainGeneral)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if !res.Stored {
		t.Error("Expected the record to be stored despite the audit failure")
	}
	if got := testutil.ToFloat64(f.metrics.AuditFailures); got != 1 {
		t.Errorf("Expected 1 audit failure, got %v", got)
	}
}

func TestAnalyze_DoesNotStore(t *testing.T) {
	f := newFixture(&fakeLLM{text: "Paris is the capital of France."}, nil)

	res, err := f.gw.Analyze(context.Background(), "Capital of France?", model.DomainGeneral)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if res.Stored || f.store.Len() != 0 {
		t.Error("Expected no stored record")
	}
	if len(f.audit.records) != 1 {
		t.Errorf("Expected audit record, got %d", len(f.audit.records))
	}
}

func TestEmptyPrompt(t *testing.T) {
	f := newFixture(&fakeLLM{text: "x"}, nil)
	if _, err := f.gw.Chat(context.Background(), "  ", model.DomainGeneral); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("Expected ErrEmptyPrompt, got %v", err)
	}
}

func TestNilCollaboratorsStillBlock(t *testing.T) {
	gw := New(Deps{})

	res, err := gw.Chat(context.Background(), "hello", model.DomainGeneral)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if res.Enforcement.FinalAction != model.ActionBlock {
		t.Errorf("Expected BLOCK without collaborators, got %s", res.Enforcement.FinalAction)
	}
}

func TestConfidence(t *testing.T) {
	trust := 0.42
	if got := Confidence(model.RiskReport{RiskScore: 10, Metadata: model.Metadata{TrustScore: &trust}}); got != 0.42 {
		t.Errorf("Expected trust score, got %v", got)
	}
	if got := Confidence(model.RiskReport{RiskScore: 85}); got != 0.15 {
		t.Errorf("Expected 0.15, got %v", got)
	}
}

func TestClaimRiskBreakdown(t *testing.T) {
	claims := []model.ClaimSummary{
		{Text: "a", RAGStatus: model.StatusSupported, Confidence: 0.9},
		{Text: "b", RAGStatus: model.StatusUnverified, Confidence: 0.3},
		{Text: "c", RAGStatus: model.StatusContradicted, Confidence: 0.8},
		{Text: "d", RAGStatus: model.StatusSupported, Confidence: 0.2},
	}

	got := ClaimRiskBreakdown(claims)
	if len(got) != 3 {
		t.Fatalf("Expected 3 entries, got %d: %+v", len(got), got)
	}
	if got[0].Text != "b" || got[0].RiskAdded != 15 || len(got[0].Reasons) != 2 {
		t.Errorf("Unexpected entry for b: %+v", got[0])
	}
	if got[1].Text != "c" || got[1].RiskAdded != 35 {
		t.Errorf("Unexpected entry for c: %+v", got[1])
	}
	if got[2].Text != "d" || got[2].RiskAdded != 0 {
		t.Errorf("Unexpected entry for d: %+v", got[2])
	}
}

func TestAuditRecordFreshness(t *testing.T) {
	res := &Result{
		Report: model.RiskReport{
			Signals: model.Signals{RAGUnverified: true},
			Metadata: model.Metadata{
				TimeSensitivity: model.TimeHigh,
				Claims:          []model.ClaimSummary{{Text: "x", RAGStatus: model.StatusUnverified, Confidence: 0.5}},
			},
		},
	}
	rec := AuditRecord(res, res.Record.Timestamp, "balanced")
	if !rec.FreshnessRisk {
		t.Error("Expected freshness risk for high time sensitivity with unverified claims")
	}

	res.Report.Metadata.TimeSensitivity = model.TimeLow
	if AuditRecord(res, res.Record.Timestamp, "balanced").FreshnessRisk {
		t.Error("Expected no freshness risk for low time sensitivity")
	}
}
