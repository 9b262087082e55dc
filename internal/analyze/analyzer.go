// Package analyze runs extraction, auto-block rules and scoring to produce a RiskReport.
package analyze

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/watchdog/internal/autoblock"
	"github.com/ppiankov/watchdog/internal/extract"
	"github.com/ppiankov/watchdog/internal/model"
	"github.com/ppiankov/watchdog/internal/rules"
	"github.com/ppiankov/watchdog/internal/score"
)

// Version of the risk engine
const Version = "1.0.0"

// ConservativeScore is reported whenever analysis cannot complete
const ConservativeScore = 85

// SignalExtractor derives signals from text
type SignalExtractor interface {
	Extract(prompt, response string, docs []model.Document) model.SignalBag
}

// BlockDecider decides whether signals force a block
type BlockDecider interface {
	Decide(bag model.SignalBag) autoblock.Decision
}

// Analyzer produces risk reports
type Analyzer struct {
	extractor SignalExtractor
	decider   BlockDecider
	scorer    *score.Scorer
	rulesVer  int
}

// NewAnalyzer wires an analyzer from its parts
func NewAnalyzer(extractor SignalExtractor, decider BlockDecider, scorer *score.Scorer) *Analyzer {
	return &Analyzer{
		extractor: extractor,
		decider:   decider,
		scorer:    scorer,
		rulesVer:  rules.SupportedVersion,
	}
}

// NewDefault creates an analyzer over a rule table (nil means the embedded default)
func NewDefault(set *rules.Set) *Analyzer {
	e := extract.NewExtractor(set)
	a := NewAnalyzer(e, autoblock.NewDecider(), score.NewScorer())
	a.rulesVer = e.Rules().Version
	return a
}

// Analyze scores one prompt/response pair. A panic during analysis is returned as an error.
func (a *Analyzer) Analyze(prompt, response string, docs []model.Document) (report model.RiskReport, err error) {
	if strings.TrimSpace(response) == "" {
		return EmptyReport(), nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panicked: %v", r)
		}
	}()

	bag := a.extractor.Extract(prompt, response, docs)
	block := a.decider.Decide(bag)
	assessment := a.scorer.Calculate(bag, block.Block, block.Reasons)

	trust := score.Round3(assessment.TrustScore)
	breakdown := assessment.Breakdown

	return model.RiskReport{
		RiskScore:   assessment.RiskScore,
		Signals:     score.Flags(bag),
		Explanation: assessment.Explanation,
		Metadata: model.Metadata{
			Claims:              summarizeClaims(bag.Claims),
			TrustScore:          &trust,
			TimeSensitivity:     bag.TimeSensitivity,
			Domain:              bag.Domain,
			DomainMultiplier:    assessment.Multiplier,
			BusinessImpact:      assessment.BusinessImpact,
			AutoBlock:           assessment.AutoBlock,
			AutoBlockReasons:    assessment.AutoBlockReasons,
			StrictViolations:    bag.StrictViolations,
			ClaimContradictions: bag.ClaimContradictions,
			RiskLevel:           assessment.Level,
			Breakdown:           &breakdown,
		},
	}, nil
}

// AnalyzeOrConservative is Analyze with failures folded into the conservative report
func (a *Analyzer) AnalyzeOrConservative(prompt, response string, docs []model.Document) model.RiskReport {
	return OrConservative(a.Analyze(prompt, response, docs))
}

// OrConservative returns report unless err is set, in which case it returns Conservative(err)
func OrConservative(report model.RiskReport, err error) model.RiskReport {
	if err != nil {
		return Conservative(err)
	}
	return report
}

// Conservative is the fixed report used when analysis or an upstream dependency fails
func Conservative(err error) model.RiskReport {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return model.RiskReport{
		RiskScore: ConservativeScore,
		Signals: model.Signals{
			InternalContradiction: true,
			RAGContradiction:      true,
			RAGUnverified:         true,
			Overconfidence:        true,
		},
		Explanation: "Risk analysis failed: " + err.Error(),
		Metadata: model.Metadata{
			RiskLevel: score.Level(ConservativeScore),
			Error:     err.Error(),
		},
	}
}

// EmptyReport is the neutral report for an empty response
func EmptyReport() model.RiskReport {
	trust := 0.5
	return model.RiskReport{
		RiskScore:   0,
		Explanation: "Empty response - no risk detected",
		Metadata: model.Metadata{
			Claims:           []model.ClaimSummary{},
			TrustScore:       &trust,
			TimeSensitivity:  model.TimeLow,
			Domain:           model.DomainGeneral,
			DomainMultiplier: 1.0,
			BusinessImpact:   "No content to assess - neutral trust",
			RiskLevel:        model.RiskLow,
		},
	}
}

func summarizeClaims(claims []model.Claim) []model.ClaimSummary {
	out := make([]model.ClaimSummary, 0, len(claims))
	for _, c := range claims {
		deps := c.DependsOn
		if deps == nil {
			deps = []int{}
		}
		out = append(out, model.ClaimSummary{
			Text:       c.Text,
			RAGStatus:  c.Status,
			Confidence: score.Round3(c.Confidence),
			DependsOn:  deps,
		})
	}
	return out
}

// SystemInfo describes the running engine
type SystemInfo struct {
	Version             string        `json:"version"`
	RulesVersion        int           `json:"rules_version"`
	RiskWeights         score.Weights `json:"risk_weights"`
	SupportedRAG        bool          `json:"supported_rag"`
	GracefulDegradation bool          `json:"graceful_degradation"`
	Description         string        `json:"description"`
}

// Info returns engine metadata
func (a *Analyzer) Info() SystemInfo {
	return SystemInfo{
		Version:             Version,
		RulesVersion:        a.rulesVer,
		RiskWeights:         a.scorer.Weights(),
		SupportedRAG:        true,
		GracefulDegradation: true,
		Description:         "Real-time AI hallucination detection and risk scoring system",
	}
}
