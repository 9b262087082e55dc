package score

import (
	"math"
	"strings"

	"github.com/ppiankov/watchdog/internal/model"
)

// Weights are the points each signal adds to the base score
type Weights struct {
	InternalContradiction int `json:"internal_contradiction"`
	RAGContradiction      int `json:"rag_contradiction"`
	RAGUnverified         int `json:"rag_unverified"`
	Overconfidence        int `json:"overconfidence"`
}

// DefaultWeights returns the standard signal weights
func DefaultWeights() Weights {
	return Weights{
		InternalContradiction: 40,
		RAGContradiction:      35,
		RAGUnverified:         15,
		Overconfidence:        20,
	}
}

// domainMultipliers scale the base score by harm potential
var domainMultipliers = map[model.Domain]float64{
	model.DomainGeneral: 1.0,
	model.DomainHealth:  1.5,
	model.DomainFinance: 1.4,
	model.DomainLegal:   1.6,
}

const (
	maxScore        = 100
	autoBlockFloor  = 95
	highRiskScore   = 70
	mediumRiskScore = 35
)

// Scorer turns signals into a risk score and explanation
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the default weights
func NewScorer() *Scorer {
	return &Scorer{weights: DefaultWeights()}
}

// NewScorerWithWeights creates a scorer with custom weights
func NewScorerWithWeights(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Weights returns the weights in use
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Assessment is the scored view of a signal bag
type Assessment struct {
	BaseScore        int
	RiskScore        int
	Multiplier       float64
	Explanation      string
	TrustScore       float64
	BusinessImpact   string
	Level            model.RiskLevel
	Breakdown        model.RiskBreakdown
	AutoBlock        bool
	AutoBlockReasons []string
}

// Calculate scores a signal bag. When autoBlock is set the score is raised to at least 95.
func (s *Scorer) Calculate(bag model.SignalBag, autoBlock bool, autoBlockReasons []string) Assessment {
	flags := Flags(bag)
	base := s.BaseScore(flags)
	mult := DomainMultiplier(bag.Domain)

	risk := min(int(float64(base)*mult), maxScore)
	explanation := Explanation(bag, risk)

	if autoBlock {
		risk = max(risk, autoBlockFloor)
		explanation += "; Auto-block rule triggered"
	}

	trust := TrustScore(risk, bag, autoBlock)
	if autoBlockReasons == nil {
		autoBlockReasons = []string{}
	}

	return Assessment{
		BaseScore:        base,
		RiskScore:        risk,
		Multiplier:       mult,
		Explanation:      explanation,
		TrustScore:       trust,
		BusinessImpact:   BusinessImpact(trust, bag),
		Level:            Level(risk),
		Breakdown:        s.Breakdown(flags, risk),
		AutoBlock:        autoBlock,
		AutoBlockReasons: autoBlockReasons,
	}
}

// Flags extracts the four exposed signals from a bag
func Flags(bag model.SignalBag) model.Signals {
	return model.Signals{
		InternalContradiction: bag.InternalContradiction,
		RAGContradiction:      bag.RAGContradiction,
		RAGUnverified:         bag.RAGUnverified,
		Overconfidence:        bag.Overconfidence,
	}
}

// BaseScore sums the weights of the signals present, capped at 100
func (s *Scorer) BaseScore(sig model.Signals) int {
	return min(s.rawTotal(sig), maxScore)
}

func (s *Scorer) rawTotal(sig model.Signals) int {
	total := 0
	for _, c := range s.components(sig) {
		total += c.points
	}
	return total
}

type component struct {
	name   string
	points int
}

func (s *Scorer) components(sig model.Signals) []component {
	var out []component
	if sig.InternalContradiction {
		out = append(out, component{"internal_contradiction", s.weights.InternalContradiction})
	}
	if sig.RAGContradiction {
		out = append(out, component{"rag_contradiction", s.weights.RAGContradiction})
	}
	if sig.RAGUnverified {
		out = append(out, component{"rag_unverified", s.weights.RAGUnverified})
	}
	if sig.Overconfidence {
		out = append(out, component{"overconfidence", s.weights.Overconfidence})
	}
	return out
}

// Breakdown shows the per-signal contribution behind a score
func (s *Scorer) Breakdown(sig model.Signals, score int) model.RiskBreakdown {
	b := model.RiskBreakdown{
		TotalScore: score,
		Components: make(map[string]int),
	}
	for _, c := range s.components(sig) {
		b.Components[c.name] = c.points
		b.RawTotal += c.points
	}
	b.Capped = b.RawTotal > maxScore
	return b
}

// DomainMultiplier returns the score multiplier for a domain (1.0 when unknown)
func DomainMultiplier(d model.Domain) float64 {
	if m, ok := domainMultipliers[d]; ok {
		return m
	}
	return 1.0
}

// Level buckets a score: HIGH from 70, MEDIUM from 35, otherwise LOW
func Level(score int) model.RiskLevel {
	switch {
	case score >= highRiskScore:
		return model.RiskHigh
	case score >= mediumRiskScore:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// IsHighRisk reports a score of 70 or more
func IsHighRisk(score int) bool { return Level(score) == model.RiskHigh }

// IsMediumRisk reports a score from 35 to 69
func IsMediumRisk(score int) bool { return Level(score) == model.RiskMedium }

// IsLowRisk reports a score below 35
func IsLowRisk(score int) bool { return Level(score) == model.RiskLow }

// HasContradictions reports evidence or internal contradictions
func HasContradictions(sig model.Signals) bool {
	return sig.RAGContradiction || sig.InternalContradiction
}

// HasUnverifiedClaims reports claims without supporting evidence
func HasUnverifiedClaims(sig model.Signals) bool {
	return sig.RAGUnverified
}

// Explanation builds the human-readable summary for a score
func Explanation(bag model.SignalBag, score int) string {
	var issues []string

	if bag.InternalContradiction {
		if bag.InternalContradictionDetail != "" {
			issues = append(issues, "Internal contradiction detected: "+bag.InternalContradictionDetail)
		} else {
			issues = append(issues, "Response contains internal contradictions")
		}
	}
	if bag.RAGContradiction {
		issues = append(issues, "Response contradicts retrieved knowledge base information")
	}
	if bag.RAGUnverified {
		issues = append(issues, "Response contains unverified factual claims")
	}
	if bag.Overconfidence {
		if bag.OverconfidenceReason != "" {
			issues = append(issues, "Overconfidence detected: "+bag.OverconfidenceReason)
		} else {
			issues = append(issues, "High confidence language without supporting evidence")
		}
	}

	prefix := string(Level(score)) + " RISK: "
	if len(issues) == 0 {
		return prefix + "Response appears factual and well-grounded"
	}
	return prefix + strings.Join(issues, "; ")
}

// Round3 rounds to three decimal places
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
