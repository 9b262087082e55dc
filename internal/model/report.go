package model

// RiskReport is the outcome of analyzing one prompt/response pair
type RiskReport struct {
	RiskScore   int      `json:"risk_score"`  // 0-100, higher is riskier
	Signals     Signals  `json:"signals"`     // Exposed subset of the signal bag
	Explanation string   `json:"explanation"` // Human-readable summary
	Metadata    Metadata `json:"metadata"`
}

// Signals is the externally visible subset of SignalBag
type Signals struct {
	InternalContradiction bool `json:"internal_contradiction"`
	RAGContradiction      bool `json:"rag_contradiction"`
	RAGUnverified         bool `json:"rag_unverified"`
	Overconfidence        bool `json:"overconfidence"`
}

// Any reports whether any signal fired
func (s Signals) Any() bool {
	return s.InternalContradiction || s.RAGContradiction || s.RAGUnverified || s.Overconfidence
}

// ClaimSummary is the reported view of a claim
type ClaimSummary struct {
	Text       string             `json:"text"`
	RAGStatus  VerificationStatus `json:"rag_status"`
	Confidence float64            `json:"confidence"` // Rounded to 3 decimals
	DependsOn  []int              `json:"depends_on"`
}

// Metadata carries the extended assessment. Error is set only on the conservative fallback.
type Metadata struct {
	Claims              []ClaimSummary       `json:"claims,omitempty"`
	TrustScore          *float64             `json:"trust_score,omitempty"`
	TimeSensitivity     TimeSensitivity      `json:"time_sensitivity,omitempty"`
	Domain              Domain               `json:"domain,omitempty"`
	DomainMultiplier    float64              `json:"domain_multiplier,omitempty"`
	BusinessImpact      string               `json:"business_impact,omitempty"`
	AutoBlock           bool                 `json:"auto_block"`
	AutoBlockReasons    []string             `json:"auto_block_reasons,omitempty"`
	StrictViolations    []StrictViolation    `json:"strict_violations,omitempty"`
	ClaimContradictions []ClaimContradiction `json:"claim_contradictions,omitempty"`
	RiskLevel           RiskLevel            `json:"risk_level,omitempty"`
	Breakdown           *RiskBreakdown       `json:"risk_breakdown,omitempty"`
	Error               string               `json:"error,omitempty"`
}

// RiskLevel buckets a risk score
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// RiskBreakdown shows how each signal contributed to the base score
type RiskBreakdown struct {
	TotalScore int            `json:"total_score"`
	Components map[string]int `json:"components"`
	RawTotal   int            `json:"raw_total"`
	Capped     bool           `json:"capped"`
}
