package model

// Domain is the subject area a response belongs to
type Domain string

const (
	DomainGeneral Domain = "general"
	DomainHealth  Domain = "health"
	DomainFinance Domain = "finance"
	DomainLegal   Domain = "legal"
)

// Domains lists the known domains in detection tie-break order
var Domains = []Domain{DomainHealth, DomainFinance, DomainLegal}

// ParseDomain maps a free-form string to a Domain, defaulting to general
func ParseDomain(s string) Domain {
	switch Domain(s) {
	case DomainHealth, DomainFinance, DomainLegal:
		return Domain(s)
	default:
		return DomainGeneral
	}
}

// Sensitive reports whether the domain carries elevated harm potential
func (d Domain) Sensitive() bool {
	return d == DomainHealth || d == DomainFinance || d == DomainLegal
}

// TimeSensitivity describes how quickly a response may go stale
type TimeSensitivity string

const (
	TimeLow    TimeSensitivity = "LOW"
	TimeMedium TimeSensitivity = "MEDIUM"
	TimeHigh   TimeSensitivity = "HIGH"
)

// Severity grades a strict pattern violation
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
)

// StrictViolation is a single match of a hard-coded dangerous pattern
type StrictViolation struct {
	Pattern  string   `json:"pattern"`
	Severity Severity `json:"severity"`
}

// SignalBag is everything the extractor learned about one prompt/response pair
type SignalBag struct {
	InternalContradiction       bool   `json:"internal_contradiction"`
	InternalContradictionDetail string `json:"internal_contradiction_detail,omitempty"`
	RAGContradiction            bool   `json:"rag_contradiction"`
	RAGUnverified               bool   `json:"rag_unverified"`
	Overconfidence              bool   `json:"overconfidence"`
	OverconfidenceReason        string `json:"overconfidence_reason,omitempty"`

	Claims              []Claim              `json:"claims"`
	TimeSensitivity     TimeSensitivity      `json:"time_sensitivity"`
	Domain              Domain               `json:"domain"`
	StrictViolations    []StrictViolation    `json:"strict_violations"`
	ClaimContradictions []ClaimContradiction `json:"claim_contradictions"`
}

// HasHighViolation returns the first HIGH severity violation, if any
func (b SignalBag) HasHighViolation() (StrictViolation, bool) {
	for _, v := range b.StrictViolations {
		if v.Severity == SeverityHigh {
			return v, true
		}
	}
	return StrictViolation{}, false
}

// LowConfidenceClaims counts claims whose confidence is below threshold
func (b SignalBag) LowConfidenceClaims(threshold float64) int {
	n := 0
	for _, c := range b.Claims {
		if c.Confidence < threshold {
			n++
		}
	}
	return n
}

// AverageConfidence returns the mean claim confidence, false when there are no claims
func (b SignalBag) AverageConfidence() (float64, bool) {
	if len(b.Claims) == 0 {
		return 0, false
	}
	var sum float64
	for _, c := range b.Claims {
		sum += c.Confidence
	}
	return sum / float64(len(b.Claims)), true
}
