// Package autoblock decides when signals are severe enough to force a block regardless of score.
package autoblock

import (
	"fmt"

	"github.com/ppiankov/watchdog/internal/model"
)

// LowConfidenceThreshold marks a claim as low confidence
const LowConfidenceThreshold = 0.4

// Rule inspects a signal bag and returns a reason when it fires
type Rule struct {
	Name  string
	Check func(bag model.SignalBag) (string, bool)
}

// Decision is the outcome of the auto-block rules
type Decision struct {
	Block   bool
	Reasons []string
}

// Decider evaluates an ordered rule list. The first firing rule decides.
type Decider struct {
	rules []Rule
}

// NewDecider creates a decider with the default rules
func NewDecider() *Decider {
	return &Decider{rules: DefaultRules()}
}

// NewDeciderWithRules creates a decider over a custom rule list
func NewDeciderWithRules(rules []Rule) *Decider {
	return &Decider{rules: rules}
}

// Decide applies the rules in order and stops at the first one that fires
func (d *Decider) Decide(bag model.SignalBag) Decision {
	for _, r := range d.rules {
		if reason, ok := r.Check(bag); ok {
			return Decision{Block: true, Reasons: []string{reason}}
		}
	}
	return Decision{Reasons: []string{}}
}

// DefaultRules returns the built-in rules in evaluation order
func DefaultRules() []Rule {
	return []Rule{
		{Name: "strict_high", Check: strictHigh},
		{Name: "claim_contradictions", Check: multipleClaimContradictions},
		{Name: "sensitive_contradiction", Check: sensitiveContradiction},
		{Name: "time_sensitive_contradiction", Check: timeSensitiveContradiction},
		{Name: "overconfident_unverified", Check: overconfidentUnverified},
	}
}

func strictHigh(bag model.SignalBag) (string, bool) {
	if v, ok := bag.HasHighViolation(); ok {
		return "Strict pattern matched: " + v.Pattern, true
	}
	return "", false
}

func multipleClaimContradictions(bag model.SignalBag) (string, bool) {
	if n := len(bag.ClaimContradictions); n > 1 {
		return fmt.Sprintf("Multiple claim contradictions detected: %d", n), true
	}
	return "", false
}

func sensitiveContradiction(bag model.SignalBag) (string, bool) {
	if bag.InternalContradiction && bag.Domain.Sensitive() {
		return fmt.Sprintf("Internal contradiction in sensitive domain: %s", bag.Domain), true
	}
	return "", false
}

func timeSensitiveContradiction(bag model.SignalBag) (string, bool) {
	if bag.InternalContradiction && bag.TimeSensitivity == model.TimeHigh {
		return "Internal contradiction in high time-sensitivity content", true
	}
	return "", false
}

// overconfidentUnverified covers health and finance only; legal is not included
func overconfidentUnverified(bag model.SignalBag) (string, bool) {
	if !bag.Overconfidence {
		return "", false
	}
	if bag.Domain != model.DomainHealth && bag.Domain != model.DomainFinance {
		return "", false
	}
	if bag.RAGUnverified || bag.LowConfidenceClaims(LowConfidenceThreshold) >= 2 {
		return "Overconfident claims with low verification/confidence in sensitive domain", true
	}
	return "", false
}
