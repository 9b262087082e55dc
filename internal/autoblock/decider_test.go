package autoblock

import (
	"testing"

	"github.com/ppiankov/watchdog/internal/model"
)

func TestDecider_Rules(t *testing.T) {
	lowClaims := []model.Claim{{Confidence: 0.2}, {Confidence: 0.3}}

	tests := []struct {
		name   string
		bag    model.SignalBag
		block  bool
		reason string
	}{
		{
			name:  "nothing fires",
			bag:   model.SignalBag{Domain: model.DomainGeneral, TimeSensitivity: model.TimeMedium},
			block: false,
		},
		{
			name: "high strict violation",
			bag: model.SignalBag{StrictViolations: []model.StrictViolation{
				{Pattern: "overnight", Severity: model.SeverityMedium},
				{Pattern: `\bbomb\b`, Severity: model.SeverityHigh},
			}},
			block:  true,
			reason: `Strict pattern matched: \bbomb\b`,
		},
		{
			name:  "medium strict violation alone",
			bag:   model.SignalBag{StrictViolations: []model.StrictViolation{{Pattern: "get rich", Severity: model.SeverityMedium}}},
			block: false,
		},
		{
			name:  "one claim contradiction",
			bag:   model.SignalBag{ClaimContradictions: []model.ClaimContradiction{{I: 0, J: 1}}},
			block: false,
		},
		{
			name:   "two claim contradictions",
			bag:    model.SignalBag{ClaimContradictions: []model.ClaimContradiction{{I: 0, J: 1}, {I: 1, J: 2}}},
			block:  true,
			reason: "Multiple claim contradictions detected: 2",
		},
		{
			name:   "contradiction in legal",
			bag:    model.SignalBag{InternalContradiction: true, Domain: model.DomainLegal},
			block:  true,
			reason: "Internal contradiction in sensitive domain: legal",
		},
		{
			name:   "contradiction in fresh content",
			bag:    model.SignalBag{InternalContradiction: true, Domain: model.DomainGeneral, TimeSensitivity: model.TimeHigh},
			block:  true,
			reason: "Internal contradiction in high time-sensitivity content",
		},
		{
			name:   "overconfident unverified health",
			bag:    model.SignalBag{Overconfidence: true, RAGUnverified: true, Domain: model.DomainHealth},
			block:  true,
			reason: "Overconfident claims with low verification/confidence in sensitive domain",
		},
		{
			name:   "overconfident low confidence finance",
			bag:    model.SignalBag{Overconfidence: true, Domain: model.DomainFinance, Claims: lowClaims},
			block:  true,
			reason: "Overconfident claims with low verification/confidence in sensitive domain",
		},
		{
			name:  "overconfident unverified legal",
			bag:   model.SignalBag{Overconfidence: true, RAGUnverified: true, Domain: model.DomainLegal},
			block: false,
		},
		{
			name:  "overconfident verified health",
			bag:   model.SignalBag{Overconfidence: true, Domain: model.DomainHealth, Claims: []model.Claim{{Confidence: 0.9}}},
			block: false,
		},
	}

	d := NewDecider()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Decide(tt.bag)
			if got.Block != tt.block {
				t.Fatalf("Expected block=%v, got %v (%v)", tt.block, got.Block, got.Reasons)
			}
			if !tt.block {
				if len(got.Reasons) != 0 {
					t.Errorf("Expected no reasons, got %v", got.Reasons)
				}
				return
			}
			if len(got.Reasons) != 1 || got.Reasons[0] != tt.reason {
				t.Errorf("Expected reason %q, got %v", tt.reason, got.Reasons)
			}
		})
	}
}

func TestDecider_FirstRuleWins(t *testing.T) {
	bag := model.SignalBag{
		StrictViolations:      []model.StrictViolation{{Pattern: "no side effects", Severity: model.SeverityHigh}},
		InternalContradiction: true,
		Domain:                model.DomainHealth,
	}

	got := NewDecider().Decide(bag)
	if got.Reasons[0] != "Strict pattern matched: no side effects" {
		t.Errorf("Expected strict rule to win, got %v", got.Reasons)
	}
}

func TestDecider_CustomRules(t *testing.T) {
	d := NewDeciderWithRules([]Rule{{
		Name:  "always",
		Check: func(model.SignalBag) (string, bool) { return "custom", true },
	}})

	if got := d.Decide(model.SignalBag{}); !got.Block || got.Reasons[0] != "custom" {
		t.Errorf("Expected custom rule to block, got %+v", got)
	}
}
