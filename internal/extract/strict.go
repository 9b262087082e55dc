package extract

import (
	"fmt"
	"strings"

	"github.com/ppiankov/watchdog/internal/model"
	"github.com/ppiankov/watchdog/internal/rules"
)

// earlyTokens is how many leading words of a negated claim are looked for in its partner
const earlyTokens = 5

// detectStrictViolations lists every strict pattern found in prompt plus response, HIGH first
func detectStrictViolations(prompt, response string, set *rules.Set) []model.StrictViolation {
	text := combined(prompt, response)
	violations := []model.StrictViolation{}
	for _, p := range set.StrictHigh {
		if p.MatchString(text) {
			violations = append(violations, model.StrictViolation{Pattern: p.Source, Severity: model.SeverityHigh})
		}
	}
	for _, p := range set.StrictMedium {
		if p.MatchString(text) {
			violations = append(violations, model.StrictViolation{Pattern: p.Source, Severity: model.SeverityMedium})
		}
	}
	return violations
}

// detectClaimContradictions compares every claim pair (i < j) for negation and antonym conflicts
func detectClaimContradictions(claims []string, set *rules.Set) []model.ClaimContradiction {
	found := []model.ClaimContradiction{}
	for i := 0; i < len(claims); i++ {
		for j := i + 1; j < len(claims); j++ {
			a, b := strings.ToLower(claims[i]), strings.ToLower(claims[j])

			if negationMismatch(a, b, set.NegationMarkers) {
				found = append(found, model.ClaimContradiction{I: i, J: j, Reason: "Negation mismatch"})
			}

			for _, pair := range set.Antonyms {
				if pair.InA(a) && pair.InB(b) {
					found = append(found, model.ClaimContradiction{I: i, J: j, Reason: fmt.Sprintf("Antonym detected: %s vs %s", pair.A, pair.B)})
				} else if pair.InB(a) && pair.InA(b) {
					found = append(found, model.ClaimContradiction{I: i, J: j, Reason: fmt.Sprintf("Antonym detected: %s vs %s", pair.B, pair.A)})
				}
			}
		}
	}
	return found
}

// negationMismatch reports a marker present in a but not b while b repeats one of a's early words
func negationMismatch(a, b string, markers []string) bool {
	tokens := strings.Fields(a)
	if len(tokens) > earlyTokens {
		tokens = tokens[:earlyTokens]
	}
	for _, m := range markers {
		if !strings.Contains(a, m) || strings.Contains(b, m) {
			continue
		}
		for _, tok := range tokens {
			if strings.Contains(b, tok) {
				return true
			}
		}
	}
	return false
}
