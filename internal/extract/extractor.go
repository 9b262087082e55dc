// Package extract derives risk signals from a prompt, the model's response and optional evidence.
package extract

import (
	"github.com/ppiankov/watchdog/internal/model"
	"github.com/ppiankov/watchdog/internal/rules"
)

// Extractor turns text into a SignalBag. It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	rules *rules.Set
}

// NewExtractor creates an extractor over the given rule table (nil means the embedded default)
func NewExtractor(set *rules.Set) *Extractor {
	if set == nil {
		set = rules.Default()
	}
	return &Extractor{rules: set}
}

// Rules returns the table this extractor runs on
func (e *Extractor) Rules() *rules.Set {
	return e.rules
}

// Extract computes every signal for one prompt/response pair
func (e *Extractor) Extract(prompt, response string, docs []model.Document) model.SignalBag {
	texts := ExtractClaims(response)
	statuses := verifyClaims(texts, docs, e.rules.EvidenceNegations)
	deps := claimDependencies(texts)

	claims := make([]model.Claim, len(texts))
	for i, text := range texts {
		claims[i] = model.Claim{
			Text:       text,
			Sentence:   i,
			Status:     statuses[i],
			Confidence: claimConfidence(text, statuses[i], e.rules),
			DependsOn:  deps[i],
		}
	}

	bag := model.SignalBag{
		Claims:              claims,
		TimeSensitivity:     detectTimeSensitivity(prompt, response, e.rules),
		Domain:              detectDomain(prompt, response, e.rules),
		StrictViolations:    detectStrictViolations(prompt, response, e.rules),
		ClaimContradictions: detectClaimContradictions(texts, e.rules),
	}
	bag.Overconfidence, bag.OverconfidenceReason = detectOverconfidence(prompt, response, e.rules)
	bag.InternalContradiction, bag.InternalContradictionDetail = detectInternalContradiction(response)

	for _, s := range statuses {
		switch s {
		case model.StatusContradicted:
			bag.RAGContradiction = true
		case model.StatusUnverified:
			bag.RAGUnverified = true
		}
	}

	return bag
}
