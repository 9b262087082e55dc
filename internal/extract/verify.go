package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/watchdog/internal/model"
	"github.com/ppiankov/watchdog/internal/rules"
)

const (
	minKeywordChars = 4   // Shorter words are ignored as keywords
	minCoverage     = 0.5 // Fraction of keywords that must occur in evidence
	negationRadius  = 50  // Characters of evidence inspected either side of a keyword
)

// verifyClaims checks each claim against the concatenated evidence text
func verifyClaims(claims []string, docs []model.Document, negations rules.Patterns) []model.VerificationStatus {
	statuses := make([]model.VerificationStatus, len(claims))
	if len(docs) == 0 {
		for i := range statuses {
			statuses[i] = model.StatusUnverified
		}
		return statuses
	}

	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.Content)
	}
	evidence := strings.ToLower(strings.Join(parts, " "))

	for i, claim := range claims {
		statuses[i] = verifyClaim(claim, evidence, negations)
	}
	return statuses
}

func verifyClaim(claim, evidence string, negations rules.Patterns) model.VerificationStatus {
	keywords := claimKeywords(claim)
	if len(keywords) == 0 {
		return model.StatusUnverified
	}

	var found []string
	for _, w := range keywords {
		if strings.Contains(evidence, w) {
			found = append(found, w)
		}
	}
	if float64(len(found))/float64(len(keywords)) < minCoverage {
		return model.StatusUnverified
	}

	for _, w := range found {
		pos := strings.Index(evidence, w)
		if negations.Any(negationWindow(evidence, pos)) {
			return model.StatusContradicted
		}
	}
	return model.StatusSupported
}

// negationWindow returns up to negationRadius characters either side of byte offset pos
func negationWindow(text string, pos int) string {
	before := []rune(text[:pos])
	after := []rune(text[pos:])
	return string(before[max(0, len(before)-negationRadius):]) + string(after[:min(len(after), negationRadius)])
}

// claimKeywords returns the distinct lowercased words of a claim longer than three characters,
// in order of first appearance
func claimKeywords(claim string) []string {
	seen := make(map[string]bool)
	var words []string
	for _, w := range claimWordToken.FindAllString(strings.ToLower(claim), -1) {
		if utf8.RuneCountInString(w) < minKeywordChars || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	return words
}
