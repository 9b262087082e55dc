package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	sentenceSplit  = regexp.MustCompile(`[.!?]+`)
	entityPattern  = regexp.MustCompile(`\b[A-Z][a-z]+\b`)
	claimWordToken = regexp.MustCompile(`\b\w+\b`)
)

// minClaimChars is the shortest fragment treated as a claim
const minClaimChars = 11

// ExtractClaims splits a response into atomic claim fragments
func ExtractClaims(response string) []string {
	if strings.TrimSpace(response) == "" {
		return nil
	}

	var claims []string
	for _, fragment := range sentenceSplit.Split(response, -1) {
		fragment = strings.TrimSpace(fragment)
		if utf8.RuneCountInString(fragment) < minClaimChars {
			continue
		}
		claims = append(claims, fragment)
	}
	return claims
}

// claimDependencies links each claim to the other claims that share a capitalized entity
func claimDependencies(claims []string) [][]int {
	entities := make([]map[string]bool, len(claims))
	for i, c := range claims {
		entities[i] = make(map[string]bool)
		for _, e := range entityPattern.FindAllString(c, -1) {
			entities[i][e] = true
		}
	}

	deps := make([][]int, len(claims))
	for i := range claims {
		deps[i] = []int{}
		if len(entities[i]) == 0 {
			continue
		}
		for j := range claims {
			if i == j {
				continue
			}
			for e := range entities[i] {
				if entities[j][e] {
					deps[i] = append(deps[i], j)
					break
				}
			}
		}
	}
	return deps
}
