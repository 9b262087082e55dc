package extract

import (
	"unicode/utf8"

	"github.com/ppiankov/watchdog/internal/model"
	"github.com/ppiankov/watchdog/internal/rules"
)

const (
	baseConfidence    = 0.5
	hedgePenalty      = 0.05
	maxHedgePenalty   = 0.15
	shortClaimChars   = 20
	shortClaimPenalty = 0.05
	specificsBonus    = 0.10
	specificsPenalty  = 0.05
)

var statusAdjustment = map[model.VerificationStatus]float64{
	model.StatusSupported:    0.35,
	model.StatusContradicted: -0.40,
	model.StatusUnverified:   -0.10,
}

// claimConfidence scores how much a single claim can be trusted, in [0,1]
func claimConfidence(claim string, status model.VerificationStatus, set *rules.Set) float64 {
	c := baseConfidence + statusAdjustment[status]

	c -= min(maxHedgePenalty, float64(set.Hedging.Count(claim))*hedgePenalty)

	if set.ClaimSpecifics.Any(claim) {
		switch status {
		case model.StatusSupported:
			c += specificsBonus
		case model.StatusUnverified:
			c -= specificsPenalty
		}
	}

	if utf8.RuneCountInString(claim) < shortClaimChars {
		c -= shortClaimPenalty
	}

	return clamp01(c)
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
