package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/watchdog/internal/model"
)

// timePenalty lowers trust for content that goes stale quickly
var timePenalty = map[model.TimeSensitivity]float64{
	model.TimeLow:    0.0,
	model.TimeMedium: 0.10,
	model.TimeHigh:   0.20,
}

const (
	defaultTimePenalty = 0.10
	autoBlockTrustCap  = 0.05
	claimWeight        = 0.4
)

// TrustScore estimates how safe the response is to show publicly, in [0,1]
func TrustScore(risk int, bag model.SignalBag, autoBlock bool) float64 {
	trust := (1.0 - float64(risk)/100.0) / DomainMultiplier(bag.Domain)

	penalty, ok := timePenalty[bag.TimeSensitivity]
	if !ok {
		penalty = defaultTimePenalty
	}
	trust -= penalty

	if avg, ok := bag.AverageConfidence(); ok {
		trust = trust*(1-claimWeight) + avg*claimWeight
	}

	if bag.RAGUnverified {
		trust -= 0.05
	}
	if bag.RAGContradiction {
		trust -= 0.15
	}
	if bag.InternalContradiction {
		trust -= 0.20
	}
	if bag.Overconfidence {
		trust -= 0.10
	}
	if autoBlock {
		trust = min(trust, autoBlockTrustCap)
	}

	return max(0, min(1, trust))
}

var domainImpact = map[model.Domain][2]string{
	model.DomainHealth:  {"potential health misinformation liability", "medical information requiring verification"},
	model.DomainFinance: {"financial advice risk and regulatory concerns", "financial information requiring disclaimer"},
	model.DomainLegal:   {"legal liability and compliance risk", "legal information requiring professional review"},
}

// BusinessImpact describes the consequences of exposing the response
func BusinessImpact(trust float64, bag model.SignalBag) string {
	var severity string
	switch {
	case trust >= 0.7:
		severity = "Low"
	case trust >= 0.4:
		severity = "Medium"
	default:
		severity = "High"
	}

	var impacts []string
	if phrases, ok := domainImpact[bag.Domain]; ok {
		if trust < 0.5 {
			impacts = append(impacts, phrases[0])
		} else {
			impacts = append(impacts, phrases[1])
		}
	}
	if bag.TimeSensitivity == model.TimeHigh {
		impacts = append(impacts, "time-sensitive data that may become stale quickly")
	}
	if bag.RAGContradiction {
		impacts = append(impacts, "contradicts authoritative sources")
	}
	if bag.InternalContradiction {
		impacts = append(impacts, "contains logical inconsistencies")
	}
	if bag.Overconfidence {
		impacts = append(impacts, "overconfident language without grounding")
	}

	var reputation string
	switch {
	case trust < 0.4:
		reputation = "High reputational risk if exposed publicly"
	case trust < 0.7:
		reputation = "Moderate reputational risk; consider review before exposure"
	default:
		reputation = "Low reputational risk; generally safe for public exposure"
	}

	if len(impacts) == 0 {
		return fmt.Sprintf("%s business impact: %s", severity, reputation)
	}
	return fmt.Sprintf("%s business impact: %s. %s", severity, strings.Join(impacts, ", "), reputation)
}
