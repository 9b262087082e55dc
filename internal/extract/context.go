package extract

import (
	"strings"

	"github.com/ppiankov/watchdog/internal/model"
	"github.com/ppiankov/watchdog/internal/rules"
)

// detectTimeSensitivity grades how fast the content may go stale. Unclear content is MEDIUM.
func detectTimeSensitivity(prompt, response string, set *rules.Set) model.TimeSensitivity {
	text := combined(prompt, response)
	switch {
	case set.TimeHigh.Any(text):
		return model.TimeHigh
	case set.TimeMedium.Any(text):
		return model.TimeMedium
	case set.TimeLow.Any(text):
		return model.TimeLow
	default:
		return model.TimeMedium
	}
}

// detectDomain picks the domain with the most distinct indicator matches.
// Ties go to the earlier domain in the table; no matches means general.
func detectDomain(prompt, response string, set *rules.Set) model.Domain {
	text := combined(prompt, response)
	best, bestScore := model.DomainGeneral, 0
	for _, d := range set.Domains {
		if score := d.Patterns.Count(text); score > bestScore {
			best, bestScore = d.Domain, score
		}
	}
	return best
}

func combined(prompt, response string) string {
	return strings.ToLower(prompt + " " + response)
}
