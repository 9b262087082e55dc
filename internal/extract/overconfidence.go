package extract

import "github.com/ppiankov/watchdog/internal/rules"

// detectOverconfidence flags certainty language, or specific advice in a sensitive context
func detectOverconfidence(prompt, response string, set *rules.Set) (bool, string) {
	if set.Overconfidence.Any(response) {
		return true, "High confidence language detected"
	}
	if set.SensitiveDomains.Any(combined(prompt, response)) && set.SpecificClaims.Any(response) {
		return true, "Confident advice in sensitive domain"
	}
	return false, ""
}
