package evidence

import (
	"net/url"
	"strings"

	"github.com/ppiankov/watchdog/internal/model"
)

// Tier is the authority of an evidence source
type Tier string

const (
	TierPrimary   Tier = "primary"   // Regulators, statutes, official bodies, academia
	TierSecondary Tier = "secondary" // Encyclopedias, major publishers, reputable media
	TierTertiary  Tier = "tertiary"  // Everything else
)

// rank orders tiers for sorting; unknown tiers sort last
func (t Tier) rank() int {
	switch t {
	case TierPrimary:
		return 0
	case TierSecondary:
		return 1
	case TierTertiary:
		return 2
	default:
		return 3
	}
}

// ParseTier converts a tier name or number to a Tier
func ParseTier(s string) Tier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary", "1":
		return TierPrimary
	case "secondary", "2":
		return TierSecondary
	default:
		return TierTertiary
	}
}

// AuthorityClassifier assigns a tier to source URLs by host
type AuthorityClassifier struct {
	domainMap map[string]Tier
	primary   []string
	secondary []string
}

// NewAuthorityClassifier creates a classifier from configuration
func NewAuthorityClassifier(cfg model.AuthorityConfig) *AuthorityClassifier {
	a := &AuthorityClassifier{
		domainMap: make(map[string]Tier, len(cfg.DomainMap)),
		primary:   normalizeHosts(cfg.PrimaryDomains),
		secondary: normalizeHosts(cfg.SecondaryDomains),
	}
	for host, tier := range cfg.DomainMap {
		a.domainMap[strings.ToLower(host)] = ParseTier(tier)
	}
	return a
}

func normalizeHosts(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "."))
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

// Classify returns the tier for a URL. Unparseable URLs are tertiary.
func (a *AuthorityClassifier) Classify(rawURL string) Tier {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return TierTertiary
	}
	host := strings.ToLower(parsed.Hostname())

	if tier, ok := a.domainMap[host]; ok {
		return tier
	}
	if matchesAny(host, a.primary) {
		return TierPrimary
	}
	if matchesAny(host, a.secondary) {
		return TierSecondary
	}

	// Government and academic TLDs
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".ac.uk") {
		return TierPrimary
	}
	return TierTertiary
}

// matchesAny reports whether host is one of domains or a subdomain of one
func matchesAny(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
