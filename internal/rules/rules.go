// Package rules holds the versioned pattern tables used by the signal extractor.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/ppiankov/watchdog/internal/model"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the only table schema version this build understands
const SupportedVersion = 1

//go:embed default_rules.yaml
var defaultRules []byte

var (
	defaultOnce sync.Once
	defaultSet  *Set
)

// Pattern is a compiled, case-insensitive detection pattern
type Pattern struct {
	Source string
	re     *regexp.Regexp
}

// MatchString reports whether the pattern matches s
func (p Pattern) MatchString(s string) bool {
	return p.re.MatchString(s)
}

// Patterns is an ordered pattern list
type Patterns []Pattern

// Any reports whether any pattern matches s
func (ps Patterns) Any(s string) bool {
	_, ok := ps.First(s)
	return ok
}

// First returns the first pattern in list order that matches s
func (ps Patterns) First(s string) (Pattern, bool) {
	for _, p := range ps {
		if p.MatchString(s) {
			return p, true
		}
	}
	return Pattern{}, false
}

// Count returns how many distinct patterns match s
func (ps Patterns) Count(s string) int {
	n := 0
	for _, p := range ps {
		if p.MatchString(s) {
			n++
		}
	}
	return n
}

// DomainPatterns are the indicators for one domain
type DomainPatterns struct {
	Domain   model.Domain
	Patterns Patterns
}

// Antonym is a pair of opposing words matched on word boundaries
type Antonym struct {
	A, B string
	reA  *regexp.Regexp
	reB  *regexp.Regexp
}

// InA reports whether the first word occurs in s
func (a Antonym) InA(s string) bool { return a.reA.MatchString(s) }

// InB reports whether the second word occurs in s
func (a Antonym) InB(s string) bool { return a.reB.MatchString(s) }

// Set is a compiled rule table
type Set struct {
	Version int

	Overconfidence   Patterns
	SensitiveDomains Patterns
	SpecificClaims   Patterns
	Hedging          Patterns
	ClaimSpecifics   Patterns

	TimeHigh   Patterns
	TimeMedium Patterns
	TimeLow    Patterns

	Domains []DomainPatterns

	StrictHigh   Patterns
	StrictMedium Patterns

	Antonyms          []Antonym
	NegationMarkers   []string
	EvidenceNegations Patterns
}

type tableFile struct {
	Version          int      `yaml:"version"`
	Overconfidence   []string `yaml:"overconfidence"`
	SensitiveDomains []string `yaml:"sensitive_domains"`
	SpecificClaims   []string `yaml:"specific_claims"`
	Hedging          []string `yaml:"hedging"`
	ClaimSpecifics   []string `yaml:"claim_specifics"`
	TimeSensitivity  struct {
		High   []string `yaml:"high"`
		Medium []string `yaml:"medium"`
		Low    []string `yaml:"low"`
	} `yaml:"time_sensitivity"`
	Domains []struct {
		Name     string   `yaml:"name"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"domains"`
	Strict struct {
		High   []string `yaml:"high"`
		Medium []string `yaml:"medium"`
	} `yaml:"strict"`
	Antonyms          [][]string `yaml:"antonyms"`
	NegationMarkers   []string   `yaml:"negation_markers"`
	EvidenceNegations []string   `yaml:"evidence_negations"`
}

// Default returns the embedded rule table
func Default() *Set {
	defaultOnce.Do(func() {
		set, err := Parse(defaultRules)
		if err != nil {
			panic(fmt.Sprintf("rules: embedded table is invalid: %v", err))
		}
		defaultSet = set
	})
	return defaultSet
}

// Load reads and compiles a rule table from disk
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	return set, nil
}

// LoadOrDefault loads path when set, otherwise returns the embedded table
func LoadOrDefault(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Parse compiles a YAML rule table
func Parse(data []byte) (*Set, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if f.Version != SupportedVersion {
		return nil, fmt.Errorf("unsupported rules version %d (want %d)", f.Version, SupportedVersion)
	}

	c := &compiler{}
	set := &Set{
		Version:           f.Version,
		Overconfidence:    c.list("overconfidence", f.Overconfidence),
		SensitiveDomains:  c.list("sensitive_domains", f.SensitiveDomains),
		SpecificClaims:    c.list("specific_claims", f.SpecificClaims),
		Hedging:           c.list("hedging", f.Hedging),
		ClaimSpecifics:    c.list("claim_specifics", f.ClaimSpecifics),
		TimeHigh:          c.list("time_sensitivity.high", f.TimeSensitivity.High),
		TimeMedium:        c.list("time_sensitivity.medium", f.TimeSensitivity.Medium),
		TimeLow:           c.list("time_sensitivity.low", f.TimeSensitivity.Low),
		StrictHigh:        c.list("strict.high", f.Strict.High),
		StrictMedium:      c.list("strict.medium", f.Strict.Medium),
		NegationMarkers:   f.NegationMarkers,
		EvidenceNegations: c.list("evidence_negations", f.EvidenceNegations),
	}

	for _, d := range f.Domains {
		domain := model.Domain(d.Name)
		if !domain.Sensitive() {
			return nil, fmt.Errorf("domains: unknown domain %q", d.Name)
		}
		set.Domains = append(set.Domains, DomainPatterns{
			Domain:   domain,
			Patterns: c.list("domains."+d.Name, d.Patterns),
		})
	}

	for i, pair := range f.Antonyms {
		if len(pair) != 2 {
			return nil, fmt.Errorf("antonyms[%d]: want 2 words, got %d", i, len(pair))
		}
		set.Antonyms = append(set.Antonyms, Antonym{
			A:   pair[0],
			B:   pair[1],
			reA: c.word("antonyms", pair[0]),
			reB: c.word("antonyms", pair[1]),
		})
	}

	if c.err != nil {
		return nil, c.err
	}
	return set, nil
}

// compiler keeps the first compile error so Parse can build the table in one pass
type compiler struct {
	err error
}

func (c *compiler) list(section string, sources []string) Patterns {
	out := make(Patterns, 0, len(sources))
	for _, src := range sources {
		re, err := regexp.Compile("(?i)" + src)
		if err != nil {
			if c.err == nil {
				c.err = fmt.Errorf("%s: compile %q: %w", section, src, err)
			}
			continue
		}
		out = append(out, Pattern{Source: src, re: re})
	}
	return out
}

func (c *compiler) word(section, w string) *regexp.Regexp {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	if err != nil && c.err == nil {
		c.err = fmt.Errorf("%s: compile %q: %w", section, w, err)
	}
	return re
}
