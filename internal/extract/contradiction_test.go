package extract

import "testing"

func TestDetectInternalContradiction(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     bool
		detail   string
	}{
		{
			name:     "introduced after active since",
			response: "The festival was introduced in 2015. It has been active since 2010.",
			want:     true,
			detail:   "Timeline conflict: introduced in 2015 but active since 2010",
		},
		{
			name:     "large year gap",
			response: "The company started in 1990 and is operating in 2020.",
			want:     true,
			detail:   "Timeline inconsistency: large time gap detected",
		},
		{
			name:     "open and closed",
			response: "The store is currently open. The store has closed for good.",
			want:     true,
			detail:   "Contradictory status statements",
		},
		{
			name:     "yes then no",
			response: "Yes, you can do that. No, you cannot do that.",
			want:     true,
			detail:   "Contradictory yes/no statements",
		},
		{
			name:     "two no tokens",
			response: "No, there is no evidence for that claim.",
			want:     true,
			detail:   "Contradictory yes/no statements",
		},
		{
			name:     "two yes tokens",
			response: "Yes, and yes again it is fine.",
			want:     true,
			detail:   "Contradictory yes/no statements",
		},
		{
			name:     "single no with lookalike words",
			response: "No, I know it happened yesterday.",
			want:     false,
		},
		{
			name:     "numbers an order of magnitude apart",
			response: "Take 2 tablets with 500 ml of water.",
			want:     true,
			detail:   "Conflicting numerical values",
		},
		{
			name:     "single number",
			response: "Water boils at 100 degrees at sea level.",
			want:     false,
		},
		{
			name:     "zero is ignored",
			response: "It has 0 bugs and 5 features.",
			want:     false,
		},
		{
			name:     "numbers in separate sentences",
			response: "Take 2 tablets. Drink 500 ml of water.",
			want:     false,
		},
		{
			name:     "plain statement",
			response: "Ibuprofen may cause stomach upset.",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detail := detectInternalContradiction(tt.response)
			if got != tt.want {
				t.Fatalf("Expected contradiction=%v, got %v (%q)", tt.want, got, detail)
			}
			if detail != tt.detail {
				t.Errorf("Expected detail %q, got %q", tt.detail, detail)
			}
		})
	}
}

func TestDetectInternalContradiction_FirstRuleWins(t *testing.T) {
	// Both a status conflict and a numeric conflict are present
	response := "The shop is currently open. The shop has closed. It sold 3 items for 900 dollars."

	_, detail := detectInternalContradiction(response)
	if detail != "Contradictory status statements" {
		t.Errorf("Expected status rule to win, got %q", detail)
	}
}
