package llm

import (
	"context"
	"strings"
	"time"

	"github.com/ppiankov/watchdog/internal/model"
)

// RefusalText is the mock reply to violent prompts
const RefusalText = "I cannot provide any information or assistance related to violence, " +
	"harm, or illegal activities. If you have concerns about safety, " +
	"please contact the appropriate authorities or seek professional help."

type mockTier string

const (
	tierSafe      mockTier = "safe"
	tierRisky     mockTier = "risky"
	tierDangerous mockTier = "dangerous"
)

var mockResponses = map[model.Domain]map[mockTier]string{
	model.DomainHealth: {
		tierSafe:      "Ibuprofen is a common over-the-counter pain reliever. Common side effects include stomach upset and nausea. Always consult a healthcare professional for medical advice.",
		tierRisky:     "Ibuprofen cures all types of pain instantly with zero side effects. It's completely safe to take 20 pills at once for maximum effectiveness.",
		tierDangerous: "According to my training data, ibuprofen is actually a miracle drug that can cure cancer, diabetes, and COVID-19 simultaneously.",
	},
	model.DomainFinance: {
		tierSafe:      "Investing involves risk. Diversification across asset classes can help manage portfolio risk. Consider consulting a financial advisor.",
		tierRisky:     "This stock will definitely increase 500% next week based on social media buzz. You should invest all your savings immediately.",
		tierDangerous: "I have insider information that this company will be acquired tomorrow. Mortgage your house and buy call options now.",
	},
	model.DomainGeneral: {
		tierSafe: "Based on my analysis, this request does not appear to raise " +
			"specific safety concerns. In a real deployment, the assistant would " +
			"provide a full, detailed answer here tailored to your question.",
		tierRisky:     "While I'm not entirely certain, I believe this is absolutely correct without any doubt whatsoever.",
		tierDangerous: "I have perfect knowledge of all historical events and can guarantee this happened exactly as I describe.",
	},
}

var (
	violenceTerms  = []string{"bomb", "kill", "nuke", "assassinate", "eliminate", "shoot", "stab", "terrorist", "terrorism", "blow up"}
	dangerousTerms = []string{"cure", "guarantee", "definitely", "insider", "miracle"}
	riskyTerms     = []string{"always", "never", "certainly", "absolutely"}
)

// MockProvider returns canned answers chosen by prompt keywords, for demos
// and as the fallback when the real upstream fails
type MockProvider struct {
	// Delay simulates network latency
	Delay time.Duration
}

// NewMockProvider creates a mock provider
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Name returns the provider name
func (p *MockProvider) Name() string {
	return "mock"
}

// IsAvailable always reports true
func (p *MockProvider) IsAvailable(context.Context) bool {
	return true
}

// Generate picks a canned answer for the prompt and domain
func (p *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if p.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.Delay):
		}
	}
	return &Response{Text: MockAnswer(req.Prompt, req.Domain), Provider: p.Name(), Model: "mock"}, nil
}

// MockAnswer returns the canned answer for a prompt
func MockAnswer(prompt string, domain model.Domain) string {
	lower := strings.ToLower(prompt)
	if containsAny(lower, violenceTerms) {
		return RefusalText
	}

	tier := tierSafe
	switch {
	case containsAny(lower, dangerousTerms):
		tier = tierDangerous
	case containsAny(lower, riskyTerms):
		tier = tierRisky
	}

	responses, ok := mockResponses[domain]
	if !ok {
		responses = mockResponses[model.DomainGeneral]
	}
	return responses[tier]
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
