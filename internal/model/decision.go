package model

// Action is the gateway's verdict on a response
type Action string

const (
	ActionAllow Action = "ALLOW"
	ActionWarn  Action = "WARN"
	ActionBlock Action = "BLOCK"
)

// Decision is the policy engine's verdict with its reasoning
type Decision struct {
	Action    Action `json:"action"`
	Domain    Domain `json:"domain"`
	RiskScore int    `json:"risk_score"`
	Reason    string `json:"reason"`
}

// UserResponse is what the end user is shown
type UserResponse struct {
	Action      Action `json:"action"`
	Text        string `json:"text"`
	WarningText string `json:"warning_text,omitempty"`
}

// Enforcement is the result of running a report through the policy engine
type Enforcement struct {
	FinalAction Action              `json:"final_action"`
	Response    string              `json:"response"`
	WarningText string              `json:"-"`
	RiskScore   int                 `json:"risk_score"`
	Explanation string              `json:"explanation"`
	Decision    Decision            `json:"-"`
	Metadata    EnforcementMetadata `json:"metadata"`
}

// EnforcementMetadata summarizes what enforcement did
type EnforcementMetadata struct {
	ActionTaken    Action               `json:"action_taken"`
	RiskBreakdown  EnforcementBreakdown `json:"risk_breakdown"`
	WasBlocked     bool                 `json:"was_blocked"`
	PromptLength   int                  `json:"prompt_length"`
	ResponseLength int                  `json:"response_length"` // 0 when blocked
}

// EnforcementBreakdown echoes the score and signals that drove the decision
type EnforcementBreakdown struct {
	Score   int     `json:"score"`
	Signals Signals `json:"signals"`
}
