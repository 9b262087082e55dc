package model

import "time"

// RAGLabel renders the evidence status as stored on records
func (s Signals) RAGLabel() string {
	if s.RAGUnverified {
		return "UNVERIFIED"
	}
	return "VERIFIED"
}

// ContradictionLabel renders the contradiction check as stored on records
func (s Signals) ContradictionLabel() string {
	if s.InternalContradiction {
		return "FAIL"
	}
	return "PASS"
}

// PromptRecord is one processed request as kept by the record store
type PromptRecord struct {
	ID                 int64     `json:"id"`
	Timestamp          time.Time `json:"timestamp"`
	Prompt             string    `json:"prompt"`
	GPTRawAnswer       string    `json:"gpt_raw_answer"`
	UserVisibleAnswer  string    `json:"user_visible_answer"`
	Confidence         float64   `json:"confidence"`
	RAGStatus          string    `json:"rag_status"`
	ContradictionCheck string    `json:"contradiction_check"`
	Action             Action    `json:"action"`
	RiskScore          int       `json:"risk_score"`
	Explanation        string    `json:"explanation"`
	Metadata           Metadata  `json:"metadata"`
}

// ClaimRisk attributes part of the risk to a single claim
type ClaimRisk struct {
	Text      string   `json:"text"`
	RiskAdded int      `json:"risk_added"`
	Reasons   []string `json:"reasons"`
}

// AuditRecord is one line of the append-only audit log
type AuditRecord struct {
	Timestamp          time.Time   `json:"timestamp"`
	RequestID          string      `json:"request_id,omitempty"`
	Prompt             string      `json:"prompt"`
	GPTRawAnswer       string      `json:"gpt_raw_answer"`
	UserVisibleAnswer  string      `json:"user_visible_answer"`
	RiskScore          int         `json:"risk_score"`
	RAGStatus          string      `json:"rag_status"`
	ContradictionCheck string      `json:"contradiction_check"`
	FinalAction        Action      `json:"final_action"`
	Explanation        string      `json:"explanation"`
	Domain             Domain      `json:"domain"`
	FreshnessRisk      bool        `json:"freshness_risk"`
	ClaimRiskBreakdown []ClaimRisk `json:"claim_risk_breakdown"`
	SafetyMode         string      `json:"safety_mode"`
	TrustScore         *float64    `json:"trust_score,omitempty"`
	AutoBlock          bool        `json:"auto_block"`
	AutoBlockReasons   []string    `json:"auto_block_reasons,omitempty"`
}
