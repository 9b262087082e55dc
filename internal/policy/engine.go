package policy

import (
	"fmt"
	"strings"

	"github.com/ppiankov/watchdog/internal/model"
	"go.uber.org/zap"
)

// User-facing texts
const (
	BlockedText = "The output cannot be displayed."
	WarningText = "⚠️ Warning: This response may be unreliable. Please verify before acting."
)

// Recorded when enforcement itself fails
const (
	FailSafeScore  = 95
	FailSafeReason = "Policy evaluation failed; failing safe to BLOCK"
)

// Decide maps a score to an action against one threshold pair
func Decide(score int, t Threshold) model.Action {
	switch {
	case score >= t.Block:
		return model.ActionBlock
	case score >= t.Warn:
		return model.ActionWarn
	default:
		return model.ActionAllow
	}
}

// BuildUserResponse shapes what the end user sees for an action
func BuildUserResponse(action model.Action, rawText string) model.UserResponse {
	switch action {
	case model.ActionBlock:
		return model.UserResponse{Action: action, Text: BlockedText}
	case model.ActionWarn:
		return model.UserResponse{Action: action, Text: rawText, WarningText: WarningText}
	default:
		return model.UserResponse{Action: model.ActionAllow, Text: rawText}
	}
}

// Engine applies domain thresholds to risk reports
type Engine struct {
	store *Store
	log   *zap.Logger
}

// NewEngine creates an engine over a threshold store
func NewEngine(store *Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, log: log}
}

// Store returns the threshold store backing the engine
func (e *Engine) Store() *Store {
	return e.store
}

// DecideAction looks up thresholds for domain and decides
func (e *Engine) DecideAction(score int, domain model.Domain) (model.Decision, error) {
	if e.store == nil {
		return model.Decision{}, ErrNoThresholds
	}
	t, err := e.store.Lookup(domain)
	if err != nil {
		return model.Decision{}, err
	}
	action := Decide(score, t)
	return model.Decision{
		Action:    action,
		Domain:    domain,
		RiskScore: score,
		Reason:    fmt.Sprintf("Risk score %d triggered %s action for %s domain", score, action, domain),
	}, nil
}

// Enforce decides an action for the report and builds the user response.
// It never fails: any error in policy evaluation results in BLOCK.
func (e *Engine) Enforce(prompt, rawResponse string, report model.RiskReport, domain model.Domain) (out model.Enforcement) {
	defer func() {
		if r := recover(); r != nil {
			out = e.failSafe(prompt, domain, fmt.Errorf("panic: %v", r))
		}
	}()

	decision, err := e.DecideAction(report.RiskScore, domain)
	if err != nil {
		return e.failSafe(prompt, domain, err)
	}
	if report.Metadata.AutoBlock && decision.Action != model.ActionBlock {
		decision.Action = model.ActionBlock
		decision.Reason = autoBlockReason(report.Metadata.AutoBlockReasons)
	}

	e.log.Warn("policy decision",
		zap.String("action", string(decision.Action)),
		zap.String("domain", string(domain)),
		zap.Int("risk_score", report.RiskScore))
	if decision.Action == model.ActionBlock {
		e.log.Error("output blocked", zap.String("reason", decision.Reason))
	}

	resp := BuildUserResponse(decision.Action, rawResponse)
	responseLength := len([]rune(resp.Text))
	if decision.Action == model.ActionBlock {
		responseLength = 0
	}

	return model.Enforcement{
		FinalAction: decision.Action,
		Response:    resp.Text,
		WarningText: resp.WarningText,
		RiskScore:   report.RiskScore,
		Explanation: report.Explanation,
		Decision:    decision,
		Metadata: model.EnforcementMetadata{
			ActionTaken: decision.Action,
			RiskBreakdown: model.EnforcementBreakdown{
				Score:   report.RiskScore,
				Signals: report.Signals,
			},
			WasBlocked:     decision.Action == model.ActionBlock,
			PromptLength:   len([]rune(prompt)),
			ResponseLength: responseLength,
		},
	}
}

// autoBlockReason names the rule that forced the block
func autoBlockReason(reasons []string) string {
	if len(reasons) == 0 {
		return "Auto-block override"
	}
	return "Auto-block override: " + strings.Join(reasons, "; ")
}

func (e *Engine) failSafe(prompt string, domain model.Domain, err error) model.Enforcement {
	e.log.Error("policy enforcement failed, blocking response",
		zap.String("domain", string(domain)), zap.Error(err))

	explanation := "Policy enforcement failure: " + err.Error()
	return model.Enforcement{
		FinalAction: model.ActionBlock,
		Response:    BlockedText,
		RiskScore:   FailSafeScore,
		Explanation: explanation,
		Decision: model.Decision{
			Action:    model.ActionBlock,
			Domain:    domain,
			RiskScore: FailSafeScore,
			Reason:    FailSafeReason,
		},
		Metadata: model.EnforcementMetadata{
			ActionTaken:   model.ActionBlock,
			RiskBreakdown: model.EnforcementBreakdown{Score: FailSafeScore},
			WasBlocked:    true,
			PromptLength:  len([]rune(prompt)),
		},
	}
}
