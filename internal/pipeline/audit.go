package pipeline

import (
	"fmt"
	"time"

	"github.com/ppiankov/watchdog/internal/model"
)

// Per-claim risk attributed in audit records
const (
	unverifiedClaimRisk   = 15
	contradictedClaimRisk = 35
	lowClaimConfidence    = 0.4
)

// AuditRecord builds the audit line for a processed request
func AuditRecord(res *Result, ts time.Time, safetyMode string) model.AuditRecord {
	meta := res.Report.Metadata
	breakdown := ClaimRiskBreakdown(meta.Claims)

	unverified := false
	for _, c := range meta.Claims {
		if c.RAGStatus == model.StatusUnverified {
			unverified = true
			break
		}
	}

	return model.AuditRecord{
		Timestamp:          ts,
		RequestID:          res.RequestID,
		Prompt:             res.Prompt,
		GPTRawAnswer:       res.RawAnswer,
		UserVisibleAnswer:  res.Enforcement.Response,
		RiskScore:          res.Enforcement.RiskScore,
		RAGStatus:          res.Report.Signals.RAGLabel(),
		ContradictionCheck: res.Report.Signals.ContradictionLabel(),
		FinalAction:        res.Enforcement.FinalAction,
		Explanation:        res.Enforcement.Explanation,
		Domain:             res.Domain,
		FreshnessRisk:      meta.TimeSensitivity == model.TimeHigh && unverified,
		ClaimRiskBreakdown: breakdown,
		SafetyMode:         safetyMode,
		TrustScore:         meta.TrustScore,
		AutoBlock:          meta.AutoBlock,
		AutoBlockReasons:   meta.AutoBlockReasons,
	}
}

// ClaimRiskBreakdown attributes risk to individual claims. Supported claims
// with adequate confidence are left out.
func ClaimRiskBreakdown(claims []model.ClaimSummary) []model.ClaimRisk {
	out := []model.ClaimRisk{}
	for _, c := range claims {
		var cr model.ClaimRisk
		switch c.RAGStatus {
		case model.StatusContradicted:
			cr.RiskAdded += contradictedClaimRisk
			cr.Reasons = append(cr.Reasons, "contradicted by evidence")
		case model.StatusUnverified:
			cr.RiskAdded += unverifiedClaimRisk
			cr.Reasons = append(cr.Reasons, "not verified by evidence")
		}
		if c.Confidence < lowClaimConfidence {
			cr.Reasons = append(cr.Reasons, fmt.Sprintf("low confidence %.2f", c.Confidence))
		}
		if len(cr.Reasons) == 0 {
			continue
		}
		cr.Text = c.Text
		out = append(out, cr)
	}
	return out
}
