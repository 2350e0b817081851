// Package triage turns untrusted draft decisions into canonical triage
// records. The whole package is deterministic and free of I/O: given the
// same draft, email, and reference instant it produces the same decision,
// which is what makes the pipeline replayable and testable offline.
//
// Processing runs in a fixed order. Sanitization first (bounds, enums,
// trimming, rank renumbering), then entity reconciliation (sender presence,
// date resolution, meeting completion), then assembly of the final record
// with debug metadata. Only a structurally invalid draft fails; every other
// defect is repaired in place.
package triage

import (
	"fmt"
	"time"

	"github.com/daviddao/mailtriage/internal/mail"
	"github.com/daviddao/mailtriage/internal/schema"
)

// Meta identifies the model and prompt that produced a draft. The values are
// stamped into the decision's debug block verbatim.
type Meta struct {
	ModelVersion  string
	PromptVersion string
}

// Postprocess converts a draft decision into the canonical decision record.
// The draft is mutated in place during repair and must not be reused. The
// reference instant anchors all relative-date resolution and is recorded as
// the analysis timestamp, so replaying a stored request reproduces the
// decision bit for bit.
func Postprocess(draft *schema.DraftDecision, email *mail.Email, predictedAt time.Time, meta Meta) (*schema.Decision, error) {
	if draft == nil {
		return nil, fmt.Errorf("%w: nil draft", schema.ErrInvalidDraft)
	}
	if email == nil {
		return nil, fmt.Errorf("%w: nil parsed email", schema.ErrInvalidMessage)
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	base := email.BaseTime(func() time.Time { return predictedAt })

	sanitize(draft, base)

	fillSender(&draft.Entities, email.FromEmail)
	best, bestTZ := fillDateISOs(&draft.Entities, base)
	fillMeeting(&draft.Entities, draft.MajorCategory, draft.SubActionKey, email.Subject, best, bestTZ)

	return &schema.Decision{
		MajorCategory:        draft.MajorCategory,
		SubActionKey:         draft.SubActionKey,
		ExplicitTask:         draft.ExplicitTask,
		Confidence:           draft.Confidence,
		SuggestedReplyAction: draft.SuggestedReplyAction,
		TaskProposal:         draft.TaskProposal,
		RecommendedActions:   draft.RecommendedActions,
		UrgencySignals:       draft.UrgencySignals,
		ExtractedSummary:     draft.ExtractedSummary,
		Entities:             draft.Entities,
		Evidence:             draft.Evidence,
		Debug: schema.DebugInfo{
			AnalysisTimestamp: isoString(predictedAt),
			ModelVersion:      meta.ModelVersion,
			PromptVersion:     meta.PromptVersion,
		},
	}, nil
}
