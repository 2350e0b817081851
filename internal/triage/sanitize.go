package triage

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/daviddao/mailtriage/internal/schema"
)

const (
	maxEvidenceLen   = 240
	maxEvidenceCount = 3
	maxMissingInfo   = 3
)

// clamp01 forces a confidence into [0, 1]. NaN collapses to zero rather than
// propagating into the clamped result.
func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}

// sanitize repairs a draft decision in place so every field satisfies the
// output contract: bounded confidence, canonical keys, validated enums,
// trimmed text, contiguous action ranks, and no nil collections. Unknown enum
// values degrade to safe defaults instead of failing.
func sanitize(d *schema.DraftDecision, base time.Time) {
	d.Confidence = clamp01(d.Confidence)
	d.SubActionKey = canonicalKey(d.SubActionKey)
	d.Evidence = cleanSnippets(d.Evidence, maxEvidenceLen, maxEvidenceCount)

	u := &d.UrgencySignals
	u.Reason = strings.TrimSpace(u.Reason)
	urgency := strings.ToLower(strings.TrimSpace(u.Urgency))
	if !schema.IsValidUrgency(urgency) {
		urgency = schema.UrgencyMedium
	}
	u.Urgency = urgency

	if u.DeadlineText != nil && *u.DeadlineText != "" && emptyPtr(u.ReplyBy) {
		if t, _, ok := inferInstant(*u.DeadlineText, base); ok {
			iso := isoString(t)
			u.ReplyBy = &iso
		}
	}

	if tp := d.TaskProposal; tp != nil {
		sanitizeTask(tp, u.ReplyBy)
	}

	for i := range d.RecommendedActions {
		a := &d.RecommendedActions[i]
		kind := strings.ToUpper(strings.TrimSpace(a.Kind))
		if !schema.IsValidKind(kind) {
			kind = schema.KindSecondary
		}
		a.Kind = kind
		a.Key = strings.TrimSpace(a.Key)
		a.Label = strings.TrimSpace(a.Label)
	}
	sort.SliceStable(d.RecommendedActions, func(i, j int) bool {
		return d.RecommendedActions[i].Rank < d.RecommendedActions[j].Rank
	})
	for i := range d.RecommendedActions {
		d.RecommendedActions[i].Rank = i + 1
	}

	s := &d.ExtractedSummary
	s.Ask = strings.TrimSpace(s.Ask)
	s.SuccessCriteria = strings.TrimSpace(s.SuccessCriteria)
	s.MissingInfo = trimNonEmpty(s.MissingInfo, maxMissingInfo)

	normalizeCollections(d)
}

func sanitizeTask(tp *schema.TaskProposal, replyBy *string) {
	if tp.Type != nil {
		t := strings.TrimSpace(*tp.Type)
		if t == "" {
			tp.Type = nil
		} else {
			tp.Type = &t
		}
	}
	tp.Title = strings.TrimSpace(tp.Title)
	tp.Description = strings.TrimSpace(tp.Description)

	priority := strings.ToLower(strings.TrimSpace(tp.Priority))
	if !schema.IsValidUrgency(priority) {
		priority = schema.UrgencyMedium
	}
	tp.Priority = priority
	tp.Status = schema.TaskStatusOpen

	if emptyPtr(tp.DueAt) && !emptyPtr(replyBy) {
		due := *replyBy
		tp.DueAt = &due
	}
}

// normalizeCollections replaces nil slices with empty ones so the serialized
// contract emits [] rather than null, and backfills the date mention type.
func normalizeCollections(d *schema.DraftDecision) {
	if d.SuggestedReplyAction == nil {
		d.SuggestedReplyAction = []string{}
	}
	if d.Evidence == nil {
		d.Evidence = []string{}
	}
	if d.RecommendedActions == nil {
		d.RecommendedActions = []schema.RecommendedAction{}
	}
	if d.ExtractedSummary.MissingInfo == nil {
		d.ExtractedSummary.MissingInfo = []string{}
	}

	e := &d.Entities
	if e.People == nil {
		e.People = []schema.PersonRef{}
	}
	if e.Dates == nil {
		e.Dates = []schema.DateRef{}
	}
	if e.Money == nil {
		e.Money = []schema.MoneyRef{}
	}
	if e.Docs == nil {
		e.Docs = []schema.DocRef{}
	}
	for i := range e.Dates {
		if strings.TrimSpace(e.Dates[i].Type) == "" {
			e.Dates[i].Type = "other"
		}
	}
}

func emptyPtr(p *string) bool {
	return p == nil || strings.TrimSpace(*p) == ""
}
