// Package schema defines the wire contracts for mailtriage: the raw Gmail
// message input shape, the untrusted draft decision returned by an LLM
// provider, and the canonical triage decision served by the API.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidMessage marks a Gmail payload that is structurally unusable.
var ErrInvalidMessage = errors.New("invalid gmail message")

// ErrInvalidDraft marks a draft decision missing its required classification.
var ErrInvalidDraft = errors.New("invalid draft decision")

// GmailHeader is a single header entry from Gmail's message payload.
type GmailHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// GmailBody is the body of a MIME part. Data is base64url and often unpadded.
type GmailBody struct {
	Size         int    `json:"size"`
	Data         string `json:"data,omitempty"`
	AttachmentID string `json:"attachmentId,omitempty"`
}

// GmailPart is a node in Gmail's nested MIME tree.
type GmailPart struct {
	PartID   string        `json:"partId,omitempty"`
	MimeType string        `json:"mimeType"`
	Filename string        `json:"filename,omitempty"`
	Headers  []GmailHeader `json:"headers,omitempty"`
	Body     GmailBody     `json:"body"`
	Parts    []*GmailPart  `json:"parts,omitempty"`
}

// GmailMessage mirrors the Gmail API "Message" resource. Unknown keys in the
// incoming JSON are ignored.
type GmailMessage struct {
	Provider     string     `json:"provider,omitempty"`
	ID           string     `json:"id"`
	ThreadID     string     `json:"threadId,omitempty"`
	LabelIDs     []string   `json:"labelIds,omitempty"`
	Snippet      string     `json:"snippet,omitempty"`
	HistoryID    string     `json:"historyId,omitempty"`
	InternalDate string     `json:"internalDate,omitempty"`
	Payload      *GmailPart `json:"payload"`
	SizeEstimate int        `json:"sizeEstimate,omitempty"`
}

// Validate checks the structural minimum needed to triage a message.
func (m *GmailMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidMessage)
	}
	if m.Payload == nil {
		return fmt.Errorf("%w: missing payload", ErrInvalidMessage)
	}
	return nil
}

// PersonRef is a person mentioned in or implied by an email.
type PersonRef struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// DateRef is a date or time mention with an optional resolved ISO value.
type DateRef struct {
	Text string  `json:"text"`
	ISO  *string `json:"iso"`
	Type string  `json:"type"`
}

// MoneyRef is a monetary amount mention.
type MoneyRef struct {
	Text     string   `json:"text"`
	Amount   *float64 `json:"amount"`
	Currency *string  `json:"currency"`
}

// DocRef is a referenced document.
type DocRef struct {
	Title *string `json:"title"`
	URL   *string `json:"url"`
	Type  *string `json:"type"`
}

// MeetingRef describes a meeting the email is about.
type MeetingRef struct {
	Topic   *string `json:"topic"`
	StartAt *string `json:"start_at"`
	TZ      *string `json:"tz"`
}

// Entities is the entity bag attached to a decision.
type Entities struct {
	People  []PersonRef `json:"people"`
	Dates   []DateRef   `json:"dates"`
	Money   []MoneyRef  `json:"money"`
	Docs    []DocRef    `json:"docs"`
	Meeting *MeetingRef `json:"meeting"`
}

// TaskProposal is a fully-formed task object ready for a task manager.
type TaskProposal struct {
	Type         *string `json:"type"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Priority     string  `json:"priority"`
	Status       string  `json:"status"`
	ScheduledFor *string `json:"scheduled_for"`
	DueAt        *string `json:"due_at"`
	WaitingOn    *string `json:"waiting_on"`
}

// RecommendedAction is a ranked UI action button.
type RecommendedAction struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
	Rank  int    `json:"rank"`
}

// UrgencySignals is the structured urgency assessment.
type UrgencySignals struct {
	Urgency          string  `json:"urgency"`
	DeadlineDetected bool    `json:"deadline_detected"`
	DeadlineText     *string `json:"deadline_text"`
	ReplyBy          *string `json:"reply_by"`
	Reason           string  `json:"reason"`
}

// ExtractedSummary is an assistant-style breakdown of what the email needs.
type ExtractedSummary struct {
	Ask             string   `json:"ask"`
	SuccessCriteria string   `json:"success_criteria"`
	MissingInfo     []string `json:"missing_info"`
}

// DebugInfo is observability metadata injected server-side.
type DebugInfo struct {
	AnalysisTimestamp string `json:"analysis_timestamp"`
	ModelVersion      string `json:"model_version"`
	PromptVersion     string `json:"prompt_version"`
}

// DraftDecision is the raw decision object returned by an LLM provider.
// Numeric and enum fields are not trusted until postprocessing; the struct is
// a disposable intermediate mutated in place by the sanitizer.
type DraftDecision struct {
	MajorCategory        MajorCategory       `json:"major_category"`
	SubActionKey         string              `json:"sub_action_key"`
	ExplicitTask         bool                `json:"explicit_task"`
	Confidence           float64             `json:"confidence"`
	SuggestedReplyAction []string            `json:"suggested_reply_action"`
	TaskProposal         *TaskProposal       `json:"task_proposal"`
	RecommendedActions   []RecommendedAction `json:"recommended_actions"`
	UrgencySignals       UrgencySignals      `json:"urgency_signals"`
	ExtractedSummary     ExtractedSummary    `json:"extracted_summary"`
	Entities             Entities            `json:"entities"`
	Evidence             []string            `json:"evidence"`
}

// UnmarshalJSON tolerates sloppy provider output in the confidence field:
// a number decodes as-is, a numeric string is parsed, and anything else
// becomes zero. Range enforcement happens in postprocessing.
func (d *DraftDecision) UnmarshalJSON(data []byte) error {
	type draftAlias DraftDecision
	aux := struct {
		*draftAlias
		Confidence any `json:"confidence"`
	}{draftAlias: (*draftAlias)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d.Confidence = coerceFloat(aux.Confidence)
	return nil
}

func coerceFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f
		}
	}
	return 0
}

// Validate checks the one structural requirement a draft cannot recover from:
// a missing or unknown major category. Everything else is repaired downstream.
func (d *DraftDecision) Validate() error {
	if !d.MajorCategory.Valid() {
		return fmt.Errorf("%w: major_category %q", ErrInvalidDraft, string(d.MajorCategory))
	}
	return nil
}

// Decision is the canonical triage record: a sanitized draft plus debug
// metadata. Every field satisfies its contract constraints once assembled.
type Decision struct {
	MajorCategory        MajorCategory       `json:"major_category"`
	SubActionKey         string              `json:"sub_action_key"`
	ExplicitTask         bool                `json:"explicit_task"`
	Confidence           float64             `json:"confidence"`
	SuggestedReplyAction []string            `json:"suggested_reply_action"`
	TaskProposal         *TaskProposal       `json:"task_proposal"`
	RecommendedActions   []RecommendedAction `json:"recommended_actions"`
	UrgencySignals       UrgencySignals      `json:"urgency_signals"`
	ExtractedSummary     ExtractedSummary    `json:"extracted_summary"`
	Entities             Entities            `json:"entities"`
	Evidence             []string            `json:"evidence"`
	Debug                DebugInfo           `json:"debug"`
}

// TriageResponse is the top-level API envelope: { "output": { ... } }.
type TriageResponse struct {
	Output Decision `json:"output"`
}
