package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftDecisionConfidenceDecoding(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want float64
	}{
		{"number", `{"major_category":"other","confidence":0.7}`, 0.7},
		{"numeric string", `{"major_category":"other","confidence":"0.55"}`, 0.55},
		{"padded numeric string", `{"major_category":"other","confidence":" 0.9 "}`, 0.9},
		{"garbage string", `{"major_category":"other","confidence":"not a number"}`, 0},
		{"null", `{"major_category":"other","confidence":null}`, 0},
		{"missing", `{"major_category":"other"}`, 0},
		{"boolean", `{"major_category":"other","confidence":true}`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var d DraftDecision
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &d))
			assert.Equal(t, tc.want, d.Confidence)
		})
	}
}

func TestDraftDecisionDecodesNestedFields(t *testing.T) {
	raw := `{
		"major_category": "schedule_and_time",
		"sub_action_key": "schedule_meeting",
		"confidence": "0.9",
		"entities": {"dates": [{"text": "Friday 2pm PT", "iso": null, "type": "meeting"}]},
		"urgency_signals": {"urgency": "high", "deadline_detected": true, "deadline_text": "by EOD", "reply_by": null, "reason": ""}
	}`
	var d DraftDecision
	require.NoError(t, json.Unmarshal([]byte(raw), &d))

	assert.Equal(t, CategoryScheduleAndTime, d.MajorCategory)
	assert.Equal(t, 0.9, d.Confidence)
	require.Len(t, d.Entities.Dates, 1)
	assert.Equal(t, "Friday 2pm PT", d.Entities.Dates[0].Text)
	assert.Nil(t, d.Entities.Dates[0].ISO)
	require.NotNil(t, d.UrgencySignals.DeadlineText)
	assert.True(t, d.UrgencySignals.DeadlineDetected)
}

func TestDraftDecisionValidate(t *testing.T) {
	valid := DraftDecision{MajorCategory: CategoryOther}
	assert.NoError(t, valid.Validate())

	for _, cat := range []MajorCategory{"", "spam", "SCHEDULE_AND_TIME"} {
		d := DraftDecision{MajorCategory: cat}
		assert.ErrorIs(t, d.Validate(), ErrInvalidDraft, "category %q", cat)
	}
}

func TestGmailMessageValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		m := GmailMessage{ID: "abc", Payload: &GmailPart{MimeType: "text/plain"}}
		assert.NoError(t, m.Validate())
	})

	t.Run("missing id", func(t *testing.T) {
		m := GmailMessage{ID: "  ", Payload: &GmailPart{}}
		assert.ErrorIs(t, m.Validate(), ErrInvalidMessage)
	})

	t.Run("missing payload", func(t *testing.T) {
		m := GmailMessage{ID: "abc"}
		assert.ErrorIs(t, m.Validate(), ErrInvalidMessage)
	})
}

func TestTaxonomyValidators(t *testing.T) {
	assert.True(t, CategoryScheduleAndTime.Valid())
	assert.False(t, MajorCategory("schedule").Valid())
	assert.Len(t, CategoryNames(), len(MajorCategories))

	assert.True(t, IsValidUrgency("critical"))
	assert.False(t, IsValidUrgency("Urgent"))

	assert.True(t, IsValidKind("DANGER"))
	assert.False(t, IsValidKind("danger"))
}
