package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddao/mailtriage/internal/schema"
)

func strptr(s string) *string { return &s }

func TestFillSender(t *testing.T) {
	t.Run("prepends missing sender", func(t *testing.T) {
		e := schema.Entities{People: []schema.PersonRef{{Email: "bob@acme.com", Role: "cc"}}}
		fillSender(&e, "sarah@acme.com")
		require.Len(t, e.People, 2)
		assert.Equal(t, schema.PersonRef{Email: "sarah@acme.com", Role: "sender"}, e.People[0])
		assert.Equal(t, "bob@acme.com", e.People[1].Email)
	})

	t.Run("matches case-insensitively and fills blank role", func(t *testing.T) {
		e := schema.Entities{People: []schema.PersonRef{{Email: "Sarah@Acme.com"}}}
		fillSender(&e, "sarah@acme.com")
		require.Len(t, e.People, 1)
		assert.Equal(t, "sender", e.People[0].Role)
		assert.Equal(t, "Sarah@Acme.com", e.People[0].Email)
	})

	t.Run("keeps an existing role", func(t *testing.T) {
		e := schema.Entities{People: []schema.PersonRef{{Email: "sarah@acme.com", Role: "approver"}}}
		fillSender(&e, "sarah@acme.com")
		require.Len(t, e.People, 1)
		assert.Equal(t, "approver", e.People[0].Role)
	})

	t.Run("idempotent", func(t *testing.T) {
		e := schema.Entities{}
		fillSender(&e, "sarah@acme.com")
		fillSender(&e, "sarah@acme.com")
		assert.Len(t, e.People, 1)
	})

	t.Run("blank sender is a no-op", func(t *testing.T) {
		e := schema.Entities{}
		fillSender(&e, "   ")
		assert.Empty(t, e.People)
	})
}

func TestFillDateISOs(t *testing.T) {
	base := laMonday(t)

	t.Run("clock-bearing mention becomes the candidate", func(t *testing.T) {
		e := schema.Entities{Dates: []schema.DateRef{{Text: "Friday 2pm PT"}}}
		best, tz, ok := fillDatesForTest(&e, base)
		require.True(t, ok)
		require.NotNil(t, e.Dates[0].ISO)
		assert.Equal(t, "2024-02-02T14:00:00-08:00", *e.Dates[0].ISO)
		assert.Equal(t, "2024-02-02T14:00:00-08:00", isoString(best))
		assert.Equal(t, "America/Los_Angeles", tz)
	})

	t.Run("date-only mention fills iso but not the candidate", func(t *testing.T) {
		e := schema.Entities{Dates: []schema.DateRef{
			{Text: "March 5"},
			{Text: "Friday 2pm PT"},
		}}
		best, tz, ok := fillDatesForTest(&e, base)
		require.NotNil(t, e.Dates[0].ISO)
		assert.Equal(t, "2024-03-05", *e.Dates[0].ISO)
		require.True(t, ok)
		assert.Equal(t, "2024-02-02T14:00:00-08:00", isoString(best))
		assert.Equal(t, "America/Los_Angeles", tz)
	})

	t.Run("pre-resolved iso is kept and seeds the candidate", func(t *testing.T) {
		e := schema.Entities{Dates: []schema.DateRef{
			{Text: "Friday", ISO: strptr("2024-02-02T09:00:00-08:00")},
			{Text: "Monday 3pm PT"},
		}}
		best, tz, ok := fillDatesForTest(&e, base)
		require.True(t, ok)
		assert.Equal(t, "2024-02-02T09:00:00-08:00", *e.Dates[0].ISO)
		assert.Equal(t, "2024-02-02T09:00:00-08:00", isoString(best))
		assert.Equal(t, "", tz, "an inherited iso has no zone name")
		require.NotNil(t, e.Dates[1].ISO, "later mentions still resolve")
	})

	t.Run("first clock-bearing mention wins", func(t *testing.T) {
		e := schema.Entities{Dates: []schema.DateRef{
			{Text: "Friday 2pm PT"},
			{Text: "Monday 9am PT"},
		}}
		best, _, ok := fillDatesForTest(&e, base)
		require.True(t, ok)
		assert.Equal(t, "2024-02-02T14:00:00-08:00", isoString(best))
	})

	t.Run("input order decides between inference and pre-set iso", func(t *testing.T) {
		e := schema.Entities{Dates: []schema.DateRef{
			{Text: "Friday 2pm PT"},
			{Text: "kickoff", ISO: strptr("2024-02-05T09:00:00-08:00")},
		}}
		best, tz, ok := fillDatesForTest(&e, base)
		require.True(t, ok)
		assert.Equal(t, "2024-02-02T14:00:00-08:00", isoString(best))
		assert.Equal(t, "America/Los_Angeles", tz)
	})

	t.Run("unresolvable text stays nil", func(t *testing.T) {
		e := schema.Entities{Dates: []schema.DateRef{{Text: "whenever suits"}}}
		_, _, ok := fillDatesForTest(&e, base)
		assert.False(t, ok)
		assert.Nil(t, e.Dates[0].ISO)
	})
}

// fillDatesForTest unwraps the pointer candidate for terser assertions.
func fillDatesForTest(e *schema.Entities, base time.Time) (time.Time, string, bool) {
	best, tz := fillDateISOs(e, base)
	if best == nil {
		return time.Time{}, tz, false
	}
	return *best, tz, true
}

func TestFillMeeting(t *testing.T) {
	start := time.Date(2024, 2, 2, 14, 0, 0, 0, time.FixedZone("PST", -8*3600))

	t.Run("category trigger builds a meeting", func(t *testing.T) {
		e := schema.Entities{}
		fillMeeting(&e, schema.CategoryScheduleAndTime, "OTHER", "Re: Contract approval timeline", &start, "America/Los_Angeles")
		require.NotNil(t, e.Meeting)
		require.NotNil(t, e.Meeting.Topic)
		assert.Equal(t, "Contract approval timeline", *e.Meeting.Topic)
		require.NotNil(t, e.Meeting.StartAt)
		assert.Equal(t, "2024-02-02T14:00:00-08:00", *e.Meeting.StartAt)
		require.NotNil(t, e.Meeting.TZ)
		assert.Equal(t, "America/Los_Angeles", *e.Meeting.TZ)
	})

	t.Run("schedule sub-action triggers regardless of category", func(t *testing.T) {
		e := schema.Entities{}
		fillMeeting(&e, schema.CategoryCoreCommunication, "schedule_call", "Sync?", nil, "")
		require.NotNil(t, e.Meeting)
		require.NotNil(t, e.Meeting.Topic)
		assert.Equal(t, "Sync?", *e.Meeting.Topic)
		assert.Nil(t, e.Meeting.StartAt)
		assert.Nil(t, e.Meeting.TZ)
	})

	t.Run("raw key is canonicalized before the prefix check", func(t *testing.T) {
		e := schema.Entities{}
		fillMeeting(&e, schema.CategoryCoreCommunication, "schedule a call", "Sync?", nil, "")
		require.NotNil(t, e.Meeting)
	})

	t.Run("no trigger leaves entities alone", func(t *testing.T) {
		e := schema.Entities{}
		fillMeeting(&e, schema.CategoryCoreCommunication, "REPLY", "Hello", &start, "UTC")
		assert.Nil(t, e.Meeting)
	})

	t.Run("existing values are preserved", func(t *testing.T) {
		e := schema.Entities{Meeting: &schema.MeetingRef{
			Topic:   strptr("Quarterly review"),
			StartAt: strptr("2024-02-01T10:00:00-08:00"),
			TZ:      strptr("America/Denver"),
		}}
		fillMeeting(&e, schema.CategoryScheduleAndTime, "SCHEDULE_MEETING", "Re: Other", &start, "America/Los_Angeles")
		assert.Equal(t, "Quarterly review", *e.Meeting.Topic)
		assert.Equal(t, "2024-02-01T10:00:00-08:00", *e.Meeting.StartAt)
		assert.Equal(t, "America/Denver", *e.Meeting.TZ)
	})

	t.Run("blank existing fields are filled", func(t *testing.T) {
		e := schema.Entities{Meeting: &schema.MeetingRef{Topic: strptr("  ")}}
		fillMeeting(&e, schema.CategoryScheduleAndTime, "OTHER", "Fwd: Planning", &start, "")
		assert.Equal(t, "Planning", *e.Meeting.Topic)
		require.NotNil(t, e.Meeting.StartAt)
		assert.Nil(t, e.Meeting.TZ, "empty zone name never fills tz")
	})
}
