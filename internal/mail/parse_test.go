package mail

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddao/mailtriage/internal/schema"
)

func b64url(s string) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString([]byte(s)), "=")
}

func samplePlain(body string) *schema.GmailMessage {
	return &schema.GmailMessage{
		ID:           "msg-001",
		ThreadID:     "thr-001",
		Snippet:      " Can you confirm Friday at 2pm PT works? ",
		InternalDate: "1706500000000",
		Payload: &schema.GmailPart{
			MimeType: "multipart/alternative",
			Headers: []schema.GmailHeader{
				{Name: "From", Value: "Sarah Chen <sarah@acme.com>"},
				{Name: "To", Value: "hani@example.io"},
				{Name: "Cc", Value: "Lee <lee@acme.com>, ops@acme.com"},
				{Name: "Subject", Value: "Re: Contract approval timeline"},
				{Name: "Date", Value: "Mon, 29 Jan 2024 10:00:00 -0800"},
			},
			Parts: []*schema.GmailPart{
				{
					PartID:   "0",
					MimeType: "text/plain",
					Body:     schema.GmailBody{Size: len(body), Data: b64url(body)},
				},
			},
		},
	}
}

func TestParseBasicFields(t *testing.T) {
	e := Parse(samplePlain("Hi Hani,\n\nCan you confirm Friday at 2pm PT works?\n\nThanks,\nSarah"))

	assert.Equal(t, "gmail", e.Provider)
	assert.Equal(t, "msg-001", e.MessageID)
	assert.Equal(t, "thr-001", e.ThreadID)
	assert.Equal(t, "Re: Contract approval timeline", e.Subject)
	assert.Equal(t, "Sarah Chen", e.FromName)
	assert.Equal(t, "sarah@acme.com", e.FromEmail)
	assert.Equal(t, []string{"hani@example.io"}, e.To)
	assert.Equal(t, []string{"lee@acme.com", "ops@acme.com"}, e.CC)
	assert.Equal(t, "Can you confirm Friday at 2pm PT works?", e.Snippet)
	assert.Contains(t, e.BodyText, "confirm Friday at 2pm PT")
}

func TestParseDateHeaderKeepsSenderZone(t *testing.T) {
	e := Parse(samplePlain("body"))

	require.NotNil(t, e.SentAt)
	_, offset := e.SentAt.Zone()
	assert.Equal(t, -8*3600, offset)
	assert.Equal(t, time.Monday, e.SentAt.Weekday())

	require.NotNil(t, e.InternalDate)
	assert.Equal(t, time.UTC, e.InternalDate.Location())
	assert.Equal(t, int64(1706500000), e.InternalDate.Unix())
}

func TestParseInternalDateFallback(t *testing.T) {
	msg := samplePlain("body")
	msg.Payload.Headers = msg.Payload.Headers[:3] // drop Subject and Date
	e := Parse(msg)

	assert.Nil(t, e.SentAt)
	base := e.BaseTime(nil)
	assert.Equal(t, int64(1706500000), base.Unix())
}

func TestParseBaseTimeNowFallback(t *testing.T) {
	msg := samplePlain("body")
	msg.InternalDate = ""
	msg.Payload.Headers = nil
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	e := Parse(msg)
	assert.Equal(t, fixed, e.BaseTime(func() time.Time { return fixed }))
}

func TestParseRepeatedHeadersFirstWins(t *testing.T) {
	msg := samplePlain("body")
	msg.Payload.Headers = append(msg.Payload.Headers,
		schema.GmailHeader{Name: "subject", Value: "Second subject"})
	e := Parse(msg)
	assert.Equal(t, "Re: Contract approval timeline", e.Subject)
}

func TestParseUnpaddedBase64URL(t *testing.T) {
	// "Hello?" encodes with a URL-safe '_' and would need padding.
	data := b64url("Hello? Are we on for 3pm?")
	require.NotEqual(t, 0, len(data)%4)

	msg := samplePlain("x")
	msg.Payload.Parts[0].Body.Data = data
	e := Parse(msg)
	assert.Equal(t, "Hello? Are we on for 3pm?", e.BodyText)
}

func TestParsePrefersPlainOverHTML(t *testing.T) {
	msg := samplePlain("plain wins")
	msg.Payload.Parts = append(msg.Payload.Parts, &schema.GmailPart{
		PartID:   "1",
		MimeType: "text/html",
		Body:     schema.GmailBody{Data: b64url("<p>html body</p>")},
	})
	e := Parse(msg)
	assert.Equal(t, "plain wins", e.BodyText)
	assert.NotEmpty(t, e.BodyHTML)
}

func TestParseHTMLFallback(t *testing.T) {
	msg := samplePlain("ignored")
	msg.Payload.Parts = []*schema.GmailPart{
		{
			MimeType: "multipart/related",
			Parts: []*schema.GmailPart{
				{
					MimeType: "text/html",
					Body:     schema.GmailBody{Data: b64url("<html><body><p>Deep <b>html</b> only</p><script>x()</script></body></html>")},
				},
			},
		},
	}
	e := Parse(msg)
	assert.Contains(t, e.BodyText, "Deep")
	assert.Contains(t, e.BodyText, "only")
	assert.NotContains(t, e.BodyText, "<b>")
	assert.NotContains(t, e.BodyText, "x()")
	assert.NotEmpty(t, e.BodyHTML)
}

func TestParseNoBody(t *testing.T) {
	msg := samplePlain("x")
	msg.Payload.Parts = nil
	e := Parse(msg)
	assert.Empty(t, e.BodyText)
	assert.Empty(t, e.BodyHTML)
}

func TestParseMalformedAddressTolerated(t *testing.T) {
	msg := samplePlain("x")
	msg.Payload.Headers[0] = schema.GmailHeader{Name: "From", Value: "totally broken <sarah@acme.com"}
	e := Parse(msg)
	assert.Equal(t, "sarah@acme.com", e.FromEmail)
}

func TestParseDateLayouts(t *testing.T) {
	tests := []struct {
		name, value string
		ok          bool
	}{
		{"rfc5322", "Mon, 29 Jan 2024 10:00:00 -0800", true},
		{"no weekday", "29 Jan 2024 18:00:00 +0000", true},
		{"garbage", "sometime last week", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parseDate(tt.value)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
