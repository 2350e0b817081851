package pipeline

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddao/mailtriage/internal/config"
	"github.com/daviddao/mailtriage/internal/llm"
	"github.com/daviddao/mailtriage/internal/schema"
)

type fakeClient struct {
	response  string
	err       error
	calls     int
	gotSystem string
	gotUser   string
}

func (f *fakeClient) Complete(ctx context.Context, systemPrompt, userContent string) (string, error) {
	f.calls++
	f.gotSystem = systemPrompt
	f.gotUser = userContent
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeClient) Name() string { return "fake" }

const draftJSON = `{
	"major_category": "schedule_and_time",
	"sub_action_key": "schedule meeting",
	"explicit_task": true,
	"confidence": "0.92",
	"suggested_reply_action": ["Confirm"],
	"urgency_signals": {"urgency": "high", "deadline_detected": true, "deadline_text": "by EOD Friday", "reply_by": null, "reason": "deadline stated"},
	"entities": {"people": [], "dates": [{"text": "Friday 2pm PT", "iso": null, "type": "meeting_time"}], "money": [], "docs": [], "meeting": null},
	"recommended_actions": [{"key": "accept", "label": "Accept", "kind": "PRIMARY", "rank": 1}],
	"evidence": ["Can we meet Friday 2pm PT"]
}`

func testSettings() *config.Settings {
	return &config.Settings{
		LLMProvider:  config.ProviderOpenAI,
		OpenAIModel:  "gpt-5.2",
		MaxBodyChars: 12000,
		Temperature:  0.2,
		TimeoutS:     90,
	}
}

func b64url(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func sampleMessage(body string) *schema.GmailMessage {
	return &schema.GmailMessage{
		ID:       "18d7a2b4c9e1f000",
		ThreadID: "18d7a2b4c9e1f000",
		Snippet:  "Can we meet Friday 2pm PT",
		Payload: &schema.GmailPart{
			MimeType: "text/plain",
			Headers: []schema.GmailHeader{
				{Name: "From", Value: "Sarah Chen <sarah@acme.com>"},
				{Name: "To", Value: "me@corp.com"},
				{Name: "Subject", Value: "Re: Contract approval timeline"},
				{Name: "Date", Value: "Mon, 29 Jan 2024 10:00:00 -0800"},
			},
			Body: schema.GmailBody{Size: len(body), Data: b64url(body)},
		},
	}
}

func TestTriageEndToEnd(t *testing.T) {
	client := &fakeClient{response: draftJSON}
	p := New(testSettings(), client)
	p.now = func() time.Time { return time.Date(2024, 1, 29, 18, 30, 0, 0, time.UTC) }

	body := "Can we meet Friday 2pm PT to close this out?\nDetails: https://docs.example.com/contract\nBudget is $12,500. Need sign-off by EOD Friday."
	resp, err := p.Triage(context.Background(), sampleMessage(body))
	require.NoError(t, err)

	out := resp.Output
	assert.Equal(t, schema.CategoryScheduleAndTime, out.MajorCategory)
	assert.Equal(t, "SCHEDULE_MEETING", out.SubActionKey)
	assert.Equal(t, 0.92, out.Confidence)

	require.NotEmpty(t, out.Entities.People)
	assert.Equal(t, "sarah@acme.com", out.Entities.People[0].Email)

	require.NotNil(t, out.Entities.Meeting)
	require.NotNil(t, out.Entities.Meeting.StartAt)
	assert.Equal(t, "2024-02-02T14:00:00-08:00", *out.Entities.Meeting.StartAt)

	assert.Equal(t, "2024-01-29T18:30:00+00:00", out.Debug.AnalysisTimestamp)
	assert.Equal(t, config.ModelVersion, out.Debug.ModelVersion)
	assert.Equal(t, "triage-v3-2026-02", out.Debug.PromptVersion)

	assert.Equal(t, 1, client.calls)
	assert.Contains(t, client.gotSystem, "You are an email triage engine.")
}

func TestTriageUserContent(t *testing.T) {
	client := &fakeClient{response: draftJSON}
	p := New(testSettings(), client)

	body := "Can we meet Friday 2pm PT?\nDetails: https://docs.example.com/contract?id=42&rev=7\nBudget is $12,500. Need sign-off by EOD Friday."
	_, err := p.Triage(context.Background(), sampleMessage(body))
	require.NoError(t, err)

	var payload struct {
		Provider string `json:"provider"`
		Subject  string `json:"subject"`
		From     struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"from"`
		To      []string `json:"to"`
		SentAt  *string  `json:"sentAt"`
		Body    string   `json:"bodyText"`
		Signals struct {
			TimePhrases  []string `json:"timePhrases"`
			Links        []string `json:"links"`
			MoneyStrings []string `json:"moneyStrings"`
		} `json:"signals"`
	}
	require.NoError(t, json.Unmarshal([]byte(client.gotUser), &payload))

	assert.Equal(t, "gmail", payload.Provider)
	assert.Equal(t, "Re: Contract approval timeline", payload.Subject)
	assert.Equal(t, "Sarah Chen", payload.From.Name)
	assert.Equal(t, "sarah@acme.com", payload.From.Email)
	assert.Equal(t, []string{"me@corp.com"}, payload.To)
	require.NotNil(t, payload.SentAt)
	assert.Equal(t, "2024-01-29T10:00:00-08:00", *payload.SentAt)
	assert.Contains(t, payload.Body, "Friday 2pm PT")
	assert.Contains(t, payload.Signals.Links, "https://docs.example.com/contract?id=42&rev=7")
	assert.Contains(t, payload.Signals.MoneyStrings, "$12,500")
	assert.NotEmpty(t, payload.Signals.TimePhrases)

	// Raw URLs must not be HTML-escaped on their way to the model.
	assert.NotContains(t, client.gotUser, `\u0026`)
	assert.Contains(t, client.gotUser, "id=42&rev=7")
}

func TestTriageTruncatesLongBodies(t *testing.T) {
	client := &fakeClient{response: draftJSON}
	cfg := testSettings()
	cfg.MaxBodyChars = 40
	p := New(cfg, client)

	body := strings.Repeat("approval pending for contract rider. ", 20)
	_, err := p.Triage(context.Background(), sampleMessage(body))
	require.NoError(t, err)

	assert.Contains(t, client.gotUser, `...[truncated]`)
}

func TestTriageRejectsInvalidMessage(t *testing.T) {
	client := &fakeClient{response: draftJSON}
	p := New(testSettings(), client)

	_, err := p.Triage(context.Background(), &schema.GmailMessage{ID: "x"})
	assert.ErrorIs(t, err, schema.ErrInvalidMessage)
	assert.Zero(t, client.calls, "provider must not be called for invalid input")
}

func TestTriageProviderErrorsPropagate(t *testing.T) {
	client := &fakeClient{err: llm.ErrNotImplemented}
	p := New(testSettings(), client)

	_, err := p.Triage(context.Background(), sampleMessage("hello"))
	assert.ErrorIs(t, err, llm.ErrNotImplemented)
}

func TestTriageRejectsUndecodableDraft(t *testing.T) {
	client := &fakeClient{response: "I cannot help with that."}
	p := New(testSettings(), client)

	_, err := p.Triage(context.Background(), sampleMessage("hello"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode draft decision")
}

func TestTriageRejectsDraftWithoutCategory(t *testing.T) {
	client := &fakeClient{response: `{"sub_action_key": "OTHER"}`}
	p := New(testSettings(), client)

	_, err := p.Triage(context.Background(), sampleMessage("hello"))
	assert.ErrorIs(t, err, schema.ErrInvalidDraft)
}
