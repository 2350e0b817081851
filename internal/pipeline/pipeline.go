// Package pipeline wires the triage stages end to end: validate the raw
// Gmail message, parse it, build the model prompt, call the provider, and
// postprocess the draft into the canonical response.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/daviddao/mailtriage/internal/config"
	"github.com/daviddao/mailtriage/internal/llm"
	"github.com/daviddao/mailtriage/internal/mail"
	"github.com/daviddao/mailtriage/internal/preprocess"
	"github.com/daviddao/mailtriage/internal/prompt"
	"github.com/daviddao/mailtriage/internal/schema"
	"github.com/daviddao/mailtriage/internal/triage"
)

const (
	maxSignalLinks = 10
	maxSignalMoney = 10
	maxTimePhrases = 10
)

// Pipeline runs triage for Gmail messages. Safe for concurrent use.
type Pipeline struct {
	client llm.Client
	cfg    *config.Settings
	now    func() time.Time
}

// New builds a pipeline on an already-selected provider client.
func New(cfg *config.Settings, client llm.Client) *Pipeline {
	return &Pipeline{
		client: client,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Triage runs the full pipeline for one message.
func (p *Pipeline) Triage(ctx context.Context, msg *schema.GmailMessage) (*schema.TriageResponse, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	email := mail.Parse(msg)
	userContent, err := buildUserContent(email, p.cfg.MaxBodyChars)
	if err != nil {
		return nil, fmt.Errorf("build user content: %w", err)
	}

	raw, err := p.client.Complete(ctx, prompt.System, userContent)
	if err != nil {
		return nil, fmt.Errorf("llm completion: %w", err)
	}

	var draft schema.DraftDecision
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("decode draft decision: %w", err)
	}

	predictedAt := p.now()
	decision, err := triage.Postprocess(&draft, email, predictedAt, triage.Meta{
		ModelVersion:  config.ModelVersion,
		PromptVersion: prompt.Version,
	})
	if err != nil {
		return nil, err
	}

	return &schema.TriageResponse{Output: *decision}, nil
}

// ProviderName reports the active provider/model for logs and status output.
func (p *Pipeline) ProviderName() string {
	return p.client.Name()
}

type userPayload struct {
	Provider  string      `json:"provider"`
	MessageID string      `json:"messageId"`
	ThreadID  string      `json:"threadId"`
	Subject   string      `json:"subject"`
	From      fromPayload `json:"from"`
	To        []string    `json:"to"`
	CC        []string    `json:"cc"`
	SentAt    *string     `json:"sentAt"`
	Snippet   string      `json:"snippet"`
	BodyText  string      `json:"bodyText"`
	Signals   signals     `json:"signals"`
}

type fromPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type signals struct {
	TimePhrases  []string `json:"timePhrases"`
	Links        []string `json:"links"`
	MoneyStrings []string `json:"moneyStrings"`
}

// buildUserContent serializes a parsed email into the compact JSON object the
// model receives. The body is capped by rune count; extracted signals ride
// along so the model does not have to re-discover links or deadlines.
func buildUserContent(email *mail.Email, maxBodyChars int) (string, error) {
	body := strings.TrimSpace(email.BodyText)
	if r := []rune(body); len(r) > maxBodyChars {
		body = string(r[:maxBodyChars]) + "\n...[truncated]"
	}

	linkSource := email.BodyHTML
	if linkSource == "" {
		linkSource = body
	}

	var sentAt *string
	if email.SentAt != nil {
		s := email.SentAt.Format("2006-01-02T15:04:05-07:00")
		sentAt = &s
	}

	payload := userPayload{
		Provider:  email.Provider,
		MessageID: email.MessageID,
		ThreadID:  email.ThreadID,
		Subject:   email.Subject,
		From:      fromPayload{Name: email.FromName, Email: email.FromEmail},
		To:        nonNil(email.To),
		CC:        nonNil(email.CC),
		SentAt:    sentAt,
		Snippet:   email.Snippet,
		BodyText:  body,
		Signals: signals{
			TimePhrases:  nonNil(preprocess.ExtractTimePhrases(body, maxTimePhrases)),
			Links:        nonNil(head(preprocess.ExtractLinks(linkSource), maxSignalLinks)),
			MoneyStrings: nonNil(head(preprocess.ExtractMoney(body), maxSignalMoney)),
		},
	}

	// URLs in the signals must reach the model verbatim, so HTML escaping of
	// & and <> is off.
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func head(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
