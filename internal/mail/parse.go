// Package mail turns a raw Gmail API message JSON object into a normalized
// Email record: headers, addresses, timestamps, and a best-effort body
// decoded from Gmail's nested MIME tree.
package mail

import (
	"encoding/base64"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/daviddao/mailtriage/internal/preprocess"
	"github.com/daviddao/mailtriage/internal/schema"
)

// Email is the normalized representation consumed by the triage pipeline.
// Created once per request and never mutated afterwards.
type Email struct {
	Provider  string
	MessageID string
	ThreadID  string

	Subject   string
	FromName  string
	FromEmail string
	To        []string
	CC        []string

	// SentAt keeps the sender's timezone when the Date header parses;
	// InternalDate is Gmail's internal receive time in UTC.
	SentAt       *time.Time
	InternalDate *time.Time
	Snippet      string

	BodyText string
	BodyHTML string
}

// Parse normalizes a Gmail message. It is deliberately tolerant of missing or
// partial data: the only hard requirements are checked by msg.Validate before
// the pipeline runs, everything else degrades to empty fields.
func Parse(msg *schema.GmailMessage) *Email {
	headers := headerMap(msg.Payload.Headers)

	fromName, fromEmail := parseFrom(headers["from"])

	var sentAt *time.Time
	if v := headers["date"]; v != "" {
		if t, ok := parseDate(v); ok {
			sentAt = &t
		}
	}

	var internalDate *time.Time
	if msg.InternalDate != "" {
		if ms, err := strconv.ParseInt(msg.InternalDate, 10, 64); err == nil {
			t := time.UnixMilli(ms).UTC()
			internalDate = &t
		}
	}

	bodyText, bodyHTML := extractBodies(msg.Payload)

	provider := msg.Provider
	if provider == "" {
		provider = "gmail"
	}

	return &Email{
		Provider:     provider,
		MessageID:    msg.ID,
		ThreadID:     msg.ThreadID,
		Subject:      strings.TrimSpace(headers["subject"]),
		FromName:     fromName,
		FromEmail:    fromEmail,
		To:           parseAddressList(headers["to"]),
		CC:           parseAddressList(headers["cc"]),
		SentAt:       sentAt,
		InternalDate: internalDate,
		Snippet:      strings.TrimSpace(msg.Snippet),
		BodyText:     bodyText,
		BodyHTML:     bodyHTML,
	}
}

// BaseTime returns the email's best-known reference instant: the sender's
// Date header, else Gmail's internal date, else now in UTC.
func (e *Email) BaseTime(now func() time.Time) time.Time {
	if e.SentAt != nil {
		return *e.SentAt
	}
	if e.InternalDate != nil {
		return *e.InternalDate
	}
	if now == nil {
		now = time.Now
	}
	return now().UTC()
}

// headerMap converts Gmail's headers array into a case-insensitive map.
// Gmail can include repeated headers; the first seen wins.
func headerMap(headers []schema.GmailHeader) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h.Name))
		if key == "" {
			continue
		}
		if _, ok := m[key]; !ok {
			m[key] = strings.TrimSpace(h.Value)
		}
	}
	return m
}

// parseFrom extracts the display name and address of the first From entry.
func parseFrom(value string) (name, email string) {
	if strings.TrimSpace(value) == "" {
		return "", ""
	}
	if addr, err := mail.ParseAddress(value); err == nil {
		return addr.Name, addr.Address
	}
	// Malformed header: salvage a bare address if one is present.
	for _, tok := range strings.FieldsFunc(value, func(r rune) bool { return r == ' ' || r == '<' || r == '>' || r == ',' }) {
		if strings.Contains(tok, "@") {
			return "", tok
		}
	}
	return "", ""
}

// parseAddressList extracts bare addresses from a To/Cc header, in order.
func parseAddressList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if addrs, err := mail.ParseAddressList(value); err == nil {
		out := make([]string, 0, len(addrs))
		for _, a := range addrs {
			if a.Address != "" {
				out = append(out, a.Address)
			}
		}
		return out
	}
	// Tolerate malformed lists entry by entry.
	var out []string
	for _, chunk := range strings.Split(value, ",") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		if addr, err := mail.ParseAddress(chunk); err == nil {
			out = append(out, addr.Address)
			continue
		}
		if strings.Contains(chunk, "@") {
			out = append(out, strings.Trim(chunk, "<> "))
		}
	}
	return out
}

// dateLayouts covers the Date header shapes seen in practice beyond strict
// RFC 5322 (which net/mail handles first).
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
}

// parseDate parses an email Date header. Values without a zone are read as UTC.
func parseDate(value string) (time.Time, bool) {
	if t, err := mail.ParseDate(value); err == nil {
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// extractBodies walks the MIME tree depth-first and returns the best-effort
// (plain text, raw html). All non-empty text/plain parts are joined; when none
// exist, html parts are joined and converted to text.
func extractBodies(payload *schema.GmailPart) (bodyText, bodyHTML string) {
	var plains, htmls []string

	var walk func(p *schema.GmailPart)
	walk = func(p *schema.GmailPart) {
		if p == nil {
			return
		}
		if p.Body.Data != "" {
			switch strings.ToLower(p.MimeType) {
			case "text/plain":
				plains = append(plains, decodeBase64URL(p.Body.Data))
			case "text/html":
				htmls = append(htmls, decodeBase64URL(p.Body.Data))
			}
		}
		for _, child := range p.Parts {
			walk(child)
		}
	}
	walk(payload)

	switch {
	case len(plains) > 0:
		bodyText = joinNonEmpty(plains)
		bodyHTML = joinNonEmpty(htmls)
	case len(htmls) > 0:
		bodyHTML = joinNonEmpty(htmls)
		bodyText = preprocess.HTMLToText(bodyHTML)
	}

	return strings.TrimSpace(bodyText), bodyHTML
}

func joinNonEmpty(parts []string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

// decodeBase64URL decodes Gmail's base64url content, which often omits
// padding. Decode failures yield an empty string rather than failing the
// whole pipeline.
func decodeBase64URL(data string) string {
	if data == "" {
		return ""
	}
	padded := data + strings.Repeat("=", (4-len(data)%4)%4)
	raw, err := base64.URLEncoding.DecodeString(padded)
	if err != nil {
		if raw, err = base64.StdEncoding.DecodeString(padded); err != nil {
			return ""
		}
	}
	return string(raw)
}
