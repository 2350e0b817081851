// Package gmailapi fetches messages from the Gmail API in the same raw wire
// shape the HTTP service accepts, so live mail and queued mail flow through
// one parser.
package gmailapi

import (
	"fmt"
	"strconv"

	gm "google.golang.org/api/gmail/v1"

	"github.com/daviddao/mailtriage/internal/schema"
)

// Summary is one listing entry from a metadata-format search.
type Summary struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Date     string `json:"date"`
	Snippet  string `json:"snippet"`
}

// Search finds messages matching a Gmail query and returns summaries in
// Gmail's default newest-first order.
func Search(svc *gm.Service, query string, maxResults int64) ([]Summary, error) {
	resp, err := svc.Users.Messages.List("me").
		Q(query).
		MaxResults(maxResults).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	if len(resp.Messages) == 0 {
		return nil, nil
	}

	summaries := make([]Summary, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		detail, err := svc.Users.Messages.Get("me", msg.Id).
			Format("metadata").
			MetadataHeaders("From", "To", "Subject", "Date").
			Do()
		if err != nil {
			// Skip individual message failures.
			continue
		}

		headers := headerMap(detail.Payload.Headers)
		summaries = append(summaries, Summary{
			ID:       detail.Id,
			ThreadID: detail.ThreadId,
			From:     headers["From"],
			To:       headers["To"],
			Subject:  defaultStr(headers["Subject"], "(no subject)"),
			Date:     headers["Date"],
			Snippet:  detail.Snippet,
		})
	}

	return summaries, nil
}

// Fetch retrieves one full message and converts it to the wire shape the
// triage pipeline consumes.
func Fetch(svc *gm.Service, messageID string) (*schema.GmailMessage, error) {
	msg, err := svc.Users.Messages.Get("me", messageID).
		Format("full").
		Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", messageID, err)
	}
	return ConvertMessage(msg), nil
}

// ConvertMessage maps the Gmail API resource onto the wire schema. Bodies
// stay base64url-encoded; decoding is the parser's job.
func ConvertMessage(msg *gm.Message) *schema.GmailMessage {
	out := &schema.GmailMessage{
		ID:           msg.Id,
		ThreadID:     msg.ThreadId,
		LabelIDs:     msg.LabelIds,
		Snippet:      msg.Snippet,
		SizeEstimate: int(msg.SizeEstimate),
		Payload:      convertPart(msg.Payload),
	}
	if msg.HistoryId != 0 {
		out.HistoryID = strconv.FormatUint(msg.HistoryId, 10)
	}
	if msg.InternalDate != 0 {
		out.InternalDate = strconv.FormatInt(msg.InternalDate, 10)
	}
	return out
}

func convertPart(part *gm.MessagePart) *schema.GmailPart {
	if part == nil {
		return nil
	}
	out := &schema.GmailPart{
		PartID:   part.PartId,
		MimeType: part.MimeType,
		Filename: part.Filename,
	}
	for _, h := range part.Headers {
		out.Headers = append(out.Headers, schema.GmailHeader{Name: h.Name, Value: h.Value})
	}
	if part.Body != nil {
		out.Body = schema.GmailBody{
			Size:         int(part.Body.Size),
			Data:         part.Body.Data,
			AttachmentID: part.Body.AttachmentId,
		}
	}
	for _, p := range part.Parts {
		out.Parts = append(out.Parts, convertPart(p))
	}
	return out
}

// headerMap converts Gmail API headers into a simple key-value map.
func headerMap(headers []*gm.MessagePartHeader) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[h.Name] = h.Value
	}
	return m
}

func defaultStr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
