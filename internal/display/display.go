// Package display provides terminal formatting for mailtriage output.
package display

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/daviddao/mailtriage/internal/mail"
	"github.com/daviddao/mailtriage/internal/schema"
)

var (
	// Styles
	Muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	Dim      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
	Bold     = lipgloss.NewStyle().Bold(true)
	Success  = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	ErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))

	CriticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626")).Bold(true)
	HighStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
	MediumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#d97706"))
	LowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
)

// UrgencyDot returns a colored dot for an urgency level.
func UrgencyDot(urgency string) string {
	switch urgency {
	case schema.UrgencyCritical:
		return CriticalStyle.Render("●")
	case schema.UrgencyHigh:
		return HighStyle.Render("●")
	case schema.UrgencyMedium:
		return MediumStyle.Render("○")
	case schema.UrgencyLow:
		return LowStyle.Render("○")
	default:
		return Dim.Render("·")
	}
}

// UrgencyLabel returns a styled urgency label, padded for column alignment.
func UrgencyLabel(urgency string) string {
	label := fmt.Sprintf("%-8s", strings.ToUpper(urgency))
	switch urgency {
	case schema.UrgencyCritical:
		return CriticalStyle.Render(label)
	case schema.UrgencyHigh:
		return HighStyle.Render(label)
	case schema.UrgencyMedium:
		return MediumStyle.Render(label)
	case schema.UrgencyLow:
		return LowStyle.Render(label)
	default:
		return label
	}
}

// KindLabel returns a styled recommended-action kind tag.
func KindLabel(kind string) string {
	switch kind {
	case schema.KindPrimary:
		return Success.Render(kind)
	case schema.KindDanger:
		return ErrStyle.Render(kind)
	default:
		return Muted.Render(kind)
	}
}

// TimeAgo formats an ISO date string as a relative time.
func TimeAgo(isoDate string) string {
	if isoDate == "" {
		return ""
	}

	// Try multiple formats
	var t time.Time
	var err error
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z", "2006-01-02 15:04:05", time.RFC3339Nano} {
		t, err = time.Parse(layout, isoDate)
		if err == nil {
			break
		}
	}
	if err != nil {
		return isoDate[:min(10, len(isoDate))]
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		return fmt.Sprintf("%dm ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		return fmt.Sprintf("%dh ago", h)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("Jan 2")
	}
}

// Truncate shortens a string to maxLen, adding ellipsis if needed.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// SuccessMsg prints a green checkmark + message.
func SuccessMsg(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(Success.Render("✓") + " " + msg)
}

// ErrorMsg prints a red X + message to stderr.
func ErrorMsg(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, ErrStyle.Render("✗")+" "+msg)
}

// Header prints a section header.
func Header(title string) {
	fmt.Println(Bold.Render(title))
}

// SubHeader prints a dim subsection label.
func SubHeader(title string) {
	fmt.Println(Muted.Render(title))
}

// MessageCard prints a reference block for one message: who sent it, when,
// and what it looks like before triage runs.
func MessageCard(email *mail.Email, index, total int) {
	pos := ""
	if total > 1 {
		pos = Dim.Render(fmt.Sprintf("[%d/%d] ", index+1, total))
	}
	subject := email.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	fmt.Println(pos + Bold.Render(subject))

	from := email.FromEmail
	if email.FromName != "" {
		from = fmt.Sprintf("%s <%s>", email.FromName, email.FromEmail)
	}
	fmt.Printf("  %s %s\n", Muted.Render("From:"), from)
	if len(email.To) > 0 {
		fmt.Printf("  %s %s\n", Muted.Render("To:  "), strings.Join(email.To, ", "))
	}
	if email.SentAt != nil {
		fmt.Printf("  %s %s  %s\n",
			Muted.Render("Date:"),
			email.SentAt.Format("Mon, 02 Jan 2006 15:04"),
			Dim.Render(TimeAgo(email.SentAt.Format(time.RFC3339))))
	}
	if email.Snippet != "" {
		fmt.Printf("  %s\n", Dim.Render(Truncate(email.Snippet, 100)))
	}
}

// Decision prints the full triage output as an annotated block.
func Decision(out *schema.Decision) {
	urgency := out.UrgencySignals.Urgency
	fmt.Printf("%s %s %s %s %s\n",
		UrgencyDot(urgency),
		UrgencyLabel(urgency),
		string(out.MajorCategory),
		Muted.Render("→"),
		Bold.Render(out.SubActionKey))
	fmt.Printf("  %s %.2f", Muted.Render("confidence"), out.Confidence)
	if out.ExplicitTask {
		fmt.Printf("  %s", MediumStyle.Render("explicit task"))
	}
	fmt.Println()

	if out.ExtractedSummary.Ask != "" {
		fmt.Printf("  %s %s\n", Muted.Render("Ask: "), out.ExtractedSummary.Ask)
	}
	if out.UrgencySignals.ReplyBy != nil {
		deadline := ""
		if out.UrgencySignals.DeadlineText != nil && *out.UrgencySignals.DeadlineText != "" {
			deadline = Dim.Render(fmt.Sprintf("(%q)", *out.UrgencySignals.DeadlineText))
		}
		fmt.Printf("  %s %s %s\n", Muted.Render("Reply by:"), *out.UrgencySignals.ReplyBy, deadline)
	}

	if tp := out.TaskProposal; tp != nil && tp.Type != nil {
		due := ""
		if tp.DueAt != nil {
			due = Dim.Render("due " + *tp.DueAt)
		}
		fmt.Printf("  %s %s %s %s\n", Muted.Render("Task:"), UrgencyDot(tp.Priority), tp.Title, due)
	}

	if m := out.Entities.Meeting; m != nil {
		topic := ""
		if m.Topic != nil {
			topic = *m.Topic
		}
		start := ""
		if m.StartAt != nil {
			start = *m.StartAt
		}
		tz := ""
		if m.TZ != nil && *m.TZ != "" {
			tz = Dim.Render("(" + *m.TZ + ")")
		}
		fmt.Printf("  %s %s %s %s\n", Muted.Render("Meeting:"), topic, start, tz)
	}

	if len(out.RecommendedActions) > 0 {
		fmt.Printf("  %s\n", Muted.Render("Actions:"))
		for _, a := range out.RecommendedActions {
			fmt.Printf("    %d. %s %s %s\n", a.Rank, KindLabel(a.Kind), a.Label, Dim.Render(a.Key))
		}
	}

	if len(out.SuggestedReplyAction) > 0 {
		fmt.Printf("  %s\n", Muted.Render("Suggested replies:"))
		for _, r := range out.SuggestedReplyAction {
			fmt.Printf("    %s %s\n", Dim.Render("·"), Truncate(r, 100))
		}
	}

	if len(out.Evidence) > 0 {
		fmt.Printf("  %s\n", Muted.Render("Evidence:"))
		for _, e := range out.Evidence {
			fmt.Printf("    %s %s\n", Muted.Render(">"), Dim.Render(Truncate(e, 100)))
		}
	}
}

// Distribution prints a count map sorted by frequency, then name.
func Distribution(title string, counts map[string]int) {
	fmt.Printf("  %s\n", title)
	if len(counts) == 0 {
		fmt.Printf("    %s\n", Dim.Render("(none)"))
		return
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		fmt.Printf("    %4d  %s\n", counts[k], k)
	}
}
