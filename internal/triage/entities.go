package triage

import (
	"strings"
	"time"

	"github.com/daviddao/mailtriage/internal/schema"
)

// fillSender guarantees the sender appears in the people list. An existing
// entry with a matching address (case-insensitive) gains the "sender" role if
// it has none; otherwise a new entry is prepended. Safe to call repeatedly.
func fillSender(entities *schema.Entities, fromEmail string) {
	sender := strings.TrimSpace(fromEmail)
	if sender == "" {
		return
	}
	for i := range entities.People {
		if strings.EqualFold(strings.TrimSpace(entities.People[i].Email), sender) {
			if entities.People[i].Role == "" {
				entities.People[i].Role = "sender"
			}
			return
		}
	}
	entities.People = append([]schema.PersonRef{{Email: sender, Role: "sender"}}, entities.People...)
}

// fillDateISOs resolves every date mention that lacks an ISO value against
// the reference instant. It returns the best candidate for a meeting start,
// scanning in input order: the first pre-resolved ISO value or clock-bearing
// inference, whichever comes first. Date-only inferences fill their mention
// but never become the candidate.
func fillDateISOs(entities *schema.Entities, base time.Time) (best *time.Time, bestTZ string) {
	for i := range entities.Dates {
		d := &entities.Dates[i]
		if d.ISO != nil && strings.TrimSpace(*d.ISO) != "" {
			if best == nil {
				if t, ok := parseISO(*d.ISO); ok {
					best = &t
				}
			}
			continue
		}
		t, tzName, ok := inferInstant(d.Text, base)
		if !ok {
			continue
		}
		if hasClock(d.Text) {
			iso := isoString(t)
			d.ISO = &iso
			if best == nil {
				inferred := t
				best = &inferred
				bestTZ = tzName
			}
		} else {
			iso := isoDateString(t)
			d.ISO = &iso
		}
	}
	return best, bestTZ
}

// fillMeeting builds or completes the meeting reference for scheduling
// decisions. The action key is canonicalized before the prefix check so the
// trigger does not depend on the draft's casing. Only blank fields are
// filled; anything the draft already set stays untouched.
func fillMeeting(entities *schema.Entities, category schema.MajorCategory, subActionKey, subject string, best *time.Time, bestTZ string) {
	if category != schema.CategoryScheduleAndTime &&
		!strings.HasPrefix(canonicalKey(subActionKey), "SCHEDULE_") {
		return
	}
	if entities.Meeting == nil {
		entities.Meeting = &schema.MeetingRef{}
	}
	m := entities.Meeting
	if m.Topic == nil || strings.TrimSpace(*m.Topic) == "" {
		topic := subjectToTopic(subject)
		m.Topic = &topic
	}
	if (m.StartAt == nil || strings.TrimSpace(*m.StartAt) == "") && best != nil {
		iso := isoString(*best)
		m.StartAt = &iso
	}
	if (m.TZ == nil || strings.TrimSpace(*m.TZ) == "") && bestTZ != "" {
		tz := bestTZ
		m.TZ = &tz
	}
}
