package triage

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone resolution must not depend on host zoneinfo
)

// zoneAbbrevs maps timezone abbreviations to IANA zone names. Order matters:
// the first table entry that appears anywhere in the text wins, so "ET or PT"
// resolves to the Pacific zone.
var zoneAbbrevs = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`\bpt\b`), "America/Los_Angeles"},
	{regexp.MustCompile(`\bpst\b`), "America/Los_Angeles"},
	{regexp.MustCompile(`\bpdt\b`), "America/Los_Angeles"},
	{regexp.MustCompile(`\bmt\b`), "America/Denver"},
	{regexp.MustCompile(`\bmst\b`), "America/Denver"},
	{regexp.MustCompile(`\bmdt\b`), "America/Denver"},
	{regexp.MustCompile(`\bct\b`), "America/Chicago"},
	{regexp.MustCompile(`\bcst\b`), "America/Chicago"},
	{regexp.MustCompile(`\bcdt\b`), "America/Chicago"},
	{regexp.MustCompile(`\bet\b`), "America/New_York"},
	{regexp.MustCompile(`\best\b`), "America/New_York"},
	{regexp.MustCompile(`\bedt\b`), "America/New_York"},
	{regexp.MustCompile(`\butc\b`), "UTC"},
	{regexp.MustCompile(`\bgmt\b`), "UTC"},
}

// offsetZones maps a reference instant's UTC offset (seconds) to a zone when
// no abbreviation is present. A heuristic: each offset picks exactly one US
// zone and -7h reads as Pacific daylight time.
var offsetZones = map[int]string{
	-8 * 3600: "America/Los_Angeles",
	-7 * 3600: "America/Los_Angeles",
	-6 * 3600: "America/Chicago",
	-5 * 3600: "America/New_York",
	0:         "UTC",
}

var weekdays = []struct {
	re  *regexp.Regexp
	day time.Weekday
}{
	{regexp.MustCompile(`\bmonday\b`), time.Monday},
	{regexp.MustCompile(`\btuesday\b`), time.Tuesday},
	{regexp.MustCompile(`\bwednesday\b`), time.Wednesday},
	{regexp.MustCompile(`\bthursday\b`), time.Thursday},
	{regexp.MustCompile(`\bfriday\b`), time.Friday},
	{regexp.MustCompile(`\bsaturday\b`), time.Saturday},
	{regexp.MustCompile(`\bsunday\b`), time.Sunday},
}

var (
	nextRE   = regexp.MustCompile(`\bnext\b`)
	time12RE = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
	time24RE = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)

	isoDateRE  = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	usDateRE   = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)
	monthDayRE = regexp.MustCompile(`\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`)
	dayMonthRE = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\b`)
)

var monthNums = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// isoFormat serializes like an ISO-8601 timestamp with a numeric offset
// ("2024-02-02T14:00:00-08:00"; UTC renders "+00:00", never "Z").
const isoFormat = "2006-01-02T15:04:05-07:00"

func isoString(t time.Time) string { return t.Format(isoFormat) }
func isoDateString(t time.Time) string { return t.Format("2006-01-02") }

// extractZone resolves a zone for the text: abbreviation first (in table
// order), then the reference offset table, then the reference's own zone.
// The returned name is empty when no zone was resolved by name or offset.
func extractZone(lower string, base time.Time) (*time.Location, string) {
	for _, z := range zoneAbbrevs {
		if !z.re.MatchString(lower) {
			continue
		}
		if z.name == "UTC" {
			return time.UTC, "UTC"
		}
		if loc, err := time.LoadLocation(z.name); err == nil {
			return loc, z.name
		}
		return time.UTC, z.name
	}

	_, off := base.Zone()
	if name, ok := offsetZones[off]; ok {
		if name == "UTC" {
			return time.UTC, "UTC"
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc, name
		}
		return base.Location(), name
	}

	return base.Location(), ""
}

// extractClock pulls an hour/minute out of free text: noon, midnight,
// eod/end of day, a 12-hour pattern, or a validated 24-hour pattern.
func extractClock(lower string) (hour, minute int, ok bool) {
	if strings.Contains(lower, "noon") {
		return 12, 0, true
	}
	if strings.Contains(lower, "midnight") {
		return 0, 0, true
	}
	if strings.Contains(lower, "eod") || strings.Contains(lower, "end of day") {
		return 17, 0, true
	}

	if m := time12RE.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if m[3] == "am" {
			if hour == 12 {
				hour = 0
			}
		} else if hour != 12 {
			hour += 12
		}
		return hour, minute, true
	}

	if m := time24RE.FindStringSubmatch(lower); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		if h <= 23 && mi <= 59 {
			return h, mi, true
		}
	}

	return 0, 0, false
}

// hasClock reports whether the raw text carries a time-of-day. Callers use it
// to decide between date-only and full datetime serialization.
func hasClock(text string) bool {
	if _, _, ok := extractClock(strings.ToLower(text)); ok {
		return true
	}
	return time24RE.MatchString(text)
}

// inferInstant converts free text plus a reference instant into an absolute
// instant and the resolved zone name. ok is false when nothing was inferable;
// the resolver never fails harder than that.
//
// Precedence: timezone extraction, relative day (today/tomorrow/weekday with
// optional "next"), time-of-day, then a bounded fallback parse for explicit
// dates.
func inferInstant(text string, base time.Time) (time.Time, string, bool) {
	if strings.TrimSpace(text) == "" {
		return time.Time{}, "", false
	}

	lower := strings.ToLower(strings.TrimSpace(text))
	loc, tzName := extractZone(lower, base)
	baseLocal := base.In(loc)

	day, haveDay := baseLocal, false
	switch {
	case strings.Contains(lower, "today"):
		haveDay = true
	case strings.Contains(lower, "tomorrow"):
		day, haveDay = baseLocal.AddDate(0, 0, 1), true
	}

	if !haveDay {
		for _, wd := range weekdays {
			if !wd.re.MatchString(lower) {
				continue
			}
			delta := (int(wd.day) - int(baseLocal.Weekday()) + 7) % 7
			if delta == 0 {
				delta = 7 // a bare weekday name always means the next occurrence
			}
			if nextRE.MatchString(lower) {
				delta += 7
			}
			day, haveDay = baseLocal.AddDate(0, 0, delta), true
			break
		}
	}

	if haveDay {
		hour, minute, ok := extractClock(lower)
		if !ok {
			hour, minute = 0, 0
		}
		t := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
		return t, tzName, true
	}

	if t, ok := fallbackParse(lower, baseLocal, loc); ok {
		return t, tzName, true
	}
	return time.Time{}, "", false
}

// fallbackParse handles explicit dates (ISO, US slash form, month names) and
// bare clock times anywhere in the text. Missing pieces fill from the
// reference instant: unknown year means the reference year, no clock means
// the reference wall clock.
func fallbackParse(lower string, baseLocal time.Time, loc *time.Location) (time.Time, bool) {
	year, month, dayNum, haveDate := findDate(lower, baseLocal)
	hour, minute, haveClock := extractClock(lower)

	if !haveDate && !haveClock {
		return time.Time{}, false
	}
	if !haveDate {
		year, month, dayNum = baseLocal.Date()
	}
	if !haveClock {
		hour, minute = baseLocal.Hour(), baseLocal.Minute()
	}
	return time.Date(year, month, dayNum, hour, minute, 0, 0, loc), true
}

func findDate(lower string, baseLocal time.Time) (int, time.Month, int, bool) {
	if m := isoDateRE.FindStringSubmatch(lower); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if validMonthDay(mo, d) {
			return y, time.Month(mo), d, true
		}
	}

	if m := monthDayRE.FindStringSubmatch(lower); m != nil {
		mo := monthNums[m[1]]
		d, _ := strconv.Atoi(m[2])
		y := baseLocal.Year()
		if m[3] != "" {
			y, _ = strconv.Atoi(m[3])
		}
		if d >= 1 && d <= 31 {
			return y, mo, d, true
		}
	}

	if m := dayMonthRE.FindStringSubmatch(lower); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo := monthNums[m[2]]
		if d >= 1 && d <= 31 {
			return baseLocal.Year(), mo, d, true
		}
	}

	if m := usDateRE.FindStringSubmatch(lower); m != nil {
		mo, _ := strconv.Atoi(m[1])
		d, _ := strconv.Atoi(m[2])
		y := baseLocal.Year()
		if m[3] != "" {
			y, _ = strconv.Atoi(m[3])
			if y < 100 {
				y += 2000
			}
		}
		if validMonthDay(mo, d) {
			return y, time.Month(mo), d, true
		}
	}

	return 0, 0, 0, false
}

func validMonthDay(month, day int) bool {
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}

// parseISO reads an existing ISO value from a draft entity: a full RFC 3339
// timestamp, a naive datetime (read as UTC), or a bare date.
func parseISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
