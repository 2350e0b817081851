// Package preprocess normalizes email text and extracts simple observable
// signals (links, money strings, time phrases) that ride along with the model
// prompt and double as sanity checks on the model's output.
package preprocess

import (
	"regexp"
	"strings"
)

var (
	urlRE = regexp.MustCompile(`(?i)\bhttps?://[^\s<>()]+`)

	// Lightweight money patterns covering common invoice/payment emails:
	// "$1,234.56", "USD 1,234" and "1,234.56 USD|dollars".
	moneyRE = regexp.MustCompile(`(?i)(?:(?:\$|USD\s?)\s?\d{1,3}(?:,\d{3})*(?:\.\d{2})?|\d{1,3}(?:,\d{3})*(?:\.\d{2})?\s?(?:USD|dollars))`)

	// Lightweight deadline phrases. Deliberately shallow; the temporal
	// resolver does the real date work downstream.
	timePhraseRE = regexp.MustCompile(`(?i)\b(asap|eod|end\s+of\s+day|by\s+\w+(?:\s+\d{1,2})?|due\s+by\s+[^\n.]+|due\s+on\s+[^\n.]+|tomorrow|today|next\s+week|this\s+week|within\s+\d+\s+(?:hours?|days?)|in\s+\d+\s+(?:hours?|days?))\b`)

	controlRE    = regexp.MustCompile("[\t\x0b\x0c]")
	blankLinesRE = regexp.MustCompile(`\n{3,}`)
	runSpacesRE  = regexp.MustCompile(`[ \x{00A0}]{2,}`)
)

// NormalizeWhitespace normalizes newlines, collapses runs of spaces and
// excessive blank lines, and trims the ends.
func NormalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = controlRE.ReplaceAllString(text, " ")
	text = blankLinesRE.ReplaceAllString(text, "\n\n")
	text = runSpacesRE.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ExtractLinks returns http(s) URLs in first-seen order, deduplicated.
func ExtractLinks(text string) []string {
	return dedupe(urlRE.FindAllString(text, -1))
}

// ExtractMoney returns money expressions in first-seen order, deduplicated.
func ExtractMoney(text string) []string {
	matches := moneyRE.FindAllString(text, -1)
	for i, m := range matches {
		matches[i] = strings.TrimSpace(m)
	}
	return dedupe(matches)
}

// ExtractTimePhrases returns deadline-ish phrases, case-insensitively
// deduplicated in first-seen order, capped at limit (10 when limit <= 0).
func ExtractTimePhrases(text string, limit int) []string {
	if limit <= 0 {
		limit = 10
	}
	var out []string
	seen := make(map[string]bool)
	for _, m := range timePhraseRE.FindAllString(text, -1) {
		m = strings.TrimSpace(m)
		key := strings.ToLower(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func dedupe(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
