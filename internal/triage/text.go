package triage

import (
	"regexp"
	"strings"
)

var (
	wsRunRE       = regexp.MustCompile(`\s+`)
	nonAlnumRE    = regexp.MustCompile(`[^A-Za-z0-9]+`)
	replyPrefixRE = regexp.MustCompile(`(?i)^(\s*(re|fwd|fw)\s*:\s*)`)
)

// collapseWhitespace replaces runs of whitespace with a single space and
// trims the ends.
func collapseWhitespace(s string) string {
	return strings.TrimSpace(wsRunRE.ReplaceAllString(s, " "))
}

// canonicalKey maps an arbitrary action key to upper snake case. Empty or
// all-punctuation input yields the sentinel "OTHER".
func canonicalKey(raw string) string {
	key := strings.TrimSpace(raw)
	if key == "" {
		return "OTHER"
	}
	key = nonAlnumRE.ReplaceAllString(key, "_")
	key = strings.Trim(key, "_")
	if key == "" {
		return "OTHER"
	}
	return strings.ToUpper(key)
}

// cleanSnippets trims, collapses and truncates each entry (rune-wise, so
// multibyte text is not split), then deduplicates case-insensitively in
// first-seen order, stopping at maxCount.
func cleanSnippets(in []string, maxLen, maxCount int) []string {
	cleaned := make([]string, 0, maxCount)
	seen := make(map[string]bool)
	for _, e := range in {
		s := collapseWhitespace(e)
		if s == "" {
			continue
		}
		if r := []rune(s); len(r) > maxLen {
			s = string(r[:maxLen])
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, s)
		if len(cleaned) >= maxCount {
			break
		}
	}
	return cleaned
}

// trimNonEmpty trims entries, drops empties, caps the result. Order is
// preserved and no dedupe is applied.
func trimNonEmpty(in []string, max int) []string {
	out := make([]string, 0, max)
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) >= max {
			break
		}
	}
	return out
}

// subjectToTopic strips leading reply/forward prefixes, repeatedly, so
// "Re: Fwd: Re: X" reduces to "X".
func subjectToTopic(subject string) string {
	s := strings.TrimSpace(subject)
	for {
		next := replyPrefixRE.ReplaceAllString(s, "")
		if next == s {
			break
		}
		s = next
	}
	return strings.TrimSpace(s)
}
