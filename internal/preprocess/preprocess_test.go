package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"crlf to lf", "a\r\nb\rc", "a\nb\nc"},
		{"collapse blank lines", "a\n\n\n\n\nb", "a\n\nb"},
		{"tabs to spaces", "a\tb", "a b"},
		{"collapse space runs", "a     b", "a b"},
		{"trim ends", "  hello  ", "hello"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeWhitespace(tt.in))
		})
	}
}

func TestExtractLinks(t *testing.T) {
	text := "see https://example.com/doc and http://foo.io again https://example.com/doc"
	links := ExtractLinks(text)
	require.Len(t, links, 2)
	assert.Equal(t, []string{"https://example.com/doc", "http://foo.io"}, links)
}

func TestExtractMoney(t *testing.T) {
	text := "invoice for $1,234.56 or 500 USD; the $1,234.56 again"
	money := ExtractMoney(text)
	assert.Contains(t, money, "$1,234.56")
	assert.Contains(t, money, "500 USD")
	assert.Len(t, money, 2)
}

func TestExtractTimePhrases(t *testing.T) {
	text := "Need this by Friday, ideally EOD today. By Friday works? Due by next sprint."
	phrases := ExtractTimePhrases(text, 0)
	assert.Contains(t, phrases, "by Friday")
	assert.Contains(t, phrases, "EOD")
	assert.Contains(t, phrases, "today")
	// case-insensitive dedupe keeps the first spelling
	count := 0
	for _, p := range phrases {
		if p == "by Friday" || p == "By Friday" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestExtractTimePhrasesLimit(t *testing.T) {
	text := "today tomorrow asap eod next week this week within 2 days in 3 hours by Monday by Tuesday by Wednesday"
	phrases := ExtractTimePhrases(text, 4)
	assert.Len(t, phrases, 4)
}

func TestHTMLToText(t *testing.T) {
	src := `<html><head><style>p{color:red}</style><script>alert(1)</script></head>
<body><p>Hello <b>world</b></p><noscript>nope</noscript><div>Second line</div></body></html>`
	text := HTMLToText(src)
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "world")
	assert.Contains(t, text, "Second line")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "nope")
}
