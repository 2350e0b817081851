package preprocess

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLToText converts an HTML email body to clean-ish plain text: script,
// style and noscript subtrees are dropped, visible text is joined line-wise,
// then whitespace is normalized.
func HTMLToText(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return NormalizeWhitespace(src)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return NormalizeWhitespace(b.String())
}
