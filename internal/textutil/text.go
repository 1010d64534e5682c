// SPDX-License-Identifier: AGPL-3.0-only
package textutil

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML reduces rich text to single-spaced plain text.
func StripHTML(input string) string {
	doc, err := html.Parse(strings.NewReader(input))
	if err != nil {
		return ""
	}

	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if b.Len() > 0 {
					b.WriteString(" ")
				}
				b.WriteString(text)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return strings.Join(strings.Fields(b.String()), " ")
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// Latin1 replaces characters the core PDF fonts cannot draw.
func Latin1(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '↔':
			b.WriteString("<->")
		case r == '•':
			b.WriteString("-")
		case r == '’' || r == '‘':
			b.WriteRune('\'')
		case r == '“' || r == '”':
			b.WriteRune('"')
		case r == '–' || r == '—':
			b.WriteRune('-')
		case r < 256:
			b.WriteRune(r)
		default:
			b.WriteRune('?')
		}
	}
	return b.String()
}
