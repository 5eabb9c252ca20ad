package html

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	css "github.com/andybalholm/cascadia"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrMalformed is returned when an HTML body can't be read as a document.
var ErrMalformed = errors.New("malformed HTML")

// Elements whose content never shows up in a rendered email. They're
// removed from the tree before extracting text.
var hiddenSelector = css.MustCompile("head, script, style, template, noscript")

// Elements that start on a new line. Paragraph-like elements get a blank
// line around them so the text version keeps the same visual grouping.
var lineBreakTags = map[atom.Atom]struct{}{
	atom.Br:      {},
	atom.Div:     {},
	atom.Li:      {},
	atom.Tr:      {},
	atom.Ul:      {},
	atom.Ol:      {},
	atom.Table:   {},
	atom.Section: {},
	atom.Header:  {},
	atom.Footer:  {},
}

var paragraphTags = map[atom.Atom]struct{}{
	atom.P:          {},
	atom.H1:         {},
	atom.H2:         {},
	atom.H3:         {},
	atom.H4:         {},
	atom.H5:         {},
	atom.H6:         {},
	atom.Blockquote: {},
	atom.Pre:        {},
	atom.Hr:         {},
}

var blankLinesRe = regexp.MustCompile(`\n{3,}`)

// PlainText renders body, an HTML document or fragment, as plain text
// suitable for a text/plain MIME part. Tags are stripped and entities
// decoded. Lines are never wrapped, since the MIME encoding takes care
// of line length. A link whose text differs from its href keeps the URL
// in parentheses so it survives in the text version.
func PlainText(body string) (string, error) {
	if !utf8.ValidString(body) {
		return "", fmt.Errorf("%w: the body is not valid UTF-8", ErrMalformed)
	}

	doc, err := nethtml.Parse(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	for _, n := range hiddenSelector.MatchAll(doc) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}

	var b strings.Builder
	writeText(&b, doc, false)

	return tidy(b.String()), nil
}

// writeText walks the tree rooted at n depth first, writing text nodes
// and the line breaks implied by block elements to b. Whitespace is
// collapsed unless we're inside a pre element.
func writeText(b *strings.Builder, n *nethtml.Node, pre bool) {
	switch n.Type {
	case nethtml.TextNode:
		if pre {
			b.WriteString(n.Data)
			return
		}
		b.WriteString(collapseSpace(n.Data))
		return
	case nethtml.CommentNode, nethtml.DoctypeNode:
		return
	}

	_, isLine := lineBreakTags[n.DataAtom]
	_, isPara := paragraphTags[n.DataAtom]

	switch {
	case isPara:
		b.WriteString("\n\n")
	case isLine:
		b.WriteString("\n")
	}

	if n.DataAtom == atom.Pre {
		pre = true
	}

	start := b.Len()
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c, pre)
	}

	if n.DataAtom == atom.A {
		href := attr(n, "href")
		text := strings.TrimSpace(b.String()[start:])
		if href != "" && text != href && !strings.HasPrefix(href, "#") {
			fmt.Fprintf(b, " (%v)", href)
		}
	}

	if isPara {
		b.WriteString("\n\n")
	}
}

// collapseSpace replaces runs of whitespace with a single space, the way
// a browser renders inline text.
func collapseSpace(s string) string {
	if strings.TrimSpace(s) == "" {
		if s == "" {
			return ""
		}
		return " "
	}
	var out strings.Builder
	if isSpace(s[0]) {
		out.WriteByte(' ')
	}
	out.WriteString(strings.Join(strings.Fields(s), " "))
	if isSpace(s[len(s)-1]) {
		out.WriteByte(' ')
	}
	return out.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// tidy trims each line and removes runs of blank lines left behind by
// nested block elements.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.Trim(lines[i], " \t")
	}
	s = strings.Join(lines, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// attr returns the value of the attribute of n named key, or an empty
// string if n has no such attribute
func attr(n *nethtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
