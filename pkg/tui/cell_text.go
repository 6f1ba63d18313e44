package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"golang.org/x/net/html"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

// cellText is what a grid cell shows for a field value. Rich text shows
// the text of its HTML; everything is flattened to a single line.
func cellText(f models.FieldDescriptor, value string) string {
	if f.FieldType.IsRichText() {
		value = htmlText(value)
	}
	return strings.Join(strings.Fields(value), " ")
}

// htmlText returns the text content of an HTML fragment. Input that does not
// parse is returned as it is.
func htmlText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return fragment
	}
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		// keep words of adjacent blocks apart
		if n.Type == html.ElementNode && isBlockElement(n.Data) {
			b.WriteString(" ")
		}
	}
	walk(doc)
	return strings.Join(strings.Fields(b.String()), " ")
}

func isBlockElement(tag string) bool {
	switch tag {
	case "p", "div", "br", "li", "ul", "ol", "h1", "h2", "h3", "h4", "h5", "h6", "tr", "td", "th", "blockquote", "pre":
		return true
	}
	return false
}

// fitCell truncates s to width cells and pads it so every column lines up.
func fitCell(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) > width {
		s = truncate.StringWithTail(s, uint(width), "…")
	}
	if pad := width - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// columnTitle is the header of a field column
func columnTitle(f models.FieldDescriptor) string {
	if f.Title != "" {
		return f.Title
	}
	return f.FieldID
}
