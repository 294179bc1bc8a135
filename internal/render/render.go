// Package render turns recording summaries into markdown, HTML or styled
// terminal output.
package render

import (
	"bytes"
	"encoding/json"
	"html"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
)

// DefaultWidth is the word-wrap width used when the terminal width is unknown.
const DefaultWidth = 80

// Markdown builds a document from a summary and its action items.
// Items are rendered from their "text" field, falling back to "title";
// items with neither are skipped.
func Markdown(summary string, actionItems []json.RawMessage) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(summary))

	var lines []string
	for _, raw := range actionItems {
		if text := itemText(raw); text != "" {
			lines = append(lines, "- "+text)
		}
	}
	if len(lines) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("## Action items\n\n")
		b.WriteString(strings.Join(lines, "\n"))
	}

	if b.Len() > 0 {
		b.WriteString("\n")
	}
	return b.String()
}

func itemText(raw json.RawMessage) string {
	var item struct {
		Text  string `json:"text"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(raw, &item); err != nil {
		// A bare string item is its own text
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return strings.TrimSpace(s)
		}
		return ""
	}
	if t := strings.TrimSpace(item.Text); t != "" {
		return t
	}
	return strings.TrimSpace(item.Title)
}

// HTML converts markdown to an HTML fragment using goldmark.
// On conversion failure the escaped source is returned in a <pre> block.
func HTML(md string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "<pre>" + html.EscapeString(md) + "</pre>\n"
	}
	return buf.String()
}

// Terminal renders markdown with glamour for display in a terminal.
// If the renderer cannot be built or fails, md is returned unchanged.
func Terminal(md string, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}

	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n") + "\n"
}
