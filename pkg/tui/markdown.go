package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// renderMarkdown converts markdown to styled terminal output for the given
// background. Falls back to the raw input if rendering fails.
func renderMarkdown(md string, width int, dark bool) string {
	if strings.TrimSpace(md) == "" {
		return md
	}
	style := "light"
	if dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(width, 0)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	// Glamour pads with blank lines; trim for inline use
	return strings.Trim(out, "\n")
}
