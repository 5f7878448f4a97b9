package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// outputPanel renders the scrollable session log: the welcome banner followed
// by everything written during the session, oldest first.
type outputPanel struct {
	viewport viewport.Model

	banner string
	log    string

	highlightQuery string
	matches        int

	width  int
	height int
	ready  bool
}

func newOutputPanel() outputPanel {
	return outputPanel{}
}

// SetSize updates the viewport dimensions.
func (p *outputPanel) SetSize(width, height int) {
	p.width = width
	p.height = height

	contentW := max(width-4, 1)  // border padding
	contentH := max(height-3, 1) // title + border

	if !p.ready {
		p.viewport = viewport.New(contentW, contentH)
		p.ready = true
	} else {
		p.viewport.Width = contentW
		p.viewport.Height = contentH
	}
	p.refreshContent()
}

// SetBanner replaces the text shown above the log.
func (p *outputPanel) SetBanner(text string) {
	p.banner = text
	p.refreshContent()
}

// Append adds text to the end of the log and scrolls to it.
func (p *outputPanel) Append(text string) {
	p.log += text
	p.refreshContent()
	if p.ready {
		p.viewport.GotoBottom()
	}
}

// Appendf is Append with formatting.
func (p *outputPanel) Appendf(format string, a ...any) {
	p.Append(fmt.Sprintf(format, a...))
}

// Content returns the banner followed by the log.
func (p *outputPanel) Content() string {
	if p.banner == "" {
		return p.log
	}
	return p.banner + "\n" + p.log
}

// Update handles viewport-specific messages (mouse scroll, etc.).
func (p *outputPanel) Update(msg tea.Msg) {
	if p.ready {
		p.viewport, _ = p.viewport.Update(msg)
	}
}

// PageUp scrolls the viewport up.
func (p *outputPanel) PageUp() {
	if p.ready {
		p.viewport.HalfViewUp()
	}
}

// PageDown scrolls the viewport down.
func (p *outputPanel) PageDown() {
	if p.ready {
		p.viewport.HalfViewDown()
	}
}

// SetHighlight sets the search highlight query and re-renders output.
func (p *outputPanel) SetHighlight(query string) int {
	p.highlightQuery = query
	p.refreshContent()
	return p.matches
}

// ClearHighlight removes search highlighting.
func (p *outputPanel) ClearHighlight() {
	p.highlightQuery = ""
	p.refreshContent()
}

func (p *outputPanel) refreshContent() {
	content := p.Content()
	p.matches = 0
	if p.highlightQuery != "" {
		content, p.matches = HighlightContent(content, p.highlightQuery)
	}
	if p.ready {
		p.viewport.SetContent(content)
	}
}

// View renders the output panel.
func (p *outputPanel) View() string {
	title := panelTitle.Render("Output")

	var content string
	if p.ready {
		content = p.viewport.View()
	} else {
		content = "  Waiting for terminal size..."
	}

	header := title
	if p.ready && p.viewport.TotalLineCount() > p.viewport.VisibleLineCount() {
		scrollInfo := fmt.Sprintf(" %3.0f%%", p.viewport.ScrollPercent()*100)
		padding := max(p.width-4-len("Output")-len(scrollInfo), 0)
		header = title + strings.Repeat(" ", padding) + keyDescStyle.Render(scrollInfo)
	}

	return panelBorder.Width(p.width).Height(p.height).Render(
		header + "\n" + content,
	)
}
