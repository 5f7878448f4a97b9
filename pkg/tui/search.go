package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// searchBar renders an inline search field below the output panel.
type searchBar struct {
	active  bool
	input   textinput.Model
	query   string // committed search term
	matches int
}

func newSearchBar() searchBar {
	ti := textinput.New()
	ti.Placeholder = "Search output..."
	ti.CharLimit = 256
	ti.Width = 40
	ti.Prompt = "/ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	return searchBar{input: ti}
}

// Open activates the search bar and focuses the text input.
func (s *searchBar) Open() {
	s.active = true
	s.input.Reset()
	s.input.Focus()
	s.query = ""
	s.matches = 0
}

// Close deactivates the search bar and forgets the query.
func (s *searchBar) Close() {
	s.active = false
	s.input.Blur()
	s.query = ""
	s.matches = 0
}

// Update handles key events when the search bar is active.
// closed: Esc closed the search. committed: Enter kept the query.
func (s *searchBar) Update(msg tea.KeyMsg) (closed bool, committed bool, cmd tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.Close()
		return true, false, nil
	case "enter":
		s.query = s.input.Value()
		s.active = false
		s.input.Blur()
		return false, true, nil
	}

	s.input, cmd = s.input.Update(msg)
	s.query = s.input.Value()
	return false, false, cmd
}

func (s *searchBar) Query() string  { return s.query }
func (s *searchBar) IsActive() bool { return s.active }
func (s *searchBar) HasQuery() bool { return s.query != "" }

// SetMatches updates the match count for display.
func (s *searchBar) SetMatches(n int) { s.matches = n }

// View renders the search bar.
func (s *searchBar) View() string {
	if !s.active && !s.HasQuery() {
		return ""
	}

	var result string
	if s.active {
		result = s.input.View()
	} else {
		result = keyDescStyle.Render("/" + s.query)
	}

	if s.HasQuery() {
		switch {
		case s.matches > 0:
			result += "  " + lipgloss.NewStyle().Foreground(colorGreen).Render(
				fmt.Sprintf("%d %s", s.matches, pluralize(s.matches, "match", "matches")))
		case !s.active:
			result += "  " + lipgloss.NewStyle().Foreground(colorRed).Render("no matches")
		}
	}
	return result
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// HighlightContent returns the content with case-insensitive matches of
// query highlighted, and the number of matches found.
func HighlightContent(content, query string) (string, int) {
	if query == "" {
		return content, 0
	}

	lower := strings.ToLower(content)
	lowerQuery := strings.ToLower(query)

	count := strings.Count(lower, lowerQuery)
	if count == 0 || len(lower) != len(content) {
		// Case folding changed byte offsets; report matches without styling.
		return content, count
	}

	highlightStyle := lipgloss.NewStyle().
		Background(colorYellow).
		Foreground(lipgloss.Color("0")).
		Bold(true)

	var result strings.Builder
	remaining := content
	remainingLower := lower

	for {
		idx := strings.Index(remainingLower, lowerQuery)
		if idx < 0 {
			result.WriteString(remaining)
			break
		}
		result.WriteString(remaining[:idx])
		result.WriteString(highlightStyle.Render(remaining[idx : idx+len(lowerQuery)]))

		remaining = remaining[idx+len(lowerQuery):]
		remainingLower = remainingLower[idx+len(lowerQuery):]
	}

	return result.String(), count
}
