package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds all TUI key bindings.
type keyMap struct {
	Run    key.Binding
	Digit  key.Binding
	RunAll key.Binding
	Up     key.Binding
	Down   key.Binding
	PgUp   key.Binding
	PgDown key.Binding
	Dump   key.Binding
	Dark   key.Binding
	Search key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Run: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run selected"),
	),
	Digit: key.NewBinding(
		key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("0-9", "run step"),
	),
	RunAll: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "run all"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "browse up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "browse down"),
	),
	PgUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("PgUp", "scroll up"),
	),
	PgDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("PgDn", "scroll down"),
	),
	Dump: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "show steps"),
	),
	Dark: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "toggle dark mode"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "ctrl+q"),
		key.WithHelp("q", "quit"),
	),
}

func hint(k, desc string) string {
	return keyStyle.Render(k) + keyDescStyle.Render(":"+desc)
}

// keyBarText renders the context-sensitive key hint string.
func keyBarText(running bool, overlay overlayKind) string {
	if overlay == overlaySummary {
		return hint("Esc", "close") + "  " + hint("q", "quit")
	}
	if running {
		return hint("↑↓", "browse") + "  " +
			hint("PgUp/Dn", "scroll") + "  " +
			hint("/", "search") + "  " +
			hint("q", "quit")
	}
	return hint("enter", "run") + "  " +
		hint("0-9", "run #") + "  " +
		hint("a", "run all") + "  " +
		hint("↑↓", "browse") + "  " +
		hint("s", "steps") + "  " +
		hint("d", "dark") + "  " +
		hint("/", "search") + "  " +
		hint("q", "quit")
}
