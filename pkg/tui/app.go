package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/engine"
	"github.com/ormasoftchile/script-launcher/pkg/logging"
	"github.com/ormasoftchile/script-launcher/pkg/report"
)

const (
	Title    = "Script Launcher"
	Subtitle = "Shell script orchestration in an optional terminal user interface"
)

// --- Tea messages ---

// requestDoneMsg is returned once the engine has served a run request.
type requestDoneMsg struct{ err error }

// batchStartMsg starts the immediate-execution batch.
type batchStartMsg struct{}

// ctxDoneMsg signals that the parent context was canceled.
type ctxDoneMsg struct{}

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlaySummary
)

// Config holds the parameters needed to launch the TUI.
type Config struct {
	Project   report.Project
	Verbosity logging.Verbosity
	Execute   bool     // run every step once on startup
	Args      []string // command line, shown at verbose level
	TracePath string

	ProgramOptions []tea.ProgramOption
}

// Model is the top-level Bubble Tea model for the TUI.
type Model struct {
	// Components
	steps   stepsPanel
	output  outputPanel
	detail  detailBar
	spinner spinner.Model
	search  searchBar
	summary summaryOverlay
	overlay overlayKind

	eng      *engine.Engine
	events   *Events
	ctx      context.Context
	cancel   context.CancelFunc
	inflight *sync.Mutex // held by the command serving a run request
	cfg      Config

	// State
	running bool // a run request is being served
	batch   bool // the request being served is a full batch
	dark    bool

	// Layout
	width  int
	height int
}

// NewModel builds the model. events must be registered as an observer of eng.
func NewModel(ctx context.Context, eng *engine.Engine, events *Events, cfg Config) Model {
	ctx, cancel := context.WithCancel(ctx)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := Model{
		steps:    newStepsPanel(eng.Registry().Steps(), eng.Status().Snapshot()),
		output:   newOutputPanel(),
		detail:   newDetailBar(),
		spinner:  sp,
		search:   newSearchBar(),
		summary:  newSummaryOverlay(),
		eng:      eng,
		events:   events,
		ctx:      ctx,
		cancel:   cancel,
		inflight: &sync.Mutex{},
		cfg:      cfg,
		dark:     true,
	}
	m.summary.SetTraceFile(cfg.TracePath)
	m.output.SetBanner(m.banner())
	return m
}

// Run starts the TUI and blocks until the user quits or ctx is canceled. A
// step still running at exit is canceled and waited for.
func Run(ctx context.Context, eng *engine.Engine, events *Events, cfg Config) error {
	m := NewModel(ctx, eng, events, cfg)
	defer func() {
		events.Close()
		m.cancel()
		// A request still being served sees the cancel and releases the lock.
		m.inflight.Lock()
		m.inflight.Unlock()
	}()

	opts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}, cfg.ProgramOptions...)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// Init returns the initial commands: start spinner, listen for engine events,
// watch the parent context and, in immediate mode, start the batch.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		m.events.next(),
		m.watchContext(),
	}
	if m.cfg.Execute {
		cmds = append(cmds, func() tea.Msg { return batchStartMsg{} })
	}
	return tea.Batch(cmds...)
}

func (m Model) watchContext() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		<-ctx.Done()
		return ctxDoneMsg{}
	}
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.summary.width = msg.Width
		m.summary.height = msg.Height
		m.layoutPanels()
		m.output.SetBanner(m.banner())

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.output.Update(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case batchStartMsg:
		cmds = append(cmds, m.requestBatch())

	case runStartedMsg:
		if m.cfg.Verbosity >= logging.Normal {
			m.output.Appendf("Executing all %d steps\n\n", msg.total)
		}
		cmds = append(cmds, m.events.next())

	case stepStartedMsg:
		m.steps.SetRunning(msg.step.Index)
		if m.cfg.Verbosity >= logging.Normal {
			m.output.Appendf("%s\n%s %s\n",
				detailLabelStyle.Render(fmt.Sprintf("━━━ %d. %s ━━━", msg.step.Index, msg.step.Label)),
				"Executing:", commandStyle.Render(msg.step.Command))
		}
		cmds = append(cmds, m.events.next())

	case stepCompletedMsg:
		m.steps.SetResult(msg.result)
		m.output.Append(report.FormatResult(msg.result) + "\n")
		m.refreshSearch()
		cmds = append(cmds, m.events.next())

	case runCompletedMsg:
		m.summary.Show(msg.run, m.eng.Registry().Count())
		m.overlay = overlaySummary
		cmds = append(cmds, m.events.next())

	case requestDoneMsg:
		m.running = false
		m.batch = false
		if msg.err != nil {
			m.detail.SetNotice("%v", msg.err)
		}

	case ctxDoneMsg:
		return m, tea.Quit
	}

	return m, tea.Batch(cmds...)
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Always allow quit, except while typing a search where q is a character
	if !m.search.IsActive() && key.Matches(msg, keys.Quit) {
		m.cancel()
		return m, tea.Quit
	}

	if m.search.IsActive() {
		closed, _, cmd := m.search.Update(msg)
		if closed {
			m.output.ClearHighlight()
		} else {
			m.refreshSearch()
		}
		return m, cmd
	}

	if msg.String() == "esc" {
		if m.overlay == overlaySummary {
			m.summary.Hide()
			m.overlay = overlayNone
			return m, nil
		}
		if m.search.HasQuery() {
			m.search.Close()
			m.output.ClearHighlight()
			return m, nil
		}
	}

	if m.overlay == overlaySummary {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Run):
		if sel, ok := m.steps.Selected(); ok {
			return m, m.requestStep(sel.Step.Index)
		}

	case key.Matches(msg, keys.Digit):
		index, err := strconv.Atoi(msg.String())
		if err == nil {
			return m, m.requestStep(index)
		}

	case key.Matches(msg, keys.RunAll):
		return m, m.requestBatch()

	case key.Matches(msg, keys.Up):
		m.steps.CursorUp()

	case key.Matches(msg, keys.Down):
		m.steps.CursorDown()

	case key.Matches(msg, keys.PgUp):
		m.output.PageUp()

	case key.Matches(msg, keys.PgDown):
		m.output.PageDown()

	case key.Matches(msg, keys.Dump):
		var b strings.Builder
		if err := report.DumpSteps(&b, m.eng.Registry().Steps()); err != nil {
			m.detail.SetNotice("dump steps: %v", err)
		}
		m.output.Append(b.String() + "\n")

	case key.Matches(msg, keys.Dark):
		m.dark = !m.dark
		lipgloss.SetHasDarkBackground(m.dark)
		m.output.SetBanner(m.banner())

	case key.Matches(msg, keys.Search):
		m.search.Open()
	}

	return m, nil
}

// refuse reports whether a run request must be turned down because another
// is being served, and tells the user why.
func (m *Model) refuse() bool {
	if !m.running {
		return false
	}
	if m.batch {
		m.detail.SetNotice("Batch in progress: run requests are disabled until it finishes")
	} else {
		m.detail.SetNotice("A step is still running: request ignored")
	}
	return true
}

// requestStep dispatches one step to the engine off the UI goroutine.
func (m *Model) requestStep(index int) tea.Cmd {
	if m.refuse() {
		return nil
	}
	if index < 0 || index >= m.eng.Registry().Count() {
		m.detail.SetNotice("No step %d", index)
		return nil
	}
	m.running = true
	m.detail.Clear()

	eng, ctx, inflight := m.eng, m.ctx, m.inflight
	return func() tea.Msg {
		inflight.Lock()
		defer inflight.Unlock()
		if err := ctx.Err(); err != nil {
			return requestDoneMsg{err: err}
		}
		_, err := eng.Run(ctx, index)
		return requestDoneMsg{err: err}
	}
}

// requestBatch dispatches a full pass over every step.
func (m *Model) requestBatch() tea.Cmd {
	if m.refuse() {
		return nil
	}
	m.running = true
	m.batch = true
	m.detail.Clear()

	eng, ctx, inflight := m.eng, m.ctx, m.inflight
	return func() tea.Msg {
		inflight.Lock()
		defer inflight.Unlock()
		if err := ctx.Err(); err != nil {
			return requestDoneMsg{err: err}
		}
		eng.RunAll(ctx)
		return requestDoneMsg{}
	}
}

func (m *Model) refreshSearch() {
	if m.search.HasQuery() {
		m.search.SetMatches(m.output.SetHighlight(m.search.Query()))
	}
}

// banner renders the welcome text shown above the session log.
func (m Model) banner() string {
	if m.cfg.Verbosity < logging.Normal {
		return ""
	}
	p := m.cfg.Project
	var b strings.Builder
	fmt.Fprintf(&b, "Welcome to %s. %d scripts are available for execution.\n\n", Title, m.eng.Registry().Count())
	fmt.Fprintf(&b, "%s %s\n", detailLabelStyle.Render("Project name:"), p.Name)
	fmt.Fprintf(&b, "%s\n%s\n", detailLabelStyle.Render("Project description:"),
		renderMarkdown(p.Description, m.output.width-6, m.dark))
	if m.cfg.Verbosity >= logging.Verbose {
		fmt.Fprintf(&b, "\n%s %s\n", detailLabelStyle.Render("Using JSON file:"), p.ConfigPath)
		fmt.Fprintf(&b, "%s %s\n", detailLabelStyle.Render("Command line arguments:"), strings.Join(m.cfg.Args, " "))
	}
	return b.String()
}

// layoutPanels recalculates panel dimensions based on terminal size.
func (m *Model) layoutPanels() {
	if m.width == 0 || m.height == 0 {
		return
	}

	// header(1) + main panels + detail bar
	headerH := 1
	detailH := 9
	mainH := max(m.height-headerH-detailH, 4)

	// Steps panel: 30% width, minimum 25, maximum 45
	stepsW := min(max(m.width*30/100, 25), 45)
	outputW := max(m.width-stepsW, 10)

	m.steps.width = stepsW
	m.steps.height = mainH
	m.output.SetSize(outputW, mainH)
	m.detail.width = m.width
}

// View renders the complete TUI.
func (m Model) View() string {
	if m.overlay == overlaySummary {
		return m.summary.View()
	}

	header := m.renderHeader()

	var main string
	if m.width > 0 {
		main = lipgloss.JoinHorizontal(lipgloss.Top, m.steps.View(m.spinner.View()), m.output.View())
	}

	sel, ok := m.steps.Selected()
	result := header + "\n" + main
	if searchView := m.search.View(); searchView != "" {
		result += "\n" + searchView
	}
	result += "\n" + m.detail.View(sel, ok, m.running, m.overlay)
	return result
}

// renderHeader builds the top header line.
func (m Model) renderHeader() string {
	left := headerStyle.Render(Title)
	if name := m.cfg.Project.Name; name != "" {
		left += " " + projectBadgeStyle.Render(name)
	}
	left += "  " + subtitleStyle.Render(Subtitle)

	var state string
	switch {
	case m.batch:
		state = m.spinner.View() + statusRunningStyle.Render(" batch running")
	case m.running:
		state = m.spinner.View() + statusRunningStyle.Render(" executing")
	default:
		c := m.steps.Counts()
		state = fmt.Sprintf("%s %s %s %d",
			summaryPassedStyle.Render(fmt.Sprintf("✅%d", c.Success)),
			summaryFailedStyle.Render(fmt.Sprintf("❌%d", c.Failure)),
			summaryFailedStyle.Render(fmt.Sprintf("🚩%d", c.Fault)),
			c.Total)
	}

	padding := max(m.width-lipgloss.Width(left)-lipgloss.Width(state)-2, 1)
	return left + strings.Repeat(" ", padding) + state
}
