package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/executor"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/registry"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/status"
)

// stepInfo holds the display state for a single step.
type stepInfo struct {
	Step    registry.Step
	Outcome status.Outcome
	Last    *executor.Result
}

// stepsPanel renders the scrollable step list.
type stepsPanel struct {
	steps   []stepInfo
	cursor  int // highlighted step
	running int // executing step index, -1 when idle
	width   int
	height  int
	offset  int // scroll offset
}

func newStepsPanel(steps []registry.Step, outcomes []status.Outcome) stepsPanel {
	p := stepsPanel{
		steps:   make([]stepInfo, len(steps)),
		running: -1,
	}
	for i, s := range steps {
		o := status.Unknown
		if i < len(outcomes) {
			o = outcomes[i]
		}
		p.steps[i] = stepInfo{Step: s, Outcome: o}
	}
	return p
}

// SetRunning marks index as the executing step and moves the cursor to it.
func (p *stepsPanel) SetRunning(index int) {
	p.running = index
	if index >= 0 && index < len(p.steps) {
		p.cursor = index
		p.ensureVisible()
	}
}

// SetResult records a completed execution.
func (p *stepsPanel) SetResult(res executor.Result) {
	if res.Index < 0 || res.Index >= len(p.steps) {
		return
	}
	r := res
	p.steps[res.Index].Outcome = res.Outcome
	p.steps[res.Index].Last = &r
	if p.running == res.Index {
		p.running = -1
	}
}

// CursorUp moves the browsing cursor up.
func (p *stepsPanel) CursorUp() {
	if p.cursor > 0 {
		p.cursor--
		p.ensureVisible()
	}
}

// CursorDown moves the browsing cursor down.
func (p *stepsPanel) CursorDown() {
	if p.cursor < len(p.steps)-1 {
		p.cursor++
		p.ensureVisible()
	}
}

// Selected returns the step at the cursor position.
func (p *stepsPanel) Selected() (stepInfo, bool) {
	if p.cursor >= 0 && p.cursor < len(p.steps) {
		return p.steps[p.cursor], true
	}
	return stepInfo{}, false
}

func (p *stepsPanel) ensureVisible() {
	visible := p.visibleRows()
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+visible {
		p.offset = p.cursor - visible + 1
	}
}

func (p *stepsPanel) visibleRows() int {
	visible := p.height - 3 // border and title
	if visible < 1 {
		visible = 1
	}
	return visible
}

// View renders the step list panel. spin is the glyph shown on the running step.
func (p *stepsPanel) View(spin string) string {
	if len(p.steps) == 0 {
		return panelBorder.Width(p.width).Height(p.height).Render("  No steps configured")
	}

	visible := p.visibleRows()
	end := min(p.offset+visible, len(p.steps))

	var lines []string
	for i := p.offset; i < end; i++ {
		step := p.steps[i]

		glyph := step.Outcome.Glyph()
		style := outcomeStyle(step.Outcome)
		if i == p.running {
			glyph = spin
			style = stepCurrent
		}

		line := fmt.Sprintf(" %d. %s %s", step.Step.Index, glyph, step.Step.Label)
		maxW := p.width - 4
		if maxW < 8 {
			maxW = 8
		}
		line = runewidth.Truncate(line, maxW, "…")
		if pad := maxW - runewidth.StringWidth(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}

		if i == p.cursor {
			line = style.Reverse(true).Render(line)
		} else {
			line = style.Render(line)
		}
		lines = append(lines, line)
	}

	for len(lines) < visible {
		lines = append(lines, "")
	}

	title := panelTitle.Render("Steps")
	return panelBorder.Width(p.width).Height(p.height).Render(
		title + "\n" + strings.Join(lines, "\n"),
	)
}

// Counts tallies the displayed outcomes.
func (p *stepsPanel) Counts() status.Counts {
	c := status.Counts{Total: len(p.steps)}
	for _, s := range p.steps {
		switch s.Outcome {
		case status.Success:
			c.Success++
		case status.Failure:
			c.Failure++
		case status.Fault:
			c.Fault++
		default:
			c.Unknown++
		}
	}
	return c
}
