package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/engine"
)

// summaryOverlay renders the end-of-batch summary view.
type summaryOverlay struct {
	visible bool

	attempted int
	total     int
	success   int
	failure   int
	fault     int
	duration  time.Duration
	err       string

	traceFile string

	width  int
	height int
}

func newSummaryOverlay() summaryOverlay {
	return summaryOverlay{}
}

// Show populates and displays the summary for a finished batch over total steps.
func (s *summaryOverlay) Show(run *engine.RunResult, total int) {
	c := run.Counts()
	s.visible = true
	s.attempted = c.Total
	s.total = total
	s.success = c.Success
	s.failure = c.Failure
	s.fault = c.Fault
	s.duration = run.Duration
	s.err = ""
	if run.Err != nil {
		s.err = run.Err.Error()
	}
}

// SetTraceFile sets the trace file path shown in the summary.
func (s *summaryOverlay) SetTraceFile(path string) {
	s.traceFile = path
}

// Hide closes the summary overlay.
func (s *summaryOverlay) Hide() {
	s.visible = false
}

// View renders the summary overlay.
func (s *summaryOverlay) View() string {
	if !s.visible {
		return ""
	}

	contentW := max(s.width-8, 50)

	var b strings.Builder

	b.WriteString(summaryTitleStyle.Render("Batch Complete"))
	b.WriteString("\n\n")

	statsLine := fmt.Sprintf("%d of %d attempted", s.attempted, s.total)
	if s.success > 0 {
		statsLine += ", " + summaryPassedStyle.Render(fmt.Sprintf("✅ %d succeeded", s.success))
	}
	if s.failure > 0 {
		statsLine += ", " + summaryFailedStyle.Render(fmt.Sprintf("❌ %d failed", s.failure))
	}
	if s.fault > 0 {
		statsLine += ", " + summaryFailedStyle.Render(fmt.Sprintf("🚩 %d faulted", s.fault))
	}
	b.WriteString(detailLabelStyle.Render("Steps:    ") + statsLine + "\n")
	b.WriteString(detailLabelStyle.Render("Duration: ") + detailValueStyle.Render(formatDuration(s.duration)) + "\n")

	if s.traceFile != "" {
		b.WriteString(detailLabelStyle.Render("Trace:    ") + keyDescStyle.Render(s.traceFile) + "\n")
	}
	if s.err != "" {
		b.WriteString("\n" + errorStyle.Render(s.err) + "\n")
	}

	b.WriteString("\n" + hint("Esc", "close") + "  " + hint("q", "quit"))

	box := overlayBorder.Width(contentW).Render(b.String())
	return lipgloss.Place(s.width, s.height, lipgloss.Center, lipgloss.Center, box)
}

// formatDuration returns a human-friendly duration string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	if m >= 60 {
		return fmt.Sprintf("%dh %dm %ds", m/60, m%60, s)
	}
	return fmt.Sprintf("%dm %ds", m, s)
}
