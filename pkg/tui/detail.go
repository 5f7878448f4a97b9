package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/status"
)

// detailBar renders the selected step's detail, any notice, and key hints.
type detailBar struct {
	notice string
	width  int
}

func newDetailBar() detailBar {
	return detailBar{}
}

// SetNotice shows a one-line message until the next notice or Clear.
func (d *detailBar) SetNotice(format string, a ...any) {
	d.notice = fmt.Sprintf(format, a...)
}

// Clear removes the notice.
func (d *detailBar) Clear() {
	d.notice = ""
}

// View renders the detail bar for step.
func (d *detailBar) View(step stepInfo, ok, running bool, overlay overlayKind) string {
	var lines []string

	if !ok {
		lines = append(lines, "  No step selected")
	} else {
		sep := detailLabelStyle.Render(" │ ")
		line1 := detailLabelStyle.Render(fmt.Sprintf("Step %d", step.Step.Index)) + sep +
			detailValueStyle.Render(step.Step.Label) + sep +
			outcomeStyle(step.Outcome).Render(step.Outcome.Glyph()+" "+step.Outcome.String())
		lines = append(lines, line1)

		maxW := max(d.width-16, 10)
		cmd := runewidth.Truncate(step.Step.Command, maxW, "…")
		lines = append(lines, detailLabelStyle.Render("  Command: ")+commandStyle.Render(cmd))

		if res := step.Last; res != nil {
			last := fmt.Sprintf("started %s, took %s", res.StartedAt.Format(time.TimeOnly), formatDuration(res.Duration))
			if code, ok := res.Code(); ok {
				last = fmt.Sprintf("exit %d, %s", code, last)
			}
			lines = append(lines, detailLabelStyle.Render("  Last run: ")+detailValueStyle.Render(last))
			if res.Outcome == status.Fault {
				lines = append(lines, "  "+errorStyle.Render("Error: "+res.Message))
			}
		}
	}

	if d.notice != "" {
		lines = append(lines, "  "+noticeStyle.Render(d.notice))
	}

	content := strings.Join(lines, "\n")
	content += "\n\n" + keyBarStyle.Render(keyBarText(running, overlay))

	return detailBarStyle.Width(max(d.width-4, 1)).Render(content)
}
