// Package report renders headless output: the per-step batch log, project
// banners and step tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/engine"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/executor"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/registry"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/status"
	"github.com/ormasoftchile/script-launcher/pkg/logging"
)

// Project describes what a session was opened for.
type Project struct {
	Name        string
	Description string
	ConfigPath  string
	Args        []string // command line, echoed at verbose level
	Steps       int
}

// Batch writes each step's result to w as it completes. It implements
// engine.Observer.
type Batch struct {
	mu        sync.Mutex
	w         io.Writer
	verbosity logging.Verbosity
}

var _ engine.Observer = (*Batch)(nil)

// NewBatch creates a batch log writer.
func NewBatch(w io.Writer, v logging.Verbosity) *Batch {
	return &Batch{w: w, verbosity: v}
}

// RunStarted implements engine.Observer.
func (b *Batch) RunStarted(total int) {}

// StepStarted implements engine.Observer.
func (b *Batch) StepStarted(step registry.Step) {
	b.printf("Running: %s\n", step.Label)
	if b.verbosity >= logging.Verbose {
		b.printf("Executing: %s\n", step.Command)
	}
}

// StepCompleted implements engine.Observer.
func (b *Batch) StepCompleted(res executor.Result) {
	b.printf("%s\n", FormatResult(res))
}

// RunCompleted implements engine.Observer.
func (b *Batch) RunCompleted(run *engine.RunResult) {
	if run.Err != nil {
		b.printf("%s %v\n\n", warnStyle.Render("!"), run.Err)
	}
}

func (b *Batch) printf(format string, a ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.w, format, a...)
}

// FormatResult renders one result the way the batch log and the interactive
// output panes show it.
func FormatResult(res executor.Result) string {
	switch res.Outcome {
	case status.Success:
		return fmt.Sprintf("Result:\n%s\n%s Success\n", res.Stdout, status.Success.Glyph())
	case status.Failure:
		return fmt.Sprintf("%s\n%s ERROR\n", res.Stderr, status.Failure.Glyph())
	case status.Fault:
		return fmt.Sprintf("%s Error: %s\n", status.Fault.Glyph(), res.Message)
	default:
		return ""
	}
}

// Banner writes the session header shown before a headless run.
func Banner(w io.Writer, p Project, v logging.Verbosity) {
	if v < logging.Normal {
		return
	}
	fmt.Fprintln(w, "Running headless")
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Using JSON file:"), p.ConfigPath)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Project name:"), p.Name)
	fmt.Fprintf(w, "%s %s\n\n", labelStyle.Render("Project description:"), p.Description)
	if v >= logging.Verbose {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Command line arguments:"), strings.Join(p.Args, " "))
		fmt.Fprintf(w, "Immediately executing all %d scripts\n\n", p.Steps)
	}
}

// Summary writes the per-step outcome table and totals after a batch.
func Summary(w io.Writer, steps []registry.Step, outcomes []status.Outcome, run *engine.RunResult) {
	fmt.Fprintln(w, StepsTable(steps, outcomes))
	c := run.Counts()
	line := fmt.Sprintf("%d attempted, %s, %s, %s in %s",
		c.Total,
		successStyle.Render(strconv.Itoa(c.Success)+" succeeded"),
		errorStyle.Render(strconv.Itoa(c.Failure)+" failed"),
		warnStyle.Render(strconv.Itoa(c.Fault)+" faulted"),
		run.Duration.Round(time.Millisecond),
	)
	fmt.Fprintln(w, line)
}

// StepsTable renders the registry as a table. outcomes may be nil, in which
// case the status column is omitted.
func StepsTable(steps []registry.Step, outcomes []status.Outcome) string {
	headers := []string{"#", "LABEL", "COMMAND"}
	if outcomes != nil {
		headers = append(headers, "STATUS")
	}
	rows := make([][]string, 0, len(steps))
	for _, s := range steps {
		row := []string{strconv.Itoa(s.Index), s.Label, s.Command}
		if outcomes != nil {
			o := status.Unknown
			if s.Index < len(outcomes) {
				o = outcomes[s.Index]
			}
			row = append(row, o.Glyph()+" "+o.String())
		}
		rows = append(rows, row)
	}
	return Table(headers, rows)
}

// DumpSteps writes the configured steps as indented JSON with sorted keys.
func DumpSteps(w io.Writer, steps []registry.Step) error {
	fmt.Fprintln(w, "These steps are configured for execution:")
	return WriteStepsJSON(w, steps)
}

// WriteStepsJSON writes steps as a JSON array of {"cmd", "label"} objects.
func WriteStepsJSON(w io.Writer, steps []registry.Step) error {
	out := make([]map[string]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, map[string]string{"label": s.Label, "cmd": s.Command})
	}
	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// Done writes the closing line of a verbose session.
func Done(w io.Writer, v logging.Verbosity) {
	if v >= logging.Verbose {
		fmt.Fprintf(w, "%s Successful execution\n", status.Success.Glyph())
	}
}
