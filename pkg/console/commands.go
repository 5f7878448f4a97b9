package console

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ormasoftchile/script-launcher/pkg/report"
)

// handleRun executes the steps named by index: run 0 2 3.
func (c *Console) handleRun(ctx context.Context, parts []string) {
	if len(parts) < 2 {
		fmt.Fprintf(c.output, "Usage: run <n> [n...]\n")
		return
	}
	for _, arg := range parts[1:] {
		index, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintf(c.output, "Not a step number: %q\n", arg)
			return
		}
		if _, err := c.eng.Run(ctx, index); err != nil {
			fmt.Fprintf(c.output, "Error: %v\n", err)
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// handleAll executes every step in order.
func (c *Console) handleAll(ctx context.Context) {
	run := c.eng.RunAll(ctx)
	counts := run.Counts()
	fmt.Fprintf(c.output, "%d of %d steps succeeded.\n", counts.Success, c.eng.Registry().Count())
}

// handleStatus shows every step with its latest outcome.
func (c *Console) handleStatus() {
	fmt.Fprintln(c.output, report.StepsTable(c.eng.Registry().Steps(), c.eng.Status().Snapshot()))
}

// handleList shows the configured steps.
func (c *Console) handleList() {
	fmt.Fprintln(c.output, report.StepsTable(c.eng.Registry().Steps(), nil))
}

// handleDump prints the configured steps as JSON.
func (c *Console) handleDump() {
	if err := report.DumpSteps(c.output, c.eng.Registry().Steps()); err != nil {
		fmt.Fprintf(c.output, "Error: %v\n", err)
	}
}

// handleHelp prints available commands.
func (c *Console) handleHelp() {
	fmt.Fprintf(c.output, `Commands:
  run, r <n> [n...]  Execute the step(s) with the given number
  all, a             Execute every step in order
  status, st         Show each step with its latest outcome
  list, ls           List configured steps
  dump, s            Show steps as JSON
  help, ?            Show this help
  quit, q            Exit the console
`)
}
