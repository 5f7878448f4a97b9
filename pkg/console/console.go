// Package console implements a line-oriented interactive driver: a readline
// prompt where each command runs or inspects steps.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/engine"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/status"
	"github.com/ormasoftchile/script-launcher/pkg/logging"
	"github.com/ormasoftchile/script-launcher/pkg/report"
)

// Config holds the parameters of a console session.
type Config struct {
	Project   report.Project
	Verbosity logging.Verbosity
	Execute   bool      // run every step once before the first prompt
	Output    io.Writer // defaults to os.Stdout
}

// Console is an interactive prompt over an engine.
type Console struct {
	eng    *engine.Engine
	cfg    Config
	output io.Writer

	mu     sync.Mutex
	rl     *readline.Instance
	prompt string
}

// New creates a console for eng. Step results are shown by the observers eng
// was built with, typically a report.Batch writing to the same output.
func New(eng *engine.Engine, cfg Config) *Console {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	c := &Console{eng: eng, cfg: cfg, output: out}
	c.prompt = c.buildPrompt()
	return c
}

var commands = []string{"run", "all", "status", "list", "dump", "help", "quit"}

// Run starts the interactive REPL loop. It returns when the user quits, input
// ends, or ctx is canceled.
func (c *Console) Run(ctx context.Context) error {
	completer := readline.NewPrefixCompleter()
	for _, cmd := range commands {
		completer.Children = append(completer.Children, readline.PcItem(cmd))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          c.Prompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdout:          c.output,
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	c.mu.Lock()
	c.rl = rl
	c.mu.Unlock()
	defer rl.Close()

	unsubscribe := c.watchStatus()
	defer unsubscribe()

	// Readline blocks in a read; closing it on cancel unblocks the loop.
	stop := context.AfterFunc(ctx, func() { rl.Close() })
	defer stop()

	c.greet()
	if c.cfg.Execute {
		c.handleAll(ctx)
	}

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read command: %w", err)
		}
		if c.Dispatch(ctx, line) {
			return nil
		}
	}
}

func (c *Console) greet() {
	if c.cfg.Verbosity < logging.Normal {
		return
	}
	p := c.cfg.Project
	fmt.Fprintf(c.output, "Welcome to Script Launcher. %d scripts are available for execution.\n", c.eng.Registry().Count())
	fmt.Fprintf(c.output, "Project name: %s\n", p.Name)
	fmt.Fprintf(c.output, "Project description: %s\n\n", p.Description)
	if c.cfg.Verbosity >= logging.Verbose {
		fmt.Fprintf(c.output, "Command line arguments: %s\n\n", strings.Join(p.Args, " "))
	}
	fmt.Fprintf(c.output, "Type 'help' for available commands, 'run <n>' to execute a step.\n\n")
}

// watchStatus keeps the prompt counts current as step outcomes change.
func (c *Console) watchStatus() (unsubscribe func()) {
	return c.eng.Status().Subscribe(func(status.Change) {
		p := c.buildPrompt()
		c.mu.Lock()
		defer c.mu.Unlock()
		c.prompt = p
		if c.rl != nil {
			c.rl.SetPrompt(p)
		}
	})
}

// Prompt returns the current prompt text.
func (c *Console) Prompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt
}

// buildPrompt creates the prompt string: script-launcher[ok/total]>
func (c *Console) buildPrompt() string {
	counts := c.eng.Status().Counts()
	return fmt.Sprintf("script-launcher[%d/%d]> ", counts.Success, counts.Total)
}

// Dispatch executes one command line and reports whether the session should end.
func (c *Console) Dispatch(ctx context.Context, line string) (quit bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}

	switch parts[0] {
	case "run", "r":
		c.handleRun(ctx, parts)
	case "all", "a":
		c.handleAll(ctx)
	case "status", "st":
		c.handleStatus()
	case "list", "ls", "l":
		c.handleList()
	case "dump", "s":
		c.handleDump()
	case "help", "?":
		c.handleHelp()
	case "quit", "q", "exit":
		fmt.Fprintf(c.output, "Exiting.\n")
		return true
	default:
		fmt.Fprintf(c.output, "Unknown command: %q. Type 'help' for available commands.\n", parts[0])
	}
	return false
}
