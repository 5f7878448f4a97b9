// Package launcher wires a configuration file to the engine and to the
// driver selected on the command line.
package launcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/ormasoftchile/script-launcher/pkg/console"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/engine"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/executor"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/registry"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/schema"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/status"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/trace"
	"github.com/ormasoftchile/script-launcher/pkg/logging"
	"github.com/ormasoftchile/script-launcher/pkg/mcp"
	"github.com/ormasoftchile/script-launcher/pkg/report"
	"github.com/ormasoftchile/script-launcher/pkg/tui"
)

// Mode is the driver a session runs under.
type Mode string

const (
	ModeTUI     Mode = "tui"
	ModeConsole Mode = "console"
	ModeBatch   Mode = "batch"
)

// Options is everything a session needs. The CLI builds one from flags.
type Options struct {
	ConfigPath     string // defaults to schema.DefaultConfigFile
	Execute        bool   // run every step once on startup
	NonInteractive bool   // no presentation layer; implies Execute
	Console        bool   // line-oriented prompt instead of the TUI
	Verbosity      logging.Verbosity
	TracePath      string   // append a JSONL trace when set
	Args           []string // command line, echoed at verbose level

	Executor engine.Executor // nil uses executor.DefaultShell()
	Stdout   io.Writer       // defaults to os.Stdout
	Stderr   io.Writer       // defaults to os.Stderr
}

// Mode returns the driver the options select.
func (o Options) Mode() Mode {
	switch {
	case o.NonInteractive:
		return ModeBatch
	case o.Console:
		return ModeConsole
	default:
		return ModeTUI
	}
}

func (o *Options) setDefaults() {
	if o.ConfigPath == "" {
		o.ConfigPath = schema.DefaultConfigFile
	}
	if o.NonInteractive {
		o.Execute = true
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

// Session is a loaded configuration ready to run.
type Session struct {
	Options  Options
	Config   *schema.Config
	Registry *registry.Registry
}

// Open loads and validates the configuration named by opts. Configuration
// problems are returned as *schema.ConfigError before anything runs.
func Open(opts Options) (*Session, error) {
	opts.setDefaults()

	cfg, err := schema.LoadFile(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	reg, err := registry.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Session{Options: opts, Config: cfg, Registry: reg}, nil
}

// Project describes the session for banners and reports.
func (s *Session) Project() report.Project {
	return report.Project{
		Name:        s.Config.ProjectName,
		Description: s.Config.Description,
		ConfigPath:  s.Options.ConfigPath,
		Args:        s.Options.Args,
		Steps:       s.Registry.Count(),
	}
}

// Run loads the configuration and runs it under the selected driver. Step
// failures are reported, not returned: the error is non-nil only when the
// configuration is unusable, the driver fails, or a batch is canceled.
func Run(ctx context.Context, opts Options) error {
	opts.setDefaults()
	mode := opts.Mode()

	if mode == ModeTUI {
		logging.Discard()
	} else if _, err := logging.Configure(opts.Stderr, opts.Verbosity.Level()); err != nil {
		return err
	}

	s, err := Open(opts)
	if err != nil {
		return err
	}
	slog.Debug("configuration loaded",
		"path", s.Options.ConfigPath,
		"project", s.Config.ProjectName,
		"steps", s.Registry.Count(),
		"mode", mode,
		"args", s.Options.Args)

	return s.Run(ctx)
}

// Run executes the session under its driver.
func (s *Session) Run(ctx context.Context) error {
	observers, done, err := s.observers()
	if err != nil {
		return err
	}
	defer done()

	exec := s.executor()
	switch s.Options.Mode() {
	case ModeBatch:
		return s.runBatch(ctx, exec, observers)
	case ModeConsole:
		return s.runConsole(ctx, exec, observers)
	default:
		return s.runTUI(ctx, exec, observers)
	}
}

// ServeMCP serves the session's steps as MCP tools until ctx is canceled
// or in reaches EOF.
func (s *Session) ServeMCP(ctx context.Context, version string, in io.Reader, out io.Writer) error {
	observers, done, err := s.observers()
	if err != nil {
		return err
	}
	defer done()

	eng := engine.New(s.Registry, engine.Config{Executor: s.executor(), Observers: observers})
	slog.Info("serving MCP over stdio", "project", s.Config.ProjectName, "steps", s.Registry.Count())
	return mcp.NewServer(eng, version).Serve(ctx, in, out)
}

func (s *Session) executor() engine.Executor {
	if s.Options.Executor != nil {
		return s.Options.Executor
	}
	return executor.DefaultShell()
}

// observers returns the observers every driver shares: debug logging and,
// when requested, the trace writer. done flushes and closes the trace.
func (s *Session) observers() ([]engine.Observer, func(), error) {
	opts := s.Options
	observers := []engine.Observer{logObserver()}
	if opts.TracePath == "" {
		return observers, func() {}, nil
	}

	tw, err := trace.NewFileWriter(opts.TracePath, uuid.NewString())
	if err != nil {
		return nil, nil, err
	}
	done := func() {
		if err := tw.Err(); err != nil {
			slog.Warn("trace incomplete", "path", opts.TracePath, "err", err)
		}
		tw.Close()
	}
	if err := tw.EmitSessionStart(s.Config.ProjectName, opts.ConfigPath, s.Registry.Count()); err != nil {
		done()
		return nil, nil, err
	}
	return append(observers, tw), done, nil
}

func (s *Session) runBatch(ctx context.Context, exec engine.Executor, observers []engine.Observer) error {
	opts := s.Options
	report.ConfigureColor(report.IsTerminal(opts.Stdout))

	observers = append(observers, report.NewBatch(opts.Stderr, opts.Verbosity))
	eng := engine.New(s.Registry, engine.Config{Executor: exec, Observers: observers})

	report.Banner(opts.Stdout, s.Project(), opts.Verbosity)
	run := eng.RunAll(ctx)
	if opts.Verbosity >= logging.Normal {
		report.Summary(opts.Stdout, s.Registry.Steps(), eng.Status().Snapshot(), run)
	}
	if run.Err != nil {
		return run.Err
	}
	report.Done(opts.Stdout, opts.Verbosity)
	return nil
}

func (s *Session) runConsole(ctx context.Context, exec engine.Executor, observers []engine.Observer) error {
	opts := s.Options
	report.ConfigureColor(report.IsTerminal(opts.Stdout))

	observers = append(observers, report.NewBatch(opts.Stdout, opts.Verbosity))
	eng := engine.New(s.Registry, engine.Config{Executor: exec, Observers: observers})

	c := console.New(eng, console.Config{
		Project:   s.Project(),
		Verbosity: opts.Verbosity,
		Execute:   opts.Execute,
		Output:    opts.Stdout,
	})
	if err := c.Run(ctx); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	report.Done(opts.Stdout, opts.Verbosity)
	return nil
}

func (s *Session) runTUI(ctx context.Context, exec engine.Executor, observers []engine.Observer) error {
	opts := s.Options
	events := tui.NewEvents()
	observers = append(observers, events)
	eng := engine.New(s.Registry, engine.Config{Executor: exec, Observers: observers})

	if err := tui.Run(ctx, eng, events, tui.Config{
		Project:   s.Project(),
		Verbosity: opts.Verbosity,
		Execute:   opts.Execute,
		Args:      opts.Args,
		TracePath: opts.TracePath,
	}); err != nil {
		return err
	}
	report.Done(opts.Stdout, opts.Verbosity)
	return nil
}

// logObserver records execution at debug level.
func logObserver() engine.Observer {
	return engine.ObserverFuncs{
		OnStepStarted: func(step registry.Step) {
			slog.Debug("step started", "index", step.Index, "label", step.Label)
		},
		OnStepCompleted: func(res executor.Result) {
			attrs := []any{"index", res.Index, "outcome", res.Outcome, "duration", res.Duration}
			if code, ok := res.Code(); ok {
				attrs = append(attrs, "exit_code", code)
			}
			if res.Outcome == status.Fault {
				attrs = append(attrs, "message", res.Message)
			}
			slog.Debug("step completed", attrs...)
		},
		OnRunCompleted: func(run *engine.RunResult) {
			c := run.Counts()
			slog.Debug("batch completed",
				"attempted", c.Total, "success", c.Success, "failure", c.Failure, "fault", c.Fault,
				"duration", run.Duration)
		},
	}
}
