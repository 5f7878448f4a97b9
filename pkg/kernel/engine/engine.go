// Package engine implements the sequential step execution engine: it runs
// steps from a registry one at a time and keeps the status record current.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/executor"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/registry"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/status"
)

// Executor runs a single step. executor.Shell is the default implementation;
// tests substitute canned results.
type Executor interface {
	Execute(ctx context.Context, step registry.Step) executor.Result
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, step registry.Step) executor.Result

func (f ExecutorFunc) Execute(ctx context.Context, step registry.Step) executor.Result {
	return f(ctx, step)
}

// Config configures an engine.
type Config struct {
	Executor  Executor   // nil uses executor.DefaultShell()
	Observers []Observer // notified in order, on the executing goroutine
}

// RunResult aggregates a batch pass.
type RunResult struct {
	Results  []executor.Result // attempted steps, in registry order
	Duration time.Duration
	Err      error // non-nil when the batch was canceled before the last step
}

// Counts tallies the outcomes of the attempted steps.
func (r *RunResult) Counts() status.Counts {
	var c status.Counts
	for _, res := range r.Results {
		c.Total++
		switch res.Outcome {
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

// Engine executes steps and maintains the status projection.
type Engine struct {
	reg       *registry.Registry
	exec      Executor
	observers []Observer
	record    *status.Record

	// runMu is held for the full spawn-and-wait of a step: at most one step
	// is in flight at any instant, whichever driver asked for it.
	runMu sync.Mutex

	lastMu sync.RWMutex
	last   []*executor.Result
}

// New creates an engine over reg. Every step starts as status.Unknown.
func New(reg *registry.Registry, cfg Config) *Engine {
	ex := cfg.Executor
	if ex == nil {
		ex = executor.DefaultShell()
	}
	return &Engine{
		reg:       reg,
		exec:      ex,
		observers: cfg.Observers,
		record:    status.NewRecord(reg.Count()),
		last:      make([]*executor.Result, reg.Count()),
	}
}

// Registry returns the steps the engine runs.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Status returns the live status record.
func (e *Engine) Status() *status.Record {
	return e.record
}

// Last returns the most recent result of step index, if it has run.
func (e *Engine) Last(index int) (executor.Result, bool) {
	e.lastMu.RLock()
	defer e.lastMu.RUnlock()
	if index < 0 || index >= len(e.last) || e.last[index] == nil {
		return executor.Result{}, false
	}
	return *e.last[index], true
}

// Run executes the step at index.
func (e *Engine) Run(ctx context.Context, index int) (executor.Result, error) {
	step, err := e.reg.Get(index)
	if err != nil {
		return executor.Result{}, err
	}
	return e.Execute(ctx, step), nil
}

// Execute runs one step and records its outcome before returning, so a
// caller reading Status() afterwards sees the returned outcome. Calls are
// serialized. A step that does not belong to the registry is not spawned and
// comes back as a Fault.
func (e *Engine) Execute(ctx context.Context, step registry.Step) executor.Result {
	if !e.reg.Contains(step) {
		return executor.NewFault(step, fmt.Sprintf("step %d %q is not part of this registry", step.Index, step.Label))
	}

	e.runMu.Lock()
	defer e.runMu.Unlock()

	for _, o := range e.observers {
		o.StepStarted(step)
	}

	res := e.exec.Execute(ctx, step)
	res.Index = step.Index
	res.Label = step.Label

	e.lastMu.Lock()
	stored := res
	e.last[step.Index] = &stored
	e.lastMu.Unlock()

	// Index is known to be in range: Contains checked it.
	_ = e.record.Set(step.Index, res.Outcome)

	for _, o := range e.observers {
		o.StepCompleted(res)
	}
	return res
}

// RunAll executes every step in registry order, strictly one after another.
// Failures and faults do not stop the batch. Cancellation does: the step in
// flight is recorded as a Fault and later steps are not attempted.
func (e *Engine) RunAll(ctx context.Context) *RunResult {
	start := time.Now()
	for _, o := range e.observers {
		o.RunStarted(e.reg.Count())
	}

	run := &RunResult{Results: make([]executor.Result, 0, e.reg.Count())}
	for step := range e.reg.All() {
		if ctx.Err() != nil {
			break
		}
		run.Results = append(run.Results, e.Execute(ctx, step))
	}
	if ctx.Err() != nil {
		run.Err = fmt.Errorf("batch canceled after %d of %d steps: %w", len(run.Results), e.reg.Count(), context.Cause(ctx))
	}
	run.Duration = time.Since(start)

	for _, o := range e.observers {
		o.RunCompleted(run)
	}
	return run
}
