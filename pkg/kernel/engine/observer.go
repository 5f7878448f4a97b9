package engine

import (
	"github.com/ormasoftchile/script-launcher/pkg/kernel/executor"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/registry"
)

// Observer receives execution events. Callbacks run synchronously on the
// goroutine executing the step and must not call back into the engine's
// Execute, Run or RunAll.
type Observer interface {
	RunStarted(total int)
	StepStarted(step registry.Step)
	StepCompleted(res executor.Result)
	RunCompleted(run *RunResult)
}

// ObserverFuncs adapts optional functions to the Observer interface.
type ObserverFuncs struct {
	OnRunStarted    func(total int)
	OnStepStarted   func(step registry.Step)
	OnStepCompleted func(res executor.Result)
	OnRunCompleted  func(run *RunResult)
}

func (f ObserverFuncs) RunStarted(total int) {
	if f.OnRunStarted != nil {
		f.OnRunStarted(total)
	}
}

func (f ObserverFuncs) StepStarted(step registry.Step) {
	if f.OnStepStarted != nil {
		f.OnStepStarted(step)
	}
}

func (f ObserverFuncs) StepCompleted(res executor.Result) {
	if f.OnStepCompleted != nil {
		f.OnStepCompleted(res)
	}
}

func (f ObserverFuncs) RunCompleted(run *RunResult) {
	if f.OnRunCompleted != nil {
		f.OnRunCompleted(run)
	}
}
