package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/engine"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/executor"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/registry"
)

// --- Engine event messages ---

type runStartedMsg struct{ total int }

type stepStartedMsg struct{ step registry.Step }

type stepCompletedMsg struct{ result executor.Result }

type runCompletedMsg struct{ run *engine.RunResult }

// Events forwards engine notifications to the TUI as tea messages. Register
// it with the engine before starting the program.
type Events struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
}

var _ engine.Observer = (*Events)(nil)

// NewEvents creates an event bridge.
func NewEvents() *Events {
	return &Events{
		ch:   make(chan tea.Msg, 64),
		done: make(chan struct{}),
	}
}

// Close stops delivery. Pending and future notifications are dropped so the
// engine never blocks on a UI that has exited.
func (e *Events) Close() {
	e.once.Do(func() { close(e.done) })
}

func (e *Events) send(msg tea.Msg) {
	select {
	case e.ch <- msg:
	case <-e.done:
	}
}

func (e *Events) RunStarted(total int) { e.send(runStartedMsg{total}) }
func (e *Events) StepStarted(step registry.Step) { e.send(stepStartedMsg{step}) }
func (e *Events) StepCompleted(res executor.Result) { e.send(stepCompletedMsg{res}) }
func (e *Events) RunCompleted(run *engine.RunResult) { e.send(runCompletedMsg{run}) }

// next returns a command that waits for the next engine event.
func (e *Events) next() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-e.ch:
			return msg
		case <-e.done:
			return nil
		}
	}
}
