// Package trace implements the append-only, hash-chained JSONL audit trail of
// launcher runs.
package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/engine"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/executor"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/registry"
)

// EventType enumerates trace event types.
type EventType string

const (
	EventSessionStart EventType = "session_start"
	EventRunStart     EventType = "run_start"
	EventRunComplete  EventType = "run_complete"
	EventStepStart    EventType = "step_start"
	EventStepComplete EventType = "step_complete"
)

// genesisHash is the prev_hash of the first event in a stream.
var genesisHash = strings.Repeat("0", 64)

// Event is a single trace event written to the JSONL stream.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	PrevHash  string         `json:"prev_hash"`
	Data      map[string]any `json:"data,omitempty"`
}

// Writer writes trace events to an append-only JSONL stream. It implements
// engine.Observer so it can be attached to an engine directly.
type Writer struct {
	mu       sync.Mutex
	w        io.Writer
	closer   io.Closer
	runID    string
	prevHash string
	err      error // first write error; observers cannot return errors
}

var _ engine.Observer = (*Writer)(nil)

// NewWriter creates a trace writer that writes to the given io.Writer.
func NewWriter(w io.Writer, runID string) *Writer {
	return &Writer{
		w:        w,
		runID:    runID,
		prevHash: genesisHash,
	}
}

// NewFileWriter creates a trace writer that appends to a fresh JSONL file,
// creating parent directories as needed.
func NewFileWriter(path, runID string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create trace dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	tw := NewWriter(f, runID)
	tw.closer = f
	return tw, nil
}

// Close closes the underlying file, if the writer owns one.
func (tw *Writer) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.closer == nil {
		return nil
	}
	err := tw.closer.Close()
	tw.closer = nil
	return err
}

// Err returns the first error encountered while writing events.
func (tw *Writer) Err() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.err
}

// ChainHash returns the hash of the last event written.
func (tw *Writer) ChainHash() string {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.prevHash
}

// Emit writes a single trace event, chaining it to the previous one.
func (tw *Writer) Emit(eventType EventType, data map[string]any) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	evt := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RunID:     tw.runID,
		PrevHash:  tw.prevHash,
		Data:      data,
	}
	line, err := json.Marshal(evt)
	if err != nil {
		return tw.fail(fmt.Errorf("marshal trace event: %w", err))
	}
	sum := sha256.Sum256(line)
	if _, err := tw.w.Write(append(line, '\n')); err != nil {
		return tw.fail(fmt.Errorf("write trace event: %w", err))
	}
	tw.prevHash = hex.EncodeToString(sum[:])
	return nil
}

func (tw *Writer) fail(err error) error {
	if tw.err == nil {
		tw.err = err
	}
	return err
}

// EmitSessionStart records the project a session was opened for.
func (tw *Writer) EmitSessionStart(project, configPath string, steps int) error {
	return tw.Emit(EventSessionStart, map[string]any{
		"project": project,
		"config":  configPath,
		"steps":   steps,
	})
}

// RunStarted implements engine.Observer.
func (tw *Writer) RunStarted(total int) {
	_ = tw.Emit(EventRunStart, map[string]any{"steps": total})
}

// StepStarted implements engine.Observer.
func (tw *Writer) StepStarted(step registry.Step) {
	_ = tw.Emit(EventStepStart, map[string]any{
		"index": step.Index,
		"label": step.Label,
		"cmd":   step.Command,
	})
}

// StepCompleted implements engine.Observer.
func (tw *Writer) StepCompleted(res executor.Result) {
	data := map[string]any{
		"index":    res.Index,
		"label":    res.Label,
		"outcome":  res.Outcome.String(),
		"duration": res.Duration.String(),
		"stdout":   res.Stdout,
		"stderr":   res.Stderr,
	}
	if code, ok := res.Code(); ok {
		data["exit_code"] = code
	}
	if res.Message != "" {
		data["message"] = res.Message
	}
	_ = tw.Emit(EventStepComplete, data)
}

// RunCompleted implements engine.Observer.
func (tw *Writer) RunCompleted(run *engine.RunResult) {
	c := run.Counts()
	data := map[string]any{
		"duration":  run.Duration.String(),
		"attempted": c.Total,
		"success":   c.Success,
		"failure":   c.Failure,
		"fault":     c.Fault,
	}
	if run.Err != nil {
		data["error"] = run.Err.Error()
	}
	data["chain_hash"] = tw.ChainHash()
	_ = tw.Emit(EventRunComplete, data)
}
