// Package status tracks the latest outcome of every step.
package status

import (
	"fmt"
	"sync"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/registry"
)

// Outcome classifies a single execution attempt.
type Outcome string

const (
	Unknown Outcome = "unknown" // not yet run
	Success Outcome = "success" // exited 0
	Failure Outcome = "failure" // exited non-zero
	Fault   Outcome = "fault"   // could not be run at all
)

// Glyph returns the indicator shown next to a step.
func (o Outcome) Glyph() string {
	switch o {
	case Success:
		return "✅"
	case Failure:
		return "❌"
	case Fault:
		return "🚩"
	default:
		return "○"
	}
}

// IsTerminal reports whether o is the result of a completed run.
func (o Outcome) IsTerminal() bool {
	switch o {
	case Success, Failure, Fault:
		return true
	}
	return false
}

func (o Outcome) String() string {
	if o == "" {
		return string(Unknown)
	}
	return string(o)
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(b []byte) error {
	switch v := Outcome(b); v {
	case Unknown, Success, Failure, Fault:
		*o = v
		return nil
	}
	return fmt.Errorf("invalid outcome %q", string(b))
}

// Change describes one status update.
type Change struct {
	Index    int
	Previous Outcome
	Current  Outcome
}

// Counts tallies outcomes across all steps.
type Counts struct {
	Total   int `json:"total"`
	Unknown int `json:"unknown"`
	Success int `json:"success"`
	Failure int `json:"failure"`
	Fault   int `json:"fault"`
}

// Record maps each step index to its latest outcome. Every index in
// [0, Len()) always has an entry; entries are overwritten, never removed.
type Record struct {
	mu       sync.RWMutex
	outcomes []Outcome

	subMu  sync.Mutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn func(Change)
}

// NewRecord returns a record of n steps, all Unknown.
func NewRecord(n int) *Record {
	if n < 0 {
		n = 0
	}
	outcomes := make([]Outcome, n)
	for i := range outcomes {
		outcomes[i] = Unknown
	}
	return &Record{outcomes: outcomes}
}

// Len returns the number of tracked steps.
func (r *Record) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.outcomes)
}

// Get returns the latest outcome of step index.
func (r *Record) Get(index int) (Outcome, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.outcomes) {
		return Unknown, outOfRange(index, len(r.outcomes))
	}
	return r.outcomes[index], nil
}

// Set overwrites the outcome of step index and notifies subscribers.
func (r *Record) Set(index int, o Outcome) error {
	r.mu.Lock()
	if index < 0 || index >= len(r.outcomes) {
		n := len(r.outcomes)
		r.mu.Unlock()
		return outOfRange(index, n)
	}
	prev := r.outcomes[index]
	r.outcomes[index] = o
	r.mu.Unlock()

	r.notify(Change{Index: index, Previous: prev, Current: o})
	return nil
}

// Snapshot returns a copy of all outcomes in index order.
func (r *Record) Snapshot() []Outcome {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// Counts tallies the current outcomes.
func (r *Record) Counts() Counts {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := Counts{Total: len(r.outcomes)}
	for _, o := range r.outcomes {
		switch o {
		case Success:
			c.Success++
		case Failure:
			c.Failure++
		case Fault:
			c.Fault++
		default:
			c.Unknown++
		}
	}
	return c
}

// Subscribe registers fn to be called after every Set, in subscription
// order. Callbacks run on the writer's goroutine, outside the record lock.
// The returned function removes the subscription.
func (r *Record) Subscribe(fn func(Change)) (unsubscribe func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	id := r.nextID
	r.nextID++
	r.subs = append(r.subs, subscription{id: id, fn: fn})

	return func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		for i, s := range r.subs {
			if s.id == id {
				r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
				return
			}
		}
	}
}

func (r *Record) notify(c Change) {
	r.subMu.Lock()
	subs := make([]subscription, len(r.subs))
	copy(subs, r.subs)
	r.subMu.Unlock()

	for _, s := range subs {
		s.fn(c)
	}
}

func outOfRange(index, n int) error {
	return fmt.Errorf("%w: %d not in [0, %d)", registry.ErrOutOfRange, index, n)
}
