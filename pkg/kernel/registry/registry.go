// Package registry holds the ordered, immutable list of steps loaded from a
// configuration document.
package registry

import (
	"errors"
	"fmt"
	"iter"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/schema"
)

// ErrOutOfRange is returned when a step index falls outside the registry.
var ErrOutOfRange = errors.New("step index out of range")

// Step is one labeled, shell-interpreted command.
type Step struct {
	Index   int    `json:"index"`
	Label   string `json:"label"`
	Command string `json:"cmd"`
}

// Registry is the ordered sequence of steps. It is never mutated after Load.
type Registry struct {
	steps []Step
}

// Load builds a registry from step definitions, preserving their order.
// A definition without a label or command fails the whole load with a
// *schema.ConfigError. An empty list is valid.
func Load(defs []schema.StepDef) (*Registry, error) {
	var errs []*schema.ValidationError
	steps := make([]Step, 0, len(defs))
	for i, d := range defs {
		if d.Label == "" {
			errs = append(errs, &schema.ValidationError{
				Path:    fmt.Sprintf("steps/%d/label", i),
				Message: "label is required",
			})
		}
		if d.Cmd == "" {
			errs = append(errs, &schema.ValidationError{
				Path:    fmt.Sprintf("steps/%d/cmd", i),
				Message: "cmd is required",
			})
		}
		steps = append(steps, Step{Index: i, Label: d.Label, Command: d.Cmd})
	}
	if len(errs) > 0 {
		return nil, &schema.ConfigError{Errors: errs}
	}
	return &Registry{steps: steps}, nil
}

// FromConfig builds a registry from a loaded configuration.
func FromConfig(cfg *schema.Config) (*Registry, error) {
	return Load(cfg.Steps)
}

// Count returns the number of steps.
func (r *Registry) Count() int {
	return len(r.steps)
}

// Get returns the step at index.
func (r *Registry) Get(index int) (Step, error) {
	if index < 0 || index >= len(r.steps) {
		return Step{}, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, index, len(r.steps))
	}
	return r.steps[index], nil
}

// Contains reports whether s is a step of this registry.
func (r *Registry) Contains(s Step) bool {
	if s.Index < 0 || s.Index >= len(r.steps) {
		return false
	}
	return r.steps[s.Index] == s
}

// All yields the steps in insertion order. The sequence can be ranged over
// any number of times.
func (r *Registry) All() iter.Seq[Step] {
	return func(yield func(Step) bool) {
		for _, s := range r.steps {
			if !yield(s) {
				return
			}
		}
	}
}

// Steps returns a copy of the step list.
func (r *Registry) Steps() []Step {
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}
