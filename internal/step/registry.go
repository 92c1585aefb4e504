// Package step provides the ordered step registry of a guarded workflow.
//
// A [Registry] is the immutable, ordered list of steps a workflow walks through.
// The order defines both the default "Next" path and the numeric progress
// indicator shown to the user (position / total).
//
// Key types:
//   - [Step] - One named stage with display text
//   - [Registry] - Ordered, immutable step sequence with lookup helpers
//
// Callers never surface an unknown step id as an error: [Registry.Resolve]
// maps unknown or empty ids to [Registry.First].
package step

import (
	"fmt"
)

// Step is one stage in a workflow sequence.
type Step struct {
	// ID is the stable identifier used in routes and guard tables.
	ID string `json:"id" yaml:"id"`

	// Title is the human-readable heading of the step.
	Title string `json:"title" yaml:"title"`

	// Subtitle is a one-line description shown under the title.
	Subtitle string `json:"subtitle" yaml:"subtitle"`
}

// Text holds replaceable display text for a step.
type Text struct {
	Title    string
	Subtitle string
}

// Registry is an ordered, immutable list of steps.
//
// Create with [NewRegistry]. The zero value is not usable.
type Registry struct {
	steps []Step

	// index maps step id → position in steps.
	index map[string]int
}

// NewRegistry creates a [Registry] from the given steps in order.
//
// Registries are static program data, so an empty list, an empty id or a
// duplicate id panics rather than returning an error.
func NewRegistry(steps ...Step) *Registry {
	if len(steps) == 0 {
		panic("step: registry requires at least one step")
	}

	r := &Registry{
		steps: make([]Step, len(steps)),
		index: make(map[string]int, len(steps)),
	}
	for i, s := range steps {
		if s.ID == "" {
			panic(fmt.Sprintf("step: step at position %d has an empty id", i))
		}
		if _, dup := r.index[s.ID]; dup {
			panic(fmt.Sprintf("step: duplicate step id %q", s.ID))
		}
		r.steps[i] = s
		r.index[s.ID] = i
	}
	return r
}

// Steps returns a copy of the ordered step list.
func (r *Registry) Steps() []Step {
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Len returns the number of steps.
func (r *Registry) Len() int {
	return len(r.steps)
}

// First returns the entry step.
func (r *Registry) First() Step {
	return r.steps[0]
}

// IndexOf returns the zero-based position of id, or false if it is not registered.
func (r *Registry) IndexOf(id string) (int, bool) {
	i, ok := r.index[id]
	return i, ok
}

// Lookup returns the step registered under id.
func (r *Registry) Lookup(id string) (Step, bool) {
	i, ok := r.index[id]
	if !ok {
		return Step{}, false
	}
	return r.steps[i], true
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Resolve returns the step for id, or [Registry.First] when id is empty or unknown.
//
// The boolean reports whether the request was redirected.
func (r *Registry) Resolve(id string) (Step, bool) {
	if s, ok := r.Lookup(id); ok {
		return s, false
	}
	return r.First(), true
}

// After returns the step following id on the default path.
//
// Returns false when id is the last step or is not registered.
func (r *Registry) After(id string) (Step, bool) {
	i, ok := r.IndexOf(id)
	if !ok || i+1 >= len(r.steps) {
		return Step{}, false
	}
	return r.steps[i+1], true
}

// Progress returns the 1-based position of id and the total step count.
//
// Unknown ids report the position of the first step, matching [Registry.Resolve].
func (r *Registry) Progress(id string) (position, total int) {
	i, ok := r.IndexOf(id)
	if !ok {
		i = 0
	}
	return i + 1, len(r.steps)
}

// WithText returns a new registry with display text replaced for the given ids.
//
// Ids not present in the registry are ignored; empty fields keep the existing text.
// Step order and ids never change.
func (r *Registry) WithText(text map[string]Text) *Registry {
	steps := r.Steps()
	for i, s := range steps {
		t, ok := text[s.ID]
		if !ok {
			continue
		}
		if t.Title != "" {
			steps[i].Title = t.Title
		}
		if t.Subtitle != "" {
			steps[i].Subtitle = t.Subtitle
		}
	}
	return NewRegistry(steps...)
}
