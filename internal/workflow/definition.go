// Package workflow provides the guarded step-workflow engine.
//
// A workflow is a [Definition]: an ordered step registry, a complete default
// state record, a guard table, the actions offered on each step and a snapshot
// projector. An [Engine] binds a definition to a state store and an audit log
// and is the only component that mutates state.
//
// Key types:
//   - [Definition] - Static description of one workflow type
//   - [Action] - One user-triggered operation producing a [Transition]
//   - [Engine] - Navigation controller: resolve, perform, jump, next, reset
//   - [Session] - Type-erased view of an engine for the CLI and HTTP layers
//
// Every accepted action writes the state, appends exactly one audit entry and
// optionally navigates, in that order. Unknown or empty step ids resolve to the
// first step. Guards gate the linear "Next" path only; [Engine.Jump] bypasses them.
package workflow

import (
	"errors"
	"fmt"

	"guardflow/internal/guard"
	"guardflow/internal/snapshot"
	"guardflow/internal/step"
)

// Transition is the outcome of applying an action to a state.
type Transition[S any] struct {
	// State is the complete next state record.
	State S

	// Message is the audit message describing the action. Required.
	Message string

	// Next names the step to navigate to. Empty stays on the current step.
	Next string

	// ReturnToEntry navigates back to the workflow's entry step.
	// It takes precedence over Next.
	ReturnToEntry bool
}

// Action is one user-facing operation.
type Action[S any] struct {
	// ID identifies the action within its workflow.
	ID string

	// Label is the button text.
	Label string

	// Step is the step the action is offered on.
	Step string

	// Apply computes the transition. It must be pure.
	Apply func(S) Transition[S]
}

// Note is a labelled line of derived text shown on a step.
type Note struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Definition describes one workflow type.
type Definition[S any] struct {
	// Name is the workflow identifier used in routes and storage keys.
	Name string

	// Title is the human-readable workflow name.
	Title string

	// Steps is the ordered step registry.
	Steps *step.Registry

	// Defaults is the complete default state record.
	Defaults S

	// Guards gate forward navigation per step.
	Guards guard.Table[S]

	// Actions lists every action in display order.
	Actions []Action[S]

	// Snapshot projects the state onto summary badges.
	Snapshot snapshot.Projector[S]

	// Notes derives per-step display text from the state. Optional.
	Notes func(s S, stepID string) []Note
}

// Validate checks that the definition is internally consistent: guards and
// actions reference known steps and action ids are unique.
//
// Transitions are opaque until applied, so their messages and next steps are
// checked by [Engine.Perform] instead.
func (d Definition[S]) Validate() error {
	if d.Name == "" {
		return errors.New("workflow name is required")
	}
	if d.Steps == nil {
		return fmt.Errorf("workflow %s: step registry is required", d.Name)
	}
	for id := range d.Guards {
		if !d.Steps.Has(id) {
			return fmt.Errorf("workflow %s: guard for unknown step %q", d.Name, id)
		}
	}

	seen := make(map[string]bool, len(d.Actions))
	for i, a := range d.Actions {
		if a.ID == "" {
			return fmt.Errorf("workflow %s: action %d has an empty id", d.Name, i)
		}
		if seen[a.ID] {
			return fmt.Errorf("workflow %s: duplicate action id %q", d.Name, a.ID)
		}
		seen[a.ID] = true

		if !d.Steps.Has(a.Step) {
			return fmt.Errorf("workflow %s: action %q offered on unknown step %q", d.Name, a.ID, a.Step)
		}
		if a.Apply == nil {
			return fmt.Errorf("workflow %s: action %q has no transition", d.Name, a.ID)
		}
	}
	return nil
}
