package workflow

import (
	"context"

	"guardflow/internal/audit"
	"guardflow/internal/snapshot"
	"guardflow/internal/step"
)

// ActionInfo describes an action offered on a page.
type ActionInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Page is the read-only projection a renderer needs to draw one step.
type Page struct {
	Workflow   string           `json:"workflow"`
	Title      string           `json:"title"`
	Requested  string           `json:"requested,omitempty"`
	Redirected bool             `json:"redirected"`
	Step       step.Step        `json:"step"`
	Position   int              `json:"position"`
	Total      int              `json:"total"`
	CanAdvance bool             `json:"canAdvance"`
	State      any              `json:"state"`
	Actions    []ActionInfo     `json:"actions"`
	Badges     []snapshot.Badge `json:"badges"`
	Notes      []Note           `json:"notes,omitempty"`
	Audit      []audit.Entry    `json:"audit"`
	Steps      []step.Step      `json:"steps"`
}

// Outcome is the type-erased form of [Result].
type Outcome struct {
	Action   string      `json:"action"`
	State    any         `json:"state"`
	Entry    audit.Entry `json:"entry"`
	Next     step.Step   `json:"next"`
	Navigate bool        `json:"navigate"`
}

// Session is a workflow instance with its state type erased.
//
// The CLI and HTTP layers drive every workflow type through this interface.
// Use [Engine.Session] to obtain one.
type Session interface {
	Name() string
	Title() string
	Steps() []step.Step
	ResolveStep(id string) step.Step
	Jump(id string) step.Step
	Page(ctx context.Context, requested string) Page
	Perform(ctx context.Context, actionID string) (Outcome, error)
	Next(ctx context.Context, current string) (step.Step, error)
	Audit(ctx context.Context) []audit.Entry
	Reset(ctx context.Context) error
}

// Page builds the projection of the step requested, redirecting unknown ids to
// the first step.
func (e *Engine[S]) Page(ctx context.Context, requested string) Page {
	cur, redirected := e.steps.Resolve(requested)
	st := e.states.Read(ctx)
	pos, total := e.steps.Progress(cur.ID)

	actions := make([]ActionInfo, 0)
	for _, a := range e.ActionsFor(cur.ID) {
		actions = append(actions, ActionInfo{ID: a.ID, Label: a.Label})
	}

	var notes []Note
	if e.def.Notes != nil {
		notes = e.def.Notes(st, cur.ID)
	}

	return Page{
		Workflow:   e.def.Name,
		Title:      e.def.Title,
		Requested:  requested,
		Redirected: redirected,
		Step:       cur,
		Position:   pos,
		Total:      total,
		CanAdvance: e.def.Guards.CanAdvance(cur.ID, st),
		State:      st,
		Actions:    actions,
		Badges:     e.def.Snapshot.Project(st),
		Notes:      notes,
		Audit:      e.log.Recent(ctx, e.opts.auditLimit),
		Steps:      e.steps.Steps(),
	}
}

// Session returns the type-erased view of e.
func (e *Engine[S]) Session() Session {
	return session[S]{e: e}
}

type session[S any] struct {
	e *Engine[S]
}

func (s session[S]) Name() string                    { return s.e.def.Name }
func (s session[S]) Title() string                   { return s.e.def.Title }
func (s session[S]) Steps() []step.Step              { return s.e.steps.Steps() }
func (s session[S]) ResolveStep(id string) step.Step { return s.e.ResolveStep(id) }
func (s session[S]) Jump(id string) step.Step        { return s.e.Jump(id) }

func (s session[S]) Page(ctx context.Context, requested string) Page {
	return s.e.Page(ctx, requested)
}

func (s session[S]) Perform(ctx context.Context, actionID string) (Outcome, error) {
	res, err := s.e.Perform(ctx, actionID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Action:   res.Action,
		State:    res.State,
		Entry:    res.Entry,
		Next:     res.Next,
		Navigate: res.Navigate,
	}, nil
}

func (s session[S]) Next(ctx context.Context, current string) (step.Step, error) {
	return s.e.Next(ctx, current)
}

func (s session[S]) Audit(ctx context.Context) []audit.Entry {
	return s.e.Audit(ctx)
}

func (s session[S]) Reset(ctx context.Context) error {
	return s.e.Reset(ctx)
}
