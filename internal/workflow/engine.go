package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"guardflow/internal/audit"
	"guardflow/internal/logging"
	"guardflow/internal/snapshot"
	"guardflow/internal/state"
	"guardflow/internal/step"
	"guardflow/internal/storage"
)

// Sentinel errors for workflow navigation.
var (
	// ErrUnknownAction indicates the requested action is not defined for the
	// workflow. Nothing is mutated and no audit entry is appended.
	ErrUnknownAction = errors.New("unknown action")

	// ErrMissingMessage indicates an action produced a transition without an
	// audit message. It is a programming error in the workflow definition.
	ErrMissingMessage = errors.New("transition has no audit message")

	// ErrGuardBlocked indicates the forward action of a step is not yet
	// permitted. Callers should present the action as disabled.
	ErrGuardBlocked = errors.New("step prerequisites not met")
)

// DefaultAuditDisplayLimit is the number of audit entries included in a [Page].
const DefaultAuditDisplayLimit = 8

// StateStore is the persistence contract for the state record.
//
// Read never fails and always returns a complete record. Write overwrites.
// Reset restores the defaults for the next Read. The [state.Store] type
// implements this interface.
type StateStore[S any] interface {
	Read(ctx context.Context) S
	Write(ctx context.Context, s S) error
	Reset(ctx context.Context) error
}

// AuditLog is the persistence contract for the audit trail.
//
// The [audit.Log] type implements this interface.
type AuditLog interface {
	Append(ctx context.Context, message string) (audit.Entry, error)
	Entries(ctx context.Context) []audit.Entry
	Recent(ctx context.Context, n int) []audit.Entry
	Clear(ctx context.Context) error
}

// Option configures an [Engine].
type Option func(*options)

type options struct {
	logger     *slog.Logger
	auditLimit int
	conflicts  bool
	now        func() time.Time
	steps      *step.Registry
}

// WithLogger sets the logger for the engine and, with [Open], its stores.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAuditDisplayLimit sets how many audit entries a [Page] includes.
// Zero or less includes the whole log.
func WithAuditDisplayLimit(n int) Option {
	return func(o *options) { o.auditLimit = n }
}

// WithConflictDetection makes state writes opened by [Open] detect concurrent writers.
func WithConflictDetection(enabled bool) Option {
	return func(o *options) { o.conflicts = enabled }
}

// WithClock overrides the audit clock used by [Open].
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithSteps replaces the definition's registry, typically with localized text.
// The replacement must contain the same step ids.
func WithSteps(r *step.Registry) Option {
	return func(o *options) { o.steps = r }
}

// Result is the outcome of an accepted [Engine.Perform].
type Result[S any] struct {
	// Action is the id of the performed action.
	Action string

	// Previous is the state before the action.
	Previous S

	// State is the state written by the action.
	State S

	// Entry is the audit entry appended for the action.
	Entry audit.Entry

	// Next is the step to navigate to. Only meaningful when Navigate is true.
	Next step.Step

	// Navigate reports whether the action requested navigation.
	Navigate bool
}

// Engine is the navigation controller of one workflow instance.
//
// Engine uses dependency injection for testability: a [StateStore] holds the
// state record and an [AuditLog] holds the trail. Use [NewEngine] with
// explicit stores or [Open] to bind a definition to a storage backend.
//
// Perform and Reset are serialized per engine, so each transaction runs to
// completion before the next begins.
type Engine[S any] struct {
	def     Definition[S]
	steps   *step.Registry
	states  StateStore[S]
	log     AuditLog
	actions map[string]Action[S]
	opts    options

	mu sync.Mutex
}

// NewEngine creates an [Engine] for def over the given stores.
//
// Definitions are static program data, so NewEngine panics if def fails
// [Definition.Validate] or a [WithSteps] registry changes the step ids.
func NewEngine[S any](def Definition[S], states StateStore[S], log AuditLog, opts ...Option) *Engine[S] {
	o := applyOptions(opts)
	o.logger = logging.Module(o.logger, "workflow")
	if err := def.Validate(); err != nil {
		panic(err)
	}

	steps := def.Steps
	if o.steps != nil {
		if err := sameSteps(def.Steps, o.steps); err != nil {
			panic(fmt.Errorf("workflow %s: %w", def.Name, err))
		}
		steps = o.steps
	}

	actions := make(map[string]Action[S], len(def.Actions))
	for _, a := range def.Actions {
		actions[a.ID] = a
	}

	return &Engine[S]{
		def:     def,
		steps:   steps,
		states:  states,
		log:     log,
		actions: actions,
		opts:    o,
	}
}

// Open creates an [Engine] whose state and audit log live in backend under the
// keys owned by def.Name within session.
func Open[S any](def Definition[S], backend storage.Backend, session string, opts ...Option) *Engine[S] {
	o := applyOptions(opts)

	stateOpts := []state.Option{state.WithLogger(logging.Module(o.logger, "state"))}
	if o.conflicts {
		stateOpts = append(stateOpts, state.WithConflictDetection())
	}
	states := state.New(backend, storage.Key(session, def.Name, storage.KindState), def.Defaults, stateOpts...)

	auditOpts := []audit.Option{audit.WithLogger(logging.Module(o.logger, "audit"))}
	if o.now != nil {
		auditOpts = append(auditOpts, audit.WithClock(o.now))
	}
	log := audit.NewLog(backend, storage.Key(session, def.Name, storage.KindAudit), auditOpts...)

	return NewEngine[S](def, states, log, opts...)
}

func applyOptions(opts []Option) options {
	o := options{
		logger:     slog.Default(),
		auditLimit: DefaultAuditDisplayLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func sameSteps(a, b *step.Registry) error {
	as, bs := a.Steps(), b.Steps()
	if len(as) != len(bs) {
		return fmt.Errorf("replacement registry has %d steps, want %d", len(bs), len(as))
	}
	for i := range as {
		if as[i].ID != bs[i].ID {
			return fmt.Errorf("replacement step %d is %q, want %q", i, bs[i].ID, as[i].ID)
		}
	}
	return nil
}

// Definition returns the workflow definition.
func (e *Engine[S]) Definition() Definition[S] {
	return e.def
}

// Steps returns the step registry in use.
func (e *Engine[S]) Steps() *step.Registry {
	return e.steps
}

// ResolveStep returns the step for id, or the first step when id is empty or unknown.
//
// This is the single redirect policy of a workflow: an unknown step is never an error.
func (e *Engine[S]) ResolveStep(id string) step.Step {
	s, _ := e.steps.Resolve(id)
	return s
}

// Jump resolves id like [Engine.ResolveStep] without consulting guards.
//
// Jump backs the administrative step panel. It does not touch state or the audit log.
func (e *Engine[S]) Jump(id string) step.Step {
	s, redirected := e.steps.Resolve(id)
	e.opts.logger.Debug("jump", "workflow", e.def.Name, "requested", id, "step", s.ID, "redirected", redirected)
	return s
}

// State returns the current state record.
func (e *Engine[S]) State(ctx context.Context) S {
	return e.states.Read(ctx)
}

// Audit returns the full audit log, most recent first.
func (e *Engine[S]) Audit(ctx context.Context) []audit.Entry {
	return e.log.Entries(ctx)
}

// CanAdvance reports whether the guard of stepID holds for the current state.
func (e *Engine[S]) CanAdvance(ctx context.Context, stepID string) bool {
	return e.def.Guards.CanAdvance(e.ResolveStep(stepID).ID, e.states.Read(ctx))
}

// Badges projects the current state onto the workflow's snapshot badges.
func (e *Engine[S]) Badges(ctx context.Context) []snapshot.Badge {
	return e.def.Snapshot.Project(e.states.Read(ctx))
}

// ActionsFor returns the actions offered on stepID, in definition order.
func (e *Engine[S]) ActionsFor(stepID string) []Action[S] {
	var out []Action[S]
	for _, a := range e.def.Actions {
		if a.Step == stepID {
			out = append(out, a)
		}
	}
	return out
}

// Perform runs one action as a single transaction.
//
// Perform reads the state, applies the action, writes the new state, appends the
// action's audit message and resolves the navigation target, in that order.
// Returns [ErrUnknownAction] for an undefined action. If the audit append fails
// after the state was written, the previous state is restored before returning.
func (e *Engine[S]) Perform(ctx context.Context, actionID string) (Result[S], error) {
	action, ok := e.actions[actionID]
	if !ok {
		return Result[S]{}, fmt.Errorf("%w: %q", ErrUnknownAction, actionID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.states.Read(ctx)
	tr := action.Apply(prev)
	if strings.TrimSpace(tr.Message) == "" {
		return Result[S]{}, fmt.Errorf("%w: action %q", ErrMissingMessage, actionID)
	}

	if err := e.states.Write(ctx, tr.State); err != nil {
		return Result[S]{}, fmt.Errorf("perform %s: %w", actionID, err)
	}

	entry, err := e.log.Append(ctx, tr.Message)
	if err != nil {
		if rbErr := e.states.Write(ctx, prev); rbErr != nil {
			e.opts.logger.Error("state rollback failed", "workflow", e.def.Name, "action", actionID, "error", rbErr)
		}
		return Result[S]{}, fmt.Errorf("perform %s: %w", actionID, err)
	}

	res := Result[S]{
		Action:   actionID,
		Previous: prev,
		State:    tr.State,
		Entry:    entry,
	}
	switch {
	case tr.ReturnToEntry:
		res.Next, res.Navigate = e.steps.First(), true
	case tr.Next != "":
		if !e.steps.Has(tr.Next) {
			e.opts.logger.Warn("action targets unknown step, using first step",
				"workflow", e.def.Name, "action", actionID, "next", tr.Next)
		}
		res.Next, res.Navigate = e.ResolveStep(tr.Next), true
	}

	e.opts.logger.Info("action performed",
		"workflow", e.def.Name,
		"action", actionID,
		"message", entry.Message,
		"next", res.Next.ID,
	)
	return res, nil
}

// Next returns the step after current on the linear path when current's guard holds.
//
// Returns [ErrGuardBlocked] together with the resolved current step otherwise.
// From the final step, Next returns the entry step.
func (e *Engine[S]) Next(ctx context.Context, current string) (step.Step, error) {
	cur := e.ResolveStep(current)
	if !e.def.Guards.CanAdvance(cur.ID, e.states.Read(ctx)) {
		return cur, fmt.Errorf("%w: %s", ErrGuardBlocked, cur.ID)
	}
	if next, ok := e.steps.After(cur.ID); ok {
		return next, nil
	}
	return e.steps.First(), nil
}

// Reset clears the state record and the audit log. Reset is idempotent.
func (e *Engine[S]) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.states.Reset(ctx); err != nil {
		return err
	}
	if err := e.log.Clear(ctx); err != nil {
		return err
	}
	e.opts.logger.Info("workflow reset", "workflow", e.def.Name)
	return nil
}
