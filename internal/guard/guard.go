// Package guard evaluates per-step advancement predicates.
//
// Guards are advisory: they decide whether the forward action on a step is
// enabled. They are not an access-control boundary, and administrative jumps
// bypass them entirely.
package guard

// Predicate reports whether forward navigation is permitted for a state.
type Predicate[S any] func(S) bool

// Table maps step ids to their predicates.
type Table[S any] map[string]Predicate[S]

// CanAdvance evaluates the predicate for stepID against s.
//
// Steps without a predicate have no prerequisite and always advance.
func (t Table[S]) CanAdvance(stepID string, s S) bool {
	p, ok := t[stepID]
	if !ok || p == nil {
		return true
	}
	return p(s)
}

// Always is the predicate of a step without prerequisites.
func Always[S any]() Predicate[S] {
	return func(S) bool { return true }
}

// Any holds when at least one predicate holds. An empty list never holds.
func Any[S any](preds ...Predicate[S]) Predicate[S] {
	return func(s S) bool {
		for _, p := range preds {
			if p(s) {
				return true
			}
		}
		return false
	}
}
