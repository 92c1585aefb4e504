// Package snapshot derives the labelled progress indicators shown beside a workflow.
//
// Badges are a read-time view of the state record. They are never persisted.
package snapshot

// Badge is one labelled boolean indicator.
type Badge struct {
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// Projector maps a state record to its ordered badges.
type Projector[S any] func(S) []Badge

// Project applies p to s. A nil projector yields no badges.
func (p Projector[S]) Project(s S) []Badge {
	if p == nil {
		return nil
	}
	return p(s)
}

// Count returns the number of active badges.
func Count(badges []Badge) int {
	n := 0
	for _, b := range badges {
		if b.Active {
			n++
		}
	}
	return n
}
