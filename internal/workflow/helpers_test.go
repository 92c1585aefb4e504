package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"guardflow/internal/audit"
	"guardflow/internal/guard"
	"guardflow/internal/snapshot"
	"guardflow/internal/step"
)

// reviewState is a small workflow used across engine tests.
type reviewState struct {
	Opened   bool   `yaml:"opened"`
	Checked  bool   `yaml:"checked"`
	Decision string `yaml:"decision" validate:"oneof=pending approve decline"`
}

func reviewDefinition() Definition[reviewState] {
	return Definition[reviewState]{
		Name:  "review",
		Title: "Review",
		Steps: step.NewRegistry(
			step.Step{ID: "open", Title: "Open"},
			step.Step{ID: "check", Title: "Check"},
			step.Step{ID: "decide", Title: "Decide"},
		),
		Defaults: reviewState{Decision: "pending"},
		Guards: guard.Table[reviewState]{
			"open":   func(s reviewState) bool { return s.Opened },
			"check":  func(s reviewState) bool { return s.Checked },
			"decide": func(s reviewState) bool { return s.Decision != "pending" },
		},
		Actions: []Action[reviewState]{
			{ID: "open-case", Label: "Open case", Step: "open", Apply: func(s reviewState) Transition[reviewState] {
				s.Opened = true
				return Transition[reviewState]{State: s, Message: "Case opened", Next: "check"}
			}},
			{ID: "check-case", Label: "Check case", Step: "check", Apply: func(s reviewState) Transition[reviewState] {
				s.Checked = true
				return Transition[reviewState]{State: s, Message: "Case checked"}
			}},
			{ID: "approve", Label: "Approve", Step: "decide", Apply: func(s reviewState) Transition[reviewState] {
				s.Decision = "approve"
				return Transition[reviewState]{State: s, Message: "Approved", ReturnToEntry: true, Next: "check"}
			}},
			{ID: "noop", Label: "Note", Step: "decide", Apply: func(s reviewState) Transition[reviewState] {
				return Transition[reviewState]{State: s, Message: "Note recorded"}
			}},
			{ID: "bad-next", Label: "Bad", Step: "decide", Apply: func(s reviewState) Transition[reviewState] {
				return Transition[reviewState]{State: s, Message: "Went nowhere", Next: "nowhere"}
			}},
			{ID: "silent", Label: "Silent", Step: "decide", Apply: func(s reviewState) Transition[reviewState] {
				s.Decision = "decline"
				return Transition[reviewState]{State: s}
			}},
			{ID: "corrupt", Label: "Corrupt", Step: "decide", Apply: func(s reviewState) Transition[reviewState] {
				s.Decision = "maybe"
				return Transition[reviewState]{State: s, Message: "Corrupted"}
			}},
		},
		Snapshot: func(s reviewState) []snapshot.Badge {
			return []snapshot.Badge{
				{Label: "Opened", Active: s.Opened},
				{Label: "Checked", Active: s.Checked},
			}
		},
		Notes: func(s reviewState, stepID string) []Note {
			if stepID != "decide" {
				return nil
			}
			return []Note{{Label: "Decision", Value: s.Decision}}
		},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock() func() time.Time {
	current := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Millisecond)
		return current
	}
}

// MockStateStore is an in-memory StateStore that records writes.
type MockStateStore struct {
	Current  reviewState
	Writes   []reviewState
	Resets   int
	WriteErr error
}

func (m *MockStateStore) Read(context.Context) reviewState { return m.Current }

func (m *MockStateStore) Write(_ context.Context, s reviewState) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Writes = append(m.Writes, s)
	m.Current = s
	return nil
}

func (m *MockStateStore) Reset(context.Context) error {
	m.Resets++
	m.Current = reviewState{Decision: "pending"}
	return nil
}

// MockAuditLog records appended messages.
type MockAuditLog struct {
	Messages  []string
	AppendErr error
}

func (m *MockAuditLog) Append(_ context.Context, msg string) (audit.Entry, error) {
	if m.AppendErr != nil {
		return audit.Entry{}, m.AppendErr
	}
	m.Messages = append([]string{msg}, m.Messages...)
	return audit.Entry{Timestamp: int64(len(m.Messages)), Message: msg}, nil
}

func (m *MockAuditLog) Entries(context.Context) []audit.Entry {
	out := make([]audit.Entry, len(m.Messages))
	for i, msg := range m.Messages {
		out[i] = audit.Entry{Message: msg}
	}
	return out
}

func (m *MockAuditLog) Recent(ctx context.Context, n int) []audit.Entry {
	entries := m.Entries(ctx)
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func (m *MockAuditLog) Clear(context.Context) error {
	m.Messages = nil
	return nil
}

var errBackend = errors.New("backend unavailable")
