// Package demo is the catalog of the bundled insurance workflows.
//
// Each entry binds a workflow definition to a storage backend and returns the
// type-erased [workflow.Session] the CLI and HTTP layers drive.
package demo

import (
	"errors"
	"fmt"

	"guardflow/internal/demo/compliance"
	"guardflow/internal/demo/driver"
	"guardflow/internal/demo/underwriter"
	"guardflow/internal/step"
	"guardflow/internal/storage"
	"guardflow/internal/workflow"
)

// ErrUnknownWorkflow indicates the requested workflow is not in the catalog.
var ErrUnknownWorkflow = errors.New("unknown workflow")

// Info describes one catalog entry.
type Info struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Steps int    `json:"steps"`
}

type entry struct {
	title string
	steps func() *step.Registry
	open  func(backend storage.Backend, session string, opts ...workflow.Option) workflow.Session
}

var entries = map[string]entry{
	driver.Name: {
		title: driver.Definition().Title,
		steps: driver.Steps,
		open: func(b storage.Backend, session string, opts ...workflow.Option) workflow.Session {
			return workflow.Open(driver.Definition(), b, session, opts...).Session()
		},
	},
	underwriter.Name: {
		title: underwriter.Definition().Title,
		steps: underwriter.Steps,
		open: func(b storage.Backend, session string, opts ...workflow.Option) workflow.Session {
			return workflow.Open(underwriter.Definition(), b, session, opts...).Session()
		},
	},
	compliance.Name: {
		title: compliance.Definition().Title,
		steps: compliance.Steps,
		open: func(b storage.Backend, session string, opts ...workflow.Option) workflow.Session {
			return workflow.Open(compliance.Definition(), b, session, opts...).Session()
		},
	},
}

// order is the display order of the catalog.
var order = []string{driver.Name, underwriter.Name, compliance.Name}

// Names returns the workflow names in display order.
func Names() []string {
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// List returns a description of every workflow in display order.
func List() []Info {
	names := Names()
	out := make([]Info, 0, len(names))
	for _, name := range names {
		e := entries[name]
		out = append(out, Info{Name: name, Title: e.title, Steps: e.steps().Len()})
	}
	return out
}

// Steps returns the default step registry of the named workflow.
func Steps(name string) (*step.Registry, error) {
	e, ok := entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWorkflow, name)
	}
	return e.steps(), nil
}

// Open binds the named workflow to backend within session.
//
// Workflows in the same session and backend never share storage keys.
func Open(name string, backend storage.Backend, session string, opts ...workflow.Option) (workflow.Session, error) {
	e, ok := entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWorkflow, name)
	}
	return e.open(backend, session, opts...), nil
}
