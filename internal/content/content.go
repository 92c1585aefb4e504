// Package content reads step-text overrides for the bundled workflows.
//
// Overrides replace the title and subtitle of individual steps, typically to
// localize a workflow. Step ids and order are fixed by the workflow itself.
//
// CSV format:
//
//	workflow,step,title,subtitle
//	driver,identity,Identité,Vérifier le permis de conduire
//	driver,quote,Devis,
//	compliance,signoff,Clôture,
//
// An empty title or subtitle keeps the workflow's own text. A later row for the
// same workflow and step replaces an earlier one.
package content

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"guardflow/internal/step"
)

// Entry is one override row.
type Entry struct {
	// Workflow is the catalog name of the workflow (e.g., "driver").
	Workflow string `yaml:"workflow"`

	// Step is the step id within the workflow.
	Step string `yaml:"step"`

	// Title replaces the step title when non-empty.
	Title string `yaml:"title"`

	// Subtitle replaces the step subtitle when non-empty.
	Subtitle string `yaml:"subtitle"`
}

// Overrides holds all parsed override entries.
type Overrides struct {
	// Entries are the overrides in file order.
	Entries []Entry
}

// ReadFromFile reads an override file. Files ending in .yaml or .yml are
// parsed as YAML, everything else as CSV.
func ReadFromFile(path string) (*Overrides, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return readYAMLFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open content: %w", err)
	}
	return ReadFromString(string(data))
}

// ReadFromString parses CSV overrides from a string.
func ReadFromString(data string) (*Overrides, error) {
	return readFromReader(strings.NewReader(data))
}

func readFromReader(r io.Reader) (*Overrides, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read content header: %w", err)
	}

	colIndex := buildColumnIndex(header)
	if err := validateColumns(colIndex); err != nil {
		return nil, err
	}

	var entries []Entry
	lineNum := 1
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read content line %d: %w", lineNum, err)
		}

		entry := Entry{
			Workflow: getField(record, colIndex, "workflow"),
			Step:     getField(record, colIndex, "step"),
			Title:    getField(record, colIndex, "title"),
			Subtitle: getField(record, colIndex, "subtitle"),
		}
		if err := entry.validate(); err != nil {
			return nil, fmt.Errorf("content line %d: %w", lineNum, err)
		}

		entries = append(entries, entry)
	}

	return &Overrides{Entries: entries}, nil
}

var requiredColumns = []string{"workflow", "step"}

func buildColumnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.ToLower(col))] = i
	}
	return index
}

func validateColumns(colIndex map[string]int) error {
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			return fmt.Errorf("content missing required column: %s", col)
		}
	}
	return nil
}

func getField(record []string, colIndex map[string]int, column string) string {
	idx, ok := colIndex[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func (e Entry) validate() error {
	if e.Workflow == "" {
		return fmt.Errorf("workflow name is required")
	}
	if e.Step == "" {
		return fmt.Errorf("step id is required")
	}
	return nil
}

// Workflows returns the workflow names with overrides, sorted.
func (o *Overrides) Workflows() []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range o.Entries {
		if !seen[e.Workflow] {
			seen[e.Workflow] = true
			names = append(names, e.Workflow)
		}
	}
	sort.Strings(names)
	return names
}

// HasWorkflow returns true if any override targets the workflow.
func (o *Overrides) HasWorkflow(name string) bool {
	for _, e := range o.Entries {
		if e.Workflow == name {
			return true
		}
	}
	return false
}

// For returns the step text overrides of one workflow, keyed by step id.
// A nil receiver yields no overrides.
func (o *Overrides) For(workflow string) map[string]step.Text {
	text := make(map[string]step.Text)
	if o == nil {
		return text
	}
	for _, e := range o.Entries {
		if e.Workflow != workflow {
			continue
		}
		t := text[e.Step]
		if e.Title != "" {
			t.Title = e.Title
		}
		if e.Subtitle != "" {
			t.Subtitle = e.Subtitle
		}
		text[e.Step] = t
	}
	return text
}

// Apply returns r with the workflow's overrides applied.
//
// Overrides naming steps that r does not contain are reported as unknown and
// otherwise ignored.
func (o *Overrides) Apply(workflow string, r *step.Registry) (applied *step.Registry, unknown []string) {
	text := o.For(workflow)
	for id := range text {
		if !r.Has(id) {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	return r.WithText(text), unknown
}
