package content

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// contentFile is the raw YAML structure of an override file:
//
//	workflows:
//	  driver:
//	    identity:
//	      title: Identité
//	      subtitle: Vérifier le permis de conduire
//	  compliance:
//	    signoff:
//	      title: Clôture
type contentFile struct {
	Workflows map[string]map[string]struct {
		Title    string `yaml:"title"`
		Subtitle string `yaml:"subtitle"`
	} `yaml:"workflows"`
}

func readYAMLFile(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	return ReadFromYAML(data)
}

// ReadFromYAML parses YAML overrides. Entries are ordered by workflow and
// step id so the result is deterministic.
func ReadFromYAML(data []byte) (*Overrides, error) {
	var raw contentFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}

	var entries []Entry
	for wf, steps := range raw.Workflows {
		for id, text := range steps {
			e := Entry{Workflow: wf, Step: id, Title: text.Title, Subtitle: text.Subtitle}
			if err := e.validate(); err != nil {
				return nil, fmt.Errorf("content %s/%s: %w", wf, id, err)
			}
			entries = append(entries, e)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Workflow != entries[j].Workflow {
			return entries[i].Workflow < entries[j].Workflow
		}
		return entries[i].Step < entries[j].Step
	})

	return &Overrides{Entries: entries}, nil
}
