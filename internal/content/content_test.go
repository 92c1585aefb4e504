package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardflow/internal/step"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

const validCSV = `workflow,step,title,subtitle
driver,identity,Identité,Vérifier le permis
driver,quote,Devis,
compliance,signoff,Clôture,
driver,quote,,Tarifer la couverture
`

func TestReadFromFile_CSV(t *testing.T) {
	o, err := ReadFromFile(writeFile(t, "content.csv", validCSV))

	require.NoError(t, err)
	require.Len(t, o.Entries, 4)
	assert.Equal(t, Entry{Workflow: "driver", Step: "identity", Title: "Identité", Subtitle: "Vérifier le permis"}, o.Entries[0])
	assert.Equal(t, "", o.Entries[1].Subtitle)
}

func TestReadFromFile_NotFound(t *testing.T) {
	o, err := ReadFromFile(filepath.Join(t.TempDir(), "missing.csv"))

	assert.Error(t, err)
	assert.Nil(t, o)
	assert.Contains(t, err.Error(), "failed to open content")
}

func TestReadFromString_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"empty", "", "failed to read content header"},
		{"missing column", "workflow,title\ndriver,X\n", "missing required column: step"},
		{"empty workflow", "workflow,step\n,identity\n", "content line 2: workflow name is required"},
		{"empty step", "workflow,step\ndriver,\n", "content line 2: step id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := ReadFromString(tt.data)
			require.Error(t, err)
			assert.Nil(t, o)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadFromString_HeaderOnly(t *testing.T) {
	o, err := ReadFromString("workflow,step,title,subtitle\n")
	require.NoError(t, err)
	assert.Empty(t, o.Entries)
	assert.Empty(t, o.For("driver"))
}

func TestReadFromString_TrimsWhitespace(t *testing.T) {
	o, err := ReadFromString("Workflow, Step, Title\n driver, quote, Devis\n")
	require.NoError(t, err)
	assert.Equal(t, Entry{Workflow: "driver", Step: "quote", Title: "Devis"}, o.Entries[0])
}

func TestOverrides_WorkflowsAndFor(t *testing.T) {
	o, err := ReadFromString(validCSV)
	require.NoError(t, err)

	assert.Equal(t, []string{"compliance", "driver"}, o.Workflows())
	assert.True(t, o.HasWorkflow("driver"))
	assert.False(t, o.HasWorkflow("underwriter"))

	text := o.For("driver")
	assert.Equal(t, step.Text{Title: "Identité", Subtitle: "Vérifier le permis"}, text["identity"])
	assert.Equal(t, step.Text{Title: "Devis", Subtitle: "Tarifer la couverture"}, text["quote"], "later rows merge")

	var none *Overrides
	assert.Empty(t, none.For("driver"))
}

func TestOverrides_Apply(t *testing.T) {
	o, err := ReadFromString("workflow,step,title\nreview,check,Vérifier\nreview,ghost,Fantôme\n")
	require.NoError(t, err)

	base := step.NewRegistry(step.Step{ID: "open", Title: "Open"}, step.Step{ID: "check", Title: "Check", Subtitle: "Look"})
	applied, unknown := o.Apply("review", base)

	assert.Equal(t, []string{"ghost"}, unknown)
	check, ok := applied.Lookup("check")
	require.True(t, ok)
	assert.Equal(t, "Vérifier", check.Title)
	assert.Equal(t, "Look", check.Subtitle)

	orig, _ := base.Lookup("check")
	assert.Equal(t, "Check", orig.Title, "base registry is unchanged")
}

func TestReadFromFile_YAML(t *testing.T) {
	data := `workflows:
  driver:
    quote:
      title: Devis
    identity:
      title: Identité
      subtitle: Vérifier le permis
  compliance:
    signoff:
      title: Clôture
`
	o, err := ReadFromFile(writeFile(t, "content.yaml", data))
	require.NoError(t, err)

	require.Len(t, o.Entries, 3)
	assert.Equal(t, "compliance", o.Entries[0].Workflow)
	assert.Equal(t, "identity", o.Entries[1].Step)
	assert.Equal(t, "quote", o.Entries[2].Step)
	assert.Equal(t, step.Text{Title: "Devis"}, o.For("driver")["quote"])
}

func TestReadFromYAML_Invalid(t *testing.T) {
	_, err := ReadFromYAML([]byte("workflows: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse content")
}
