package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjector_Project(t *testing.T) {
	type progress struct{ done, locked bool }

	p := Projector[progress](func(s progress) []Badge {
		return []Badge{
			{Label: "Done", Active: s.done},
			{Label: "Locked", Active: s.locked},
		}
	})

	badges := p.Project(progress{done: true})
	assert.Equal(t, []Badge{{Label: "Done", Active: true}, {Label: "Locked", Active: false}}, badges)
	assert.Equal(t, 1, Count(badges))

	var none Projector[progress]
	assert.Nil(t, none.Project(progress{}))
	assert.Equal(t, 0, Count(nil))
}
