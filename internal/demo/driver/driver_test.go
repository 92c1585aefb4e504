package driver

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardflow/internal/storage/memory"
	"guardflow/internal/workflow"
)

func openJourney(t *testing.T) *workflow.Engine[State] {
	t.Helper()
	return workflow.Open(Definition(), memory.New(), "test",
		workflow.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestDefinition_IsValid(t *testing.T) {
	require.NoError(t, Definition().Validate())
}

func TestJourney_VerifyThenQuote(t *testing.T) {
	ctx := context.Background()
	e := openJourney(t)

	res, err := e.Perform(ctx, "verify-identity")
	require.NoError(t, err)
	assert.True(t, res.State.Verified)
	assert.Equal(t, "Identity verified", res.Entry.Message)
	require.True(t, res.Navigate)
	assert.Equal(t, StepQuote, res.Next.ID)

	want := Defaults()
	want.Verified = true
	assert.Equal(t, want, res.State, "only the documented field changes")

	res, err = e.Perform(ctx, "generate-quote")
	require.NoError(t, err)
	assert.True(t, res.State.QuoteReady)
	assert.Equal(t, "Quote generated", res.Entry.Message)

	entries := e.Audit(ctx)
	require.Len(t, entries, 2)
	assert.Equal(t, "Quote generated", entries[0].Message)
	assert.Equal(t, "Identity verified", entries[1].Message)
}

func TestJourney_FullRun(t *testing.T) {
	ctx := context.Background()
	e := openJourney(t)

	steps := []struct {
		action   string
		wantStep string
		message  string
	}{
		{"verify-identity", StepQuote, "Identity verified"},
		{"generate-quote", "", "Quote generated"},
		{"activate-policy", StepClaim, "Policy activated"},
		{"submit-claim-theft", StepHandler, "Claim submitted: theft"},
		{"assign-handler", StepSummary, "Handler assigned"},
		{"finish-journey", StepIdentity, "Journey completed"},
	}

	for _, s := range steps {
		res, err := e.Perform(ctx, s.action)
		require.NoError(t, err, s.action)
		assert.Equal(t, s.message, res.Entry.Message)
		if s.wantStep == "" {
			assert.False(t, res.Navigate, s.action)
		} else {
			assert.Equal(t, s.wantStep, res.Next.ID, s.action)
		}
	}

	final := e.State(ctx)
	assert.Equal(t, ClaimTheft, final.ClaimType)
	for _, id := range Steps().Steps() {
		assert.True(t, e.CanAdvance(ctx, id.ID), "guard of %s should hold", id.ID)
	}
	assert.Len(t, e.Audit(ctx), len(steps))
}

func TestJourney_Guards(t *testing.T) {
	g := Definition().Guards
	s := Defaults()

	assert.False(t, g.CanAdvance(StepIdentity, s))
	assert.True(t, g.CanAdvance(StepSummary, s))

	s.Verified = true
	assert.True(t, g.CanAdvance(StepIdentity, s))
	assert.False(t, g.CanAdvance(StepQuote, s))
}

func TestJourney_SnapshotAndNotes(t *testing.T) {
	ctx := context.Background()
	e := openJourney(t)

	_, err := e.Perform(ctx, "submit-claim-glass")
	require.NoError(t, err)

	page := e.Page(ctx, StepHandler)
	require.Len(t, page.Badges, 5)
	assert.Equal(t, "Claim submitted", page.Badges[3].Label)
	assert.True(t, page.Badges[3].Active)
	assert.False(t, page.Badges[0].Active)
	assert.Equal(t, []workflow.Note{{Label: "Claim type", Value: "glass"}}, page.Notes)
}
