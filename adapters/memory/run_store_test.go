package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"adscope/domain/analysis"
	"adscope/domain/core"
)

func TestRunStoreSaveAndGet(t *testing.T) {
	store := NewRunStore()
	run := analysis.NewContext("q")
	run.State = analysis.StateCompiled

	assert.NoError(t, store.SaveRun(context.Background(), run))

	got, err := store.GetRun(context.Background(), run.RunID)
	assert.NoError(t, err)
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, analysis.StateCompiled, got.State)
}

func TestRunStoreGetMissing(t *testing.T) {
	store := NewRunStore()
	_, err := store.GetRun(context.Background(), core.RunID("nope"))
	assert.Error(t, err)
}

func TestRunStoreListNewestFirstAndLimited(t *testing.T) {
	store := NewRunStore()

	old := analysis.NewContext("old")
	old.StartedAt = core.NewTimestamp(time.Now().Add(-time.Hour))
	mid := analysis.NewContext("mid")
	mid.StartedAt = core.NewTimestamp(time.Now().Add(-time.Minute))
	recent := analysis.NewContext("recent")

	for _, run := range []*analysis.Context{old, recent, mid} {
		assert.NoError(t, store.SaveRun(context.Background(), run))
	}

	runs, err := store.ListRuns(context.Background(), 2)
	assert.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.Equal(t, "recent", runs[0].Query)
	assert.Equal(t, "mid", runs[1].Query)
}
