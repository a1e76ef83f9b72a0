package batchrun

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile-extract-go/pkg/batch"
	"profile-extract-go/pkg/models"
)

func newState(t *testing.T, inputs ...string) (*RunState, []models.Item) {
	t.Helper()
	b, err := batch.FromInputs(models.ModeInteractive, 5, inputs)
	require.NoError(t, err)
	snap := b.Snapshot()
	return NewRunState(snap), snap.Items
}

func TestRunState_StageTimingAndActive(t *testing.T) {
	s, items := newState(t, "https://github.com/a", "https://github.com/b")
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	s.Apply(batch.Event{Type: batch.EventItemStarted, Index: 0, Item: items[0]}, t0)
	assert.Equal(t, []int{0}, s.Active())
	assert.Equal(t, t0, s.Items[0].StageStarted)

	processing := items[0]
	processing.Status = models.ItemProcessing
	s.Apply(batch.Event{Type: batch.EventItemStage, Index: 0, Item: processing, Step: 1}, t0.Add(time.Second))
	assert.Equal(t, 1, s.Items[0].Step)
	assert.Equal(t, t0.Add(time.Second), s.Items[0].StageStarted)

	// same step again keeps the stage start
	s.Apply(batch.Event{Type: batch.EventItemStage, Index: 0, Item: processing, Step: 1}, t0.Add(2*time.Second))
	assert.Equal(t, t0.Add(time.Second), s.Items[0].StageStarted)

	done := processing
	done.Status = models.ItemCompleted
	s.Apply(batch.Event{
		Type:     batch.EventItemFinished,
		Index:    0,
		Item:     done,
		Step:     4,
		Snapshot: models.BatchSnapshot{CompletedCount: 1, OverallProgress: 50},
	}, t0.Add(3*time.Second))
	assert.Empty(t, s.Active())
	assert.Equal(t, 1, s.Processed())
	assert.False(t, s.Done())
}

func TestRunState_RecentOrder(t *testing.T) {
	s, items := newState(t, "https://a.io", "https://b.io", "https://c.io")
	now := time.Now()

	for _, idx := range []int{2, 0, 1} {
		it := items[idx]
		it.Status = models.ItemFailed
		s.Apply(batch.Event{Type: batch.EventItemFinished, Index: idx, Item: it}, now)
	}

	recent := s.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "https://b.io", recent[0].Item.Input)
	assert.Equal(t, "https://a.io", recent[1].Item.Input)
}

func TestRunState_BatchDoneCopiesResultItems(t *testing.T) {
	s, items := newState(t, "https://a.io")
	skipped := items[0]

	s.Apply(batch.Event{
		Type:  batch.EventBatchDone,
		Index: -1,
		Result: &models.BatchResult{
			Items:        []models.ProcessedItem{{Item: skipped}},
			SkippedCount: 1,
			Cancelled:    true,
		},
		Snapshot: models.BatchSnapshot{Status: models.BatchDone, Cancelled: true},
	}, time.Now())

	assert.True(t, s.Done())
	assert.Equal(t, models.BatchDone, s.Snapshot.Status)
	assert.Equal(t, models.ItemPending, s.Items[0].Item.Status)
}

func TestRunState_IgnoresOutOfRange(t *testing.T) {
	s, items := newState(t, "https://a.io")
	assert.NotPanics(t, func() {
		s.Apply(batch.Event{Type: batch.EventItemStage, Index: 5, Item: items[0]}, time.Now())
	})
}
