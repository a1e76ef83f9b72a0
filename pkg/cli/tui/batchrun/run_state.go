package batchrun

import (
	"time"

	"profile-extract-go/pkg/batch"
	"profile-extract-go/pkg/models"
)

// ItemState is the last known view of one item.
type ItemState struct {
	Item models.Item
	Step int
	// StageStarted is when Step was entered, for the remaining-time estimate.
	StageStarted time.Time
	// Finished orders items by completion for the recent list.
	Finished int
}

// RunState folds coordinator events into what the progress view draws.
type RunState struct {
	Items    []ItemState
	Snapshot models.BatchSnapshot
	Result   *models.BatchResult

	finishedSeq int
}

// NewRunState seeds the state from the batch before it starts.
func NewRunState(snap models.BatchSnapshot) *RunState {
	items := make([]ItemState, len(snap.Items))
	for i, it := range snap.Items {
		items[i] = ItemState{Item: it}
	}
	return &RunState{Items: items, Snapshot: snap}
}

// Apply records ev. Events arrive in emission order, so the snapshot only
// moves forward.
func (s *RunState) Apply(ev batch.Event, now time.Time) {
	s.Snapshot = ev.Snapshot

	if ev.Type == batch.EventBatchDone {
		s.Result = ev.Result
		if ev.Result != nil {
			for i, pi := range ev.Result.Items {
				if i < len(s.Items) {
					s.Items[i].Item = pi.Item
				}
			}
		}
		return
	}

	if ev.Index < 0 || ev.Index >= len(s.Items) {
		return
	}
	st := &s.Items[ev.Index]

	switch ev.Type {
	case batch.EventItemStarted:
		st.Item = ev.Item
		st.Step = 0
		st.StageStarted = now
	case batch.EventItemStage:
		if ev.Step != st.Step {
			st.StageStarted = now
		}
		st.Item = ev.Item
		st.Step = ev.Step
	case batch.EventItemFinished:
		st.Item = ev.Item
		st.Step = ev.Step
		s.finishedSeq++
		st.Finished = s.finishedSeq
	}
}

// Done reports whether the batch finished.
func (s *RunState) Done() bool {
	return s.Result != nil
}

// Active returns the indexes of items being processed, in batch order.
func (s *RunState) Active() []int {
	var out []int
	for i, st := range s.Items {
		if st.Finished == 0 && !st.StageStarted.IsZero() && !isTerminal(st.Item.Status) {
			out = append(out, i)
		}
	}
	return out
}

// Recent returns up to n finished items, most recent first.
func (s *RunState) Recent(n int) []ItemState {
	var out []ItemState
	for seq := s.finishedSeq; seq > 0 && len(out) < n; seq-- {
		for _, st := range s.Items {
			if st.Finished == seq {
				out = append(out, st)
				break
			}
		}
	}
	return out
}

// Processed returns the number of items with a terminal status.
func (s *RunState) Processed() int {
	return s.Snapshot.CompletedCount + s.Snapshot.FailedCount
}

func isTerminal(st models.ItemStatus) bool {
	return st == models.ItemCompleted || st == models.ItemFailed
}
