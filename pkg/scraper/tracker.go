package scraper

import "time"

// Tracker is a fixed, ordered list of stages. It holds no progress state;
// callers pass the current step and get a projection back.
type Tracker struct {
	stages []Stage
}

// StageView splits the stages around the current step.
type StageView struct {
	Step    int     `json:"step"`
	Done    []Stage `json:"done"`
	Active  *Stage  `json:"active,omitempty"`
	Pending []Stage `json:"pending"`
}

// Complete reports whether every stage is done.
func (v StageView) Complete() bool {
	return v.Active == nil && len(v.Pending) == 0 && len(v.Done) > 0
}

// NewTracker builds a tracker and assigns 1-based indexes in the given order.
// With no stages it falls back to DefaultStages.
func NewTracker(stages ...Stage) *Tracker {
	if len(stages) == 0 {
		stages = DefaultStages()
	}
	out := make([]Stage, len(stages))
	for i, s := range stages {
		s.Index = i + 1
		out[i] = s
	}
	return &Tracker{stages: out}
}

// DefaultTracker tracks DefaultStages.
func DefaultTracker() *Tracker {
	return NewTracker(DefaultStages()...)
}

// Stages returns a copy of the stage list.
func (t *Tracker) Stages() []Stage {
	return append([]Stage(nil), t.stages...)
}

// Len returns the number of stages.
func (t *Tracker) Len() int {
	return len(t.stages)
}

// TerminalStep is the step value at which every stage is done.
func (t *Tracker) TerminalStep() int {
	return len(t.stages) + 1
}

// Project returns the done/active/pending split for step: stages with an
// index below step are done, the one equal to step is active, the rest pend.
func (t *Tracker) Project(step int) StageView {
	view := StageView{
		Step:    step,
		Done:    []Stage{},
		Pending: []Stage{},
	}
	for _, s := range t.stages {
		switch {
		case s.Index < step:
			view.Done = append(view.Done, s)
		case s.Index == step:
			active := s
			view.Active = &active
		default:
			view.Pending = append(view.Pending, s)
		}
	}
	return view
}

// Remaining estimates the time left at step, given how long the active stage
// has been running.
func (t *Tracker) Remaining(step int, activeElapsed time.Duration) time.Duration {
	var total time.Duration
	for _, s := range t.stages {
		switch {
		case s.Index == step:
			if left := s.Estimate - activeElapsed; left > 0 {
				total += left
			}
		case s.Index > step:
			total += s.Estimate
		}
	}
	return total
}
