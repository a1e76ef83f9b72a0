package batchrun

// Step constants for the batch run state machine
const (
	StepRunning = iota
	StepCancelling
	StepDone
)

// DefaultWidth is the default terminal width fallback
const DefaultWidth = 80

// MaxActiveShown bounds how many in-flight items get their loading steps
// drawn at once.
const MaxActiveShown = 3

// MaxRecentShown bounds the finished-item list while a run is in progress.
const MaxRecentShown = 8
