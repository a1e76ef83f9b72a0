package batchrun

import "profile-extract-go/pkg/batch"

// EventMsg carries one coordinator event into the program
type EventMsg struct {
	Event batch.Event
}

// StartErrorMsg is emitted when the coordinator rejects the run
type StartErrorMsg struct {
	Err error
}

// CopyDoneMsg is emitted after the results were copied to the clipboard
type CopyDoneMsg struct {
	Rows int
	Err  error
}
