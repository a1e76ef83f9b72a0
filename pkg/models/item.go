package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus is the processing state of a single Item.
type ItemStatus string

const (
	ItemPending    ItemStatus = "pending"
	ItemProcessing ItemStatus = "processing"
	ItemCompleted  ItemStatus = "completed"
	ItemFailed     ItemStatus = "failed"
)

func (s ItemStatus) rank() int {
	switch s {
	case ItemPending:
		return 0
	case ItemProcessing:
		return 1
	case ItemCompleted, ItemFailed:
		return 2
	default:
		return -1
	}
}

// IsValid reports whether s is a known status.
func (s ItemStatus) IsValid() bool {
	return s.rank() >= 0
}

// IsTerminal reports whether s is Completed or Failed.
func (s ItemStatus) IsTerminal() bool {
	return s == ItemCompleted || s == ItemFailed
}

// CanTransition reports whether moving from s to next keeps the status monotonic.
// Terminal statuses never change, and pending may fail directly when the input
// is rejected before any stage runs.
func (s ItemStatus) CanTransition(next ItemStatus) bool {
	if !s.IsValid() || !next.IsValid() || s.IsTerminal() {
		return false
	}
	return next.rank() > s.rank()
}

// Item is one unit of work: an input URL and its processing outcome.
type Item struct {
	ID             uuid.UUID      `json:"id"`
	Input          string         `json:"input"`
	Status         ItemStatus     `json:"status"`
	SourceCategory SourceCategory `json:"source_category,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
	Confidence     *float64       `json:"confidence,omitempty"`
	Result         *Profile       `json:"result,omitempty"`
	Reason         ErrorKind      `json:"reason,omitempty"`
	Error          string         `json:"error,omitempty"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	FinishedAt     *time.Time     `json:"finished_at,omitempty"`
}

// NewItem creates a pending item for input. The input is not validated here.
func NewItem(input string) Item {
	return Item{
		ID:     uuid.New(),
		Input:  input,
		Status: ItemPending,
	}
}

// Clone returns a deep copy so snapshots never share pointers with live state.
func (i Item) Clone() Item {
	out := i
	if i.Warnings != nil {
		out.Warnings = append([]string(nil), i.Warnings...)
	}
	if i.Confidence != nil {
		c := *i.Confidence
		out.Confidence = &c
	}
	if i.Result != nil {
		r := i.Result.Clone()
		out.Result = &r
	}
	if i.StartedAt != nil {
		t := *i.StartedAt
		out.StartedAt = &t
	}
	if i.FinishedAt != nil {
		t := *i.FinishedAt
		out.FinishedAt = &t
	}
	return out
}

// ProcessedItem is an Item after the processor has driven it to a terminal status.
type ProcessedItem struct {
	Item
	Attempts   int   `json:"attempts"`
	DurationMS int64 `json:"duration_ms"`
}
