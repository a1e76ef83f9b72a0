package models

import (
	"time"

	"github.com/google/uuid"
)

// BatchStatus is the lifecycle state of a Batch: idle -> running -> done.
type BatchStatus string

const (
	BatchIdle    BatchStatus = "idle"
	BatchRunning BatchStatus = "running"
	BatchDone    BatchStatus = "done"
)

// Mode selects the item bound of a batch.
type Mode string

const (
	ModeInteractive Mode = "interactive"
	ModeBulk        Mode = "bulk"
)

// Item bounds per mode.
const (
	InteractiveMaxItems = 5
	BulkMaxItems        = 1000
)

// MaxItems returns the item bound for m. Unknown modes get the interactive bound.
func (m Mode) MaxItems() int {
	if m == ModeBulk {
		return BulkMaxItems
	}
	return InteractiveMaxItems
}

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	return m == ModeInteractive || m == ModeBulk
}

// BatchSnapshot is a read-only copy of a batch handed to presentation layers.
type BatchSnapshot struct {
	ID              uuid.UUID   `json:"id"`
	Mode            Mode        `json:"mode"`
	Status          BatchStatus `json:"status"`
	MaxItems        int         `json:"max_items"`
	Items           []Item      `json:"items"`
	OverallProgress float64     `json:"overall_progress"`
	CompletedCount  int         `json:"completed_count"`
	FailedCount     int         `json:"failed_count"`
	Cancelled       bool        `json:"cancelled"`
	CreatedAt       time.Time   `json:"created_at"`
	StartedAt       *time.Time  `json:"started_at,omitempty"`
	FinishedAt      *time.Time  `json:"finished_at,omitempty"`
}

// BatchResult is the terminal outcome of a batch run. Items are in insertion order.
type BatchResult struct {
	BatchID        uuid.UUID                      `json:"batch_id"`
	Items          []ProcessedItem                `json:"items"`
	Total          int                            `json:"total"`
	ProcessedCount int                            `json:"processed_count"`
	SuccessCount   int                            `json:"success_count"`
	ErrorCount     int                            `json:"error_count"`
	SkippedCount   int                            `json:"skipped_count"`
	SuccessRate    float64                        `json:"success_rate"` // fraction of processed items, 0..1
	AvgConfidence  float64                        `json:"avg_confidence"`
	AvgDurationMS  int64                          `json:"avg_duration_ms"` // mean over processed items
	Categories     map[SourceCategory]int         `json:"categories,omitempty"`
	Sources        map[SourceCategory]SourceStats `json:"sources,omitempty"`
	Cancelled      bool                           `json:"cancelled"`
	StartedAt      time.Time                      `json:"started_at"`
	FinishedAt     time.Time                      `json:"finished_at"`
}

// SourceStats counts the processed items of one source category.
type SourceStats struct {
	Processed   int     `json:"processed"`
	Success     int     `json:"success"`
	SuccessRate float64 `json:"success_rate"`
}

// AvgDuration returns the mean processing time of an item.
func (r *BatchResult) AvgDuration() time.Duration {
	return time.Duration(r.AvgDurationMS) * time.Millisecond
}

// Duration returns the wall time of the run.
func (r *BatchResult) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
