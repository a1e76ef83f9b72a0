package batch

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"profile-extract-go/pkg/models"
)

var (
	ErrAlreadyRunning   = errors.New("batch is already running")
	ErrFinished         = errors.New("batch has already finished")
	ErrNotFinished      = errors.New("batch has not finished")
	ErrCapacityExceeded = errors.New("batch capacity exceeded")
	ErrFrozen           = errors.New("batch items cannot change after a run starts")
	ErrItemNotFound     = errors.New("item not found")
)

// Batch is an ordered group of items with aggregate tracking. The
// coordinator is the only writer once a run starts; everything else reads
// snapshots.
type Batch struct {
	mu sync.RWMutex

	id       uuid.UUID
	mode     models.Mode
	maxItems int
	status   models.BatchStatus

	items   []models.Item
	results []*models.ProcessedItem

	completed int
	failed    int
	progress  float64
	cancelled bool

	createdAt  time.Time
	startedAt  *time.Time
	finishedAt *time.Time
	result     *models.BatchResult

	cancelOnce sync.Once
	cancelCh   chan struct{}
	done       chan struct{}
}

// New creates an empty idle batch bounded by mode's item limit.
func New(mode models.Mode) *Batch {
	return NewWithLimit(mode, mode.MaxItems())
}

// NewWithLimit creates an empty idle batch with an explicit item bound.
func NewWithLimit(mode models.Mode, maxItems int) *Batch {
	if maxItems <= 0 {
		maxItems = mode.MaxItems()
	}
	return &Batch{
		id:        uuid.New(),
		mode:      mode,
		maxItems:  maxItems,
		status:    models.BatchIdle,
		createdAt: time.Now(),
		cancelCh:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// FromInputs builds a batch from inputs, rejecting lists over the bound
// rather than truncating them.
func FromInputs(mode models.Mode, maxItems int, inputs []string) (*Batch, error) {
	b := NewWithLimit(mode, maxItems)
	if len(inputs) > b.maxItems {
		return nil, fmt.Errorf("%w: %d items, limit %d", ErrCapacityExceeded, len(inputs), b.maxItems)
	}
	for _, in := range inputs {
		b.appendLocked(models.NewItem(in))
	}
	return b, nil
}

func (b *Batch) ID() uuid.UUID     { return b.id }
func (b *Batch) Mode() models.Mode { return b.mode }
func (b *Batch) MaxItems() int     { return b.maxItems }

// Status returns the lifecycle state.
func (b *Batch) Status() models.BatchStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Len returns the number of items.
func (b *Batch) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// Add appends a pending item. Only idle batches accept items.
func (b *Batch) Add(input string) (models.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.status != models.BatchIdle {
		return models.Item{}, ErrFrozen
	}
	if len(b.items) >= b.maxItems {
		return models.Item{}, fmt.Errorf("%w: limit %d", ErrCapacityExceeded, b.maxItems)
	}
	item := models.NewItem(input)
	b.appendLocked(item)
	return item.Clone(), nil
}

func (b *Batch) appendLocked(item models.Item) {
	b.items = append(b.items, item)
	b.results = append(b.results, nil)
}

// Remove deletes a pending item from an idle batch.
func (b *Batch) Remove(id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.status != models.BatchIdle {
		return ErrFrozen
	}
	for i := range b.items {
		if b.items[i].ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			b.results = append(b.results[:i], b.results[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// Cancel raises the cooperative cancel signal. No new items start after it;
// in-flight items run to completion or to their timeout. Safe to call more
// than once and before a run.
func (b *Batch) Cancel() {
	b.cancelOnce.Do(func() {
		b.mu.Lock()
		if b.status != models.BatchDone {
			b.cancelled = true
		}
		b.mu.Unlock()
		close(b.cancelCh)
	})
}

// Cancelled reports whether Cancel was called before the batch finished.
func (b *Batch) Cancelled() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cancelled
}

// Done is closed when the batch reaches BatchDone.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Snapshot returns a deep copy of the current state.
func (b *Batch) Snapshot() models.BatchSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

func (b *Batch) snapshotLocked() models.BatchSnapshot {
	items := make([]models.Item, len(b.items))
	for i, it := range b.items {
		items[i] = it.Clone()
	}
	return models.BatchSnapshot{
		ID:              b.id,
		Mode:            b.mode,
		Status:          b.status,
		MaxItems:        b.maxItems,
		Items:           items,
		OverallProgress: b.progress,
		CompletedCount:  b.completed,
		FailedCount:     b.failed,
		Cancelled:       b.cancelled,
		CreatedAt:       b.createdAt,
		StartedAt:       copyTime(b.startedAt),
		FinishedAt:      copyTime(b.finishedAt),
	}
}

// ResultsSoFar returns the items that reached a terminal status, in
// insertion order.
func (b *Batch) ResultsSoFar() []models.ProcessedItem {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]models.ProcessedItem, 0, b.completed+b.failed)
	for _, r := range b.results {
		if r != nil {
			out = append(out, cloneProcessed(*r))
		}
	}
	return out
}

// Result returns the terminal result once the batch is done.
func (b *Batch) Result() (*models.BatchResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.result == nil {
		return nil, ErrNotFinished
	}
	return cloneResult(b.result), nil
}

// begin moves idle to running and returns the items to dispatch.
func (b *Batch) begin(now time.Time) ([]models.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.status {
	case models.BatchRunning:
		return nil, ErrAlreadyRunning
	case models.BatchDone:
		return nil, ErrFinished
	}
	b.status = models.BatchRunning
	b.startedAt = &now

	items := make([]models.Item, len(b.items))
	for i, it := range b.items {
		items[i] = it.Clone()
	}
	return items, nil
}

func (b *Batch) itemAt(idx int) models.Item {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.items[idx].Clone()
}

// applyUpdate copies an in-flight item state in. Updates for items that
// already reached a terminal status, or that would move the status
// backwards, are dropped.
func (b *Batch) applyUpdate(idx int, item models.Item) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := b.items[idx].Status
	if cur.IsTerminal() || item.Status.IsTerminal() {
		return false
	}
	if cur != item.Status && !cur.CanTransition(item.Status) {
		return false
	}
	b.items[idx] = item.Clone()
	return true
}

// record stores a terminal outcome and advances the aggregate counters.
// The first outcome wins.
func (b *Batch) record(idx int, out models.ProcessedItem) (models.BatchSnapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.results[idx] != nil || !out.Status.IsTerminal() {
		return models.BatchSnapshot{}, false
	}
	stored := cloneProcessed(out)
	b.items[idx] = stored.Item.Clone()
	b.results[idx] = &stored

	if out.Status == models.ItemCompleted {
		b.completed++
	} else {
		b.failed++
	}
	if progress := percent(b.completed+b.failed, len(b.items)); progress > b.progress {
		b.progress = progress
	}
	return b.snapshotLocked(), true
}

// finish moves running to done and computes the final aggregates.
func (b *Batch) finish(now time.Time, cancelled bool) *models.BatchResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.result != nil {
		return cloneResult(b.result)
	}
	b.status = models.BatchDone
	b.finishedAt = &now
	b.cancelled = b.cancelled || cancelled
	if len(b.items) == 0 {
		b.progress = 100
	}

	res := &models.BatchResult{
		BatchID:    b.id,
		Items:      make([]models.ProcessedItem, len(b.items)),
		Total:      len(b.items),
		Categories: map[models.SourceCategory]int{},
		Sources:    map[models.SourceCategory]models.SourceStats{},
		Cancelled:  b.cancelled,
		FinishedAt: now,
	}
	if b.startedAt != nil {
		res.StartedAt = *b.startedAt
	}

	var confidenceSum float64
	var durationSum int64
	for i, it := range b.items {
		if r := b.results[i]; r != nil {
			res.Items[i] = cloneProcessed(*r)
			durationSum += r.DurationMS
		} else {
			res.Items[i] = models.ProcessedItem{Item: it.Clone()}
		}
		if it.SourceCategory != "" {
			res.Categories[it.SourceCategory]++
		}
		if it.Status == models.ItemCompleted && it.Confidence != nil {
			confidenceSum += *it.Confidence
		}
		if it.SourceCategory != "" && it.Status.IsTerminal() {
			st := res.Sources[it.SourceCategory]
			st.Processed++
			if it.Status == models.ItemCompleted {
				st.Success++
			}
			st.SuccessRate = float64(st.Success) / float64(st.Processed)
			res.Sources[it.SourceCategory] = st
		}
	}

	res.SuccessCount = b.completed
	res.ErrorCount = b.failed
	res.ProcessedCount = b.completed + b.failed
	res.SkippedCount = res.Total - res.ProcessedCount
	if res.ProcessedCount > 0 {
		res.SuccessRate = float64(res.SuccessCount) / float64(res.ProcessedCount)
	}
	if res.SuccessCount > 0 {
		res.AvgConfidence = confidenceSum / float64(res.SuccessCount)
	}
	if res.ProcessedCount > 0 {
		res.AvgDurationMS = durationSum / int64(res.ProcessedCount)
	}

	b.result = res
	close(b.done)
	return cloneResult(res)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(n) / float64(total) * 100
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneProcessed(p models.ProcessedItem) models.ProcessedItem {
	p.Item = p.Item.Clone()
	return p
}

func cloneResult(r *models.BatchResult) *models.BatchResult {
	out := *r
	out.Items = make([]models.ProcessedItem, len(r.Items))
	for i, it := range r.Items {
		out.Items[i] = cloneProcessed(it)
	}
	out.Categories = make(map[models.SourceCategory]int, len(r.Categories))
	for k, v := range r.Categories {
		out.Categories[k] = v
	}
	out.Sources = make(map[models.SourceCategory]models.SourceStats, len(r.Sources))
	for k, v := range r.Sources {
		out.Sources[k] = v
	}
	return &out
}
