package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"profile-extract-go/pkg/models"
	"profile-extract-go/pkg/processor"
	"profile-extract-go/pkg/scraper"
)

// DefaultPerItemTimeout bounds a single item when Options leaves it unset.
const DefaultPerItemTimeout = 30 * time.Second

// EventType names a coordinator notification.
type EventType string

const (
	EventItemStarted  EventType = "item_started"
	EventItemStage    EventType = "item_stage"
	EventItemFinished EventType = "item_finished"
	EventBatchDone    EventType = "batch_done"
)

// Event is delivered to the Observer. Events are serialized, so
// Snapshot.OverallProgress never decreases across deliveries.
type Event struct {
	Type     EventType
	BatchID  string
	Index    int
	Item     models.Item
	Step     int
	Stage    scraper.ScrapeStage
	Snapshot models.BatchSnapshot
	Result   *models.BatchResult
}

// Observer receives run events. It must not block for long: the next event
// waits for it.
type Observer func(Event)

// Options tunes a single run.
type Options struct {
	// MaxConcurrent is the worker count; values below 1 mean 1.
	MaxConcurrent int
	// PerItemTimeout force-fails an item that runs longer. Zero uses
	// DefaultPerItemTimeout, negative disables the bound.
	PerItemTimeout time.Duration
	// RateLimit is the maximum number of item starts per second. Zero
	// disables limiting.
	RateLimit float64
	RateBurst int
	Observer  Observer
}

// DefaultOptions processes items strictly in sequence.
func DefaultOptions() Options {
	return Options{
		MaxConcurrent:  1,
		PerItemTimeout: DefaultPerItemTimeout,
	}
}

// Coordinator runs the processor over every item of a batch.
type Coordinator struct {
	proc *processor.Processor
	log  zerolog.Logger
	now  func() time.Time
}

func NewCoordinator(proc *processor.Processor, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		proc: proc,
		log:  log.With().Str("component", "coordinator").Logger(),
		now:  time.Now,
	}
}

// Processor returns the item processor used for runs.
func (c *Coordinator) Processor() *processor.Processor {
	return c.proc
}

// Run processes b and blocks until it is done. Cancelling ctx acts like
// b.Cancel(): no new items start, in-flight items keep their own deadline.
// A batch that is running or done is rejected with ErrAlreadyRunning or
// ErrFinished.
func (c *Coordinator) Run(ctx context.Context, b *Batch, opts Options) (*models.BatchResult, error) {
	items, err := b.begin(c.now())
	if err != nil {
		return nil, err
	}
	return c.run(ctx, b, items, opts), nil
}

// Start is Run without waiting: the running transition and its rejection
// happen before Start returns, the rest continues in the background. Wait
// on b.Done() and read b.Result().
func (c *Coordinator) Start(ctx context.Context, b *Batch, opts Options) error {
	items, err := b.begin(c.now())
	if err != nil {
		return err
	}
	go c.run(ctx, b, items, opts)
	return nil
}

func (c *Coordinator) run(ctx context.Context, b *Batch, items []models.Item, opts Options) *models.BatchResult {
	workers := opts.MaxConcurrent
	if workers < 1 {
		workers = 1
	}
	timeout := opts.PerItemTimeout
	if timeout == 0 {
		timeout = DefaultPerItemTimeout
	}

	log := c.log.With().Str("batch_id", b.ID().String()).Logger()
	log.Info().
		Int("items", len(items)).
		Int("max_concurrent", workers).
		Dur("per_item_timeout", timeout).
		Float64("rate_limit", opts.RateLimit).
		Msg("batch run started")

	var emitMu sync.Mutex
	emit := func(build func() (Event, bool)) {
		emitMu.Lock()
		defer emitMu.Unlock()
		ev, ok := build()
		if ok && opts.Observer != nil {
			ev.BatchID = b.ID().String()
			opts.Observer(ev)
		}
	}

	dispatchCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		select {
		case <-b.cancelCh:
			stop()
		case <-dispatchCtx.Done():
		}
	}()

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	sem := semaphore.NewWeighted(int64(workers))
	var g errgroup.Group
	itemCtx := context.WithoutCancel(ctx)

	for idx, item := range items {
		if err := sem.Acquire(dispatchCtx, 1); err != nil {
			break
		}
		if limiter != nil {
			if err := limiter.Wait(dispatchCtx); err != nil {
				sem.Release(1)
				break
			}
		}
		// Cancellation is checked right before each start.
		if dispatchCtx.Err() != nil || b.Cancelled() {
			sem.Release(1)
			break
		}

		emit(func() (Event, bool) {
			return Event{Type: EventItemStarted, Index: idx, Item: item.Clone(), Snapshot: b.Snapshot()}, true
		})

		g.Go(func() error {
			defer sem.Release(1)
			c.runItem(itemCtx, b, idx, item, timeout, emit)
			return nil
		})
	}

	_ = g.Wait()

	cancelled := b.Cancelled() || ctx.Err() != nil
	var result *models.BatchResult
	emit(func() (Event, bool) {
		result = b.finish(c.now(), cancelled)
		return Event{Type: EventBatchDone, Index: -1, Snapshot: b.Snapshot(), Result: result}, true
	})

	log.Info().
		Int("success", result.SuccessCount).
		Int("failed", result.ErrorCount).
		Int("skipped", result.SkippedCount).
		Bool("cancelled", result.Cancelled).
		Dur("duration", result.Duration()).
		Msg("batch run finished")

	return result
}

// runItem processes one item under its own deadline. Whatever happens, the
// item is recorded exactly once with a terminal status.
func (c *Coordinator) runItem(
	ctx context.Context,
	b *Batch,
	idx int,
	item models.Item,
	timeout time.Duration,
	emit func(func() (Event, bool)),
) {
	start := c.now()
	var cancel context.CancelFunc = func() {}
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	done := make(chan models.ProcessedItem, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.log.Error().
					Str("batch_id", b.ID().String()).
					Str("item_id", item.ID.String()).
					Interface("panic", r).
					Msg("item processing panicked")
				done <- c.failed(item, start, models.KindInternal, fmt.Sprintf("internal error: %v", r))
			}
		}()
		done <- c.proc.Process(ctx, item, func(u processor.Update) {
			emit(func() (Event, bool) {
				if !b.applyUpdate(idx, u.Item) {
					return Event{}, false
				}
				return Event{
					Type:     EventItemStage,
					Index:    idx,
					Item:     u.Item,
					Step:     u.Step,
					Stage:    u.Stage,
					Snapshot: b.Snapshot(),
				}, true
			})
		})
	}()

	var out models.ProcessedItem
	select {
	case out = <-done:
	case <-ctx.Done():
		select {
		case out = <-done:
		default:
			out = c.failed(b.itemAt(idx), start, processor.KindFor(ctx, nil), "")
			c.log.Warn().
				Str("batch_id", b.ID().String()).
				Str("item_id", item.ID.String()).
				Str("reason", string(out.Reason)).
				Msg("item force-failed")
		}
	}

	emit(func() (Event, bool) {
		snap, ok := b.record(idx, out)
		if !ok {
			return Event{}, false
		}
		return Event{
			Type:     EventItemFinished,
			Index:    idx,
			Item:     out.Item.Clone(),
			Step:     c.proc.Tracker().TerminalStep(),
			Stage:    scraper.StageComplete,
			Snapshot: snap,
		}, true
	})
}

func (c *Coordinator) failed(item models.Item, start time.Time, kind models.ErrorKind, msg string) models.ProcessedItem {
	now := c.now()
	item = item.Clone()
	item.Status = models.ItemFailed
	item.Reason = kind
	item.Error = msg
	if msg == "" {
		item.Error = kind.Message()
	}
	item.Confidence = nil
	item.Result = nil
	if item.StartedAt == nil {
		item.StartedAt = &start
	}
	item.FinishedAt = &now
	return models.ProcessedItem{
		Item:       item,
		Attempts:   1,
		DurationMS: now.Sub(start).Milliseconds(),
	}
}
