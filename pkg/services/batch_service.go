package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"profile-extract-go/pkg/batch"
	"profile-extract-go/pkg/ingest"
	"profile-extract-go/pkg/models"
)

var (
	ErrNotFound     = errors.New("batch not found")
	ErrInvalidMode  = errors.New("invalid batch mode")
	ErrBatchRunning = errors.New("batch is running")
)

// Limits are the per-mode item bounds.
type Limits struct {
	Interactive int
	Bulk        int
}

// For returns the bound for mode.
func (l Limits) For(mode models.Mode) int {
	if mode == models.ModeBulk && l.Bulk > 0 {
		return l.Bulk
	}
	if mode == models.ModeInteractive && l.Interactive > 0 {
		return l.Interactive
	}
	return mode.MaxItems()
}

// RunOptions overrides the service defaults for one run. Zero fields keep
// the default.
type RunOptions struct {
	MaxConcurrent  int
	PerItemTimeout time.Duration
	RateLimit      float64
}

// BatchService owns batches by id and runs them in the background. Callers
// only ever see snapshots.
type BatchService struct {
	coord    *batch.Coordinator
	defaults batch.Options
	limits   Limits
	log      zerolog.Logger

	mu      sync.RWMutex
	batches map[uuid.UUID]*batch.Batch
	order   []uuid.UUID

	ctx    context.Context
	cancel context.CancelFunc
}

// NewBatchService creates a new batch service
func NewBatchService(coord *batch.Coordinator, defaults batch.Options, limits Limits, log zerolog.Logger) *BatchService {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchService{
		coord:    coord,
		defaults: defaults,
		limits:   limits,
		log:      log.With().Str("component", "batch_service").Logger(),
		batches:  make(map[uuid.UUID]*batch.Batch),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Limits returns the per-mode bounds.
func (s *BatchService) Limits() Limits {
	return s.limits
}

// Create builds an idle batch from urls.
func (s *BatchService) Create(mode models.Mode, urls []string) (models.BatchSnapshot, error) {
	if !mode.IsValid() {
		return models.BatchSnapshot{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	b, err := batch.FromInputs(mode, s.limits.For(mode), urls)
	if err != nil {
		return models.BatchSnapshot{}, err
	}

	s.mu.Lock()
	s.batches[b.ID()] = b
	s.order = append(s.order, b.ID())
	s.mu.Unlock()

	s.log.Info().
		Str("batch_id", b.ID().String()).
		Str("mode", string(mode)).
		Int("items", b.Len()).
		Msg("batch created")
	return b.Snapshot(), nil
}

// Import parses an uploaded URL list and creates a batch from it.
func (s *BatchService) Import(mode models.Mode, r io.Reader) (models.BatchSnapshot, error) {
	if !mode.IsValid() {
		return models.BatchSnapshot{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	urls, err := ingest.ParseURLList(r, s.limits.For(mode))
	if err != nil {
		return models.BatchSnapshot{}, err
	}
	return s.Create(mode, urls)
}

func (s *BatchService) lookup(id uuid.UUID) (*batch.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

// Get returns a snapshot of one batch.
func (s *BatchService) Get(id uuid.UUID) (models.BatchSnapshot, error) {
	b, err := s.lookup(id)
	if err != nil {
		return models.BatchSnapshot{}, err
	}
	return b.Snapshot(), nil
}

// List returns snapshots in creation order.
func (s *BatchService) List() []models.BatchSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.BatchSnapshot, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.batches[id].Snapshot())
	}
	return out
}

// AddItem appends a URL to an idle batch.
func (s *BatchService) AddItem(id uuid.UUID, url string) (models.Item, error) {
	b, err := s.lookup(id)
	if err != nil {
		return models.Item{}, err
	}
	return b.Add(url)
}

// RemoveItem removes a pending item from an idle batch.
func (s *BatchService) RemoveItem(id, itemID uuid.UUID) error {
	b, err := s.lookup(id)
	if err != nil {
		return err
	}
	return b.Remove(itemID)
}

func (s *BatchService) options(o RunOptions) batch.Options {
	opts := s.defaults
	if o.MaxConcurrent > 0 {
		opts.MaxConcurrent = o.MaxConcurrent
	}
	if o.PerItemTimeout > 0 {
		opts.PerItemTimeout = o.PerItemTimeout
	}
	if o.RateLimit > 0 {
		opts.RateLimit = o.RateLimit
	}
	return opts
}

// Start runs a batch in the background. A running or finished batch is
// rejected immediately.
func (s *BatchService) Start(id uuid.UUID, o RunOptions) (models.BatchSnapshot, error) {
	// held until the batch is running so Delete never drops it mid-start
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[id]
	if !ok {
		return models.BatchSnapshot{}, ErrNotFound
	}

	opts := s.options(o)
	userObserver := opts.Observer
	log := s.log.With().Str("batch_id", id.String()).Logger()
	opts.Observer = func(ev batch.Event) {
		if ev.Type == batch.EventItemFinished {
			log.Debug().
				Str("item_id", ev.Item.ID.String()).
				Str("status", string(ev.Item.Status)).
				Str("reason", string(ev.Item.Reason)).
				Float64("progress", ev.Snapshot.OverallProgress).
				Msg("item finished")
		}
		if userObserver != nil {
			userObserver(ev)
		}
	}

	if err := s.coord.Start(s.ctx, b, opts); err != nil {
		return models.BatchSnapshot{}, err
	}
	return b.Snapshot(), nil
}

// Cancel raises the batch's cancel signal.
func (s *BatchService) Cancel(id uuid.UUID) (models.BatchSnapshot, error) {
	b, err := s.lookup(id)
	if err != nil {
		return models.BatchSnapshot{}, err
	}
	b.Cancel()
	s.log.Info().Str("batch_id", id.String()).Msg("batch cancel requested")
	return b.Snapshot(), nil
}

// Result returns the final result; batch.ErrNotFinished until done.
func (s *BatchService) Result(id uuid.UUID) (*models.BatchResult, error) {
	b, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return b.Result()
}

// Wait blocks until the batch is done or ctx ends.
func (s *BatchService) Wait(ctx context.Context, id uuid.UUID) (*models.BatchResult, error) {
	b, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	select {
	case <-b.Done():
		return b.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Delete forgets a batch that is not running.
func (s *BatchService) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[id]
	if !ok {
		return ErrNotFound
	}
	if b.Status() == models.BatchRunning {
		return ErrBatchRunning
	}
	delete(s.batches, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Shutdown cancels every running batch and waits for them to finish or for
// ctx to end.
func (s *BatchService) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	var running []*batch.Batch
	for _, b := range s.batches {
		if b.Status() == models.BatchRunning {
			running = append(running, b)
		}
	}
	s.mu.RUnlock()

	s.cancel()
	for _, b := range running {
		b.Cancel()
		select {
		case <-b.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
