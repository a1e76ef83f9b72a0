package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile-extract-go/pkg/batch"
	"profile-extract-go/pkg/ingest"
	"profile-extract-go/pkg/models"
	"profile-extract-go/pkg/processor"
	"profile-extract-go/pkg/scraper"
)

func newTestService(t *testing.T, runner scraper.Runner) *BatchService {
	t.Helper()
	cfg := processor.DefaultConfig()
	cfg.Runner = runner
	cfg.SuccessProbability = 1
	cfg.Rand = processor.NewRand(9)
	p, err := processor.New(cfg)
	require.NoError(t, err)

	svc := NewBatchService(
		batch.NewCoordinator(p, zerolog.Nop()),
		batch.DefaultOptions(),
		Limits{Interactive: 3, Bulk: 10},
		zerolog.Nop(),
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})
	return svc
}

func instant() scraper.Runner {
	return scraper.RunnerFunc(func(context.Context, models.Item, scraper.Stage) error { return nil })
}

func TestBatchService_CreateRunAndWait(t *testing.T) {
	svc := newTestService(t, instant())

	snap, err := svc.Create(models.ModeInteractive, []string{"https://github.com/a", "ftp://nope"})
	require.NoError(t, err)
	assert.Equal(t, models.BatchIdle, snap.Status)
	assert.Equal(t, 3, snap.MaxItems)

	_, err = svc.Start(snap.ID, RunOptions{MaxConcurrent: 2})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := svc.Wait(ctx, snap.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, res.ErrorCount)
	assert.Equal(t, models.KindUnsupportedScheme, res.Items[1].Reason)

	got, err := svc.Get(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchDone, got.Status)
}

func TestBatchService_LimitsAndModes(t *testing.T) {
	svc := newTestService(t, instant())

	_, err := svc.Create(models.ModeInteractive, []string{"a", "b", "c", "d"})
	assert.ErrorIs(t, err, batch.ErrCapacityExceeded)

	_, err = svc.Create(models.Mode("huge"), []string{"a"})
	assert.ErrorIs(t, err, ErrInvalidMode)

	snap, err := svc.Import(models.ModeBulk, strings.NewReader("url\nhttps://a.com\nhttps://b.com\n"))
	require.NoError(t, err)
	assert.Len(t, snap.Items, 2)

	_, err = svc.Import(models.ModeBulk, strings.NewReader(strings.Repeat("https://a.com\n", 11)))
	assert.ErrorIs(t, err, ingest.ErrTooManyURLs)
}

func TestBatchService_EditItems(t *testing.T) {
	svc := newTestService(t, instant())
	snap, err := svc.Create(models.ModeInteractive, nil)
	require.NoError(t, err)

	item, err := svc.AddItem(snap.ID, "https://linkedin.com/in/x")
	require.NoError(t, err)
	require.NoError(t, svc.RemoveItem(snap.ID, item.ID))

	_, err = svc.AddItem(uuid.New(), "https://a.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.RemoveItem(snap.ID, uuid.New()), batch.ErrItemNotFound)
}

func TestBatchService_StartTwice(t *testing.T) {
	release := make(chan struct{})
	svc := newTestService(t, scraper.RunnerFunc(func(context.Context, models.Item, scraper.Stage) error {
		<-release
		return nil
	}))
	snap, err := svc.Create(models.ModeInteractive, []string{"https://a.com"})
	require.NoError(t, err)

	_, err = svc.Start(snap.ID, RunOptions{})
	require.NoError(t, err)

	_, err = svc.Start(snap.ID, RunOptions{})
	assert.ErrorIs(t, err, batch.ErrAlreadyRunning)

	_, err = svc.Result(snap.ID)
	assert.ErrorIs(t, err, batch.ErrNotFinished)
	assert.ErrorIs(t, svc.Delete(snap.ID), ErrBatchRunning)

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = svc.Wait(ctx, snap.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(snap.ID))
	_, err = svc.Get(snap.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, svc.List())
}

func TestBatchService_StartDeleteRace(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	svc := newTestService(t, scraper.RunnerFunc(func(ctx context.Context, _ models.Item, _ scraper.Stage) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}))

	for range 50 {
		snap, err := svc.Create(models.ModeInteractive, []string{"https://github.com/a"})
		require.NoError(t, err)

		var startErr, deleteErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, startErr = svc.Start(snap.ID, RunOptions{})
		}()
		go func() {
			defer wg.Done()
			deleteErr = svc.Delete(snap.ID)
		}()
		wg.Wait()

		if startErr == nil {
			require.ErrorIs(t, deleteErr, ErrBatchRunning)
			got, err := svc.Get(snap.ID)
			require.NoError(t, err)
			assert.Equal(t, models.BatchRunning, got.Status)
			_, err = svc.Cancel(snap.ID)
			require.NoError(t, err)
		} else {
			require.ErrorIs(t, startErr, ErrNotFound)
			require.NoError(t, deleteErr)
		}
	}
}

func TestBatchService_Cancel(t *testing.T) {
	release := make(chan struct{})
	svc := newTestService(t, scraper.RunnerFunc(func(context.Context, models.Item, scraper.Stage) error {
		<-release
		return nil
	}))
	snap, err := svc.Create(models.ModeInteractive, []string{"https://a.com", "https://b.com", "https://c.com"})
	require.NoError(t, err)

	_, err = svc.Start(snap.ID, RunOptions{MaxConcurrent: 1})
	require.NoError(t, err)

	_, err = svc.Cancel(snap.ID)
	require.NoError(t, err)
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := svc.Wait(ctx, snap.ID)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.LessOrEqual(t, res.ProcessedCount, 1)
	assert.GreaterOrEqual(t, res.SkippedCount, 2)
}

func TestBatchService_ListOrder(t *testing.T) {
	svc := newTestService(t, instant())
	a, err := svc.Create(models.ModeInteractive, []string{"https://a.com"})
	require.NoError(t, err)
	b, err := svc.Create(models.ModeBulk, []string{"https://b.com"})
	require.NoError(t, err)

	list := svc.List()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)
}

func TestLimits_For(t *testing.T) {
	assert.Equal(t, 3, Limits{Interactive: 3}.For(models.ModeInteractive))
	assert.Equal(t, models.BulkMaxItems, Limits{}.For(models.ModeBulk))
}
