package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile-extract-go/pkg/models"
)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func TestSimulatedRunner_CompletesWithinDelay(t *testing.T) {
	r := &SimulatedRunner{MinDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Rand: fixedSource(0.5)}

	start := time.Now()
	err := r.Run(context.Background(), models.NewItem("https://example.com"), DefaultStages()[0])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)
}

func TestSimulatedRunner_HonorsContext(t *testing.T) {
	r := &SimulatedRunner{MinDelay: time.Minute, MaxDelay: time.Minute}

	t.Run("deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		err := r.Run(ctx, models.NewItem("https://example.com"), DefaultStages()[0])
		var se *StageError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, ErrorTypeTimeout, se.Type)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})

	t.Run("cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := r.Run(ctx, models.NewItem("https://example.com"), DefaultStages()[0])
		var se *StageError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, ErrorTypeCancelled, se.Type)
		assert.False(t, se.IsRetryable())
	})
}

func TestSimulatedRunner_ZeroDelay(t *testing.T) {
	r := &SimulatedRunner{}
	assert.NoError(t, r.Run(context.Background(), models.Item{}, Stage{}))
}

func TestRunnerFunc(t *testing.T) {
	var got ScrapeStage
	f := RunnerFunc(func(_ context.Context, _ models.Item, s Stage) error {
		got = s.Name
		return nil
	})
	require.NoError(t, f.Run(context.Background(), models.Item{}, Stage{Name: StageExtracting}))
	assert.Equal(t, StageExtracting, got)
}

func TestStageError(t *testing.T) {
	cause := errors.New("boom")
	err := newNetworkError(cause)

	assert.True(t, IsRetryable(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "network[fetching]")
	assert.Contains(t, UserMessage(err), "Network error")

	assert.False(t, IsRetryable(newExtractionError("no content")))
	assert.False(t, IsRetryable(cause))
	assert.Equal(t, "boom", UserMessage(cause))
	assert.Equal(t, "", UserMessage(nil))
}
