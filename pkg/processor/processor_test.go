package processor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile-extract-go/pkg/models"
	"profile-extract-go/pkg/scraper"
)

func instant() scraper.Runner {
	return scraper.RunnerFunc(func(context.Context, models.Item, scraper.Stage) error { return nil })
}

func newTestProcessor(t *testing.T, probability float64, runner scraper.Runner) *Processor {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Runner = runner
	cfg.SuccessProbability = probability
	cfg.Rand = NewRand(42)
	cfg.RetryBackoff = time.Millisecond
	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

func TestProcess_ForcedSuccess(t *testing.T) {
	p := newTestProcessor(t, 1, instant())
	item := models.NewItem("https://github.com/octocat")

	out := p.Process(context.Background(), item, nil)

	assert.Equal(t, models.ItemCompleted, out.Status)
	require.NotNil(t, out.Confidence)
	assert.GreaterOrEqual(t, *out.Confidence, DefaultConfidenceMin)
	assert.LessOrEqual(t, *out.Confidence, DefaultConfidenceMax)
	require.NotNil(t, out.Result)
	assert.Equal(t, models.CategoryGitHub, out.Result.Source)
	assert.Equal(t, item.Input, out.Result.SourceURL)
	assert.NotEmpty(t, out.Result.Name)
	assert.Equal(t, models.CategoryGitHub, out.SourceCategory)
	assert.Len(t, out.Warnings, 1)
	assert.Empty(t, out.Reason)
	assert.Equal(t, 1, out.Attempts)
	assert.NotNil(t, out.StartedAt)
	assert.NotNil(t, out.FinishedAt)

	assert.Equal(t, models.ItemPending, item.Status, "input item must not be mutated")
}

func TestProcess_ForcedFailure(t *testing.T) {
	p := newTestProcessor(t, 0, instant())

	out := p.Process(context.Background(), models.NewItem("https://example.com"), nil)

	assert.Equal(t, models.ItemFailed, out.Status)
	assert.Equal(t, models.KindSimulatedFailure, out.Reason)
	assert.Nil(t, out.Result)
	assert.Nil(t, out.Confidence)
}

func TestProcess_ValidationRejectsWithoutRunningStages(t *testing.T) {
	var calls atomic.Int32
	runner := scraper.RunnerFunc(func(context.Context, models.Item, scraper.Stage) error {
		calls.Add(1)
		return nil
	})
	p := newTestProcessor(t, 1, runner)

	tests := []struct {
		input string
		want  models.ErrorKind
	}{
		{"", models.KindEmptyInput},
		{"not a url", models.KindMalformedURL},
		{"ftp://example.com/file", models.KindUnsupportedScheme},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var updates []Update
			out := p.Process(context.Background(), models.NewItem(tt.input), func(u Update) {
				updates = append(updates, u)
			})

			assert.Equal(t, models.ItemFailed, out.Status)
			assert.Equal(t, tt.want, out.Reason)
			assert.True(t, out.Reason.IsValidation())
			assert.Equal(t, 0, out.Attempts)
			assert.Nil(t, out.StartedAt)
			require.Len(t, updates, 1)
			assert.Equal(t, 0, updates[0].Step)
		})
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestProcess_EmitsUpdatePerStage(t *testing.T) {
	p := newTestProcessor(t, 1, instant())

	var steps []int
	var statuses []models.ItemStatus
	p.Process(context.Background(), models.NewItem("https://linkedin.com/in/someone"), func(u Update) {
		steps = append(steps, u.Step)
		statuses = append(statuses, u.Item.Status)
	})

	assert.Equal(t, []int{1, 2, 3, 4}, steps)
	assert.Equal(t, []models.ItemStatus{
		models.ItemProcessing, models.ItemProcessing, models.ItemProcessing, models.ItemCompleted,
	}, statuses)
}

func blocking() scraper.Runner {
	return scraper.RunnerFunc(func(ctx context.Context, _ models.Item, _ scraper.Stage) error {
		<-ctx.Done()
		return ctx.Err()
	})
}

func TestProcess_Timeout(t *testing.T) {
	p := newTestProcessor(t, 1, blocking())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	out := p.Process(ctx, models.NewItem("https://example.com"), nil)

	assert.Equal(t, models.ItemFailed, out.Status)
	assert.Equal(t, models.KindTimeout, out.Reason)
}

func TestProcess_Cancelled(t *testing.T) {
	p := newTestProcessor(t, 1, blocking())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := p.Process(ctx, models.NewItem("https://example.com"), nil)

	assert.Equal(t, models.ItemFailed, out.Status)
	assert.Equal(t, models.KindCancelled, out.Reason)
}

func TestProcess_RetriesRetryableStageErrors(t *testing.T) {
	var calls atomic.Int32
	runner := scraper.RunnerFunc(func(_ context.Context, _ models.Item, s scraper.Stage) error {
		if s.Name == scraper.StageFetching && calls.Add(1) < 3 {
			return &scraper.StageError{Type: scraper.ErrorTypeNetwork, Stage: s.Name, Message: "flaky"}
		}
		return nil
	})

	cfg := DefaultConfig()
	cfg.Runner = runner
	cfg.SuccessProbability = 1
	cfg.MaxRetries = 2
	cfg.RetryBackoff = time.Millisecond
	p, err := New(cfg)
	require.NoError(t, err)

	out := p.Process(context.Background(), models.NewItem("https://example.com"), nil)

	assert.Equal(t, models.ItemCompleted, out.Status)
	assert.Equal(t, 3, out.Attempts)
}

func TestProcess_RetriesExhausted(t *testing.T) {
	runner := scraper.RunnerFunc(func(_ context.Context, _ models.Item, s scraper.Stage) error {
		return &scraper.StageError{Type: scraper.ErrorTypeServiceUnavailable, Stage: s.Name}
	})

	cfg := DefaultConfig()
	cfg.Runner = runner
	cfg.MaxRetries = 1
	cfg.RetryBackoff = time.Millisecond
	p, err := New(cfg)
	require.NoError(t, err)

	out := p.Process(context.Background(), models.NewItem("https://example.com"), nil)

	assert.Equal(t, models.ItemFailed, out.Status)
	assert.Equal(t, models.KindStageFailed, out.Reason)
	assert.Contains(t, out.Error, "unavailable")
	assert.Equal(t, 2, out.Attempts)
}

func TestProcess_NonRetryableFailsImmediately(t *testing.T) {
	var calls atomic.Int32
	runner := scraper.RunnerFunc(func(_ context.Context, _ models.Item, s scraper.Stage) error {
		calls.Add(1)
		return &scraper.StageError{Type: scraper.ErrorTypeExtraction, Stage: s.Name, Message: "empty page"}
	})
	cfg := DefaultConfig()
	cfg.Runner = runner
	cfg.MaxRetries = 3
	p, err := New(cfg)
	require.NoError(t, err)

	out := p.Process(context.Background(), models.NewItem("https://example.com"), nil)

	assert.Equal(t, models.KindStageFailed, out.Reason)
	assert.Equal(t, "Failed to extract content from URL: empty page", out.Error)
	assert.Equal(t, int32(1), calls.Load())
}

func TestProcess_SeededRunsAreDeterministic(t *testing.T) {
	run := func() *float64 {
		cfg := DefaultConfig()
		cfg.Runner = instant()
		cfg.SuccessProbability = 1
		cfg.Rand = NewRand(7)
		p, err := New(cfg)
		require.NoError(t, err)
		return p.Process(context.Background(), models.NewItem("https://example.com"), nil).Confidence
	}

	a, b := run(), run()
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, *a, *b)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"probability above one", func(c *Config) { c.SuccessProbability = 1.5 }},
		{"negative probability", func(c *Config) { c.SuccessProbability = -0.1 }},
		{"inverted confidence", func(c *Config) { c.ConfidenceMin, c.ConfidenceMax = 0.9, 0.5 }},
		{"confidence above one", func(c *Config) { c.ConfidenceMax = 1.2 }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}

func TestKindFor(t *testing.T) {
	expired, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-expired.Done()

	assert.Equal(t, models.KindTimeout, KindFor(expired, nil))
	assert.Equal(t, models.KindTimeout, KindFor(context.Background(), context.DeadlineExceeded))
	assert.Equal(t, models.KindCancelled, KindFor(context.Background(), context.Canceled))
	assert.Equal(t, models.KindStageFailed, KindFor(context.Background(), assert.AnError))
}

func TestNewRand_Bounds(t *testing.T) {
	r := NewRand(1)
	for range 100 {
		f := r.Float64()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
		assert.Less(t, r.IntN(3), 3)
	}
}
