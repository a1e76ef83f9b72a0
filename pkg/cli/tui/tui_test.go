package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile-extract-go/pkg/batch"
	"profile-extract-go/pkg/cli/tui/batchrun"
	"profile-extract-go/pkg/models"
	"profile-extract-go/pkg/processor"
	"profile-extract-go/pkg/scraper"
	"profile-extract-go/pkg/services"
)

func newCoordinator(t *testing.T, runner scraper.Runner) *batch.Coordinator {
	t.Helper()
	cfg := processor.DefaultConfig()
	cfg.Runner = runner
	cfg.SuccessProbability = 1
	cfg.Rand = processor.NewRand(11)
	p, err := processor.New(cfg)
	require.NoError(t, err)
	return batch.NewCoordinator(p, zerolog.Nop())
}

func instantRunner() scraper.Runner {
	return scraper.RunnerFunc(func(context.Context, models.Item, scraper.Stage) error { return nil })
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drive feeds events into m until the batch is done.
func drive(t *testing.T, m *batchRunModel, first tea.Msg) {
	t.Helper()
	msg := first
	for i := 0; i < 1000; i++ {
		require.NotNil(t, msg)
		m.Update(msg)
		if m.state.Done() {
			return
		}
		msg = m.listen()()
	}
	t.Fatal("batch did not finish")
}

func TestRootModel_MenuNavigation(t *testing.T) {
	root := NewRootModel(context.Background(), Deps{
		Coordinator: newCoordinator(t, instantRunner()),
		Limits:      services.Limits{Interactive: 4, Bulk: 20},
		Log:         zerolog.Nop(),
	}).(*rootModel)

	assert.Contains(t, root.View(), "Profile Extraction")

	root.Update(keyRunes("2"))
	form, ok := root.current.(*urlFormModel)
	require.True(t, ok)
	assert.Equal(t, 4, form.max)

	_, cmd := root.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	root.Update(cmd())
	assert.Nil(t, root.current)

	root.Update(keyRunes("3"))
	bulk, ok := root.current.(*bulkFormModel)
	require.True(t, ok)
	assert.Equal(t, 20, bulk.limit)

	root.Update(MenuNavigationMsg{})
	_, cmd = root.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRootModel_StartBatchLaunchesRun(t *testing.T) {
	root := NewRootModel(context.Background(), Deps{
		Coordinator: newCoordinator(t, instantRunner()),
		Options:     batch.DefaultOptions(),
		Limits:      services.Limits{Interactive: 5, Bulk: 10},
		Log:         zerolog.Nop(),
	}).(*rootModel)

	b, err := batch.FromInputs(models.ModeInteractive, 5, []string{"https://github.com/a"})
	require.NoError(t, err)

	_, cmd := root.Update(StartBatchMsg{Batch: b})
	assert.NotNil(t, cmd)
	run, ok := root.current.(*batchRunModel)
	require.True(t, ok)
	assert.False(t, run.standalone)
}

func TestURLForm_SingleStartsImmediately(t *testing.T) {
	form := newURLForm("Single profile", 1)

	form.Update(keyRunes("https://github.com/octocat"))
	assert.Contains(t, form.View(), "GitHub")

	_, cmd := form.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(StartBatchMsg)
	require.True(t, ok)
	assert.Equal(t, 1, msg.Batch.Len())
	assert.Equal(t, models.ModeInteractive, msg.Batch.Mode())
}

func TestURLForm_MultiLimitAndRemove(t *testing.T) {
	form := newURLForm("Multi-source profile", 2)

	for _, u := range []string{"https://github.com/a", "not a url"} {
		form.Update(keyRunes(u))
		_, cmd := form.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.Nil(t, cmd)
	}
	assert.Len(t, form.urls, 2)
	assert.Contains(t, form.View(), "✗")

	form.Update(keyRunes("https://x.com/a"))
	form.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Error(t, form.err)
	assert.Contains(t, form.err.Error(), "at most 2")

	form.input.SetValue("")
	form.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Len(t, form.urls, 1)
	assert.NoError(t, form.err)

	_, cmd := form.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(StartBatchMsg)
	require.True(t, ok)
	assert.Equal(t, 1, msg.Batch.Len())
}

func TestURLForm_ExampleProfiles(t *testing.T) {
	form := newURLForm("Single profile", 1)
	assert.Contains(t, form.View(), "Jack Nicholson")

	form.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, exampleProfiles[0].URL, form.input.Value())
	assert.Contains(t, form.View(), "▸")

	form.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "https://www.linkedin.com/in/satyanadella/", form.input.Value())

	form.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	form.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, exampleProfiles[len(exampleProfiles)-1].URL, form.input.Value())

	_, cmd := form.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(StartBatchMsg)
	require.True(t, ok)
	assert.Equal(t, exampleProfiles[len(exampleProfiles)-1].URL, msg.Batch.Snapshot().Items[0].Input)
	assert.Equal(t, -1, form.example)
}

func TestURLForm_EmptySubmit(t *testing.T) {
	form := newURLForm("Multi-source profile", 5)
	_, cmd := form.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Error(t, form.err)
}

func TestBulkForm_LoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://github.com/a\nhttps://github.com/b\n# skip\n"), 0644))

	form := newBulkForm(10)
	form.input.SetValue(path)
	_, cmd := form.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(StartBatchMsg)
	require.True(t, ok)
	assert.Equal(t, 2, msg.Batch.Len())
	assert.Equal(t, models.ModeBulk, msg.Batch.Mode())
}

func TestBulkForm_Errors(t *testing.T) {
	form := newBulkForm(1)

	form.input.SetValue(filepath.Join(t.TempDir(), "missing.txt"))
	_, cmd := form.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Error(t, form.err)

	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://a.io\nhttps://b.io\n"), 0644))
	form.input.SetValue(path)
	_, cmd = form.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Error(t, form.err)
}

func TestBatchRun_SingleProfileAndCopy(t *testing.T) {
	var copied string
	orig := copyToClipboard
	copyToClipboard = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { copyToClipboard = orig })

	b, err := batch.FromInputs(models.ModeInteractive, 1, []string{"https://www.linkedin.com/in/someone"})
	require.NoError(t, err)
	m := newBatchRunModel(context.Background(), newCoordinator(t, instantRunner()), b, batch.DefaultOptions(), true)

	assert.Contains(t, m.View(), "Processing 1 profile(s)")

	drive(t, m, m.start()())

	assert.Equal(t, batchrun.StepDone, m.step)
	view := m.View()
	assert.Contains(t, view, "Results")
	assert.Contains(t, view, "LinkedIn")
	assert.Contains(t, view, "Confidence:")
	require.NotNil(t, m.Result())
	assert.Equal(t, 1, m.Result().SuccessCount)

	m.Update(m.copyCSV()())
	assert.True(t, strings.HasPrefix(copied, "URL,Status,Name,JobTitle,Company,Confidence"))
	assert.Contains(t, m.View(), "Copied 1 row(s)")

	_, cmd := m.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestBatchRun_CancelWhileRunning(t *testing.T) {
	release := make(chan struct{})
	blocking := scraper.RunnerFunc(func(ctx context.Context, _ models.Item, _ scraper.Stage) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	b, err := batch.FromInputs(models.ModeInteractive, 5, []string{
		"https://github.com/a",
		"https://github.com/b",
		"https://github.com/c",
	})
	require.NoError(t, err)
	m := newBatchRunModel(context.Background(), newCoordinator(t, blocking), b, batch.DefaultOptions(), false)

	first := m.start()()
	m.Update(first)
	assert.Contains(t, m.View(), "github.com/a")

	m.Update(keyRunes("x"))
	assert.Equal(t, batchrun.StepCancelling, m.step)
	assert.True(t, b.Cancelled())
	assert.Contains(t, m.View(), "Cancelling")

	close(release)
	drive(t, m, m.listen()())

	res := m.Result()
	require.NotNil(t, res)
	assert.True(t, res.Cancelled)
	assert.Equal(t, 2, res.SkippedCount)
	assert.Contains(t, m.View(), "Run cancelled")

	_, cmd := m.Update(keyRunes("m"))
	require.NotNil(t, cmd)
	assert.IsType(t, MenuNavigationMsg{}, cmd())
}

func TestBatchRun_StartRejected(t *testing.T) {
	b, err := batch.FromInputs(models.ModeInteractive, 5, []string{"https://github.com/a"})
	require.NoError(t, err)
	coord := newCoordinator(t, instantRunner())
	_, err = coord.Run(context.Background(), b, batch.DefaultOptions())
	require.NoError(t, err)

	m := newBatchRunModel(context.Background(), coord, b, batch.DefaultOptions(), true)
	m.Update(m.start()())
	assert.ErrorIs(t, m.err, batch.ErrFinished)
	assert.Contains(t, m.View(), "Error")
}

func TestRenderStageSteps(t *testing.T) {
	tracker := scraper.DefaultTracker()

	out := renderStageSteps(tracker, 2, "*", 0)
	assert.Contains(t, out, "✓ Scraping URL")
	assert.Contains(t, out, "* ")
	assert.Contains(t, out, "Analyzing Content")
	assert.Contains(t, out, "remaining")

	done := renderStageSteps(tracker, tracker.TerminalStep(), "*", 0)
	assert.NotContains(t, done, "remaining")
}

func TestSourceBadgeAndStatusIcon(t *testing.T) {
	assert.Contains(t, sourceBadge(models.CategoryLinkedIn), "LinkedIn")
	assert.Contains(t, sourceBadge(models.CategoryGeneric), "Website")
	assert.Empty(t, sourceBadge(models.SourceCategory("")))

	assert.Contains(t, statusIcon(models.Item{Status: models.ItemCompleted}), "✓")
	assert.Contains(t, statusIcon(models.Item{Status: models.ItemFailed}), "✗")
	assert.Contains(t, statusIcon(models.Item{Status: models.ItemStatus("unknown")}), "○")
}
