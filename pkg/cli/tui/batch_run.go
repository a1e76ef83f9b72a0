package tui

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"profile-extract-go/pkg/batch"
	"profile-extract-go/pkg/cli/results"
	"profile-extract-go/pkg/cli/tui/batchrun"
	"profile-extract-go/pkg/export"
	"profile-extract-go/pkg/models"
	"profile-extract-go/pkg/scraper"
)

// copyToClipboard is swapped in tests.
var copyToClipboard = clipboard.WriteAll

// MenuNavigationMsg asks the root model to show the menu again
type MenuNavigationMsg struct{}

// batchRunModel starts a batch and renders its progress until it is done.
type batchRunModel struct {
	ctx     context.Context
	coord   *batch.Coordinator
	batch   *batch.Batch
	opts    batch.Options
	tracker *scraper.Tracker

	state  *batchrun.RunState
	step   int
	err    error
	notice string

	events   chan batch.Event
	quit     chan struct{}
	quitOnce sync.Once

	spinner  spinner.Model
	progress progress.Model
	results  viewport.Model

	// standalone runs quit on exit instead of returning to the menu
	standalone bool
	width      int
	now        func() time.Time
}

// newBatchRunModel creates the progress flow for b. The run starts in Init.
func newBatchRunModel(ctx context.Context, coord *batch.Coordinator, b *batch.Batch, opts batch.Options, standalone bool) *batchRunModel {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(stageActiveStyle))
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	vp := viewport.New(batchrun.DefaultWidth, 10)

	return &batchRunModel{
		ctx:        ctx,
		coord:      coord,
		batch:      b,
		opts:       opts,
		tracker:    coord.Processor().Tracker(),
		state:      batchrun.NewRunState(b.Snapshot()),
		step:       batchrun.StepRunning,
		events:     make(chan batch.Event, 64),
		quit:       make(chan struct{}),
		spinner:    sp,
		progress:   bar,
		results:    vp,
		standalone: standalone,
		width:      batchrun.DefaultWidth,
		now:        time.Now,
	}
}

// Init implements tea.Model.
func (m *batchRunModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

// start hands the batch to the coordinator and waits for the first event.
func (m *batchRunModel) start() tea.Cmd {
	return func() tea.Msg {
		opts := m.opts
		opts.Observer = m.observe
		if err := m.coord.Start(m.ctx, m.batch, opts); err != nil {
			return batchrun.StartErrorMsg{Err: err}
		}
		return m.nextEvent()
	}
}

// observe forwards coordinator events until the program goes away.
func (m *batchRunModel) observe(ev batch.Event) {
	select {
	case m.events <- ev:
	case <-m.quit:
	}
}

func (m *batchRunModel) nextEvent() tea.Msg {
	select {
	case ev := <-m.events:
		return batchrun.EventMsg{Event: ev}
	case <-m.quit:
		return nil
	}
}

func (m *batchRunModel) listen() tea.Cmd {
	return m.nextEvent
}

// close releases the observer so the coordinator never blocks on a program
// that has exited.
func (m *batchRunModel) close() {
	m.quitOnce.Do(func() { close(m.quit) })
}

// Result returns the final result once the run is done.
func (m *batchRunModel) Result() *models.BatchResult {
	return m.state.Result
}

// Update implements tea.Model.
func (m *batchRunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if m.width == 0 {
			m.width = batchrun.DefaultWidth
		}
		m.progress.Width = max(min(m.width-12, 60), 10)
		m.results.Width = m.width
		if h := msg.Height - 14; h > 3 {
			m.results.Height = h
		}
		m.refreshResults()
		return m, nil

	case spinner.TickMsg:
		if m.step == batchrun.StepDone {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case batchrun.EventMsg:
		m.state.Apply(msg.Event, m.now())
		if msg.Event.Type == batch.EventBatchDone {
			m.step = batchrun.StepDone
			m.refreshResults()
			return m, nil
		}
		return m, m.listen()

	case batchrun.StartErrorMsg:
		m.err = msg.Err
		m.step = batchrun.StepDone
		return m, nil

	case batchrun.CopyDoneMsg:
		if msg.Err != nil {
			m.notice = renderError(fmt.Sprintf("Copy failed: %v", msg.Err))
		} else {
			m.notice = renderSuccess(fmt.Sprintf("Copied %d row(s) as CSV", msg.Rows))
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *batchRunModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.batch.Cancel()
		m.close()
		return m, tea.Quit
	}

	if m.step != batchrun.StepDone {
		switch key {
		case "esc", "x", "q":
			if m.step == batchrun.StepRunning {
				m.batch.Cancel()
				m.step = batchrun.StepCancelling
				m.notice = renderWarning("Cancelling: no new items start, running items finish or time out")
			}
		}
		return m, nil
	}

	switch key {
	case "q":
		m.close()
		return m, tea.Quit
	case "esc", "m":
		m.close()
		if m.standalone {
			return m, tea.Quit
		}
		return m, func() tea.Msg { return MenuNavigationMsg{} }
	case "c":
		return m, m.copyCSV()
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

// copyCSV puts the CSV export on the clipboard.
func (m *batchRunModel) copyCSV() tea.Cmd {
	res := m.state.Result
	if res == nil {
		return nil
	}
	return func() tea.Msg {
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, res); err != nil {
			return batchrun.CopyDoneMsg{Err: err}
		}
		if err := copyToClipboard(buf.String()); err != nil {
			return batchrun.CopyDoneMsg{Err: err}
		}
		return batchrun.CopyDoneMsg{Rows: len(res.Items)}
	}
}

func (m *batchRunModel) refreshResults() {
	if m.state.Result == nil {
		return
	}
	var b strings.Builder
	for _, pi := range m.state.Result.Items {
		b.WriteString(renderItemRow(pi.Item, m.width))
		b.WriteString("\n")
	}
	m.results.SetContent(b.String())
}

// View implements tea.Model.
func (m *batchRunModel) View() string {
	if m.err != nil {
		return renderErrorView(m.err)
	}

	var b strings.Builder
	total := len(m.state.Items)
	snap := m.state.Snapshot

	title := fmt.Sprintf("Processing %d profile(s)", total)
	if m.step == batchrun.StepDone {
		title = "Results"
	}
	b.WriteString(renderTitle(title))
	b.WriteString(mutedStyle.Render("Batch ") + itemIDStyle.Render(results.ShortenID(m.batch.ID())) + "\n\n")

	b.WriteString(m.progress.ViewAs(snap.OverallProgress / 100))
	b.WriteString(fmt.Sprintf("  %d/%d", m.state.Processed(), total))
	if snap.FailedCount > 0 {
		b.WriteString("  " + errorStyle.Render(fmt.Sprintf("%d failed", snap.FailedCount)))
	}
	b.WriteString("\n\n")

	if m.step == batchrun.StepDone {
		b.WriteString(m.renderDone())
	} else {
		b.WriteString(m.renderRunning())
	}

	if m.notice != "" {
		b.WriteString("\n" + m.notice + "\n")
	}
	b.WriteString("\n")
	b.WriteString(BatchRunHelpContent(m.step == batchrun.StepDone))

	return b.String()
}

func (m *batchRunModel) renderRunning() string {
	var b strings.Builder
	now := m.now()

	active := m.state.Active()
	for i, idx := range active {
		if i == batchrun.MaxActiveShown {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  +%d more running", len(active)-i)) + "\n\n")
			break
		}
		st := m.state.Items[idx]
		b.WriteString(itemURLStyle.Render(truncateURL(st.Item.Input, m.width-4)))
		if badge := sourceBadge(st.Item.SourceCategory); badge != "" {
			b.WriteString("  " + badge)
		}
		b.WriteString("\n")
		b.WriteString(renderStageSteps(m.tracker, st.Step, m.spinner.View(), now.Sub(st.StageStarted)))
		b.WriteString("\n")
	}
	if len(active) == 0 && m.step == batchrun.StepRunning {
		b.WriteString(m.spinner.View() + " " + infoStyle.Render("Starting...") + "\n\n")
	}

	recent := m.state.Recent(batchrun.MaxRecentShown)
	if len(recent) > 0 {
		b.WriteString(boldStyle.Render("Finished") + "\n")
		for _, st := range recent {
			b.WriteString(renderItemRow(st.Item, m.width) + "\n")
		}
	}
	return b.String()
}

func (m *batchRunModel) renderDone() string {
	res := m.state.Result
	var b strings.Builder

	if res.Cancelled {
		b.WriteString(renderWarning("Run cancelled") + "\n\n")
	}

	// A single profile gets the full card.
	if len(res.Items) == 1 && res.Items[0].Item.Status == models.ItemCompleted {
		b.WriteString(renderProfileCard(res.Items[0].Item))
		b.WriteString("\n\n")
	} else {
		b.WriteString(m.results.View())
		b.WriteString("\n")
		b.WriteString(renderDivider(min(m.width, 60)))
		b.WriteString("\n")
	}

	b.WriteString(results.FormatSummary(res))
	return b.String()
}

// RunBatch shows the progress flow for a single batch and returns its
// result. If the user quits early the batch is cancelled and the result is
// collected after in-flight items settle.
func RunBatch(ctx context.Context, coord *batch.Coordinator, b *batch.Batch, opts batch.Options) (*models.BatchResult, error) {
	m := newBatchRunModel(ctx, coord, b, opts, true)
	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.Run()
	m.close()

	if b.Status() == models.BatchIdle {
		return nil, err
	}
	if b.Status() != models.BatchDone {
		b.Cancel()
		<-b.Done()
	}
	res, rerr := b.Result()
	if rerr != nil {
		return nil, rerr
	}
	if err != nil && ctx.Err() == nil {
		return res, err
	}
	return res, nil
}
