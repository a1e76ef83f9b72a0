package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"profile-extract-go/pkg/batch"
	"profile-extract-go/pkg/models"
	"profile-extract-go/pkg/services"
)

// Deps are the shared dependencies of every flow.
type Deps struct {
	Coordinator *batch.Coordinator
	Options     batch.Options
	Limits      services.Limits
	Log         zerolog.Logger
}

// rootModel is the Bubble Tea model that acts as an app shell for multiple flows.
// It presents a simple menu and then hands control to a specific flow model.
type rootModel struct {
	ctx  context.Context
	deps Deps

	// Current active flow (when nil, we are in the main menu)
	current  tea.Model
	showHelp bool
	width    int
	height   int
}

// NewRootModel constructs the root app-shell model that can launch multiple flows.
func NewRootModel(ctx context.Context, deps Deps) tea.Model {
	return &rootModel{
		ctx:  ctx,
		deps: deps,
	}
}

func (m *rootModel) Init() tea.Cmd {
	// No async work on start; just render the menu.
	return nil
}

func (m *rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case MenuNavigationMsg:
		m.current = nil
		return m, nil
	case StartBatchMsg:
		m.deps.Log.Info().
			Str("batch_id", msg.Batch.ID().String()).
			Str("mode", string(msg.Batch.Mode())).
			Int("items", msg.Batch.Len()).
			Msg("tui batch started")
		return m.launch(newBatchRunModel(m.ctx, m.deps.Coordinator, msg.Batch, m.deps.Options, false))
	}

	// If we have an active flow, delegate all messages to it.
	if m.current != nil {
		var cmd tea.Cmd
		m.current, cmd = m.current.Update(msg)
		return m, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		key := msg.String()
		if handleQuitKeys(key) {
			return m, tea.Quit
		}

		switch key {
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case "1":
			// One URL, full loading steps and profile card.
			return m.launch(newURLForm("Single profile", 1))
		case "2":
			return m.launch(newURLForm("Multi-source profile", m.deps.Limits.For(models.ModeInteractive)))
		case "3":
			return m.launch(newBulkForm(m.deps.Limits.For(models.ModeBulk)))
		}
	}

	return m, nil
}

// launch makes flow current and runs its Init, forwarding the last known
// window size.
func (m *rootModel) launch(flow tea.Model) (tea.Model, tea.Cmd) {
	m.current = flow
	m.showHelp = false
	cmds := []tea.Cmd{flow.Init()}
	if m.width > 0 {
		var cmd tea.Cmd
		m.current, cmd = m.current.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *rootModel) View() string {
	// When a flow is active, defer to its view.
	if m.current != nil {
		return m.current.View()
	}

	var b strings.Builder

	b.WriteString(renderTitle("Profile Extraction"))
	b.WriteString(renderDivider(60))
	b.WriteString("\n\n")
	b.WriteString(boldStyle.Render("Select an action:") + "\n\n")
	b.WriteString("  " + selectedMarkerStyle.Render("1)") + " Single profile\n")
	b.WriteString("  " + selectedMarkerStyle.Render("2)") + " Multi-source profile (several URLs for one person)\n")
	b.WriteString("  " + selectedMarkerStyle.Render("3)") + " Bulk upload (URL list file)\n")
	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(RootMenuHelpContent() + "\n")
	}
	b.WriteString(helpStyle.Render("Press the number of an option, '?' for help, or 'q' / Esc to quit.") + "\n")

	return b.String()
}

// Run starts the interactive menu and blocks until the user quits.
func Run(ctx context.Context, deps Deps) error {
	p := tea.NewProgram(NewRootModel(ctx, deps), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
