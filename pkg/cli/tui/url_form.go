package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"profile-extract-go/pkg/batch"
	"profile-extract-go/pkg/models"
	"profile-extract-go/pkg/validation"
)

// StartBatchMsg asks the root model to run a batch built by a form
type StartBatchMsg struct {
	Batch *batch.Batch
}

// urlFormModel collects up to max URLs. With max 1 the run starts as soon as
// a URL is entered.
type urlFormModel struct {
	title string
	mode  models.Mode
	max   int

	input textinput.Model
	urls  []string
	err   error

	// example is the index of the picked sample profile, -1 for none
	example int
}

// newURLForm creates a URL entry form for an interactive batch.
func newURLForm(title string, max int) *urlFormModel {
	input := textinput.New()
	input.Placeholder = "https://www.linkedin.com/in/someone"
	input.Focus()
	input.CharLimit = 2048
	input.Width = 60

	if max < 1 {
		max = 1
	}

	return &urlFormModel{
		title:   title,
		mode:    models.ModeInteractive,
		max:     max,
		input:   input,
		example: -1,
	}
}

// Init implements tea.Model.
func (m *urlFormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *urlFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m, func() tea.Msg { return MenuNavigationMsg{} }
		case "ctrl+d":
			if len(m.urls) > 0 {
				m.urls = m.urls[:len(m.urls)-1]
				m.err = nil
			}
			return m, nil
		case "tab":
			m.pickExample(1)
			return m, nil
		case "shift+tab":
			m.pickExample(-1)
			return m, nil
		case "enter":
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit adds the typed URL, or starts the run when the input is empty.
func (m *urlFormModel) submit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())

	if value == "" {
		if len(m.urls) == 0 {
			m.err = fmt.Errorf("enter at least one URL")
			return m, nil
		}
		return m, m.startBatch()
	}

	if len(m.urls) >= m.max {
		m.err = fmt.Errorf("at most %d URL(s) per run; press Enter on an empty line to start", m.max)
		return m, nil
	}

	m.urls = append(m.urls, value)
	m.input.SetValue("")
	m.example = -1
	m.err = nil

	if m.max == 1 {
		return m, m.startBatch()
	}
	return m, nil
}

// pickExample moves the example selection by step and fills the input with it.
func (m *urlFormModel) pickExample(step int) {
	n := len(exampleProfiles)
	if m.example < 0 && step < 0 {
		m.example = n - 1
	} else {
		m.example = (m.example + step + n) % n
	}
	m.input.SetValue(exampleProfiles[m.example].URL)
	m.input.CursorEnd()
	m.err = nil
}

func (m *urlFormModel) startBatch() tea.Cmd {
	b, err := batch.FromInputs(m.mode, m.max, m.urls)
	if err != nil {
		m.err = err
		return nil
	}
	return func() tea.Msg { return StartBatchMsg{Batch: b} }
}

// View implements tea.Model.
func (m *urlFormModel) View() string {
	var b strings.Builder

	b.WriteString(renderTitle(m.title))
	if m.max > 1 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("Add up to %d URLs from LinkedIn, IMDB, GitHub, X or any website.", m.max)))
		b.WriteString("\n\n")
	}

	for i, u := range m.urls {
		res := validation.Validate(u)
		marker := successStyle.Render("✓")
		note := ""
		if !res.Valid {
			marker = errorStyle.Render("✗")
			note = "  " + errorStyle.Render(res.Message)
		} else if badge := sourceBadge(res.Category); badge != "" {
			note = "  " + badge
		}
		b.WriteString(fmt.Sprintf("%s %s %s%s\n",
			selectedMarkerStyle.Render(fmt.Sprintf("%d.", i+1)),
			marker,
			itemURLStyle.Render(truncateURL(u, 60)),
			note,
		))
	}
	if len(m.urls) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(fieldLabelStyle.Render("URL:"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if hint := renderValidationHint(m.input.Value()); hint != "" {
		b.WriteString(hint + "\n")
	}

	if m.err != nil {
		b.WriteString("\n" + renderInlineError(m.err) + "\n")
	}

	selected := -1
	if m.example >= 0 && m.input.Value() == exampleProfiles[m.example].URL {
		selected = m.example
	}
	b.WriteString("\n")
	b.WriteString(renderExamples(selected))

	b.WriteString("\n")
	b.WriteString(URLFormHelpContent())
	return b.String()
}
