package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"profile-extract-go/pkg/batch"
	"profile-extract-go/pkg/ingest"
	"profile-extract-go/pkg/models"
)

// bulkFormModel asks for a URL list file and builds a bulk batch from it.
type bulkFormModel struct {
	limit int
	input textinput.Model
	err   error
}

func newBulkForm(limit int) *bulkFormModel {
	input := textinput.New()
	input.Placeholder = "urls.txt or urls.csv"
	input.Focus()
	input.CharLimit = 1024
	input.Width = 60

	return &bulkFormModel{
		limit: limit,
		input: input,
	}
}

// Init implements tea.Model.
func (m *bulkFormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *bulkFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m, func() tea.Msg { return MenuNavigationMsg{} }
		case "enter":
			b, err := m.load(strings.TrimSpace(m.input.Value()))
			if err != nil {
				m.err = err
				return m, nil
			}
			return m, func() tea.Msg { return StartBatchMsg{Batch: b} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *bulkFormModel) load(path string) (*batch.Batch, error) {
	if path == "" {
		return nil, fmt.Errorf("enter the path of a URL list")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	urls, err := ingest.ParseURLList(f, m.limit)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs found in %s", path)
	}
	return batch.FromInputs(models.ModeBulk, m.limit, urls)
}

// View implements tea.Model.
func (m *bulkFormModel) View() string {
	var b strings.Builder

	b.WriteString(renderTitle("Bulk upload"))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("One URL per line, or a CSV with a \"url\" column. Up to %d URLs.", m.limit)))
	b.WriteString("\n\n")
	b.WriteString(fieldLabelStyle.Render("File:"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n" + renderInlineError(m.err) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Enter to start, Esc for the menu."))
	b.WriteString("\n")
	return b.String()
}
