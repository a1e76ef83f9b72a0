package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"profile-extract-go/pkg/models"
)

// Adaptive colors keep the views readable on light terminals too.
var (
	accent  = lipgloss.AdaptiveColor{Light: "57", Dark: "62"}
	good    = lipgloss.AdaptiveColor{Light: "28", Dark: "42"}
	bad     = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	caution = lipgloss.AdaptiveColor{Light: "166", Dark: "214"}
	live    = lipgloss.AdaptiveColor{Light: "31", Dark: "39"}
	dim     = lipgloss.AdaptiveColor{Light: "247", Dark: "240"}
	rule    = lipgloss.AdaptiveColor{Light: "252", Dark: "238"}
	ink     = lipgloss.AdaptiveColor{Light: "235", Dark: "252"}
)

// sourceColors gives every platform its own badge background.
var sourceColors = map[models.SourceCategory]lipgloss.Color{
	models.CategoryLinkedIn: lipgloss.Color("25"),
	models.CategoryIMDB:     lipgloss.Color("178"),
	models.CategoryGitHub:   lipgloss.Color("236"),
	models.CategoryTwitter:  lipgloss.Color("32"),
	models.CategoryGeneric:  lipgloss.Color("60"),
}

var (
	base = lipgloss.NewStyle()

	boldStyle    = base.Bold(true)
	mutedStyle   = base.Foreground(dim)
	helpStyle    = mutedStyle.Italic(true)
	successStyle = boldStyle.Foreground(good)
	errorStyle   = boldStyle.Foreground(bad)
	infoStyle    = base.Foreground(live)

	titleStyle          = boldStyle.Foreground(accent).MarginBottom(1)
	selectedMarkerStyle = boldStyle.Foreground(accent)
	fieldLabelStyle     = selectedMarkerStyle.MarginRight(2)

	itemIDStyle   = boldStyle.Foreground(lipgloss.Color("244"))
	itemNameStyle = boldStyle.Foreground(ink)
	itemURLStyle  = mutedStyle.Italic(true)

	stageActiveStyle  = boldStyle.Foreground(live)
	stagePendingStyle = mutedStyle

	badgeStyle = base.Foreground(lipgloss.Color("255")).Padding(0, 1)
	cardStyle  = base.Border(lipgloss.RoundedBorder()).BorderForeground(rule).Padding(0, 1)
)

// itemMarks is the glyph drawn in front of an item row for each status.
var itemMarks = map[models.ItemStatus]string{
	models.ItemPending:    mutedStyle.Render("○"),
	models.ItemProcessing: infoStyle.Render("●"),
	models.ItemCompleted:  successStyle.Render("✓"),
	models.ItemFailed:     errorStyle.Render("✗"),
}

// sourceBadge renders the platform label of c, or "" for an unknown category.
func sourceBadge(c models.SourceCategory) string {
	label := c.Label()
	if label == "" {
		return ""
	}
	return badgeStyle.Background(sourceColors[c]).Render(label)
}

func renderTitle(title string) string {
	return "\n" + titleStyle.Render(title) + "\n"
}

func renderSuccess(msg string) string {
	return successStyle.Render("✓ " + msg)
}

func renderError(msg string) string {
	return errorStyle.Render("❌ " + msg)
}

func renderWarning(msg string) string {
	return base.Foreground(caution).Render("⚠️  " + msg)
}

func renderDivider(length int) string {
	return base.Foreground(rule).Render(strings.Repeat("─", length))
}
