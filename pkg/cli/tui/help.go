package tui

import (
	"fmt"
	"strings"
)

// HelpItem represents a single keyboard shortcut and its description
type HelpItem struct {
	Key         string
	Description string
}

// RootMenuHelpContent returns help for root menu
func RootMenuHelpContent() string {
	items := []HelpItem{
		{"1-3", "Select menu option"},
		{"q / Esc", "Quit"},
		{"?", "Show this help"},
	}
	return renderHelpItems(items)
}

// URLFormHelpContent returns help for the URL entry forms
func URLFormHelpContent() string {
	items := []HelpItem{
		{"Enter", "Add URL / start when the input is empty"},
		{"Tab / Shift+Tab", "Fill in an example profile"},
		{"Ctrl+D", "Remove the last URL"},
		{"Esc", "Back to menu"},
		{"Ctrl+C", "Quit"},
	}
	return renderHelpItems(items)
}

// BatchRunHelpContent returns help for the batch progress view
func BatchRunHelpContent(done bool) string {
	if !done {
		return renderHelpItems([]HelpItem{
			{"Esc / x", "Cancel (running items finish)"},
			{"Ctrl+C", "Quit now"},
		})
	}
	return renderHelpItems([]HelpItem{
		{"↑ / ↓ / PgUp / PgDn", "Scroll results"},
		{"c", "Copy results as CSV"},
		{"m / Esc", "Return to menu"},
		{"q", "Quit"},
	})
}

// renderHelpItems formats help items into a readable string
func renderHelpItems(items []HelpItem) string {
	var b strings.Builder
	for _, item := range items {
		keyStyle := boldStyle.Foreground(accent)
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			keyStyle.Render(item.Key),
			item.Description))
	}
	return b.String()
}
