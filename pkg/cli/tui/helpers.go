package tui

import (
	"fmt"
	"strings"
	"time"

	"profile-extract-go/pkg/export"
	"profile-extract-go/pkg/models"
	"profile-extract-go/pkg/scraper"
	"profile-extract-go/pkg/validation"
)

// renderErrorView renders a standard error view with exit message
func renderErrorView(err error) string {
	return "\n" + renderError(fmt.Sprintf("Error: %v", err)) + "\n\n" +
		helpStyle.Render("Press m for the menu or q to quit.") + "\n"
}

// renderInlineError renders an error message inline (without full error view formatting)
func renderInlineError(err error) string {
	if err == nil {
		return ""
	}
	return renderError(err.Error())
}

// truncateURL truncates a URL to the specified max length
func truncateURL(url string, maxLen int) string {
	if len(url) <= maxLen {
		return url
	}
	return url[:maxLen-3] + "..."
}

// wrapText wraps text to a specified width, breaking at word boundaries
func wrapText(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return indent + "\n"
	}

	var b strings.Builder
	line := ""
	for _, word := range words {
		if len(line)+len(word)+1 > width {
			b.WriteString(fmt.Sprintf("%s%s\n", indent, line))
			line = word
		} else {
			if line != "" {
				line += " "
			}
			line += word
		}
	}
	if line != "" {
		b.WriteString(fmt.Sprintf("%s%s\n", indent, line))
	}
	return b.String()
}

// handleQuitKeys checks if a key should quit the current view
func handleQuitKeys(key string) bool {
	switch key {
	case "ctrl+c", "q", "esc":
		return true
	}
	return false
}

// statusIcon returns the marker shown in front of an item row
func statusIcon(it models.Item) string {
	if mark, ok := itemMarks[it.Status]; ok {
		return mark
	}
	return itemMarks[models.ItemPending]
}

// renderItemRow renders one item as "icon url  detail"
func renderItemRow(it models.Item, width int) string {
	detail := ""
	switch it.Status {
	case models.ItemCompleted:
		if it.Result != nil {
			detail = itemNameStyle.Render(it.Result.Name) + " " + mutedStyle.Render(export.FormatConfidence(it.Confidence))
		}
	case models.ItemFailed:
		detail = errorStyle.Render(it.Error)
	case models.ItemPending:
		detail = mutedStyle.Render("waiting")
	}

	urlWidth := width - 30
	if urlWidth < 20 {
		urlWidth = 20
	}
	return fmt.Sprintf("%s %s  %s", statusIcon(it), itemURLStyle.Render(truncateURL(it.Input, urlWidth)), detail)
}

// renderStageSteps renders the loading steps of one item: finished stages
// are checked, the active one carries the spinner, the rest are dimmed.
func renderStageSteps(tracker *scraper.Tracker, step int, spin string, activeElapsed time.Duration) string {
	view := tracker.Project(step)

	var b strings.Builder
	for _, s := range view.Done {
		b.WriteString(fmt.Sprintf("  %s %s\n", successStyle.Render("✓"), s.Title))
	}
	if view.Active != nil {
		b.WriteString(fmt.Sprintf("  %s %s\n", spin, stageActiveStyle.Render(view.Active.Title)))
		b.WriteString(fmt.Sprintf("    %s\n", mutedStyle.Render(view.Active.Description)))
	}
	for _, s := range view.Pending {
		b.WriteString(fmt.Sprintf("  %s %s\n", stagePendingStyle.Render("○"), stagePendingStyle.Render(s.Title)))
	}

	if !view.Complete() {
		left := tracker.Remaining(step, activeElapsed)
		b.WriteString(helpStyle.Render(fmt.Sprintf("  About %.1fs remaining", left.Seconds())) + "\n")
	}
	return b.String()
}

// renderValidationHint shows what validation thinks of the current input
func renderValidationHint(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	res := validation.Validate(raw)
	if !res.Valid {
		return renderError(res.Message)
	}

	var b strings.Builder
	b.WriteString(sourceBadge(res.Category))
	for _, w := range res.Warnings {
		b.WriteString("\n" + renderWarning(w))
	}
	return b.String()
}

// renderProfileCard renders the extracted profile of a completed item
func renderProfileCard(it models.Item) string {
	if it.Result == nil {
		return ""
	}
	p := it.Result

	var b strings.Builder
	b.WriteString(itemNameStyle.Render(p.Name))
	if badge := sourceBadge(p.Source); badge != "" {
		b.WriteString("  " + badge)
	}
	b.WriteString("\n")

	b.WriteString(fieldLabelStyle.Render("Title:"))
	b.WriteString(fmt.Sprintf(" %s\n", p.JobTitle))
	b.WriteString(fieldLabelStyle.Render("Company:"))
	b.WriteString(fmt.Sprintf(" %s\n", p.Company))
	if p.Location != "" {
		b.WriteString(fieldLabelStyle.Render("Location:"))
		b.WriteString(fmt.Sprintf(" %s\n", p.Location))
	}
	if len(p.Skills) > 0 {
		b.WriteString(fieldLabelStyle.Render("Skills:"))
		b.WriteString(fmt.Sprintf(" %s\n", strings.Join(p.Skills, ", ")))
	}
	b.WriteString(fieldLabelStyle.Render("Confidence:"))
	b.WriteString(fmt.Sprintf(" %s\n", export.FormatConfidence(it.Confidence)))
	if p.Description != "" {
		b.WriteString("\n")
		b.WriteString(wrapText(p.Description, 60, ""))
	}

	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}
