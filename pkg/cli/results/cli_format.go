package results

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"profile-extract-go/pkg/export"
	"profile-extract-go/pkg/models"
	"profile-extract-go/pkg/validation"
)

// FormatTableOutput formats a batch result as a table for CLI output
func FormatTableOutput(res *models.BatchResult) string {
	if res == nil || len(res.Items) == 0 {
		return "No items processed."
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(renderHeader(res))
	b.WriteString("\n")

	w := tabwriter.NewWriter(&b, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tURL\tStatus\tName\tSource\tConfidence")
	fmt.Fprintln(w, strings.Repeat("─", 3)+"\t"+strings.Repeat("─", 50)+"\t"+strings.Repeat("─", 10)+"\t"+strings.Repeat("─", 20)+"\t"+strings.Repeat("─", 10)+"\t"+strings.Repeat("─", 10))

	for i, pi := range res.Items {
		status := export.StatusLabel(pi.Item)
		if pi.Item.Status == models.ItemFailed && pi.Item.Reason != "" {
			status += " (" + string(pi.Item.Reason) + ")"
		}
		source := pi.Item.SourceCategory.Label()
		if source == "" {
			source = "-"
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			TruncateURL(pi.Item.Input, 50),
			status,
			GetName(pi.Item),
			source,
			export.FormatConfidence(pi.Item.Confidence),
		)
	}

	w.Flush()
	b.WriteString("\n")
	b.WriteString(FormatSummary(res))

	return b.String()
}

// FormatSummary renders the aggregate statistics of a result
func FormatSummary(res *models.BatchResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Total: %d  Processed: %d  Success: %d  Errors: %d  Skipped: %d\n",
		res.Total, res.ProcessedCount, res.SuccessCount, res.ErrorCount, res.SkippedCount))
	b.WriteString(fmt.Sprintf("Success rate: %.0f%%  Avg confidence: %.0f%%  Avg item: %s  Time: %s\n",
		res.SuccessRate*100, res.AvgConfidence*100, FormatDuration(res.AvgDuration()), FormatDuration(res.Duration())))

	if len(res.Categories) > 0 {
		cats := make([]string, 0, len(res.Categories))
		for c, n := range res.Categories {
			cat := fmt.Sprintf("%s %d", c.Label(), n)
			if st, ok := res.Sources[c]; ok && st.Processed > 0 {
				cat += fmt.Sprintf(" (%d/%d ok, %.0f%%)", st.Success, st.Processed, st.SuccessRate*100)
			}
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		b.WriteString("Sources: " + strings.Join(cats, ", ") + "\n")
	}
	if res.Cancelled {
		b.WriteString("⚠️  Run was cancelled; remaining items were skipped.\n")
	}

	return b.String()
}

// FormatValidation formats validation results, one URL per row
func FormatValidation(inputs []string, checked []validation.Result) string {
	var b strings.Builder

	w := tabwriter.NewWriter(&b, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "URL\tValid\tSource\tNotes")
	for i, res := range checked {
		valid := "✓"
		notes := strings.Join(res.Warnings, "; ")
		if !res.Valid {
			valid = "✗"
			notes = res.Message
		}
		source := res.Category.Label()
		if source == "" {
			source = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", TruncateURL(inputs[i], 60), valid, source, notes)
	}
	w.Flush()

	return b.String()
}

// FormatErrorMessage formats an error message consistently
func FormatErrorMessage(err error) string {
	return fmt.Sprintf("❌ Error: %v\n", err)
}

// renderHeader renders the result header line
func renderHeader(res *models.BatchResult) string {
	return fmt.Sprintf("Batch %s (%s)", ShortenID(res.BatchID), FormatDate(res.StartedAt))
}

// FormatBatchList formats batch snapshots as a table
func FormatBatchList(batches []models.BatchSnapshot) string {
	if len(batches) == 0 {
		return "No batches found.\n"
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tMode\tStatus\tItems\tProgress\tCreated")
	for _, s := range batches {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.0f%%\t%s\n",
			ShortenID(s.ID),
			s.Mode,
			s.Status,
			len(s.Items),
			s.OverallProgress,
			FormatDate(s.CreatedAt),
		)
	}
	w.Flush()
	b.WriteString(fmt.Sprintf("\nTotal: %d batch(es)\n", len(batches)))

	return b.String()
}
