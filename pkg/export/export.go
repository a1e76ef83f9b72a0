// Package export renders batch results for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"profile-extract-go/pkg/models"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatSchema Format = "schema"
	FormatText   Format = "text"
)

// ParseFormat accepts the format names used by the CLI and the API.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatSchema, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Extension returns the file extension for f.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatText:
		return ".txt"
	default:
		return ".json"
	}
}

// Write encodes res in format f.
func Write(w io.Writer, f Format, res *models.BatchResult) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, res)
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatSchema:
		return WriteSchemaOrg(w, res)
	case FormatText:
		return WriteText(w, res)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// CSVHeader is the column layout of the tabular export.
var CSVHeader = []string{"URL", "Status", "Name", "JobTitle", "Company", "Confidence"}

// WriteCSV writes one row per item in insertion order.
func WriteCSV(w io.Writer, res *models.BatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, it := range res.Items {
		row := []string{it.Input, StatusLabel(it.Item), "", "", "", FormatConfidence(it.Confidence)}
		if it.Result != nil {
			row[2] = it.Result.Name
			row[3] = it.Result.JobTitle
			row[4] = it.Result.Company
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// StatusLabel is the human status shown in tables and CSV rows.
func StatusLabel(it models.Item) string {
	switch it.Status {
	case models.ItemCompleted:
		return "Success"
	case models.ItemFailed:
		return "Error"
	case models.ItemProcessing:
		return "Processing"
	default:
		return "Skipped"
	}
}

// FormatConfidence renders a confidence as a rounded percentage, or N/A.
func FormatConfidence(c *float64) string {
	if c == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d%%", int(math.Round(*c*100)))
}

// WriteJSON writes the full result structure.
func WriteJSON(w io.Writer, res *models.BatchResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// SchemaOrgPerson maps a profile to a schema.org Person document.
func SchemaOrgPerson(p models.Profile) map[string]any {
	doc := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Person",
		"name":     p.Name,
		"jobTitle": p.JobTitle,
		"url":      p.SourceURL,
	}
	if p.Company != "" {
		doc["worksFor"] = map[string]any{"@type": "Organization", "name": p.Company}
	}
	if p.Location != "" {
		doc["address"] = map[string]any{"@type": "PostalAddress", "addressLocality": p.Location}
	}
	if p.Description != "" {
		doc["description"] = p.Description
	}
	if len(p.Skills) > 0 {
		doc["knowsAbout"] = p.Skills
	}
	if !p.GeneratedAt.IsZero() {
		doc["dateCreated"] = p.GeneratedAt.UTC().Format(time.RFC3339)
	}
	return doc
}

// WriteSchemaOrg writes an array of Person documents for completed items.
func WriteSchemaOrg(w io.Writer, res *models.BatchResult) error {
	people := make([]map[string]any, 0, res.SuccessCount)
	for _, it := range res.Items {
		if it.Status == models.ItemCompleted && it.Result != nil {
			people = append(people, SchemaOrgPerson(*it.Result))
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(people)
}

// ProfileText renders a profile as shareable plain text.
func ProfileText(p models.Profile) string {
	var b strings.Builder
	if p.Name != "" {
		b.WriteString(p.Name + "\n")
	}
	b.WriteString(p.JobTitle)
	if p.Company != "" {
		b.WriteString(" at " + p.Company)
	}
	b.WriteString("\n\n")
	if p.Description != "" {
		b.WriteString(p.Description + "\n\n")
	}
	if len(p.Skills) > 0 {
		b.WriteString("Key Skills: " + strings.Join(p.Skills, " • ") + "\n\n")
	}
	if p.SourceURL != "" {
		b.WriteString("Source: " + p.SourceURL + "\n")
	}
	return b.String()
}

// WriteText writes ProfileText for every completed item, separated by a rule.
func WriteText(w io.Writer, res *models.BatchResult) error {
	first := true
	for _, it := range res.Items {
		if it.Status != models.ItemCompleted || it.Result == nil {
			continue
		}
		if !first {
			if _, err := io.WriteString(w, strings.Repeat("─", 40)+"\n\n"); err != nil {
				return err
			}
		}
		first = false
		if _, err := io.WriteString(w, ProfileText(*it.Result)); err != nil {
			return err
		}
	}
	return nil
}
