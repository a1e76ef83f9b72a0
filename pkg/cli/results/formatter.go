package results

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"profile-extract-go/pkg/models"
)

// GetName returns the extracted name of an item, or a placeholder
func GetName(it models.Item) string {
	if it.Result != nil && it.Result.Name != "" {
		return it.Result.Name
	}
	return "-"
}

// TruncateURL truncates a URL to the specified max length
func TruncateURL(url string, maxLen int) string {
	if len(url) <= maxLen {
		return url
	}
	return url[:maxLen-3] + "..."
}

// ShortenID returns a shortened version of a UUID (first 8 characters + "...")
func ShortenID(id uuid.UUID) string {
	return id.String()[:8] + "..."
}

// FormatDate formats a time as a readable date string
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}

// FormatDuration renders d as "850ms", "4.2s" or "1m05s".
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		m := int(d / time.Minute)
		s := int((d % time.Minute) / time.Second)
		return fmt.Sprintf("%dm%02ds", m, s)
	}
}
