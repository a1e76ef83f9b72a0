package scraper

import "time"

// ScrapeRequest represents a request to scrape a URL
type ScrapeRequest struct {
	URL     string `json:"url"`
	Timeout int    `json:"timeout,omitempty"`
}

// ScrapeResponse represents the response from a scrape operation
type ScrapeResponse struct {
	Success     bool   `json:"success"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	ExtractedAt string `json:"extracted_at"`
	Error       string `json:"error,omitempty"`
}

// ScrapeStage names one step of the processing pipeline
type ScrapeStage string

const (
	StageFetching   ScrapeStage = "fetching"
	StageAnalyzing  ScrapeStage = "analyzing"
	StageExtracting ScrapeStage = "extracting"
	StageComplete   ScrapeStage = "complete"
)

// Stage is one named step with a display label and a nominal duration.
// Index is 1-based and assigned by the Tracker.
type Stage struct {
	Name        ScrapeStage   `json:"name"`
	Index       int           `json:"index"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Estimate    time.Duration `json:"estimate"`
}

// DefaultStages returns the fetch, analyze and extract stages shown while a
// profile is being built.
func DefaultStages() []Stage {
	return []Stage{
		{Name: StageFetching, Title: "Scraping URL", Description: "Fetching webpage content", Estimate: 1500 * time.Millisecond},
		{Name: StageAnalyzing, Title: "Analyzing Content", Description: "Processing HTML structure", Estimate: 1000 * time.Millisecond},
		{Name: StageExtracting, Title: "Extracting Data", Description: "AI-powered profile analysis", Estimate: 2000 * time.Millisecond},
	}
}
