package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"profile-extract-go/pkg/scraper"
	"profile-extract-go/pkg/validation"
)

func (a *App) newScraperCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scraper",
		Short: "Talk to the remote scraper service used when scraper.mode=remote",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "check",
			Short: "Check that the scraper service is reachable",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.checkScraper(cmd.Context(), cmd)
			},
		},
		&cobra.Command{
			Use:   "fetch URL",
			Short: "Fetch one page through the scraper service",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.HandleScrapeCommand(cmd.Context(), cmd, args[0])
			},
		},
	)

	return cmd
}

func (a *App) scraperService() *scraper.ScraperService {
	timeout := time.Duration(a.cfg.Scraper.TimeoutSeconds) * time.Second
	return scraper.NewScraperService(a.cfg.Scraper.BaseURL, timeout)
}

func (a *App) checkScraper(ctx context.Context, cmd *cobra.Command) error {
	svc := a.scraperService()

	cmd.Printf("⏳ Checking scraper service at %s... ", svc.BaseURL())
	if err := svc.CheckHealth(ctx); err != nil {
		cmd.Println("✗")

		// Provide helpful guidance for connection errors
		errStr := err.Error()
		if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "dial tcp") {
			return fmt.Errorf("scraper service unavailable: %w\n\n"+
				"💡 Start the scraper service or point scraper.base_url at a running one:\n"+
				"   profile-extract config set scraper.base_url=http://localhost:3000", err)
		}

		return fmt.Errorf("scraper service unavailable: %s", scraper.UserMessage(err))
	}
	cmd.Println("✓")
	return nil
}

// HandleScrapeCommand fetches one URL through the scraper service and prints
// what came back
func (a *App) HandleScrapeCommand(ctx context.Context, cmd *cobra.Command, urlStr string) error {
	res := validation.Validate(urlStr)
	if !res.Valid {
		return fmt.Errorf("invalid URL: %s", res.Message)
	}

	if err := a.checkScraper(ctx, cmd); err != nil {
		return err
	}

	cmd.Println("⏳ Scraping URL... (this may take a few seconds)")
	result, err := a.scraperService().Scrape(ctx, res.Normalized, a.cfg.Scraper.TimeoutSeconds)
	if err != nil {
		return fmt.Errorf("scraping failed: %s", scraper.UserMessage(err))
	}

	cmd.Println("\n✓ Scraping successful!")
	cmd.Printf("\nURL: %s\n", result.URL)
	if result.Title != "" {
		cmd.Printf("Title: %s\n", result.Title)
	} else {
		cmd.Println("Title: (no title)")
	}
	if result.Text != "" {
		cmd.Printf("Text: %s\n", truncateText(result.Text, 500))
		if len(result.Text) > 500 {
			cmd.Printf("\n(Text truncated, full length: %d characters)\n", len(result.Text))
		}
	} else {
		cmd.Println("Text: (no text content)")
	}

	return nil
}

// truncateText truncates text to a maximum length, adding ellipsis if truncated
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
