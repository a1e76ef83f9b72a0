package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// ScraperService talks to an external page-scraping service
type ScraperService struct {
	baseURL string
	client  *http.Client
}

func NewScraperService(baseURL string, timeout time.Duration) *ScraperService {
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &ScraperService{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the service address.
func (s *ScraperService) BaseURL() string {
	return s.baseURL
}

// CheckHealth verifies the service is available
func (s *ScraperService) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newServiceUnavailableError(fmt.Errorf("service unhealthy: status %d", resp.StatusCode))
	}

	return nil
}

// Scrape scrapes a single URL. timeoutSeconds is forwarded to the service.
func (s *ScraperService) Scrape(ctx context.Context, url string, timeoutSeconds int) (*ScrapeResponse, error) {
	reqBody := ScrapeRequest{
		URL:     url,
		Timeout: timeoutSeconds,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/scrape", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newNetworkError(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, newServiceUnavailableError(fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newInvalidResponseError(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var result ScrapeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, newInvalidResponseError("failed to decode response", err)
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "scraper reported failure"
		}
		return &result, newExtractionError(msg)
	}

	return &result, nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return contextError(ctx)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newTimeoutError(err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return newServiceUnavailableError(err)
	}
	return newNetworkError(err)
}
