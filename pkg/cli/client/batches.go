package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"profile-extract-go/pkg/models"
	"profile-extract-go/pkg/validation"
)

// RunOptions mirrors the optional body of the run endpoint.
type RunOptions struct {
	MaxConcurrent    int     `json:"max_concurrent,omitempty"`
	PerItemTimeoutMS int     `json:"per_item_timeout_ms,omitempty"`
	RateLimit        float64 `json:"rate_limit,omitempty"`
}

// Health checks that the API is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.doGetRequest(ctx, "/health", nil)
}

// Validate runs server-side validation for one URL.
func (c *Client) Validate(ctx context.Context, rawURL string) (*validation.Result, error) {
	var res validation.Result
	payload := map[string]string{"url": rawURL}
	if err := c.doJSONRequest(ctx, http.MethodPost, "/api/v1/validate", payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListBatches retrieves every batch snapshot
func (c *Client) ListBatches(ctx context.Context) ([]models.BatchSnapshot, error) {
	var batches []models.BatchSnapshot
	if err := c.doGetRequest(ctx, "/api/v1/batches", &batches); err != nil {
		return nil, err
	}
	return batches, nil
}

// CreateBatch creates an idle batch from urls
func (c *Client) CreateBatch(ctx context.Context, mode models.Mode, urls []string) (*models.BatchSnapshot, error) {
	var snap models.BatchSnapshot
	payload := map[string]interface{}{"mode": mode, "urls": urls}
	if err := c.doJSONRequest(ctx, http.MethodPost, "/api/v1/batches", payload, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// UploadBatch creates a batch from a URL list file
func (c *Client) UploadBatch(ctx context.Context, mode models.Mode, filename string, r io.Reader) (*models.BatchSnapshot, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish upload: %w", err)
	}

	path := "/api/v1/batches/upload?mode=" + url.QueryEscape(string(mode))
	req, err := c.buildRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var snap models.BatchSnapshot
	if err := c.doRequest(req, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetBatch retrieves a batch snapshot by ID
func (c *Client) GetBatch(ctx context.Context, id uuid.UUID) (*models.BatchSnapshot, error) {
	var snap models.BatchSnapshot
	path := fmt.Sprintf("/api/v1/batches/%s", id.String())
	if err := c.doGetRequest(ctx, path, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// AddItem appends a URL to an idle batch
func (c *Client) AddItem(ctx context.Context, id uuid.UUID, rawURL string) (*models.Item, error) {
	var item models.Item
	path := fmt.Sprintf("/api/v1/batches/%s/items", id.String())
	payload := map[string]string{"url": rawURL}
	if err := c.doJSONRequest(ctx, http.MethodPost, path, payload, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes a pending item from an idle batch
func (c *Client) RemoveItem(ctx context.Context, id, itemID uuid.UUID) error {
	path := fmt.Sprintf("/api/v1/batches/%s/items/%s", id.String(), itemID.String())
	return c.doDeleteRequest(ctx, path)
}

// RunBatch starts processing a batch on the server
func (c *Client) RunBatch(ctx context.Context, id uuid.UUID, opts RunOptions) (*models.BatchSnapshot, error) {
	var snap models.BatchSnapshot
	path := fmt.Sprintf("/api/v1/batches/%s/run", id.String())
	if err := c.doJSONRequest(ctx, http.MethodPost, path, opts, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// CancelBatch raises the cancel signal of a running batch
func (c *Client) CancelBatch(ctx context.Context, id uuid.UUID) (*models.BatchSnapshot, error) {
	var snap models.BatchSnapshot
	path := fmt.Sprintf("/api/v1/batches/%s/cancel", id.String())
	if err := c.doJSONRequest(ctx, http.MethodPost, path, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetResult retrieves the final result of a finished batch
func (c *Client) GetResult(ctx context.Context, id uuid.UUID) (*models.BatchResult, error) {
	var res models.BatchResult
	path := fmt.Sprintf("/api/v1/batches/%s/result", id.String())
	if err := c.doGetRequest(ctx, path, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Export downloads the result of a finished batch in format.
func (c *Client) Export(ctx context.Context, id uuid.UUID, format string) ([]byte, error) {
	path := fmt.Sprintf("/api/v1/batches/%s/export?format=%s", id.String(), url.QueryEscape(format))
	req, err := c.buildRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return c.send(req)
}

// DeleteBatch deletes a batch by ID
func (c *Client) DeleteBatch(ctx context.Context, id uuid.UUID) error {
	path := fmt.Sprintf("/api/v1/batches/%s", id.String())
	return c.doDeleteRequest(ctx, path)
}

// WaitBatch polls until the batch is done and returns its result. onPoll,
// when set, receives every snapshot.
func (c *Client) WaitBatch(ctx context.Context, id uuid.UUID, interval time.Duration, onPoll func(models.BatchSnapshot)) (*models.BatchResult, error) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snap, err := c.GetBatch(ctx, id)
		if err != nil {
			return nil, err
		}
		if onPoll != nil {
			onPoll(*snap)
		}
		if snap.Status == models.BatchDone {
			return c.GetResult(ctx, id)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
