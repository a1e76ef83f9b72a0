package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is an HTTP client for the profile extraction API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// NewClient creates a new API client
func NewClient(baseURL, apiKey string) *Client {
	// Remove trailing slash from base URL
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// buildRequest creates an HTTP request with proper headers
func (c *Client) buildRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := fmt.Sprintf("%s%s", c.baseURL, path)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	// Only set Authorization header if API key is provided
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	return req, nil
}

// send performs the request and returns the body of a 2xx response.
func (c *Client) send(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errorResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: errorResp.Error}
		}
		errorMsg := string(body)
		if errorMsg == "" {
			errorMsg = resp.Status
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMsg}
	}

	return body, nil
}

// doRequest performs an HTTP request and decodes a JSON response into result
func (c *Client) doRequest(req *http.Request, result interface{}) error {
	body, err := c.send(req)
	if err != nil {
		return err
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// doJSONRequest performs a JSON request (POST, PUT, PATCH)
func (c *Client) doJSONRequest(ctx context.Context, method, path string, payload interface{}, result interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := c.buildRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	return c.doRequest(req, result)
}

// doGetRequest performs a GET request
func (c *Client) doGetRequest(ctx context.Context, path string, result interface{}) error {
	req, err := c.buildRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	return c.doRequest(req, result)
}

// doDeleteRequest performs a DELETE request
func (c *Client) doDeleteRequest(ctx context.Context, path string) error {
	req, err := c.buildRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}

	return c.doRequest(req, nil)
}
