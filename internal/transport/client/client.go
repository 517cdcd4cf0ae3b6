package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joshdurbin/url-mapper/internal/domain"
)

// Client represents an HTTP client for the URL mapper API
type Client struct {
	serverURL  string
	httpClient *http.Client
}

// NewClient creates a new URL mapper client
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Redirects are surfaced to the caller rather than followed
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// CreateURL registers a short code for a URL
func (c *Client) CreateURL(ctx context.Context, targetURL, shortCode string) (*domain.MappingView, error) {
	var view domain.MappingView
	req := domain.CreateMappingRequest{URL: targetURL, ShortCode: shortCode}
	if err := c.do(ctx, http.MethodPost, "/shorten", req, http.StatusCreated, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// RetrieveURL resolves a short code. The server counts this as an access.
func (c *Client) RetrieveURL(ctx context.Context, shortCode string) (*domain.MappingView, error) {
	var view domain.MappingView
	if err := c.do(ctx, http.MethodGet, codePath(shortCode), nil, http.StatusOK, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// UpdateURL points an existing short code at a new URL
func (c *Client) UpdateURL(ctx context.Context, shortCode, targetURL string) error {
	req := domain.UpdateMappingRequest{URL: targetURL}
	return c.do(ctx, http.MethodPut, codePath(shortCode), req, http.StatusOK, nil)
}

// DeleteURL deletes a short code
func (c *Client) DeleteURL(ctx context.Context, shortCode string) error {
	return c.do(ctx, http.MethodDelete, codePath(shortCode), nil, http.StatusOK, nil)
}

// Stats returns the full record, including the access count, without counting an access
func (c *Client) Stats(ctx context.Context, shortCode string) (*domain.MappingRecord, error) {
	var record domain.MappingRecord
	if err := c.do(ctx, http.MethodGet, codePath(shortCode)+"/stats", nil, http.StatusOK, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListURLs retrieves every mapping
func (c *Client) ListURLs(ctx context.Context) ([]*domain.MappingRecord, error) {
	var records []*domain.MappingRecord
	if err := c.do(ctx, http.MethodGet, "/shorten", nil, http.StatusOK, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func codePath(shortCode string) string {
	return "/shorten/" + url.PathEscape(shortCode)
}

func (c *Client) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return statusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// statusError turns an unexpected response into an error, keeping the server's message
func statusError(resp *http.Response) error {
	var msg domain.MessageResponse
	_ = json.NewDecoder(resp.Body).Decode(&msg)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, msg.Message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrDuplicateCode, msg.Message)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg.Message)
	}

	if msg.Message != "" {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, msg.Message)
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}
