package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ImportResult mirrors transfer.Result without importing the transfer package
// (which would pull in the storage drivers).
type ImportResult struct {
	Source           string `json:"source"`
	FileHash         string `json:"fileHash"`
	WorkoutsReceived int    `json:"workoutsReceived"`
	WorkoutsInserted int    `json:"workoutsInserted"`
}

// StatusError is a non-200 answer from the server.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("import failed (status %d): %s", e.Code, e.Body)
}

// Permanent reports whether retrying the same request cannot succeed.
func (e *StatusError) Permanent() bool {
	return e.Code >= 400 && e.Code < 500
}

// Client sends export files to a kettlebell server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    func(attempt int) time.Duration
}

// NewClient creates a new HTTP client for the kettlebell server. apiKey may be
// empty when the server runs without one.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt-1)) * time.Second
		},
	}
}

// SendExport POSTs one export document to the server's import endpoint.
// Network errors and 5xx answers are retried up to 3 times with exponential
// backoff; 4xx answers are returned immediately.
func (c *Client) SendExport(ctx context.Context, source string, data []byte) (ImportResult, error) {
	endpoint := c.serverURL + "/api/v1/import?" + url.Values{"source": {source}}.Encode()

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ImportResult{}, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		res, err := c.post(ctx, endpoint, data)
		if err == nil {
			return res, nil
		}
		var se *StatusError
		if errors.As(err, &se) && se.Permanent() {
			return ImportResult{}, err
		}
		lastErr = err
	}

	return ImportResult{}, fmt.Errorf("after 3 attempts: %w", lastErr)
}

func (c *Client) post(ctx context.Context, endpoint string, data []byte) (ImportResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return ImportResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ImportResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return ImportResult{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var res ImportResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return ImportResult{}, fmt.Errorf("decoding import result: %w", err)
	}
	return res, nil
}
