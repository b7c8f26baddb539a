package main

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
)

// apiClient talks to the ledger HTTP API on behalf of one caller.
type apiClient struct {
	baseURL        string
	owner          string
	token          string
	idempotencyKey string
	http           *http.Client
}

func newAPIClient(baseURL, owner, token, idempotencyKey string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		owner:          owner,
		token:          token,
		idempotencyKey: idempotencyKey,
		http:           &http.Client{Timeout: timeout},
	}
}

const maxErrorLength = 200

// apiError is a non-2xx response.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("request failed (status %d): %s", e.Status, e.Message)
}

// do sends body as JSON and returns the raw response body.
func (c *apiClient) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.owner != "" {
		req.Header.Set("X-Owner-ID", c.owner)
	}
	if c.idempotencyKey != "" && method != http.MethodGet {
		req.Header.Set("Idempotency-Key", c.idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		msg := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
			msg = e.Error
			if e.Message != "" {
				msg += ": " + e.Message
			}
		}
		return nil, &apiError{Status: resp.StatusCode, Message: truncate(msg, maxErrorLength)}
	}

	return respBody, nil
}
