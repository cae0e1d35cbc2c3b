// Package client provides HTTP clients for the external services the
// budgeting API depends on: the identity service, the core service, the
// transaction aggregator and the notification webhook.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrUnauthorized is returned when the remote service rejects the credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAccountNotFound is returned when a linked account id is unknown.
	ErrAccountNotFound = errors.New("linked account not found")
)

// doJSON sends body (when non-nil) as JSON and decodes a 200 response into out.
// 401 and 403 map to ErrUnauthorized.
func doJSON(ctx context.Context, httpClient *http.Client, method, url string, headers map[string]string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return resp.StatusCode, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
