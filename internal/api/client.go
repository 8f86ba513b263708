// Package api is the authenticated HTTP client for the Daily Price Tracker
// marketplace API. It attaches the session's bearer credential to every
// request and exposes typed methods for the remote endpoints; server errors
// are surfaced to callers unchanged.
package api

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

// Client represents an HTTP client for the marketplace API
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// New creates a new API client whose requests carry the current bearer
// credential from the given token source
func New(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &authTransport{
				base:   http.DefaultTransport,
				tokens: tokens,
			},
		},
	}
}

// SetHTTPClient sets a custom HTTP client. The credential-injecting
// transport is re-applied on top of the client's own transport.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	clone := *httpClient
	clone.Transport = &authTransport{base: base, tokens: c.tokens}
	c.httpClient = &clone
}

// StatusError is a non-2xx response from the API, passed through to the
// caller unchanged
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Body)
}

// RoleResponse is the payload of the role lookup endpoint
type RoleResponse struct {
	Role string `json:"role"`
}

// UserRole fetches the authorization role recorded for an email
func (c *Client) UserRole(ctx context.Context, email string) (string, error) {
	var resp RoleResponse
	if err := c.doJSON(ctx, http.MethodGet, "/users/role/"+url.PathEscape(email), nil, &resp); err != nil {
		return "", err
	}
	return resp.Role, nil
}

// doJSON issues one request and decodes the JSON response into out when
// non-nil. Non-2xx statuses become a *StatusError carrying the raw body.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
