// Package remote uploads finished tests to a yetype server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yetype/yetype/internal/api"
	"github.com/yetype/yetype/internal/model"
)

var (
	// ErrUnauthorized is returned when the server rejects the token. The
	// client forgets its token when this happens.
	ErrUnauthorized = errors.New("not authorized")
	// ErrRejected is returned when the server refuses the request.
	ErrRejected = errors.New("request rejected by server")
	// ErrTooManyFilters mirrors the server's filter limit.
	ErrTooManyFilters = errors.New("too many filters")
	// ErrDisabled is returned when no server or token is configured.
	ErrDisabled = errors.New("sync is not configured")
)

// Client talks to the save and past-tests endpoints.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	token string
}

// NewClient returns a client for baseURL authenticating with token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		token:   token,
	}
}

// Enabled reports whether the client has a server and a token.
func (c *Client) Enabled() bool {
	if c == nil || c.baseURL == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != ""
}

// Save uploads a finished test.
func (c *Client) Save(ctx context.Context, r model.Result) error {
	path, err := api.SavePath(r.Mode)
	if err != nil {
		return err
	}
	req, err := api.NewSaveRequest(r)
	if err != nil {
		return err
	}
	var resp api.Response
	if err := c.post(ctx, path, req, &resp); err != nil {
		return err
	}
	return c.check(resp.Type)
}

// ListTests fetches one page of past tests from the server.
func (c *Client) ListTests(ctx context.Context, q model.PastTestsQuery) (model.PastTestsPage, error) {
	var resp api.PastTestsResponse
	if err := c.post(ctx, api.PastTestsPath, api.NewPastTestsRequest(q), &resp); err != nil {
		return model.PastTestsPage{}, err
	}
	if err := c.check(resp.Type); err != nil {
		return model.PastTestsPage{}, err
	}
	page := model.PastTestsPage{HasMore: resp.HasMore}
	for _, pt := range resp.Tests {
		r, err := pt.Result()
		if err != nil {
			page.Skipped++
			continue
		}
		page.Tests = append(page.Tests, r)
	}
	return page, nil
}

func (c *Client) check(t api.ResponseType) error {
	switch t {
	case api.Success:
		return nil
	case api.NotAuthorized:
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return ErrUnauthorized
	case api.TooManyFilters:
		return ErrTooManyFilters
	}
	return ErrRejected
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.mu.Lock()
	req.Header.Set("Authorization", "Bearer "+c.token)
	c.mu.Unlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %s", path, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", path, err)
	}
	return nil
}
