// Package upbank is a minimal client for the Up Bank REST API, covering the
// resources the sync reads: accounts, categories and single transactions.
package upbank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production Up API endpoint.
const DefaultBaseURL = "https://api.up.com.au/api/v1"

// ErrNotFound is returned when the requested resource does not exist.
var ErrNotFound = fmt.Errorf("upbank: resource not found")

// Client talks to the Up Bank API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used in tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new Up API client authenticated with the given token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type listResponse[T any] struct {
	Data  []T `json:"data"`
	Links struct {
		Next *string `json:"next"`
	} `json:"links"`
}

type singleResponse[T any] struct {
	Data T `json:"data"`
}

// ListAccounts fetches all accounts, following pagination links until the
// last page.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	return listAll[Account](ctx, c, c.baseURL+"/accounts")
}

// ListCategories fetches all categories, following pagination links until the
// last page.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	return listAll[Category](ctx, c, c.baseURL+"/categories")
}

// GetTransaction fetches a single transaction by id.
// It returns ErrNotFound when the transaction does not exist.
func (c *Client) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	body, err := c.get(ctx, c.baseURL+"/transactions/"+id)
	if err != nil {
		return nil, err
	}

	var resp singleResponse[Transaction]
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("upbank: decoding transaction %s: %w", id, err)
	}
	return &resp.Data, nil
}

func listAll[T any](ctx context.Context, c *Client, url string) ([]T, error) {
	var all []T
	for url != "" {
		body, err := c.get(ctx, url)
		if err != nil {
			return nil, err
		}

		var page listResponse[T]
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("upbank: decoding list page: %w", err)
		}

		all = append(all, page.Data...)

		url = ""
		if page.Links.Next != nil {
			url = *page.Links.Next
		}
	}
	return all, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("upbank: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upbank: GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("upbank: reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("upbank: GET %s: status %d: %s", url, resp.StatusCode, string(body))
	}

	return body, nil
}
