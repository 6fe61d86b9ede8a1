// Package lunchmoney is a minimal client for the Lunch Money developer API,
// covering assets, categories and transaction ingestion.
package lunchmoney

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production Lunch Money API endpoint.
const DefaultBaseURL = "https://dev.lunchmoney.app/v1"

// Client talks to the Lunch Money API.
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

// NewClient creates a new Lunch Money API client authenticated with the given
// token.
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

// ListAssets fetches all assets.
func (c *Client) ListAssets(ctx context.Context) ([]Asset, error) {
	var resp struct {
		Assets []Asset `json:"assets"`
	}
	if err := c.do(ctx, http.MethodGet, "/assets", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Assets, nil
}

// CreateAsset creates a new asset and returns its id.
func (c *Client) CreateAsset(ctx context.Context, req CreateAssetRequest) (int, error) {
	var resp struct {
		AssetID int `json:"asset_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/assets", req, &resp); err != nil {
		return 0, err
	}
	return resp.AssetID, nil
}

// ListCategories fetches all categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var resp struct {
		Categories []Category `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

// CreateCategory creates a new category and returns its id.
func (c *Client) CreateCategory(ctx context.Context, req CreateCategoryRequest) (int, error) {
	var resp struct {
		CategoryID int `json:"category_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/categories", req, &resp); err != nil {
		return 0, err
	}
	return resp.CategoryID, nil
}

type insertRequest struct {
	Transactions      []Transaction `json:"transactions"`
	DebitAsNegative   bool          `json:"debit_as_negative"`
	ApplyRules        bool          `json:"apply_rules"`
	CheckForRecurring bool          `json:"check_for_recurring"`
}

// InsertTransactions submits transactions for ingestion. Lunch Money
// deduplicates by external_id per asset, which is what makes queue
// redelivery safe.
func (c *Client) InsertTransactions(ctx context.Context, txns []Transaction) error {
	req := insertRequest{
		Transactions:      txns,
		DebitAsNegative:   true,
		ApplyRules:        true,
		CheckForRecurring: true,
	}
	return c.do(ctx, http.MethodPost, "/transactions", req, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("lunchmoney: encoding request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("lunchmoney: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("lunchmoney: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("lunchmoney: reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lunchmoney: %s %s: status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("lunchmoney: decoding response: %w", err)
		}
	}
	return nil
}
