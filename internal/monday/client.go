// Package monday provides a client for reading CRM boards from the Monday.com
// GraphQL API and mapping their items onto rooms, contracts and viewings.
package monday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultBaseURL is the Monday.com GraphQL endpoint.
	DefaultBaseURL = "https://api.monday.com/v2"

	apiVersion      = "2024-01"
	defaultPageSize = 100
	maxPageSize     = 500
	defaultTimeout  = 30 * time.Second
)

var (
	// ErrUnauthorized indicates the API token is missing, expired or lacks board access.
	ErrUnauthorized = errors.New("monday: unauthorized (API token invalid or lacks access)")
	// ErrRateLimited indicates the API complexity or rate budget was exhausted.
	ErrRateLimited = errors.New("monday: rate limited")
)

// Options tunes a Client. Zero values select defaults.
type Options struct {
	BaseURL  string
	PageSize int
	Timeout  time.Duration
	Retries  int
}

// Client reads boards from the Monday.com API.
type Client struct {
	http     *resty.Client
	pageSize int
}

// NewClient creates a client for the given API token.
// Returns nil if the token is empty.
func NewClient(token string, opts Options) *Client {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pageSize := opts.PageSize
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Authorization", token).
		SetHeader("API-Version", apiVersion).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "mhouse/1.0")

	return &Client{http: httpClient, pageSize: pageSize}
}

const itemFields = `cursor items { id name created_at updated_at column_values { id text value } }`

var (
	firstPageQuery = `query ($boardId: [ID!], $limit: Int!) {
  boards(ids: $boardId) { items_page(limit: $limit) { ` + itemFields + ` } }
}`
	nextPageQuery = `query ($cursor: String!, $limit: Int!) {
  next_items_page(cursor: $cursor, limit: $limit) { ` + itemFields + ` }
}`
	boardsQuery = `query ($ids: [ID!]) {
  boards(ids: $ids) { id name updated_at items_count }
}`
)

// BoardItems returns every item on a board, following cursor pagination.
// Items fetched before a failing page are returned along with the error.
func (c *Client) BoardItems(ctx context.Context, boardID string) ([]Item, error) {
	var first struct {
		Boards []struct {
			ItemsPage itemsPage `json:"items_page"`
		} `json:"boards"`
	}
	vars := map[string]any{"boardId": []string{boardID}, "limit": c.pageSize}
	if err := c.query(ctx, firstPageQuery, vars, &first); err != nil {
		return nil, fmt.Errorf("board %s: %w", boardID, err)
	}
	if len(first.Boards) == 0 {
		return nil, fmt.Errorf("monday: board %s not found", boardID)
	}

	page := first.Boards[0].ItemsPage
	items := page.Items
	for page.Cursor != "" && len(page.Items) > 0 {
		var next struct {
			Page itemsPage `json:"next_items_page"`
		}
		vars := map[string]any{"cursor": page.Cursor, "limit": c.pageSize}
		if err := c.query(ctx, nextPageQuery, vars, &next); err != nil {
			return items, fmt.Errorf("board %s: %w", boardID, err)
		}
		page = next.Page
		items = append(items, page.Items...)
	}
	return items, nil
}

// Boards returns name, last update and item count for the given boards.
func (c *Client) Boards(ctx context.Context, ids []string) ([]Board, error) {
	var out struct {
		Boards []Board `json:"boards"`
	}
	if err := c.query(ctx, boardsQuery, map[string]any{"ids": ids}, &out); err != nil {
		return nil, err
	}
	return out.Boards, nil
}

// query posts a GraphQL request and decodes its data into out.
func (c *Client) query(ctx context.Context, query string, vars map[string]any, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(graphQLRequest{Query: query, Variables: vars}).
		Post("")
	if err != nil {
		return fmt.Errorf("monday: request failed: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("monday: unexpected status %d", resp.StatusCode())
	}

	var body graphQLResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return fmt.Errorf("monday: parsing response: %w", err)
	}
	if err := body.err(); err != nil {
		return err
	}
	if len(body.Data) == 0 {
		return errors.New("monday: empty response data")
	}
	if err := json.Unmarshal(body.Data, out); err != nil {
		return fmt.Errorf("monday: parsing data: %w", err)
	}
	return nil
}
