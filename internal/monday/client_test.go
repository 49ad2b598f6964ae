package monday

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient("tok-abc", Options{BaseURL: srv.URL, PageSize: 2})
	if c == nil {
		t.Fatal("NewClient returned nil for a non-empty token")
	}
	return c
}

func TestNewClient_EmptyToken(t *testing.T) {
	if c := NewClient("  ", Options{}); c != nil {
		t.Fatal("NewClient with blank token should return nil")
	}
}

func TestBoardItems_FollowsCursor(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if got := r.Header.Get("Authorization"); got != "tok-abc" {
			t.Errorf("Authorization = %q, want tok-abc", got)
		}
		if got := r.Header.Get("API-Version"); got != apiVersion {
			t.Errorf("API-Version = %q, want %s", got, apiVersion)
		}

		var req graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if req.Variables["limit"] != float64(2) {
			t.Errorf("limit = %v, want 2", req.Variables["limit"])
		}

		switch {
		case strings.Contains(req.Query, "next_items_page"):
			if req.Variables["cursor"] != "page-2" {
				t.Errorf("cursor = %v, want page-2", req.Variables["cursor"])
			}
			writeJSON(t, w, map[string]any{"data": map[string]any{
				"next_items_page": map[string]any{
					"cursor": nil,
					"items":  []Item{{ID: "3", Name: "1.03"}},
				},
			}})
		default:
			writeJSON(t, w, map[string]any{"data": map[string]any{
				"boards": []any{map[string]any{
					"items_page": map[string]any{
						"cursor": "page-2",
						"items":  []Item{{ID: "1", Name: "1.01"}, {ID: "2", Name: "1.02"}},
					},
				}},
			}})
		}
	})

	items, err := c.BoardItems(context.Background(), "9376648770")
	if err != nil {
		t.Fatalf("BoardItems() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	if items[2].Name != "1.03" {
		t.Fatalf("items[2].Name = %q, want 1.03", items[2].Name)
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("requests = %d, want 2", n)
	}
}

func TestBoardItems_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		})
		_, err := c.BoardItems(context.Background(), "1")
		if !errors.Is(err, tt.want) {
			t.Fatalf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestBoardItems_GraphQLErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"errors": []any{map[string]any{"message": "Field 'boardz' doesn't exist"}},
		})
	})
	_, err := c.BoardItems(context.Background(), "1")
	if err == nil || !strings.Contains(err.Error(), "boardz") {
		t.Fatalf("err = %v, want graphql error mentioning boardz", err)
	}

	c = newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"error_code":    "ComplexityException",
			"error_message": "Complexity budget exhausted",
		})
	})
	if _, err := c.BoardItems(context.Background(), "1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("complexity err = %v, want ErrRateLimited", err)
	}
}

func TestBoardItems_PartialOnLaterPageFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if strings.Contains(req.Query, "next_items_page") {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(t, w, map[string]any{"data": map[string]any{
			"boards": []any{map[string]any{
				"items_page": map[string]any{"cursor": "more", "items": []Item{{ID: "1", Name: "A"}}},
			}},
		}})
	})

	items, err := c.BoardItems(context.Background(), "1")
	if err == nil {
		t.Fatal("BoardItems() error = nil, want page failure")
	}
	if len(items) != 1 {
		t.Fatalf("partial items = %d, want 1", len(items))
	}
}

func TestBoards(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"data": map[string]any{
			"boards": []Board{{ID: "8606133913", Name: "Won Deals", UpdatedAt: "2025-09-01T10:00:00Z", ItemsCount: 87}},
		}})
	})
	boards, err := c.Boards(context.Background(), []string{"8606133913"})
	if err != nil {
		t.Fatalf("Boards() error = %v", err)
	}
	if len(boards) != 1 || boards[0].ItemsCount != 87 {
		t.Fatalf("boards = %+v, want one board with 87 items", boards)
	}
}
