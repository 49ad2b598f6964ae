package monday

import (
	"encoding/json"
	"errors"
	"strings"
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data         json.RawMessage `json:"data"`
	Errors       []graphQLError  `json:"errors"`
	ErrorCode    string          `json:"error_code"`
	ErrorMessage string          `json:"error_message"`
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

// err converts GraphQL-level failures into errors. Complexity and rate
// budget exhaustion map to ErrRateLimited.
func (r graphQLResponse) err() error {
	codes := []string{r.ErrorCode}
	msgs := make([]string, 0, len(r.Errors)+1)
	if r.ErrorMessage != "" {
		msgs = append(msgs, r.ErrorMessage)
	}
	for _, e := range r.Errors {
		codes = append(codes, e.Extensions.Code)
		msgs = append(msgs, e.Message)
	}
	for _, code := range codes {
		switch code {
		case "ComplexityException", "RATE_LIMIT_EXCEEDED", "DAILY_LIMIT_EXCEEDED":
			return ErrRateLimited
		case "UserUnauthorizedException", "UNAUTHENTICATED":
			return ErrUnauthorized
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return errors.New("monday: graphql error: " + strings.Join(msgs, "; "))
}

type itemsPage struct {
	Cursor string `json:"cursor"`
	Items  []Item `json:"items"`
}

// Item is one row of a Monday board.
type Item struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	CreatedAt    string        `json:"created_at"`
	UpdatedAt    string        `json:"updated_at"`
	ColumnValues []ColumnValue `json:"column_values"`
}

// ColumnValue is one cell of an item. Text is the display form; Value is
// the column's JSON-encoded raw value, which is itself a JSON string.
type ColumnValue struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Value string `json:"value"`
}

// Text returns the display text of a column, or "" when absent.
func (it Item) Text(columnID string) string {
	for _, cv := range it.ColumnValues {
		if cv.ID == columnID {
			return strings.TrimSpace(cv.Text)
		}
	}
	return ""
}

// Raw returns the raw JSON value of a column, or "" when absent.
func (it Item) Raw(columnID string) string {
	for _, cv := range it.ColumnValues {
		if cv.ID == columnID {
			return cv.Value
		}
	}
	return ""
}

// Board is board metadata shown in sync status.
type Board struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	UpdatedAt  string `json:"updated_at"`
	ItemsCount int    `json:"items_count"`
}
