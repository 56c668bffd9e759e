// Package d1 talks to a Cloudflare D1 database over its REST query API and
// adapts the responses to the store.Executor contract.
package d1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
)

const defaultBaseURL = "https://api.cloudflare.com/client/v4"

// Client executes prepared statements against one D1 database. It is safe
// for concurrent use.
type Client struct {
	accountID  string
	databaseID string
	apiToken   string
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API origin, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a client for the given account, database and API token.
func NewClient(accountID, databaseID, apiToken string, opts ...Option) *Client {
	c := &Client{
		accountID:  accountID,
		databaseID: databaseID,
		apiToken:   apiToken,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type queryRequest struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

type queryResponse struct {
	Result []struct {
		Results []map[string]any `json:"results"`
		Meta    struct {
			LastRowID    int64 `json:"last_row_id"`
			Changes      int64 `json:"changes"`
			RowsRead     int64 `json:"rows_read"`
			RowsWritten  int64 `json:"rows_written"`
			SizeAfter    int64 `json:"size_after"`
			ServedByName string `json:"served_by"`
		} `json:"meta"`
		Success bool `json:"success"`
	} `json:"result"`
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Execute runs one statement and returns its rows and write metadata.
func (c *Client) Execute(ctx context.Context, stmt store.Statement) (store.Result, error) {
	body, err := json.Marshal(queryRequest{SQL: stmt.SQL, Params: normalizeParams(stmt.Params)})
	if err != nil {
		return store.Result{}, fmt.Errorf("d1: encode request: %w", err)
	}
	url := fmt.Sprintf("%s/accounts/%s/d1/database/%s/query", c.baseURL, c.accountID, c.databaseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return store.Result{}, fmt.Errorf("d1: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return store.Result{}, fmt.Errorf("%w: %v", store.ErrStorageUnavailable, err)
	}
	defer resp.Body.Close()

	var decoded queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return store.Result{}, fmt.Errorf("d1: decode response (status %d): %w", resp.StatusCode, err)
	}
	if !decoded.Success || resp.StatusCode != http.StatusOK {
		return store.Result{}, fmt.Errorf("d1: query failed (status %d): %s", resp.StatusCode, firstError(decoded))
	}
	if len(decoded.Result) == 0 {
		return store.Result{}, nil
	}
	r := decoded.Result[0]
	rows := make([]store.Row, len(r.Results))
	for i, m := range r.Results {
		rows[i] = store.Row(m)
	}
	return store.Result{
		Rows:         rows,
		LastRowID:    r.Meta.LastRowID,
		RowsAffected: r.Meta.Changes,
	}, nil
}

// ExecuteBatch runs statements in order. Statements without parameters are
// joined into one round trip; anything parameterized runs on its own.
func (c *Client) ExecuteBatch(ctx context.Context, stmts []store.Statement) error {
	var plain []string
	flush := func() error {
		if len(plain) == 0 {
			return nil
		}
		joined := strings.Join(plain, ";\n")
		plain = plain[:0]
		_, err := c.Execute(ctx, store.Statement{SQL: joined})
		return err
	}
	for _, s := range stmts {
		if len(s.Params) == 0 {
			plain = append(plain, s.SQL)
			continue
		}
		if err := flush(); err != nil {
			return err
		}
		if _, err := c.Execute(ctx, s); err != nil {
			return err
		}
	}
	return flush()
}

// normalizeParams rewrites values json.Marshal would mangle. Binding has
// already serialized times and booleans; this is the transport-level pass.
func normalizeParams(params []any) []any {
	if params == nil {
		return []any{}
	}
	out := make([]any, len(params))
	for i, p := range params {
		switch v := p.(type) {
		case time.Time:
			out[i] = v.UTC().Format(store.DateTimeLayout)
		default:
			out[i] = p
		}
	}
	return out
}

func firstError(r queryResponse) string {
	if len(r.Errors) == 0 {
		return "unknown error"
	}
	return fmt.Sprintf("code %d: %s", r.Errors[0].Code, r.Errors[0].Message)
}
