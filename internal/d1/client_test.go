package d1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
)

func okResponse(rows []map[string]any, lastRowID, changes int64) string {
	resp := map[string]any{
		"success": true,
		"result": []map[string]any{{
			"success": true,
			"results": rows,
			"meta":    map[string]any{"last_row_id": lastRowID, "changes": changes},
		}},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestClientExecute(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(okResponse([]map[string]any{{"id": 1, "email": "a@b.c"}}, 0, 0)))
	}))
	defer srv.Close()

	c := NewClient("acct", "db", "token", WithBaseURL(srv.URL))
	res, err := c.Execute(context.Background(), store.Statement{
		SQL:    "SELECT * FROM users WHERE email = ?",
		Params: []any{"a@b.c"},
	})
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}
	if gotPath != "/accounts/acct/d1/database/db/query" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotAuth != "Bearer token" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotBody["sql"] != "SELECT * FROM users WHERE email = ?" {
		t.Fatalf("unexpected sql in body: %v", gotBody["sql"])
	}
	if len(res.Rows) != 1 || store.RowString(res.Rows[0], "email") != "a@b.c" {
		t.Fatalf("unexpected rows: %v", res.Rows)
	}
}

func TestClientExecuteWriteMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(okResponse(nil, 57, 1)))
	}))
	defer srv.Close()

	c := NewClient("a", "d", "t", WithBaseURL(srv.URL))
	res, err := c.Execute(context.Background(), store.Statement{SQL: "INSERT INTO users (email) VALUES (?)", Params: []any{"x"}})
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}
	if res.LastRowID != 57 || res.RowsAffected != 1 {
		t.Fatalf("unexpected meta: %+v", res)
	}
}

func TestClientExecuteNilParamsSerializeAsEmptyArray(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		w.Write([]byte(okResponse(nil, 0, 0)))
	}))
	defer srv.Close()

	c := NewClient("a", "d", "t", WithBaseURL(srv.URL))
	if _, err := c.Execute(context.Background(), store.Statement{SQL: "SELECT 1"}); err != nil {
		t.Fatalf("execute error: %v", err)
	}
	if string(raw["params"]) != "[]" {
		t.Fatalf("nil params should encode as []: %s", raw["params"])
	}
}

func TestClientExecuteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"errors":[{"code":7500,"message":"no such table: users"}]}`))
	}))
	defer srv.Close()

	c := NewClient("a", "d", "t", WithBaseURL(srv.URL))
	_, err := c.Execute(context.Background(), store.Statement{SQL: "SELECT * FROM users"})
	if err == nil {
		t.Fatal("expected API error")
	}
}

func TestClientExecuteUnreachable(t *testing.T) {
	c := NewClient("a", "d", "t",
		WithBaseURL("http://127.0.0.1:0"),
		WithHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}),
	)
	_, err := c.Execute(context.Background(), store.Statement{SQL: "SELECT 1"})
	if !errors.Is(err, store.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestClientExecuteBatchJoinsPlainStatements(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies = append(bodies, body)
		w.Write([]byte(okResponse(nil, 0, 0)))
	}))
	defer srv.Close()

	c := NewClient("a", "d", "t", WithBaseURL(srv.URL))
	err := c.ExecuteBatch(context.Background(), []store.Statement{
		{SQL: "DROP TABLE IF EXISTS users"},
		{SQL: "CREATE TABLE users (id INTEGER)"},
		{SQL: "INSERT INTO users (id) VALUES (?)", Params: []any{int64(1)}},
	})
	if err != nil {
		t.Fatalf("batch error: %v", err)
	}
	// two plain statements share one round trip; the parameterized one
	// runs on its own
	if len(bodies) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(bodies))
	}
	joined := bodies[0]["sql"].(string)
	if joined != "DROP TABLE IF EXISTS users;\nCREATE TABLE users (id INTEGER)" {
		t.Fatalf("unexpected joined sql: %q", joined)
	}
}

func TestNormalizeParamsTimes(t *testing.T) {
	ts := time.Date(2026, 2, 19, 20, 30, 0, 0, time.UTC)
	out := normalizeParams([]any{ts, "x"})
	if out[0] != "2026-02-19T20:30:00" {
		t.Fatalf("time not normalized: %v", out[0])
	}
	if out[1] != "x" {
		t.Fatalf("other params must pass through: %v", out[1])
	}
}
