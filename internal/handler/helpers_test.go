package handler

import (
	"context"
	"encoding/csv"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/config"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/database"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/model"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
)

func TestFormatScore(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{10, "10"},
		{7.5, "7.5"},
		{33.333, "33.3"},
	}
	for _, tc := range cases {
		if got := formatScore(tc.in); got != tc.want {
			t.Fatalf("formatScore(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRoundPct(t *testing.T) {
	if got := roundPct(16.666666); got != 16.7 {
		t.Fatalf("roundPct = %v, want 16.7", got)
	}
	if got := roundPct(100); got != 100 {
		t.Fatalf("roundPct = %v, want 100", got)
	}
}

func TestFilterMembers(t *testing.T) {
	members := []*model.User{
		{FullName: "أحمد علي", Gender: "ذكر"},
		{FullName: "سارة محمد", Gender: "female"},
		{FullName: "علي حسن", Gender: "male"},
	}
	if got := filterMembers(members, "", ""); len(got) != 3 {
		t.Fatalf("no filters kept %d members, want 3", len(got))
	}
	if got := filterMembers(members, "علي", ""); len(got) != 2 {
		t.Fatalf("name filter kept %d members, want 2", len(got))
	}
	if got := filterMembers(members, "", "male"); len(got) != 1 || got[0].FullName != "علي حسن" {
		t.Fatalf("male filter got %v", got)
	}
	if got := filterMembers(members, "", "female"); len(got) != 1 || got[0].FullName != "سارة محمد" {
		t.Fatalf("female filter got %v", got)
	}
	if got := filterMembers(members, "أحمد", "female"); len(got) != 0 {
		t.Fatalf("combined filter kept %d members, want 0", len(got))
	}
}

func TestAnalyticsRangeExplicitDatesWin(t *testing.T) {
	start, end, err := analyticsRange(analyticsParams{
		Period: "weekly", DateFrom: "2026-03-01", DateTo: "2026-03-10",
	})
	if err != nil {
		t.Fatalf("analyticsRange: %v", err)
	}
	if start.Format("2006-01-02") != "2026-03-01" {
		t.Fatalf("start = %v, want 2026-03-01", start)
	}
	if end.Format("2006-01-02") != "2026-03-10" {
		t.Fatalf("end = %v, want 2026-03-10", end)
	}
}

func TestAnalyticsRangeWeeklyStartsMonday(t *testing.T) {
	start, _, err := analyticsRange(analyticsParams{Period: "weekly"})
	if err != nil {
		t.Fatalf("analyticsRange: %v", err)
	}
	if start.Weekday() != time.Monday {
		t.Fatalf("weekly start is %v, want Monday", start.Weekday())
	}
	if start.After(today()) {
		t.Fatalf("weekly start %v is in the future", start)
	}
}

func TestAnalyticsRangeMonthlyStartsOnFirst(t *testing.T) {
	start, _, err := analyticsRange(analyticsParams{Period: "monthly"})
	if err != nil {
		t.Fatalf("analyticsRange: %v", err)
	}
	if start.Day() != 1 {
		t.Fatalf("monthly start day = %d, want 1", start.Day())
	}
}

func TestAnalyticsRangeRejectsBadDate(t *testing.T) {
	if _, _, err := analyticsRange(analyticsParams{DateFrom: "01/03/2026"}); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestParseAnalyticsParamsDefaults(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("GET", "/admin/analytics", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	p, err := parseAnalyticsParams(c)
	if err != nil {
		t.Fatalf("parseAnalyticsParams: %v", err)
	}
	if p.Period != "all" || p.SortBy != "score" || p.SortOrder != "desc" {
		t.Fatalf("defaults = %q/%q/%q, want all/score/desc", p.Period, p.SortBy, p.SortOrder)
	}
	if p.MinPct != nil || p.MaxPct != nil || p.HalqaID != 0 {
		t.Fatalf("zero-value filters should stay off")
	}
}

func TestParseAnalyticsParamsValues(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("GET", "/admin/analytics?halqa_id=3&min_pct=25.5&sort_by=name&sort_order=asc", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	p, err := parseAnalyticsParams(c)
	if err != nil {
		t.Fatalf("parseAnalyticsParams: %v", err)
	}
	if p.HalqaID != 3 {
		t.Fatalf("HalqaID = %d, want 3", p.HalqaID)
	}
	if p.MinPct == nil || *p.MinPct != 25.5 {
		t.Fatalf("MinPct = %v, want 25.5", p.MinPct)
	}
	if p.SortBy != "name" || p.SortOrder != "asc" {
		t.Fatalf("sort = %q/%q, want name/asc", p.SortBy, p.SortOrder)
	}
}

func TestParseAnalyticsParamsRejectsBadNumber(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("GET", "/admin/analytics?halqa_id=abc", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if _, err := parseAnalyticsParams(c); err == nil {
		t.Fatalf("expected error for non-numeric halqa_id")
	}
}

func TestWriteCSVPrefixesByteOrderMark(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest("GET", "/admin/export", nil), rec)

	err := writeCSV(c, "out.csv", []string{"a", "b"}, [][]string{{"1", "2"}})
	if err != nil {
		t.Fatalf("writeCSV: %v", err)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "\ufeff") {
		t.Fatalf("body does not start with a BOM: %q", body[:6])
	}
	if !strings.Contains(body, "a,b\n1,2") {
		t.Fatalf("unexpected csv body: %q", body)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "out.csv") {
		t.Fatalf("content disposition = %q", cd)
	}
}

func TestImportTemplateRoundTripsThroughCSVReader(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest("GET", "/admin/import-template", nil), rec)

	h := NewAdminHandler(config.Config{})
	if err := h.ImportTemplate(c); err != nil {
		t.Fatalf("ImportTemplate: %v", err)
	}

	r := csv.NewReader(strings.NewReader(rec.Body.String()))
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("reading template back: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("template has %d rows, want header + example", len(rows))
	}
	// The BOM arrives glued to the first header cell, exactly as an
	// uploaded file would present it; the import strips it the same way.
	header := rows[0]
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	if header[0] != "الاسم" {
		t.Fatalf("first header = %q, want الاسم", header[0])
	}
	if len(header) != len(importHeaders) {
		t.Fatalf("header has %d columns, want %d", len(header), len(importHeaders))
	}
}

// scalarExec answers any statement with a single aliased scalar row, the
// shape MAX() aggregates come back in.
type scalarExec struct{ value any }

func (f *scalarExec) Execute(ctx context.Context, stmt store.Statement) (store.Result, error) {
	return store.Result{Rows: []store.Row{{"m": f.value}}}, nil
}

func (f *scalarExec) ExecuteBatch(ctx context.Context, stmts []store.Statement) error {
	return nil
}

func TestNextMemberIDContinuesFromMax(t *testing.T) {
	sess := store.NewD1Session(&scalarExec{value: float64(1002)})
	defer sess.Close()

	id, err := nextMemberID(context.Background(), sess)
	if err != nil {
		t.Fatalf("nextMemberID: %v", err)
	}
	if id != 1003 {
		t.Fatalf("id = %d, want 1003", id)
	}
}

func TestNextMemberIDStartsAtFloor(t *testing.T) {
	sess := store.NewD1Session(&scalarExec{})
	defer sess.Close()

	id, err := nextMemberID(context.Background(), sess)
	if err != nil {
		t.Fatalf("nextMemberID: %v", err)
	}
	if id != database.MemberIDStart {
		t.Fatalf("id = %d, want %d", id, database.MemberIDStart)
	}
}
