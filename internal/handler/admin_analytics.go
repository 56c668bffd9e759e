package handler

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/middleware"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/model"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
)

// analyticsParams carries the dashboard filters. Zero values mean the
// filter is off.
type analyticsParams struct {
	Gender     string
	HalqaID    int64
	Supervisor string
	Member     string
	MinPct     *float64
	MaxPct     *float64
	Period     string
	DateFrom   string
	DateTo     string
	SortBy     string
	SortOrder  string
}

func parseAnalyticsParams(c echo.Context) (analyticsParams, error) {
	p := analyticsParams{
		Gender:     c.QueryParam("gender"),
		Supervisor: c.QueryParam("supervisor"),
		Member:     c.QueryParam("member"),
		Period:     c.QueryParam("period"),
		DateFrom:   c.QueryParam("date_from"),
		DateTo:     c.QueryParam("date_to"),
		SortBy:     c.QueryParam("sort_by"),
		SortOrder:  c.QueryParam("sort_order"),
	}
	if p.Period == "" {
		p.Period = "all"
	}
	if p.SortBy == "" {
		p.SortBy = "score"
	}
	if p.SortOrder == "" {
		p.SortOrder = "desc"
	}
	if v := c.QueryParam("halqa_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return p, err
		}
		p.HalqaID = id
	}
	if v := c.QueryParam("min_pct"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, err
		}
		p.MinPct = &f
	}
	if v := c.QueryParam("max_pct"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, err
		}
		p.MaxPct = &f
	}
	return p, nil
}

// analyticsRange resolves the scoring window. The weekly period starts on
// Monday, the monthly period on the first of the month; explicit dates win
// over the period shorthand.
func analyticsRange(p analyticsParams) (start, end time.Time, err error) {
	now := today()
	switch {
	case p.DateFrom != "":
		start, err = parseDate(p.DateFrom)
		if err != nil {
			return
		}
	case p.Period == "weekly":
		start = now.AddDate(0, 0, -((int(now.Weekday()) + 6) % 7))
	case p.Period == "monthly":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	if p.DateTo != "" {
		end, err = parseDate(p.DateTo)
	}
	return
}

// buildAnalytics computes the ranked results table shared by the dashboard
// and its export. When a date range is in play the denominator counts every
// day of the range, not just days a card was submitted.
func (h *AdminHandler) buildAnalytics(ctx context.Context, sess store.Session, p analyticsParams) ([]map[string]any, error) {
	q := store.NewQuery[model.User](sess).FilterBy("status", model.StatusActive)
	if p.Gender != "" {
		q = q.FilterBy("gender", p.Gender)
	}
	if p.HalqaID > 0 {
		q = q.FilterBy("halqa_id", p.HalqaID)
	}
	if p.Member != "" {
		q = q.Filter(store.Like("full_name", "%"+p.Member+"%"))
	}
	if p.Supervisor != "" {
		ids, err := halqaIDsBySupervisorName(ctx, sess, p.Supervisor)
		if err != nil {
			return nil, err
		}
		if len(ids) > 0 {
			q = q.Filter(store.In("halqa_id", ids...))
		}
	}

	users, err := q.All(ctx)
	if err != nil {
		return nil, err
	}
	if err := attachHalqas(ctx, sess, users); err != nil {
		return nil, err
	}

	start, end, err := analyticsRange(p)
	if err != nil {
		return nil, err
	}
	totalDays := 0
	if !start.IsZero() {
		rangeEnd := end
		if rangeEnd.IsZero() {
			rangeEnd = today()
		}
		totalDays = int(rangeEnd.Sub(start).Hours()/24) + 1
	}

	var clauses []store.Clause
	if !start.IsZero() {
		clauses = append(clauses, store.Ge("date", start.Format(store.DateLayout)))
	}
	if !end.IsZero() {
		clauses = append(clauses, store.Le("date", end.Format(store.DateLayout)))
	}
	byUser, err := cardsByUser(ctx, sess, users, clauses...)
	if err != nil {
		return nil, err
	}

	results := make([]map[string]any, 0, len(users))
	for _, u := range users {
		cards := byUser[u.ID]
		total := 0.0
		maxTotal := 0.0
		for _, card := range cards {
			total += card.TotalScore()
			maxTotal += card.MaxScore()
		}
		if totalDays > 0 {
			maxTotal = float64(totalDays) * maxPerDay()
		}
		pct := 0.0
		if maxTotal > 0 {
			pct = roundPct(total / maxTotal * 100)
		}
		if p.MinPct != nil && pct < *p.MinPct {
			continue
		}
		if p.MaxPct != nil && pct > *p.MaxPct {
			continue
		}

		halqaName := "بدون حلقة"
		supervisorName := "-"
		if u.Halqa != nil {
			halqaName = u.Halqa.Name
			if u.Halqa.Supervisor != nil {
				supervisorName = u.Halqa.Supervisor.FullName
			}
		}
		results = append(results, map[string]any{
			"user_id":         u.ID,
			"member_id":       u.MemberID,
			"full_name":       u.FullName,
			"gender":          u.Gender,
			"halqa_name":      halqaName,
			"supervisor_name": supervisorName,
			"total_score":     total,
			"max_score":       maxTotal,
			"percentage":      pct,
			"cards_count":     len(cards),
		})
	}

	desc := p.SortOrder == "desc"
	switch p.SortBy {
	case "name":
		sort.SliceStable(results, func(i, j int) bool {
			a, b := results[i]["full_name"].(string), results[j]["full_name"].(string)
			if desc {
				return a > b
			}
			return a < b
		})
	case "percentage":
		sort.SliceStable(results, func(i, j int) bool {
			a, b := results[i]["percentage"].(float64), results[j]["percentage"].(float64)
			if desc {
				return a > b
			}
			return a < b
		})
	default:
		sort.SliceStable(results, func(i, j int) bool {
			a, b := results[i]["total_score"].(float64), results[j]["total_score"].(float64)
			if desc {
				return a > b
			}
			return a < b
		})
	}
	for i, r := range results {
		r["rank"] = i + 1
	}
	return results, nil
}

// halqaIDsBySupervisorName finds the halqas whose supervisor's name
// matches the search term.
func halqaIDsBySupervisorName(ctx context.Context, sess store.Session, name string) ([]any, error) {
	sups, err := store.NewQuery[model.User](sess).
		Filter(store.Like("full_name", "%"+name+"%")).
		All(ctx)
	if err != nil {
		return nil, err
	}
	if len(sups) == 0 {
		return nil, nil
	}
	supIDs := make([]any, len(sups))
	for i, s := range sups {
		supIDs[i] = s.ID
	}
	halqas, err := store.NewQuery[model.Halqa](sess).Filter(store.In("supervisor_id", supIDs...)).All(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]any, len(halqas))
	for i, h := range halqas {
		ids[i] = h.ID
	}
	return ids, nil
}

// Analytics serves the ranked dashboard with headline counts.
func (h *AdminHandler) Analytics(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	p, err := parseAnalyticsParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid filter"})
	}
	results, err := h.buildAnalytics(ctx, sess, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	totalActive, err := store.NewQuery[model.User](sess).FilterBy("status", model.StatusActive).Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	totalPending, err := store.NewQuery[model.User](sess).FilterBy("status", model.StatusPending).Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	totalHalqas, err := store.NewQuery[model.Halqa](sess).Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"results": results,
		"summary": echo.Map{
			"total_active":   totalActive,
			"total_pending":  totalPending,
			"total_halqas":   totalHalqas,
			"filtered_count": len(results),
		},
	})
}

// ExportAnalytics streams the same ranked table as a CSV attachment.
func (h *AdminHandler) ExportAnalytics(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	p, err := parseAnalyticsParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid filter"})
	}
	results, err := h.buildAnalytics(ctx, sess, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	headers := []string{
		"الترتيب", "رقم العضوية", "الاسم", "الجنس", "الحلقة", "المشرف",
		"المجموع الحالي", "المجموع العام", "عدد البطاقات", "النسبة %",
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		gender := r["gender"].(string)
		if label, ok := genderLabels[gender]; ok {
			gender = label
		}
		memberID := ""
		if mid, ok := r["member_id"].(*int64); ok && mid != nil {
			memberID = strconv.FormatInt(*mid, 10)
		}
		rows = append(rows, []string{
			strconv.Itoa(r["rank"].(int)),
			memberID,
			r["full_name"].(string),
			gender,
			r["halqa_name"].(string),
			r["supervisor_name"].(string),
			formatScore(r["total_score"].(float64)),
			formatScore(r["max_score"].(float64)),
			strconv.Itoa(r["cards_count"].(int)),
			formatScore(r["percentage"].(float64)),
		})
	}
	return writeCSV(c, "ramadan_results.csv", headers, rows)
}
