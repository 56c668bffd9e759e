package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/middleware"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/model"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
)

// Exports are CSV with a UTF-8 BOM so Excel renders the Arabic headers
// correctly. The frontend offers them as spreadsheet downloads.

var scoreFieldLabels = map[string]string{
	"quran":             "وِرد القرآن",
	"tadabbur":          "التدبر",
	"duas":              "الأدعية",
	"taraweeh":          "صلاة التراويح",
	"tahajjud":          "التهجد والوتر",
	"duha":              "صلاة الضحى",
	"rawatib":           "السنن الرواتب",
	"main_lesson":       "المقطع الأساسي",
	"required_lesson":   "المقطع الواجب",
	"enrichment_lesson": "المقطع الإثرائي",
	"charity_worship":   "عبادة متعدية",
	"extra_work":        "أعمال إضافية",
}

var genderLabels = map[string]string{"male": "ذكر", "female": "أنثى"}

func cardExportHeaders() []string {
	headers := []string{"رقم العضوية", "الاسم", "الجنس", "الحلقة", "التاريخ"}
	for _, f := range model.ScoreFields {
		headers = append(headers, scoreFieldLabels[f])
	}
	return append(headers, "وصف الأعمال الإضافية", "المجموع", "النسبة %")
}

func cardExportRow(m *model.User, card *model.DailyCard) []string {
	memberID := ""
	if m.MemberID != nil {
		memberID = fmt.Sprintf("%d", *m.MemberID)
	}
	gender := m.Gender
	if label, ok := genderLabels[gender]; ok {
		gender = label
	}
	halqaName := "-"
	if m.Halqa != nil {
		halqaName = m.Halqa.Name
	}
	row := []string{memberID, m.FullName, gender, halqaName, card.Date.Format(store.DateLayout)}
	for _, f := range model.ScoreFields {
		row = append(row, formatScore(card.Score(f)))
	}
	desc := ""
	if card.ExtraWorkDescription != nil {
		desc = *card.ExtraWorkDescription
	}
	return append(row, desc, formatScore(card.TotalScore()), formatScore(card.Percentage()))
}

func formatScore(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

// writeCSV streams rows as an attachment with a UTF-8 BOM prefix.
func writeCSV(c echo.Context, filename string, headers []string, rows [][]string) error {
	var buf bytes.Buffer
	buf.WriteString("\uFEFF")
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}
	if err := w.WriteAll(rows); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename=`+filename)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Export produces the detailed per-card report for the members in scope,
// optionally filtered by date range, name substring and gender.
func (h *SupervisorHandler) Export(c echo.Context) error {
	user := activeUser(c)
	if user == nil {
		return nil
	}
	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	start := h.Cfg.ProgramStart
	end := today()
	if raw := c.QueryParam("date_from"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date_from"})
		}
		start = d
	}
	if raw := c.QueryParam("date_to"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date_to"})
		}
		end = d
	}

	halqa, ok := h.resolveHalqa(c, ctx, user)
	if !ok {
		return nil
	}
	members, err := scopeMembers(ctx, sess, halqa)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	members = filterMembers(members,
		c.QueryParam("search_name"), c.QueryParam("search_gender"))
	_ = attachHalqas(ctx, sess, members)

	rows, err := collectCardRows(ctx, sess, members, start, end)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return writeCSV(c, "daily_cards_report.csv", cardExportHeaders(), rows)
}

// filterMembers applies the optional name substring and gender filters.
func filterMembers(members []*model.User, name, gender string) []*model.User {
	if name == "" && gender == "" {
		return members
	}
	maleValues := map[string]bool{"male": true, "ذكر": true}
	out := members[:0:0]
	for _, m := range members {
		if name != "" && !strings.Contains(m.FullName, name) {
			continue
		}
		if gender == "male" && !maleValues[m.Gender] {
			continue
		}
		if gender == "female" && maleValues[m.Gender] {
			continue
		}
		out = append(out, m)
	}
	return out
}

// collectCardRows loads the cards of the given members within the range and
// flattens them to export rows ordered by member then date.
func collectCardRows(ctx context.Context, sess store.Session, members []*model.User, start, end time.Time) ([][]string, error) {
	grouped, err := cardsByUser(ctx, sess, members,
		store.Ge("date", start.Format(store.DateLayout)),
		store.Le("date", end.Format(store.DateLayout)))
	if err != nil {
		return nil, err
	}
	var rows [][]string
	for _, m := range members {
		cards := grouped[m.ID]
		sort.Slice(cards, func(i, j int) bool { return cards[i].Date.Before(cards[j].Date) })
		for _, card := range cards {
			rows = append(rows, cardExportRow(m, card))
		}
	}
	return rows, nil
}
