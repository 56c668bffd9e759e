package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/middleware"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/model"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/utils"
)

// importDefaultPassword is set on every imported account. Participants are
// told to change it on first login.
const importDefaultPassword = "123456"

var (
	statusLabels = map[string]string{
		model.StatusActive:    "نشط",
		model.StatusPending:   "قيد المراجعة",
		model.StatusRejected:  "مرفوض",
		model.StatusWithdrawn: "منسحب",
	}
	roleLabels = map[string]string{
		model.RoleParticipant: "مشارك",
		model.RoleSupervisor:  "مشرف",
		model.RoleSuperAdmin:  "سوبر آدمن",
	}
	importGender = map[string]string{
		"ذكر": "male", "أنثى": "female", "male": "male", "female": "female",
	}
	maleGenderValues   = []any{"male", "ذكر"}
	femaleGenderValues = []any{"female", "أنثى"}
)

var importHeaders = []string{"الاسم", "الجنس", "العمر", "الهاتف", "البريد", "الدولة", "المصدر"}

// requiredImportHeaders excludes the optional referral column.
var requiredImportHeaders = importHeaders[:6]

// ExportUsers streams the user directory with all personal info as CSV,
// honoring the same filters as the users listing.
func (h *AdminHandler) ExportUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	q := store.NewQuery[model.User](sess)
	if v := c.QueryParam("status"); v != "" {
		q = q.FilterBy("status", v)
	}
	if v := c.QueryParam("gender"); v != "" {
		vals := maleGenderValues
		if v == "female" {
			vals = femaleGenderValues
		}
		q = q.Filter(store.In("gender", vals...))
	}
	if v := c.QueryParam("halqa_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid halqa_id"})
		}
		q = q.FilterBy("halqa_id", id)
	}
	if v := c.QueryParam("search"); v != "" {
		pattern := "%" + v + "%"
		q = q.Filter(store.Or(store.Like("full_name", pattern), store.Like("email", pattern)))
	}

	users, err := q.OrderBy(store.Desc("created_at")).All(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := attachHalqas(ctx, sess, users); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	headers := []string{
		"رقم العضوية", "الاسم", "الجنس", "العمر", "الهاتف", "البريد", "الدولة",
		"الحالة", "الصلاحية", "الحلقة", "المشرف", "مصدر التسجيل", "تاريخ التسجيل",
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, userExportRow(u))
	}
	return writeCSV(c, "users_report.csv", headers, rows)
}

func userExportRow(u *model.User) []string {
	memberID := ""
	if u.MemberID != nil {
		memberID = strconv.FormatInt(*u.MemberID, 10)
	}
	gender := u.Gender
	if label, ok := genderLabels[gender]; ok {
		gender = label
	}
	status := u.Status
	if label, ok := statusLabels[status]; ok {
		status = label
	}
	role := u.Role
	if label, ok := roleLabels[role]; ok {
		role = label
	}
	halqaName, supervisorName := "-", "-"
	if u.Halqa != nil {
		halqaName = u.Halqa.Name
		if u.Halqa.Supervisor != nil {
			supervisorName = u.Halqa.Supervisor.FullName
		}
	}
	referral := ""
	if u.ReferralSource != nil {
		referral = *u.ReferralSource
	}
	created := ""
	if !u.CreatedAt.IsZero() {
		created = u.CreatedAt.Format(store.DateLayout)
	}
	return []string{
		memberID, u.FullName, gender, strconv.FormatInt(u.Age, 10), u.Phone,
		u.Email, u.Country, status, role, halqaName, supervisorName, referral, created,
	}
}

// ImportTemplate downloads a CSV template with the expected columns and an
// example row.
func (h *AdminHandler) ImportTemplate(c echo.Context) error {
	example := []string{
		"أحمد محمد علي", "ذكر", "25", "+966500000000", "ahmed@example.com", "السعودية", "صديق",
	}
	return writeCSV(c, "import_template.csv", importHeaders, [][]string{example})
}

// ImportUsers bulk-registers participants from an uploaded CSV. Each valid
// row becomes a pending account with the default password and the next
// free membership number; bad rows are reported and skipped.
func (h *AdminHandler) ImportUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "الملف مطلوب"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "تعذر قراءة الملف"})
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil || len(records) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "تعذر قراءة الملف"})
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	colIdx := map[string]int{}
	for i, name := range header {
		colIdx[strings.TrimSpace(name)] = i
	}
	for _, required := range requiredImportHeaders {
		if _, ok := colIdx[required]; !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("العمود %s مفقود من الملف", required)})
		}
	}

	memberID, err := nextMemberID(ctx, sess)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	hash, err := utils.HashPassword(importDefaultPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hashing failed"})
	}

	cell := func(row []string, name string) string {
		i, ok := colIdx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	imported := 0
	var importErrors []string
	seen := map[string]bool{}
	for idx, row := range records[1:] {
		rowNum := idx + 2
		empty := true
		for _, v := range row {
			if strings.TrimSpace(v) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		email := strings.ToLower(cell(row, "البريد"))
		if email == "" {
			importErrors = append(importErrors, fmt.Sprintf("صف %d: البريد فارغ", rowNum))
			continue
		}
		if seen[email] {
			importErrors = append(importErrors, fmt.Sprintf("صف %d: بريد مكرر في الملف", rowNum))
			continue
		}
		existing, err := store.NewQuery[model.User](sess).FilterBy("email", email).First(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if existing != nil {
			importErrors = append(importErrors, fmt.Sprintf("صف %d: البريد مسجل مسبقاً (%s)", rowNum, email))
			continue
		}
		seen[email] = true

		gender := cell(row, "الجنس")
		if mapped, ok := importGender[gender]; ok {
			gender = mapped
		}
		age, _ := strconv.ParseInt(cell(row, "العمر"), 10, 64)

		mid := memberID
		now := time.Now().UTC()
		user := &model.User{
			MemberID:     &mid,
			FullName:     cell(row, "الاسم"),
			Gender:       gender,
			Age:          age,
			Phone:        cell(row, "الهاتف"),
			Email:        email,
			PasswordHash: hash,
			Country:      cell(row, "الدولة"),
			Status:       model.StatusPending,
			Role:         model.RoleParticipant,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if src := cell(row, "المصدر"); src != "" {
			user.ReferralSource = &src
		}
		sess.Add(user)
		memberID++
		imported++
	}

	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if importErrors == nil {
		importErrors = []string{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("تم استيراد %d مشارك في قائمة الانتظار", imported),
		"errors":  importErrors,
	})
}
