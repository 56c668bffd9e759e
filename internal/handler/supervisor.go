package handler

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/config"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/middleware"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/model"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
)

// SupervisorHandler serves the circle oversight endpoints. Supervisors see
// their own halqa; super admins may pick any halqa or see everyone.
type SupervisorHandler struct {
	Cfg config.Config
}

func NewSupervisorHandler(cfg config.Config) *SupervisorHandler {
	return &SupervisorHandler{Cfg: cfg}
}

// resolveHalqa decides which halqa a request covers. Super admins may pick
// one via halqa_id or leave it unset for all members; supervisors always
// get their own halqa and the parameter is ignored. A nil halqa with ok set
// means "all halqas". When ok is false a response was already written.
func (h *SupervisorHandler) resolveHalqa(c echo.Context, ctx context.Context, user *model.User) (*model.Halqa, bool) {
	sess := middleware.SessionFrom(c)
	if user.Role == model.RoleSuperAdmin {
		raw := c.QueryParam("halqa_id")
		if raw == "" {
			return nil, true
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid halqa_id"})
			return nil, false
		}
		var halqa model.Halqa
		found, err := sess.Get(ctx, &halqa, id)
		if err != nil {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
			return nil, false
		}
		if !found {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "الحلقة غير موجودة"})
			return nil, false
		}
		return &halqa, true
	}

	halqa, err := store.NewQuery[model.Halqa](sess).FilterBy("supervisor_id", user.ID).First(ctx)
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		return nil, false
	}
	if halqa == nil {
		_ = c.JSON(http.StatusNotFound, echo.Map{"error": "لا توجد حلقة مسندة إليك"})
		return nil, false
	}
	return halqa, true
}

// scopeMembers returns the active members of the halqa, or every active
// participant when halqa is nil.
func scopeMembers(ctx context.Context, sess store.Session, halqa *model.Halqa) ([]*model.User, error) {
	q := store.NewQuery[model.User](sess).FilterBy("status", model.StatusActive)
	if halqa != nil {
		q = q.FilterBy("halqa_id", halqa.ID)
	} else {
		q = q.FilterBy("role", model.RoleParticipant)
	}
	return q.All(ctx)
}

// memberForAccess loads a member and enforces that the caller may see them:
// super admins see everyone, supervisors only their own halqa's members.
func (h *SupervisorHandler) memberForAccess(c echo.Context, ctx context.Context, user *model.User, memberID int64) *model.User {
	sess := middleware.SessionFrom(c)
	var member model.User
	found, err := sess.Get(ctx, &member, memberID)
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		return nil
	}
	if !found {
		_ = c.JSON(http.StatusNotFound, echo.Map{"error": "المشارك غير موجود"})
		return nil
	}
	if user.Role == model.RoleSuperAdmin {
		return &member
	}
	halqa, err := store.NewQuery[model.Halqa](sess).FilterBy("supervisor_id", user.ID).First(ctx)
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		return nil
	}
	if halqa == nil || member.HalqaID == nil || *member.HalqaID != halqa.ID {
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": "المشارك ليس في حلقتك"})
		return nil
	}
	return &member
}

// halqaPayload builds the halqa response with members and supervisor
// attached. A nil halqa maps to nil.
func halqaPayload(ctx context.Context, sess store.Session, halqa *model.Halqa) map[string]any {
	if halqa == nil {
		return nil
	}
	hs := []*model.Halqa{halqa}
	_ = attachMembers(ctx, sess, hs)
	_ = attachSupervisors(ctx, sess, hs)
	return halqa.Response()
}

// Halqas lists the circles visible to the caller.
func (h *SupervisorHandler) Halqas(c echo.Context) error {
	user := activeUser(c)
	if user == nil {
		return nil
	}
	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	var halqas []*model.Halqa
	var err error
	if user.Role == model.RoleSuperAdmin {
		halqas, err = store.NewQuery[model.Halqa](sess).All(ctx)
	} else {
		var own *model.Halqa
		own, err = store.NewQuery[model.Halqa](sess).FilterBy("supervisor_id", user.ID).First(ctx)
		if own != nil {
			halqas = []*model.Halqa{own}
		}
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	_ = attachMembers(ctx, sess, halqas)
	_ = attachSupervisors(ctx, sess, halqas)

	out := make([]map[string]any, len(halqas))
	for i, halqa := range halqas {
		out[i] = halqa.Response()
	}
	return c.JSON(http.StatusOK, echo.Map{"halqas": out})
}

// Members lists the active members in scope.
func (h *SupervisorHandler) Members(c echo.Context) error {
	user := activeUser(c)
	if user == nil {
		return nil
	}
	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	halqa, ok := h.resolveHalqa(c, ctx, user)
	if !ok {
		return nil
	}
	members, err := scopeMembers(ctx, sess, halqa)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	_ = attachHalqas(ctx, sess, members)

	return c.JSON(http.StatusOK, echo.Map{
		"halqa":   halqaPayload(ctx, sess, halqa),
		"members": userResponses(members),
	})
}

// MemberCards returns every card of one member, newest first.
func (h *SupervisorHandler) MemberCards(c echo.Context) error {
	user := activeUser(c)
	if user == nil {
		return nil
	}
	memberID, ok := pathID(c, "member_id")
	if !ok {
		return nil
	}
	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	member := h.memberForAccess(c, ctx, user, memberID)
	if member == nil {
		return nil
	}
	cards, err := store.NewQuery[model.DailyCard](sess).
		FilterBy("user_id", memberID).
		OrderBy(store.Desc("date")).
		All(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	_ = attachHalqas(ctx, sess, []*model.User{member})
	return c.JSON(http.StatusOK, echo.Map{
		"member": member.Response(),
		"cards":  cardResponses(cards),
	})
}

// MemberCardDetail returns one member card by date, or null.
func (h *SupervisorHandler) MemberCardDetail(c echo.Context) error {
	user := activeUser(c)
	if user == nil {
		return nil
	}
	memberID, ok := pathID(c, "member_id")
	if !ok {
		return nil
	}
	cardDate, err := parseDate(c.Param("card_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	member := h.memberForAccess(c, ctx, user, memberID)
	if member == nil {
		return nil
	}
	card, err := store.NewQuery[model.DailyCard](sess).
		FilterBy("user_id", memberID).
		FilterBy("date", cardDate.Format(store.DateLayout)).
		First(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	resp := echo.Map{"member": member.Response(), "card": nil}
	if card != nil {
		resp["card"] = card.Response()
	}
	return c.JSON(http.StatusOK, resp)
}

// UpsertMemberCard creates or overwrites a member's card for a date. Unlike
// the participant endpoint this one may edit, so supervisors can correct
// entry mistakes.
func (h *SupervisorHandler) UpsertMemberCard(c echo.Context) error {
	user := activeUser(c)
	if user == nil {
		return nil
	}
	memberID, ok := pathID(c, "member_id")
	if !ok {
		return nil
	}
	cardDate, err := parseDate(c.Param("card_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	var req dailyCardReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if cardDate.After(today()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "لا يمكن إدخال بطاقة بتاريخ مستقبلي"})
	}
	if cardDate.Before(h.Cfg.ProgramStart) || cardDate.After(h.Cfg.ProgramEnd) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "البطاقات مسموحة فقط خلال شهر رمضان"})
	}

	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	if member := h.memberForAccess(c, ctx, user, memberID); member == nil {
		return nil
	}

	now := time.Now().UTC()
	card, err := store.NewQuery[model.DailyCard](sess).
		FilterBy("user_id", memberID).
		FilterBy("date", cardDate.Format(store.DateLayout)).
		First(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if card == nil {
		card = &model.DailyCard{UserID: memberID, Date: cardDate, CreatedAt: now}
	}
	for field, v := range req.scores() {
		card.SetScore(field, v)
	}
	desc := req.ExtraWorkDescription
	card.ExtraWorkDescription = &desc
	card.UpdatedAt = now

	if card.ID == 0 {
		sess.Add(card)
	} else {
		sess.Merge(card)
	}
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "تم تحديث بطاقة المشارك", "card": card.Response()})
}

// DeleteMemberCard removes a member's card for a date.
func (h *SupervisorHandler) DeleteMemberCard(c echo.Context) error {
	user := activeUser(c)
	if user == nil {
		return nil
	}
	memberID, ok := pathID(c, "member_id")
	if !ok {
		return nil
	}
	cardDate, err := parseDate(c.Param("card_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	if member := h.memberForAccess(c, ctx, user, memberID); member == nil {
		return nil
	}
	card, err := store.NewQuery[model.DailyCard](sess).
		FilterBy("user_id", memberID).
		FilterBy("date", cardDate.Format(store.DateLayout)).
		First(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if card == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "البطاقة غير موجودة"})
	}
	sess.Delete(card)
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "تم حذف البطاقة بنجاح"})
}

// cardsByUser loads every card of the given members in one query and
// groups them by user id.
func cardsByUser(ctx context.Context, sess store.Session, members []*model.User, extra ...store.Clause) (map[int64][]*model.DailyCard, error) {
	if len(members) == 0 {
		return map[int64][]*model.DailyCard{}, nil
	}
	ids := make([]any, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	q := store.NewQuery[model.DailyCard](sess).Filter(store.In("user_id", ids...)).Filter(extra...)
	cards, err := q.All(ctx)
	if err != nil {
		return nil, err
	}
	grouped := make(map[int64][]*model.DailyCard)
	for _, card := range cards {
		grouped[card.UserID] = append(grouped[card.UserID], card)
	}
	return grouped, nil
}

// Leaderboard ranks the members in scope by total score across the program
// so far. The denominator is elapsed program days, so members who joined
// late are not flattered.
func (h *SupervisorHandler) Leaderboard(c echo.Context) error {
	user := activeUser(c)
	if user == nil {
		return nil
	}
	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	halqa, ok := h.resolveHalqa(c, ctx, user)
	if !ok {
		return nil
	}
	members, err := scopeMembers(ctx, sess, halqa)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	_ = attachHalqas(ctx, sess, members)

	grouped, err := cardsByUser(ctx, sess, members)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	end := today()
	if end.After(h.Cfg.ProgramEnd) {
		end = h.Cfg.ProgramEnd
	}
	elapsedDays := int(end.Sub(h.Cfg.ProgramStart).Hours()/24) + 1
	if elapsedDays < 1 {
		elapsedDays = 1
	}
	maxTotal := float64(elapsedDays) * maxPerDay()

	entries := make([]map[string]any, 0, len(members))
	for _, m := range members {
		var total float64
		for _, card := range grouped[m.ID] {
			total += card.TotalScore()
		}
		halqaName := "-"
		if m.Halqa != nil {
			halqaName = m.Halqa.Name
		}
		var pct float64
		if maxTotal > 0 {
			pct = roundPct(total / maxTotal * 100)
		}
		entries = append(entries, map[string]any{
			"user_id":     m.ID,
			"member_id":   m.MemberID,
			"full_name":   m.FullName,
			"gender":      m.Gender,
			"halqa_name":  halqaName,
			"total_score": total,
			"percentage":  pct,
			"cards_count": len(grouped[m.ID]),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i]["total_score"].(float64) > entries[j]["total_score"].(float64)
	})
	for i, e := range entries {
		e["rank"] = i + 1
	}

	return c.JSON(http.StatusOK, echo.Map{
		"halqa":       halqaPayload(ctx, sess, halqa),
		"leaderboard": entries,
	})
}

// DailySummary splits the members in scope into submitted and not-submitted
// for one date (today by default).
func (h *SupervisorHandler) DailySummary(c echo.Context) error {
	user := activeUser(c)
	if user == nil {
		return nil
	}
	targetDate := today()
	if raw := c.QueryParam("date"); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
		}
		targetDate = d
	}

	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	halqa, ok := h.resolveHalqa(c, ctx, user)
	if !ok {
		return nil
	}
	members, err := scopeMembers(ctx, sess, halqa)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	_ = attachHalqas(ctx, sess, members)

	grouped, err := cardsByUser(ctx, sess, members,
		store.Eq("date", targetDate.Format(store.DateLayout)))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	submitted := []map[string]any{}
	notSubmitted := []map[string]any{}
	for _, m := range members {
		if cards := grouped[m.ID]; len(cards) > 0 {
			submitted = append(submitted, map[string]any{
				"member": m.Response(),
				"card":   cards[0].Response(),
			})
		} else {
			notSubmitted = append(notSubmitted, m.Response())
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"date":                targetDate.Format(store.DateLayout),
		"halqa":               halqaPayload(ctx, sess, halqa),
		"submitted":           submitted,
		"not_submitted":       notSubmitted,
		"submitted_count":     len(submitted),
		"not_submitted_count": len(notSubmitted),
		"total_members":       len(members),
	})
}

// RangeSummary aggregates scores per member over an arbitrary date range,
// defaulting to the last seven days.
func (h *SupervisorHandler) RangeSummary(c echo.Context) error {
	user := activeUser(c)
	if user == nil {
		return nil
	}
	end := today()
	start := end.AddDate(0, 0, -6)
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
	totalDays := int(end.Sub(start).Hours()/24) + 1

	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	halqa, ok := h.resolveHalqa(c, ctx, user)
	if !ok {
		return nil
	}
	members, err := scopeMembers(ctx, sess, halqa)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	_ = attachHalqas(ctx, sess, members)

	grouped, err := cardsByUser(ctx, sess, members,
		store.Ge("date", start.Format(store.DateLayout)),
		store.Le("date", end.Format(store.DateLayout)))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	maxTotal := float64(totalDays) * maxPerDay()
	summary := make([]map[string]any, 0, len(members))
	for _, m := range members {
		var total float64
		for _, card := range grouped[m.ID] {
			total += card.TotalScore()
		}
		var pct float64
		if maxTotal > 0 {
			pct = roundPct(total / maxTotal * 100)
		}
		supName := "-"
		if m.Halqa != nil && m.Halqa.Supervisor != nil {
			supName = m.Halqa.Supervisor.FullName
		}
		summary = append(summary, map[string]any{
			"member":          m.Response(),
			"cards_submitted": len(grouped[m.ID]),
			"total_days":      totalDays,
			"total_score":     total,
			"percentage":      pct,
			"supervisor_name": supName,
		})
	}
	sort.SliceStable(summary, func(i, j int) bool {
		return summary[i]["total_score"].(float64) > summary[j]["total_score"].(float64)
	})

	return c.JSON(http.StatusOK, echo.Map{
		"halqa":      halqaPayload(ctx, sess, halqa),
		"date_from":  start.Format(store.DateLayout),
		"date_to":    end.Format(store.DateLayout),
		"total_days": totalDays,
		"summary":    summary,
	})
}

// WeeklySummary aggregates scores per member from the start of the current
// week (Monday) through today.
func (h *SupervisorHandler) WeeklySummary(c echo.Context) error {
	user := activeUser(c)
	if user == nil {
		return nil
	}
	end := today()
	weekday := int(end.Weekday()+6) % 7 // Monday = 0
	start := end.AddDate(0, 0, -weekday)
	weekDays := weekday + 1

	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	halqa, ok := h.resolveHalqa(c, ctx, user)
	if !ok {
		return nil
	}
	members, err := scopeMembers(ctx, sess, halqa)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	_ = attachHalqas(ctx, sess, members)

	grouped, err := cardsByUser(ctx, sess, members,
		store.Ge("date", start.Format(store.DateLayout)),
		store.Le("date", end.Format(store.DateLayout)))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	maxTotal := float64(weekDays) * maxPerDay()
	summary := make([]map[string]any, 0, len(members))
	for _, m := range members {
		var total float64
		for _, card := range grouped[m.ID] {
			total += card.TotalScore()
		}
		var pct float64
		if maxTotal > 0 {
			pct = roundPct(total / maxTotal * 100)
		}
		summary = append(summary, map[string]any{
			"member":          m.Response(),
			"cards_submitted": len(grouped[m.ID]),
			"total_score":     total,
			"percentage":      pct,
		})
	}
	sort.SliceStable(summary, func(i, j int) bool {
		return summary[i]["total_score"].(float64) > summary[j]["total_score"].(float64)
	})

	return c.JSON(http.StatusOK, echo.Map{
		"halqa":      halqaPayload(ctx, sess, halqa),
		"week_start": start.Format(store.DateLayout),
		"week_end":   end.Format(store.DateLayout),
		"summary":    summary,
	})
}

// maxPerDay is the best possible total for one card.
func maxPerDay() float64 {
	return float64(len(model.ScoreFields)) * 10
}
