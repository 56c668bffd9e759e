package handler

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/database"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/middleware"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/model"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
)

// reqCtx derives a bounded context from the request. Serverless storage
// goes over HTTP, so the timeout is wider than a local database would need.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 10*time.Second)
}

// currentUser loads the authenticated user's fresh record. The JWT proves
// identity but status and role come from storage, so that rejections and
// role changes apply immediately. When the return is nil an error response
// has already been written.
func currentUser(c echo.Context) *model.User {
	id, ok := c.Get("user_id").(int64)
	if !ok {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
		return nil
	}
	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	var u model.User
	found, err := sess.Get(ctx, &u, id)
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		return nil
	}
	if !found {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "user not found"})
		return nil
	}
	return &u
}

// activeUser is currentUser plus the active-status gate used by every
// participant endpoint.
func activeUser(c echo.Context) *model.User {
	u := currentUser(c)
	if u == nil {
		return nil
	}
	if !u.IsActive() {
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": "الحساب غير نشط"})
		return nil
	}
	return u
}

func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// attachHalqas loads the halqas (and their supervisors) referenced by the
// given users and wires them onto each record. Neither backend loads
// relationships on its own, so list endpoints call this once per batch
// instead of issuing a lookup per row.
func attachHalqas(ctx context.Context, sess store.Session, users []*model.User) error {
	var ids []any
	seen := map[int64]bool{}
	for _, u := range users {
		if u.HalqaID != nil && !seen[*u.HalqaID] {
			seen[*u.HalqaID] = true
			ids = append(ids, *u.HalqaID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	halqas, err := store.NewQuery[model.Halqa](sess).Filter(store.In("id", ids...)).All(ctx)
	if err != nil {
		return err
	}
	byID := make(map[int64]*model.Halqa, len(halqas))
	for _, h := range halqas {
		byID[h.ID] = h
	}
	if err := attachSupervisors(ctx, sess, halqas); err != nil {
		return err
	}
	for _, u := range users {
		if u.HalqaID != nil {
			u.Halqa = byID[*u.HalqaID]
		}
	}
	return nil
}

// attachSupervisors loads and wires the supervisor user of each halqa.
func attachSupervisors(ctx context.Context, sess store.Session, halqas []*model.Halqa) error {
	var ids []any
	seen := map[int64]bool{}
	for _, h := range halqas {
		if h.SupervisorID != nil && !seen[*h.SupervisorID] {
			seen[*h.SupervisorID] = true
			ids = append(ids, *h.SupervisorID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sups, err := store.NewQuery[model.User](sess).Filter(store.In("id", ids...)).All(ctx)
	if err != nil {
		return err
	}
	byID := make(map[int64]*model.User, len(sups))
	for _, s := range sups {
		byID[s.ID] = s
	}
	for _, h := range halqas {
		if h.SupervisorID != nil {
			h.Supervisor = byID[*h.SupervisorID]
		}
	}
	return nil
}

// attachMembers loads and wires the member lists of the given halqas.
func attachMembers(ctx context.Context, sess store.Session, halqas []*model.Halqa) error {
	if len(halqas) == 0 {
		return nil
	}
	ids := make([]any, len(halqas))
	for i, h := range halqas {
		ids[i] = h.ID
	}
	members, err := store.NewQuery[model.User](sess).Filter(store.In("halqa_id", ids...)).All(ctx)
	if err != nil {
		return err
	}
	byHalqa := make(map[int64][]*model.User)
	for _, m := range members {
		if m.HalqaID != nil {
			byHalqa[*m.HalqaID] = append(byHalqa[*m.HalqaID], m)
		}
	}
	for _, h := range halqas {
		h.Members = byHalqa[h.ID]
	}
	return nil
}

// userResponses maps users to response payloads, preserving order.
func userResponses(users []*model.User) []map[string]any {
	out := make([]map[string]any, len(users))
	for i, u := range users {
		out[i] = u.Response()
	}
	return out
}

func cardResponses(cards []*model.DailyCard) []map[string]any {
	out := make([]map[string]any, len(cards))
	for i, card := range cards {
		out[i] = card.Response()
	}
	return out
}

// nextMemberID returns the next free membership number on whichever backend
// the session talks to: one past the current maximum, or the numbering
// floor when none has been assigned yet.
func nextMemberID(ctx context.Context, sess store.Session) (int64, error) {
	v, err := store.NewQuery[model.User](sess).Select("MAX(member_id) AS m").Scalar(ctx)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return database.MemberIDStart, nil
	}
	n := store.RowInt64(store.Row{"m": v}, "m")
	if n == 0 {
		return database.MemberIDStart, nil
	}
	return n + 1, nil
}

// parseDate parses a YYYY-MM-DD value.
func parseDate(s string) (time.Time, error) {
	return time.Parse(store.DateLayout, s)
}

// roundPct rounds a percentage to one decimal place.
func roundPct(v float64) float64 {
	return math.Round(v*10) / 10
}

// today returns the current UTC date truncated to midnight.
func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
