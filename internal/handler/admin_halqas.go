package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/middleware"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/model"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
)

type halqaCreateReq struct {
	Name         string `json:"name"`
	SupervisorID *int64 `json:"supervisor_id"`
}

type halqaUpdateReq struct {
	Name         *string `json:"name"`
	SupervisorID *int64  `json:"supervisor_id"`
}

type assignMembersReq struct {
	UserIDs []int64 `json:"user_ids"`
}

// Halqas lists every halqa with supervisor and member details attached.
func (h *AdminHandler) Halqas(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	halqas, err := store.NewQuery[model.Halqa](sess).All(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := attachSupervisors(ctx, sess, halqas); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := attachMembers(ctx, sess, halqas); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]map[string]any, len(halqas))
	for i, halqa := range halqas {
		out[i] = halqa.Response()
	}
	return c.JSON(http.StatusOK, echo.Map{"halqas": out})
}

// clearSupervisorElsewhere detaches the supervisor from whichever other
// halqa they currently run, so one person never supervises two circles.
// Returns the name of the halqa they were removed from, if any.
func clearSupervisorElsewhere(ctx context.Context, sess store.Session, supervisorID, exceptHalqaID int64) (string, error) {
	q := store.NewQuery[model.Halqa](sess).FilterBy("supervisor_id", supervisorID)
	if exceptHalqaID > 0 {
		q = q.Filter(store.Ne("id", exceptHalqaID))
	}
	old, err := q.First(ctx)
	if err != nil || old == nil {
		return "", err
	}
	old.SupervisorID = nil
	sess.Merge(old)
	return old.Name, nil
}

// CreateHalqa makes a new halqa. Assigning a supervisor who already runs
// another halqa moves them here.
func (h *AdminHandler) CreateHalqa(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	var req halqaCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "اسم الحلقة مطلوب"})
	}

	existing, err := store.NewQuery[model.Halqa](sess).FilterBy("name", name).First(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if existing != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "اسم الحلقة موجود مسبقاً"})
	}

	oldName := ""
	if req.SupervisorID != nil {
		oldName, err = clearSupervisorElsewhere(ctx, sess, *req.SupervisorID, 0)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	halqa := &model.Halqa{Name: name, SupervisorID: req.SupervisorID}
	sess.Add(halqa)
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	msg := "تم إنشاء الحلقة"
	if oldName != "" {
		msg += fmt.Sprintf(" (تم إزالة المشرف من حلقة «%s»)", oldName)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg, "halqa": halqaPayload(ctx, sess, halqa)})
}

// UpdateHalqa renames a halqa or changes its supervisor. Sending
// supervisor_id as 0 or null-with-presence clears the assignment.
func (h *AdminHandler) UpdateHalqa(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	id, ok := pathID(c, "halqa_id")
	if !ok {
		return nil
	}
	var halqa model.Halqa
	found, err := sess.Get(ctx, &halqa, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "الحلقة غير موجودة"})
	}

	var req halqaUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "اسم الحلقة مطلوب"})
		}
		halqa.Name = name
	}

	oldName := ""
	if req.SupervisorID != nil {
		if *req.SupervisorID > 0 {
			if halqa.SupervisorID == nil || *halqa.SupervisorID != *req.SupervisorID {
				oldName, err = clearSupervisorElsewhere(ctx, sess, *req.SupervisorID, halqa.ID)
				if err != nil {
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
				}
			}
			halqa.SupervisorID = req.SupervisorID
		} else {
			halqa.SupervisorID = nil
		}
	}

	sess.Merge(&halqa)
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	msg := "تم تحديث الحلقة"
	if oldName != "" {
		msg += fmt.Sprintf(" (تم إزالة المشرف من حلقة «%s»)", oldName)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg, "halqa": halqaPayload(ctx, sess, &halqa)})
}

// AssignMembers moves the listed users into the halqa.
func (h *AdminHandler) AssignMembers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	id, ok := pathID(c, "halqa_id")
	if !ok {
		return nil
	}
	var halqa model.Halqa
	found, err := sess.Get(ctx, &halqa, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "الحلقة غير موجودة"})
	}

	var req assignMembersReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	for _, uid := range req.UserIDs {
		var u model.User
		found, err := sess.Get(ctx, &u, uid)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if !found {
			continue
		}
		u.HalqaID = &halqa.ID
		sess.Merge(&u)
	}
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "تم تعيين المشاركين"})
}
