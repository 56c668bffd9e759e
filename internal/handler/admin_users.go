package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/config"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/middleware"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/model"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/utils"
)

// AdminHandler serves the super-admin management endpoints: registrations,
// users, halqas, analytics and bulk operations.
type AdminHandler struct {
	Cfg config.Config
}

func NewAdminHandler(cfg config.Config) *AdminHandler {
	return &AdminHandler{Cfg: cfg}
}

type adminUserUpdateReq struct {
	FullName       *string `json:"full_name"`
	Gender         *string `json:"gender"`
	Age            *int64  `json:"age"`
	Phone          *string `json:"phone"`
	Country        *string `json:"country"`
	ReferralSource *string `json:"referral_source"`
	Status         *string `json:"status"`
	HalqaID        *int64  `json:"halqa_id"`
}

type adminResetPasswordReq struct {
	NewPassword string `json:"new_password"`
}

type setRoleReq struct {
	Role string `json:"role"`
}

type rejectReq struct {
	Note string `json:"note"`
}

type assignHalqaReq struct {
	HalqaID *int64 `json:"halqa_id"`
}

type bulkUserIDsReq struct {
	UserIDs []int64 `json:"user_ids"`
}

type bulkAssignHalqaReq struct {
	UserIDs []int64 `json:"user_ids"`
	HalqaID *int64  `json:"halqa_id"`
}

// userByPath loads the user addressed by the :user_id parameter. A nil
// return means the error response was already written.
func userByPath(c echo.Context, ctx context.Context) *model.User {
	id, ok := pathID(c, "user_id")
	if !ok {
		return nil
	}
	sess := middleware.SessionFrom(c)
	var u model.User
	found, err := sess.Get(ctx, &u, id)
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		return nil
	}
	if !found {
		_ = c.JSON(http.StatusNotFound, echo.Map{"error": "المستخدم غير موجود"})
		return nil
	}
	return &u
}

// userPayload attaches the halqa chain and maps to the response shape.
func userPayload(ctx context.Context, sess store.Session, u *model.User) map[string]any {
	_ = attachHalqas(ctx, sess, []*model.User{u})
	return u.Response()
}

// Registrations lists registration requests, newest first. The status
// filter defaults to pending; "all" lifts it.
func (h *AdminHandler) Registrations(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	status := c.QueryParam("status")
	if status == "" {
		status = model.StatusPending
	}
	q := store.NewQuery[model.User](sess)
	if status != "all" {
		q = q.FilterBy("status", status)
	}
	users, err := q.OrderBy(store.Desc("created_at")).All(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := attachHalqas(ctx, sess, users); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": userResponses(users)})
}

// ApproveRegistration activates a pending registration and clears any
// earlier rejection note.
func (h *AdminHandler) ApproveRegistration(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	user := userByPath(c, ctx)
	if user == nil {
		return nil
	}
	user.Status = model.StatusActive
	user.RejectionNote = nil
	sess.Merge(user)
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "تم قبول الطلب", "user": userPayload(ctx, sess, user)})
}

// RejectRegistration marks a registration rejected with an optional note
// shown to the participant at login.
func (h *AdminHandler) RejectRegistration(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	user := userByPath(c, ctx)
	if user == nil {
		return nil
	}
	var req rejectReq
	_ = c.Bind(&req)

	user.Status = model.StatusRejected
	user.RejectionNote = &req.Note
	sess.Merge(user)
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "تم رفض الطلب", "user": userPayload(ctx, sess, user)})
}

// Users lists all users with optional status, gender, halqa and name/email
// search filters, newest first.
func (h *AdminHandler) Users(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	q := store.NewQuery[model.User](sess)
	if v := c.QueryParam("status"); v != "" {
		q = q.FilterBy("status", v)
	}
	if v := c.QueryParam("gender"); v != "" {
		q = q.FilterBy("gender", v)
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
	return c.JSON(http.StatusOK, echo.Map{"users": userResponses(users)})
}

// GetUser returns one user's details.
func (h *AdminHandler) GetUser(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	user := userByPath(c, ctx)
	if user == nil {
		return nil
	}
	return c.JSON(http.StatusOK, echo.Map{"user": userPayload(ctx, sess, user)})
}

// UpdateUser applies the fields the admin is allowed to edit.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	user := userByPath(c, ctx)
	if user == nil {
		return nil
	}
	var req adminUserUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if req.Status != nil && !model.ValidStatus(*req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "الحالة غير صالحة"})
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.Age != nil {
		user.Age = *req.Age
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Country != nil {
		user.Country = *req.Country
	}
	if req.ReferralSource != nil {
		user.ReferralSource = req.ReferralSource
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	if req.HalqaID != nil {
		user.HalqaID = req.HalqaID
	}

	sess.Merge(user)
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "تم تحديث البيانات", "user": userPayload(ctx, sess, user)})
}

// ResetUserPassword sets a new password on behalf of the user.
func (h *AdminHandler) ResetUserPassword(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	user := userByPath(c, ctx)
	if user == nil {
		return nil
	}
	var req adminResetPasswordReq
	if err := c.Bind(&req); err != nil || len(req.NewPassword) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "كلمة المرور قصيرة جداً"})
	}
	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hashing failed"})
	}
	user.PasswordHash = hash
	sess.Merge(user)
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "تم إعادة تعيين كلمة المرور"})
}

// WithdrawUser marks a user as withdrawn.
func (h *AdminHandler) WithdrawUser(c echo.Context) error {
	return h.setStatus(c, model.StatusWithdrawn, "تم سحب المشارك")
}

// ActivateUser re-activates a withdrawn or rejected user.
func (h *AdminHandler) ActivateUser(c echo.Context) error {
	return h.setStatus(c, model.StatusActive, "تم تفعيل المشارك")
}

func (h *AdminHandler) setStatus(c echo.Context, status, message string) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	user := userByPath(c, ctx)
	if user == nil {
		return nil
	}
	user.Status = status
	sess.Merge(user)
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": message, "user": userPayload(ctx, sess, user)})
}

// SetRole changes a user's role. Granting or revoking super_admin is
// reserved to the primary super admin configured at deployment.
func (h *AdminHandler) SetRole(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	admin := currentUser(c)
	if admin == nil {
		return nil
	}
	target := userByPath(c, ctx)
	if target == nil {
		return nil
	}
	var req setRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "الصلاحية غير صالحة"})
	}

	primary := strings.ToLower(h.Cfg.SuperAdminEmail)
	if req.Role == model.RoleSuperAdmin || target.Role == model.RoleSuperAdmin {
		if strings.ToLower(admin.Email) != primary {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "فقط المشرف الرئيسي يمكنه إدارة صلاحيات السوبر آدمن"})
		}
	}

	target.Role = req.Role
	sess.Merge(target)
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "تم تحديث الصلاحية", "user": userPayload(ctx, sess, target)})
}

// AssignUserHalqa moves one user into a halqa, or out of all halqas when
// halqa_id is null.
func (h *AdminHandler) AssignUserHalqa(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	user := userByPath(c, ctx)
	if user == nil {
		return nil
	}
	var req assignHalqaReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	user.HalqaID = req.HalqaID
	sess.Merge(user)
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "تم تعيين الحلقة", "user": userPayload(ctx, sess, user)})
}

// UserCards returns one user's daily cards with optional date filtering,
// newest first.
func (h *AdminHandler) UserCards(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	user := userByPath(c, ctx)
	if user == nil {
		return nil
	}
	q := store.NewQuery[model.DailyCard](sess).FilterBy("user_id", user.ID)
	if v := c.QueryParam("date_from"); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date_from"})
		}
		q = q.Filter(store.Ge("date", d.Format(store.DateLayout)))
	}
	if v := c.QueryParam("date_to"); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date_to"})
		}
		q = q.Filter(store.Le("date", d.Format(store.DateLayout)))
	}
	cards, err := q.OrderBy(store.Desc("date")).All(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"member": userPayload(ctx, sess, user),
		"cards":  cardResponses(cards),
	})
}

// BulkApprove activates every listed user still in pending state.
func (h *AdminHandler) BulkApprove(c echo.Context) error {
	return h.bulkStatus(c, []string{model.StatusPending}, model.StatusActive, true, "تم قبول %d طلب")
}

// BulkReject rejects every listed user still in pending state.
func (h *AdminHandler) BulkReject(c echo.Context) error {
	return h.bulkStatus(c, []string{model.StatusPending}, model.StatusRejected, false, "تم رفض %d طلب")
}

// BulkActivate re-activates every listed rejected or withdrawn user.
func (h *AdminHandler) BulkActivate(c echo.Context) error {
	return h.bulkStatus(c, []string{model.StatusRejected, model.StatusWithdrawn}, model.StatusActive, false, "تم تفعيل %d مشارك")
}

// BulkWithdraw withdraws every listed active user.
func (h *AdminHandler) BulkWithdraw(c echo.Context) error {
	return h.bulkStatus(c, []string{model.StatusActive}, model.StatusWithdrawn, false, "تم سحب %d مشارك")
}

func (h *AdminHandler) bulkStatus(c echo.Context, from []string, to string, clearNote bool, messageFmt string) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	var req bulkUserIDsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	eligible := map[string]bool{}
	for _, s := range from {
		eligible[s] = true
	}

	count := 0
	for _, id := range req.UserIDs {
		var u model.User
		found, err := sess.Get(ctx, &u, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if !found || !eligible[u.Status] {
			continue
		}
		u.Status = to
		if clearNote {
			u.RejectionNote = nil
		}
		sess.Merge(&u)
		count++
	}
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": fmt.Sprintf(messageFmt, count)})
}

// BulkAssignHalqa moves every listed user into the given halqa, or out of
// all halqas when halqa_id is null.
func (h *AdminHandler) BulkAssignHalqa(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	var req bulkAssignHalqaReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	count := 0
	for _, id := range req.UserIDs {
		var u model.User
		found, err := sess.Get(ctx, &u, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if !found {
			continue
		}
		u.HalqaID = req.HalqaID
		sess.Merge(&u)
		count++
	}
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": fmt.Sprintf("تم تعيين الحلقة لـ %d مشارك", count)})
}
