package handler

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/config"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/middleware"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/model"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/queue"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/reset"
	queue_publisher "github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/service"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Resets *reset.Store
}

func NewAuthHandler(cfg config.Config, resets *reset.Store) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Resets: resets}
}

// ----- DTOs -----

type registerReq struct {
	FullName        string `json:"full_name"`
	Gender          string `json:"gender"`
	Age             int64  `json:"age"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Country         string `json:"country"`
	ReferralSource  string `json:"referral_source"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileUpdateReq struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Country  *string `json:"country"`
	Age      *int64  `json:"age"`
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type forgotPasswordReq struct {
	Email string `json:"email"`
}

type resetPasswordReq struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Register creates a pending participant. The membership number is assigned
// immediately so registrants can reference it while waiting for approval.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" || !emailPattern.MatchString(req.Email) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "الاسم والبريد الإلكتروني مطلوبان"})
	}
	if len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "كلمة المرور قصيرة جداً"})
	}
	if req.Password != req.ConfirmPassword {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "كلمتا المرور غير متطابقتين"})
	}

	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	existing, err := store.NewQuery[model.User](sess).FilterBy("email", req.Email).First(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if existing != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "البريد الإلكتروني مسجل مسبقاً"})
	}

	memberID, err := nextMemberID(ctx, sess)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hashing failed"})
	}

	now := time.Now().UTC()
	referral := strings.TrimSpace(req.ReferralSource)
	user := &model.User{
		MemberID:       &memberID,
		FullName:       req.FullName,
		Gender:         req.Gender,
		Age:            req.Age,
		Phone:          strings.TrimSpace(req.Phone),
		Email:          req.Email,
		PasswordHash:   hash,
		Country:        strings.TrimSpace(req.Country),
		ReferralSource: &referral,
		Status:         model.StatusPending,
		Role:           model.RoleParticipant,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	sess.Add(user)
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	h.notify(c, sess, queue.NotificationEvent{
		Type:     queue.EventRegistrationSubmitted,
		UserID:   user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Country:  user.Country,
		Phone:    user.Phone,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "تم إرسال طلب التسجيل بنجاح. يرجى انتظار الموافقة."})
}

// Login verifies credentials and returns a bearer token. The configured
// super admin email is auto-promoted on login, which recovers the account
// even if its role or status was damaged by a bad edit.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := store.NewQuery[model.User](sess).FilterBy("email", email).First(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if user == nil || !utils.VerifyPassword(user.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "بيانات الدخول غير صحيحة"})
	}

	if email == strings.ToLower(h.Cfg.SuperAdminEmail) &&
		(user.Role != model.RoleSuperAdmin || user.Status != model.StatusActive) {
		user.Role = model.RoleSuperAdmin
		user.Status = model.StatusActive
		user.UpdatedAt = time.Now().UTC()
		sess.Merge(user)
		if err := sess.Commit(ctx); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	switch user.Status {
	case model.StatusPending:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "طلبك قيد المراجعة. يرجى انتظار الموافقة."})
	case model.StatusRejected:
		note := ""
		if user.RejectionNote != nil {
			note = *user.RejectionNote
		}
		return c.JSON(http.StatusForbidden, echo.Map{"error": strings.TrimSpace("تم رفض طلبك. " + note)})
	case model.StatusWithdrawn:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "حسابك منسحب. تواصل مع الإدارة."})
	}

	token, err := utils.NewAccessToken(h.Cfg.JWTSecret, user.ID, user.Role, h.Cfg.AccessTokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	_ = attachHalqas(ctx, sess, []*model.User{user})
	return c.JSON(http.StatusOK, echo.Map{"token": token.Token, "user": user.Response()})
}

// Me returns the current user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return nil
	}
	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	_ = attachHalqas(ctx, sess, []*model.User{user})
	return c.JSON(http.StatusOK, echo.Map{"user": user.Response()})
}

// UpdateProfile lets a user edit the self-service subset of their record.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return nil
	}
	var req profileUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Country != nil {
		user.Country = strings.TrimSpace(*req.Country)
	}
	if req.Age != nil {
		user.Age = *req.Age
	}
	user.UpdatedAt = time.Now().UTC()

	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess.Merge(user)
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	_ = attachHalqas(ctx, sess, []*model.User{user})
	return c.JSON(http.StatusOK, echo.Map{"message": "تم تحديث الملف الشخصي", "user": user.Response()})
}

// ChangePassword rotates the password after verifying the current one.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return nil
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !utils.VerifyPassword(user.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "كلمة المرور الحالية غير صحيحة"})
	}
	if len(req.NewPassword) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "كلمة المرور قصيرة جداً"})
	}
	if req.NewPassword != req.ConfirmPassword {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "كلمتا المرور غير متطابقتين"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hashing failed"})
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()

	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess.Merge(user)
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "تم تغيير كلمة المرور بنجاح"})
}

// ForgotPassword issues a 6-digit reset code and hands it to the
// notification worker. The code is single-use and expires on its own.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := store.NewQuery[model.User](sess).FilterBy("email", email).First(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if user == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "هذا البريد الإلكتروني غير مسجل في النظام"})
	}

	code, err := utils.NewResetCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset code failed"})
	}
	if err := h.Resets.Put(ctx, email, code); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset code failed"})
	}

	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishNotification(pubCtx, queue.NotificationEvent{
			Type:      queue.EventPasswordReset,
			UserID:    user.ID,
			FullName:  user.FullName,
			Email:     user.Email,
			ResetCode: code,
		})
	}()

	return c.JSON(http.StatusOK, echo.Map{"message": "تم إرسال رمز إعادة التعيين إلى بريدك الإلكتروني"})
}

// ResetPassword completes the reset flow with a valid code.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if len(req.NewPassword) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "كلمة المرور قصيرة جداً"})
	}

	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	ok, err := h.Resets.Consume(ctx, email, req.Token)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "رمز إعادة التعيين غير صحيح"})
	}

	user, err := store.NewQuery[model.User](sess).FilterBy("email", email).First(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if user == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "المستخدم غير موجود"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hashing failed"})
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	sess.Merge(user)
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "تم إعادة تعيين كلمة المرور بنجاح"})
}

// notify publishes an event when the site settings allow it. Failures are
// swallowed so email problems never block registration.
func (h *AuthHandler) notify(c echo.Context, sess store.Session, ev queue.NotificationEvent) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	settings, err := store.NewQuery[model.SiteSettings](sess).First(ctx)
	if err != nil || settings == nil || !settings.EnableEmailNotifications {
		return
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishNotification(pubCtx, ev)
	}()
}
