package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/config"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/database"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/middleware"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/model"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/utils"
)

// SystemHandler serves provisioning and health endpoints. It talks to the
// backends directly because these routes must work before any session
// plumbing or even the schema exists.
type SystemHandler struct {
	Cfg     config.Config
	Backend database.Backend
	DB      *gorm.DB
	Exec    store.Executor
}

func NewSystemHandler(cfg config.Config, backend database.Backend, db *gorm.DB, exec store.Executor) *SystemHandler {
	return &SystemHandler{Cfg: cfg, Backend: backend, DB: db, Exec: exec}
}

// authorized checks the caller may run initialization: a matching
// X-Init-Secret header works before any users exist, otherwise a super
// admin bearer token is required.
func (h *SystemHandler) authorized(c echo.Context, ctx context.Context) bool {
	if h.Cfg.InitSecret != "" && c.Request().Header.Get("X-Init-Secret") == h.Cfg.InitSecret {
		return true
	}

	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "Requires super admin authentication or valid X-Init-Secret header",
		})
		return false
	}
	userID, _, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
		return false
	}

	sess := middleware.SessionFrom(c)
	var u model.User
	found, err := sess.Get(ctx, &u, userID)
	if err != nil || !found || u.Role != model.RoleSuperAdmin {
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": "Requires super admin role"})
		return false
	}
	return true
}

// InitializeDatabase provisions whichever backend is active: tables,
// migrations, default settings and the seed super admin. Repeat calls on
// an initialized database short-circuit, except that the serverless path
// still applies any pending additive card-column migrations.
func (h *SystemHandler) InitializeDatabase(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	if !h.authorized(c, ctx) {
		return nil
	}

	var report database.Report
	if h.Backend == database.BackendServerless {
		if h.Exec == nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "D1 database not configured. Set the Cloudflare account, database and token variables.",
			})
		}
		if ok, applied := database.IsInitializedD1(ctx, h.Exec, h.Cfg); ok {
			return c.JSON(http.StatusOK, echo.Map{
				"success":             true,
				"message":             "D1 database is already initialized",
				"already_initialized": true,
				"database_type":       string(database.BackendServerless),
				"migrations_applied":  applied,
			})
		}
		report = database.InitializeD1(ctx, h.Exec, h.Cfg)
	} else {
		if h.DB == nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database not available"})
		}
		if database.IsInitialized(h.DB, h.Cfg) {
			return c.JSON(http.StatusOK, echo.Map{
				"success":             true,
				"message":             "Database is already initialized",
				"already_initialized": true,
				"database_type":       string(h.Backend),
			})
		}
		report = database.Initialize(h.DB, h.Cfg)
	}

	if !report.Success {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Database initialization failed: " + strings.Join(report.Errors, ", "),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Database initialized successfully",
		"report":  report,
	})
}

func (h *SystemHandler) initialized(ctx context.Context) bool {
	if h.Backend == database.BackendServerless {
		if h.Exec == nil {
			return false
		}
		ok, _ := database.IsInitializedD1(ctx, h.Exec, h.Cfg)
		return ok
	}
	return h.DB != nil && database.IsInitialized(h.DB, h.Cfg)
}

// Health reports whether the active backend is reachable and provisioned.
func (h *SystemHandler) Health(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	return c.JSON(http.StatusOK, echo.Map{
		"status":               "healthy",
		"database_type":        string(h.Backend),
		"database_initialized": h.initialized(ctx),
	})
}

// Status is the public system summary shown on the frontend's setup page.
func (h *SystemHandler) Status(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	env := "server"
	if h.Backend == database.BackendServerless {
		env = "cloudflare"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":               "online",
		"database_type":        string(h.Backend),
		"database_initialized": h.initialized(ctx),
		"environment":          env,
	})
}
