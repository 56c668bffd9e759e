package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/middleware"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/model"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
)

// SettingsHandler serves the site settings singleton. Reading is public so
// the frontend can adapt before login; writing is super admin only.
type SettingsHandler struct{}

func NewSettingsHandler() *SettingsHandler {
	return &SettingsHandler{}
}

type settingsUpdateReq struct {
	EnableEmailNotifications bool `json:"enable_email_notifications"`
}

// Get returns the current settings, defaulting to notifications enabled
// when the row has not been created yet.
func (h *SettingsHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	site, err := store.NewQuery[model.SiteSettings](sess).First(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if site == nil {
		return c.JSON(http.StatusOK, echo.Map{"id": nil, "enable_email_notifications": true})
	}
	return c.JSON(http.StatusOK, site.Response())
}

// Update upserts the settings row.
func (h *SettingsHandler) Update(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess := middleware.SessionFrom(c)

	var req settingsUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	site, err := store.NewQuery[model.SiteSettings](sess).First(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if site == nil {
		site = &model.SiteSettings{EnableEmailNotifications: req.EnableEmailNotifications}
		sess.Add(site)
	} else {
		site.EnableEmailNotifications = req.EnableEmailNotifications
		sess.Merge(site)
	}
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "تم تحديث الإعدادات", "settings": site.Response()})
}
