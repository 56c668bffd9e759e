package router

import (
	"github.com/labstack/echo/v4"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/handler"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/middleware"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/model"
)

// RegisterSystem registers the health check and the provisioning endpoints.
// These stay outside the role middleware because they must answer before
// the database, or any user, exists.
func RegisterSystem(e *echo.Echo, s *handler.SystemHandler) {
	e.GET("/healthz", handler.Health)

	g := e.Group("/system")
	g.POST("/initialize-database", s.InitializeDatabase)
	g.GET("/health", s.Health)
	g.GET("/status", s.Status)
}

// RegisterAuth registers registration, login and account self-service.
// Register through reset-password work without a token; the rest require
// one.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)

	auth := e.Group("/api/auth", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.PUT("/profile", a.UpdateProfile)
	auth.POST("/change-password", a.ChangePassword)
}

// RegisterParticipant registers the daily card endpoints. Any
// authenticated role may call them; the handlers themselves require the
// account to be active.
func RegisterParticipant(e *echo.Echo, p *handler.ParticipantHandler, jwtSecret string) {
	g := e.Group("/api/participant", middleware.JWTAuth(jwtSecret))
	g.POST("/card", p.SaveCard)
	g.GET("/card/:card_date", p.GetCard)
	g.GET("/cards", p.ListCards)
	g.GET("/stats", p.Stats)
}

// RegisterSupervisor registers circle oversight for supervisors and super
// admins. The read-heavy summary endpoints optionally sit behind the
// response cache.
func RegisterSupervisor(e *echo.Echo, s *handler.SupervisorHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/api/supervisor",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleSupervisor, model.RoleSuperAdmin),
	)
	g.GET("/halqas", s.Halqas)
	g.GET("/members", s.Members)
	g.GET("/member/:member_id/cards", s.MemberCards)
	g.GET("/member/:member_id/card/:card_date", s.MemberCardDetail)
	g.PUT("/member/:member_id/card/:card_date", s.UpsertMemberCard)
	g.DELETE("/member/:member_id/card/:card_date", s.DeleteMemberCard)
	g.GET("/export", s.Export)

	summaries := g
	if cache != nil {
		summaries = e.Group(
			"/api/supervisor",
			middleware.JWTAuth(jwtSecret),
			middleware.RequireRole(model.RoleSupervisor, model.RoleSuperAdmin),
			cache,
		)
	}
	summaries.GET("/leaderboard", s.Leaderboard)
	summaries.GET("/daily-summary", s.DailySummary)
	summaries.GET("/range-summary", s.RangeSummary)
	summaries.GET("/weekly-summary", s.WeeklySummary)
}

// RegisterAdmin registers the super-admin management surface.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleSuperAdmin),
	)

	g.GET("/registrations", a.Registrations)
	g.POST("/registration/:user_id/approve", a.ApproveRegistration)
	g.POST("/registration/:user_id/reject", a.RejectRegistration)

	g.GET("/users", a.Users)
	g.GET("/user/:user_id", a.GetUser)
	g.PUT("/user/:user_id", a.UpdateUser)
	g.POST("/user/:user_id/reset-password", a.ResetUserPassword)
	g.POST("/user/:user_id/withdraw", a.WithdrawUser)
	g.POST("/user/:user_id/activate", a.ActivateUser)
	g.POST("/user/:user_id/set-role", a.SetRole)
	g.POST("/user/:user_id/assign-halqa", a.AssignUserHalqa)
	g.GET("/user/:user_id/cards", a.UserCards)

	g.GET("/halqas", a.Halqas)
	g.POST("/halqa", a.CreateHalqa)
	g.PUT("/halqa/:halqa_id", a.UpdateHalqa)
	g.POST("/halqa/:halqa_id/assign-members", a.AssignMembers)

	g.POST("/bulk/approve", a.BulkApprove)
	g.POST("/bulk/reject", a.BulkReject)
	g.POST("/bulk/activate", a.BulkActivate)
	g.POST("/bulk/withdraw", a.BulkWithdraw)
	g.POST("/bulk/assign-halqa", a.BulkAssignHalqa)

	g.GET("/export", a.ExportAnalytics)
	g.GET("/export-users", a.ExportUsers)
	g.POST("/import", a.ImportUsers)
	g.GET("/import-template", a.ImportTemplate)

	analytics := g
	if cache != nil {
		analytics = e.Group(
			"/admin",
			middleware.JWTAuth(jwtSecret),
			middleware.RequireRole(model.RoleSuperAdmin),
			cache,
		)
	}
	analytics.GET("/analytics", a.Analytics)
}

// RegisterSettings registers the site settings singleton. Reads are public.
func RegisterSettings(e *echo.Echo, s *handler.SettingsHandler, jwtSecret string) {
	e.GET("/api/settings", s.Get)
	e.PUT("/api/settings",
		s.Update,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleSuperAdmin),
	)
}
