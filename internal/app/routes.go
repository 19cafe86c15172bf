package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/metrics"
	"github.com/qualis-hq/backoffice/internal/middleware"
	"github.com/qualis-hq/backoffice/internal/plugins/activity"
	"github.com/qualis-hq/backoffice/internal/plugins/auth"
	"github.com/qualis-hq/backoffice/internal/plugins/documents"
	"github.com/qualis-hq/backoffice/internal/plugins/employees"
	"github.com/qualis-hq/backoffice/internal/plugins/messages"
	"github.com/qualis-hq/backoffice/internal/plugins/pendingusers"
	"github.com/qualis-hq/backoffice/internal/plugins/questionnaires"
	"github.com/qualis-hq/backoffice/internal/plugins/records"
)

// RegisterRoutes builds every plugin and mounts its routes under /api/v1.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// --- Ops ---

	e.GET("/healthz", a.healthz)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(a.Registry)))

	api := e.Group("/api/v1")

	// One limiter shared by every unauthenticated endpoint.
	limiter := middleware.RateLimit(a.Config.RateLimit.RPS, a.Config.RateLimit.Burst)

	// --- Activity ---
	// Built first: every other plugin records through it.

	activitySvc := activity.NewService(activity.NewRepository(a.DB), a.Publisher)

	// --- Auth ---

	var cache auth.TokenCache
	if a.Redis != nil {
		cache = auth.NewRedisTokenCache(a.Redis, a.Config.Auth.TokenCacheTTL)
	}
	authSvc := auth.NewAuthService(
		auth.NewUserRepository(a.DB),
		auth.NewAdminRepository(a.DB),
		auth.NewTokenRepository(a.DB),
		cache,
		activitySvc,
		a.Metrics,
		a.Config.Auth.ResetTokenTTL,
	)
	auth.RegisterRoutes(api, auth.NewHandler(authSvc, a.Config.IsDevelopment()), authSvc, limiter)
	activity.RegisterRoutes(api, activity.NewHandler(activitySvc), authSvc)

	// --- Customer data ---

	employeeSvc := employees.NewService(employees.NewRepository(a.DB), activitySvc, a.Metrics)
	employees.RegisterRoutes(api, employees.NewHandler(employeeSvc), authSvc)

	recordSvc := records.NewService(records.NewRepository(a.DB), activitySvc, a.Metrics)
	records.RegisterRoutes(api, records.NewHandler(recordSvc), authSvc)

	documentSvc := documents.NewService(documents.NewRepository(a.DB), activitySvc)
	documents.RegisterRoutes(api, documents.NewHandler(documentSvc), authSvc)

	questionnaireSvc := questionnaires.NewService(questionnaires.NewRepository(a.DB), employeeSvc, activitySvc)
	questionnaires.RegisterRoutes(api, questionnaires.NewHandler(questionnaireSvc), authSvc, limiter)

	messageSvc := messages.NewService(messages.NewRepository(a.DB), activitySvc)
	messages.RegisterRoutes(api, messages.NewHandler(messageSvc), authSvc)

	// --- Sign-up review ---

	pendingSvc := pendingusers.NewService(pendingusers.NewRepository(a.DB), activitySvc)
	pendingusers.RegisterRoutes(api, pendingusers.NewHandler(pendingSvc), authSvc, limiter)
}

// healthz reports whether the database (and Redis, when enabled) answer.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := a.DB.PingContext(ctx); err != nil {
		return apperror.NewServiceUnavailable("database unreachable").WithInternal(err)
	}
	if a.Redis != nil {
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			return apperror.NewServiceUnavailable("redis unreachable").WithInternal(err)
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
