package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all auth-related routes on the /api/v1 group.
// limiter guards the unauthenticated POST endpoints against brute force and
// credential stuffing.
func RegisterRoutes(api *echo.Group, h *Handler, service AuthService, limiter echo.MiddlewareFunc) {
	// Public routes -- no auth required.
	api.POST("/auth/register", h.Register, limiter)
	api.POST("/auth/login", h.Login, limiter)
	api.POST("/auth/password-reset", h.RequestReset, limiter)
	api.POST("/auth/password-reset/confirm", h.ConfirmReset, limiter)
	api.POST("/admin/login", h.AdminLogin, limiter)

	// Any valid token may log itself out.
	api.POST("/auth/logout", h.Logout, RequireAuth(service))

	me := api.Group("/me", RequireAuth(service), RequireUser())
	me.GET("", h.Me)
	me.POST("/username", h.RegenerateUsername)

	api.POST("/admin/users", h.CreateAdmin, limiter, requireAdminUnlessBootstrap(service))
}
