package pendingusers

import (
	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/plugins/auth"
)

// RegisterRoutes mounts the public sign-up endpoint behind limiter and the
// review endpoints behind admin auth.
func RegisterRoutes(api *echo.Group, h *Handler, authSvc auth.AuthService, limiter echo.MiddlewareFunc) {
	api.POST("/pending-users", h.Submit, limiter)

	admin := api.Group("/admin/pending-users", auth.RequireAuth(authSvc), auth.RequireAdmin())
	admin.GET("", h.List)
	admin.PUT("/:id/status", h.SetStatus)
}
