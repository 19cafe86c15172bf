package documents

import (
	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/plugins/auth"
)

// RegisterRoutes mounts document routes for customer accounts.
func RegisterRoutes(api *echo.Group, h *Handler, authSvc auth.AuthService) {
	g := api.Group("/documents", auth.RequireAuth(authSvc), auth.RequireUser())
	g.POST("", h.Create)
	g.GET("", h.List)
	g.PUT("/:id/status", h.SetStatus)
}
