package employees

import (
	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/plugins/auth"
)

// RegisterRoutes mounts employee routes. Only customer accounts own employees.
func RegisterRoutes(api *echo.Group, h *Handler, authSvc auth.AuthService) {
	g := api.Group("/employees", auth.RequireAuth(authSvc), auth.RequireUser())
	g.POST("", h.Create)
	g.GET("", h.List)
	g.DELETE("/:id", h.Delete)
}
