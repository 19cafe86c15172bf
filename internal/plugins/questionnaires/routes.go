package questionnaires

import (
	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/plugins/auth"
)

// RegisterRoutes mounts questionnaire management for customer accounts and
// the public recipient link endpoints behind limiter.
func RegisterRoutes(api *echo.Group, h *Handler, authSvc auth.AuthService, limiter echo.MiddlewareFunc) {
	g := api.Group("/questionnaires", auth.RequireAuth(authSvc), auth.RequireUser())
	g.POST("", h.Create)
	g.GET("", h.List)
	g.POST("/:id/recipients", h.Send)
	g.GET("/:id/recipients", h.Recipients)

	r := api.Group("/recipients", limiter)
	r.GET("/:id", h.View)
	r.POST("/:id/submit", h.Submit)
}
