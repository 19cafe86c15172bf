package messages

import (
	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/plugins/auth"
)

// RegisterRoutes mounts message routes for customer accounts.
func RegisterRoutes(api *echo.Group, h *Handler, authSvc auth.AuthService) {
	g := api.Group("/messages", auth.RequireAuth(authSvc), auth.RequireUser())
	g.POST("", h.Send)
	g.GET("", h.Inbox)
	g.PUT("/:id/read", h.MarkRead)
}
