package activity

import (
	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/plugins/auth"
)

// RegisterRoutes mounts the feed on the /api/v1 group.
func RegisterRoutes(api *echo.Group, h *Handler, authSvc auth.AuthService) {
	api.GET("/events", h.Feed, auth.RequireAuth(authSvc))
}
