package records

import (
	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/plugins/auth"
)

// RegisterRoutes mounts folder and process routes for customer accounts.
func RegisterRoutes(api *echo.Group, h *Handler, authSvc auth.AuthService) {
	owner := []echo.MiddlewareFunc{auth.RequireAuth(authSvc), auth.RequireUser()}

	folders := api.Group("/folders", owner...)
	folders.POST("", h.CreateFolder)
	folders.GET("", h.ListFolders)
	folders.DELETE("/:id", h.DeleteFolder)

	processes := api.Group("/processes", owner...)
	processes.POST("", h.CreateProcess)
	processes.GET("", h.ListProcesses)
}
