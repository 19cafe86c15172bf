package records

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/plugins/auth"
)

// Handler handles folder and process requests.
type Handler struct {
	service Service
}

// NewHandler creates a new records handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateFolder files a new folder (POST /folders).
func (h *Handler) CreateFolder(c echo.Context) error {
	var req CreateFolderRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	f, err := h.service.CreateFolder(c.Request().Context(), auth.GetUserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, f)
}

// ListFolders lists one sleeve (GET /folders?sleeve=).
func (h *Handler) ListFolders(c echo.Context) error {
	list, err := h.service.ListFolders(c.Request().Context(), auth.GetUserID(c), c.QueryParam("sleeve"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// DeleteFolder removes a folder (DELETE /folders/:id).
func (h *Handler) DeleteFolder(c echo.Context) error {
	if err := h.service.DeleteFolder(c.Request().Context(), auth.GetUserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateProcess files a new process (POST /processes).
func (h *Handler) CreateProcess(c echo.Context) error {
	var req CreateProcessRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	p, err := h.service.CreateProcess(c.Request().Context(), auth.GetUserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// ListProcesses lists one sleeve (GET /processes?sleeve=).
func (h *Handler) ListProcesses(c echo.Context) error {
	list, err := h.service.ListProcesses(c.Request().Context(), auth.GetUserID(c), c.QueryParam("sleeve"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}
