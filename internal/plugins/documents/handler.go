package documents

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/plugins/auth"
)

// Handler handles document requests.
type Handler struct {
	service Service
}

// NewHandler creates a new document handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Create adds a document (POST /documents).
func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	d, err := h.service.Create(c.Request().Context(), auth.GetUserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

// List returns the caller's documents (GET /documents?status=).
func (h *Handler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), auth.GetUserID(c), c.QueryParam("status"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// SetStatus changes a document's status (PUT /documents/:id/status).
func (h *Handler) SetStatus(c echo.Context) error {
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	st, err := h.service.SetStatus(c.Request().Context(), auth.GetUserID(c), c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"id": c.Param("id"), "status": string(st)})
}
