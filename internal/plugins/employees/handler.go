package employees

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/plugins/auth"
)

// Handler handles employee HTTP requests.
type Handler struct {
	service Service
}

// NewHandler creates a new employee handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Create adds an employee (POST /employees).
func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	e, err := h.service.Create(c.Request().Context(), auth.GetUserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, e)
}

// List returns the caller's employees (GET /employees).
func (h *Handler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Delete removes an employee (DELETE /employees/:id).
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), auth.GetUserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
