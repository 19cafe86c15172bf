package pendingusers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/plugins/auth"
)

// Handler handles sign-up request endpoints.
type Handler struct {
	service Service
}

// NewHandler creates a new pending-user handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Submit records a sign-up request (POST /pending-users). Public.
func (h *Handler) Submit(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	p, err := h.service.Submit(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// List returns sign-up requests (GET /admin/pending-users?status=).
func (h *Handler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// SetStatus reviews a request (PUT /admin/pending-users/:id/status).
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
