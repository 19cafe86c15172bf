package messages

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/plugins/auth"
)

// Handler handles message requests.
type Handler struct {
	service Service
}

// NewHandler creates a new message handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Send delivers a message (POST /messages).
func (h *Handler) Send(c echo.Context) error {
	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	m, err := h.service.Send(c.Request().Context(), auth.GetUserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

// Inbox lists messages addressed to the caller (GET /messages).
func (h *Handler) Inbox(c echo.Context) error {
	list, err := h.service.Inbox(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// MarkRead marks a message read (PUT /messages/:id/read).
func (h *Handler) MarkRead(c echo.Context) error {
	if err := h.service.MarkRead(c.Request().Context(), auth.GetUserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
