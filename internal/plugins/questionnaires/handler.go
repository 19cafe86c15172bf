package questionnaires

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/apperror"
	"github.com/qualis-hq/backoffice/internal/plugins/auth"
)

// Handler handles questionnaire and recipient requests.
type Handler struct {
	service Service
}

// NewHandler creates a new questionnaire handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Create defines a questionnaire (POST /questionnaires).
func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	q, err := h.service.Create(c.Request().Context(), auth.GetUserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, q)
}

// List returns the caller's questionnaires (GET /questionnaires).
func (h *Handler) List(c echo.Context) error {
	list, err := h.service.List(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Send dispatches a questionnaire (POST /questionnaires/:id/recipients).
func (h *Handler) Send(c echo.Context) error {
	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	sent, err := h.service.Send(c.Request().Context(), auth.GetUserID(c), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sent)
}

// Recipients lists who a questionnaire went to (GET /questionnaires/:id/recipients).
func (h *Handler) Recipients(c echo.Context) error {
	list, err := h.service.Recipients(c.Request().Context(), auth.GetUserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// View opens a recipient link (GET /recipients/:id).
func (h *Handler) View(c echo.Context) error {
	v, err := h.service.View(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

// Submit records a recipient's answers (POST /recipients/:id/submit).
func (h *Handler) Submit(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	v, err := h.service.Submit(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}
