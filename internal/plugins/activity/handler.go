package activity

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/plugins/auth"
)

// Handler serves the activity feed.
type Handler struct {
	service Service
}

// NewHandler creates a new activity handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Feed returns the caller's activity (GET /events?page=N). Works for both
// customer and admin tokens.
func (h *Handler) Feed(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))

	result, err := h.service.Feed(c.Request().Context(), auth.GetUserID(c), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
