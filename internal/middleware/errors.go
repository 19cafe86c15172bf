package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/apperror"
)

// ErrorHandler is the Echo HTTPErrorHandler for the API. AppErrors render
// their own type and message; Echo's router errors (404, 405, bind failures)
// keep their status; anything else becomes a generic 500. The body is always
// {"error": <type>, "message": <text>}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	errType := "internal_error"
	message := apperror.SafeMessage(err)

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code, errType, message = appErr.Code, appErr.Type, appErr.Message
		if appErr.Internal != nil && code >= http.StatusInternalServerError {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
			)
		}

	case errors.As(err, &echoErr):
		code = echoErr.Code
		errType = typeForStatus(code)
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(code)
		}

	default:
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
		)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if err := c.JSON(code, map[string]string{"error": errType, "message": message}); err != nil {
		slog.Warn("writing error response", slog.Any("error", err))
	}
}

// typeForStatus turns "Method Not Allowed" into "method_not_allowed".
func typeForStatus(code int) string {
	text := http.StatusText(code)
	if text == "" {
		return "error"
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}
