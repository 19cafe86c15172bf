package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists origins permitted to call the API from a browser,
	// e.g. ["https://app.qualis.example"]. "*" allows any origin.
	AllowedOrigins []string
}

var (
	corsAllowMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}, ", ")
	corsAllowHeaders = strings.Join([]string{
		echo.HeaderContentType, echo.HeaderAuthorization, requestIDHeader,
	}, ", ")
	corsExposeHeaders = strings.Join([]string{
		requestIDHeader, echo.HeaderRetryAfter,
	}, ", ")
)

// CORS answers preflight requests and tags responses for the back-office
// front end, which is served from its own origin. The API authenticates with
// bearer tokens, never cookies, so credentials are not allowed.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	allowAll := slices.Contains(cfg.AllowedOrigins, "*")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			origin := req.Header.Get(echo.HeaderOrigin)
			if origin == "" {
				return next(c)
			}

			h := c.Response().Header()
			h.Add(echo.HeaderVary, echo.HeaderOrigin)

			// Unknown origins get no CORS headers; the browser blocks them.
			if !allowAll && !slices.Contains(cfg.AllowedOrigins, origin) {
				return next(c)
			}
			h.Set(echo.HeaderAccessControlAllowOrigin, origin)

			if req.Method == http.MethodOptions && req.Header.Get(echo.HeaderAccessControlRequestMethod) != "" {
				h.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
				h.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)
				h.Set(echo.HeaderAccessControlMaxAge, "3600")
				return c.NoContent(http.StatusNoContent)
			}

			h.Set(echo.HeaderAccessControlExposeHeaders, corsExposeHeaders)
			return next(c)
		}
	}
}
