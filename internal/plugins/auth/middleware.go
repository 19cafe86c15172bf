package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/apperror"
)

// Context keys for storing the authenticated principal in Echo context.
// Other plugins use the exported getters below instead of the keys.
const (
	contextKeyPrincipal = "auth_principal"
	contextKeyToken     = "auth_token"
)

// RequireAuth returns middleware that resolves the bearer token and injects
// the principal into the request context. Missing or unknown tokens get 401.
func RequireAuth(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return apperror.NewUnauthorized("authentication required")
			}

			p, err := service.ValidateToken(c.Request().Context(), token)
			if err != nil {
				return err
			}

			c.Set(contextKeyPrincipal, p)
			c.Set(contextKeyToken, token)
			return next(c)
		}
	}
}

// RequireUser restricts a route to customer accounts. Must run after RequireAuth.
func RequireUser() echo.MiddlewareFunc {
	return requireKind(OwnerUser, "this endpoint is for customer accounts")
}

// RequireAdmin restricts a route to admin users. Must run after RequireAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return requireKind(OwnerAdmin, "admin access required")
}

func requireKind(kind OwnerKind, msg string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := GetPrincipal(c)
			if p == nil {
				return apperror.NewUnauthorized("authentication required")
			}
			if p.Kind != kind {
				return apperror.NewForbidden(msg)
			}
			return next(c)
		}
	}
}

// --- Exported getters for other plugins ---

// GetPrincipal returns the authenticated principal, or nil when RequireAuth
// did not run.
func GetPrincipal(c echo.Context) *Principal {
	p, ok := c.Get(contextKeyPrincipal).(*Principal)
	if !ok {
		return nil
	}
	return p
}

// GetUserID returns the authenticated owner's ID, or "" when unauthenticated.
func GetUserID(c echo.Context) string {
	if p := GetPrincipal(c); p != nil {
		return p.OwnerID
	}
	return ""
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
