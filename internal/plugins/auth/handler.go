package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qualis-hq/backoffice/internal/apperror"
)

// Handler handles HTTP requests for accounts and tokens. Handlers are thin:
// they bind the request, call the service, and render JSON.
type Handler struct {
	service AuthService

	// exposeResetToken returns the reset token in the response body. Only
	// enabled in development, where no mailer delivers it.
	exposeResetToken bool
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService, exposeResetToken bool) *Handler {
	return &Handler{service: service, exposeResetToken: exposeResetToken}
}

// Register creates a customer account (POST /auth/register).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	user, err := h.service.Register(c.Request().Context(), RegisterInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// Login authenticates a customer (POST /auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	result, err := h.service.Login(c.Request().Context(), LoginInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Logout revokes the token used for this request (POST /auth/logout).
func (h *Handler) Logout(c echo.Context) error {
	token, _ := c.Get(contextKeyToken).(string)
	if err := h.service.Logout(c.Request().Context(), token); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// RequestReset issues a reset token (POST /auth/password-reset).
func (h *Handler) RequestReset(c echo.Context) error {
	var req ResetRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	rt, err := h.service.RequestPasswordReset(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}

	resp := map[string]any{"expiresAt": rt.ExpiresAt.Format(time.RFC3339)}
	if h.exposeResetToken {
		resp["token"] = rt.Token
	}
	return c.JSON(http.StatusAccepted, resp)
}

// ConfirmReset consumes a reset token (POST /auth/password-reset/confirm).
func (h *Handler) ConfirmReset(c echo.Context) error {
	var req ResetConfirmRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if req.Token == "" {
		return apperror.NewBadRequest("token is required")
	}

	if err := h.service.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated customer (GET /me).
func (h *Handler) Me(c echo.Context) error {
	user, err := h.service.GetUser(c.Request().Context(), GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// RegenerateUsername re-runs username allocation (POST /me/username).
func (h *Handler) RegenerateUsername(c echo.Context) error {
	var req RenameRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	user, err := h.service.RegenerateUsername(c.Request().Context(), GetUserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// AdminLogin authenticates an admin user (POST /admin/login).
func (h *Handler) AdminLogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	result, err := h.service.AdminLogin(c.Request().Context(), LoginInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// CreateAdmin creates an admin user (POST /admin/users). While no admin
// exists the route is open so the first operator can be created.
func (h *Handler) CreateAdmin(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	admin, err := h.service.CreateAdmin(c.Request().Context(), RegisterInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, admin)
}

// requireAdminUnlessBootstrap lets the request through when no admin exists
// yet, and otherwise applies RequireAuth then RequireAdmin.
func requireAdminUnlessBootstrap(service AuthService) echo.MiddlewareFunc {
	guarded := func(next echo.HandlerFunc) echo.HandlerFunc {
		return RequireAuth(service)(RequireAdmin()(next))
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		protected := guarded(next)
		return func(c echo.Context) error {
			open, err := service.AdminBootstrapOpen(c.Request().Context())
			if err != nil {
				return err
			}
			if open {
				return next(c)
			}
			return protected(c)
		}
	}
}
