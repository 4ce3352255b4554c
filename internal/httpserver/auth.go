package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storepanel/internal/service"
	"github.com/Skotchmaster/storepanel/internal/transport"
	middleware "github.com/Skotchmaster/storepanel/pkg/middleware/auth"
	"github.com/Skotchmaster/storepanel/pkg/logging"
	"github.com/Skotchmaster/storepanel/pkg/validate"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signup")

	var req transport.SignupRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("signup_error", "status", 400, "reason", "validation failed", "error", err)
		return validationError(validate.Fields(err))
	}

	user, err := h.Svc.Signup(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		var fe *service.FieldError
		if errors.As(err, &fe) {
			l.Warn("signup_error", "status", 400, "reason", "validation failed", "error", err)
			return validationError(fe.Fields)
		}
		l.Error("signup_error", "status", 500, "reason", "cannot create user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create user")
	}

	l.Info("signup_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, transport.SignupResponse{
		Message: "User created successfully",
		UserID:  user.ID,
		Email:   user.Email,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: "Please provide both email and password"})
	}
	if req.Email == "" || req.Password == "" {
		l.Warn("login_error", "status", 400, "reason", "missing credentials")
		return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: "Please provide both email and password"})
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("login_error", "status", 400, "reason", "missing credentials", "error", err)
			return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: "Please provide both email and password"})
		case errors.Is(err, service.ErrInvalidCredentials):
			l.Warn("login_error", "status", 401, "reason", "invalid credentials")
			return c.JSON(http.StatusUnauthorized, transport.ErrorResponse{Error: "Invalid credentials"})
		}
		l.Error("login_error", "status", 500, "reason", "cannot issue token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot issue token")
	}

	l.Info("login_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, transport.LoginResponse{
		Token:  res.Token,
		UserID: res.User.ID,
		Email:  res.User.Email,
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
	}
	if err := h.Svc.Logout(ctx, p.TokenID); err != nil {
		l.Error("logout_error", "status", 500, "reason", "cannot revoke token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot revoke token")
	}

	l.Info("logout_success", "user_id", p.UserID)
	return c.NoContent(http.StatusNoContent)
}
