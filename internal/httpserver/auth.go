package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ecom_api/internal/service"
	"github.com/Skotchmaster/ecom_api/internal/transport"
	"github.com/Skotchmaster/ecom_api/pkg/logging"
	authmw "github.com/Skotchmaster/ecom_api/pkg/middleware/auth"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signup")

	var req transport.SignupRequest
	if err := bind(c, &req); err != nil {
		l.Warn("signup_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	user, err := h.Svc.Signup(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			l.Warn("signup_error", "status", 400, "reason", "email already exists")
			return echo.NewHTTPError(http.StatusBadRequest, "email already exists")
		case errors.Is(err, service.ErrValidation):
			l.Warn("signup_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("signup_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("signup_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, transport.UserResponse{ID: user.ID, Email: user.Email, Role: user.Role})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := bind(c, &req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrValidation) {
			l.Warn("login_failed", "status", 401, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		l.Error("login_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("login_successful", "role", res.Role)
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	var req transport.RefreshRequest
	if err := bind(c, &req); err != nil {
		l.Warn("refresh_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	res, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			l.Warn("refresh_failed", "status", 401, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("refresh_successful")
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("logout_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.LogOut(ctx, userID, req.RefreshToken); err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			l.Warn("logout_failed", "status", 401, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		}
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
