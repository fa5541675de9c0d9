package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ecom_api/pkg/logging"
	"github.com/Skotchmaster/ecom_api/pkg/tokens"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"

	ctxUserID = "user_id"
	ctxRole   = "role"
)

type BearerAuth struct {
	JWTSecret []byte
}

func NewBearerAuth(secret []byte) *BearerAuth {
	return &BearerAuth{JWTSecret: secret}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *BearerAuth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireRole(RoleAdmin)(next)
}

// RequireRole admits only callers whose token carries one of roles.
func (m *BearerAuth) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
			for _, r := range roles {
				if claims.Role == r {
					return nil
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "access denied")
		})
	}
}

func (m *BearerAuth) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("mw", "auth")

		raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			l.Warn("auth_error", "status", 401, "reason", "missing bearer token")
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil {
			reason := "invalid access token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				reason = "access token expired"
			}
			l.Warn("auth_error", "status", 401, "reason", reason, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, reason)
		}

		if validator != nil {
			if validationErr := validator(claims); validationErr != nil {
				l.Warn("auth_error", "status", 403, "reason", "role not allowed", "role", claims.Role)
				return validationErr
			}
		}

		setUserContext(c, claims)
		return next(c)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(ctxUserID, claims.Subject)
	c.Set(ctxRole, claims.Role)
}

// UserID returns the authenticated caller set by RequireAuth.
func UserID(c echo.Context) (uint, error) {
	s, ok := c.Get(ctxUserID).(string)
	if !ok || s == "" {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return uint(id), nil
}

func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}
