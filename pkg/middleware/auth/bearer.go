package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storepanel/pkg/logging"
)

// Principal is the caller behind a verified bearer token.
type Principal struct {
	UserID  uuid.UUID
	Role    string
	TokenID uuid.UUID
}

type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (Principal, error)
}

type AuthenticatorFunc func(ctx context.Context, raw string) (Principal, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, raw string) (Principal, error) {
	return f(ctx, raw)
}

type BearerAuth struct {
	Auth Authenticator
}

func NewBearerAuth(auth Authenticator) *BearerAuth {
	return &BearerAuth{Auth: auth}
}

// RequireAuth accepts "Authorization: Bearer <token>" and the older
// "Token <token>" form.
func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := tokenFromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
		}

		ctx := c.Request().Context()
		p, err := m.Auth.Authenticate(ctx, raw)
		if err != nil {
			logging.FromContext(ctx).Debug("bearer_rejected", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		setUserContext(c, p)
		return next(c)
	}
}

func tokenFromHeader(h string) (string, bool) {
	scheme, tok, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found {
		return "", false
	}
	if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

func setUserContext(c echo.Context, p Principal) {
	c.Set("user_id", p.UserID)
	c.Set("role", p.Role)
	c.Set("token_id", p.TokenID)
}

// PrincipalFrom reads back what RequireAuth stored on c.
func PrincipalFrom(c echo.Context) (Principal, bool) {
	id, ok := c.Get("user_id").(uuid.UUID)
	if !ok {
		return Principal{}, false
	}
	role, _ := c.Get("role").(string)
	tokenID, _ := c.Get("token_id").(uuid.UUID)
	return Principal{UserID: id, Role: role, TokenID: tokenID}, true
}
