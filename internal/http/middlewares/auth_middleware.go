package middlewares

import (
	"context"
	"log/slog"
	"strings"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/geocoder89/tourhub/internal/auth"
	"github.com/geocoder89/tourhub/internal/domain/user"
	"github.com/geocoder89/tourhub/internal/observability"
	"github.com/gin-gonic/gin"
)

// TokenCookie is the cookie the session token travels in for browsers.
const TokenCookie = "jwt"

// Keep these small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type PrincipalLoader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

var (
	errMissingToken    = apperr.Unauthorized("missing_token", "You are not logged in! Please log in to get access.")
	errPrincipalGone   = apperr.Unauthorized("user_not_found", "The user belonging to this token no longer exists.")
	errPasswordChanged = apperr.Unauthorized("password_changed", "User recently changed password! Please log in again.")
)

type AuthMiddleware struct {
	jwt   TokenVerifier
	users PrincipalLoader
	log   *slog.Logger
	prom  *observability.Prom
}

func NewAuthMiddleware(jwt TokenVerifier, users PrincipalLoader, log *slog.Logger, prom *observability.Prom) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users, log: log, prom: prom}
}

// RequireAuth runs extract -> verify -> load principal. Any step failing
// ends the request with 401.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFrom(c)
		if raw == "" {
			m.reject(c, errMissingToken.WithReason("missing_token"))
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			m.reject(c, apperr.Normalize(err))
			return
		}

		u, err := m.users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				m.reject(c, errPrincipalGone.WithReason("principal_gone").WithCause(err))
				return
			}
			Fail(c, err)
			return
		}
		if !u.Active {
			m.reject(c, errPrincipalGone.WithReason("principal_gone"))
			return
		}

		if u.ChangedPasswordAfter(claims.IssuedAtTime()) {
			m.reject(c, errPasswordChanged.WithReason("password_changed"))
			return
		}

		SetUser(c, u)
		c.Next()
	}
}

func (m *AuthMiddleware) reject(c *gin.Context, err *apperr.Error) {
	reason := err.Reason
	if reason == "" {
		reason = err.Code
	}
	m.prom.RejectedAuth(reason)
	m.log.DebugContext(c.Request.Context(), "auth rejected",
		"reason", reason,
		"request_id", RequestIDFrom(c),
		"path", c.Request.URL.Path,
	)
	Fail(c, err)
}

// tokenFrom prefers the Authorization header over the cookie.
func tokenFrom(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		if raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")); raw != "" {
			return raw
		}
	}

	cookie, err := c.Cookie(TokenCookie)
	if err != nil {
		return ""
	}
	// logout overwrites the cookie with a placeholder
	if cookie == "" || cookie == LoggedOutCookie {
		return ""
	}
	return cookie
}

// LoggedOutCookie replaces the token on logout.
const LoggedOutCookie = "loggedout"
