package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Baaaki/role-admin/internal/access"
	"github.com/Baaaki/role-admin/internal/apperr"
	"github.com/Baaaki/role-admin/internal/session"
	"github.com/Baaaki/role-admin/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session"

const principalKey = "principal"

// Session resolves the request's session token into a principal and stores it
// on the gin context and the request context. It never rejects a request;
// an unresolvable token yields access.Anonymous.
func Session(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := sessions.Resolve(c.Request.Context(), SessionToken(c))

		c.Set(principalKey, p)
		c.Request = c.Request.WithContext(access.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// SessionToken reads the token from the session cookie, falling back to a
// "Bearer" Authorization header for API clients.
func SessionToken(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookieName); err == nil && token != "" {
		return token
	}
	if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// Principal returns the principal resolved by Session, or access.Anonymous.
func Principal(c *gin.Context) access.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(access.Principal); ok {
			return p
		}
	}
	return access.Anonymous
}

// Require runs guards in order against the request's principal and aborts
// with 401 or 403 on the first failure.
func Require(guards ...access.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := Principal(c)
		if err := access.Check(p, guards...); err != nil {
			status := http.StatusForbidden
			message := "Insufficient role"
			if errors.Is(err, apperr.ErrUnauthorized) {
				status = http.StatusUnauthorized
				message = "Authentication required"
			}

			logger.Log.Warn("Request rejected by guard",
				zap.String("route", c.FullPath()),
				zap.Uint("user_id", p.UserID),
				zap.Strings("roles", p.Roles),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(status, gin.H{"error": message})
			return
		}
		c.Next()
	}
}
