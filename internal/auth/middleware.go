package auth

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"eduportal/internal/model"
	"eduportal/internal/session"
)

// CookieName carries the portal token for browser clients.
const CookieName = "portal_session"

const sessionKey = "session"

// Token extracts the portal token from the Authorization header or the
// session cookie.
func Token(c *gin.Context) string {
	if authz := c.GetHeader("Authorization"); len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	if v, err := c.Cookie(CookieName); err == nil {
		return v
	}
	return ""
}

// RateKey keys rate limiting by session once the token verifies and by client
// IP otherwise, so unverified tokens share their sender's bucket.
func RateKey(signingKey, issuer string) func(*gin.Context) string {
	return func(c *gin.Context) string {
		if tok := Token(c); tok != "" {
			if claims, err := Parse(tok, signingKey, issuer); err == nil && claims.Subject != "" {
				return "sess:" + claims.Subject
			}
		}
		return "ip:" + c.ClientIP()
	}
}

// Required rejects requests without a live session and stores the hydrated
// session on the context.
func Required(mgr *session.Manager, signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := Token(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		s, err := mgr.Hydrate(c.Request.Context(), claims.Subject)
		switch {
		case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired, please log in again"})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
			return
		}
		SetCurrent(c, s)
		c.Next()
	}
}

// RequireRole rejects sessions whose user has none of roles.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := Current(c)
		if !ok || !slices.Contains(roles, s.User.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not allowed for your role"})
			return
		}
		c.Next()
	}
}

// Current returns the session stored by Required.
func Current(c *gin.Context) (session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return session.Session{}, false
	}
	s, ok := v.(session.Session)
	return s, ok
}

// SetCurrent stores s as the request's session.
func SetCurrent(c *gin.Context, s session.Session) {
	c.Set(sessionKey, s)
}
