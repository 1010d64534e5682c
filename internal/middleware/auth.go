// SPDX-License-Identifier: AGPL-3.0-only
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/fluffyriot/skillboard/internal/session"
	"github.com/gin-gonic/gin"
)

const identityKey = "skillboard.identity"

// AuthMiddleware resolves the session identity once per request. Anonymous
// visitors are sent to /login, or get a 401 on JSON routes.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := session.Load(c)
		c.Set(identityKey, identity)

		if isPublicRoute(c.Request.URL.Path) || identity.IsAuthenticated() {
			c.Next()
			return
		}

		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}

		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	}
}

// Identity returns the identity resolved by AuthMiddleware, or an anonymous
// one when the middleware did not run.
func Identity(c *gin.Context) session.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(session.Identity); ok {
			return id
		}
	}
	return session.Anonymous()
}

// MetricsGuard admits a logged-in session, or a bearer token equal to token
// when token is set. It expects AuthMiddleware to have run.
func MetricsGuard(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if Identity(c).IsAuthenticated() {
			c.Next()
			return
		}
		bearer, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token != "" && ok && subtle.ConstantTimeCompare([]byte(bearer), []byte(token)) == 1 {
			c.Next()
			return
		}
		c.AbortWithStatus(http.StatusUnauthorized)
	}
}

// isPublicRoute matches whole path segments only. /metrics is left to
// MetricsGuard.
func isPublicRoute(path string) bool {
	switch path {
	case "/login", "/health", "/metrics":
		return true
	}
	return strings.HasPrefix(path, "/login/") || strings.HasPrefix(path, "/static/")
}
