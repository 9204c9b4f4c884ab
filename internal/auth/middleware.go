package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// RequireAccessToken verifies an access token and injects identity into request context.
// It does not perform RBAC checks; those belong to internal/rbac.
// onFail writes the rejection so agent routes can keep their envelope shape.
func RequireAccessToken(m *Manager, onFail func(c *gin.Context, status int, msg string)) gin.HandlerFunc {
	if onFail == nil {
		onFail = func(c *gin.Context, status int, msg string) {
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
		}
	}
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
			onFail(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}
		tok := strings.TrimPrefix(raw, bearerPrefix)

		claims, err := m.Verify(tok, time.Now())
		if err != nil {
			onFail(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		ctx := WithIdentity(c.Request.Context(), claims.Subject, claims.Role)
		c.Request = c.Request.WithContext(ctx)

		c.Set("subject", claims.Subject)
		c.Set("role", claims.Role)

		c.Next()
	}
}
