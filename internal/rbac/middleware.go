package rbac

import (
	"net/http"

	"careshare/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireAnyRole allows access if the caller has any of the provided roles.
// admin bypasses all checks. Run it after auth.RequireAccessToken.
// onDeny writes the rejection; nil uses a plain {error} body.
func RequireAnyRole(onDeny func(c *gin.Context, status int, msg string), allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	if onDeny == nil {
		onDeny = func(c *gin.Context, status int, msg string) {
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
		}
	}

	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil || role == "" {
			onDeny(c, http.StatusUnauthorized, "role required")
			c.Abort()
			return
		}

		if IsAdmin(role) {
			c.Next()
			return
		}

		if _, ok := allowedSet[role]; !ok {
			onDeny(c, http.StatusForbidden, "forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}
