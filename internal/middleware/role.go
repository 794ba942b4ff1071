package middleware

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
)

// HasAnyRole reports whether have and allowed share at least one role
func HasAnyRole(have, allowed []string) bool {
	for _, a := range allowed {
		for _, h := range have {
			if h == a {
				return true
			}
		}
	}
	return false
}

// RequireRoles lets the request through only if the authenticated user holds one of allowed.
// It must run after Authenticate.
func RequireRoles(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}
		if !HasAnyRole(user.RoleSet(), allowed) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Role not permitted"})
			return
		}
		c.Next()
	}
}
