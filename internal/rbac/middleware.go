package rbac

import (
	"net/http"
	"slices"

	"cms-portal/internal/auth"

	"github.com/gin-gonic/gin"
)

// Allows reports whether role may act where allowed roles are required.
// Admin is allowed everywhere; an empty allowed list admits any known role.
func Allows(role string, allowed ...string) bool {
	switch {
	case !Valid(role):
		return false
	case IsAdmin(role), len(allowed) == 0:
		return true
	default:
		return slices.Contains(allowed, role)
	}
}

// RequireAnyRole gates a devapi route on the caller's role. It must run after
// auth.RequireAccessToken; a request without identity is 401, a known caller
// lacking the role is 403.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowed = slices.Clone(allowed)
	return func(c *gin.Context) {
		id, err := auth.IdentityFrom(c.Request.Context())
		if err != nil || id.Role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthenticated"})
			return
		}
		if !Allows(id.Role, allowed...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden"})
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc { return RequireAnyRole(RoleAdmin) }
