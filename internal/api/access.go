package api

import (
	"wallet_ledger/internal/domain"     // Domain models
	"wallet_ledger/internal/middleware" // Authenticated user lookup

	"github.com/gin-gonic/gin" // Gin web framework
)

func isAdmin(u *domain.User) bool {
	return u != nil && middleware.HasAnyRole(u.RoleSet(), []string{domain.RoleAdmin})
}

// authorizeOwner allows the owner of a resource and administrators
func authorizeOwner(c *gin.Context, ownerID uint) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return domain.Unauthenticated("Not authenticated")
	}
	if user.ID != ownerID && !isAdmin(user) {
		return domain.Forbidden("Not enough permissions")
	}
	return nil
}
