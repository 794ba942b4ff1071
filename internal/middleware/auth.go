package middleware

import (
	"errors"                            // Error classification
	"net/http"                          // HTTP status codes
	"strings"                           // Header parsing
	"wallet_ledger/internal/domain"     // Domain models
	"wallet_ledger/internal/repository" // User lookups
	"wallet_ledger/internal/security"   // Token validation

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by Authenticate
const (
	UserIDKey = "userID"
	UserKey   = "user"
)

// Authenticate validates the bearer token and loads the calling user on each request
func Authenticate(tokens *security.TokenService, users *repository.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			// No usable header at all
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}
		userID, err := tokens.Validate(token) // Signature, expiry and kind
		if err != nil {
			rejectCredentials(c)
			return
		}
		user, err := users.Get(c.Request.Context(), userID)
		if errors.Is(err, domain.ErrNotFound) {
			// Token outlived its subject
			rejectCredentials(c)
			return
		}
		if err != nil {
			_ = c.Error(err) // Picked up by the request logger
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
			return
		}
		c.Set(UserIDKey, user.ID) // Store userID in context
		c.Set(UserKey, user)      // Store the loaded user for role checks
		c.Next()
	}
}

// CurrentUser returns the user stored by Authenticate, or nil on public routes
func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}

func rejectCredentials(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
}

// bearerToken splits "<scheme> <token>", accepting the Bearer scheme in any case
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
