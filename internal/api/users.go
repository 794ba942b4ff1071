package api

import (
	"net/http"                          // HTTP status codes
	"wallet_ledger/internal/domain"     // Domain models
	"wallet_ledger/internal/middleware" // Authenticated user lookup

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// CreateUserHandler registers a new user with the default role
func CreateUserHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, s.Log, bindError(err))
			return
		}
		ctx := c.Request.Context()
		// Report which field collides before hashing
		if err := s.Users.CheckAvailable(ctx, normalizeLogin(req.Username), normalizeLogin(req.Email), 0); err != nil {
			respondError(c, s.Log, err)
			return
		}
		hash, err := s.Passwords.Hash(req.Password)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		user := req.toUser(hash)
		// Unique indexes still catch a concurrent registration
		if err := s.Users.Create(ctx, user); err != nil {
			respondError(c, s.Log, err)
			return
		}
		s.Log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("User registered")
		c.JSON(http.StatusOK, user)
	}
}

// MeHandler returns the authenticated user
func MeHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, middleware.CurrentUser(c))
	}
}

// GetUserHandler returns any user by id
func GetUserHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		user, err := s.Users.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// UpdateUserHandler changes profile fields of the caller, or of anyone for administrators
func UpdateUserHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := loadManagedUser(c, s)
		if !ok {
			return
		}
		var req UpdateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, s.Log, bindError(err))
			return
		}
		if req.Roles != nil && !isAdmin(middleware.CurrentUser(c)) {
			respondError(c, s.Log, domain.Forbidden("Not enough permissions"))
			return
		}
		req.applyTo(user)
		ctx := c.Request.Context()
		if err := s.Users.CheckAvailable(ctx, user.Username, user.Email, user.ID); err != nil {
			respondError(c, s.Log, err)
			return
		}
		if err := s.Users.Save(ctx, user); err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// ChangePasswordHandler replaces a password after checking the current one
func ChangePasswordHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := loadManagedUser(c, s)
		if !ok {
			return
		}
		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, s.Log, bindError(err))
			return
		}
		// Administrators may reset someone else's password without knowing it
		self := middleware.CurrentUser(c).ID == user.ID
		if self && !s.Passwords.Verify(req.CurrentPassword, user.Password) {
			respondError(c, s.Log, domain.InvalidCredential("Incorrect password"))
			return
		}
		hash, err := s.Passwords.Hash(req.NewPassword)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		user.Password = hash
		if err := s.Users.Save(c.Request.Context(), user); err != nil {
			respondError(c, s.Log, err)
			return
		}
		s.Log.WithField("user_id", user.ID).Info("Password changed")
		c.JSON(http.StatusOK, user)
	}
}

// DeleteUserHandler removes a user that no longer owns anything
func DeleteUserHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := loadManagedUser(c, s)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		owns, err := s.Users.OwnsResources(ctx, user.ID)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		if owns {
			respondError(c, s.Log, domain.Conflict("User still owns resources"))
			return
		}
		if err := s.Users.Delete(ctx, user.ID); err != nil {
			respondError(c, s.Log, err)
			return
		}
		s.Log.WithField("user_id", user.ID).Info("User deleted")
		c.JSON(http.StatusOK, gin.H{"detail": "User deleted successfully"})
	}
}

// loadManagedUser loads the :id user and checks the caller may manage it
func loadManagedUser(c *gin.Context, s *Services) (*domain.User, bool) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, s.Log, err)
		return nil, false
	}
	user, err := s.Users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, s.Log, err)
		return nil, false
	}
	if err := authorizeOwner(c, user.ID); err != nil {
		respondError(c, s.Log, err)
		return nil, false
	}
	return user, true
}
