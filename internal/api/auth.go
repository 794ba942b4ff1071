package api

import (
	"errors"                          // Error inspection
	"net/http"                        // HTTP status codes
	"time"                            // Login timestamp
	"wallet_ledger/internal/domain"   // Domain errors
	"wallet_ledger/internal/security" // Token pair

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// TokenResponse is returned by both token endpoints
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`  // Short lived bearer token
	RefreshToken string    `json:"refresh_token"` // Exchanged at /token/refresh
	TokenType    string    `json:"token_type"`    // Always "Bearer"
	ExpiresIn    int       `json:"expires_in"`    // Access token lifetime in minutes
	ExpiresAt    time.Time `json:"expires_at"`    // Access token expiry
	IssuedAt     time.Time `json:"issued_at"`     // Issue time
	UserID       uint      `json:"user_id"`       // Subject
}

func newTokenResponse(pair *security.TokenPair, accessTTL time.Duration, userID uint) TokenResponse {
	return TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(accessTTL / time.Minute),
		ExpiresAt:    pair.ExpiresAt,
		IssuedAt:     pair.IssuedAt,
		UserID:       userID,
	}
}

// TokenHandler authenticates a username or email with a password and issues a token pair
func TokenHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TokenRequest // Bind form (or JSON) body
		if err := c.ShouldBind(&req); err != nil {
			respondError(c, s.Log, bindError(err))
			return
		}
		ctx := c.Request.Context()
		log := s.Log.WithField("login", normalizeLogin(req.Username))

		allowed, err := s.Throttle.Allowed(ctx, req.Username)
		if err != nil {
			// Throttle store unavailable, keep logins working
			log.WithError(err).Warn("Login throttle check failed")
		}
		if !allowed {
			log.Warn("Login throttled")
			respondError(c, s.Log, domain.TooManyRequests("Too many failed login attempts, try again later"))
			return
		}

		user, err := s.Users.FindByLogin(ctx, req.Username)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			respondError(c, s.Log, err)
			return
		}
		if user == nil || !s.Passwords.Verify(req.Password, user.Password) {
			if err := s.Throttle.RecordFailure(ctx, req.Username); err != nil {
				log.WithError(err).Warn("Failed to record login failure")
			}
			log.Info("Login failed")
			c.Header("WWW-Authenticate", "Bearer")
			respondError(c, s.Log, domain.InvalidCredential("Incorrect username or password"))
			return
		}

		if err := s.Throttle.Reset(ctx, req.Username); err != nil {
			log.WithError(err).Warn("Failed to reset login throttle")
		}
		if err := s.Users.TouchLogin(ctx, user, time.Now().UTC()); err != nil {
			respondError(c, s.Log, err)
			return
		}
		pair, err := s.Tokens.Issue(user.ID)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		log.WithFields(logrus.Fields{"user_id": user.ID}).Info("User logged in")
		c.JSON(http.StatusOK, newTokenResponse(pair, s.Tokens.AccessTTL(), user.ID))
	}
}

// RefreshTokenHandler exchanges a valid refresh token for a new pair
func RefreshTokenHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefreshRequest
		if err := c.ShouldBind(&req); err != nil {
			respondError(c, s.Log, bindError(err))
			return
		}
		userID, err := s.Tokens.ValidateRefresh(req.RefreshToken)
		if err == nil {
			_, err = s.Users.Get(c.Request.Context(), userID) // Subject must still exist
		}
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			respondError(c, s.Log, domain.InvalidCredential("Could not validate credentials"))
			return
		}
		pair, err := s.Tokens.Issue(userID)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, newTokenResponse(pair, s.Tokens.AccessTTL(), userID))
	}
}
