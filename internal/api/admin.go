package api

import (
	"net/http"                          // HTTP status codes
	"strconv"                           // Query parsing
	"wallet_ledger/internal/domain"     // Domain models
	"wallet_ledger/internal/repository" // Query scopes

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// AdminHandler confirms the caller holds the admin role
func AdminHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Admin access granted"})
	}
}

// ListUsersHandler pages through every user
func ListUsersHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := pageParam(c)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		users, total, err := s.Users.Page(c.Request.Context(), page, SizePerPage)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, pageBody("users", users, page, total))
	}
}

// ListTransactionsHandler pages through all ledger entries, optionally filtered by
// user_id, wallet_id or type
func ListTransactionsHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := pageParam(c)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		var scopes []repository.Scope // Filters built from query params
		if v := c.Query("user_id"); v != "" {
			userID, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				respondError(c, s.Log, domain.Validation("user_id must be a positive integer"))
				return
			}
			scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
				owned := db.Session(&gorm.Session{NewDB: true}).
					Model(&domain.Wallet{}).Select("id").Where("user_id = ?", userID)
				return db.Where("wallet_id IN (?)", owned)
			})
		}
		if v := c.Query("wallet_id"); v != "" {
			walletID, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				respondError(c, s.Log, domain.Validation("wallet_id must be a positive integer"))
				return
			}
			scopes = append(scopes, repository.Where("wallet_id = ?", walletID))
		}
		if v := c.Query("type"); v != "" {
			kind := domain.TransactionType(v)
			if !kind.Valid() {
				respondError(c, s.Log, domain.Validation("type must be credit or debit"))
				return
			}
			scopes = append(scopes, repository.Where("type = ?", kind))
		}
		rows, total, err := s.Transactions.Page(c.Request.Context(), page, SizePerPage, scopes...)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, pageBody("transactions", rows, page, total))
	}
}
