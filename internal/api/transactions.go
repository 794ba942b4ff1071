package api

import (
	"net/http"                      // HTTP status codes
	"wallet_ledger/internal/domain" // Domain models

	"github.com/gin-gonic/gin" // Gin web framework
)

// CreateTransactionHandler posts a credit or debit through the ledger
func CreateTransactionHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTransactionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, s.Log, bindError(err))
			return
		}
		ctx := c.Request.Context()
		wallet, err := s.Wallets.Get(ctx, req.WalletID)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		if err := authorizeOwner(c, wallet.UserID); err != nil {
			respondError(c, s.Log, err)
			return
		}
		// Balance check and both writes happen under the wallet lock
		tx, err := s.Ledger.Apply(ctx, wallet.ID, req.Amount, req.Type, req.Description)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, tx)
	}
}

// GetTransactionHandler returns one ledger entry
func GetTransactionHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		tx, ok := loadOwnedTransaction(c, s)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, tx)
	}
}

// UpdateTransactionHandler corrects an entry's amount, type or description
func UpdateTransactionHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		tx, ok := loadOwnedTransaction(c, s)
		if !ok {
			return
		}
		var req UpdateTransactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, s.Log, bindError(err))
			return
		}
		if req.WalletID != nil && *req.WalletID != tx.WalletID {
			respondError(c, s.Log, domain.Validation("wallet_id cannot be changed"))
			return
		}
		updated, err := s.Ledger.Reapply(c.Request.Context(), tx.ID, req.Amount, req.Type, req.Description)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// DeleteTransactionHandler reverses an entry and removes it
func DeleteTransactionHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		tx, ok := loadOwnedTransaction(c, s)
		if !ok {
			return
		}
		if _, err := s.Ledger.Reverse(c.Request.Context(), tx.ID); err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"detail": "Transaction deleted successfully"})
	}
}

// loadOwnedTransaction loads the :id entry if the caller owns its wallet
func loadOwnedTransaction(c *gin.Context, s *Services) (*domain.Transaction, bool) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, s.Log, err)
		return nil, false
	}
	ctx := c.Request.Context()
	tx, err := s.Transactions.Get(ctx, id)
	if err != nil {
		respondError(c, s.Log, err)
		return nil, false
	}
	wallet, err := s.Wallets.Get(ctx, tx.WalletID)
	if err != nil {
		respondError(c, s.Log, err)
		return nil, false
	}
	if err := authorizeOwner(c, wallet.UserID); err != nil {
		respondError(c, s.Log, err)
		return nil, false
	}
	return tx, true
}
