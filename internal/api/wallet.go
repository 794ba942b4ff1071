package api

import (
	"errors"                            // Error inspection
	"io"                                // Empty body detection
	"net/http"                          // HTTP status codes
	"wallet_ledger/internal/domain"     // Domain models
	"wallet_ledger/internal/middleware" // Authenticated user lookup
	"wallet_ledger/internal/repository" // Query scopes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// CreateWalletHandler opens a wallet for the caller, optionally with a starting balance
func CreateWalletHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateWalletRequest
		// An empty body opens the wallet at zero
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(c, s.Log, bindError(err))
			return
		}
		user := middleware.CurrentUser(c)
		wallet := &domain.Wallet{UserID: user.ID, Balance: req.Balance}
		if err := s.Wallets.Create(c.Request.Context(), wallet); err != nil {
			respondError(c, s.Log, err)
			return
		}
		s.Log.WithFields(logrus.Fields{
			"user_id":   user.ID,
			"wallet_id": wallet.ID,
			"balance":   wallet.Balance,
		}).Info("Wallet created")
		c.JSON(http.StatusOK, wallet)
	}
}

// GetWalletHandler returns a wallet to its owner or an administrator
func GetWalletHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, ok := loadOwnedWallet(c, s)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, wallet)
	}
}

// WalletTransactionsHandler pages through a wallet's ledger entries, oldest first
func WalletTransactionsHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, ok := loadOwnedWallet(c, s)
		if !ok {
			return
		}
		page, err := pageParam(c)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		rows, total, err := s.Transactions.Page(c.Request.Context(), page, SizePerPage,
			repository.Where("wallet_id = ?", wallet.ID))
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, pageBody("transactions", rows, page, total))
	}
}

// OverrideBalanceHandler overwrites a balance; routed behind the admin role check
func OverrideBalanceHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		var req OverrideBalanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, s.Log, bindError(err))
			return
		}
		wallet, err := s.Ledger.Override(c.Request.Context(), id, *req.Balance)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, wallet)
	}
}

// DeleteWalletHandler removes a wallet without ledger history
func DeleteWalletHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, ok := loadOwnedWallet(c, s)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		n, err := s.Transactions.Count(ctx, repository.Where("wallet_id = ?", wallet.ID))
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		if n > 0 {
			respondError(c, s.Log, domain.Conflict("Wallet still has transactions"))
			return
		}
		if err := s.Wallets.Delete(ctx, wallet.ID); err != nil {
			respondError(c, s.Log, err)
			return
		}
		s.Log.WithField("wallet_id", wallet.ID).Info("Wallet deleted")
		c.JSON(http.StatusOK, gin.H{"detail": "Wallet deleted successfully"})
	}
}

func loadOwnedWallet(c *gin.Context, s *Services) (*domain.Wallet, bool) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, s.Log, err)
		return nil, false
	}
	wallet, err := s.Wallets.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, s.Log, err)
		return nil, false
	}
	if err := authorizeOwner(c, wallet.UserID); err != nil {
		respondError(c, s.Log, err)
		return nil, false
	}
	return wallet, true
}
