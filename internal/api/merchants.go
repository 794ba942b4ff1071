package api

import (
	"net/http"                          // HTTP status codes
	"wallet_ledger/internal/domain"     // Domain models
	"wallet_ledger/internal/middleware" // Authenticated user lookup
	"wallet_ledger/internal/repository" // Query scopes

	"github.com/gin-gonic/gin" // Gin web framework
)

// ListMerchantsHandler pages through all merchants
func ListMerchantsHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := pageParam(c)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		rows, total, err := s.Merchants.Page(c.Request.Context(), page, SizePerPage)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, pageBody("merchants", rows, page, total))
	}
}

// GetMerchantHandler returns one merchant
func GetMerchantHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		merchant, err := s.Merchants.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, merchant)
	}
}

// CreateMerchantHandler creates a merchant owned by the caller
func CreateMerchantHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MerchantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, s.Log, bindError(err))
			return
		}
		merchant := req.toMerchant(middleware.CurrentUser(c).ID)
		if err := s.Merchants.Create(c.Request.Context(), merchant); err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, merchant)
	}
}

// UpdateMerchantHandler replaces a merchant's fields
func UpdateMerchantHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		merchant, ok := loadOwnedMerchant(c, s)
		if !ok {
			return
		}
		var req MerchantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, s.Log, bindError(err))
			return
		}
		req.applyTo(merchant)
		if err := s.Merchants.Save(c.Request.Context(), merchant); err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, merchant)
	}
}

// DeleteMerchantHandler removes a merchant that no longer sells items
func DeleteMerchantHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		merchant, ok := loadOwnedMerchant(c, s)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		n, err := s.Items.Count(ctx, repository.Where("merchant_id = ?", merchant.ID))
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		if n > 0 {
			respondError(c, s.Log, domain.Conflict("Merchant still has items"))
			return
		}
		if err := s.Merchants.Delete(ctx, merchant.ID); err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"detail": "Merchant deleted successfully"})
	}
}

func loadOwnedMerchant(c *gin.Context, s *Services) (*domain.Merchant, bool) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, s.Log, err)
		return nil, false
	}
	merchant, err := s.Merchants.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, s.Log, err)
		return nil, false
	}
	if err := authorizeOwner(c, merchant.UserID); err != nil {
		respondError(c, s.Log, err)
		return nil, false
	}
	return merchant, true
}
