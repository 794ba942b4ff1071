package api

import (
	"context"                           // Merchant lookup
	"net/http"                          // HTTP status codes
	"wallet_ledger/internal/domain"     // Domain models
	"wallet_ledger/internal/middleware" // Authenticated user lookup

	"github.com/gin-gonic/gin" // Gin web framework
)

// ListItemsHandler pages through the catalogue, 50 items per page
func ListItemsHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := pageParam(c)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		rows, total, err := s.Items.Page(c.Request.Context(), page, SizePerPage)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, pageBody("items", rows, page, total))
	}
}

// GetItemHandler returns one item
func GetItemHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		item, err := s.Items.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// CreateItemHandler adds an item to an existing merchant
func CreateItemHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, s.Log, bindError(err))
			return
		}
		ctx := c.Request.Context()
		if err := merchantExists(ctx, s, req.MerchantID); err != nil {
			respondError(c, s.Log, err)
			return
		}
		item := req.toItem(middleware.CurrentUser(c).ID)
		if err := s.Items.Create(ctx, item); err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// UpdateItemHandler replaces an item's fields
func UpdateItemHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, ok := loadOwnedItem(c, s)
		if !ok {
			return
		}
		var req ItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, s.Log, bindError(err))
			return
		}
		ctx := c.Request.Context()
		if err := merchantExists(ctx, s, req.MerchantID); err != nil {
			respondError(c, s.Log, err)
			return
		}
		req.applyTo(item)
		if err := s.Items.Save(ctx, item); err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// DeleteItemHandler removes an item
func DeleteItemHandler(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, ok := loadOwnedItem(c, s)
		if !ok {
			return
		}
		if err := s.Items.Delete(c.Request.Context(), item.ID); err != nil {
			respondError(c, s.Log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"detail": "Item deleted successfully"})
	}
}

func merchantExists(ctx context.Context, s *Services, id uint) error {
	_, err := s.Merchants.Get(ctx, id)
	return err
}

func loadOwnedItem(c *gin.Context, s *Services) (*domain.Item, bool) {
	id, err := idParam(c, "id")
	if err != nil {
		respondError(c, s.Log, err)
		return nil, false
	}
	item, err := s.Items.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, s.Log, err)
		return nil, false
	}
	if err := authorizeOwner(c, item.UserID); err != nil {
		respondError(c, s.Log, err)
		return nil, false
	}
	return item, true
}
