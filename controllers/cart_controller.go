package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cart-payment-service/middleware"
	"cart-payment-service/services"
)

type CartController struct {
	Carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{Carts: carts}
}

type addItemRequest struct {
	ExternalID string `json:"external_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// GetCart returns the caller's active cart, creating one lazily
func (cc *CartController) GetCart(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	cart, err := cc.Carts.GetCart(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

// AddItem adds or merges an item into the caller's cart
func (cc *CartController) AddItem(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	item, err := cc.Carts.AddItem(c.Request.Context(), ownerID, req.ExternalID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// UpdateQuantity sets a new quantity on a cart item
func (cc *CartController) UpdateQuantity(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	item, err := cc.Carts.UpdateQuantity(c.Request.Context(), itemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// RemoveItem deletes a cart item
func (cc *CartController) RemoveItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	if err := cc.Carts.RemoveItem(c.Request.Context(), itemID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "item removed"})
}

// ClearCart removes all items from the caller's active cart
func (cc *CartController) ClearCart(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	if err := cc.Carts.Clear(c.Request.Context(), ownerID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}

// GetHistory returns all of the caller's carts, newest first
func (cc *CartController) GetHistory(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	carts, err := cc.Carts.GetCartHistory(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, carts)
}
