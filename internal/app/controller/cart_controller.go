package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mehuljv/shopstack-backend/internal/app/service"
	apierrors "github.com/mehuljv/shopstack-backend/internal/errors"
	"github.com/mehuljv/shopstack-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

type UpdateCartRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart returns the user's cart with recomputed totals
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, apierrors.CodeAuthRequired, "authentication required")
		return
	}

	summary, err := ctrl.cartService.GetCart(userID)
	if err != nil {
		log.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id": userID,
		})
		apierrors.InternalError(c, "failed to fetch cart")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// AddToCart adds a product to the cart, stacking onto any existing line
// POST /api/v1/cart/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, apierrors.CodeAuthRequired, "authentication required")
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid request data")
		return
	}

	summary, err := ctrl.cartService.AddToCart(userID, req.ProductID, req.Quantity)
	if err != nil {
		ctrl.respondCartError(c, userID, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// UpdateCartItem replaces a line's quantity; zero or less removes it
// PUT /api/v1/cart/items/:product_id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, apierrors.CodeAuthRequired, "authentication required")
		return
	}

	productID, err := parseIDParam(c, "product_id")
	if err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid product ID")
		return
	}

	var req UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update cart request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid request data")
		return
	}

	summary, err := ctrl.cartService.UpdateCartItem(userID, productID, req.Quantity)
	if err != nil {
		ctrl.respondCartError(c, userID, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// RemoveFromCart removes a product line; absent lines are a no-op
// DELETE /api/v1/cart/items/:product_id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, apierrors.CodeAuthRequired, "authentication required")
		return
	}

	productID, err := parseIDParam(c, "product_id")
	if err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid product ID")
		return
	}

	summary, err := ctrl.cartService.RemoveFromCart(userID, productID)
	if err != nil {
		ctrl.respondCartError(c, userID, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ClearCart empties the cart; an empty cart clears successfully
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, apierrors.CodeAuthRequired, "authentication required")
		return
	}

	if err := ctrl.cartService.ClearCart(userID); err != nil {
		ctrl.respondCartError(c, userID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}

func (ctrl *CartController) respondCartError(c *gin.Context, userID uint, err error) {
	log := middleware.GetLoggerFromContext(c)

	var conflict *service.StockConflictError

	switch {
	case errors.Is(err, service.ErrProductNotFound):
		apierrors.NotFound(c, apierrors.CodeProductNotFound, "product not found")
	case errors.Is(err, service.ErrInvalidQuantity):
		apierrors.BadRequest(c, apierrors.CodeCartInvalidQuantity, "quantity must be positive")
	case errors.Is(err, service.ErrCartItemMissing):
		apierrors.NotFound(c, apierrors.CodeCartItemNotFound, "cart item not found")
	case errors.As(err, &conflict):
		apierrors.RespondWithDetails(c, http.StatusConflict, apierrors.CodeOrderStockConflict, conflict.Error(), gin.H{
			"product_id": conflict.ProductID,
			"requested":  conflict.Requested,
			"available":  conflict.Available,
		})
	default:
		log.Error("Cart operation failed", err, map[string]interface{}{
			"user_id": userID,
		})
		apierrors.InternalError(c, "cart operation failed")
	}
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id parameter")
	}
	return uint(id), nil
}
