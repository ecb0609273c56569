package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mehuljv/shopstack-backend/internal/app/service"
	apierrors "github.com/mehuljv/shopstack-backend/internal/errors"
	"github.com/mehuljv/shopstack-backend/internal/middleware"
)

type WishlistController struct {
	wishlistService service.WishlistService
}

func NewWishlistController(wishlistService service.WishlistService) *WishlistController {
	return &WishlistController{
		wishlistService: wishlistService,
	}
}

type AddToWishlistRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// GetWishlist returns the user's wishlist
// GET /api/v1/wishlist
func (ctrl *WishlistController) GetWishlist(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, apierrors.CodeAuthRequired, "authentication required")
		return
	}

	items, err := ctrl.wishlistService.GetWishlist(userID)
	if err != nil {
		log.Error("Failed to fetch wishlist", err, map[string]interface{}{
			"user_id": userID,
		})
		apierrors.InternalError(c, "failed to fetch wishlist")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// AddToWishlist adds a product; duplicates are harmless
// POST /api/v1/wishlist
func (ctrl *WishlistController) AddToWishlist(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, apierrors.CodeAuthRequired, "authentication required")
		return
	}

	var req AddToWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid request data")
		return
	}

	item, err := ctrl.wishlistService.AddToWishlist(userID, req.ProductID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apierrors.NotFound(c, apierrors.CodeProductNotFound, "product not found")
			return
		}
		apierrors.InternalError(c, "failed to add to wishlist")
		return
	}

	c.JSON(http.StatusCreated, item)
}

// RemoveFromWishlist removes a product; absent entries are a no-op
// DELETE /api/v1/wishlist/:product_id
func (ctrl *WishlistController) RemoveFromWishlist(c *gin.Context) {
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

	if err := ctrl.wishlistService.RemoveFromWishlist(userID, productID); err != nil {
		apierrors.InternalError(c, "failed to remove from wishlist")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "removed from wishlist"})
}
