package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/internal/app/repository"
	"github.com/mehuljv/shopstack-backend/pkg/logger"
)

type WishlistService interface {
	GetWishlist(userID uint) ([]model.WishlistItem, error)
	AddToWishlist(userID, productID uint) (*model.WishlistItem, error)
	RemoveFromWishlist(userID, productID uint) error
}

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) WishlistService {
	return &wishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

func (s *wishlistService) GetWishlist(userID uint) ([]model.WishlistItem, error) {
	items, err := s.wishlistRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.WishlistItem{}
	}
	return items, nil
}

// AddToWishlist is idempotent: adding an already-wishlisted product returns
// the existing entry.
func (s *wishlistService) AddToWishlist(userID, productID uint) (*model.WishlistItem, error) {
	logger.Info("Adding product to wishlist", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	existing, err := s.wishlistRepo.FindByUserAndProduct(userID, productID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	item := &model.WishlistItem{UserID: userID, ProductID: productID}
	if err := s.wishlistRepo.Create(item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveFromWishlist is idempotent
func (s *wishlistService) RemoveFromWishlist(userID, productID uint) error {
	logger.Info("Removing product from wishlist", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	return s.wishlistRepo.DeleteByUserAndProduct(userID, productID)
}
