package repository

import (
	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/pkg/logger"
	"gorm.io/gorm"
)

type WishlistRepository interface {
	Create(item *model.WishlistItem) error
	FindByUserID(userID uint) ([]model.WishlistItem, error)
	FindByUserAndProduct(userID, productID uint) (*model.WishlistItem, error)
	DeleteByUserAndProduct(userID, productID uint) error
}

type wishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) Create(item *model.WishlistItem) error {
	if err := r.db.Create(item).Error; err != nil {
		logger.Error("Failed to create wishlist item in database", err, map[string]interface{}{
			"user_id":    item.UserID,
			"product_id": item.ProductID,
		})
		return err
	}
	return nil
}

func (r *wishlistRepository) FindByUserID(userID uint) ([]model.WishlistItem, error) {
	var items []model.WishlistItem
	err := r.db.Where("user_id = ?", userID).
		Preload("Product").
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		logger.Error("Failed to find wishlist items in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return items, nil
}

func (r *wishlistRepository) FindByUserAndProduct(userID, productID uint) (*model.WishlistItem, error) {
	var item model.WishlistItem
	err := r.db.Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *wishlistRepository) DeleteByUserAndProduct(userID, productID uint) error {
	if err := r.db.Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.WishlistItem{}).Error; err != nil {
		logger.Error("Failed to delete wishlist item from database", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return err
	}
	return nil
}
