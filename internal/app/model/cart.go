package model

import (
	"time"

	"gorm.io/gorm"
)

// CartItem holds one product line in a user's cart. A user has at most one
// row per product; quantity changes update the row in place.
type CartItem struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uint           `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int            `gorm:"not null" json:"quantity"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
