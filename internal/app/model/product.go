package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID            uint             `gorm:"primarykey" json:"id"`
	Name          string           `gorm:"not null;index" json:"name"`
	Slug          string           `gorm:"uniqueIndex;not null" json:"slug"`
	Description   string           `gorm:"type:text" json:"description"`
	Price         decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
	OriginalPrice *decimal.Decimal `gorm:"type:decimal(12,2)" json:"original_price,omitempty"` // pre-discount price, if any
	CategoryID    uint             `gorm:"not null;index" json:"category_id"`
	StockQuantity int              `gorm:"not null;default:0" json:"stock_quantity"`
	ImageURL      string           `json:"image_url"`
	IsActive      bool             `gorm:"default:true;index" json:"is_active"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`

	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// InStock reports whether at least quantity units are available
func (p *Product) InStock(quantity int) bool {
	return p.StockQuantity >= quantity
}
