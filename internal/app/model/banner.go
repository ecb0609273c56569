package model

import (
	"time"

	"gorm.io/gorm"
)

type Banner struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Title     string         `gorm:"not null" json:"title"`
	ImageURL  string         `gorm:"not null" json:"image_url"`
	LinkURL   string         `json:"link_url"`
	Position  int            `gorm:"not null;default:0;index" json:"position"`
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`
	StartsAt  *time.Time     `json:"starts_at,omitempty"`
	EndsAt    *time.Time     `json:"ends_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Banner) TableName() string {
	return "banners"
}
