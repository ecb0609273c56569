package repository

import (
	"time"

	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/pkg/logger"
	"gorm.io/gorm"
)

type BannerRepository interface {
	Create(banner *model.Banner) error
	FindByID(id uint) (*model.Banner, error)
	FindActive(now time.Time) ([]model.Banner, error)
	FindAll() ([]model.Banner, error)
	Update(banner *model.Banner) error
	Delete(id uint) error
}

type bannerRepository struct {
	db *gorm.DB
}

func NewBannerRepository(db *gorm.DB) BannerRepository {
	return &bannerRepository{db: db}
}

func (r *bannerRepository) Create(banner *model.Banner) error {
	if err := r.db.Create(banner).Error; err != nil {
		logger.Error("Failed to create banner in database", err, map[string]interface{}{
			"title": banner.Title,
		})
		return err
	}
	return nil
}

func (r *bannerRepository) FindByID(id uint) (*model.Banner, error) {
	var banner model.Banner
	if err := r.db.First(&banner, id).Error; err != nil {
		return nil, err
	}
	return &banner, nil
}

// FindActive returns banners visible at the given time, ordered by position
func (r *bannerRepository) FindActive(now time.Time) ([]model.Banner, error) {
	var banners []model.Banner
	err := r.db.Where("is_active = ?", true).
		Where("starts_at IS NULL OR starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at > ?", now).
		Order("position ASC").
		Find(&banners).Error
	if err != nil {
		logger.Error("Failed to find active banners in database", err)
		return nil, err
	}
	return banners, nil
}

func (r *bannerRepository) FindAll() ([]model.Banner, error) {
	var banners []model.Banner
	if err := r.db.Order("position ASC").Find(&banners).Error; err != nil {
		logger.Error("Failed to find banners in database", err)
		return nil, err
	}
	return banners, nil
}

func (r *bannerRepository) Update(banner *model.Banner) error {
	if err := r.db.Save(banner).Error; err != nil {
		logger.Error("Failed to update banner in database", err, map[string]interface{}{
			"banner_id": banner.ID,
		})
		return err
	}
	return nil
}

func (r *bannerRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Banner{}, id).Error; err != nil {
		logger.Error("Failed to delete banner from database", err, map[string]interface{}{
			"banner_id": id,
		})
		return err
	}
	return nil
}
