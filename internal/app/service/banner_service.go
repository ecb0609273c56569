package service

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/internal/app/repository"
	"github.com/mehuljv/shopstack-backend/pkg/logger"
)

var (
	ErrBannerNotFound = errors.New("banner not found")
	ErrInvalidBanner  = errors.New("invalid banner data")
)

type BannerInput struct {
	Title    string
	ImageURL string
	LinkURL  string
	Position int
	IsActive *bool
	StartsAt *time.Time
	EndsAt   *time.Time
}

type BannerService interface {
	GetActiveBanners() ([]model.Banner, error)
	GetAllBanners() ([]model.Banner, error)
	CreateBanner(input BannerInput) (*model.Banner, error)
	UpdateBanner(id uint, input BannerInput) (*model.Banner, error)
	DeleteBanner(id uint) error
}

type bannerService struct {
	bannerRepo repository.BannerRepository
}

func NewBannerService(bannerRepo repository.BannerRepository) BannerService {
	return &bannerService{bannerRepo: bannerRepo}
}

func (s *bannerService) GetActiveBanners() ([]model.Banner, error) {
	banners, err := s.bannerRepo.FindActive(time.Now())
	if err != nil {
		return nil, err
	}
	if banners == nil {
		banners = []model.Banner{}
	}
	return banners, nil
}

func (s *bannerService) GetAllBanners() ([]model.Banner, error) {
	return s.bannerRepo.FindAll()
}

func (s *bannerService) CreateBanner(input BannerInput) (*model.Banner, error) {
	logger.Info("Creating banner", map[string]interface{}{
		"title": input.Title,
	})

	if strings.TrimSpace(input.Title) == "" || input.ImageURL == "" {
		return nil, ErrInvalidBanner
	}

	banner := &model.Banner{
		Title:    strings.TrimSpace(input.Title),
		ImageURL: input.ImageURL,
		LinkURL:  input.LinkURL,
		Position: input.Position,
		IsActive: true,
		StartsAt: input.StartsAt,
		EndsAt:   input.EndsAt,
	}
	if input.IsActive != nil {
		banner.IsActive = *input.IsActive
	}

	if err := s.bannerRepo.Create(banner); err != nil {
		return nil, err
	}
	return banner, nil
}

func (s *bannerService) UpdateBanner(id uint, input BannerInput) (*model.Banner, error) {
	banner, err := s.bannerRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBannerNotFound
		}
		return nil, err
	}

	if strings.TrimSpace(input.Title) == "" || input.ImageURL == "" {
		return nil, ErrInvalidBanner
	}

	banner.Title = strings.TrimSpace(input.Title)
	banner.ImageURL = input.ImageURL
	banner.LinkURL = input.LinkURL
	banner.Position = input.Position
	banner.StartsAt = input.StartsAt
	banner.EndsAt = input.EndsAt
	if input.IsActive != nil {
		banner.IsActive = *input.IsActive
	}

	if err := s.bannerRepo.Update(banner); err != nil {
		return nil, err
	}
	return banner, nil
}

func (s *bannerService) DeleteBanner(id uint) error {
	logger.Info("Deleting banner", map[string]interface{}{
		"banner_id": id,
	})

	if _, err := s.bannerRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBannerNotFound
		}
		return err
	}

	return s.bannerRepo.Delete(id)
}
