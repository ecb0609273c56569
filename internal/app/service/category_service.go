package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/internal/app/repository"
	"github.com/mehuljv/shopstack-backend/pkg/logger"
	"github.com/mehuljv/shopstack-backend/pkg/util"
)

var ErrInvalidCategory = errors.New("invalid category data")

type CategoryInput struct {
	Name        string
	Description string
	ImageURL    string
	IsActive    *bool
}

type CategoryService interface {
	CreateCategory(input CategoryInput) (*model.Category, error)
	GetCategoryByID(id uint) (*model.Category, error)
	GetCategoryBySlug(slug string) (*model.Category, error)
	ListCategories(activeOnly bool) ([]model.Category, error)
	UpdateCategory(id uint, input CategoryInput) (*model.Category, error)
	DeleteCategory(id uint) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) CreateCategory(input CategoryInput) (*model.Category, error) {
	logger.Info("Creating category", map[string]interface{}{
		"name": input.Name,
	})

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidCategory
	}

	slug, err := s.uniqueSlug(name)
	if err != nil {
		return nil, err
	}

	category := &model.Category{
		Name:        name,
		Slug:        slug,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		IsActive:    true,
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := s.categoryRepo.Create(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) uniqueSlug(name string) (string, error) {
	base := util.Slugify(name)
	if base == "" {
		return "", ErrInvalidCategory
	}

	slug := base
	for i := 2; ; i++ {
		_, err := s.categoryRepo.FindBySlug(slug)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return slug, nil
		}
		if err != nil {
			return "", err
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *categoryService) GetCategoryByID(id uint) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) GetCategoryBySlug(slug string) (*model.Category, error) {
	category, err := s.categoryRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) ListCategories(activeOnly bool) ([]model.Category, error) {
	return s.categoryRepo.FindAll(activeOnly)
}

func (s *categoryService) UpdateCategory(id uint, input CategoryInput) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidCategory
	}

	category.Name = name
	category.Description = input.Description
	category.ImageURL = input.ImageURL
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}

	if err := s.categoryRepo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) DeleteCategory(id uint) error {
	logger.Info("Deleting category", map[string]interface{}{
		"category_id": id,
	})

	if _, err := s.categoryRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	return s.categoryRepo.Delete(id)
}
