package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/internal/app/repository"
	"github.com/mehuljv/shopstack-backend/pkg/logger"
	"github.com/mehuljv/shopstack-backend/pkg/util"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInvalidProduct     = errors.New("invalid product data")
	ErrCategoryNotFound   = errors.New("category not found")
)

// ProductInput carries the writable product fields
type ProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	CategoryID    uint
	StockQuantity int
	ImageURL      string
	IsActive      *bool
}

type ProductService interface {
	CreateProduct(input ProductInput) (*model.Product, error)
	GetProductByID(id uint) (*model.Product, error)
	GetProductBySlug(slug string) (*model.Product, error)
	ListProducts(filter repository.ProductFilter) ([]model.Product, int64, error)
	UpdateProduct(id uint, input ProductInput) (*model.Product, error)
	DeleteProduct(id uint) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

func NewProductService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *productService) CreateProduct(input ProductInput) (*model.Product, error) {
	logger.Info("Creating product", map[string]interface{}{
		"name":        input.Name,
		"category_id": input.CategoryID,
	})

	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	if _, err := s.categoryRepo.FindByID(input.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	slug, err := s.uniqueSlug(input.Name)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:          strings.TrimSpace(input.Name),
		Slug:          slug,
		Description:   input.Description,
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		CategoryID:    input.CategoryID,
		StockQuantity: input.StockQuantity,
		ImageURL:      input.ImageURL,
		IsActive:      true,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	})
	return product, nil
}

// uniqueSlug derives a slug from the name and suffixes -2, -3, ... on
// collision with an existing product.
func (s *productService) uniqueSlug(name string) (string, error) {
	base := util.Slugify(name)
	if base == "" {
		return "", ErrInvalidProduct
	}

	slug := base
	for i := 2; ; i++ {
		_, err := s.productRepo.FindBySlug(slug)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return slug, nil
		}
		if err != nil {
			return "", err
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *productService) GetProductByID(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) GetProductBySlug(slug string) (*model.Product, error) {
	product, err := s.productRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) ListProducts(filter repository.ProductFilter) ([]model.Product, int64, error) {
	return s.productRepo.FindAll(filter)
}

func (s *productService) UpdateProduct(id uint, input ProductInput) (*model.Product, error) {
	logger.Info("Updating product", map[string]interface{}{
		"product_id": id,
	})

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	if input.CategoryID != product.CategoryID {
		if _, err := s.categoryRepo.FindByID(input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
	}

	// The slug is stable across renames so stored links keep working
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Price = input.Price
	product.OriginalPrice = input.OriginalPrice
	product.CategoryID = input.CategoryID
	product.StockQuantity = input.StockQuantity
	product.ImageURL = input.ImageURL
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) DeleteProduct(id uint) error {
	logger.Info("Deleting product", map[string]interface{}{
		"product_id": id,
	})

	if _, err := s.productRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	return s.productRepo.Delete(id)
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ErrInvalidProduct
	}
	if input.Price.IsNegative() {
		return ErrInvalidProduct
	}
	if input.StockQuantity < 0 {
		return ErrInvalidProduct
	}
	if input.CategoryID == 0 {
		return ErrInvalidProduct
	}
	return nil
}
