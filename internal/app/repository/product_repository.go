package repository

import (
	"strings"

	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/pkg/logger"
	"gorm.io/gorm"
)

// ProductFilter narrows and orders product listings
type ProductFilter struct {
	CategoryID uint
	Search     string
	ActiveOnly bool
	InStock    bool
	Sort       string // price_asc, price_desc, newest, name
	Page       int
	PageSize   int
}

type ProductRepository interface {
	Create(product *model.Product) error
	FindByID(id uint) (*model.Product, error)
	FindBySlug(slug string) (*model.Product, error)
	FindAll(filter ProductFilter) ([]model.Product, int64, error)
	Update(product *model.Product) error
	Delete(id uint) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":        product.Name,
		"slug":        product.Slug,
		"category_id": product.CategoryID,
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name": product.Name,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	})
	return nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Category").First(&product, id).Error; err != nil {
		logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySlug(slug string) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Category").Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindAll(filter ProductFilter) ([]model.Product, int64, error) {
	logger.Debug("Finding products in database", map[string]interface{}{
		"category_id": filter.CategoryID,
		"search":      filter.Search,
		"page":        filter.Page,
	})

	query := r.db.Model(&model.Product{})

	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.InStock {
		query = query.Where("stock_quantity > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count products in database", err)
		return nil, 0, err
	}

	switch filter.Sort {
	case "price_asc":
		query = query.Order("price ASC")
	case "price_desc":
		query = query.Order("price DESC")
	case "name":
		query = query.Order("name ASC")
	default:
		query = query.Order("created_at DESC")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	query = query.Offset((page - 1) * pageSize).Limit(pageSize)

	var products []model.Product
	if err := query.Preload("Category").Find(&products).Error; err != nil {
		logger.Error("Failed to find products in database", err)
		return nil, 0, err
	}

	logger.Debug("Products found in database", map[string]interface{}{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

func (r *productRepository) Update(product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
	})

	if err := r.db.Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

func (r *productRepository) Delete(id uint) error {
	logger.Debug("Deleting product from database", map[string]interface{}{
		"product_id": id,
	})

	if err := r.db.Delete(&model.Product{}, id).Error; err != nil {
		logger.Error("Failed to delete product from database", err, map[string]interface{}{
			"product_id": id,
		})
		return err
	}
	return nil
}
