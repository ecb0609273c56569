package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/internal/app/repository"
	"github.com/mehuljv/shopstack-backend/internal/app/service"
	apierrors "github.com/mehuljv/shopstack-backend/internal/errors"
	"github.com/mehuljv/shopstack-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

type ProductRequest struct {
	Name          string           `json:"name" binding:"required"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price" binding:"required"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	CategoryID    uint             `json:"category_id" binding:"required"`
	StockQuantity int              `json:"stock_quantity"`
	ImageURL      string           `json:"image_url"`
	IsActive      *bool            `json:"is_active"`
}

func (r ProductRequest) toInput() service.ProductInput {
	return service.ProductInput{
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		CategoryID:    r.CategoryID,
		StockQuantity: r.StockQuantity,
		ImageURL:      r.ImageURL,
		IsActive:      r.IsActive,
	}
}

// ListProducts lists the catalog with filters and pagination
// GET /api/v1/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter := repository.ProductFilter{
		Search:     c.Query("search"),
		Sort:       c.Query("sort"),
		ActiveOnly: !middleware.IsAdmin(c),
		InStock:    c.Query("in_stock") == "true",
	}
	if categoryID, err := strconv.ParseUint(c.Query("category_id"), 10, 32); err == nil {
		filter.CategoryID = uint(categoryID)
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		filter.Page = page
	}
	if pageSize, err := strconv.Atoi(c.Query("page_size")); err == nil {
		filter.PageSize = pageSize
	}

	products, total, err := ctrl.productService.ListProducts(filter)
	if err != nil {
		log.Error("Failed to list products", err)
		apierrors.InternalError(c, "failed to list products")
		return
	}
	if products == nil {
		products = []model.Product{}
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    total,
	})
}

// GetProduct returns one product by numeric ID or slug
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	param := c.Param("id")

	var product *model.Product
	var err error
	if id, parseErr := strconv.ParseUint(param, 10, 32); parseErr == nil {
		product, err = ctrl.productService.GetProductByID(uint(id))
	} else {
		product, err = ctrl.productService.GetProductBySlug(param)
	}
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apierrors.NotFound(c, apierrors.CodeProductNotFound, "product not found")
			return
		}
		apierrors.InternalError(c, "failed to fetch product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct adds a product to the catalog (admin)
// POST /api/v1/admin/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid create product request", map[string]interface{}{
			"error": err.Error(),
		})
		apierrors.BadRequest(c, apierrors.CodeValidationFailed, "invalid product data")
		return
	}

	product, err := ctrl.productService.CreateProduct(req.toInput())
	if err != nil {
		ctrl.respondProductError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct updates a product (admin)
// PUT /api/v1/admin/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid product ID")
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeValidationFailed, "invalid product data")
		return
	}

	product, err := ctrl.productService.UpdateProduct(productID, req.toInput())
	if err != nil {
		ctrl.respondProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a product from the catalog (admin)
// DELETE /api/v1/admin/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid product ID")
		return
	}

	if err := ctrl.productService.DeleteProduct(productID); err != nil {
		ctrl.respondProductError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

func (ctrl *ProductController) respondProductError(c *gin.Context, err error) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case errors.Is(err, service.ErrProductNotFound):
		apierrors.NotFound(c, apierrors.CodeProductNotFound, "product not found")
	case errors.Is(err, service.ErrCategoryNotFound):
		apierrors.NotFound(c, apierrors.CodeNotFound, "category not found")
	case errors.Is(err, service.ErrInvalidProduct):
		apierrors.BadRequest(c, apierrors.CodeValidationFailed, "invalid product data")
	default:
		log.Error("Product operation failed", err)
		apierrors.InternalError(c, "product operation failed")
	}
}
