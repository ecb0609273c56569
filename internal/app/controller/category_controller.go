package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/internal/app/service"
	apierrors "github.com/mehuljv/shopstack-backend/internal/errors"
	"github.com/mehuljv/shopstack-backend/internal/middleware"
)

type CategoryController struct {
	categoryService service.CategoryService
}

func NewCategoryController(categoryService service.CategoryService) *CategoryController {
	return &CategoryController{
		categoryService: categoryService,
	}
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	IsActive    *bool  `json:"is_active"`
}

// ListCategories lists categories; admins also see inactive ones
// GET /api/v1/categories
func (ctrl *CategoryController) ListCategories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categories, err := ctrl.categoryService.ListCategories(!middleware.IsAdmin(c))
	if err != nil {
		log.Error("Failed to list categories", err)
		apierrors.InternalError(c, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategory returns one category by numeric ID or slug
// GET /api/v1/categories/:id
func (ctrl *CategoryController) GetCategory(c *gin.Context) {
	param := c.Param("id")

	var category *model.Category
	var err error
	if id, parseErr := strconv.ParseUint(param, 10, 32); parseErr == nil {
		category, err = ctrl.categoryService.GetCategoryByID(uint(id))
	} else {
		category, err = ctrl.categoryService.GetCategoryBySlug(param)
	}
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			apierrors.NotFound(c, apierrors.CodeNotFound, "category not found")
			return
		}
		apierrors.InternalError(c, "failed to fetch category")
		return
	}

	c.JSON(http.StatusOK, category)
}

// CreateCategory adds a category (admin)
// POST /api/v1/admin/categories
func (ctrl *CategoryController) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeValidationFailed, "invalid category data")
		return
	}

	category, err := ctrl.categoryService.CreateCategory(service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsActive:    req.IsActive,
	})
	if err != nil {
		ctrl.respondCategoryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

// UpdateCategory updates a category (admin)
// PUT /api/v1/admin/categories/:id
func (ctrl *CategoryController) UpdateCategory(c *gin.Context) {
	categoryID, err := parseIDParam(c, "id")
	if err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid category ID")
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeValidationFailed, "invalid category data")
		return
	}

	category, err := ctrl.categoryService.UpdateCategory(categoryID, service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsActive:    req.IsActive,
	})
	if err != nil {
		ctrl.respondCategoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, category)
}

// DeleteCategory removes a category (admin)
// DELETE /api/v1/admin/categories/:id
func (ctrl *CategoryController) DeleteCategory(c *gin.Context) {
	categoryID, err := parseIDParam(c, "id")
	if err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid category ID")
		return
	}

	if err := ctrl.categoryService.DeleteCategory(categoryID); err != nil {
		ctrl.respondCategoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}

func (ctrl *CategoryController) respondCategoryError(c *gin.Context, err error) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case errors.Is(err, service.ErrCategoryNotFound):
		apierrors.NotFound(c, apierrors.CodeNotFound, "category not found")
	case errors.Is(err, service.ErrInvalidCategory):
		apierrors.BadRequest(c, apierrors.CodeValidationFailed, "invalid category data")
	default:
		parsed := apierrors.ParseError(err, "category")
		log.Error("Category operation failed", err)
		apierrors.RespondWithError(c, http.StatusConflict, parsed.Code, parsed.Message)
	}
}
