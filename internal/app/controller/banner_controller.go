package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mehuljv/shopstack-backend/internal/app/service"
	apierrors "github.com/mehuljv/shopstack-backend/internal/errors"
	"github.com/mehuljv/shopstack-backend/internal/middleware"
)

type BannerController struct {
	bannerService service.BannerService
}

func NewBannerController(bannerService service.BannerService) *BannerController {
	return &BannerController{
		bannerService: bannerService,
	}
}

type BannerRequest struct {
	Title    string     `json:"title" binding:"required"`
	ImageURL string     `json:"image_url" binding:"required"`
	LinkURL  string     `json:"link_url"`
	Position int        `json:"position"`
	IsActive *bool      `json:"is_active"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

func (r BannerRequest) toInput() service.BannerInput {
	return service.BannerInput{
		Title:    r.Title,
		ImageURL: r.ImageURL,
		LinkURL:  r.LinkURL,
		Position: r.Position,
		IsActive: r.IsActive,
		StartsAt: r.StartsAt,
		EndsAt:   r.EndsAt,
	}
}

// ListBanners returns banners currently visible on the storefront
// GET /api/v1/banners
func (ctrl *BannerController) ListBanners(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	banners, err := ctrl.bannerService.GetActiveBanners()
	if err != nil {
		log.Error("Failed to list banners", err)
		apierrors.InternalError(c, "failed to list banners")
		return
	}

	c.JSON(http.StatusOK, gin.H{"banners": banners})
}

// ListAllBanners returns every banner including inactive ones (admin)
// GET /api/v1/admin/banners
func (ctrl *BannerController) ListAllBanners(c *gin.Context) {
	banners, err := ctrl.bannerService.GetAllBanners()
	if err != nil {
		apierrors.InternalError(c, "failed to list banners")
		return
	}

	c.JSON(http.StatusOK, gin.H{"banners": banners})
}

// CreateBanner adds a banner (admin)
// POST /api/v1/admin/banners
func (ctrl *BannerController) CreateBanner(c *gin.Context) {
	var req BannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeValidationFailed, "invalid banner data")
		return
	}

	banner, err := ctrl.bannerService.CreateBanner(req.toInput())
	if err != nil {
		ctrl.respondBannerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, banner)
}

// UpdateBanner updates a banner (admin)
// PUT /api/v1/admin/banners/:id
func (ctrl *BannerController) UpdateBanner(c *gin.Context) {
	bannerID, err := parseIDParam(c, "id")
	if err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid banner ID")
		return
	}

	var req BannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeValidationFailed, "invalid banner data")
		return
	}

	banner, err := ctrl.bannerService.UpdateBanner(bannerID, req.toInput())
	if err != nil {
		ctrl.respondBannerError(c, err)
		return
	}

	c.JSON(http.StatusOK, banner)
}

// DeleteBanner removes a banner (admin)
// DELETE /api/v1/admin/banners/:id
func (ctrl *BannerController) DeleteBanner(c *gin.Context) {
	bannerID, err := parseIDParam(c, "id")
	if err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid banner ID")
		return
	}

	if err := ctrl.bannerService.DeleteBanner(bannerID); err != nil {
		ctrl.respondBannerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "banner deleted"})
}

func (ctrl *BannerController) respondBannerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBannerNotFound):
		apierrors.NotFound(c, apierrors.CodeNotFound, "banner not found")
	case errors.Is(err, service.ErrInvalidBanner):
		apierrors.BadRequest(c, apierrors.CodeValidationFailed, "invalid banner data")
	default:
		apierrors.InternalError(c, "banner operation failed")
	}
}
