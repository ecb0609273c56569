package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/mehuljv/shopstack-backend/internal/errors"
	"github.com/mehuljv/shopstack-backend/internal/middleware"
	"github.com/mehuljv/shopstack-backend/internal/storage"
)

// Image types accepted for product and banner uploads.
var allowedImageTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
}

type UploadController struct {
	storage *storage.S3Storage
}

func NewUploadController(storage *storage.S3Storage) *UploadController {
	return &UploadController{
		storage: storage,
	}
}

type PresignedUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Folder      string `json:"folder"` // products, banners; defaults to uploads
}

// PresignUpload generates a presigned S3 PUT URL for an image upload (admin)
// POST /api/v1/admin/uploads/presign
func (ctrl *UploadController) PresignUpload(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req PresignedUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid request data")
		return
	}

	if err := ctrl.storage.ValidateContentType(req.ContentType, allowedImageTypes); err != nil {
		log.Warn("Rejected upload content type", map[string]interface{}{
			"content_type": req.ContentType,
		})
		apierrors.BadRequest(c, apierrors.CodeUploadInvalidType, "only image files are allowed (JPEG, PNG, GIF, WEBP)")
		return
	}

	result, err := ctrl.storage.PresignUpload(c.Request.Context(), req.Filename, req.ContentType, req.Folder)
	if err != nil {
		log.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"filename":     req.Filename,
			"content_type": req.ContentType,
		})
		apierrors.RespondWithError(c, http.StatusInternalServerError, apierrors.CodeUploadFailed, "failed to generate upload URL")
		return
	}

	log.Info("Presigned upload URL generated", map[string]interface{}{
		"key": result.Key,
	})

	c.JSON(http.StatusOK, result)
}
