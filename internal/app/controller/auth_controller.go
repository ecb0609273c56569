package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mehuljv/shopstack-backend/internal/app/service"
	apierrors "github.com/mehuljv/shopstack-backend/internal/errors"
	"github.com/mehuljv/shopstack-backend/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UpdateProfileRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// Register creates a new account and returns a token pair
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid register request", map[string]interface{}{
			"error": err.Error(),
		})
		apierrors.BadRequest(c, apierrors.CodeValidationFailed, "invalid registration data")
		return
	}

	user, tokens, err := ctrl.authService.Register(service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			apierrors.Conflict(c, apierrors.CodeAuthEmailTaken, "this email is already registered")
		case errors.Is(err, service.ErrWeakPassword):
			apierrors.BadRequest(c, apierrors.CodeValidationFailed, "password must be at least 8 characters")
		default:
			log.Error("Registration failed", err)
			apierrors.InternalError(c, "registration failed")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// Login authenticates a user and returns a token pair
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeValidationFailed, "invalid login data")
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apierrors.Unauthorized(c, apierrors.CodeAuthInvalidLogin, "invalid email or password")
			return
		}
		log.Error("Login failed", err)
		apierrors.InternalError(c, "login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// Refresh exchanges a refresh token for a fresh token pair
// POST /api/v1/auth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeValidationFailed, "refresh token required")
		return
	}

	tokens, err := ctrl.authService.RefreshTokens(req.RefreshToken)
	if err != nil {
		apierrors.Unauthorized(c, apierrors.CodeAuthInvalidToken, "invalid refresh token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Logout revokes the caller's access token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	token, ok := middleware.GetRawToken(c)
	if !ok {
		apierrors.Unauthorized(c, apierrors.CodeAuthRequired, "authentication required")
		return
	}

	if err := ctrl.authService.Logout(c.Request.Context(), token); err != nil {
		log.Error("Logout failed", err)
		apierrors.InternalError(c, "logout failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's profile
// GET /api/v1/auth/me
func (ctrl *AuthController) Me(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, apierrors.CodeAuthRequired, "authentication required")
		return
	}

	user, err := ctrl.authService.GetMe(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apierrors.NotFound(c, apierrors.CodeNotFound, "user not found")
			return
		}
		apierrors.InternalError(c, "failed to fetch profile")
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateMe updates the authenticated user's name and phone
// PUT /api/v1/auth/me
func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, apierrors.CodeAuthRequired, "authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, apierrors.CodeInvalidRequest, "invalid request data")
		return
	}

	user, err := ctrl.authService.UpdateMe(userID, service.UpdateProfileInput{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apierrors.NotFound(c, apierrors.CodeNotFound, "user not found")
			return
		}
		log.Error("Profile update failed", err, map[string]interface{}{
			"user_id": userID,
		})
		apierrors.InternalError(c, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, user)
}
