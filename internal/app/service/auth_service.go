package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mehuljv/shopstack-backend/config"
	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/internal/app/repository"
	"github.com/mehuljv/shopstack-backend/pkg/logger"
	"github.com/mehuljv/shopstack-backend/pkg/redis"
	"github.com/mehuljv/shopstack-backend/pkg/util"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// UpdateProfileInput carries the fields a user may change about themselves.
// Nil means leave unchanged.
type UpdateProfileInput struct {
	Name  *string
	Phone *string
}

type AuthService interface {
	Register(input RegisterInput) (*model.User, *util.TokenPair, error)
	Login(email, password string) (*model.User, *util.TokenPair, error)
	RefreshTokens(refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, token string) error
	GetMe(userID uint) (*model.User, error)
	UpdateMe(userID uint, input UpdateProfileInput) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	jwtCfg   config.JWTConfig
}

func NewAuthService(userRepo repository.UserRepository, jwtCfg config.JWTConfig) AuthService {
	return &authService{
		userRepo: userRepo,
		jwtCfg:   jwtCfg,
	}
}

func (s *authService) Register(input RegisterInput) (*model.User, *util.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	logger.Info("Registering user", map[string]interface{}{
		"email": email,
	})

	if len(input.Password) < util.MinPasswordLength {
		return nil, nil, ErrWeakPassword
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		logger.Warn("Registration rejected: email already registered", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	hash, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return nil, nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		Phone:        input.Phone,
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User registered", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, tokens, nil
}

func (s *authService) Login(email, password string) (*model.User, *util.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	logger.Info("User login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same error whether the email or the password is wrong
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.CheckPassword(password, user.PasswordHash) {
		logger.Warn("Login failed: password mismatch", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrInvalidCredentials
	}

	// Hashes made at an older, weaker cost are upgraded in place
	if util.PasswordNeedsRehash(user.PasswordHash) {
		if hash, hashErr := util.HashPassword(password); hashErr == nil {
			user.PasswordHash = hash
			if updateErr := s.userRepo.Update(user); updateErr != nil {
				logger.Warn("Failed to store rehashed password", map[string]interface{}{
					"user_id": user.ID,
				})
			}
		}
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User logged in", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, tokens, nil
}

func (s *authService) RefreshTokens(refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.jwtCfg.Secret)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.issueTokens(user)
}

// Logout blacklists the access token until it would have expired anyway
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := util.ValidateToken(token, s.jwtCfg.Secret)
	if err != nil {
		// An invalid token is already unusable
		return nil
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return redis.BlacklistToken(ctx, token, remaining)
}

func (s *authService) GetMe(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateMe(userID uint, input UpdateProfileInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name != "" {
			user.Name = name
		}
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	logger.Info("User profile updated", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, nil
}

func (s *authService) issueTokens(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.jwtCfg.Secret,
		s.jwtCfg.AccessTokenExpiry,
		s.jwtCfg.RefreshTokenExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate token pair", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return tokens, nil
}
