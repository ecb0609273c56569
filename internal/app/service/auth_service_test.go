package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mehuljv/shopstack-backend/config"
	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/internal/app/repository"
	"github.com/mehuljv/shopstack-backend/internal/db"
	"github.com/mehuljv/shopstack-backend/pkg/util"
)

var testJWTConfig = config.JWTConfig{
	Secret:             "test-secret-key",
	AccessTokenExpiry:  15 * time.Minute,
	RefreshTokenExpiry: 168 * time.Hour,
}

func setupAuthServiceTest(t *testing.T) AuthService {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	return NewAuthService(repository.NewUserRepository(testDB), testJWTConfig)
}

func TestAuthService_Register(t *testing.T) {
	authService := setupAuthServiceTest(t)

	user, tokens, err := authService.Register(RegisterInput{
		Email:    "New.User@Example.com",
		Password: "password123",
		Name:     "New User",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "new.user@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	claims, err := util.ValidateToken(tokens.AccessToken, testJWTConfig.Secret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	authService := setupAuthServiceTest(t)

	_, _, err := authService.Register(RegisterInput{
		Email:    "dup@example.com",
		Password: "password123",
		Name:     "First",
	})
	require.NoError(t, err)

	_, _, err = authService.Register(RegisterInput{
		Email:    "DUP@example.com",
		Password: "password456",
		Name:     "Second",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	authService := setupAuthServiceTest(t)

	_, _, err := authService.Register(RegisterInput{
		Email:    "weak@example.com",
		Password: "short",
		Name:     "Weak",
	})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestAuthService_Login(t *testing.T) {
	authService := setupAuthServiceTest(t)

	_, _, err := authService.Register(RegisterInput{
		Email:    "login@example.com",
		Password: "password123",
		Name:     "Login User",
	})
	require.NoError(t, err)

	user, tokens, err := authService.Login("login@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "login@example.com", user.Email)
	assert.NotEmpty(t, tokens.AccessToken)
}

func TestAuthService_Login_UpgradesStaleHash(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	userRepo := repository.NewUserRepository(testDB)
	authService := NewAuthService(userRepo, testJWTConfig)

	stale, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{
		Email:        "stale@example.com",
		PasswordHash: string(stale),
		Name:         "Stale Hash User",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(user).Error)

	_, tokens, err := authService.Login("stale@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)

	// The weak hash was replaced at the current cost during login
	var stored model.User
	testDB.First(&stored, user.ID)
	assert.NotEqual(t, string(stale), stored.PasswordHash)
	assert.False(t, util.PasswordNeedsRehash(stored.PasswordHash))
	assert.True(t, util.CheckPassword("password123", stored.PasswordHash))
}

func TestAuthService_Login_WrongCredentials(t *testing.T) {
	authService := setupAuthServiceTest(t)

	_, _, err := authService.Register(RegisterInput{
		Email:    "victim@example.com",
		Password: "password123",
		Name:     "Victim",
	})
	require.NoError(t, err)

	// Wrong password and unknown email return the same error
	_, _, err = authService.Login("victim@example.com", "wrongpass1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = authService.Login("nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RefreshTokens(t *testing.T) {
	authService := setupAuthServiceTest(t)

	user, tokens, err := authService.Register(RegisterInput{
		Email:    "refresh@example.com",
		Password: "password123",
		Name:     "Refresh User",
	})
	require.NoError(t, err)

	fresh, err := authService.RefreshTokens(tokens.RefreshToken)
	require.NoError(t, err)

	claims, err := util.ValidateToken(fresh.AccessToken, testJWTConfig.Secret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, err = authService.RefreshTokens("not-a-token")
	assert.Error(t, err)
}

func TestAuthService_GetMe(t *testing.T) {
	authService := setupAuthServiceTest(t)

	user, _, err := authService.Register(RegisterInput{
		Email:    "me@example.com",
		Password: "password123",
		Name:     "Me User",
	})
	require.NoError(t, err)

	found, err := authService.GetMe(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)

	_, err = authService.GetMe(9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
