package repository

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mehuljv/shopstack-backend/internal/app/model"
	"github.com/mehuljv/shopstack-backend/internal/db"
)

func setupCartRepoTest(t *testing.T) (*gorm.DB, CartRepository, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	user := &model.User{Email: "cart@example.com", PasswordHash: "hash", Name: "Cart User"}
	require.NoError(t, testDB.Create(user).Error)

	category := &model.Category{Name: "Electronics", Slug: "electronics"}
	require.NoError(t, testDB.Create(category).Error)

	product := &model.Product{
		Name:          "Wireless Mouse",
		Slug:          "wireless-mouse",
		Price:         decimal.NewFromInt(799),
		CategoryID:    category.ID,
		StockQuantity: 25,
		IsActive:      true,
	}
	require.NoError(t, testDB.Create(product).Error)

	return testDB, NewCartRepository(testDB), user, product
}

func TestCartRepository_CreateAndFind(t *testing.T) {
	_, repo, user, product := setupCartRepoTest(t)

	item := &model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 2}
	require.NoError(t, repo.Create(item))
	assert.NotZero(t, item.ID)

	found, err := repo.FindByUserAndProduct(user.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Quantity)

	items, err := repo.FindByUserID(user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Wireless Mouse", items[0].Product.Name)
}

func TestCartRepository_FindByUserAndProduct_NotFound(t *testing.T) {
	_, repo, user, _ := setupCartRepoTest(t)

	_, err := repo.FindByUserAndProduct(user.ID, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_Update(t *testing.T) {
	_, repo, user, product := setupCartRepoTest(t)

	item := &model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1}
	require.NoError(t, repo.Create(item))

	item.Quantity = 5
	require.NoError(t, repo.Update(item))

	found, err := repo.FindByUserAndProduct(user.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, found.Quantity)
}

func TestCartRepository_DeleteByUserAndProduct(t *testing.T) {
	_, repo, user, product := setupCartRepoTest(t)

	item := &model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1}
	require.NoError(t, repo.Create(item))

	require.NoError(t, repo.DeleteByUserAndProduct(user.ID, product.ID))

	_, err := repo.FindByUserAndProduct(user.ID, product.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Deleting again is a no-op, not an error
	assert.NoError(t, repo.DeleteByUserAndProduct(user.ID, product.ID))
}

func TestCartRepository_DeleteByUserID(t *testing.T) {
	testDB, repo, user, product := setupCartRepoTest(t)

	second := &model.Product{
		Name:          "USB Cable",
		Slug:          "usb-cable",
		Price:         decimal.NewFromInt(199),
		CategoryID:    product.CategoryID,
		StockQuantity: 50,
		IsActive:      true,
	}
	require.NoError(t, testDB.Create(second).Error)

	require.NoError(t, repo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: 1}))
	require.NoError(t, repo.Create(&model.CartItem{UserID: user.ID, ProductID: second.ID, Quantity: 3}))

	require.NoError(t, repo.DeleteByUserID(user.ID))

	items, err := repo.FindByUserID(user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
