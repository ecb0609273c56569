package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestParseError_RecordNotFound(t *testing.T) {
	tests := []struct {
		context string
		message string
	}{
		{"get product", "product not found"},
		{"get order", "order not found"},
		{"get cart item", "cart item not found"},
		{"something else", "the requested record was not found"},
	}

	for _, tt := range tests {
		info := ParseError(gorm.ErrRecordNotFound, tt.context)
		assert.Equal(t, CodeNotFound, info.Code)
		assert.Equal(t, tt.message, info.Message)
	}
}

func TestParseError_DuplicateKey(t *testing.T) {
	err := errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email" (SQLSTATE 23505)`)
	info := ParseError(err, "register user")
	assert.Equal(t, CodeAuthEmailTaken, info.Code)

	err = errors.New(`ERROR: duplicate key value violates unique constraint "idx_products_slug" (SQLSTATE 23505)`)
	info = ParseError(err, "create product")
	assert.Equal(t, CodeAlreadyExists, info.Code)
}

func TestParseError_ForeignKey(t *testing.T) {
	err := errors.New(`ERROR: insert or update on table "cart_items" violates foreign key constraint "fk_cart_items_product_id" (SQLSTATE 23503)`)
	info := ParseError(err, "add to cart")
	assert.Equal(t, CodeProductNotFound, info.Code)
}

func TestParseError_CheckConstraint(t *testing.T) {
	err := errors.New(`ERROR: new row for relation "products" violates check constraint "chk_products_stock_quantity" (SQLSTATE 23514)`)
	info := ParseError(err, "update stock")
	assert.Equal(t, CodeOrderStockConflict, info.Code)
}

func TestParseError_Unknown(t *testing.T) {
	info := ParseError(errors.New("something went sideways"), "")
	assert.Equal(t, CodeInternalError, info.Code)
}

func TestParseError_Nil(t *testing.T) {
	info := ParseError(nil, "")
	assert.Equal(t, CodeInternalError, info.Code)
}
