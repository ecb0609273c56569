package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a parsed error ready to be returned to a client
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts database and infrastructure errors into client-safe
// codes and messages. Sensitive detail stays out of the response; enough
// context is kept for the user to act on.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    CodeInternalError,
			Message: "an unexpected error occurred",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    CodeNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// PostgreSQL unique constraint violation (23505)
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStrLower)
	}

	// Foreign key constraint violation (23503)
	if strings.Contains(errStrLower, "foreign key constraint") {
		return parseForeignKeyError(errStrLower)
	}

	// Not null constraint violation (23502)
	if strings.Contains(errStrLower, "null value") && strings.Contains(errStrLower, "violates not-null constraint") {
		return parseNotNullError(errStrLower)
	}

	// Check constraint violation (23514)
	if strings.Contains(errStrLower, "check constraint") {
		return parseCheckConstraintError(errStrLower)
	}

	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    CodeInternalError,
			Message: "a downstream service is unavailable, please try again shortly",
		}
	}

	return ErrorInfo{
		Code:    CodeInternalError,
		Message: "an unexpected error occurred, please try again shortly",
	}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "email") || strings.Contains(errLower, "idx_users_email") {
		return ErrorInfo{
			Code:    CodeAuthEmailTaken,
			Message: "this email address is already registered",
		}
	}

	if strings.Contains(errLower, "slug") {
		return ErrorInfo{
			Code:    CodeAlreadyExists,
			Message: "this identifier is already in use",
		}
	}

	if strings.Contains(errLower, "order_number") {
		return ErrorInfo{
			Code:    CodeAlreadyExists,
			Message: "order number collision, please retry",
		}
	}

	if strings.Contains(errLower, "cart_items") {
		return ErrorInfo{
			Code:    CodeAlreadyExists,
			Message: "this product is already in your cart",
		}
	}

	if strings.Contains(errLower, "wishlist_items") {
		return ErrorInfo{
			Code:    CodeAlreadyExists,
			Message: "this product is already in your wishlist",
		}
	}

	return ErrorInfo{
		Code:    CodeAlreadyExists,
		Message: "this record already exists",
	}
}

func parseForeignKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "still referenced") {
		if strings.Contains(errLower, "categories") {
			return ErrorInfo{
				Code:    CodeAlreadyExists,
				Message: "this category still has products and cannot be deleted",
			}
		}
		return ErrorInfo{
			Code:    CodeAlreadyExists,
			Message: "this record is referenced by other data and cannot be deleted",
		}
	}

	if strings.Contains(errLower, "product_id") {
		return ErrorInfo{
			Code:    CodeProductNotFound,
			Message: "the referenced product does not exist",
		}
	}
	if strings.Contains(errLower, "category_id") {
		return ErrorInfo{
			Code:    CodeNotFound,
			Message: "the referenced category does not exist",
		}
	}
	if strings.Contains(errLower, "user_id") {
		return ErrorInfo{
			Code:    CodeNotFound,
			Message: "the referenced user does not exist",
		}
	}

	return ErrorInfo{
		Code:    CodeNotFound,
		Message: "a referenced record does not exist",
	}
}

func parseNotNullError(errLower string) ErrorInfo {
	for _, field := range []string{"email", "password", "name", "price", "quantity"} {
		if strings.Contains(errLower, field) {
			return ErrorInfo{
				Code:    CodeValidationFailed,
				Message: field + " is required",
			}
		}
	}

	return ErrorInfo{
		Code:    CodeValidationFailed,
		Message: "a required field is missing",
	}
}

func parseCheckConstraintError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "stock_quantity") {
		return ErrorInfo{
			Code:    CodeOrderStockConflict,
			Message: "insufficient stock for the requested quantity",
		}
	}
	if strings.Contains(errLower, "price") {
		return ErrorInfo{
			Code:    CodeValidationFailed,
			Message: "price must not be negative",
		}
	}

	return ErrorInfo{
		Code:    CodeValidationFailed,
		Message: "one or more values are out of range",
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "product"):
		return "product not found"
	case strings.Contains(contextLower, "category"):
		return "category not found"
	case strings.Contains(contextLower, "cart"):
		return "cart item not found"
	case strings.Contains(contextLower, "order"):
		return "order not found"
	case strings.Contains(contextLower, "user"):
		return "user not found"
	case strings.Contains(contextLower, "wishlist"):
		return "wishlist item not found"
	case strings.Contains(contextLower, "banner"):
		return "banner not found"
	}

	return "the requested record was not found"
}
