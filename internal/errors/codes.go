package errors

// Error codes returned in API error responses. Clients match on these
// rather than on messages.
const (
	// Authentication
	CodeAuthRequired     = "AUTH_REQUIRED"
	CodeAuthInvalidToken = "AUTH_INVALID_TOKEN"
	CodeAuthExpiredToken = "AUTH_EXPIRED_TOKEN"
	CodeAuthInvalidLogin = "AUTH_INVALID_CREDENTIALS"
	CodeAuthEmailTaken   = "AUTH_EMAIL_TAKEN"
	CodeAuthTokenRevoked = "AUTH_TOKEN_REVOKED"

	// Authorization
	CodeForbidden = "AUTHZ_FORBIDDEN"

	// Validation
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInvalidRequest   = "VALIDATION_INVALID_REQUEST"

	// Resources
	CodeNotFound      = "RESOURCE_NOT_FOUND"
	CodeAlreadyExists = "RESOURCE_ALREADY_EXISTS"

	// Cart
	CodeCartEmpty           = "CART_EMPTY"
	CodeCartItemNotFound    = "CART_ITEM_NOT_FOUND"
	CodeCartInvalidQuantity = "CART_INVALID_QUANTITY"

	// Orders
	CodeOrderNotFound          = "ORDER_NOT_FOUND"
	CodeOrderInvalidTransition = "ORDER_INVALID_TRANSITION"
	CodeOrderStockConflict     = "ORDER_STOCK_CONFLICT"
	CodeOrderRetryExhausted    = "ORDER_RETRY_EXHAUSTED"
	CodeOrderInvalidAddress    = "ORDER_INVALID_ADDRESS"

	// Products
	CodeProductNotFound    = "PRODUCT_NOT_FOUND"
	CodeProductUnavailable = "PRODUCT_UNAVAILABLE"

	// Payments
	CodePaymentFailed       = "PAYMENT_FAILED"
	CodePaymentNotVerified  = "PAYMENT_NOT_VERIFIED"
	CodePaymentAmountWrong  = "PAYMENT_AMOUNT_MISMATCH"
	CodePaymentRefundFailed = "PAYMENT_REFUND_FAILED"

	// Uploads
	CodeUploadInvalidType = "UPLOAD_INVALID_TYPE"
	CodeUploadFailed      = "UPLOAD_FAILED"

	// Internal
	CodeInternalError = "INTERNAL_ERROR"
)
