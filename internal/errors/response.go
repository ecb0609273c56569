package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON body returned for every API error
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// RespondWithError writes a JSON error response and aborts the request
func RespondWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": ErrorResponse{
			Code:    code,
			Message: message,
		},
	})
}

// RespondWithDetails writes a JSON error response carrying extra detail payload
func RespondWithDetails(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": ErrorResponse{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Unauthorized responds with 401
func Unauthorized(c *gin.Context, code, message string) {
	RespondWithError(c, http.StatusUnauthorized, code, message)
}

// Forbidden responds with 403
func Forbidden(c *gin.Context, message string) {
	RespondWithError(c, http.StatusForbidden, CodeForbidden, message)
}

// BadRequest responds with 400
func BadRequest(c *gin.Context, code, message string) {
	RespondWithError(c, http.StatusBadRequest, code, message)
}

// NotFound responds with 404
func NotFound(c *gin.Context, code, message string) {
	RespondWithError(c, http.StatusNotFound, code, message)
}

// Conflict responds with 409
func Conflict(c *gin.Context, code, message string) {
	RespondWithError(c, http.StatusConflict, code, message)
}

// UnprocessableEntity responds with 422
func UnprocessableEntity(c *gin.Context, code, message string) {
	RespondWithError(c, http.StatusUnprocessableEntity, code, message)
}

// InternalError responds with 500
func InternalError(c *gin.Context, message string) {
	RespondWithError(c, http.StatusInternalServerError, CodeInternalError, message)
}
