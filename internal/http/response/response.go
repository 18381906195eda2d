// Package response centralizes JSON response helpers and the apperr-to-HTTP
// mapping used by all handlers.
package response

import (
	"errors"
	"net/http"

	"followup_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

func Created(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusCreated, payload)
}

func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// FromError maps a service error to its HTTP representation. Untyped errors
// are logged by the caller's middleware and surface as a generic 500 so that
// internals never leak to clients.
func FromError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		Error(c, appErr.HTTPStatus(), appErr.Message, appErr.Details)
		return
	}
	Error(c, http.StatusInternalServerError, "internal server error", nil)
}
