package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/klass-lk/blogboot/internal/logging"
)

// ApiError is an error the API boundary knows how to render: an HTTP status
// plus a stable machine-readable code the admin client switches on.
type ApiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code,omitempty"`
	Message string `json:"error"`
}

func (e ApiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewApiError(status int, code, message string) ApiError {
	return ApiError{Status: status, Code: code, Message: message}
}

var (
	ErrInvalidCredentials = NewApiError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	ErrServerConfig       = NewApiError(http.StatusInternalServerError, "SERVER_CONFIG", "Server configuration error")
	ErrNoToken            = NewApiError(http.StatusUnauthorized, "NO_TOKEN", "Access token required")
	ErrTokenExpired       = NewApiError(http.StatusUnauthorized, "TOKEN_EXPIRED", "Token expired")
	ErrInvalidToken       = NewApiError(http.StatusForbidden, "INVALID_TOKEN", "Invalid token")
	ErrInvalidTokenType   = NewApiError(http.StatusUnauthorized, "INVALID_TOKEN_TYPE", "Invalid token type")
)

func NotFound(what string) ApiError {
	return NewApiError(http.StatusNotFound, "NOT_FOUND", what+" not found")
}

// SendError translates err to an HTTP response. Anything that is not an
// ApiError is an internal failure: logged with detail server-side, surfaced
// generically.
func SendError(c *gin.Context, err error) {
	var apiErr ApiError
	if errors.As(err, &apiErr) {
		body := gin.H{"error": apiErr.Message}
		if apiErr.Code != "" {
			body["code"] = apiErr.Code
		}
		c.JSON(apiErr.Status, body)
		return
	}
	logging.App.WithError(err).Error("internal error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// SendValidationError renders a 400 with per-field detail.
func SendValidationError(c *gin.Context, details []gin.H) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid data",
		"code":    "VALIDATION_FAILED",
		"details": details,
	})
}
