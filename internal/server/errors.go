package server

import (
	"errors"
	"net/http"
	"strings"

	favoritedomain "github.com/dealgrid/auctionlens/internal/favorite/domain"
	notedomain "github.com/dealgrid/auctionlens/internal/note/domain"
	overridedomain "github.com/dealgrid/auctionlens/internal/override/domain"
	propertydomain "github.com/dealgrid/auctionlens/internal/property/domain"
	tagdomain "github.com/dealgrid/auctionlens/internal/tag/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, overridedomain.ErrConflictLost):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "a concurrent edit won; reload and retry",
		}
	case errors.Is(err, overridedomain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, overridedomain.ErrInvalidID),
		errors.Is(err, overridedomain.ErrInvalidField),
		errors.Is(err, overridedomain.ErrInvalidValue),
		errors.Is(err, overridedomain.ErrInvalidAmount),
		errors.Is(err, overridedomain.ErrInvalidSoldValue),
		errors.Is(err, overridedomain.ErrInvalidPageToken),
		errors.Is(err, propertydomain.ErrInvalidID),
		errors.Is(err, propertydomain.ErrInvalidStatus),
		errors.Is(err, propertydomain.ErrInvalidSnapshot),
		errors.Is(err, propertydomain.ErrInvalidPageToken),
		errors.Is(err, tagdomain.ErrInvalidID),
		errors.Is(err, tagdomain.ErrInvalidLabel),
		errors.Is(err, notedomain.ErrInvalidID),
		errors.Is(err, notedomain.ErrInvalidBody),
		errors.Is(err, favoritedomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, overridedomain.ErrInvalidUser),
		errors.Is(err, propertydomain.ErrInvalidUser),
		errors.Is(err, tagdomain.ErrInvalidUser),
		errors.Is(err, notedomain.ErrInvalidUser),
		errors.Is(err, favoritedomain.ErrInvalidUser):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, overridedomain.ErrPropertyNotFound),
		errors.Is(err, propertydomain.ErrNotFound),
		errors.Is(err, tagdomain.ErrNotFound),
		errors.Is(err, notedomain.ErrNotFound),
		errors.Is(err, favoritedomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}

func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= 500:
		return "server_error", payload.Type
	case status >= 400:
		return "client_error", payload.Type
	default:
		return "", payload.Type
	}
}
