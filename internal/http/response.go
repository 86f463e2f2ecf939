package http

import (
	"context"
	"errors"
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"github.com/godilite/wellness-eval/internal/catalog"
	"github.com/godilite/wellness-eval/internal/service"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(nethttp.StatusOK, payload)
}

// classify maps service errors to a status, a stable code and whether the
// message is safe to show the caller.
func classify(err error) (status int, code string, public bool) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return nethttp.StatusGatewayTimeout, "timeout", false
	case errors.Is(err, context.Canceled):
		return nethttp.StatusServiceUnavailable, "canceled", false
	case errors.Is(err, service.ErrEntityNotFound):
		return nethttp.StatusNotFound, "not_found", true
	case errors.Is(err, service.ErrCorruptRecord):
		return nethttp.StatusInternalServerError, "corrupt_record", false
	case errors.Is(err, service.ErrInvalidComparison):
		return nethttp.StatusBadRequest, "invalid_comparison", true
	case errors.Is(err, catalog.ErrMalformedInput):
		return nethttp.StatusBadRequest, "malformed_input", true
	case errors.Is(err, service.ErrStorageFailure):
		return nethttp.StatusInternalServerError, "storage_failure", false
	default:
		return nethttp.StatusInternalServerError, "internal", false
	}
}
