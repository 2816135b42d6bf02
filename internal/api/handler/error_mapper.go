package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loadforge/loadforge/internal/apperrors"
	"github.com/loadforge/loadforge/internal/runservice"
)

// ErrorResponse is the standard error body returned on any failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// MapErrorToHTTP maps a registry or apperrors.Error into an HTTP
// status code and a standard error body.
func MapErrorToHTTP(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if errors.Is(err, runservice.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "run not found"})
		return
	}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case apperrors.Configuration:
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: appErr.Kind.String(), Message: appErr.Error()})
		case apperrors.Fatal:
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: appErr.Kind.String(), Message: appErr.Error()})
		default:
			c.JSON(http.StatusConflict, ErrorResponse{Error: appErr.Kind.String(), Message: appErr.Error()})
		}
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "an unexpected error occurred"})
}
