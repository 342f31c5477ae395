package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/submission-ticker-api/internal/models"
	"github.com/submission-ticker-api/internal/service"
)

// errorResponse is the failure envelope
type errorResponse struct {
	Error   string                   `json:"error"`
	Details string                   `json:"details,omitempty"`
	Errors  []models.ValidationError `json:"errors,omitempty"`
}

// respondError maps service errors onto status codes. Anything unrecognized is
// an infrastructure failure: logged in full, reported as a single line.
func respondError(c *gin.Context, log zerolog.Logger, resource models.Resource, err error) {
	var vf *service.ValidationFailure

	switch {
	case errors.As(err, &vf):
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:   "Validation failed",
			Details: vf.Error(),
			Errors:  vf.Errors,
		})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Validation failed", Details: singleLine(err.Error())})
	case errors.Is(err, service.ErrInvalidID):
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid id", Details: singleLine(err.Error())})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: capitalize(resource.Singular()) + " not found"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, errorResponse{Error: "Invalid status transition", Details: singleLine(err.Error())})
	case errors.Is(err, service.ErrUnknownResource):
		methodNotAllowed(c)
	default:
		log.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error:   "Internal server error",
			Details: singleLine(err.Error()),
		})
	}
}

// singleLine collapses all whitespace runs, newlines included, to one space
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
