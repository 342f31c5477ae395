package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/submission-ticker-api/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const (
	minRating = 1
	maxRating = 5
)

// ValidateCreate checks a public submission payload for the given resource
func ValidateCreate(resource models.Resource, req *models.CreateRequest) []models.ValidationError {
	var errors []models.ValidationError

	if req == nil {
		return []models.ValidationError{{Field: "content", Message: "content is required"}}
	}

	// Validate content
	if strings.TrimSpace(req.Body()) == "" {
		field := "content"
		if resource.HasProfile() {
			field = "testimonialContent"
		}
		errors = append(errors, models.ValidationError{Field: field, Message: field + " is required"})
	}

	if !resource.HasProfile() {
		return errors
	}

	// Validate testimonial profile
	if strings.TrimSpace(req.FullName) == "" {
		errors = append(errors, models.ValidationError{Field: "fullName", Message: "fullName is required"})
	}

	if req.Rating != nil && (*req.Rating < minRating || *req.Rating > maxRating) {
		errors = append(errors, models.ValidationError{
			Field:   "rating",
			Message: fmt.Sprintf("rating must be between %d and %d", minRating, maxRating),
			Value:   *req.Rating,
		})
	}

	if email := optional(req.Email); email != "" && !emailRegex.MatchString(email) {
		errors = append(errors, models.ValidationError{Field: "email", Message: "invalid email format", Value: *req.Email})
	}

	if photo := optional(req.PhotoURL); photo != "" && !isValidURL(photo) {
		errors = append(errors, models.ValidationError{Field: "photoUrl", Message: "photoUrl must be an http(s) URL", Value: *req.PhotoURL})
	}

	return errors
}

// ParseID parses a path id. Only the hyphenated 36-character form is accepted;
// urn, braced and bare-hex spellings are rejected.
func ParseID(id string) (uuid.UUID, error) {
	s := strings.TrimSpace(id)
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", id, err)
	}
	if parsed.String() != strings.ToLower(s) {
		return uuid.Nil, fmt.Errorf("invalid id %q: not in canonical form", id)
	}
	return parsed, nil
}

// ParseStatusFilter maps a ?status= value to a status; "" and "all" mean no filter
func ParseStatusFilter(s string) (models.Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "all" {
		return "", nil
	}
	status := models.Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("status must be one of: pending, approved, rejected, all")
	}
	return status, nil
}

// isValidURL checks for an absolute http(s) URL
func isValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
