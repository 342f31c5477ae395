package models

import "strings"

// CreateRequest is the public submission payload
type CreateRequest struct {
	Content            string  `json:"content"`
	TestimonialContent string  `json:"testimonialContent"` // alias of content for testimonials
	FullName           string  `json:"fullName"`
	Email              *string `json:"email,omitempty"`
	Location           *string `json:"location,omitempty"`
	Category           *string `json:"category,omitempty"`
	Rating             *int    `json:"rating,omitempty"`
	PhotoURL           *string `json:"photoUrl,omitempty"`
}

// Body returns the submitted text, preferring content over its alias
func (r *CreateRequest) Body() string {
	if strings.TrimSpace(r.Content) != "" {
		return r.Content
	}
	return r.TestimonialContent
}

// UpdateRequest carries the two directly editable fields; nil means "keep"
type UpdateRequest struct {
	Content  *string `json:"content,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// IsEmpty reports whether no editable field was supplied
func (r UpdateRequest) IsEmpty() bool {
	return r.Content == nil && r.IsActive == nil
}

// RejectRequest is the optional body of a reject action
type RejectRequest struct {
	Reason *string `json:"reason"`
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}
