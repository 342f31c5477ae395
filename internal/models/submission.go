package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the moderation state of a submission
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsValid reports whether s is one of the three moderation states
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// TickerLimit caps the approved list served to the ticker
const TickerLimit = 5

// Resource identifies which submission table an operation targets
type Resource string

const (
	ResourceAnnouncements Resource = "announcements"
	ResourceTestimonials  Resource = "testimonials"
)

// Resources lists every supported resource root
var Resources = []Resource{ResourceAnnouncements, ResourceTestimonials}

// ParseResource maps a path segment to a Resource
func ParseResource(s string) (Resource, bool) {
	switch Resource(s) {
	case ResourceAnnouncements:
		return ResourceAnnouncements, true
	case ResourceTestimonials:
		return ResourceTestimonials, true
	default:
		return "", false
	}
}

// Table returns the backing table name
func (r Resource) Table() string {
	return string(r)
}

// Singular returns the envelope key used for a single entity
func (r Resource) Singular() string {
	switch r {
	case ResourceTestimonials:
		return "testimonial"
	default:
		return "announcement"
	}
}

// HasProfile reports whether rows of this resource carry a testimonial profile
func (r Resource) HasProfile() bool {
	return r == ResourceTestimonials
}

// Profile holds the testimonial author fields
type Profile struct {
	FullName string  `db:"full_name"`
	Email    *string `db:"email"`
	Location *string `db:"location"`
	Category *string `db:"category"`
	Rating   *int    `db:"rating"`
	PhotoURL *string `db:"photo_url"`
}

// Submission is a user-authored announcement or testimonial
type Submission struct {
	ID              uuid.UUID  `db:"id"`
	Resource        Resource   `db:"-"`
	Content         string     `db:"content"`
	IsActive        bool       `db:"is_active"`
	Status          Status     `db:"status"`
	PublishedAt     *time.Time `db:"published_at"`
	RejectionReason *string    `db:"rejection_reason"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
	Profile         *Profile   `db:"-"` // testimonials only
}

// Clone returns a deep copy so callers can't mutate stored rows
func (s *Submission) Clone() *Submission {
	if s == nil {
		return nil
	}
	c := *s
	if s.PublishedAt != nil {
		t := *s.PublishedAt
		c.PublishedAt = &t
	}
	if s.RejectionReason != nil {
		r := *s.RejectionReason
		c.RejectionReason = &r
	}
	if s.Profile != nil {
		p := *s.Profile
		c.Profile = &p
	}
	return &c
}

// SubmissionResponse is the external camelCase shape of a submission
type SubmissionResponse struct {
	ID                 string     `json:"id"`
	Content            string     `json:"content"`
	TestimonialContent string     `json:"testimonialContent,omitempty"`
	IsActive           bool       `json:"isActive"`
	Status             Status     `json:"status"`
	PublishedAt        *time.Time `json:"publishedAt"`
	RejectionReason    *string    `json:"rejectionReason"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	FullName           string     `json:"fullName,omitempty"`
	Email              *string    `json:"email,omitempty"`
	Location           *string    `json:"location,omitempty"`
	Category           *string    `json:"category,omitempty"`
	Rating             *int       `json:"rating,omitempty"`
	PhotoURL           *string    `json:"photoUrl,omitempty"`
}

// ToResponse maps the stored row to its external shape
func (s *Submission) ToResponse() SubmissionResponse {
	resp := SubmissionResponse{
		ID:              s.ID.String(),
		Content:         s.Content,
		IsActive:        s.IsActive,
		Status:          s.Status,
		PublishedAt:     s.PublishedAt,
		RejectionReason: s.RejectionReason,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.Profile != nil {
		resp.TestimonialContent = s.Content
		resp.FullName = s.Profile.FullName
		resp.Email = s.Profile.Email
		resp.Location = s.Profile.Location
		resp.Category = s.Profile.Category
		resp.Rating = s.Profile.Rating
		resp.PhotoURL = s.Profile.PhotoURL
	}
	return resp
}

// ToResponses maps a slice of rows, never returning nil
func ToResponses(subs []*Submission) []SubmissionResponse {
	out := make([]SubmissionResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.ToResponse())
	}
	return out
}
