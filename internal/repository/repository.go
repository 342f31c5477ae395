package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/submission-ticker-api/internal/database"
	"github.com/submission-ticker-api/internal/models"
	"github.com/submission-ticker-api/internal/schema"
)

// ErrNotFound is returned when no row matches the requested id
var ErrNotFound = errors.New("submission not found")

// SubmissionRepository defines the interface for submission data operations.
// Every implementation is bound to a single resource table.
type SubmissionRepository interface {
	Resource() models.Resource
	List(ctx context.Context, status models.Status) ([]*models.Submission, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	Create(ctx context.Context, sub *models.Submission) error
	Update(ctx context.Context, id uuid.UUID, req models.UpdateRequest, at time.Time) (*models.Submission, error)
	MarkApproved(ctx context.Context, id uuid.UUID, at time.Time) (*models.Submission, error)
	MarkRejected(ctx context.Context, id uuid.UUID, reason *string, at time.Time) (*models.Submission, error)
	Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// SchemaEnsurer prepares a table before it is queried
type SchemaEnsurer interface {
	Ensure(ctx context.Context, table string)
}

// Repositories holds one repository per resource
type Repositories struct {
	Announcements SubmissionRepository
	Testimonials  SubmissionRepository
}

// For returns the repository bound to the given resource
func (r *Repositories) For(resource models.Resource) SubmissionRepository {
	switch resource {
	case models.ResourceTestimonials:
		return r.Testimonials
	case models.ResourceAnnouncements:
		return r.Announcements
	default:
		return nil
	}
}

// New creates all repositories with the given database connection
func New(db *database.DB, schemaManager *schema.Manager) *Repositories {
	return &Repositories{
		Announcements: NewSubmissionRepo(db, schemaManager, models.ResourceAnnouncements),
		Testimonials:  NewSubmissionRepo(db, schemaManager, models.ResourceTestimonials),
	}
}
