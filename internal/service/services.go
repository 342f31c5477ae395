package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/submission-ticker-api/internal/models"
	"github.com/submission-ticker-api/internal/repository"
)

// SubmissionService defines the content store operations exposed to handlers
type SubmissionService interface {
	List(ctx context.Context, resource models.Resource, statusFilter string) ([]*models.Submission, error)
	Create(ctx context.Context, resource models.Resource, req *models.CreateRequest) (*models.Submission, error)
	Update(ctx context.Context, resource models.Resource, id string, req models.UpdateRequest) (*models.Submission, error)
	Delete(ctx context.Context, resource models.Resource, id string) (uuid.UUID, error)
}

// ModerationService defines the moderation state machine
type ModerationService interface {
	Approve(ctx context.Context, resource models.Resource, id string) (*models.Submission, error)
	Reject(ctx context.Context, resource models.Resource, id string, reason *string) (*models.Submission, error)
}

// FeedCache caches the approved list served to the ticker.
// Generation must be read before loading the list passed to SetApproved;
// a fill whose generation is no longer current is dropped.
type FeedCache interface {
	GetApproved(ctx context.Context, resource models.Resource) ([]*models.Submission, bool)
	Generation(ctx context.Context, resource models.Resource) (uint64, bool)
	SetApproved(ctx context.Context, resource models.Resource, gen uint64, subs []*models.Submission)
	Invalidate(ctx context.Context, resource models.Resource)
}

// Services holds all service interfaces
type Services struct {
	Submissions SubmissionService
	Moderation  ModerationService
}

// Option customizes service construction
type Option func(*deps)

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithFeedCache enables caching of the approved list
func WithFeedCache(cache FeedCache) Option {
	return func(d *deps) {
		if cache != nil {
			d.cache = cache
		}
	}
}

// deps is shared by both services
type deps struct {
	repos *repository.Repositories
	cache FeedCache
	now   func() time.Time
	log   zerolog.Logger
}

func (d *deps) repo(resource models.Resource) (repository.SubmissionRepository, error) {
	repo := d.repos.For(resource)
	if repo == nil {
		return nil, ErrUnknownResource
	}
	return repo, nil
}

func (d *deps) timestamp() time.Time {
	return d.now().UTC()
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, log zerolog.Logger, opts ...Option) *Services {
	d := &deps{
		repos: repos,
		cache: noopCache{},
		now:   time.Now,
		log:   log,
	}
	for _, opt := range opts {
		opt(d)
	}

	return &Services{
		Submissions: newSubmissionService(d),
		Moderation:  newModerationService(d),
	}
}

type noopCache struct{}

func (noopCache) GetApproved(context.Context, models.Resource) ([]*models.Submission, bool) {
	return nil, false
}
func (noopCache) Generation(context.Context, models.Resource) (uint64, bool) {
	return 0, false
}
func (noopCache) SetApproved(context.Context, models.Resource, uint64, []*models.Submission) {}
func (noopCache) Invalidate(context.Context, models.Resource) {}
