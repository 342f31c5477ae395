package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/submission-ticker-api/internal/models"
	"github.com/submission-ticker-api/internal/validation"
)

// submissionService is the concrete implementation of SubmissionService
type submissionService struct {
	*deps
	log zerolog.Logger
}

func newSubmissionService(d *deps) *submissionService {
	return &submissionService{
		deps: d,
		log:  d.log.With().Str("service", "submission").Logger(),
	}
}

// List returns submissions for a resource; the approved list is served from cache when possible
func (s *submissionService) List(ctx context.Context, resource models.Resource, statusFilter string) ([]*models.Submission, error) {
	repo, err := s.repo(resource)
	if err != nil {
		return nil, err
	}

	status, err := validation.ParseStatusFilter(statusFilter)
	if err != nil {
		return nil, &ValidationFailure{Errors: []models.ValidationError{{Field: "status", Message: err.Error(), Value: statusFilter}}}
	}

	var (
		gen      uint64
		fillable bool
	)
	if status == models.StatusApproved {
		if cached, ok := s.cache.GetApproved(ctx, resource); ok {
			return cached, nil
		}
		gen, fillable = s.cache.Generation(ctx, resource)
	}

	subs, err := repo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("load %s feed: %w", resource.Singular(), err)
	}

	if fillable {
		s.cache.SetApproved(ctx, resource, gen, subs)
	}
	return subs, nil
}

// Create validates and stores a new pending submission
func (s *submissionService) Create(ctx context.Context, resource models.Resource, req *models.CreateRequest) (*models.Submission, error) {
	repo, err := s.repo(resource)
	if err != nil {
		return nil, err
	}

	if errs := validation.ValidateCreate(resource, req); len(errs) > 0 {
		return nil, &ValidationFailure{Errors: errs}
	}

	now := s.timestamp()
	sub := &models.Submission{
		ID:        uuid.New(),
		Resource:  resource,
		Content:   strings.TrimSpace(req.Body()),
		IsActive:  true,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if resource.HasProfile() {
		sub.Profile = &models.Profile{
			FullName: strings.TrimSpace(req.FullName),
			Email:    trimmed(req.Email),
			Location: trimmed(req.Location),
			Category: trimmed(req.Category),
			Rating:   req.Rating,
			PhotoURL: trimmed(req.PhotoURL),
		}
	}

	if err := repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create %s: %w", resource.Singular(), err)
	}

	s.log.Info().
		Str("resource", string(resource)).
		Str("id", sub.ID.String()).
		Msg("Submission created")

	return sub, nil
}

// Update edits content and/or the active flag without touching moderation state
func (s *submissionService) Update(ctx context.Context, resource models.Resource, id string, req models.UpdateRequest) (*models.Submission, error) {
	repo, err := s.repo(resource)
	if err != nil {
		return nil, err
	}

	uid, err := validation.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}

	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return nil, &ValidationFailure{Errors: []models.ValidationError{{Field: "content", Message: "content cannot be empty"}}}
		}
		req.Content = &content
	}

	sub, err := repo.Update(ctx, uid, req, s.timestamp())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update %s: %w", resource.Singular(), err)
	}

	s.cache.Invalidate(ctx, resource)
	return sub, nil
}

// Delete removes a submission permanently
func (s *submissionService) Delete(ctx context.Context, resource models.Resource, id string) (uuid.UUID, error) {
	repo, err := s.repo(resource)
	if err != nil {
		return uuid.Nil, err
	}

	uid, err := validation.ParseID(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}

	deleted, err := repo.Delete(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("delete %s: %w", resource.Singular(), err)
	}

	s.cache.Invalidate(ctx, resource)
	s.log.Info().
		Str("resource", string(resource)).
		Str("id", deleted.String()).
		Msg("Submission deleted")

	return deleted, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
