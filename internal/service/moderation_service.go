package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/submission-ticker-api/internal/models"
	"github.com/submission-ticker-api/internal/repository"
	"github.com/submission-ticker-api/internal/validation"
)

// transitions lists the legal moves out of each state. Decisions can be
// reversed or repeated; nothing returns to pending once created.
var transitions = map[models.Status]map[models.Status]bool{
	models.StatusPending:  {models.StatusApproved: true, models.StatusRejected: true},
	models.StatusApproved: {models.StatusApproved: true, models.StatusRejected: true},
	models.StatusRejected: {models.StatusApproved: true, models.StatusRejected: true},
}

// CanTransition reports whether a submission in state from may move to state to
func CanTransition(from, to models.Status) bool {
	return transitions[from][to]
}

// moderationService is the concrete implementation of ModerationService
type moderationService struct {
	*deps
	log zerolog.Logger
}

func newModerationService(d *deps) *moderationService {
	return &moderationService{
		deps: d,
		log:  d.log.With().Str("service", "moderation").Logger(),
	}
}

// Approve publishes a submission. published_at always moves to the latest approval.
func (s *moderationService) Approve(ctx context.Context, resource models.Resource, id string) (*models.Submission, error) {
	return s.transition(ctx, resource, id, models.StatusApproved, func(repo repository.SubmissionRepository, uid uuid.UUID, at time.Time) (*models.Submission, error) {
		return repo.MarkApproved(ctx, uid, at)
	})
}

// Reject hides a submission. A missing reason clears any previous one; published_at is kept.
func (s *moderationService) Reject(ctx context.Context, resource models.Resource, id string, reason *string) (*models.Submission, error) {
	reason = trimmed(reason)
	return s.transition(ctx, resource, id, models.StatusRejected, func(repo repository.SubmissionRepository, uid uuid.UUID, at time.Time) (*models.Submission, error) {
		return repo.MarkRejected(ctx, uid, reason, at)
	})
}

type persistFunc func(repo repository.SubmissionRepository, id uuid.UUID, at time.Time) (*models.Submission, error)

func (s *moderationService) transition(ctx context.Context, resource models.Resource, id string, to models.Status, persist persistFunc) (*models.Submission, error) {
	repo, err := s.repo(resource)
	if err != nil {
		return nil, err
	}

	uid, err := validation.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}

	current, err := repo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load %s: %w", resource.Singular(), err)
	}

	if !CanTransition(current.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}

	// Last write wins if the row changes between the read and this update.
	updated, err := persist(repo, uid, s.timestamp())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mark %s %s: %w", resource.Singular(), to, err)
	}

	s.cache.Invalidate(ctx, resource)
	s.log.Info().
		Str("resource", string(resource)).
		Str("id", uid.String()).
		Str("from", string(current.Status)).
		Str("to", string(to)).
		Msg("Submission moderated")

	return updated, nil
}
