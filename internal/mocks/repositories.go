package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/submission-ticker-api/internal/models"
	"github.com/submission-ticker-api/internal/repository"
)

// MockSubmissionRepository is a map-backed implementation of SubmissionRepository
// that mirrors the ordering and capping rules of the SQL queries
type MockSubmissionRepository struct {
	mu          sync.Mutex
	resource    models.Resource
	Submissions map[uuid.UUID]*models.Submission
	Err         error // returned by every operation when set
	ListCalls   int
	UpdateCalls int
}

// Verify interface compliance
var _ repository.SubmissionRepository = (*MockSubmissionRepository)(nil)

func NewMockSubmissionRepository(resource models.Resource) *MockSubmissionRepository {
	return &MockSubmissionRepository{
		resource:    resource,
		Submissions: make(map[uuid.UUID]*models.Submission),
	}
}

// NewMockRepositories wires one mock per resource
func NewMockRepositories() (*repository.Repositories, *MockSubmissionRepository, *MockSubmissionRepository) {
	announcements := NewMockSubmissionRepository(models.ResourceAnnouncements)
	testimonials := NewMockSubmissionRepository(models.ResourceTestimonials)
	return &repository.Repositories{
		Announcements: announcements,
		Testimonials:  testimonials,
	}, announcements, testimonials
}

func (m *MockSubmissionRepository) Resource() models.Resource {
	return m.resource
}

func (m *MockSubmissionRepository) List(ctx context.Context, status models.Status) ([]*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.Err != nil {
		return nil, m.Err
	}

	subs := make([]*models.Submission, 0, len(m.Submissions))
	for _, s := range m.Submissions {
		if status != "" && s.Status != status {
			continue
		}
		if status == models.StatusApproved && !s.IsActive {
			continue
		}
		subs = append(subs, s.Clone())
	}

	if status == models.StatusApproved {
		sort.SliceStable(subs, func(i, j int) bool {
			pi, pj := publishedOrZero(subs[i]), publishedOrZero(subs[j])
			if !pi.Equal(pj) {
				return pi.After(pj)
			}
			return subs[i].CreatedAt.After(subs[j].CreatedAt)
		})
		if len(subs) > models.TickerLimit {
			subs = subs[:models.TickerLimit]
		}
		return subs, nil
	}

	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})
	return subs, nil
}

func (m *MockSubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.Submissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MockSubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	stored := sub.Clone()
	stored.Resource = m.resource
	m.Submissions[sub.ID] = stored
	return nil
}

func (m *MockSubmissionRepository) Update(ctx context.Context, id uuid.UUID, req models.UpdateRequest, at time.Time) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if req.IsEmpty() {
		return nil, repository.ErrNotFound
	}
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.Submissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if req.Content != nil {
		s.Content = *req.Content
	}
	if req.IsActive != nil {
		s.IsActive = *req.IsActive
	}
	s.UpdatedAt = at
	return s.Clone(), nil
}

func (m *MockSubmissionRepository) MarkApproved(ctx context.Context, id uuid.UUID, at time.Time) (*models.Submission, error) {
	return m.mutate(id, func(s *models.Submission) {
		s.Status = models.StatusApproved
		published := at
		s.PublishedAt = &published
		s.UpdatedAt = at
	})
}

func (m *MockSubmissionRepository) MarkRejected(ctx context.Context, id uuid.UUID, reason *string, at time.Time) (*models.Submission, error) {
	return m.mutate(id, func(s *models.Submission) {
		s.Status = models.StatusRejected
		s.RejectionReason = nil
		if reason != nil {
			r := *reason
			s.RejectionReason = &r
		}
		s.UpdatedAt = at
	})
}

func (m *MockSubmissionRepository) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return uuid.Nil, m.Err
	}
	if _, ok := m.Submissions[id]; !ok {
		return uuid.Nil, repository.ErrNotFound
	}
	delete(m.Submissions, id)
	return id, nil
}

// Put stores a submission directly, bypassing the service layer
func (m *MockSubmissionRepository) Put(sub *models.Submission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := sub.Clone()
	stored.Resource = m.resource
	m.Submissions[sub.ID] = stored
}

// Get returns a copy of a stored submission
func (m *MockSubmissionRepository) Get(id uuid.UUID) *models.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Submissions[id].Clone()
}

func (m *MockSubmissionRepository) mutate(id uuid.UUID, fn func(*models.Submission)) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.Submissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	fn(s)
	return s.Clone(), nil
}

func publishedOrZero(s *models.Submission) time.Time {
	if s.PublishedAt == nil {
		return time.Time{}
	}
	return *s.PublishedAt
}
