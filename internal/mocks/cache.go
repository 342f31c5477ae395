package mocks

import (
	"context"
	"sync"

	"github.com/submission-ticker-api/internal/models"
)

// MockFeedCache is an in-memory FeedCache that records invalidations.
// The invalidation count doubles as the generation.
type MockFeedCache struct {
	mu            sync.Mutex
	Entries       map[models.Resource][]*models.Submission
	Hits          int
	StaleFills    int
	Invalidations map[models.Resource]int
}

// NewMockFeedCache creates an empty MockFeedCache
func NewMockFeedCache() *MockFeedCache {
	return &MockFeedCache{
		Entries:       make(map[models.Resource][]*models.Submission),
		Invalidations: make(map[models.Resource]int),
	}
}

func (m *MockFeedCache) GetApproved(ctx context.Context, resource models.Resource) ([]*models.Submission, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs, ok := m.Entries[resource]
	if ok {
		m.Hits++
	}
	return subs, ok
}

func (m *MockFeedCache) Generation(ctx context.Context, resource models.Resource) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(m.Invalidations[resource]), true
}

func (m *MockFeedCache) SetApproved(ctx context.Context, resource models.Resource, gen uint64, subs []*models.Submission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if uint64(m.Invalidations[resource]) != gen {
		m.StaleFills++
		return
	}
	m.Entries[resource] = subs
}

func (m *MockFeedCache) Invalidate(ctx context.Context, resource models.Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Entries, resource)
	m.Invalidations[resource]++
}
