package service

import (
	"sync"

	"workforce-console/backend/internal/roster/domain"
)

// Store holds the latest published View per organization. Views are replaced wholesale.
type Store struct {
	mu    sync.RWMutex
	views map[string]*domain.View
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{views: make(map[string]*domain.View)}
}

// Snapshot returns the latest View for orgID. The returned View must not be modified.
func (s *Store) Snapshot(orgID string) (*domain.View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.views[orgID]
	return v, ok
}

// Publish replaces the organization's View. An older View never overwrites a newer one.
func (s *Store) Publish(v *domain.View) bool {
	if v == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.views[v.OrgID]; ok && cur.RefreshedAt.After(v.RefreshedAt) {
		return false
	}
	s.views[v.OrgID] = v
	return true
}
