package repository

import (
	"context"
	"sort"
	"sync"

	"workforce-console/backend/internal/audit/domain"
)

// MemoryRepository keeps audit logs in process. Used when DATABASE_URL is unset and in tests.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(_ context.Context, a *domain.AuditLog) error {
	r.mu.Lock()
	r.entries = append(r.entries, *a)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) ListByOrg(_ context.Context, orgID string, limit, offset int32) ([]*domain.AuditLog, error) {
	r.mu.Lock()
	var matched []domain.AuditLog
	for _, e := range r.entries {
		if e.OrgID == orgID {
			matched = append(matched, e)
		}
	}
	r.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	if offset < 0 {
		offset = 0
	}
	if int(offset) >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && int(limit) < len(matched) {
		matched = matched[:limit]
	}
	out := make([]*domain.AuditLog, len(matched))
	for i := range matched {
		out[i] = &matched[i]
	}
	return out, nil
}
