package repository

import (
	"context"
	"testing"
	"time"

	"workforce-console/backend/internal/audit/domain"
)

func TestMemoryRepository_ListByOrg(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, org := range []string{"org-1", "org-2", "org-1", "org-1"} {
		if err := repo.Create(ctx, &domain.AuditLog{
			ID:        string(rune('a' + i)),
			OrgID:     org,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.ListByOrg(ctx, "org-1", 10, 0)
	if err != nil {
		t.Fatalf("ListByOrg: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ID != "d" || got[2].ID != "a" {
		t.Errorf("order = %s,%s,%s; want newest first", got[0].ID, got[1].ID, got[2].ID)
	}

	page, _ := repo.ListByOrg(ctx, "org-1", 1, 1)
	if len(page) != 1 || page[0].ID != "c" {
		t.Errorf("page = %+v, want [c]", page)
	}
	if rest, _ := repo.ListByOrg(ctx, "org-1", 10, 5); len(rest) != 0 {
		t.Errorf("offset past end returned %d entries", len(rest))
	}
}
