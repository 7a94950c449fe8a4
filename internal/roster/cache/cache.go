// Package cache stores the raw per-member enrichment inputs (schedule records and geofence links).
// Resolved values are never cached: the active schedule depends on the evaluation time.
package cache

import (
	"context"
	"sync"
	"time"

	"workforce-console/backend/internal/clock"
	geofence "workforce-console/backend/internal/geofence/domain"
	schedule "workforce-console/backend/internal/schedule/domain"
)

// Entry is the cached enrichment input for one member.
type Entry struct {
	Schedules []schedule.Assignment `json:"schedules"`
	Geofences []geofence.Geofence   `json:"geofences"`
}

// ViewCache caches Entries per organization and member. A miss is (Entry{}, false, nil).
type ViewCache interface {
	Get(ctx context.Context, orgID, memberID string) (Entry, bool, error)
	Set(ctx context.Context, orgID, memberID string, e Entry) error
	Invalidate(ctx context.Context, orgID, memberID string) error
}

func key(orgID, memberID string) string {
	return "roster:enrich:" + orgID + ":" + memberID
}

func clone(e Entry) Entry {
	return Entry{
		Schedules: append([]schedule.Assignment(nil), e.Schedules...),
		Geofences: append([]geofence.Geofence(nil), e.Geofences...),
	}
}

// MemoryCache is a process-local ViewCache with a fixed TTL.
type MemoryCache struct {
	ttl   time.Duration
	clock clock.Clock
	mu    sync.RWMutex
	items map[string]memoryEntry
}

type memoryEntry struct {
	expiresAt time.Time
	entry     Entry
}

// NewMemory returns a MemoryCache. A nil clock uses the system clock.
func NewMemory(ttl time.Duration, c clock.Clock) *MemoryCache {
	if c == nil {
		c = clock.System()
	}
	return &MemoryCache{ttl: ttl, clock: c, items: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(_ context.Context, orgID, memberID string) (Entry, bool, error) {
	k := key(orgID, memberID)
	c.mu.RLock()
	item, ok := c.items[k]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false, nil
	}
	if c.clock.Now().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, k)
		c.mu.Unlock()
		return Entry{}, false, nil
	}
	return clone(item.entry), true, nil
}

func (c *MemoryCache) Set(_ context.Context, orgID, memberID string, e Entry) error {
	c.mu.Lock()
	c.items[key(orgID, memberID)] = memoryEntry{expiresAt: c.clock.Now().Add(c.ttl), entry: clone(e)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, orgID, memberID string) error {
	c.mu.Lock()
	delete(c.items, key(orgID, memberID))
	c.mu.Unlock()
	return nil
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string, string) (Entry, bool, error) { return Entry{}, false, nil }
func (Nop) Set(context.Context, string, string, Entry) error         { return nil }
func (Nop) Invalidate(context.Context, string, string) error         { return nil }
