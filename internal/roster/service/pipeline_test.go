package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce-console/backend/internal/clock"
	geofence "workforce-console/backend/internal/geofence/domain"
	membership "workforce-console/backend/internal/membership/domain"
	"workforce-console/backend/internal/roster/cache"
	schedule "workforce-console/backend/internal/schedule/domain"
)

var now = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

type fakeMembers struct {
	members    []membership.Member
	invites    []membership.Invitation
	membersErr error
	invitesErr error
}

func (f *fakeMembers) ListMembers(context.Context, string) ([]membership.Member, error) {
	if f.membersErr != nil {
		return nil, f.membersErr
	}
	return f.members, nil
}

func (f *fakeMembers) ListInvitations(context.Context, string) ([]membership.Invitation, error) {
	if f.invitesErr != nil {
		return nil, f.invitesErr
	}
	return f.invites, nil
}

type fakeResources struct {
	mu            sync.Mutex
	shifts        []schedule.Shift
	shiftsErr     error
	schedules     map[string][]schedule.Assignment
	geofences     map[string][]geofence.Geofence
	failSchedules map[string]bool
	scheduleCalls map[string]int
	inFlight      atomic.Int32
	maxInFlight   atomic.Int32
}

func (f *fakeResources) FetchShifts(context.Context) ([]schedule.Shift, error) {
	return f.shifts, f.shiftsErr
}

func (f *fakeResources) FetchUserSchedules(_ context.Context, userID string) ([]schedule.Assignment, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scheduleCalls == nil {
		f.scheduleCalls = map[string]int{}
	}
	f.scheduleCalls[userID]++
	if f.failSchedules[userID] {
		return nil, errors.New("schedule service timeout")
	}
	return f.schedules[userID], nil
}

func (f *fakeResources) FetchUserGeofences(_ context.Context, userID string) ([]geofence.Geofence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.geofences[userID], nil
}

func (f *fakeResources) calls(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scheduleCalls[userID]
}

func ptr(t time.Time) *time.Time { return &t }

func newPipeline(m MemberSource, r ResourceSource, c cache.ViewCache) *Pipeline {
	return NewPipeline(m, r, c, nil, clock.NewFake(now), nil, Config{EnrichConcurrency: 4})
}

func twoMembers() *fakeMembers {
	return &fakeMembers{
		members: []membership.Member{
			{ID: "m-x", UserID: "u-x", Email: "x@example.com", Role: membership.RoleMember, Status: membership.MemberStatusActive},
			{ID: "m-y", UserID: "u-y", Email: "y@example.com", Role: membership.RoleAdmin, Status: membership.MemberStatusActive},
		},
		invites: []membership.Invitation{{ID: "i-1", Email: "new@example.com", Role: membership.RoleMember, Status: membership.InvitationStatusPending}},
	}
}

func TestRefresh_PartialEnrichmentKeepsBothMembers(t *testing.T) {
	res := &fakeResources{
		shifts: []schedule.Shift{{ID: "s1", Name: "Day"}},
		schedules: map[string][]schedule.Assignment{
			"u-y": {{ID: "a1", MemberID: "u-y", ShiftID: "s1", EffectiveFrom: now.Add(-24 * time.Hour), CreatedAt: now.Add(-24 * time.Hour)}},
		},
		geofences:     map[string][]geofence.Geofence{"u-y": {{ID: "g1", Name: "HQ", Active: true}}},
		failSchedules: map[string]bool{"u-x": true},
	}
	p := newPipeline(twoMembers(), res, nil)

	view, err := p.Refresh(context.Background(), "org-1", Caller{})
	require.NoError(t, err)
	require.Len(t, view.Members, 2)

	x, y := view.Members[0], view.Members[1]
	assert.Equal(t, "m-x", x.ID)
	assert.False(t, x.Enriched)
	assert.NotEmpty(t, x.EnrichmentErr)
	assert.Nil(t, x.ActiveAssignment)
	assert.Equal(t, membership.RoleMember, x.EffectiveRole)

	assert.Equal(t, "m-y", y.ID)
	assert.True(t, y.Enriched)
	require.NotNil(t, y.ActiveAssignment)
	assert.Equal(t, "a1", y.ActiveAssignment.ID)
	require.NotNil(t, y.ActiveShift)
	assert.Equal(t, "Day", y.ActiveShift.Name)
	assert.Equal(t, []string{"g1"}, geofence.IDs(y.Geofences))
	assert.Equal(t, membership.RoleAdmin, y.EffectiveRole)
	assert.True(t, view.Healthy())
}

func TestRefresh_MembersFailureKeepsInvitations(t *testing.T) {
	src := twoMembers()
	src.membersErr = errors.New("identity: listMembers failed status=503")
	p := newPipeline(src, &fakeResources{}, nil)

	view, err := p.Refresh(context.Background(), "org-1", Caller{})
	require.NoError(t, err)
	assert.Empty(t, view.Members)
	assert.NotEmpty(t, view.MembersErr)
	assert.Len(t, view.Invitations, 1)
	assert.Empty(t, view.InvitationsErr)
	assert.False(t, view.Healthy())
}

func TestRefresh_InvitationsFailureKeepsMembers(t *testing.T) {
	src := twoMembers()
	src.invitesErr = errors.New("boom")
	p := newPipeline(src, &fakeResources{}, nil)

	view, err := p.Refresh(context.Background(), "org-1", Caller{})
	require.NoError(t, err)
	assert.Len(t, view.Members, 2)
	assert.NotNil(t, view.Invitations)
	assert.Empty(t, view.Invitations)
	assert.Equal(t, "boom", view.InvitationsErr)
}

func TestRefresh_ShiftCatalogFailureOnlyDropsShiftDetails(t *testing.T) {
	res := &fakeResources{
		shiftsErr: errors.New("down"),
		schedules: map[string][]schedule.Assignment{
			"u-x": {{ID: "a1", ShiftID: "s1", EffectiveFrom: now.Add(-time.Hour), CreatedAt: now.Add(-time.Hour)}},
		},
	}
	p := newPipeline(twoMembers(), res, nil)

	view, err := p.Refresh(context.Background(), "org-1", Caller{})
	require.NoError(t, err)
	x := view.Members[0]
	assert.True(t, x.Enriched)
	require.NotNil(t, x.ActiveAssignment)
	assert.Nil(t, x.ActiveShift)
}

func TestRefresh_NewestAssignmentWins(t *testing.T) {
	jan1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jun1 := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	res := &fakeResources{schedules: map[string][]schedule.Assignment{
		"u-x": {
			{ID: "A", ShiftID: "s-a", EffectiveFrom: jan1, EffectiveUntil: ptr(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)), CreatedAt: jan1},
			{ID: "B", ShiftID: "s-b", EffectiveFrom: jun1, CreatedAt: jun1},
		},
	}}
	p := newPipeline(twoMembers(), res, nil)

	view, err := p.Refresh(context.Background(), "org-1", Caller{})
	require.NoError(t, err)
	require.NotNil(t, view.Members[0].ActiveAssignment)
	assert.Equal(t, "B", view.Members[0].ActiveAssignment.ID)
}

func TestRefresh_UsesCacheButResolvesAtRefreshTime(t *testing.T) {
	fake := clock.NewFake(now)
	res := &fakeResources{schedules: map[string][]schedule.Assignment{
		"u-x": {{ID: "a1", EffectiveFrom: now.Add(time.Hour), CreatedAt: now}},
	}}
	c := cache.NewMemory(3*time.Hour, fake)
	p := NewPipeline(twoMembers(), res, c, nil, fake, nil, Config{})

	view, err := p.Refresh(context.Background(), "org-1", Caller{})
	require.NoError(t, err)
	assert.Nil(t, view.Members[0].ActiveAssignment, "assignment not started yet")

	fake.Advance(2 * time.Hour)
	view, err = p.Refresh(context.Background(), "org-1", Caller{})
	require.NoError(t, err)
	require.NotNil(t, view.Members[0].ActiveAssignment)
	assert.Equal(t, 1, res.calls("u-x"), "second refresh served from cache")

	require.NoError(t, c.Invalidate(context.Background(), "org-1", "u-x"))
	_, err = p.Refresh(context.Background(), "org-1", Caller{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.calls("u-x"))
}

func TestRefresh_CallerHintsApplyToOwnRowOnly(t *testing.T) {
	src := &fakeMembers{members: []membership.Member{
		{ID: "m-1", Email: "me@example.com", Role: "", Status: membership.MemberStatusActive},
		{ID: "m-2", Email: "other@example.com", Role: "", Status: membership.MemberStatusActive},
	}}
	p := newPipeline(src, &fakeResources{}, nil)

	view, err := p.Refresh(context.Background(), "org-1", Caller{
		MemberID: "me@example.com",
		Hints:    membership.RoleHints{ActiveOrgRole: "admin"},
	})
	require.NoError(t, err)
	assert.Equal(t, membership.RoleAdmin, view.Members[0].EffectiveRole)
	assert.Equal(t, membership.RoleMember, view.Members[1].EffectiveRole)
}

func TestRefresh_MembershipRoleBeatsSessionHint(t *testing.T) {
	src := &fakeMembers{members: []membership.Member{{ID: "m-1", Role: membership.RoleMember}}}
	p := newPipeline(src, &fakeResources{}, nil)

	view, err := p.Refresh(context.Background(), "org-1", Caller{MemberID: "m-1", Hints: membership.RoleHints{ActiveOrgRole: "owner"}})
	require.NoError(t, err)
	assert.Equal(t, membership.RoleMember, view.Members[0].EffectiveRole)
}

func TestRefresh_BoundedConcurrency(t *testing.T) {
	src := &fakeMembers{}
	for i := 0; i < 20; i++ {
		id := string(rune('a' + i))
		src.members = append(src.members, membership.Member{ID: "m-" + id, UserID: "u-" + id})
	}
	res := &fakeResources{}
	p := NewPipeline(src, res, nil, nil, clock.NewFake(now), nil, Config{EnrichConcurrency: 3})

	view, err := p.Refresh(context.Background(), "org-1", Caller{})
	require.NoError(t, err)
	assert.Len(t, view.Members, 20)
	assert.LessOrEqual(t, res.maxInFlight.Load(), int32(3))
	for i, m := range view.Members {
		assert.Equal(t, src.members[i].ID, m.ID, "input order kept")
	}
}

func TestRefresh_PublishesSnapshot(t *testing.T) {
	p := newPipeline(twoMembers(), &fakeResources{}, nil)
	_, ok := p.Store().Snapshot("org-1")
	assert.False(t, ok)

	view, err := p.Refresh(context.Background(), "org-1", Caller{})
	require.NoError(t, err)
	snap, ok := p.Store().Snapshot("org-1")
	require.True(t, ok)
	assert.Same(t, view, snap)
	assert.Equal(t, now, snap.RefreshedAt)
}

func TestRefresh_RequiresOrg(t *testing.T) {
	p := newPipeline(twoMembers(), &fakeResources{}, nil)
	_, err := p.Refresh(context.Background(), "", Caller{})
	assert.ErrorIs(t, err, ErrOrgRequired)
}

func TestForCaller_UsesContextCaller(t *testing.T) {
	src := &fakeMembers{members: []membership.Member{{ID: "m-1"}, {ID: "m-2"}}}
	p := newPipeline(src, &fakeResources{}, nil)
	type key struct{}
	bound := p.ForCaller(func(ctx context.Context) Caller {
		id, _ := ctx.Value(key{}).(string)
		return Caller{MemberID: id, Hints: membership.RoleHints{ActiveOrgRole: "admin"}}
	})

	ctx := context.WithValue(context.Background(), key{}, "m-2")
	view, err := bound.Refresh(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, membership.RoleMember, view.Members[0].EffectiveRole)
	assert.Equal(t, membership.RoleAdmin, view.Members[1].EffectiveRole)

	view, err = p.ForCaller(nil).Refresh(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, membership.RoleMember, view.Members[1].EffectiveRole)
}
