// Package service builds the enriched roster view of an organization.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"workforce-console/backend/internal/clock"
	geofence "workforce-console/backend/internal/geofence/domain"
	"workforce-console/backend/internal/logger"
	membership "workforce-console/backend/internal/membership/domain"
	"workforce-console/backend/internal/roster/cache"
	"workforce-console/backend/internal/roster/domain"
	schedule "workforce-console/backend/internal/schedule/domain"
)

const instrumentationName = "workforce-console/roster"

// ErrOrgRequired is returned when Refresh is called without an organization id.
var ErrOrgRequired = errors.New("organization id is required")

// MemberSource lists organization members and invitations.
type MemberSource interface {
	ListMembers(ctx context.Context, orgID string) ([]membership.Member, error)
	ListInvitations(ctx context.Context, orgID string) ([]membership.Invitation, error)
}

// ResourceSource supplies shifts, schedule records and geofence links.
type ResourceSource interface {
	FetchShifts(ctx context.Context) ([]schedule.Shift, error)
	FetchUserSchedules(ctx context.Context, userID string) ([]schedule.Assignment, error)
	FetchUserGeofences(ctx context.Context, userID string) ([]geofence.Geofence, error)
}

// Caller identifies who asked for the refresh. Hints apply to the caller's own row only.
type Caller struct {
	// MemberID matches the caller's row by member id, user id or email.
	MemberID string
	Hints    membership.RoleHints
}

// Config tunes the pipeline.
type Config struct {
	// EnrichConcurrency bounds concurrent per-member enrichment. Values < 1 mean 8.
	EnrichConcurrency int
}

// Pipeline refreshes organization rosters.
type Pipeline struct {
	members   MemberSource
	resources ResourceSource
	cache     cache.ViewCache
	store     *Store
	clock     clock.Clock
	log       *zap.Logger
	limit     int
	tracer    trace.Tracer
	metrics   pipelineMetrics
}

// NewPipeline returns a Pipeline. A nil cache disables caching; nil clock and logger use defaults.
func NewPipeline(members MemberSource, resources ResourceSource, c cache.ViewCache, store *Store, clk clock.Clock, log *zap.Logger, cfg Config) *Pipeline {
	if c == nil {
		c = cache.Nop{}
	}
	if store == nil {
		store = NewStore()
	}
	if clk == nil {
		clk = clock.System()
	}
	limit := cfg.EnrichConcurrency
	if limit < 1 {
		limit = 8
	}
	log = logger.OrNop(log)
	return &Pipeline{
		members:   members,
		resources: resources,
		cache:     c,
		store:     store,
		clock:     clk,
		log:       log.Named("roster"),
		limit:     limit,
		tracer:    otel.Tracer(instrumentationName),
		metrics:   newPipelineMetrics(otel.Meter(instrumentationName), log),
	}
}

// Store returns the snapshot store the pipeline publishes into.
func (p *Pipeline) Store() *Store { return p.store }

// Refresh rebuilds and publishes the organization's View. Member and invitation listing run
// concurrently and fail independently; a failed side is empty with its error recorded on the View.
// Per-member enrichment failures keep the member with base fields only.
func (p *Pipeline) Refresh(ctx context.Context, orgID string, caller Caller) (*domain.View, error) {
	if orgID == "" {
		return nil, ErrOrgRequired
	}
	ctx, span := p.tracer.Start(ctx, "roster.Refresh", trace.WithAttributes(attribute.String("org_id", orgID)))
	defer span.End()
	start := time.Now()
	log := logger.WithTrace(ctx, logger.WithOrg(p.log, orgID))

	var (
		members     []membership.Member
		invitations []membership.Invitation
		shifts      []schedule.Shift
		membersErr  error
		invitesErr  error
	)
	var g errgroup.Group
	g.Go(func() error {
		members, membersErr = p.members.ListMembers(ctx, orgID)
		return nil
	})
	g.Go(func() error {
		invitations, invitesErr = p.members.ListInvitations(ctx, orgID)
		return nil
	})
	g.Go(func() error {
		var err error
		shifts, err = p.resources.FetchShifts(ctx)
		if err != nil {
			log.Warn("shift catalog unavailable", zap.Error(err))
			shifts = nil
		}
		return nil
	})
	_ = g.Wait()

	view := &domain.View{OrgID: orgID}
	if membersErr != nil {
		log.Warn("member list failed", zap.Error(membersErr))
		view.MembersErr = membersErr.Error()
		members = nil
	}
	if invitesErr != nil {
		log.Warn("invitation list failed", zap.Error(invitesErr))
		view.InvitationsErr = invitesErr.Error()
		invitations = nil
	}

	now := p.clock.Now()
	view.Members = p.enrich(ctx, log, orgID, now, members, schedule.ShiftByID(shifts), caller)
	view.Invitations = append([]membership.Invitation{}, invitations...)
	view.RefreshedAt = now

	p.store.Publish(view)

	failed := 0
	for _, m := range view.Members {
		if !m.Enriched {
			failed++
		}
	}
	p.metrics.record(ctx, orgID, time.Since(start), failed, view.Healthy())
	span.SetAttributes(
		attribute.Int("roster.members", len(view.Members)),
		attribute.Int("roster.invitations", len(view.Invitations)),
		attribute.Int("roster.enrichment_failures", failed),
	)
	if !view.Healthy() {
		span.SetStatus(codes.Error, "partial roster")
	}
	return view, nil
}

func (p *Pipeline) enrich(ctx context.Context, log *zap.Logger, orgID string, now time.Time, members []membership.Member, shifts map[string]schedule.Shift, caller Caller) []domain.EnrichedMember {
	out := make([]domain.EnrichedMember, len(members))
	var g errgroup.Group
	g.SetLimit(p.limit)
	for i := range members {
		g.Go(func() error {
			out[i] = p.enrichOne(ctx, log, orgID, now, members[i], shifts, caller)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *Pipeline) enrichOne(ctx context.Context, log *zap.Logger, orgID string, now time.Time, m membership.Member, shifts map[string]schedule.Shift, caller Caller) domain.EnrichedMember {
	em := domain.EnrichedMember{Member: m, EffectiveRole: effectiveRole(orgID, m, caller)}

	entry, err := p.loadEntry(ctx, log, orgID, m)
	if err != nil {
		log.Warn("member enrichment failed",
			zap.String("member_id", m.ID),
			zap.String("email", m.Email),
			zap.Error(err),
		)
		em.EnrichmentErr = err.Error()
		return em
	}

	if a, ok := schedule.ResolveActive(now, entry.Schedules); ok {
		em.ActiveAssignment = &a
		if s, ok := shifts[a.ShiftID]; ok {
			em.ActiveShift = &s
		}
	}
	em.Geofences = entry.Geofences
	em.Enriched = true
	return em
}

func (p *Pipeline) loadEntry(ctx context.Context, log *zap.Logger, orgID string, m membership.Member) (cache.Entry, error) {
	rid := m.ResourceID()
	if rid == "" {
		return cache.Entry{}, errors.New("member has no resource id")
	}
	entry, ok, err := p.cache.Get(ctx, orgID, rid)
	if err != nil {
		log.Warn("enrichment cache read failed", zap.String("member_id", rid), zap.Error(err))
	}
	if ok {
		return entry, nil
	}

	schedules, err := p.resources.FetchUserSchedules(ctx, rid)
	if err != nil {
		return cache.Entry{}, fmt.Errorf("schedules: %w", err)
	}
	links, err := p.resources.FetchUserGeofences(ctx, rid)
	if err != nil {
		return cache.Entry{}, fmt.Errorf("geofences: %w", err)
	}
	entry = cache.Entry{Schedules: schedules, Geofences: links}
	if err := p.cache.Set(ctx, orgID, rid, entry); err != nil {
		log.Warn("enrichment cache write failed", zap.String("member_id", rid), zap.Error(err))
	}
	return entry, nil
}

// effectiveRole resolves the member's role. Session hints only apply to the caller's own row,
// and the membership record always takes precedence over them.
func effectiveRole(orgID string, m membership.Member, caller Caller) membership.Role {
	hints := membership.RoleHints{MembershipRole: string(m.Role)}
	if caller.MemberID != "" && (caller.MemberID == m.ID || caller.MemberID == m.UserID || caller.MemberID == m.Email) {
		hints.ActiveOrgRole = caller.Hints.ActiveOrgRole
		hints.CurrentMemberRole = caller.Hints.CurrentMemberRole
		hints.Organizations = caller.Hints.Organizations
	}
	return hints.Effective(orgID)
}

type pipelineMetrics struct {
	duration metric.Float64Histogram
	failures metric.Int64Counter
	partial  metric.Int64Counter
}

func newPipelineMetrics(meter metric.Meter, log *zap.Logger) pipelineMetrics {
	var m pipelineMetrics
	var err error
	if m.duration, err = meter.Float64Histogram("roster.refresh.duration",
		metric.WithDescription("Roster refresh latency"), metric.WithUnit("s")); err != nil {
		log.Warn("roster metric init failed", zap.Error(err))
	}
	if m.failures, err = meter.Int64Counter("roster.enrichment.failures",
		metric.WithDescription("Members returned without enrichment")); err != nil {
		log.Warn("roster metric init failed", zap.Error(err))
	}
	if m.partial, err = meter.Int64Counter("roster.refresh.partial",
		metric.WithDescription("Refreshes where the member or invitation list failed")); err != nil {
		log.Warn("roster metric init failed", zap.Error(err))
	}
	return m
}

func (m pipelineMetrics) record(ctx context.Context, orgID string, elapsed time.Duration, failures int, healthy bool) {
	attrs := metric.WithAttributes(attribute.String("org_id", orgID))
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
	if m.failures != nil && failures > 0 {
		m.failures.Add(ctx, int64(failures), attrs)
	}
	if m.partial != nil && !healthy {
		m.partial.Add(ctx, 1, attrs)
	}
}

// CallerFunc derives the Caller of a request from its context.
type CallerFunc func(ctx context.Context) Caller

// Bound refreshes through a Pipeline on behalf of the caller found in each request context.
type Bound struct {
	p  *Pipeline
	fn CallerFunc
}

// ForCaller binds p to fn. A nil fn refreshes with an empty Caller.
func (p *Pipeline) ForCaller(fn CallerFunc) Bound {
	return Bound{p: p, fn: fn}
}

// Refresh runs the pipeline for orgID as the context's caller.
func (b Bound) Refresh(ctx context.Context, orgID string) (*domain.View, error) {
	var c Caller
	if b.fn != nil {
		c = b.fn(ctx)
	}
	return b.p.Refresh(ctx, orgID, c)
}
