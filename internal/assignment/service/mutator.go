// Package service implements per-member shift and location assignment.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"workforce-console/backend/internal/audit"
	auditdomain "workforce-console/backend/internal/audit/domain"
	"workforce-console/backend/internal/clock"
	"workforce-console/backend/internal/events"
	geofence "workforce-console/backend/internal/geofence/domain"
	"workforce-console/backend/internal/logger"
	"workforce-console/backend/internal/platform/remote"
	resource "workforce-console/backend/internal/resource/client"
	"workforce-console/backend/internal/roster/cache"
	"workforce-console/backend/internal/roster/domain"
	schedule "workforce-console/backend/internal/schedule/domain"
)

var (
	ErrOrgRequired    = errors.New("organization id is required")
	ErrMemberRequired = errors.New("member id is required")
	ErrShiftRequired  = errors.New("shift id is required")
	ErrInvalidWindow  = errors.New("effective until is before effective from")
	ErrNoGeofences    = errors.New("no geofences to assign")
)

// Resources is the subset of the resource service the mutator writes through.
type Resources interface {
	FetchGeofences(ctx context.Context, orgID string) ([]geofence.Geofence, error)
	AssignShift(ctx context.Context, p resource.ShiftAssignment) error
	AssignGeofences(ctx context.Context, p resource.GeofenceAssignment) error
	RemoveGeofence(ctx context.Context, p resource.GeofenceRemoval) error
}

// ShiftRequest asks for a new schedule record for MemberID.
// MemberID is the member's resource id (membership.Member.ResourceID), the key the roster
// pipeline caches enrichment under.
type ShiftRequest struct {
	MemberID       string
	ShiftID        string
	EffectiveFrom  time.Time
	EffectiveUntil *time.Time
}

// LocationRequest links geofences to MemberID, a resource id like ShiftRequest's. AssignAll links the org's whole catalog
// and ignores GeofenceIDs.
type LocationRequest struct {
	MemberID    string
	GeofenceIDs []string
	AssignAll   bool
}

// Mutator assigns and revokes shifts and locations for one member at a time.
type Mutator struct {
	resources Resources
	cache     cache.ViewCache
	events    events.Publisher
	audit     audit.Recorder
	clock     clock.Clock
	actor     audit.ContextExtractor
	log       *zap.Logger
}

// Option configures a Mutator.
type Option func(*Mutator)

func WithCache(c cache.ViewCache) Option        { return func(m *Mutator) { m.cache = c } }
func WithEvents(p events.Publisher) Option      { return func(m *Mutator) { m.events = p } }
func WithAudit(r audit.Recorder) Option         { return func(m *Mutator) { m.audit = r } }
func WithClock(c clock.Clock) Option            { return func(m *Mutator) { m.clock = c } }
func WithActor(f audit.ContextExtractor) Option { return func(m *Mutator) { m.actor = f } }

// NewMutator returns a Mutator writing through resources.
func NewMutator(resources Resources, log *zap.Logger, opts ...Option) *Mutator {
	m := &Mutator{
		resources: resources,
		cache:     cache.Nop{},
		events:    events.Nop{},
		audit:     audit.Nop{},
		clock:     clock.System(),
		log:       logger.OrNop(log).Named("assignment"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cache == nil {
		m.cache = cache.Nop{}
	}
	if m.events == nil {
		m.events = events.Nop{}
	}
	if m.audit == nil {
		m.audit = audit.Nop{}
	}
	if m.clock == nil {
		m.clock = clock.System()
	}
	return m
}

// AssignShift appends a schedule record. Prior records are never edited; the active one is
// resolved at read time. An inverted window is rejected before any remote call; a zero
// EffectiveFrom starts now.
func (m *Mutator) AssignShift(ctx context.Context, orgID string, req ShiftRequest) error {
	memberID := strings.TrimSpace(req.MemberID)
	if req.EffectiveFrom.IsZero() {
		req.EffectiveFrom = m.clock.Now()
	}
	candidate := schedule.Assignment{MemberID: memberID, ShiftID: req.ShiftID, EffectiveFrom: req.EffectiveFrom, EffectiveUntil: req.EffectiveUntil}
	err := m.validate(orgID, memberID)
	if err == nil && strings.TrimSpace(req.ShiftID) == "" {
		err = ErrShiftRequired
	}
	if err == nil && !candidate.WindowValid() {
		err = ErrInvalidWindow
	}
	if err != nil {
		m.record(ctx, orgID, audit.ActionAssignShift, audit.ResourceSchedule, memberID, err, nil)
		return err
	}

	err = m.resources.AssignShift(ctx, resource.ShiftAssignment{
		UserID:         memberID,
		ShiftID:        req.ShiftID,
		EffectiveFrom:  req.EffectiveFrom.UTC(),
		EffectiveUntil: utcPtr(req.EffectiveUntil),
	})
	meta := map[string]any{"shift_id": req.ShiftID, "effective_from": req.EffectiveFrom.UTC()}
	if req.EffectiveUntil != nil {
		meta["effective_until"] = req.EffectiveUntil.UTC()
	}
	m.settle(ctx, orgID, audit.ActionAssignShift, audit.ResourceSchedule, memberID, err, meta)
	if err != nil {
		return fmt.Errorf("assign shift: %w", err)
	}
	return nil
}

// AssignLocations links geofences to the member. Links are additive: existing links not in
// the request are kept.
func (m *Mutator) AssignLocations(ctx context.Context, orgID string, req LocationRequest) error {
	memberID := strings.TrimSpace(req.MemberID)
	if err := m.validate(orgID, memberID); err != nil {
		m.record(ctx, orgID, audit.ActionAssignLocations, audit.ResourceGeofenceLink, memberID, err, nil)
		return err
	}

	ids := geofence.Dedupe(req.GeofenceIDs)
	if req.AssignAll {
		catalog, err := m.resources.FetchGeofences(ctx, orgID)
		if err != nil {
			m.record(ctx, orgID, audit.ActionAssignLocations, audit.ResourceGeofenceLink, memberID, err, map[string]any{"assign_all": true})
			return fmt.Errorf("fetch geofences: %w", err)
		}
		ids = geofence.Dedupe(geofence.IDs(catalog))
	}
	if len(ids) == 0 {
		m.record(ctx, orgID, audit.ActionAssignLocations, audit.ResourceGeofenceLink, memberID, ErrNoGeofences, nil)
		return ErrNoGeofences
	}

	err := m.resources.AssignGeofences(ctx, resource.GeofenceAssignment{UserID: memberID, GeofenceIDs: ids})
	m.settle(ctx, orgID, audit.ActionAssignLocations, audit.ResourceGeofenceLink, memberID, err,
		map[string]any{"geofence_ids": ids, "assign_all": req.AssignAll})
	if err != nil {
		return fmt.Errorf("assign geofences: %w", err)
	}
	return nil
}

// RemoveLocation unlinks one geofence. Removing a link that does not exist succeeds.
func (m *Mutator) RemoveLocation(ctx context.Context, orgID, memberID, geofenceID string) error {
	memberID = strings.TrimSpace(memberID)
	err := m.validate(orgID, memberID)
	if err == nil && strings.TrimSpace(geofenceID) == "" {
		err = ErrNoGeofences
	}
	if err != nil {
		m.record(ctx, orgID, audit.ActionRemoveLocation, audit.ResourceGeofenceLink, memberID, err, nil)
		return err
	}

	err = m.resources.RemoveGeofence(ctx, resource.GeofenceRemoval{UserID: memberID, GeofenceID: geofenceID})
	if remote.IsNotFound(err) {
		m.log.Debug("geofence link already absent", zap.String("member_id", memberID), zap.String("geofence_id", geofenceID))
		err = nil
	}
	m.settle(ctx, orgID, audit.ActionRemoveLocation, audit.ResourceGeofenceLink, memberID, err,
		map[string]any{"geofence_id": geofenceID})
	if err != nil {
		return fmt.Errorf("remove geofence: %w", err)
	}
	return nil
}

// Outcome maps the result of a mutator call to the per-call outcome shown to the console.
func Outcome(err error) domain.Outcome {
	return domain.OutcomeFromError(err)
}

func (m *Mutator) validate(orgID, memberID string) error {
	if strings.TrimSpace(orgID) == "" {
		return ErrOrgRequired
	}
	if memberID == "" {
		return ErrMemberRequired
	}
	return nil
}

// settle finishes a remote mutation: on success the member's cached entry is dropped and an
// assignment.changed event goes out. Both outcomes are audited.
func (m *Mutator) settle(ctx context.Context, orgID, action, res, memberID string, err error, meta map[string]any) {
	log := logger.WithTrace(ctx, logger.WithOrg(m.log, orgID)).With(zap.String("action", action), zap.String("member_id", memberID))
	if err != nil {
		log.Warn("assignment mutation failed", zap.Error(err))
		m.record(ctx, orgID, action, res, memberID, err, meta)
		return
	}
	if cerr := m.cache.Invalidate(ctx, orgID, memberID); cerr != nil {
		log.Warn("cache invalidation failed", zap.Error(cerr))
	}
	m.publish(ctx, log, orgID, action, memberID, meta)
	m.record(ctx, orgID, action, res, memberID, nil, meta)
}

func (m *Mutator) publish(ctx context.Context, log *zap.Logger, orgID, action, memberID string, meta map[string]any) {
	payload := map[string]any{"action": action}
	for k, v := range meta {
		payload[k] = v
	}
	var actor string
	if m.actor != nil {
		actor = m.actor(ctx)
	}
	ev, err := events.New(events.TypeAssignmentChanged, orgID, actor, memberID, payload, m.clock.Now())
	if err != nil {
		log.Warn("build assignment event failed", zap.Error(err))
		return
	}
	if err := m.events.Publish(ctx, ev); err != nil {
		log.Warn("publish assignment event failed", zap.Error(err))
	}
}

func (m *Mutator) record(ctx context.Context, orgID, action, res, memberID string, err error, meta map[string]any) {
	outcome := auditdomain.OutcomeSuccess
	switch {
	case err == nil:
	case isPrecondition(err):
		outcome = auditdomain.OutcomeRejected
	default:
		outcome = auditdomain.OutcomeFailure
	}
	if err != nil {
		if meta == nil {
			meta = map[string]any{}
		}
		meta["error"] = err.Error()
	}
	m.audit.Record(ctx, audit.Entry{
		OrgID:    orgID,
		Action:   action,
		Resource: res,
		Subject:  memberID,
		Outcome:  outcome,
		Metadata: meta,
	})
}

func isPrecondition(err error) bool {
	for _, target := range []error{ErrOrgRequired, ErrMemberRequired, ErrShiftRequired, ErrInvalidWindow, ErrNoGeofences} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
