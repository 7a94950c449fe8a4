// Package service applies heterogeneous bulk mutations to an organization's roster.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"workforce-console/backend/internal/audit"
	auditdomain "workforce-console/backend/internal/audit/domain"
	"workforce-console/backend/internal/clock"
	"workforce-console/backend/internal/events"
	"workforce-console/backend/internal/logger"
	membership "workforce-console/backend/internal/membership/domain"
	"workforce-console/backend/internal/roster/domain"
)

const instrumentationName = "workforce-console/bulk"

// ErrBatchFailed is the single aggregate failure reported when any operation in a batch failed.
var ErrBatchFailed = errors.New("an error occurred")

// State is how a batch ended.
type State string

const (
	StateSettled  State = "settled"
	StateFailed   State = "failed"
	StateRejected State = "rejected"
)

// Identity is the subset of the identity service a batch mutates through.
type Identity interface {
	RemoveMember(ctx context.Context, orgID, idOrEmail string) error
	UpdateMemberRole(ctx context.Context, orgID, memberID string, role membership.Role) error
	CancelInvitation(ctx context.Context, orgID, invitationID string) error
}

// Refresher reloads the organization's roster from the source of truth.
type Refresher interface {
	Refresh(ctx context.Context, orgID string) (*domain.View, error)
}

// Authorizer decides whether the caller in ctx may run action on orgID.
// A non-nil error denies the batch.
type Authorizer interface {
	AuthorizeBulk(ctx context.Context, orgID string, action Action, targets int) error
}

// Prompt is what a Confirmer is asked to approve.
type Prompt struct {
	OrgID         string
	Action        Action
	Operations    int
	NotApplicable int
	Unchanged     int
}

// Confirmer approves a batch before it runs.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// Notifier is told how every batch ended.
type Notifier interface {
	Notify(ctx context.Context, r Result)
}

// AutoConfirm approves every batch.
type AutoConfirm struct{}

func (AutoConfirm) Confirm(context.Context, Prompt) (bool, error) { return true, nil }

// LogNotifier writes batch results to a zap logger.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, r Result) {
	log := logger.OrNop(n.Log)
	fields := []zap.Field{
		zap.String("batch_id", r.BatchID),
		zap.String("org_id", r.OrgID),
		zap.Stringer("action", r.Action),
		zap.String("state", string(r.State)),
		zap.Int("operations", r.Attempted),
		zap.Int("not_applicable", len(r.NotApplicable)),
	}
	if r.Err != nil {
		log.Warn("bulk action finished", append(fields, zap.Error(r.Err))...)
		return
	}
	log.Info("bulk action finished", fields...)
}

// Result is the outcome of Apply. Attempted counts issued operations. Per-item success is
// not reported; callers read the refreshed View.
type Result struct {
	BatchID       string
	OrgID         string
	Action        Action
	State         State
	Err           error
	Attempted     int
	NotApplicable []Item
	Unchanged     []Item
	View          *domain.View
}

// Config tunes the orchestrator.
type Config struct {
	// Concurrency bounds in-flight operations per batch. Values < 1 mean 8.
	Concurrency int
}

// Orchestrator partitions selections, runs the resulting operations concurrently and
// refreshes the roster once all of them settled.
type Orchestrator struct {
	identity   Identity
	refresher  Refresher
	authorizer Authorizer
	confirmer  Confirmer
	notifier   Notifier
	events     events.Publisher
	audit      audit.Recorder
	actor      audit.ContextExtractor
	clock      clock.Clock
	log        *zap.Logger
	limit      int
	tracer     trace.Tracer
	metrics    bulkMetrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithAuthorizer(a Authorizer) Option        { return func(o *Orchestrator) { o.authorizer = a } }
func WithConfirmer(c Confirmer) Option          { return func(o *Orchestrator) { o.confirmer = c } }
func WithNotifier(n Notifier) Option            { return func(o *Orchestrator) { o.notifier = n } }
func WithEvents(p events.Publisher) Option      { return func(o *Orchestrator) { o.events = p } }
func WithAudit(r audit.Recorder) Option         { return func(o *Orchestrator) { o.audit = r } }
func WithActor(f audit.ContextExtractor) Option { return func(o *Orchestrator) { o.actor = f } }
func WithClock(c clock.Clock) Option            { return func(o *Orchestrator) { o.clock = c } }

// NewOrchestrator returns an Orchestrator. refresher may be nil, then no refresh runs.
func NewOrchestrator(identity Identity, refresher Refresher, log *zap.Logger, cfg Config, opts ...Option) *Orchestrator {
	log = logger.OrNop(log).Named("bulk")
	o := &Orchestrator{
		identity:  identity,
		refresher: refresher,
		log:       log,
		limit:     cfg.Concurrency,
		tracer:    otel.Tracer(instrumentationName),
		metrics:   newBulkMetrics(otel.Meter(instrumentationName), log),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.limit < 1 {
		o.limit = 8
	}
	if o.confirmer == nil {
		o.confirmer = AutoConfirm{}
	}
	if o.notifier == nil {
		o.notifier = LogNotifier{Log: log}
	}
	if o.events == nil {
		o.events = events.Nop{}
	}
	if o.audit == nil {
		o.audit = audit.Nop{}
	}
	if o.clock == nil {
		o.clock = clock.System()
	}
	return o
}

// Apply runs action over selection for orgID. The returned error is nil when every
// operation succeeded, ErrBatchFailed when any failed, or a *PreconditionError when the
// batch was rejected before any remote call. Result is populated in every case.
func (o *Orchestrator) Apply(ctx context.Context, orgID string, action Action, selection []Item) (Result, error) {
	res := Result{BatchID: uuid.NewString(), OrgID: orgID, Action: action}
	ctx, span := o.tracer.Start(ctx, "bulk.Apply", trace.WithAttributes(
		attribute.String("org_id", orgID),
		attribute.String("bulk.action", action.String()),
		attribute.String("bulk.batch_id", res.BatchID),
		attribute.Int("bulk.selection", len(selection)),
	))
	defer span.End()
	start := time.Now()
	log := logger.WithTrace(ctx, logger.WithOrg(o.log, orgID)).With(
		zap.String("batch_id", res.BatchID),
		zap.Stringer("action", action),
	)

	plan, err := o.prepare(ctx, orgID, action, selection)
	res.NotApplicable = plan.NotApplicable
	res.Unchanged = plan.Unchanged
	if err != nil {
		res.State = StateRejected
		res.Err = err
		log.Info("bulk action rejected", zap.Error(err))
		span.SetAttributes(attribute.String("bulk.state", string(res.State)))
		o.finish(ctx, log, &res, 0, start)
		return res, err
	}

	res.Attempted = len(plan.Ops)
	failed := o.execute(ctx, log, orgID, plan.Ops)
	if failed > 0 {
		res.State = StateFailed
		res.Err = ErrBatchFailed
		span.SetStatus(codes.Error, ErrBatchFailed.Error())
	} else {
		res.State = StateSettled
	}
	span.SetAttributes(
		attribute.String("bulk.state", string(res.State)),
		attribute.Int("bulk.operations", res.Attempted),
		attribute.Int("bulk.failed", failed),
	)

	// Runs after every operation settled, whatever the outcome.
	if o.refresher != nil {
		view, rerr := o.refresher.Refresh(ctx, orgID)
		if rerr != nil {
			log.Warn("post-batch refresh failed", zap.Error(rerr))
		}
		res.View = view
	}

	o.finish(ctx, log, &res, failed, start)
	return res, res.Err
}

// prepare runs every check that must pass before the first remote call.
func (o *Orchestrator) prepare(ctx context.Context, orgID string, action Action, selection []Item) (Plan, error) {
	if orgID == "" {
		return Plan{}, reject(errors.New("organization id is required"))
	}
	plan, err := Partition(action, selection, o.clock.Now())
	if err != nil {
		return plan, err
	}
	if o.authorizer != nil {
		if err := o.authorizer.AuthorizeBulk(ctx, orgID, action, len(plan.Ops)); err != nil {
			return plan, reject(fmt.Errorf("%w: %v", ErrForbidden, err))
		}
	}
	ok, err := o.confirmer.Confirm(ctx, Prompt{
		OrgID:         orgID,
		Action:        action,
		Operations:    len(plan.Ops),
		NotApplicable: len(plan.NotApplicable),
		Unchanged:     len(plan.Unchanged),
	})
	if err != nil {
		return plan, reject(fmt.Errorf("%w: %v", ErrDeclined, err))
	}
	if !ok {
		return plan, reject(ErrDeclined)
	}
	return plan, nil
}

// execute issues every op concurrently and waits for all of them. Failures never cancel
// siblings. It returns how many operations failed.
func (o *Orchestrator) execute(ctx context.Context, log *zap.Logger, orgID string, ops []Op) int {
	errs := make([]error, len(ops))
	var g errgroup.Group
	g.SetLimit(o.limit)
	for i, op := range ops {
		g.Go(func() error {
			errs[i] = o.run(ctx, orgID, op)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, err := range errs {
		o.metrics.operation(ctx, ops[i].Kind, err)
		if err != nil {
			failed++
			log.Warn("bulk operation failed",
				zap.String("op", string(ops[i].Kind)),
				zap.String("target", ops[i].Target),
				zap.Error(err),
			)
		}
	}
	return failed
}

func (o *Orchestrator) run(ctx context.Context, orgID string, op Op) error {
	switch op.Kind {
	case OpCancelInvitation:
		return o.identity.CancelInvitation(ctx, orgID, op.Target)
	case OpRemoveMember:
		return o.identity.RemoveMember(ctx, orgID, op.Target)
	case OpUpdateRole:
		return o.identity.UpdateMemberRole(ctx, orgID, op.Target, op.Role)
	default:
		return fmt.Errorf("unknown operation %q", op.Kind)
	}
}

// finish records the batch: event, audit entry, metrics and notification.
func (o *Orchestrator) finish(ctx context.Context, log *zap.Logger, res *Result, failed int, start time.Time) {
	payload := map[string]any{
		"batch_id":       res.BatchID,
		"action":         string(res.Action.Kind),
		"state":          string(res.State),
		"operations":     res.Attempted,
		"not_applicable": len(res.NotApplicable),
		"unchanged":      len(res.Unchanged),
	}
	if res.Action.Kind == KindChangeRole {
		payload["target_role"] = string(res.Action.TargetRole)
	}
	var actor string
	if o.actor != nil {
		actor = o.actor(ctx)
	}

	if res.State != StateRejected {
		ev, err := events.New(events.TypeBatchSettled, res.OrgID, actor, res.BatchID, payload, o.clock.Now())
		if err != nil {
			log.Warn("build batch event failed", zap.Error(err))
		} else if err := o.events.Publish(ctx, ev); err != nil {
			log.Warn("publish batch event failed", zap.Error(err))
		}
	}

	outcome := auditdomain.OutcomeSuccess
	switch res.State {
	case StateFailed:
		outcome = auditdomain.OutcomeFailure
		payload["failed"] = failed
	case StateRejected:
		outcome = auditdomain.OutcomeRejected
		payload["reason"] = res.Err.Error()
	}
	o.audit.Record(ctx, audit.Entry{
		OrgID:    res.OrgID,
		Action:   res.Action.AuditAction(),
		Resource: audit.ResourceMember,
		Subject:  res.BatchID,
		Outcome:  outcome,
		Metadata: payload,
	})

	o.metrics.batch(ctx, res.Action.Kind, res.State, time.Since(start))
	o.notifier.Notify(ctx, *res)
}

// AuditAction is the audit and policy action name of a.
func (a Action) AuditAction() string {
	if a.Kind == KindChangeRole {
		return audit.ActionBulkChangeRole
	}
	return audit.ActionBulkRemove
}

type bulkMetrics struct {
	duration   metric.Float64Histogram
	batches    metric.Int64Counter
	operations metric.Int64Counter
}

func newBulkMetrics(meter metric.Meter, log *zap.Logger) bulkMetrics {
	var m bulkMetrics
	var err error
	if m.duration, err = meter.Float64Histogram("bulk.batch.duration",
		metric.WithDescription("Bulk batch latency including the post-batch refresh"), metric.WithUnit("s")); err != nil {
		log.Warn("bulk metric init failed", zap.Error(err))
	}
	if m.batches, err = meter.Int64Counter("bulk.batches",
		metric.WithDescription("Bulk batches by final state")); err != nil {
		log.Warn("bulk metric init failed", zap.Error(err))
	}
	if m.operations, err = meter.Int64Counter("bulk.operations",
		metric.WithDescription("Remote operations issued by bulk batches")); err != nil {
		log.Warn("bulk metric init failed", zap.Error(err))
	}
	return m
}

func (m bulkMetrics) batch(ctx context.Context, kind ActionKind, state State, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("action", string(kind)), attribute.String("state", string(state)))
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
	if m.batches != nil {
		m.batches.Add(ctx, 1, attrs)
	}
}

func (m bulkMetrics) operation(ctx context.Context, kind OpKind, err error) {
	if m.operations == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", string(kind)), attribute.String("result", result)))
}
