// Package audit records roster mutations and denied requests.
package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"workforce-console/backend/internal/audit/domain"
	auditrepo "workforce-console/backend/internal/audit/repository"
	"workforce-console/backend/internal/clock"
	"workforce-console/backend/internal/logger"
)

// SentinelOrgID is the org_id used for events that carry no organization (e.g. unauthenticated calls).
const SentinelOrgID = "_system"

// ContextExtractor returns a request attribute (caller id, client IP) from ctx.
type ContextExtractor func(context.Context) string

// Entry describes one auditable action.
type Entry struct {
	OrgID    string
	Action   string
	Resource string
	Subject  string
	Outcome  string
	// Metadata is marshalled to a JSON object. nil records no metadata.
	Metadata any
}

// Recorder writes audit entries. Record is best-effort: failures are logged, never returned.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// Logger implements Recorder on top of an audit repository.
type Logger struct {
	repo  auditrepo.Repository
	actor ContextExtractor
	ip    ContextExtractor
	clock clock.Clock
	log   *zap.Logger
}

// NewLogger returns a Logger persisting to repo. actor and ip may be nil; then the
// actor is left empty and the IP recorded as "unknown".
func NewLogger(repo auditrepo.Repository, actor, ip ContextExtractor, clk clock.Clock, log *zap.Logger) *Logger {
	if clk == nil {
		clk = clock.System()
	}
	return &Logger{repo: repo, actor: actor, ip: ip, clock: clk, log: logger.OrNop(log).Named("audit")}
}

// Record writes one audit entry.
func (l *Logger) Record(ctx context.Context, e Entry) {
	if l == nil || l.repo == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:        uuid.NewString(),
		OrgID:     e.OrgID,
		Action:    e.Action,
		Resource:  e.Resource,
		Subject:   e.Subject,
		Outcome:   e.Outcome,
		IP:        "unknown",
		CreatedAt: l.clock.Now(),
	}
	if entry.OrgID == "" {
		entry.OrgID = SentinelOrgID
	}
	if entry.Outcome == "" {
		entry.Outcome = domain.OutcomeSuccess
	}
	if l.actor != nil {
		entry.ActorID = l.actor(ctx)
	}
	if l.ip != nil {
		if ip := l.ip(ctx); ip != "" {
			entry.IP = ip
		}
	}
	if e.Metadata != nil {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			l.log.Warn("audit metadata not encodable", zap.String("action", e.Action), zap.Error(err))
		} else {
			entry.Metadata = string(raw)
		}
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.Error("audit write failed",
			zap.String("org_id", entry.OrgID),
			zap.String("action", entry.Action),
			zap.String("resource", entry.Resource),
			zap.Error(err),
		)
	}
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}
