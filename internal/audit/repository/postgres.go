package repository

import (
	"context"
	"database/sql"

	"workforce-console/backend/internal/audit/domain"
)

const (
	insertAuditLog = `INSERT INTO roster_audit_logs
    (id, org_id, actor_id, action, resource, subject, outcome, ip, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10)`

	listAuditLogsByOrg = `SELECT id, org_id, actor_id, action, resource, subject, outcome, ip, metadata::text, created_at
FROM roster_audit_logs
WHERE org_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`
)

// PostgresRepository stores audit logs in roster_audit_logs.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists a. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx, insertAuditLog,
		a.ID, a.OrgID, nullable(a.ActorID), a.Action, a.Resource, nullable(a.Subject),
		a.Outcome, a.IP, nullable(a.Metadata), a.CreatedAt,
	)
	return err
}

// ListByOrg returns audit logs for orgID, newest first.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, listAuditLogsByOrg, orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var (
			a                        domain.AuditLog
			actor, subject, metadata sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.OrgID, &actor, &a.Action, &a.Resource, &subject, &a.Outcome, &a.IP, &metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.ActorID, a.Subject, a.Metadata = actor.String, subject.String, metadata.String
		out = append(out, &a)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
