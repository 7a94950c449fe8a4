package domain

import "time"

// Outcome values recorded on audit entries.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// AuditLog is one audited roster mutation or denied request.
type AuditLog struct {
	ID       string
	OrgID    string
	ActorID  string
	Action   string
	Resource string
	// Subject is the member, invitation or batch the action targeted.
	Subject   string
	Outcome   string
	IP        string
	Metadata  string // JSON object, may be empty
	CreatedAt time.Time
}
