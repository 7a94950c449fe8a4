package engine

import (
	"context"

	membership "workforce-console/backend/internal/membership/domain"
)

// Request is one authorization question: may the actor run action in the organization.
type Request struct {
	OrgID     string
	ActorID   string
	ActorRole membership.Role
	// Action is an audit action name (assign_shift, bulk_remove, ...).
	Action string
	// Targets is the number of members or invitations the action touches.
	Targets    int
	TargetRole membership.Role
}

// Decision is the policy answer. Reason is set on denials.
type Decision struct {
	Allow  bool
	Reason string
}

// Evaluator evaluates console authorization policies.
type Evaluator interface {
	Evaluate(ctx context.Context, req Request) (Decision, error)
}
