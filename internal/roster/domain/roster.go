// Package domain holds the enriched roster view consumed by the console and the bulk orchestrator.
package domain

import (
	"errors"
	"time"

	geofence "workforce-console/backend/internal/geofence/domain"
	membership "workforce-console/backend/internal/membership/domain"
	schedule "workforce-console/backend/internal/schedule/domain"
)

// EnrichedMember is a member with its resolved role, active schedule and linked geofences.
// When Enriched is false only the base member fields and EffectiveRole are meaningful.
type EnrichedMember struct {
	membership.Member
	EffectiveRole    membership.Role
	ActiveAssignment *schedule.Assignment
	ActiveShift      *schedule.Shift
	Geofences        []geofence.Geofence
	Enriched         bool
	EnrichmentErr    string
}

// View is one organization's roster as of RefreshedAt. A View is never mutated once published.
type View struct {
	OrgID          string
	Members        []EnrichedMember
	Invitations    []membership.Invitation
	MembersErr     string
	InvitationsErr string
	RefreshedAt    time.Time
}

// Member returns the enriched member whose id or email equals idOrEmail.
func (v *View) Member(idOrEmail string) (EnrichedMember, bool) {
	if v == nil || idOrEmail == "" {
		return EnrichedMember{}, false
	}
	for _, m := range v.Members {
		if m.ID == idOrEmail || m.UserID == idOrEmail || m.Email == idOrEmail {
			return m, true
		}
	}
	return EnrichedMember{}, false
}

// Healthy reports whether both top-level lists loaded.
func (v *View) Healthy() bool {
	return v != nil && v.MembersErr == "" && v.InvitationsErr == ""
}

// Outcome is the result of one mutating call: success, or failure with a reason.
type Outcome struct {
	OK     bool
	Reason string
}

// Succeeded is the successful Outcome.
var Succeeded = Outcome{OK: true}

// Failed returns a failed Outcome with reason.
func Failed(reason string) Outcome {
	return Outcome{Reason: reason}
}

// ReasonedError lets an error supply a user-facing reason distinct from Error().
type ReasonedError interface {
	error
	Reason() string
}

// OutcomeFromError maps a call result to an Outcome. nil is success.
func OutcomeFromError(err error) Outcome {
	if err == nil {
		return Succeeded
	}
	var re ReasonedError
	if errors.As(err, &re) {
		return Failed(re.Reason())
	}
	return Failed(err.Error())
}
