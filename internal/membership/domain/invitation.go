package domain

import (
	"strings"
	"time"
)

// Invitation is an outstanding or settled invitation to join an organization.
type Invitation struct {
	ID        string
	Email     string
	Role      Role
	Status    InvitationStatus
	InviterID string
	CreatedAt time.Time
	ExpiresAt *time.Time
}

type InvitationStatus string

const (
	InvitationStatusPending   InvitationStatus = "pending"
	InvitationStatusAccepted  InvitationStatus = "accepted"
	InvitationStatusCancelled InvitationStatus = "cancelled"
	InvitationStatusExpired   InvitationStatus = "expired"
)

// ParseInvitationStatus normalizes s. Unknown values yield ("", false).
func ParseInvitationStatus(s string) (InvitationStatus, bool) {
	switch InvitationStatus(strings.ToLower(strings.TrimSpace(s))) {
	case InvitationStatusPending:
		return InvitationStatusPending, true
	case InvitationStatusAccepted:
		return InvitationStatusAccepted, true
	case InvitationStatusCancelled, "canceled":
		return InvitationStatusCancelled, true
	case InvitationStatusExpired:
		return InvitationStatusExpired, true
	default:
		return "", false
	}
}

// Terminal reports whether the status can no longer change.
func (s InvitationStatus) Terminal() bool {
	return s == InvitationStatusAccepted || s == InvitationStatusCancelled || s == InvitationStatusExpired
}

// Expired reports whether a pending invitation has passed its expiry at now.
func (i *Invitation) Expired(now time.Time) bool {
	if i.Status == InvitationStatusExpired {
		return true
	}
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}

// Cancellable reports whether the invitation can still be cancelled at now.
func (i *Invitation) Cancellable(now time.Time) bool {
	return i.Status == InvitationStatusPending && strings.TrimSpace(i.ID) != "" && !i.Expired(now)
}
