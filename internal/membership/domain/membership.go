package domain

import (
	"strings"
	"time"
)

// Member is an organization member as reported by the identity service.
type Member struct {
	ID        string
	UserID    string
	Email     string
	Name      string
	Role      Role
	Status    MemberStatus
	CreatedAt time.Time
}

type MemberStatus string

const (
	MemberStatusActive  MemberStatus = "active"
	MemberStatusPending MemberStatus = "pending"
)

// Identifier returns the id used to address the member in identity service calls:
// the member id when known, otherwise the email. Empty when neither is set.
func (m *Member) Identifier() string {
	if id := strings.TrimSpace(m.ID); id != "" {
		return id
	}
	return strings.TrimSpace(m.Email)
}

// IsOwner reports whether the member record carries the owner role.
func (m *Member) IsOwner() bool {
	return m.Role == RoleOwner
}

// ResourceID returns the id the resource service keys schedules and geofence links by:
// the user id, falling back to the member id.
func (m *Member) ResourceID() string {
	if id := strings.TrimSpace(m.UserID); id != "" {
		return id
	}
	return strings.TrimSpace(m.ID)
}
