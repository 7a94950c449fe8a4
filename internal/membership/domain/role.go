package domain

import "strings"

// Role is an organization authorization level.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ParseRole normalizes s into a Role. Unrecognized values yield ("", false);
// callers treat that as "no opinion", not as an error.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleOwner:
		return RoleOwner, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleMember:
		return RoleMember, true
	default:
		return "", false
	}
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Invitable reports whether r may be granted through an invitation (admin or member).
func (r Role) Invitable() bool {
	return r == RoleAdmin || r == RoleMember
}

// ResolveRole returns the first candidate that parses as a role.
// Candidates are ordered most specific first.
func ResolveRole(candidates ...string) (Role, bool) {
	for _, c := range candidates {
		if r, ok := ParseRole(c); ok {
			return r, true
		}
	}
	return "", false
}

// OrgRole is one entry of the organization list carried in session data.
type OrgRole struct {
	OrgID string `json:"id"`
	Role  string `json:"role"`
}

// RoleHints gathers the role-bearing sources for one member of one organization.
type RoleHints struct {
	// MembershipRole is the role on the membership record itself.
	MembershipRole string
	// ActiveOrgRole is the role the session holds for its active organization.
	ActiveOrgRole string
	// CurrentMemberRole is the generic "current member" role hint.
	CurrentMemberRole string
	// Organizations is the session's organization list.
	Organizations []OrgRole
}

// Candidates returns the hints in priority order for orgID.
// Only the first Organizations entry matching orgID is considered.
func (h RoleHints) Candidates(orgID string) []string {
	out := []string{h.MembershipRole, h.ActiveOrgRole, h.CurrentMemberRole}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return out
	}
	for _, o := range h.Organizations {
		if strings.TrimSpace(o.OrgID) == orgID {
			out = append(out, o.Role)
			break
		}
	}
	return out
}

// Resolve resolves the hints for orgID. ok is false when no source had a decidable role.
func (h RoleHints) Resolve(orgID string) (Role, bool) {
	return ResolveRole(h.Candidates(orgID)...)
}

// Effective resolves the hints for orgID and falls back to RoleMember,
// so an undecidable role never grants more than member access.
func (h RoleHints) Effective(orgID string) Role {
	if r, ok := h.Resolve(orgID); ok {
		return r
	}
	return RoleMember
}
