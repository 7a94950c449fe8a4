package workforcev1

import "time"

type RefreshRequest struct{}

type GetSnapshotRequest struct{}

type Shift struct {
	ID        string   `json:"id"`
	Name      string   `json:"name,omitempty"`
	Color     string   `json:"color,omitempty"`
	StartTime string   `json:"startTime,omitempty"`
	EndTime   string   `json:"endTime,omitempty"`
	Days      []string `json:"days,omitempty"`
}

type Assignment struct {
	ID             string     `json:"id,omitempty"`
	ShiftID        string     `json:"shiftId"`
	EffectiveFrom  time.Time  `json:"effectiveFrom"`
	EffectiveUntil *time.Time `json:"effectiveUntil,omitempty"`
}

type Geofence struct {
	ID           string  `json:"id"`
	Name         string  `json:"name,omitempty"`
	Type         string  `json:"type,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radiusMeters,omitempty"`
	Active       bool    `json:"active"`
}

type Member struct {
	ID               string      `json:"id"`
	UserID           string      `json:"userId,omitempty"`
	Email            string      `json:"email"`
	Name             string      `json:"name,omitempty"`
	Role             string      `json:"role,omitempty"`
	EffectiveRole    string      `json:"effectiveRole"`
	Status           string      `json:"status,omitempty"`
	Enriched         bool        `json:"enriched"`
	EnrichmentError  string      `json:"enrichmentError,omitempty"`
	ActiveAssignment *Assignment `json:"activeAssignment,omitempty"`
	ActiveShift      *Shift      `json:"activeShift,omitempty"`
	Geofences        []Geofence  `json:"geofences"`
}

type Invitation struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	InviterID   string     `json:"inviterId,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	Cancellable bool       `json:"cancellable"`
}

// RosterView is one organization's roster snapshot.
type RosterView struct {
	OrgID            string       `json:"orgId"`
	Members          []Member     `json:"members"`
	Invitations      []Invitation `json:"invitations"`
	MembersError     string       `json:"membersError,omitempty"`
	InvitationsError string       `json:"invitationsError,omitempty"`
	RefreshedAt      time.Time    `json:"refreshedAt"`
}

type AssignShiftRequest struct {
	MemberID       string     `json:"memberId"`
	ShiftID        string     `json:"shiftId"`
	EffectiveFrom  *time.Time `json:"effectiveFrom,omitempty"`
	EffectiveUntil *time.Time `json:"effectiveUntil,omitempty"`
}

type AssignLocationsRequest struct {
	MemberID    string   `json:"memberId"`
	GeofenceIDs []string `json:"geofenceIds,omitempty"`
	AssignAll   bool     `json:"assignAll,omitempty"`
}

type RemoveLocationRequest struct {
	MemberID   string `json:"memberId"`
	GeofenceID string `json:"geofenceId"`
}

// OutcomeResponse reports a single mutation. Reason is set when OK is false.
type OutcomeResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// ApplyBulkRequest selects members and invitations by id. Action is "remove" or "change_role".
type ApplyBulkRequest struct {
	Action        string   `json:"action"`
	TargetRole    string   `json:"targetRole,omitempty"`
	MemberIDs     []string `json:"memberIds,omitempty"`
	InvitationIDs []string `json:"invitationIds,omitempty"`
}

type BulkResponse struct {
	BatchID       string      `json:"batchId,omitempty"`
	State         string      `json:"state"`
	Error         string      `json:"error,omitempty"`
	Attempted     int         `json:"attempted"`
	NotApplicable []string    `json:"notApplicable,omitempty"`
	Unchanged     []string    `json:"unchanged,omitempty"`
	View          *RosterView `json:"view,omitempty"`
}

type InviteMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type InviteMemberResponse struct {
	Invitation *Invitation `json:"invitation"`
}
