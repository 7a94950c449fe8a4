package audit

import (
	"strings"
	"unicode"
)

// Actions and resources recorded by the roster services.
const (
	ActionAssignShift     = "assign_shift"
	ActionAssignLocations = "assign_locations"
	ActionRemoveLocation  = "remove_location"
	ActionBulkRemove      = "bulk_remove"
	ActionBulkChangeRole  = "bulk_change_role"
	ActionInviteMember    = "invite_member"
	ActionRefresh         = "refresh_roster"

	ResourceSchedule     = "schedule"
	ResourceGeofenceLink = "geofence_link"
	ResourceMember       = "member"
	ResourceInvitation   = "invitation"
	ResourceRoster       = "roster"
)

// ActionResource holds action and resource derived from a gRPC full method name.
type ActionResource struct {
	Action   string
	Resource string
}

var rosterMethods = map[string]ActionResource{
	"Refresh":         {ActionRefresh, ResourceRoster},
	"GetSnapshot":     {"get", ResourceRoster},
	"AssignShift":     {ActionAssignShift, ResourceSchedule},
	"AssignLocations": {ActionAssignLocations, ResourceGeofenceLink},
	"RemoveLocation":  {ActionRemoveLocation, ResourceGeofenceLink},
	"ApplyBulk":       {"apply_bulk", ResourceMember},
	"InviteMember":    {ActionInviteMember, ResourceInvitation},
}

// ParseFullMethod returns action and resource for a gRPC full method
// (e.g. /workforce.v1.RosterService/AssignShift). RosterService methods use the roster
// action names; other services fall back to snake_case(method) on the service name.
func ParseFullMethod(fullMethod string) ActionResource {
	slash := strings.LastIndex(fullMethod, "/")
	if slash < 0 {
		return ActionResource{Action: "unknown", Resource: "unknown"}
	}
	method := fullMethod[slash+1:]
	beforeSlash := fullMethod[:slash]
	dot := strings.LastIndex(beforeSlash, ".")
	if dot < 0 {
		return ActionResource{Action: snake(method), Resource: "unknown"}
	}
	serviceName := beforeSlash[dot+1:]
	if serviceName == "RosterService" {
		if ar, ok := rosterMethods[method]; ok {
			return ar
		}
	}
	return ActionResource{Action: snake(method), Resource: serviceToResource(serviceName)}
}

func serviceToResource(serviceName string) string {
	s := strings.TrimSuffix(serviceName, "Service")
	if s == "" {
		return "unknown"
	}
	return snake(s)
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
