package domain

// Geofence is reference data for a named area members can be linked to.
type Geofence struct {
	ID           string
	Name         string
	Type         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	Active       bool
}

// Link relates a member to a geofence. Links form a set; there is no time component.
type Link struct {
	MemberID   string
	GeofenceID string
}

// IDs returns the ids of geofences in order.
func IDs(geofences []Geofence) []string {
	out := make([]string, 0, len(geofences))
	for _, g := range geofences {
		out = append(out, g.ID)
	}
	return out
}

// Dedupe returns ids with blanks and duplicates removed, keeping first-seen order.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
