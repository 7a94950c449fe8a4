package domain

import (
	"strings"
	"time"
)

// Shift is reference data describing a recurring working window.
type Shift struct {
	ID        string
	Name      string
	Color     string
	StartTime string // "15:04" wall clock
	EndTime   string
	Days      []time.Weekday
}

// Assignment binds a member to a shift for an effective window.
// Assignments are append-only; a new schedule is a new record, never an edit.
type Assignment struct {
	ID            string
	MemberID      string
	ShiftID       string
	EffectiveFrom time.Time
	// EffectiveUntil is inclusive; nil means open-ended.
	EffectiveUntil *time.Time
	CreatedAt      time.Time
}

// WindowValid reports whether EffectiveUntil, when present, is not before EffectiveFrom.
func (a *Assignment) WindowValid() bool {
	return a.EffectiveUntil == nil || !a.EffectiveUntil.Before(a.EffectiveFrom)
}

// Covers reports whether the window contains now (both bounds inclusive).
// Records with a zero start or an inverted window never match.
func (a *Assignment) Covers(now time.Time) bool {
	if a.EffectiveFrom.IsZero() || !a.WindowValid() {
		return false
	}
	if a.EffectiveFrom.After(now) {
		return false
	}
	return a.EffectiveUntil == nil || !a.EffectiveUntil.Before(now)
}

// ResolveActive returns the assignment active at now. When several windows overlap,
// the most recently created record wins; ties fall back to the later start, then the larger id.
func ResolveActive(now time.Time, assignments []Assignment) (Assignment, bool) {
	var (
		best  Assignment
		found bool
	)
	for i := range assignments {
		a := assignments[i]
		if !a.Covers(now) {
			continue
		}
		if !found || newer(a, best) {
			best = a
			found = true
		}
	}
	return best, found
}

func newer(a, b Assignment) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	if !a.EffectiveFrom.Equal(b.EffectiveFrom) {
		return a.EffectiveFrom.After(b.EffectiveFrom)
	}
	return strings.Compare(a.ID, b.ID) > 0
}

// ShiftByID indexes shifts by id.
func ShiftByID(shifts []Shift) map[string]Shift {
	out := make(map[string]Shift, len(shifts))
	for _, s := range shifts {
		out[s.ID] = s
	}
	return out
}
