package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	geofence "workforce-console/backend/internal/geofence/domain"
	"workforce-console/backend/internal/platform/remote"
	schedule "workforce-console/backend/internal/schedule/domain"
)

type rawShift struct {
	ID         remote.FlexString `json:"id"`
	Name       string            `json:"name"`
	Color      string            `json:"color"`
	StartSnake string            `json:"start_time"`
	StartCamel string            `json:"startTime"`
	EndSnake   string            `json:"end_time"`
	EndCamel   string            `json:"endTime"`
	Days       weekdays          `json:"days"`
	DaysOfWeek weekdays          `json:"days_of_week"`
}

// weekdays accepts day numbers (0 = Sunday) or day names, full or abbreviated.
type weekdays []time.Weekday

var dayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func (w *weekdays) UnmarshalJSON(b []byte) error {
	if remote.Classify(b) == remote.ShapeEmpty {
		*w = nil
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	out := make(weekdays, 0, len(items))
	for _, item := range items {
		var n int
		if err := json.Unmarshal(item, &n); err == nil {
			if n < 0 || n > 6 {
				return fmt.Errorf("weekday %d out of range", n)
			}
			out = append(out, time.Weekday(n))
			continue
		}
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return err
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if len(s) < 3 {
			return fmt.Errorf("unknown weekday %q", s)
		}
		d, ok := dayNames[s[:3]]
		if !ok {
			return fmt.Errorf("unknown weekday %q", s)
		}
		out = append(out, d)
	}
	*w = out
	return nil
}

// DecodeShifts normalizes a shift list payload (bare array or wrapped).
func DecodeShifts(raw []byte) ([]schedule.Shift, error) {
	var records []rawShift
	if err := remote.DecodeList(raw, &records, "shifts"); err != nil {
		return nil, err
	}
	out := make([]schedule.Shift, 0, len(records))
	for _, r := range records {
		days := r.Days
		if len(days) == 0 {
			days = r.DaysOfWeek
		}
		out = append(out, schedule.Shift{
			ID:        string(r.ID),
			Name:      strings.TrimSpace(r.Name),
			Color:     strings.TrimSpace(r.Color),
			StartTime: remote.First(r.StartSnake, r.StartCamel),
			EndTime:   remote.First(r.EndSnake, r.EndCamel),
			Days:      []time.Weekday(days),
		})
	}
	return out, nil
}

type rawSchedule struct {
	ID                 remote.FlexString `json:"id"`
	UserIDSnake        remote.FlexString `json:"user_id"`
	UserIDCamel        remote.FlexString `json:"userId"`
	ShiftIDSnake       remote.FlexString `json:"shift_id"`
	ShiftIDCamel       remote.FlexString `json:"shiftId"`
	EffectiveFromSnake remote.FlexTime   `json:"effective_from"`
	EffectiveFromCamel remote.FlexTime   `json:"effectiveFrom"`
	EffectiveToSnake   remote.FlexTime   `json:"effective_until"`
	EffectiveToCamel   remote.FlexTime   `json:"effectiveUntil"`
	CreatedSnake       remote.FlexTime   `json:"created_at"`
	CreatedCamel       remote.FlexTime   `json:"createdAt"`
	Shift              *struct {
		ID remote.FlexString `json:"id"`
	} `json:"shift"`
}

// DecodeSchedules normalizes a schedule list. Records without a user id are attributed to userID.
func DecodeSchedules(raw []byte, userID string) ([]schedule.Assignment, error) {
	var records []rawSchedule
	if err := remote.DecodeList(raw, &records, "schedules"); err != nil {
		return nil, err
	}
	out := make([]schedule.Assignment, 0, len(records))
	for _, r := range records {
		a := schedule.Assignment{
			ID:             string(r.ID),
			MemberID:       remote.First(string(r.UserIDSnake), string(r.UserIDCamel), userID),
			ShiftID:        remote.First(string(r.ShiftIDSnake), string(r.ShiftIDCamel)),
			EffectiveFrom:  remote.FirstTime(r.EffectiveFromSnake, r.EffectiveFromCamel).Time,
			EffectiveUntil: remote.FirstTime(r.EffectiveToSnake, r.EffectiveToCamel).Ptr(),
			CreatedAt:      remote.FirstTime(r.CreatedSnake, r.CreatedCamel).Time,
		}
		if a.ShiftID == "" && r.Shift != nil {
			a.ShiftID = string(r.Shift.ID)
		}
		out = append(out, a)
	}
	return out, nil
}

type rawGeofence struct {
	ID              remote.FlexString `json:"id"`
	GeofenceIDSnake remote.FlexString `json:"geofence_id"`
	GeofenceIDCamel remote.FlexString `json:"geofenceId"`
	Name            string            `json:"name"`
	Type            string            `json:"type"`
	Latitude        *float64          `json:"latitude"`
	Lat             *float64          `json:"lat"`
	Longitude       *float64          `json:"longitude"`
	Lng             *float64          `json:"lng"`
	Radius          *float64          `json:"radius"`
	RadiusMeters    *float64          `json:"radius_meters"`
	Active          *bool             `json:"active"`
	IsActive        *bool             `json:"is_active"`
	Geofence        *rawGeofence      `json:"geofence"`
}

// DecodeGeofences normalizes geofence catalogs and user link lists. A link record may carry
// the geofence inline ("geofence") or only its id ("geofence_id"). Missing active flags mean active.
func DecodeGeofences(raw []byte) ([]geofence.Geofence, error) {
	var records []rawGeofence
	if err := remote.DecodeList(raw, &records, "geofences"); err != nil {
		return nil, err
	}
	out := make([]geofence.Geofence, 0, len(records))
	for _, r := range records {
		if r.Geofence != nil {
			nested := *r.Geofence
			nested.GeofenceIDSnake = remote.FlexString(remote.First(string(nested.ID), string(r.GeofenceIDSnake), string(r.GeofenceIDCamel)))
			r = nested
		}
		out = append(out, r.normalize())
	}
	return out, nil
}

func (r rawGeofence) normalize() geofence.Geofence {
	g := geofence.Geofence{
		ID:           remote.First(string(r.GeofenceIDSnake), string(r.GeofenceIDCamel), string(r.ID)),
		Name:         strings.TrimSpace(r.Name),
		Type:         strings.TrimSpace(r.Type),
		Latitude:     firstFloat(r.Latitude, r.Lat),
		Longitude:    firstFloat(r.Longitude, r.Lng),
		RadiusMeters: firstFloat(r.RadiusMeters, r.Radius),
		Active:       true,
	}
	if r.Active != nil {
		g.Active = *r.Active
	} else if r.IsActive != nil {
		g.Active = *r.IsActive
	}
	return g
}

func firstFloat(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}
