package handler

import (
	"time"

	workforcev1 "workforce-console/backend/api/workforce/v1"
	bulk "workforce-console/backend/internal/bulk/service"
	geofence "workforce-console/backend/internal/geofence/domain"
	membership "workforce-console/backend/internal/membership/domain"
	"workforce-console/backend/internal/roster/domain"
	schedule "workforce-console/backend/internal/schedule/domain"
)

func viewToProto(v *domain.View, now time.Time) *workforcev1.RosterView {
	if v == nil {
		return nil
	}
	out := &workforcev1.RosterView{
		OrgID:            v.OrgID,
		Members:          make([]workforcev1.Member, 0, len(v.Members)),
		Invitations:      make([]workforcev1.Invitation, 0, len(v.Invitations)),
		MembersError:     v.MembersErr,
		InvitationsError: v.InvitationsErr,
		RefreshedAt:      v.RefreshedAt,
	}
	for _, m := range v.Members {
		out.Members = append(out.Members, memberToProto(m))
	}
	for i := range v.Invitations {
		out.Invitations = append(out.Invitations, *invitationToProto(&v.Invitations[i], now))
	}
	return out
}

func memberToProto(m domain.EnrichedMember) workforcev1.Member {
	pm := workforcev1.Member{
		ID:              m.ID,
		UserID:          m.UserID,
		Email:           m.Email,
		Name:            m.Name,
		Role:            string(m.Role),
		EffectiveRole:   string(m.EffectiveRole),
		Status:          string(m.Status),
		Enriched:        m.Enriched,
		EnrichmentError: m.EnrichmentErr,
		Geofences:       make([]workforcev1.Geofence, 0, len(m.Geofences)),
	}
	if a := m.ActiveAssignment; a != nil {
		pm.ActiveAssignment = assignmentToProto(a)
	}
	if s := m.ActiveShift; s != nil {
		pm.ActiveShift = shiftToProto(s)
	}
	for _, g := range m.Geofences {
		pm.Geofences = append(pm.Geofences, geofenceToProto(g))
	}
	return pm
}

func assignmentToProto(a *schedule.Assignment) *workforcev1.Assignment {
	return &workforcev1.Assignment{
		ID:             a.ID,
		ShiftID:        a.ShiftID,
		EffectiveFrom:  a.EffectiveFrom,
		EffectiveUntil: a.EffectiveUntil,
	}
}

func shiftToProto(s *schedule.Shift) *workforcev1.Shift {
	ps := &workforcev1.Shift{ID: s.ID, Name: s.Name, Color: s.Color, StartTime: s.StartTime, EndTime: s.EndTime}
	for _, d := range s.Days {
		ps.Days = append(ps.Days, d.String())
	}
	return ps
}

func geofenceToProto(g geofence.Geofence) workforcev1.Geofence {
	return workforcev1.Geofence{
		ID:           g.ID,
		Name:         g.Name,
		Type:         g.Type,
		Latitude:     g.Latitude,
		Longitude:    g.Longitude,
		RadiusMeters: g.RadiusMeters,
		Active:       g.Active,
	}
}

func invitationToProto(inv *membership.Invitation, now time.Time) *workforcev1.Invitation {
	if inv == nil {
		return nil
	}
	return &workforcev1.Invitation{
		ID:          inv.ID,
		Email:       inv.Email,
		Role:        string(inv.Role),
		Status:      string(inv.Status),
		InviterID:   inv.InviterID,
		ExpiresAt:   inv.ExpiresAt,
		Cancellable: inv.Cancellable(now),
	}
}

func bulkToProto(r bulk.Result, now time.Time) *workforcev1.BulkResponse {
	out := &workforcev1.BulkResponse{
		BatchID:   r.BatchID,
		State:     string(r.State),
		Attempted: r.Attempted,
		View:      viewToProto(r.View, now),
	}
	if r.Err != nil {
		out.Error = domain.OutcomeFromError(r.Err).Reason
	}
	for _, it := range r.NotApplicable {
		out.NotApplicable = append(out.NotApplicable, it.Label())
	}
	for _, it := range r.Unchanged {
		out.Unchanged = append(out.Unchanged, it.Label())
	}
	return out
}

func outcomeToProto(o domain.Outcome) *workforcev1.OutcomeResponse {
	return &workforcev1.OutcomeResponse{OK: o.OK, Reason: o.Reason}
}
