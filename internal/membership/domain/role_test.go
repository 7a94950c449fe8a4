package domain

import (
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in     string
		want   Role
		wantOK bool
	}{
		{"owner", RoleOwner, true},
		{" Admin ", RoleAdmin, true},
		{"MEMBER", RoleMember, true},
		{"", "", false},
		{"superuser", "", false},
		{"viewer", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestResolveRole_FirstDecidableWins(t *testing.T) {
	got, ok := ResolveRole("", "admin", "owner")
	if !ok {
		t.Fatal("expected a decidable role")
	}
	if got != RoleAdmin {
		t.Errorf("ResolveRole = %q, want %q", got, RoleAdmin)
	}
}

func TestResolveRole_InvalidHintsHaveNoOpinion(t *testing.T) {
	got, ok := ResolveRole("root", "  ", "member", "owner")
	if !ok || got != RoleMember {
		t.Errorf("ResolveRole = (%q, %v), want (%q, true)", got, ok, RoleMember)
	}
}

func TestResolveRole_AllNone(t *testing.T) {
	got, ok := ResolveRole("", "unknown")
	if ok {
		t.Errorf("ResolveRole = %q, want no role", got)
	}
	if _, ok := ResolveRole(); ok {
		t.Error("ResolveRole() with no candidates should be undecidable")
	}
}

func TestRoleHints_Candidates_Order(t *testing.T) {
	h := RoleHints{
		MembershipRole:    "member",
		ActiveOrgRole:     "admin",
		CurrentMemberRole: "owner",
		Organizations: []OrgRole{
			{OrgID: "org-2", Role: "admin"},
			{OrgID: "org-1", Role: "owner"},
			{OrgID: "org-1", Role: "member"},
		},
	}
	got := h.Candidates("org-1")
	want := []string{"member", "admin", "owner", "owner"}
	if len(got) != len(want) {
		t.Fatalf("Candidates len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Candidates[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRoleHints_MembershipRecordBeatsSession(t *testing.T) {
	h := RoleHints{MembershipRole: "member", ActiveOrgRole: "owner"}
	if got := h.Effective("org-1"); got != RoleMember {
		t.Errorf("Effective = %q, want %q", got, RoleMember)
	}
}

func TestRoleHints_FallsBackToOrgList(t *testing.T) {
	h := RoleHints{
		MembershipRole: "bogus",
		Organizations:  []OrgRole{{OrgID: "org-9", Role: "owner"}, {OrgID: "org-1", Role: "admin"}},
	}
	got, ok := h.Resolve("org-1")
	if !ok || got != RoleAdmin {
		t.Errorf("Resolve = (%q, %v), want (%q, true)", got, ok, RoleAdmin)
	}
}

func TestRoleHints_EffectiveNeverEscalates(t *testing.T) {
	h := RoleHints{Organizations: []OrgRole{{OrgID: "org-2", Role: "owner"}}}
	if got := h.Effective("org-1"); got != RoleMember {
		t.Errorf("Effective = %q, want %q", got, RoleMember)
	}
	if got := (RoleHints{}).Effective(""); got != RoleMember {
		t.Errorf("Effective(empty) = %q, want %q", got, RoleMember)
	}
}

func TestMember_Identifier(t *testing.T) {
	m := Member{ID: "m-1", Email: "a@example.com"}
	if got := m.Identifier(); got != "m-1" {
		t.Errorf("Identifier = %q, want m-1", got)
	}
	m.ID = ""
	if got := m.Identifier(); got != "a@example.com" {
		t.Errorf("Identifier = %q, want email", got)
	}
	m.Email = " "
	if got := m.Identifier(); got != "" {
		t.Errorf("Identifier = %q, want empty", got)
	}
}

func TestMember_ResourceID(t *testing.T) {
	m := Member{ID: "m-1", UserID: "u-1"}
	if got := m.ResourceID(); got != "u-1" {
		t.Errorf("ResourceID = %q, want u-1", got)
	}
	m.UserID = ""
	if got := m.ResourceID(); got != "m-1" {
		t.Errorf("ResourceID = %q, want m-1", got)
	}
}

func TestInvitation_Cancellable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		inv  Invitation
		want bool
	}{
		{"pending", Invitation{ID: "i-1", Status: InvitationStatusPending, ExpiresAt: &future}, true},
		{"pending no expiry", Invitation{ID: "i-1", Status: InvitationStatusPending}, true},
		{"pending expired", Invitation{ID: "i-1", Status: InvitationStatusPending, ExpiresAt: &past}, false},
		{"missing id", Invitation{Status: InvitationStatusPending}, false},
		{"accepted", Invitation{ID: "i-1", Status: InvitationStatusAccepted}, false},
		{"cancelled", Invitation{ID: "i-1", Status: InvitationStatusCancelled}, false},
	}
	for _, tt := range tests {
		if got := tt.inv.Cancellable(now); got != tt.want {
			t.Errorf("%s: Cancellable = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestInvitationStatus_Terminal(t *testing.T) {
	if InvitationStatusPending.Terminal() {
		t.Error("pending should not be terminal")
	}
	for _, s := range []InvitationStatus{InvitationStatusAccepted, InvitationStatusCancelled, InvitationStatusExpired} {
		if !s.Terminal() {
			t.Errorf("%q should be terminal", s)
		}
	}
	if s, ok := ParseInvitationStatus("Canceled"); !ok || s != InvitationStatusCancelled {
		t.Errorf("ParseInvitationStatus(Canceled) = (%q, %v)", s, ok)
	}
}
