package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"workforce-console/backend/internal/membership/domain"
	"workforce-console/backend/internal/platform/remote"
)

type rawInvitation struct {
	ID             remote.FlexString `json:"id"`
	Email          string            `json:"email"`
	Role           string            `json:"role"`
	Status         string            `json:"status"`
	InviterIDSnake remote.FlexString `json:"inviter_id"`
	InviterIDCamel remote.FlexString `json:"inviterId"`
	CreatedSnake   remote.FlexTime   `json:"created_at"`
	CreatedCamel   remote.FlexTime   `json:"createdAt"`
	ExpiresSnake   remote.FlexTime   `json:"expires_at"`
	ExpiresCamel   remote.FlexTime   `json:"expiresAt"`
}

func (r rawInvitation) normalize() domain.Invitation {
	inv := domain.Invitation{
		ID:        string(r.ID),
		Email:     strings.TrimSpace(r.Email),
		Role:      domain.RoleMember,
		Status:    domain.InvitationStatusPending,
		InviterID: remote.First(string(r.InviterIDSnake), string(r.InviterIDCamel)),
		CreatedAt: remote.FirstTime(r.CreatedSnake, r.CreatedCamel).Time,
		ExpiresAt: remote.FirstTime(r.ExpiresSnake, r.ExpiresCamel).Ptr(),
	}
	if role, ok := domain.ParseRole(r.Role); ok && role.Invitable() {
		inv.Role = role
	}
	if status, ok := domain.ParseInvitationStatus(r.Status); ok {
		inv.Status = status
	}
	return inv
}

// DecodeInvitations normalizes an invitation list payload. The payload may be a bare array or an
// envelope ("invitations", "data", "items", "results"), and records may use snake_case or
// camelCase keys. A missing or unknown role becomes member; a missing or unknown status pending.
func DecodeInvitations(raw []byte) ([]domain.Invitation, error) {
	var records []rawInvitation
	if err := remote.DecodeList(raw, &records, "invitations"); err != nil {
		return nil, err
	}
	out := make([]domain.Invitation, 0, len(records))
	for _, r := range records {
		out = append(out, r.normalize())
	}
	return out, nil
}

// DecodeInvitation normalizes a single invitation, bare or wrapped in "invitation" or "data".
func DecodeInvitation(raw []byte) (*domain.Invitation, error) {
	if remote.Classify(raw) != remote.ShapeObject {
		return nil, remote.ErrUnrecognizedPayload
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	for _, k := range []string{"invitation", "data"} {
		if v, ok := env[k]; ok && remote.Classify(v) == remote.ShapeObject {
			raw = v
			break
		}
	}
	var r rawInvitation
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode invitation: %w", err)
	}
	inv := r.normalize()
	return &inv, nil
}
