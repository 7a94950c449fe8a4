// Package client calls the remote identity/session service: organization members and invitations.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"workforce-console/backend/internal/membership/domain"
	"workforce-console/backend/internal/platform/remote"
)

const serviceName = "identity"

// Client implements the identity service calls the roster core consumes.
type Client struct {
	remote *remote.Client
}

// New returns a Client rooted at baseURL.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{remote: remote.New(serviceName, baseURL, token, timeout)}
}

func orgPath(orgID string, parts ...string) string {
	p := "/v1/organizations/" + url.PathEscape(orgID)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// ListMembers returns all members of the organization.
func (c *Client) ListMembers(ctx context.Context, orgID string) ([]domain.Member, error) {
	raw, err := c.remote.Do(ctx, remote.Request{Op: "listMembers", Method: http.MethodGet, Path: orgPath(orgID, "members")})
	if err != nil {
		return nil, err
	}
	members, err := DecodeMembers(raw)
	if err != nil {
		return nil, fmt.Errorf("identity: listMembers: %w", err)
	}
	return members, nil
}

// RemoveMember removes a member addressed by member id or email.
func (c *Client) RemoveMember(ctx context.Context, orgID, idOrEmail string) error {
	_, err := c.remote.Do(ctx, remote.Request{
		Op:     "removeMember",
		Method: http.MethodPost,
		Path:   orgPath(orgID, "members", "remove"),
		Body:   map[string]string{"member_id_or_email": idOrEmail},
	})
	return err
}

// UpdateMemberRole sets the role of the member.
func (c *Client) UpdateMemberRole(ctx context.Context, orgID, memberID string, role domain.Role) error {
	_, err := c.remote.Do(ctx, remote.Request{
		Op:     "updateMemberRole",
		Method: http.MethodPatch,
		Path:   orgPath(orgID, "members", memberID),
		Body:   map[string]string{"role": string(role)},
	})
	return err
}

// InviteMember creates an invitation and returns it as normalized by DecodeInvitation.
func (c *Client) InviteMember(ctx context.Context, orgID, email string, role domain.Role) (*domain.Invitation, error) {
	raw, err := c.remote.Do(ctx, remote.Request{
		Op:     "inviteMember",
		Method: http.MethodPost,
		Path:   orgPath(orgID, "invitations"),
		Body:   map[string]string{"email": strings.TrimSpace(email), "role": string(role)},
	})
	if err != nil {
		return nil, err
	}
	inv, err := DecodeInvitation(raw)
	if err != nil {
		return nil, fmt.Errorf("identity: inviteMember: %w", err)
	}
	return inv, nil
}

// ListInvitations returns the organization's invitations in every status.
func (c *Client) ListInvitations(ctx context.Context, orgID string) ([]domain.Invitation, error) {
	raw, err := c.remote.Do(ctx, remote.Request{Op: "listInvitations", Method: http.MethodGet, Path: orgPath(orgID, "invitations")})
	if err != nil {
		return nil, err
	}
	invs, err := DecodeInvitations(raw)
	if err != nil {
		return nil, fmt.Errorf("identity: listInvitations: %w", err)
	}
	return invs, nil
}

// CancelInvitation cancels a pending invitation.
func (c *Client) CancelInvitation(ctx context.Context, orgID, invitationID string) error {
	_, err := c.remote.Do(ctx, remote.Request{
		Op:     "cancelInvitation",
		Method: http.MethodPost,
		Path:   orgPath(orgID, "invitations", invitationID, "cancel"),
	})
	return err
}

type rawMember struct {
	ID           remote.FlexString `json:"id"`
	UserIDSnake  remote.FlexString `json:"user_id"`
	UserIDCamel  remote.FlexString `json:"userId"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	Role         string            `json:"role"`
	Status       string            `json:"status"`
	CreatedSnake remote.FlexTime   `json:"created_at"`
	CreatedCamel remote.FlexTime   `json:"createdAt"`
	User         *struct {
		ID    remote.FlexString `json:"id"`
		Email string            `json:"email"`
		Name  string            `json:"name"`
	} `json:"user"`
}

// DecodeMembers accepts a bare array or an envelope with "members", "data" or "items".
// Unknown roles decode as member and a missing status as active.
func DecodeMembers(raw []byte) ([]domain.Member, error) {
	var records []rawMember
	if err := remote.DecodeList(raw, &records, "members"); err != nil {
		return nil, err
	}
	out := make([]domain.Member, 0, len(records))
	for _, r := range records {
		m := domain.Member{
			ID:        string(r.ID),
			UserID:    remote.First(string(r.UserIDSnake), string(r.UserIDCamel)),
			Email:     strings.TrimSpace(r.Email),
			Name:      strings.TrimSpace(r.Name),
			Role:      domain.RoleMember,
			Status:    domain.MemberStatusActive,
			CreatedAt: remote.FirstTime(r.CreatedSnake, r.CreatedCamel).Time,
		}
		if r.User != nil {
			m.UserID = remote.First(m.UserID, string(r.User.ID))
			m.Email = remote.First(m.Email, r.User.Email)
			m.Name = remote.First(m.Name, r.User.Name)
		}
		if role, ok := domain.ParseRole(r.Role); ok {
			m.Role = role
		}
		if strings.EqualFold(strings.TrimSpace(r.Status), string(domain.MemberStatusPending)) {
			m.Status = domain.MemberStatusPending
		}
		out = append(out, m)
	}
	return out, nil
}
