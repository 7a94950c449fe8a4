package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce-console/backend/internal/membership/domain"
	"workforce-console/backend/internal/platform/remote"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, "svc-token", time.Second)
}

func TestListMembers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/organizations/org-1/members", r.URL.Path)
		assert.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"id":"m1","email":"a@example.com","role":"admin"}]`))
	})

	members, err := c.ListMembers(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, domain.RoleAdmin, members[0].Role)
}

func TestRemoveMember_SendsIdentifier(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/organizations/org-1/members/remove", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@example.com", body["member_id_or_email"])
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.RemoveMember(context.Background(), "org-1", "a@example.com"))
}

func TestUpdateMemberRole(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/organizations/org-1/members/m-2", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "admin", body["role"])
		w.Write([]byte(`{}`))
	})

	require.NoError(t, c.UpdateMemberRole(context.Background(), "org-1", "m-2", domain.RoleAdmin))
}

func TestCancelInvitation_DomainError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/organizations/org-1/invitations/inv-1/cancel", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"invitation already accepted"}`))
	})

	err := c.CancelInvitation(context.Background(), "org-1", "inv-1")
	require.Error(t, err)
	var se *remote.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Status)
	assert.Equal(t, "invitation already accepted", se.Message)
	assert.Equal(t, "cancelInvitation", se.Op)
}

func TestListInvitations_Envelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"invitations":[{"id":"i1","email":"a@example.com","expiresAt":"2026-02-01T00:00:00Z"}]}`))
	})

	invs, err := c.ListInvitations(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, domain.InvitationStatusPending, invs[0].Status)
	require.NotNil(t, invs[0].ExpiresAt)
}

func TestInviteMember(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/organizations/org-1/invitations", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "new@example.com", body["email"])
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"invitation":{"id":"i9","email":"new@example.com","role":"admin","status":"pending"}}`))
	})

	inv, err := c.InviteMember(context.Background(), "org-1", " new@example.com ", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "i9", inv.ID)
	assert.Equal(t, domain.RoleAdmin, inv.Role)
}

func TestListMembers_TransportError(t *testing.T) {
	c := New("http://127.0.0.1:1", "", 200*time.Millisecond)
	_, err := c.ListMembers(context.Background(), "org-1")
	require.Error(t, err)
}
