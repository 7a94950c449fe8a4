// Package client calls the remote resource service: shifts, schedules and geofences.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	geofence "workforce-console/backend/internal/geofence/domain"
	"workforce-console/backend/internal/platform/remote"
	schedule "workforce-console/backend/internal/schedule/domain"
)

const serviceName = "resource"

// Client implements the resource service calls the roster core consumes.
type Client struct {
	remote *remote.Client
}

// New returns a Client rooted at baseURL.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{remote: remote.New(serviceName, baseURL, token, timeout)}
}

// ShiftAssignment is the payload for a new schedule record.
type ShiftAssignment struct {
	UserID         string     `json:"user_id"`
	ShiftID        string     `json:"shift_id"`
	EffectiveFrom  time.Time  `json:"effective_from"`
	EffectiveUntil *time.Time `json:"effective_until,omitempty"`
}

// GeofenceAssignment links a user to every listed geofence.
type GeofenceAssignment struct {
	UserID      string   `json:"-"`
	GeofenceIDs []string `json:"geofence_ids"`
}

// GeofenceRemoval unlinks one geofence from a user.
type GeofenceRemoval struct {
	UserID     string
	GeofenceID string
}

type envelope struct {
	Success *bool             `json:"success"`
	Status  remote.FlexString `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
}

// call performs req and unwraps the {success, status, message, data} envelope.
// success=false is a *remote.StatusError even on a 2xx answer.
func (c *Client) call(ctx context.Context, req remote.Request) ([]byte, error) {
	raw, err := c.remote.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if remote.Classify(raw) != remote.ShapeObject {
		return raw, nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("resource: %s: decode envelope: %w", req.Op, err)
	}
	if env.Success != nil && !*env.Success {
		status, err := strconv.Atoi(string(env.Status))
		if err != nil || status == 0 {
			status = http.StatusUnprocessableEntity
		}
		return nil, &remote.StatusError{Service: serviceName, Op: req.Op, Status: status, Message: env.Message}
	}
	if env.Data != nil {
		return env.Data, nil
	}
	return raw, nil
}

func userPath(userID string, parts ...string) string {
	p := "/v1/users/" + url.PathEscape(userID)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// FetchShifts returns the shift catalog.
func (c *Client) FetchShifts(ctx context.Context) ([]schedule.Shift, error) {
	data, err := c.call(ctx, remote.Request{Op: "fetchShifts", Method: http.MethodGet, Path: "/v1/shifts"})
	if err != nil {
		return nil, err
	}
	shifts, err := DecodeShifts(data)
	if err != nil {
		return nil, fmt.Errorf("resource: fetchShifts: %w", err)
	}
	return shifts, nil
}

// FetchGeofences returns the organization's geofence catalog.
func (c *Client) FetchGeofences(ctx context.Context, orgID string) ([]geofence.Geofence, error) {
	data, err := c.call(ctx, remote.Request{
		Op:     "fetchGeofences",
		Method: http.MethodGet,
		Path:   "/v1/organizations/" + url.PathEscape(orgID) + "/geofences",
	})
	if err != nil {
		return nil, err
	}
	out, err := DecodeGeofences(data)
	if err != nil {
		return nil, fmt.Errorf("resource: fetchGeofences: %w", err)
	}
	return out, nil
}

// FetchUserSchedules returns every schedule record of the user, active or not.
func (c *Client) FetchUserSchedules(ctx context.Context, userID string) ([]schedule.Assignment, error) {
	data, err := c.call(ctx, remote.Request{Op: "fetchUserSchedules", Method: http.MethodGet, Path: userPath(userID, "schedules")})
	if err != nil {
		return nil, err
	}
	out, err := DecodeSchedules(data, userID)
	if err != nil {
		return nil, fmt.Errorf("resource: fetchUserSchedules: %w", err)
	}
	return out, nil
}

// FetchUserGeofences returns the geofences linked to the user.
func (c *Client) FetchUserGeofences(ctx context.Context, userID string) ([]geofence.Geofence, error) {
	data, err := c.call(ctx, remote.Request{Op: "fetchUserGeofences", Method: http.MethodGet, Path: userPath(userID, "geofences")})
	if err != nil {
		return nil, err
	}
	out, err := DecodeGeofences(data)
	if err != nil {
		return nil, fmt.Errorf("resource: fetchUserGeofences: %w", err)
	}
	return out, nil
}

// AssignShift creates a schedule record. Each call carries a fresh Idempotency-Key.
func (c *Client) AssignShift(ctx context.Context, p ShiftAssignment) error {
	_, err := c.call(ctx, remote.Request{
		Op:     "assignShift",
		Method: http.MethodPost,
		Path:   "/v1/schedules",
		Body:   p,
		Header: http.Header{"Idempotency-Key": []string{uuid.NewString()}},
	})
	return err
}

// AssignGeofences links the listed geofences to the user. Existing links are kept.
func (c *Client) AssignGeofences(ctx context.Context, p GeofenceAssignment) error {
	_, err := c.call(ctx, remote.Request{
		Op:     "assignGeofences",
		Method: http.MethodPost,
		Path:   userPath(p.UserID, "geofences"),
		Body:   p,
	})
	return err
}

// RemoveGeofence unlinks a geofence from the user.
func (c *Client) RemoveGeofence(ctx context.Context, p GeofenceRemoval) error {
	_, err := c.call(ctx, remote.Request{
		Op:     "removeGeofence",
		Method: http.MethodDelete,
		Path:   userPath(p.UserID, "geofences", p.GeofenceID),
	})
	return err
}
