// Package events publishes roster domain events (assignment changes, settled batches) to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeAssignmentChanged = "assignment.changed"
	TypeBatchSettled      = "roster.batch_settled"
	TypeMemberInvited     = "member.invited"
)

// Source is stamped on every event published by this service.
const Source = "workforce-console"

// Event is one roster domain event as written to the topic.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"eventType"`
	Source     string          `json:"source"`
	OrgID      string          `json:"orgId"`
	ActorID    string          `json:"actorId,omitempty"`
	Subject    string          `json:"subject,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"createdAt"`
}

// New builds an Event with a fresh id. payload is marshalled as JSON; nil leaves it empty.
func New(eventType, orgID, actorID, subject string, payload any, at time.Time) (Event, error) {
	ev := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Source:     Source,
		OrgID:      orgID,
		ActorID:    actorID,
		Subject:    subject,
		OccurredAt: at.UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		ev.Payload = raw
	}
	return ev, nil
}

// Decode parses an Event from a message value.
func Decode(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, err
	}
	if strings.TrimSpace(ev.Type) == "" {
		return Event{}, errors.New("events: missing event type")
	}
	return ev, nil
}

// Publisher emits events. Callers use it best-effort: log and ignore errors.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Fanout publishes every event to each non-nil publisher. Errors are joined; one failing
// sink never stops the others.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
