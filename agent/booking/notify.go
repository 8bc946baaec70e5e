package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	qstashx "github.com/tanpawarit/chative-customer-service/pkg/qstash"
)

type EventType string

const (
	EventCreated   EventType = "appointment.created"
	EventModified  EventType = "appointment.modified"
	EventCancelled EventType = "appointment.cancelled"
)

// Event describes a committed change to a subscription's appointment.
type Event struct {
	ID              string    `json:"id"`
	Type            EventType `json:"type"`
	SubscriptionID  string    `json:"subscription_id"`
	ScheduledAt     time.Time `json:"appointment_date"`
	AppointmentType string    `json:"appointment_type,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func newEvent(typ EventType, subscriptionID string, scheduledAt time.Time, appointmentType string, now time.Time) Event {
	return Event{
		ID:              uuid.NewString(),
		Type:            typ,
		SubscriptionID:  subscriptionID,
		ScheduledAt:     scheduledAt.UTC(),
		AppointmentType: appointmentType,
		OccurredAt:      now.UTC(),
	}
}

type Notifier interface {
	Notify(ctx context.Context, evt Event) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Event) error { return nil }

// QStashNotifier publishes booking events to a QStash destination.
type QStashNotifier struct {
	client *qstashx.Client
}

func NewQStashNotifier(client *qstashx.Client) *QStashNotifier {
	return &QStashNotifier{client: client}
}

func (n *QStashNotifier) Notify(ctx context.Context, evt Event) error {
	_, err := n.client.PublishJSON(ctx, evt, evt.ID)
	return err
}
