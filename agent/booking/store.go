package booking

import (
	"context"
	"errors"
	"time"
)

// ErrActiveExists is returned by Store.CreateIfNoActive when the conditional write
// finds an active appointment for the subscription.
var ErrActiveExists = errors.New("subscription already has an active appointment")

type Appointment struct {
	ID              int64     `json:"-"`
	SubscriptionID  string    `json:"subscription_id"`
	CreatedAt       time.Time `json:"appointment_created_date"`
	ScheduledAt     time.Time `json:"appointment_date"`
	AppointmentType string    `json:"appointment_type"`
}

// Active reports whether the appointment is scheduled at or after now.
func (a Appointment) Active(now time.Time) bool {
	return !a.ScheduledAt.Before(now)
}

// Store is the persistence contract for appointment records. "Active" always
// means scheduled_at >= now.
type Store interface {
	ListBySubscription(ctx context.Context, subscriptionID string) ([]Appointment, error)
	ListActive(ctx context.Context, subscriptionID string, now time.Time) ([]Appointment, error)
	// CreateIfNoActive inserts appt only when no active row exists for its subscription.
	CreateIfNoActive(ctx context.Context, appt Appointment, now time.Time) (Appointment, error)
	UpdateActive(ctx context.Context, subscriptionID string, now, scheduledAt time.Time, appointmentType string) (int64, error)
	DeleteActive(ctx context.Context, subscriptionID string, now time.Time) (int64, error)
}
