package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/tanpawarit/chative-customer-service/agent/booking"
)

// AppointmentRepository is the bun backed booking.Store.
type AppointmentRepository struct {
	db bun.IDB
}

var _ booking.Store = (*AppointmentRepository)(nil)

func NewAppointmentRepository(db bun.IDB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]booking.Appointment, error) {
	var rows []appointmentRow
	err := r.db.NewSelect().
		Model(&rows).
		Where("subscription_id = ?", subscriptionID).
		OrderExpr("appointment_date ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select appointments: %w", err)
	}
	return toAppointments(rows)
}

func (r *AppointmentRepository) ListActive(ctx context.Context, subscriptionID string, now time.Time) ([]booking.Appointment, error) {
	var rows []appointmentRow
	err := r.db.NewSelect().
		Model(&rows).
		Where("subscription_id = ?", subscriptionID).
		Where("appointment_date >= ?", booking.FormatStore(now)).
		OrderExpr("appointment_date ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select active appointments: %w", err)
	}
	return toAppointments(rows)
}

const insertIfNoActive = `INSERT INTO customer_appointments
	(subscription_id, appointment_created_date, appointment_date, appointment_type)
SELECT ?, ?, ?, ?
WHERE NOT EXISTS (
	SELECT 1 FROM customer_appointments
	WHERE subscription_id = ? AND appointment_date >= ?
)
RETURNING id`

// advisoryLock serialises inserts for one subscription across processes. A NOT
// EXISTS guard alone does not: under READ COMMITTED two postgres transactions can
// both see no active row and both insert. SQLite takes a database write lock for
// the statement, so it needs none.
const advisoryLock = `SELECT pg_advisory_xact_lock(hashtext(?))`

func usesAdvisoryLock(name dialect.Name) bool {
	return name == dialect.PG
}

// CreateIfNoActive inserts appt only when the subscription has no active
// appointment. On postgres the insert runs after a transaction-scoped advisory
// lock keyed by subscription, so the NOT EXISTS check sees any row committed by a
// competing writer.
func (r *AppointmentRepository) CreateIfNoActive(ctx context.Context, appt booking.Appointment, now time.Time) (booking.Appointment, error) {
	var id int64
	insert := func(ctx context.Context, db bun.IDB) error {
		return db.NewRaw(insertIfNoActive,
			appt.SubscriptionID,
			booking.FormatStore(appt.CreatedAt),
			booking.FormatStore(appt.ScheduledAt),
			appt.AppointmentType,
			appt.SubscriptionID,
			booking.FormatStore(now),
		).Scan(ctx, &id)
	}

	var err error
	if usesAdvisoryLock(r.db.Dialect().Name()) {
		err = r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewRaw(advisoryLock, appt.SubscriptionID).Exec(ctx); err != nil {
				return fmt.Errorf("lock subscription: %w", err)
			}
			return insert(ctx, tx)
		})
	} else {
		err = insert(ctx, r.db)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Appointment{}, booking.ErrActiveExists
	}
	if err != nil {
		return booking.Appointment{}, fmt.Errorf("insert appointment: %w", err)
	}

	appt.ID = id
	appt.CreatedAt = appt.CreatedAt.UTC().Truncate(time.Second)
	appt.ScheduledAt = appt.ScheduledAt.UTC().Truncate(time.Second)
	return appt, nil
}

func (r *AppointmentRepository) UpdateActive(ctx context.Context, subscriptionID string, now, scheduledAt time.Time, appointmentType string) (int64, error) {
	res, err := r.db.NewUpdate().
		Model((*appointmentRow)(nil)).
		Set("appointment_date = ?", booking.FormatStore(scheduledAt)).
		Set("appointment_type = ?", appointmentType).
		Where("subscription_id = ?", subscriptionID).
		Where("appointment_date >= ?", booking.FormatStore(now)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("update appointment: %w", err)
	}
	return res.RowsAffected()
}

func (r *AppointmentRepository) DeleteActive(ctx context.Context, subscriptionID string, now time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*appointmentRow)(nil)).
		Where("subscription_id = ?", subscriptionID).
		Where("appointment_date >= ?", booking.FormatStore(now)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete appointment: %w", err)
	}
	return res.RowsAffected()
}

func toAppointments(rows []appointmentRow) ([]booking.Appointment, error) {
	out := make([]booking.Appointment, 0, len(rows))
	for _, row := range rows {
		created, err := booking.ParseStore(row.CreatedDate)
		if err != nil {
			return nil, fmt.Errorf("appointment %d: %w", row.ID, err)
		}
		scheduled, err := booking.ParseStore(row.AppointmentDate)
		if err != nil {
			return nil, fmt.Errorf("appointment %d: %w", row.ID, err)
		}
		out = append(out, booking.Appointment{
			ID:              row.ID,
			SubscriptionID:  row.SubscriptionID,
			CreatedAt:       created,
			ScheduledAt:     scheduled,
			AppointmentType: row.AppointmentType,
		})
	}
	return out, nil
}
