package repository

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

type appointmentRow struct {
	bun.BaseModel `bun:"table:customer_appointments,alias:ca"`

	ID              int64  `bun:"id,pk,autoincrement"`
	SubscriptionID  string `bun:"subscription_id,notnull"`
	CreatedDate     string `bun:"appointment_created_date,notnull"`
	AppointmentDate string `bun:"appointment_date,notnull"`
	AppointmentType string `bun:"appointment_type"`
}

type customerRow struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID                  int64  `bun:"id,pk,autoincrement"`
	CustomerID          string `bun:"customer_id,notnull,unique"`
	CustomerName        string `bun:"customer_name"`
	CustomerLastName    string `bun:"customer_last_name"`
	CustomerCreatedDate string `bun:"customer_created_date"`
}

type subscriptionRow struct {
	bun.BaseModel `bun:"table:customer_subscriptions,alias:cs"`

	ID                    int64  `bun:"id,pk,autoincrement"`
	CustomerID            string `bun:"customer_id,notnull"`
	SubscriptionID        string `bun:"subscription_id,notnull"`
	SubscriptionStartDate string `bun:"subscription_start_date"`
	SubscriptionEndDate   string `bun:"subscription_end_date"`
	ProductName           string `bun:"product_name"`
}

// CreateSchema creates the tables and indexes if they do not exist yet.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	models := []any{
		(*appointmentRow)(nil),
		(*customerRow)(nil),
		(*subscriptionRow)(nil),
	}
	for _, m := range models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}

	indexes := []struct {
		model   any
		name    string
		columns []string
	}{
		{(*appointmentRow)(nil), "idx_customer_appointments_sub_date", []string{"subscription_id", "appointment_date"}},
		{(*subscriptionRow)(nil), "idx_customer_subscriptions_customer", []string{"customer_id"}},
	}
	for _, idx := range indexes {
		if _, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}
