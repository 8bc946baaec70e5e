package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

var ErrCustomerNotFound = errors.New("customer not found")

type Subscription struct {
	SubscriptionID string `json:"subscription_id"`
	StartDate      string `json:"subscription_start_date"`
	EndDate        string `json:"subscription_end_date"`
	ProductName    string `json:"product_name"`
}

type Customer struct {
	CustomerID    string         `json:"customer_id"`
	FirstName     string         `json:"customer_name"`
	LastName      string         `json:"customer_last_name"`
	CreatedDate   string         `json:"customer_created_date"`
	Subscriptions []Subscription `json:"subscriptions"`
}

type CustomerRepository struct {
	db bun.IDB
}

func NewCustomerRepository(db bun.IDB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// GetCustomer returns the customer row with all of its subscriptions.
func (r *CustomerRepository) GetCustomer(ctx context.Context, customerID string) (Customer, error) {
	var row customerRow
	err := r.db.NewSelect().
		Model(&row).
		Where("customer_id = ?", customerID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, fmt.Errorf("%w: %s", ErrCustomerNotFound, customerID)
	}
	if err != nil {
		return Customer{}, fmt.Errorf("select customer: %w", err)
	}

	var subs []subscriptionRow
	err = r.db.NewSelect().
		Model(&subs).
		Where("customer_id = ?", customerID).
		OrderExpr("subscription_start_date ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return Customer{}, fmt.Errorf("select subscriptions: %w", err)
	}

	out := Customer{
		CustomerID:    row.CustomerID,
		FirstName:     row.CustomerName,
		LastName:      row.CustomerLastName,
		CreatedDate:   row.CustomerCreatedDate,
		Subscriptions: make([]Subscription, 0, len(subs)),
	}
	for _, s := range subs {
		out.Subscriptions = append(out.Subscriptions, Subscription{
			SubscriptionID: s.SubscriptionID,
			StartDate:      s.SubscriptionStartDate,
			EndDate:        s.SubscriptionEndDate,
			ProductName:    s.ProductName,
		})
	}
	return out, nil
}

// OwnsSubscription reports whether subscriptionID belongs to customerID.
func (r *CustomerRepository) OwnsSubscription(ctx context.Context, customerID, subscriptionID string) (bool, error) {
	ok, err := r.db.NewSelect().
		Model((*subscriptionRow)(nil)).
		Where("customer_id = ?", customerID).
		Where("subscription_id = ?", subscriptionID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check subscription owner: %w", err)
	}
	return ok, nil
}

// AddCustomer inserts a customer and its subscriptions in one transaction.
func (r *CustomerRepository) AddCustomer(ctx context.Context, c Customer) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := &customerRow{
			CustomerID:          c.CustomerID,
			CustomerName:        c.FirstName,
			CustomerLastName:    c.LastName,
			CustomerCreatedDate: c.CreatedDate,
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert customer: %w", err)
		}
		for _, s := range c.Subscriptions {
			sub := &subscriptionRow{
				CustomerID:            c.CustomerID,
				SubscriptionID:        s.SubscriptionID,
				SubscriptionStartDate: s.StartDate,
				SubscriptionEndDate:   s.EndDate,
				ProductName:           s.ProductName,
			}
			if _, err := tx.NewInsert().Model(sub).Exec(ctx); err != nil {
				return fmt.Errorf("insert subscription %s: %w", s.SubscriptionID, err)
			}
		}
		return nil
	})
}
