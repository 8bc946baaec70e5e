package repository

import (
	"context"
	"errors"
)

// DemoCustomers is the fixture loaded by the -seed flag.
var DemoCustomers = []Customer{
	{
		CustomerID:  "CUST001",
		FirstName:   "Alice",
		LastName:    "Walker",
		CreatedDate: "2023-01-15",
		Subscriptions: []Subscription{
			{SubscriptionID: "SUB100", StartDate: "2023-01-15", EndDate: "2025-01-15", ProductName: "Fiber Internet 1Gbps"},
			{SubscriptionID: "SUB101", StartDate: "2023-06-01", EndDate: "2025-06-01", ProductName: "IPTV Premium"},
		},
	},
	{
		CustomerID:  "CUST002",
		FirstName:   "Bob",
		LastName:    "Chen",
		CreatedDate: "2023-03-20",
		Subscriptions: []Subscription{
			{SubscriptionID: "SUB200", StartDate: "2023-03-20", EndDate: "2024-09-20", ProductName: "Mobile Unlimited"},
		},
	},
}

// Seed inserts customers that are not present yet.
func Seed(ctx context.Context, repo *CustomerRepository, customers []Customer) (int, error) {
	added := 0
	for _, c := range customers {
		_, err := repo.GetCustomer(ctx, c.CustomerID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrCustomerNotFound) {
			return added, err
		}
		if err := repo.AddCustomer(ctx, c); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
