package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/router.txt
	routerRaw string

	//go:embed template/customer.txt
	customerRaw string

	//go:embed template/retrieval.txt
	retrievalRaw string

	//go:embed template/booking.txt
	bookingRaw string

	//go:embed template/summary.txt
	summaryRaw string
)

// PromptSet holds loaded prompt content. Router, Customer and Booking are
// FString templates over {customer_id} and {now}.
type PromptSet struct {
	Router    string
	Customer  string
	Retrieval string
	Booking   string
	Summary   string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Router:    strings.TrimSpace(routerRaw),
		Customer:  strings.TrimSpace(customerRaw),
		Retrieval: strings.TrimSpace(retrievalRaw),
		Booking:   strings.TrimSpace(bookingRaw),
		Summary:   strings.TrimSpace(summaryRaw),
	}
}
