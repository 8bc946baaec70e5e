package orchestratornode

import (
	"errors"
	"strings"
	"time"

	statex "github.com/tanpawarit/chative-customer-service/agent/state"
)

var (
	ErrInvalidMessage  = errors.New("message is empty")
	ErrInvalidThread   = errors.New("thread id is empty")
	ErrInvalidCustomer = errors.New("customer id is empty")
	ErrCustomerChanged = errors.New("thread belongs to another customer")
)

type GraphInput struct {
	ThreadID   string
	CustomerID string
	Text       string
}

type GraphOutput struct {
	Reply     string
	ToolCalls int
}

type GraphState struct {
	ThreadID   string
	CustomerID string
	Text       string
	Now        time.Time

	State *statex.ConversationState

	Reply     string
	ToolCalls int
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	threadID := strings.TrimSpace(in.ThreadID)
	if threadID == "" {
		return nil, ErrInvalidThread
	}

	customerID := strings.TrimSpace(in.CustomerID)
	if customerID == "" {
		return nil, ErrInvalidCustomer
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		ThreadID:   threadID,
		CustomerID: customerID,
		Text:       text,
		Now:        nowFn(),
	}, nil
}
