package orchestratornode

import (
	"context"
	"errors"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/chative-customer-service/agent/contract"
	statex "github.com/tanpawarit/chative-customer-service/agent/state"
)

func LoadOrCreateState(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	st, err := loadOrCreateState(ctx, store, in.ThreadID, in.CustomerID, in.Now)
	if err != nil {
		return nil, err
	}
	if st.CustomerID != in.CustomerID {
		return nil, fmt.Errorf("%w: thread=%s", ErrCustomerChanged, in.ThreadID)
	}
	in.State = st
	return in, nil
}

func loadOrCreateState(
	ctx context.Context,
	store statex.Store,
	threadID string,
	customerID string,
	now time.Time,
) (*statex.ConversationState, error) {
	st, err := store.Load(ctx, threadID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, statex.ErrStateNotFound) {
		return nil, fmt.Errorf("load conversation state: %w", err)
	}

	return statex.NewConversationState(threadID, customerID, now), nil
}
