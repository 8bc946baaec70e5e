package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/chative-customer-service/agent/contract"
	statex "github.com/tanpawarit/chative-customer-service/agent/state"
)

func ValidateAndSaveState(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.State.Touch(in.Now)
	if err := in.State.Validate(); err != nil {
		return nil, fmt.Errorf("state validation failed: %w", err)
	}
	if err := store.Save(ctx, in.State); err != nil {
		return nil, fmt.Errorf("save conversation state: %w", err)
	}

	return in, nil
}
