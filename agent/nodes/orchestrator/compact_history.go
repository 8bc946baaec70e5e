package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/chative-customer-service/agent/contract"
	"github.com/tanpawarit/chative-customer-service/agent/conversation"
)

// CompactHistory summarizes the thread when it has grown past the manager's
// threshold. A failed summary leaves the history untouched.
func CompactHistory(ctx context.Context, in *GraphState, manager *conversation.Manager) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	in.State.Messages = manager.Process(ctx, in.State.Messages)
	return in, nil
}
