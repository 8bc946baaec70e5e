package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/chative-customer-service/agent/contract"
	"github.com/tanpawarit/chative-customer-service/agent/conversation"
)

func AppendUserMessage(in *GraphState) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	in.State.Append(conversation.UserMessage(in.Text))
	return in, nil
}
