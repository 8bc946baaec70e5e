package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Agent answers a single delegated query.
type Agent interface {
	Run(ctx context.Context, req AgentRequest) (AgentResponse, error)
}

type Registry interface {
	Customer() Agent
	Retrieval() Agent
	Booking() Agent
}

// Reasoner runs a chat model over history until it stops calling tools. Vars fill
// the system prompt template.
type Reasoner interface {
	Reason(ctx context.Context, vars map[string]any, history []*schema.Message) (ReasonResult, error)
}
