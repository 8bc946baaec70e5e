package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/chative-customer-service/agent/agents/specialist"
	contractx "github.com/tanpawarit/chative-customer-service/agent/contract"
	"github.com/tanpawarit/chative-customer-service/agent/conversation"
)

// Reason runs the router over the thread history. The router's tool calls,
// tool results and reply are appended to the thread.
func Reason(ctx context.Context, in *GraphState, router contractx.Reasoner) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	ctx = contractx.WithSession(ctx, contractx.Session{ThreadID: in.ThreadID, CustomerID: in.CustomerID})
	history := conversation.ToSchema(in.State.Messages)

	res, err := router.Reason(ctx, specialist.PromptVars(ctx, in.Now), history)
	if err != nil {
		return nil, fmt.Errorf("router reasoning: %w", err)
	}
	if res.Reply == nil || strings.TrimSpace(res.Reply.Content) == "" {
		return nil, fmt.Errorf("%w: router returned empty message", contractx.ErrSchemaViolation)
	}

	for _, m := range res.Transcript {
		in.State.Append(conversation.FromSchema(m))
	}
	in.Reply = strings.TrimSpace(res.Reply.Content)
	in.ToolCalls = res.ToolCalls

	log.Debug().
		Str("thread_id", in.ThreadID).
		Int("tool_calls", res.ToolCalls).
		Int("messages", len(in.State.Messages)).
		Msg("router replied")
	return in, nil
}
