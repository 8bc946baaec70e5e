package specialist

import (
	"context"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/chative-customer-service/agent/contract"
	toolx "github.com/tanpawarit/chative-customer-service/agent/tool"
)

// Agent answers one delegated query with its own tool loop. It keeps no
// history between calls.
type Agent struct {
	agentType contractx.AgentType
	loop      *ToolLoop
}

func NewAgent(
	ctx context.Context,
	agentType contractx.AgentType,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	deps toolx.Deps,
	maxRounds int,
) (*Agent, error) {
	loop, err := NewToolLoop(ctx, agentType, chatModel, systemPrompt, deps, maxRounds)
	if err != nil {
		return nil, err
	}
	return &Agent{agentType: agentType, loop: loop}, nil
}

func (a *Agent) Run(ctx context.Context, req contractx.AgentRequest) (contractx.AgentResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return contractx.AgentResponse{}, fmt.Errorf("%w: query is required", contractx.ErrValidation)
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	res, err := a.loop.Reason(ctx, PromptVars(ctx, now), []*schema.Message{schema.UserMessage(query)})
	if err != nil {
		return contractx.AgentResponse{}, err
	}
	message := strings.TrimSpace(res.Reply.Content)
	if message == "" {
		return contractx.AgentResponse{}, fmt.Errorf("%w: agent=%s returned an empty message", contractx.ErrSchemaViolation, a.agentType)
	}
	return contractx.AgentResponse{Message: message, ToolCalls: res.ToolCalls}, nil
}
