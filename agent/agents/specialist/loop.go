package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/chative-customer-service/agent/contract"
	toolx "github.com/tanpawarit/chative-customer-service/agent/tool"
)

const (
	historyKey    = "history"
	nowKey        = "now"
	customerIDKey = "customer_id"

	DefaultMaxToolRounds = 5
)

// ToolLoop lets a model call its tools until it answers in plain text or runs
// out of rounds.
type ToolLoop struct {
	agentType contractx.AgentType
	runner    compose.Runnable[map[string]any, *schema.Message]
	execute   toolx.Executor
	maxRounds int
	log       zerolog.Logger
}

// NewToolLoop binds the agent's tools from the catalog to the model.
func NewToolLoop(
	ctx context.Context,
	agentType contractx.AgentType,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	deps toolx.Deps,
	maxRounds int,
) (*ToolLoop, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required for agent=%s", contractx.ErrValidation, agentType)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: agent=%s", contractx.ErrPromptMissing, agentType)
	}
	if maxRounds < 1 {
		maxRounds = DefaultMaxToolRounds
	}

	infos, executor := toolx.BuildForAgent(agentType, deps)
	var bound einomodel.BaseChatModel = chatModel
	if len(infos) > 0 {
		withTools, err := chatModel.WithTools(infos)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools for agent=%s: %v", contractx.ErrModelInvoke, agentType, err)
		}
		bound = withTools
	}

	runner, err := compileToolCallingGraph(ctx, bound, systemPrompt, string(agentType)+".tool_loop")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	return &ToolLoop{
		agentType: agentType,
		runner:    runner,
		execute:   executor,
		maxRounds: maxRounds,
		log:       log.With().Str("component", "tool_loop").Str("agent", string(agentType)).Logger(),
	}, nil
}

// Reason runs the loop. The transcript holds every message produced after
// history, ending with the reply. On ErrToolRoundsExceeded the partial
// transcript is still returned.
func (l *ToolLoop) Reason(ctx context.Context, vars map[string]any, history []*schema.Message) (contractx.ReasonResult, error) {
	msgs := append([]*schema.Message(nil), history...)
	var out contractx.ReasonResult

	for round := 0; ; round++ {
		input := make(map[string]any, len(vars)+1)
		for k, v := range vars {
			input[k] = v
		}
		input[historyKey] = msgs

		msg, err := l.runner.Invoke(ctx, input)
		if err != nil {
			return out, fmt.Errorf("%w: agent=%s: %v", contractx.ErrModelInvoke, l.agentType, err)
		}
		if msg == nil {
			return out, fmt.Errorf("%w: agent=%s returned no message", contractx.ErrSchemaViolation, l.agentType)
		}
		msgs = append(msgs, msg)
		out.Transcript = append(out.Transcript, msg)

		if len(msg.ToolCalls) == 0 {
			out.Reply = msg
			return out, nil
		}
		if round >= l.maxRounds {
			return out, fmt.Errorf("%w: agent=%s stopped after %d rounds", contractx.ErrToolRoundsExceeded, l.agentType, l.maxRounds)
		}

		for _, call := range msg.ToolCalls {
			toolMsg := l.call(ctx, call)
			out.ToolCalls++
			msgs = append(msgs, toolMsg)
			out.Transcript = append(out.Transcript, toolMsg)
		}
	}
}

func (l *ToolLoop) call(ctx context.Context, call schema.ToolCall) *schema.Message {
	name := strings.TrimSpace(call.Function.Name)
	started := time.Now()

	var res contractx.ToolResult
	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			res = contractx.ToolResult{Tool: name, Error: fmt.Sprintf("invalid tool arguments: %v", err)}
		}
	}
	if res.Error == "" {
		out, err := l.execute(ctx, name, args)
		if err != nil {
			l.log.Error().Err(err).Str("tool", name).Msg("tool execution failed")
			out = contractx.ToolResult{Tool: name, Error: "The tool failed to run."}
		}
		res = out
	}

	l.log.Debug().
		Str("tool", name).
		Bool("ok", res.Error == "").
		Dur("duration", time.Since(started)).
		Msg("tool call")

	content, err := json.Marshal(res)
	if err != nil {
		content = []byte(fmt.Sprintf(`{"tool":%q,"error":"result could not be encoded"}`, name))
	}
	msg := schema.ToolMessage(string(content), call.ID)
	msg.ToolName = name
	return msg
}

// PromptVars fills the prompt placeholders shared by every agent.
func PromptVars(ctx context.Context, now time.Time) map[string]any {
	customerID := ""
	if sess, ok := contractx.SessionFrom(ctx); ok {
		customerID = sess.CustomerID
	}
	return map[string]any{
		nowKey:        now.Format("Monday, 2006-01-02T15:04:05Z07:00"),
		customerIDKey: customerID,
	}
}
