package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

const summaryInstruction = "Create a summary of all the above messages:"

// ModelSummarizer asks a chat model to summarize the full history.
type ModelSummarizer struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

func NewModelSummarizer(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*ModelSummarizer, error) {
	if chatModel == nil {
		return nil, errors.New("summarizer chat model is required")
	}

	messages := []schema.MessagesTemplate{}
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, schema.SystemMessage(systemPrompt))
	}
	messages = append(messages,
		schema.MessagesPlaceholder("history", false),
		schema.SystemMessage(summaryInstruction),
	)
	template := einoprompt.FromMessages(schema.FString, messages...)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add summary prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add summary model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add summary edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add summary edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add summary edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("conversation.summary_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile summary graph: %w", err)
	}
	return &ModelSummarizer{runner: runner}, nil
}

func (s *ModelSummarizer) Summarize(ctx context.Context, history []Message) (string, error) {
	msg, err := s.runner.Invoke(ctx, map[string]any{
		"history": ToSchema(history),
	})
	if err != nil {
		return "", fmt.Errorf("summary invoke: %w", err)
	}
	if msg == nil {
		return "", nil
	}
	return strings.TrimSpace(msg.Content), nil
}
