package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type fakeChatModel struct {
	reply *schema.Message
	err   error
	input []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func TestToSchemaHoistsSummary(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		CustomerMarker("C-9"),
		{ID: "u1", Role: RoleUser, Content: "hello"},
		{ID: SummaryID, Role: RoleAssistant, Content: "earlier talk"},
	}
	out := ToSchema(msgs)
	if len(out) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(out))
	}
	if out[0].Role != schema.System || out[0].Content != "customer_id: C-9" {
		t.Fatalf("unexpected first message: %+v", out[0])
	}
	if out[1].Role != schema.System || !strings.Contains(out[1].Content, "earlier talk") {
		t.Fatalf("summary not hoisted: %+v", out[1])
	}
	if out[2].Role != schema.User {
		t.Fatalf("unexpected last message: %+v", out[2])
	}
}

func TestSchemaRoundTripKeepsToolCalls(t *testing.T) {
	t.Parallel()

	in := &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			ID:       "call-1",
			Function: schema.FunctionCall{Name: "BookingAgentTool", Arguments: `{"query":"x"}`},
		}},
	}
	msg := FromSchema(in)
	if msg.ID == "" || msg.Role != RoleAssistant {
		t.Fatalf("unexpected message: %+v", msg)
	}
	back := msg.ToSchema()
	if len(back.ToolCalls) != 1 || back.ToolCalls[0].Function.Name != "BookingAgentTool" {
		t.Fatalf("tool calls lost: %+v", back.ToolCalls)
	}
}

func TestModelSummarizerAppendsInstruction(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{reply: schema.AssistantMessage(" short summary ", nil)}
	s, err := NewModelSummarizer(context.Background(), model, "")
	if err != nil {
		t.Fatalf("NewModelSummarizer() error = %v", err)
	}

	got, err := s.Summarize(context.Background(), []Message{
		{ID: "u1", Role: RoleUser, Content: "I need a new router"},
		{ID: "a1", Role: RoleAssistant, Content: "Sure"},
	})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "short summary" {
		t.Fatalf("Summarize() = %q", got)
	}
	if len(model.input) != 3 {
		t.Fatalf("expected 3 model messages, got %d", len(model.input))
	}
	if last := model.input[2]; last.Content != summaryInstruction {
		t.Fatalf("unexpected instruction: %+v", last)
	}
}

func TestModelSummarizerError(t *testing.T) {
	t.Parallel()

	s, err := NewModelSummarizer(context.Background(), &fakeChatModel{err: errors.New("rate limited")}, "")
	if err != nil {
		t.Fatalf("NewModelSummarizer() error = %v", err)
	}
	if _, err := s.Summarize(context.Background(), []Message{UserMessage("hi")}); err == nil {
		t.Fatal("expected error")
	}
}
