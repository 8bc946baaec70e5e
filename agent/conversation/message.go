package conversation

import (
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Reserved message IDs. Messages carrying them survive compaction.
const (
	SummaryID        = "summary"
	CustomerMarkerID = "customer_id"
)

type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

type Message struct {
	ID         string     `json:"id"`
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
}

func newID() string {
	return uuid.NewString()
}

func UserMessage(content string) Message {
	return Message{ID: newID(), Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{ID: newID(), Role: RoleAssistant, Content: content}
}

// CustomerMarker is the system message that pins the session's customer id.
func CustomerMarker(customerID string) Message {
	return Message{
		ID:      CustomerMarkerID,
		Role:    RoleSystem,
		Content: "customer_id: " + customerID,
	}
}

// FromSchema converts a model message into a history entry with a fresh ID.
func FromSchema(m *schema.Message) Message {
	if m == nil {
		return Message{}
	}
	out := Message{
		ID:         newID(),
		Role:       Role(m.Role),
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
		ToolName:   m.ToolName,
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}

func (m Message) ToSchema() *schema.Message {
	out := &schema.Message{
		Role:       schema.RoleType(m.Role),
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
		ToolName:   m.ToolName,
	}
	for _, tc := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, schema.ToolCall{
			ID:       tc.ID,
			Type:     "function",
			Function: schema.FunctionCall{Name: tc.Name, Arguments: tc.Arguments},
		})
	}
	return out
}

// ToSchema renders history for a chat model. The summary, wherever it sits in the
// history, is sent as a system message ahead of the remaining turns.
func ToSchema(msgs []Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs))
	var summary *schema.Message
	for _, m := range msgs {
		if m.ID == SummaryID {
			if strings.TrimSpace(m.Content) != "" {
				summary = schema.SystemMessage("Summary of the conversation so far: " + m.Content)
			}
			continue
		}
		out = append(out, m.ToSchema())
	}
	if summary == nil {
		return out
	}

	at := 0
	for at < len(out) && out[at].Role == schema.System {
		at++
	}
	out = append(out, nil)
	copy(out[at+1:], out[at:])
	out[at] = summary
	return out
}

// LatestUser returns the index of the last user message, or -1.
func LatestUser(msgs []Message) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return i
		}
	}
	return -1
}
