package contract

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
)

type AgentType string

const (
	AgentTypeRouter     AgentType = "router"
	AgentTypeCustomer   AgentType = "customer"
	AgentTypeRetrieval  AgentType = "retrieval"
	AgentTypeBooking    AgentType = "booking"
	AgentTypeSummarizer AgentType = "summarizer"
)

type AgentRequest struct {
	Query string    `json:"query"`
	Now   time.Time `json:"now"`
}

type AgentResponse struct {
	Message   string `json:"message"`
	ToolCalls int    `json:"tool_calls"`
}

// ToolResult is what a tool reports back to the model. Failures the model should
// explain to the user go in Error, not in a Go error.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Session identifies the conversation a tool call runs in.
type Session struct {
	ThreadID   string
	CustomerID string
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// ReasonResult is the outcome of one bounded tool-calling loop.
type ReasonResult struct {
	Reply      *schema.Message
	Transcript []*schema.Message
	ToolCalls  int
}
