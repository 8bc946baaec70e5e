package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/tanpawarit/chative-customer-service/agent/booking"
	contractx "github.com/tanpawarit/chative-customer-service/agent/contract"
	"github.com/tanpawarit/chative-customer-service/agent/repository"
	"github.com/tanpawarit/chative-customer-service/agent/retrieval"
)

type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

type BookingService interface {
	CheckAppointments(ctx context.Context, req booking.CheckRequest) booking.Result
	CreateAppointment(ctx context.Context, req booking.CreateRequest) booking.Result
	ModifyAppointment(ctx context.Context, req booking.ModifyRequest) booking.Result
	CancelAppointment(ctx context.Context, req booking.CancelRequest) booking.Result
}

type CustomerDirectory interface {
	GetCustomer(ctx context.Context, customerID string) (repository.Customer, error)
	OwnsSubscription(ctx context.Context, customerID, subscriptionID string) (bool, error)
}

type DocumentRetriever interface {
	Retrieve(ctx context.Context, query string, k int) (retrieval.Result, error)
}

// Deps are the services tools execute against. A nil dependency makes its tools
// report themselves unavailable.
type Deps struct {
	Booking   BookingService
	Customers CustomerDirectory
	Retriever DocumentRetriever
	Agents    contractx.Registry

	// Now stamps agent requests. Defaults to time.Now.
	Now func() time.Time
}

func BuildForAgent(agentType contractx.AgentType, deps Deps) ([]*schema.ToolInfo, Executor) {
	return infosForAgent(agentType), NewExecutor(agentType, deps)
}

func NewExecutor(agentType contractx.AgentType, deps Deps) Executor {
	fallback := DefaultExecutor(agentType)
	allowed := make(map[string]struct{})
	for _, info := range infosForAgent(agentType) {
		allowed[info.Name] = struct{}{}
	}

	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		if _, ok := allowed[tool]; !ok {
			return fallback(ctx, tool, args)
		}
		switch tool {
		case ToolCheckAppointments, ToolCreateAppointment, ToolModifyAppointment, ToolCancelAppointment:
			if deps.Booking == nil {
				return fallback(ctx, tool, args)
			}
			return executeBookingTool(ctx, deps, tool, args)
		case ToolRetrieveCustomerInfo:
			if deps.Customers == nil {
				return fallback(ctx, tool, args)
			}
			return executeCustomerTool(ctx, deps.Customers, tool, args)
		case ToolRetrieve:
			if deps.Retriever == nil {
				return fallback(ctx, tool, args)
			}
			return executeRetrieveTool(ctx, deps.Retriever, tool, args)
		case ToolCustomerAgent, ToolRetrievalAgent, ToolBookingAgent:
			if deps.Agents == nil {
				return fallback(ctx, tool, args)
			}
			return executeAgentTool(ctx, deps, tool, args)
		default:
			return fallback(ctx, tool, args)
		}
	}
}

func DefaultExecutor(agentType contractx.AgentType) Executor {
	return func(ctx context.Context, tool string, _ map[string]any) (contractx.ToolResult, error) {
		return contractx.ToolResult{
			Tool:  tool,
			Error: fmt.Sprintf("tool=%s is unavailable for agent=%s", tool, agentType),
		}, nil
	}
}

func infosForAgent(agentType contractx.AgentType) []*schema.ToolInfo {
	switch agentType {
	case contractx.AgentTypeBooking:
		return bookingToolInfos()
	case contractx.AgentTypeCustomer:
		return []*schema.ToolInfo{customerToolInfo()}
	case contractx.AgentTypeRetrieval:
		return []*schema.ToolInfo{retrieveToolInfo()}
	case contractx.AgentTypeRouter:
		return agentToolInfos()
	default:
		return nil
	}
}
