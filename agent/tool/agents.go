package tool

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/chative-customer-service/agent/contract"
)

const (
	ToolCustomerAgent  = "CustomerAgentTool"
	ToolRetrievalAgent = "RetrievalAgentTool"
	ToolBookingAgent   = "BookingAgentTool"
)

func agentToolInfos() []*schema.ToolInfo {
	query := func(desc string) *schema.ParamsOneOf {
		return schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {Type: schema.String, Desc: desc, Required: true},
		})
	}
	return []*schema.ToolInfo{
		{
			Name:        ToolCustomerAgent,
			Desc:        "Answer questions about the current customer's profile and subscriptions.",
			ParamsOneOf: query("A self-contained question about the customer"),
		},
		{
			Name:        ToolRetrievalAgent,
			Desc:        "Answer questions about the company, its products and services from the knowledge base.",
			ParamsOneOf: query("A self-contained question about the company"),
		},
		{
			Name:        ToolBookingAgent,
			Desc:        "Check, book, modify or cancel appointments for one of the customer's subscriptions.",
			ParamsOneOf: query("The appointment request including subscription_id, dates and appointment type"),
		},
	}
}

type agentArgs struct {
	Query string `json:"query"`
}

func executeAgentTool(ctx context.Context, deps Deps, tool string, args map[string]any) (contractx.ToolResult, error) {
	var in agentArgs
	if err := decodeArgs(args, &in); err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return contractx.ToolResult{Tool: tool, Error: "query is required"}, nil
	}

	var agent contractx.Agent
	switch tool {
	case ToolCustomerAgent:
		agent = deps.Agents.Customer()
	case ToolRetrievalAgent:
		agent = deps.Agents.Retrieval()
	case ToolBookingAgent:
		agent = deps.Agents.Booking()
	}
	if agent == nil {
		return contractx.ToolResult{Tool: tool, Error: "This assistant is not available."}, nil
	}

	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	resp, err := agent.Run(ctx, contractx.AgentRequest{Query: query, Now: now()})
	if err != nil {
		log.Error().Err(err).Str("tool", tool).Msg("agent run failed")
		return contractx.ToolResult{Tool: tool, Error: "The assistant could not complete the request right now."}, nil
	}
	return contractx.ToolResult{Tool: tool, Result: resp.Message}, nil
}
