package specialist

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/chative-customer-service/agent/contract"
	llmx "github.com/tanpawarit/chative-customer-service/agent/llm"
	promptx "github.com/tanpawarit/chative-customer-service/agent/prompt"
	toolx "github.com/tanpawarit/chative-customer-service/agent/tool"
)

type Registry struct {
	customer  *Agent
	retrieval *Agent
	booking   *Agent
}

func (r *Registry) Customer() contractx.Agent {
	return r.customer
}

func (r *Registry) Retrieval() contractx.Agent {
	return r.retrieval
}

func (r *Registry) Booking() contractx.Agent {
	return r.booking
}

// NewRegistry builds the customer, retrieval and booking agents, each on the
// model configured for it.
func NewRegistry(ctx context.Context, cfg llmx.Config, deps toolx.Deps) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	prompts := promptx.LoadPromptSet()

	build := func(agentType contractx.AgentType, systemPrompt string) (*Agent, error) {
		modelCfg := cfg.OpenRouterFor(agentType)
		chatModel, err := modelCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, agentType, err)
		}
		return NewAgent(ctx, agentType, chatModel, systemPrompt, deps, cfg.MaxToolRounds)
	}

	customer, err := build(contractx.AgentTypeCustomer, prompts.Customer)
	if err != nil {
		return nil, err
	}
	retrieval, err := build(contractx.AgentTypeRetrieval, prompts.Retrieval)
	if err != nil {
		return nil, err
	}
	booking, err := build(contractx.AgentTypeBooking, prompts.Booking)
	if err != nil {
		return nil, err
	}

	return &Registry{
		customer:  customer,
		retrieval: retrieval,
		booking:   booking,
	}, nil
}

// NewRouter builds the top-level loop whose tools delegate to the registry's
// agents.
func NewRouter(ctx context.Context, cfg llmx.Config, agents contractx.Registry, now func() time.Time) (*ToolLoop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	modelCfg := cfg.OpenRouterFor(contractx.AgentTypeRouter)
	chatModel, err := modelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create router model: %v", contractx.ErrModelInvoke, err)
	}
	deps := toolx.Deps{Agents: agents, Now: now}
	return NewToolLoop(ctx, contractx.AgentTypeRouter, chatModel, promptx.LoadPromptSet().Router, deps, cfg.MaxToolRounds)
}
