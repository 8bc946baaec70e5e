package tool

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/chative-customer-service/agent/contract"
	"github.com/tanpawarit/chative-customer-service/agent/repository"
)

const ToolRetrieveCustomerInfo = "RetrieveCustomerInfoTool"

func customerToolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolRetrieveCustomerInfo,
		Desc: "Fetch the current customer's profile and subscriptions.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"customer_id": {Type: schema.String, Desc: "Customer id of the current session", Required: true},
		}),
	}
}

type customerArgs struct {
	CustomerID string `json:"customer_id"`
}

func executeCustomerTool(ctx context.Context, dir CustomerDirectory, tool string, args map[string]any) (contractx.ToolResult, error) {
	var in customerArgs
	if err := decodeArgs(args, &in); err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}

	sess, ok := contractx.SessionFrom(ctx)
	if !ok || strings.TrimSpace(sess.CustomerID) == "" {
		return contractx.ToolResult{Tool: tool, Error: "No customer is associated with this conversation."}, nil
	}
	requested := strings.TrimSpace(in.CustomerID)
	if requested != "" && requested != sess.CustomerID {
		return contractx.ToolResult{Tool: tool, Error: "You can only access your own customer information."}, nil
	}

	c, err := dir.GetCustomer(ctx, sess.CustomerID)
	if errors.Is(err, repository.ErrCustomerNotFound) {
		return contractx.ToolResult{Tool: tool, Error: "No customer record was found for this conversation."}, nil
	}
	if err != nil {
		log.Error().Err(err).Str("tool", tool).Str("customer_id", sess.CustomerID).Msg("customer lookup failed")
		return contractx.ToolResult{Tool: tool, Error: "The customer directory is temporarily unavailable. Please try again later."}, nil
	}
	return contractx.ToolResult{Tool: tool, Result: c}, nil
}
