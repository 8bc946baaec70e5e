package tool

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/chative-customer-service/agent/contract"
)

const ToolRetrieve = "RetrieveTool"

func retrieveToolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolRetrieve,
		Desc: "Retrieve relevant documents for a question. The number of results can be adjusted with k.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {Type: schema.String, Desc: "What to search for", Required: true},
			"k":     {Type: schema.Integer, Desc: "Number of documents to return, default 3"},
		}),
	}
}

type retrieveArgs struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

func executeRetrieveTool(ctx context.Context, r DocumentRetriever, tool string, args map[string]any) (contractx.ToolResult, error) {
	var in retrieveArgs
	if err := decodeArgs(args, &in); err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	if strings.TrimSpace(in.Query) == "" {
		return contractx.ToolResult{Tool: tool, Error: "query is required"}, nil
	}

	res, err := r.Retrieve(ctx, in.Query, in.K)
	if err != nil {
		log.Error().Err(err).Str("tool", tool).Msg("retrieval failed")
		return contractx.ToolResult{Tool: tool, Error: "Document search is temporarily unavailable."}, nil
	}
	return contractx.ToolResult{Tool: tool, Result: res}, nil
}
