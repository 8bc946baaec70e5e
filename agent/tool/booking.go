package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/chative-customer-service/agent/booking"
	contractx "github.com/tanpawarit/chative-customer-service/agent/contract"
)

const (
	ToolCheckAppointments = "CheckAppointmentsTool"
	ToolCreateAppointment = "CreateAppointmentTool"
	ToolModifyAppointment = "ModifyAppointmentTool"
	ToolCancelAppointment = "CancelAppointmentTool"
)

func bookingToolInfos() []*schema.ToolInfo {
	subscription := &schema.ParameterInfo{Type: schema.String, Desc: "Subscription id the appointment belongs to, e.g. SUB100", Required: true}
	return []*schema.ToolInfo{
		{
			Name: ToolCheckAppointments,
			Desc: "List every appointment recorded for a subscription.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"subscription_id": subscription,
			}),
		},
		{
			Name: ToolCreateAppointment,
			Desc: "Book a new appointment. The date must be more than 24 hours ahead, within 30 days, on a full or half hour.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"subscription_id":  subscription,
				"appointment_date": {Type: schema.String, Desc: "ISO-8601 datetime, e.g. 2024-05-12T14:30:00", Required: true},
				"appointment_type": {Type: schema.String, Desc: "Reason for the visit, e.g. installation or repair", Required: true},
			}),
		},
		{
			Name: ToolModifyAppointment,
			Desc: "Move the subscription's active appointment to a new date and type.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"subscription_id":      subscription,
				"new_appointment_date": {Type: schema.String, Desc: "ISO-8601 datetime, e.g. 2024-05-12T14:30:00", Required: true},
				"new_appointment_type": {Type: schema.String, Desc: "Reason for the visit", Required: true},
			}),
		},
		{
			Name: ToolCancelAppointment,
			Desc: "Cancel the subscription's active appointment. Only allowed more than 24 hours in advance.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"subscription_id": subscription,
			}),
		},
	}
}

func executeBookingTool(ctx context.Context, deps Deps, tool string, args map[string]any) (contractx.ToolResult, error) {
	var res booking.Result
	switch tool {
	case ToolCheckAppointments:
		var req booking.CheckRequest
		if err := decodeArgs(args, &req); err != nil {
			return malformed(tool, err), nil
		}
		if out, denied := checkOwner(ctx, deps.Customers, tool, req.SubscriptionID); denied {
			return out, nil
		}
		res = deps.Booking.CheckAppointments(ctx, req)
	case ToolCreateAppointment:
		var req booking.CreateRequest
		if err := decodeArgs(args, &req); err != nil {
			return malformed(tool, err), nil
		}
		if out, denied := checkOwner(ctx, deps.Customers, tool, req.SubscriptionID); denied {
			return out, nil
		}
		res = deps.Booking.CreateAppointment(ctx, req)
	case ToolModifyAppointment:
		var req booking.ModifyRequest
		if err := decodeArgs(args, &req); err != nil {
			return malformed(tool, err), nil
		}
		if out, denied := checkOwner(ctx, deps.Customers, tool, req.SubscriptionID); denied {
			return out, nil
		}
		res = deps.Booking.ModifyAppointment(ctx, req)
	case ToolCancelAppointment:
		var req booking.CancelRequest
		if err := decodeArgs(args, &req); err != nil {
			return malformed(tool, err), nil
		}
		if out, denied := checkOwner(ctx, deps.Customers, tool, req.SubscriptionID); denied {
			return out, nil
		}
		res = deps.Booking.CancelAppointment(ctx, req)
	default:
		return contractx.ToolResult{Tool: tool, Error: "unknown booking tool"}, nil
	}

	out := contractx.ToolResult{Tool: tool, Result: res}
	if !res.OK() {
		out.Error = res.Message
	}
	return out, nil
}

// checkOwner refuses subscriptions that do not belong to the session's customer.
// Without a directory or a known customer the check is skipped.
func checkOwner(ctx context.Context, dir CustomerDirectory, tool, subscriptionID string) (contractx.ToolResult, bool) {
	sess, ok := contractx.SessionFrom(ctx)
	subscriptionID = strings.TrimSpace(subscriptionID)
	if dir == nil || !ok || sess.CustomerID == "" || subscriptionID == "" {
		return contractx.ToolResult{}, false
	}

	owns, err := dir.OwnsSubscription(ctx, sess.CustomerID, subscriptionID)
	if err != nil {
		log.Error().Err(err).Str("tool", tool).Str("subscription_id", subscriptionID).Msg("subscription owner check failed")
		return contractx.ToolResult{
			Tool:  tool,
			Error: "The customer directory is temporarily unavailable. Please try again later.",
		}, true
	}
	if !owns {
		return contractx.ToolResult{
			Tool:  tool,
			Error: fmt.Sprintf("Subscription %s does not belong to the current customer.", subscriptionID),
		}, true
	}
	return contractx.ToolResult{}, false
}

func malformed(tool string, err error) contractx.ToolResult {
	return contractx.ToolResult{
		Tool: tool,
		Result: booking.Result{
			Status:  booking.StatusError,
			Kind:    booking.KindMalformedInput,
			Message: err.Error(),
		},
		Error: err.Error(),
	}
}
