package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/wareechai/trio-concierge/agent/contract"
)

// DispatchDomain hands the turn to the routed domain's handler.
// Handler failures degrade to an apology; the caller never sees raw
// errors from a domain.
func DispatchDomain(ctx context.Context, in *GraphState, handlers map[contractx.Domain]contractx.DomainHandler) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	handler, ok := handlers[in.Decision.Domain]
	if !ok {
		log.Error().Str("domain", string(in.Decision.Domain)).Msg("no handler for domain")
		in.Response = apologyResponse(in, "I apologize, but I couldn't process your request.")
		return in, nil
	}

	resp, err := handler.HandleTurn(ctx, in.Request)
	if err != nil {
		log.Error().Err(err).
			Str("session_id", in.Request.SessionID).
			Str("domain", string(in.Decision.Domain)).
			Msg("domain handler failed")
		in.Response = apologyResponse(in, "I apologize, but I encountered an error processing your request.")
		return in, nil
	}

	resp.SessionID = in.Request.SessionID
	if resp.Intent == "" {
		resp.Intent = string(in.Decision.Domain)
	}
	in.Response = resp
	return in, nil
}

// Clarify renders the unclear-routing branch: a menu of what the
// assistant can do, or targeted wording when two domains tied.
func Clarify(in *GraphState, message func(contractx.RoutingDecision) string) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Response = contractx.TurnResponse{
		Response:         message(in.Decision),
		SessionID:        in.Request.SessionID,
		Intent:           string(contractx.DomainUnclear),
		RequiresFollowup: true,
		Metadata:         map[string]any{"intent": "clarification_needed"},
	}
	return in, nil
}

func FinalizeReply(in *GraphState) (contractx.TurnResponse, error) {
	if in == nil {
		return contractx.TurnResponse{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Response.Metadata == nil {
		in.Response.Metadata = map[string]any{}
	}
	if _, ok := in.Response.Metadata["routing_confidence"]; !ok {
		in.Response.Metadata["routing_confidence"] = in.Decision.Confidence
	}
	return in.Response, nil
}

func apologyResponse(in *GraphState, text string) contractx.TurnResponse {
	return contractx.TurnResponse{
		Response:         text,
		SessionID:        in.Request.SessionID,
		Intent:           string(in.Decision.Domain),
		RequiresFollowup: true,
		Metadata:         map[string]any{"error": "dispatch_failed"},
	}
}
