package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/wareechai/trio-concierge/agent/contract"
)

// RouteQuery classifies the turn. Routing never fails; an unclear
// verdict is a normal outcome handled by the clarify branch.
func RouteQuery(ctx context.Context, in *GraphState, router contractx.Router) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Decision = router.Route(ctx, in.Request.Content, in.Request.SessionID, in.History)
	log.Info().
		Str("session_id", in.Request.SessionID).
		Str("domain", string(in.Decision.Domain)).
		Float64("confidence", in.Decision.Confidence).
		Msg("turn routed")
	return in, nil
}

// Dispatchable reports whether the turn reaches a domain handler or
// takes the clarification branch.
func Dispatchable(in *GraphState) bool {
	if in == nil {
		return false
	}
	if in.Decision.RequiresClarification {
		return false
	}
	_, ok := contractx.ParseDomain(string(in.Decision.Domain))
	return ok && in.Decision.Domain != contractx.DomainUnclear
}
