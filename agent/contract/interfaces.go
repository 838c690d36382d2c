package contract

import (
	"context"

	statex "github.com/wareechai/trio-concierge/agent/state"
)

// Completer is the chat-completion port. Implementations return the raw
// assistant text; structured decoding is the caller's concern.
type Completer interface {
	Generate(ctx context.Context, system string, msgs []Message) (string, error)
}

// Router classifies a query into a domain. Routing never fails: any
// upstream error degrades into a low-confidence or unclear decision.
type Router interface {
	Route(ctx context.Context, query, sessionID string, history []statex.MemoryEntry) RoutingDecision
}

type Planner interface {
	Plan(ctx context.Context, req PlannerRequest) (PlannerResponse, error)
}

type Executor interface {
	Execute(ctx context.Context, req ExecutorRequest) (ExecutorResponse, error)
}

// DomainHandler owns a full turn for one domain. Both booking designs
// (hand-authored state machine and planner/executor pipeline) sit
// behind this interface.
type DomainHandler interface {
	HandleTurn(ctx context.Context, req TurnRequest) (TurnResponse, error)
}
