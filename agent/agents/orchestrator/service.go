// Package orchestrator composes the turn pipeline: validate, load
// history, route, dispatch or clarify, record history, reply.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/wareechai/trio-concierge/agent/contract"
	nodex "github.com/wareechai/trio-concierge/agent/nodes"
	statex "github.com/wareechai/trio-concierge/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

// Config selects the orchestrator's behavioral switches from the
// environment.
type Config struct {
	// BookingStrategy selects the booking domain handler: "machine"
	// (the hand-authored state machine, default) or "flow" (the
	// generic planner/executor pipeline).
	BookingStrategy string `envconfig:"BOOKING_STRATEGY" default:"machine"`
}

type Orchestrator struct {
	router   contractx.Router
	handlers map[contractx.Domain]contractx.DomainHandler
	history  *statex.History

	graphRunner compose.Runnable[contractx.TurnRequest, contractx.TurnResponse]

	now func() time.Time
}

func New(
	router contractx.Router,
	handlers map[contractx.Domain]contractx.DomainHandler,
	history *statex.History,
) (*Orchestrator, error) {
	if router == nil {
		return nil, errors.New("router is required")
	}
	if len(handlers) == 0 {
		return nil, errors.New("at least one domain handler is required")
	}
	if history == nil {
		return nil, errors.New("history store is required")
	}

	o := &Orchestrator{
		router:   router,
		handlers: handlers,
		history:  history,
		now:      time.Now,
	}

	graphRunner, err := o.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleTurn runs one conversational turn end to end.
func (o *Orchestrator) HandleTurn(ctx context.Context, req contractx.TurnRequest) (contractx.TurnResponse, error) {
	return o.graphRunner.Invoke(ctx, req)
}
