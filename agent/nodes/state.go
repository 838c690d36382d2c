// Package orchestratornode holds the per-node logic of the turn graph.
// Each node takes the shared turn state, does one thing, and hands the
// state on; the orchestrator package wires them into an eino graph.
package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/wareechai/trio-concierge/agent/contract"
	statex "github.com/wareechai/trio-concierge/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

// GraphState is the turn-scoped record every node mutates in sequence.
// Stages never run concurrently within a turn.
type GraphState struct {
	Request contractx.TurnRequest
	Now     time.Time

	History  []statex.MemoryEntry
	Decision contractx.RoutingDecision

	Response contractx.TurnResponse
}

func ValidateRequest(in contractx.TurnRequest, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, ErrInvalidMessage
	}

	in.SessionID = sessionID
	in.Content = content
	return &GraphState{
		Request: in,
		Now:     nowFn().UTC(),
	}, nil
}
