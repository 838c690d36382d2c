package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/wareechai/trio-concierge/agent/contract"
	statex "github.com/wareechai/trio-concierge/agent/state"
)

const historyReadLimit = 10

// LoadHistory reads the recent conversation window for routing
// context. A failed read leaves the history empty; a turn without
// context still routes.
func LoadHistory(ctx context.Context, in *GraphState, history *statex.History) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	entries, err := history.Recent(ctx, in.Request.SessionID, historyReadLimit)
	if err != nil {
		log.Warn().Err(err).Str("session_id", in.Request.SessionID).Msg("history read failed")
		return in, nil
	}
	in.History = entries
	return in, nil
}

// AppendHistory records the user turn and the assistant reply.
func AppendHistory(ctx context.Context, in *GraphState, history *statex.History) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	agent, _ := in.Response.Metadata["agent"].(string)
	entries := []statex.MemoryEntry{
		{Role: string(contractx.RoleUser), Content: in.Request.Content, Timestamp: in.Now},
		{Role: string(contractx.RoleAssistant), Content: in.Response.Response, Agent: agent, Timestamp: in.Now},
	}
	for _, entry := range entries {
		if err := history.Append(ctx, in.Request.SessionID, entry); err != nil {
			log.Warn().Err(err).Str("session_id", in.Request.SessionID).Msg("history append failed")
			break
		}
	}
	return in, nil
}
