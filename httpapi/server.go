// Package httpapi exposes the assistant over HTTP: one chat endpoint
// per session, a session reset, and a health probe.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	orchestratorx "github.com/wareechai/trio-concierge/agent/agents/orchestrator"
	contractx "github.com/wareechai/trio-concierge/agent/contract"
	statex "github.com/wareechai/trio-concierge/agent/state"
)

// TurnService handles one conversational turn. The orchestrator
// satisfies this.
type TurnService interface {
	HandleTurn(ctx context.Context, req contractx.TurnRequest) (contractx.TurnResponse, error)
}

type chatRequest struct {
	Message       string `json:"message"`
	CurrentStepID string `json:"current_step_id,omitempty"`
	UserInput     string `json:"user_input,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	turns   TurnService
	history *statex.History
}

func NewServer(turns TurnService, history *statex.History) (*Server, error) {
	if turns == nil {
		return nil, errors.New("turn service is required")
	}
	if history == nil {
		return nil, errors.New("history store is required")
	}
	return &Server{turns: turns, history: history}, nil
}

// Routes builds the request mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/{session_id}", s.handleChat)
	mux.HandleFunc("DELETE /chat/{session_id}", s.handleClearSession)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message cannot be empty"})
		return
	}

	resp, err := s.turns.HandleTurn(r.Context(), contractx.TurnRequest{
		SessionID:     sessionID,
		Content:       req.Message,
		CurrentStepID: req.CurrentStepID,
		UserInput:     req.UserInput,
	})
	if err != nil {
		if errors.Is(err, orchestratorx.ErrInvalidMessage) || errors.Is(err, orchestratorx.ErrInvalidSession) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		log.Error().Err(err).Str("session_id", sessionID).Msg("chat turn failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	if err := s.history.Clear(r.Context(), sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("session clear failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "cleared",
		"session_id": sessionID,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("response encode failed")
	}
}
