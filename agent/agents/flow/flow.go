// Package flow is the generic plan/execute domain handler: each turn
// plans (or resumes) an action plan and drives the domain executor one
// step further. The booking state machine is the alternative handler
// for the booking domain.
package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wareechai/trio-concierge/agent/contract"
	planx "github.com/wareechai/trio-concierge/agent/plan"
)

// Handler pairs one domain's planner and executor behind the
// DomainHandler contract.
type Handler struct {
	domain   contract.Domain
	planner  contract.Planner
	executor contract.Executor
	plans    *PlanStore
}

var _ contract.DomainHandler = (*Handler)(nil)

func NewHandler(domain contract.Domain, planner contract.Planner, executor contract.Executor, plans *PlanStore) (*Handler, error) {
	if planner == nil || executor == nil {
		return nil, fmt.Errorf("%w: planner and executor are required", contract.ErrValidation)
	}
	if plans == nil {
		return nil, fmt.Errorf("%w: plan store is required", contract.ErrValidation)
	}
	return &Handler{domain: domain, planner: planner, executor: executor, plans: plans}, nil
}

func (h *Handler) HandleTurn(ctx context.Context, req contract.TurnRequest) (contract.TurnResponse, error) {
	ap, planMeta := h.resolvePlan(ctx, req)
	if ap == nil {
		// Planning asked for clarification; no execution this turn.
		return contract.TurnResponse{
			Response:         planMeta.clarification,
			SessionID:        req.SessionID,
			Intent:           string(h.domain),
			RequiresFollowup: true,
			Metadata: map[string]any{
				"agent":               h.agentName(),
				"needs_clarification": true,
			},
		}, nil
	}

	eresp, err := h.executor.Execute(ctx, contract.ExecutorRequest{
		Plan:          ap,
		SessionID:     req.SessionID,
		Query:         req.Content,
		CurrentStepID: req.CurrentStepID,
		UserInput:     req.UserInput,
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Str("domain", string(h.domain)).Msg("execution failed")
		return contract.TurnResponse{
			Response:         "I apologize, but I encountered an error processing your request. Could you please try again?",
			SessionID:        req.SessionID,
			Intent:           string(h.domain),
			RequiresFollowup: true,
			Metadata:         map[string]any{"agent": h.agentName(), "error": err.Error()},
		}, nil
	}

	if eresp.PlanCompleted {
		if err := h.plans.Clear(ctx, string(h.domain), req.SessionID); err != nil {
			log.Warn().Err(err).Str("session_id", req.SessionID).Msg("plan clear failed")
		}
	} else if err := h.plans.Save(ctx, string(h.domain), req.SessionID, ap); err != nil {
		log.Warn().Err(err).Str("session_id", req.SessionID).Msg("plan save failed")
	}

	metadata := map[string]any{
		"agent":          h.agentName(),
		"plan_id":        ap.PlanID,
		"plan_completed": eresp.PlanCompleted,
		"confidence":     planMeta.confidence,
	}
	if eresp.CurrentStepID != "" {
		metadata["current_step_id"] = eresp.CurrentStepID
	}
	if eresp.NextStepID != "" {
		metadata["next_step_id"] = eresp.NextStepID
	}
	for k, v := range eresp.Metadata {
		metadata[k] = v
	}

	return contract.TurnResponse{
		Response:         eresp.Content,
		SessionID:        req.SessionID,
		Intent:           string(h.domain),
		RequiresFollowup: eresp.RequiresUserInput,
		Metadata:         metadata,
	}, nil
}

type planMeta struct {
	confidence    float64
	clarification string
}

// resolvePlan resumes the stored plan when the turn continues a step,
// otherwise asks the planner for a fresh one. A nil plan means the
// planner wants clarification first.
func (h *Handler) resolvePlan(ctx context.Context, req contract.TurnRequest) (*planx.ActionPlan, planMeta) {
	if req.CurrentStepID != "" {
		if ap, err := h.plans.Load(ctx, string(h.domain), req.SessionID); err == nil && ap != nil {
			if _, ok := ap.Step(req.CurrentStepID); ok {
				return ap, planMeta{confidence: 1}
			}
		} else if err != nil {
			log.Warn().Err(err).Str("session_id", req.SessionID).Msg("plan load failed")
		}
	}

	presp, err := h.planner.Plan(ctx, contract.PlannerRequest{
		Query:     req.Content,
		SessionID: req.SessionID,
	})
	if err != nil || presp.Plan == nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Str("domain", string(h.domain)).Msg("planning failed")
		return nil, planMeta{clarification: "Could you tell me a bit more about what you're looking for?"}
	}

	if presp.RequiresClarification && len(presp.ClarificationQuestions) > 0 {
		return nil, planMeta{clarification: strings.Join(presp.ClarificationQuestions, "\n")}
	}
	return presp.Plan, planMeta{confidence: presp.Confidence}
}

func (h *Handler) agentName() string {
	return string(h.domain) + "_flow"
}
