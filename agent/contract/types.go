package contract

import (
	planx "github.com/wareechai/trio-concierge/agent/plan"
	statex "github.com/wareechai/trio-concierge/agent/state"
)

// Domain identifies which assistant owns a turn.
type Domain string

const (
	DomainBooking    Domain = "booking"
	DomainProperties Domain = "properties"
	DomainEducation  Domain = "education"
	DomainUnclear    Domain = "unclear"
)

// KnownDomains lists the routable domains in routing-priority order.
var KnownDomains = []Domain{DomainBooking, DomainProperties, DomainEducation}

func ParseDomain(s string) (Domain, bool) {
	switch Domain(s) {
	case DomainBooking, DomainProperties, DomainEducation:
		return Domain(s), true
	case DomainUnclear:
		return DomainUnclear, true
	default:
		return DomainUnclear, false
	}
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat-completion message sent to the model port.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TurnRequest is one user turn entering the orchestrator.
type TurnRequest struct {
	SessionID     string `json:"session_id"`
	Content       string `json:"content"`
	CurrentStepID string `json:"current_step_id,omitempty"`
	UserInput     string `json:"user_input,omitempty"`
}

// TurnResponse is the envelope every turn resolves to, success or not.
type TurnResponse struct {
	Response         string         `json:"response"`
	SessionID        string         `json:"session_id"`
	Intent           string         `json:"intent"`
	RequiresFollowup bool           `json:"requires_followup"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// RoutingDecision is the router's verdict for a single query.
type RoutingDecision struct {
	Domain                Domain   `json:"domain"`
	Confidence            float64  `json:"confidence"`
	Reasoning             string   `json:"reasoning"`
	IsMultiDomain         bool     `json:"is_multi_domain"`
	Domains               []Domain `json:"domains,omitempty"`
	RequiresClarification bool     `json:"requires_clarification"`
}

type PlannerRequest struct {
	Query     string               `json:"query"`
	SessionID string               `json:"session_id"`
	History   []statex.MemoryEntry `json:"history,omitempty"`
}

type PlannerResponse struct {
	Plan                   *planx.ActionPlan `json:"plan,omitempty"`
	Confidence             float64           `json:"confidence"`
	Reasoning              string            `json:"reasoning"`
	RequiresClarification  bool              `json:"requires_clarification"`
	ClarificationQuestions []string          `json:"clarification_questions,omitempty"`
}

type ExecutorRequest struct {
	Plan          *planx.ActionPlan `json:"plan"`
	SessionID     string            `json:"session_id"`
	Query         string            `json:"query"`
	CurrentStepID string            `json:"current_step_id,omitempty"`
	UserInput     string            `json:"user_input,omitempty"`
}

type ExecutorResponse struct {
	Content           string         `json:"content"`
	CurrentStepID     string         `json:"current_step_id,omitempty"`
	NextStepID        string         `json:"next_step_id,omitempty"`
	CompletedSteps    []string       `json:"completed_steps,omitempty"`
	PlanCompleted     bool           `json:"plan_completed"`
	RequiresUserInput bool           `json:"requires_user_input"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}
