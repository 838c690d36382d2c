package plan

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyPlan      = errors.New("plan has no steps")
	ErrDuplicateStep  = errors.New("duplicate step id")
	ErrUnknownDep     = errors.New("dependency references unknown step")
	ErrCyclicPlan     = errors.New("plan dependency cycle")
	ErrUnknownKind    = errors.New("unknown step kind")
	ErrMissingStepID  = errors.New("step id is empty")
	ErrMissingPlanID  = errors.New("plan id is empty")
	ErrMissingDomain  = errors.New("plan domain is empty")
)

// StepKind is the closed set of step behaviors an executor can dispatch.
type StepKind string

const (
	KindSearch      StepKind = "search"
	KindValidate    StepKind = "validate"
	KindCollectInfo StepKind = "collect_info"
	KindExecute     StepKind = "execute"
)

func ParseStepKind(s string) (StepKind, error) {
	switch k := StepKind(strings.TrimSpace(s)); k {
	case KindSearch, KindValidate, KindCollectInfo, KindExecute:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// ActionStep is a single unit of work inside a plan.
type ActionStep struct {
	StepID       string         `json:"step_id"`
	Description  string         `json:"description"`
	Kind         StepKind       `json:"action_type"`
	RequiredData []string       `json:"required_data,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// ActionPlan is an ordered DAG of steps toward one goal.
type ActionPlan struct {
	PlanID            string         `json:"plan_id"`
	Domain            string         `json:"domain"`
	Goal              string         `json:"goal"`
	Steps             []ActionStep   `json:"steps"`
	EstimatedTurns    int            `json:"estimated_turns"`
	RequiresUserInput bool           `json:"requires_user_input"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// NewID returns a domain-prefixed plan id, e.g. "booking_3f2a91bc".
func NewID(domain string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return domain + "_" + raw[:8]
}

// Step returns the step with the given id, if present.
func (p *ActionPlan) Step(id string) (*ActionStep, bool) {
	for i := range p.Steps {
		if p.Steps[i].StepID == id {
			return &p.Steps[i], true
		}
	}
	return nil, false
}

// Validate checks structural integrity: non-empty, unique step ids,
// known kinds, dependencies that resolve, and no cycles. A cyclic plan
// would never yield an eligible step, so it is rejected here.
func (p *ActionPlan) Validate() error {
	if strings.TrimSpace(p.PlanID) == "" {
		return ErrMissingPlanID
	}
	if strings.TrimSpace(p.Domain) == "" {
		return ErrMissingDomain
	}
	if len(p.Steps) == 0 {
		return ErrEmptyPlan
	}

	seen := make(map[string]struct{}, len(p.Steps))
	for _, s := range p.Steps {
		if strings.TrimSpace(s.StepID) == "" {
			return ErrMissingStepID
		}
		if _, dup := seen[s.StepID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateStep, s.StepID)
		}
		seen[s.StepID] = struct{}{}
		if _, err := ParseStepKind(string(s.Kind)); err != nil {
			return fmt.Errorf("step %s: %w", s.StepID, err)
		}
	}
	for _, s := range p.Steps {
		for _, dep := range s.Dependencies {
			if _, ok := seen[dep]; !ok {
				return fmt.Errorf("%w: %s -> %s", ErrUnknownDep, s.StepID, dep)
			}
		}
	}
	return p.checkAcyclic()
}

func (p *ActionPlan) checkAcyclic() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(p.Steps))

	var visit func(id string) error
	visit = func(id string) error {
		switch color[id] {
		case gray:
			return fmt.Errorf("%w: at %s", ErrCyclicPlan, id)
		case black:
			return nil
		}
		color[id] = gray
		if step, ok := p.Step(id); ok {
			for _, dep := range step.Dependencies {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		color[id] = black
		return nil
	}

	for _, s := range p.Steps {
		if err := visit(s.StepID); err != nil {
			return err
		}
	}
	return nil
}

// NextEligible returns the first step in plan order that is not yet
// completed and whose dependencies are all completed. Nil means either
// the plan is done or remaining steps are blocked.
func (p *ActionPlan) NextEligible(completed map[string]bool) *ActionStep {
	for i := range p.Steps {
		s := &p.Steps[i]
		if completed[s.StepID] {
			continue
		}
		ready := true
		for _, dep := range s.Dependencies {
			if !completed[dep] {
				ready = false
				break
			}
		}
		if ready {
			return s
		}
	}
	return nil
}

// Completed reports whether every step id appears in the completed set.
func (p *ActionPlan) Completed(completed map[string]bool) bool {
	for _, s := range p.Steps {
		if !completed[s.StepID] {
			return false
		}
	}
	return true
}

// CompletedSet converts a completed-step slice into lookup form.
func CompletedSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
