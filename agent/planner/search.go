package planner

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/wareechai/trio-concierge/agent/contract"
	planx "github.com/wareechai/trio-concierge/agent/plan"
)

// SearchPlanner plans the single-shot search domains. Properties and
// education share one plan shape: search by criteria, then present.
type SearchPlanner struct {
	core
	searchStep   string
	goal         string
	scenario     string
	fallbackGoal string
	fallbackAsk  string
}

var _ contract.Planner = (*SearchPlanner)(nil)

func NewPropertiesPlanner(llm contract.Completer) *SearchPlanner {
	return &SearchPlanner{
		core: core{
			llm:         llm,
			domain:      contract.DomainProperties,
			description: "Plans property search and real estate workflows",
			capabilities: `I can plan workflows for:
- Property searches by location and criteria
- Rental and purchase listings
- Property comparisons
- Neighborhood information
`,
		},
		searchStep:   "_search_properties",
		goal:         "Search and present properties",
		scenario:     "property_search",
		fallbackGoal: "Handle property request",
		fallbackAsk:  "Could you provide more details about the property you're looking for?",
	}
}

func NewEducationPlanner(llm contract.Completer) *SearchPlanner {
	return &SearchPlanner{
		core: core{
			llm:         llm,
			domain:      contract.DomainEducation,
			description: "Plans school search and educational resource workflows",
			capabilities: `I can plan workflows for:
- School searches by location and criteria
- School comparisons and recommendations
- Child profile management
- Educational resource discovery
- School district information
`,
		},
		searchStep:   "_search_schools",
		goal:         "Search and present schools",
		scenario:     "school_search",
		fallbackGoal: "Handle education request",
		fallbackAsk:  "Could you provide more details about the school or educational resource you're looking for?",
	}
}

func (p *SearchPlanner) Plan(ctx context.Context, req contract.PlannerRequest) (contract.PlannerResponse, error) {
	a := p.analyzeQuery(ctx, req.Query)
	ap := p.searchPlan(a)

	if err := ap.Validate(); err != nil {
		log.Error().Err(err).Str("plan_id", ap.PlanID).Str("domain", string(p.domain)).Msg("search plan invalid")
		return p.fallbackResponse(p.fallbackGoal, p.fallbackAsk), nil
	}

	requiresClarification := len(a.MissingRequirements) > 2
	var questions []string
	if requiresClarification {
		questions = p.clarificationQuestions(ctx, req.Query, a.MissingRequirements)
	}

	return contract.PlannerResponse{
		Plan:                   ap,
		Confidence:             0.85,
		Reasoning:              fmt.Sprintf("created %s plan with %d steps", p.scenario, len(ap.Steps)),
		RequiresClarification:  requiresClarification,
		ClarificationQuestions: questions,
	}, nil
}

func (p *SearchPlanner) searchPlan(a analysis) *planx.ActionPlan {
	planID := planx.NewID(string(p.domain))

	steps := []planx.ActionStep{
		{
			StepID:      planID + p.searchStep,
			Description: "Search for listings matching criteria",
			Kind:        planx.KindSearch,
			Metadata:    map[string]any{"search_criteria": a.ExplicitRequirements},
		},
		{
			StepID:       planID + "_present_results",
			Description:  "Present search results",
			Kind:         planx.KindExecute,
			RequiredData: []string{"search_results"},
			Dependencies: []string{planID + p.searchStep},
		},
	}

	return &planx.ActionPlan{
		PlanID:         planID,
		Domain:         string(p.domain),
		Goal:           p.goal,
		Steps:          steps,
		EstimatedTurns: 1,
		Metadata:       map[string]any{"scenario": p.scenario},
	}
}
