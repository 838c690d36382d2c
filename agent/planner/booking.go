package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wareechai/trio-concierge/agent/contract"
	planx "github.com/wareechai/trio-concierge/agent/plan"
)

// Booking scenarios, decided from the analysis before any plan is
// synthesized.
const (
	scenarioSpecificWithDetails = "specific_restaurant_with_details"
	scenarioSpecificNoDetails   = "specific_restaurant_no_details"
	scenarioGeneralSearch       = "general_search"
	scenarioUnclear             = "unclear"
)

var (
	searchWords  = []string{"search", "find", "show", "list", "browse"}
	bookingWords = []string{"book", "reserve", "table", "reservation", "dining"}
)

// BookingPlanner plans restaurant reservation workflows.
type BookingPlanner struct {
	core
}

var _ contract.Planner = (*BookingPlanner)(nil)

func NewBookingPlanner(llm contract.Completer) *BookingPlanner {
	return &BookingPlanner{core: core{
		llm:         llm,
		domain:      contract.DomainBooking,
		description: "Plans restaurant reservation workflows including search, selection, and booking",
		capabilities: `I can plan workflows for:
- Restaurant search and discovery
- Specific restaurant bookings
- Table availability checking
- Multi-step reservation processes
- Information collection (date, time, party size, contact details)
`,
	}}
}

// Plan degrades to a low-confidence fallback plan rather than failing;
// the error return satisfies the port and is always nil here.
func (p *BookingPlanner) Plan(ctx context.Context, req contract.PlannerRequest) (contract.PlannerResponse, error) {
	a := p.analyzeQuery(ctx, req.Query)
	scenario := determineScenario(req.Query, a)

	var ap *planx.ActionPlan
	switch scenario {
	case scenarioSpecificWithDetails:
		ap = specificBookingPlan(a)
	case scenarioSpecificNoDetails:
		ap = infoCollectionPlan(a)
	case scenarioGeneralSearch:
		ap = searchAndBookPlan(a)
	default:
		ap = clarificationPlan(a)
	}

	if err := ap.Validate(); err != nil {
		log.Error().Err(err).Str("plan_id", ap.PlanID).Msg("booking plan invalid")
		return p.fallbackResponse("Handle booking request",
			"Could you provide more details about your restaurant booking?"), nil
	}

	confidence := 0.9
	if scenario == scenarioUnclear {
		confidence = 0.3
	}

	requiresClarification := len(a.MissingRequirements) > 3
	var questions []string
	if requiresClarification {
		questions = p.clarificationQuestions(ctx, req.Query, a.MissingRequirements)
	}

	return contract.PlannerResponse{
		Plan:                   ap,
		Confidence:             confidence,
		Reasoning:              fmt.Sprintf("created %s plan with %d steps", scenario, len(ap.Steps)),
		RequiresClarification:  requiresClarification,
		ClarificationQuestions: questions,
	}, nil
}

func determineScenario(query string, a analysis) string {
	queryLower := strings.ToLower(query)

	_, hasRestaurant := a.ExplicitRequirements["restaurant_name"]
	_, hasDate := a.ExplicitRequirements["date"]
	_, hasTime := a.ExplicitRequirements["time"]
	_, hasPartySize := a.ExplicitRequirements["party_size"]

	switch {
	case hasRestaurant && (hasDate || hasTime) && hasPartySize:
		return scenarioSpecificWithDetails
	case hasRestaurant:
		return scenarioSpecificNoDetails
	case containsAnyWord(queryLower, searchWords):
		return scenarioGeneralSearch
	case containsAnyWord(queryLower, bookingWords):
		// Booking intent without details still begins with a search.
		return scenarioGeneralSearch
	default:
		return scenarioUnclear
	}
}

func specificBookingPlan(a analysis) *planx.ActionPlan {
	planID := planx.NewID("booking")

	steps := []planx.ActionStep{
		{
			StepID:       planID + "_verify_restaurant",
			Description:  "Verify restaurant exists and get details",
			Kind:         planx.KindSearch,
			RequiredData: []string{"restaurant_name"},
			Metadata:     map[string]any{"restaurant_name": a.ExplicitRequirements["restaurant_name"]},
		},
		{
			StepID:       planID + "_check_availability",
			Description:  "Check table availability for requested date/time",
			Kind:         planx.KindValidate,
			RequiredData: []string{"restaurant_id", "date", "time", "party_size"},
			Dependencies: []string{planID + "_verify_restaurant"},
		},
		{
			StepID:       planID + "_collect_contact",
			Description:  "Collect customer contact information",
			Kind:         planx.KindCollectInfo,
			RequiredData: []string{"name", "email", "phone"},
			Dependencies: []string{planID + "_check_availability"},
		},
		{
			StepID:       planID + "_create_booking",
			Description:  "Create the reservation",
			Kind:         planx.KindExecute,
			RequiredData: []string{"restaurant_id", "date", "time", "party_size", "name", "email", "phone"},
			Dependencies: []string{planID + "_collect_contact"},
		},
	}

	return &planx.ActionPlan{
		PlanID:            planID,
		Domain:            string(contract.DomainBooking),
		Goal:              "Book a table at a specific restaurant",
		Steps:             steps,
		EstimatedTurns:    3,
		RequiresUserInput: true,
		Metadata:          map[string]any{"scenario": "specific_with_details"},
	}
}

func infoCollectionPlan(a analysis) *planx.ActionPlan {
	planID := planx.NewID("booking")

	steps := []planx.ActionStep{{
		StepID:       planID + "_verify_restaurant",
		Description:  "Verify restaurant and show details",
		Kind:         planx.KindSearch,
		RequiredData: []string{"restaurant_name"},
		Metadata:     map[string]any{"restaurant_name": a.ExplicitRequirements["restaurant_name"]},
	}}

	missing := map[string]bool{}
	for _, m := range a.MissingRequirements {
		missing[m] = true
	}

	if missing["date"] || missing["time"] {
		steps = append(steps, planx.ActionStep{
			StepID:       planID + "_collect_datetime",
			Description:  "Collect date and time for reservation",
			Kind:         planx.KindCollectInfo,
			RequiredData: []string{"date", "time"},
			Dependencies: []string{planID + "_verify_restaurant"},
		})
	}
	if missing["party_size"] {
		steps = append(steps, planx.ActionStep{
			StepID:       planID + "_collect_party_size",
			Description:  "Collect number of guests",
			Kind:         planx.KindCollectInfo,
			RequiredData: []string{"party_size"},
			Dependencies: []string{planID + "_verify_restaurant"},
		})
	}

	var collectDeps []string
	for _, s := range steps {
		if strings.Contains(s.StepID, "collect") {
			collectDeps = append(collectDeps, s.StepID)
		}
	}

	steps = append(steps,
		planx.ActionStep{
			StepID:       planID + "_check_availability",
			Description:  "Check table availability",
			Kind:         planx.KindValidate,
			RequiredData: []string{"restaurant_id", "date", "time", "party_size"},
			Dependencies: collectDeps,
		},
		planx.ActionStep{
			StepID:       planID + "_collect_contact",
			Description:  "Collect contact information",
			Kind:         planx.KindCollectInfo,
			RequiredData: []string{"name", "email", "phone"},
			Dependencies: []string{planID + "_check_availability"},
		},
		planx.ActionStep{
			StepID:       planID + "_create_booking",
			Description:  "Create the reservation",
			Kind:         planx.KindExecute,
			RequiredData: []string{"restaurant_id", "date", "time", "party_size", "name", "email", "phone"},
			Dependencies: []string{planID + "_collect_contact"},
		},
	)

	turns := 2
	for _, s := range steps {
		if s.Kind == planx.KindCollectInfo {
			turns++
		}
	}

	return &planx.ActionPlan{
		PlanID:            planID,
		Domain:            string(contract.DomainBooking),
		Goal:              "Book a table at specified restaurant",
		Steps:             steps,
		EstimatedTurns:    turns,
		RequiresUserInput: true,
		Metadata:          map[string]any{"scenario": "specific_no_details"},
	}
}

func searchAndBookPlan(a analysis) *planx.ActionPlan {
	planID := planx.NewID("booking")

	steps := []planx.ActionStep{
		{
			StepID:      planID + "_search_restaurants",
			Description: "Search for restaurants matching criteria",
			Kind:        planx.KindSearch,
			Metadata:    map[string]any{"search_criteria": a.ExplicitRequirements},
		},
		{
			StepID:       planID + "_select_restaurant",
			Description:  "User selects a restaurant from results",
			Kind:         planx.KindCollectInfo,
			RequiredData: []string{"selected_restaurant"},
			Dependencies: []string{planID + "_search_restaurants"},
		},
		{
			StepID:       planID + "_collect_datetime",
			Description:  "Collect reservation date and time",
			Kind:         planx.KindCollectInfo,
			RequiredData: []string{"date", "time"},
			Dependencies: []string{planID + "_select_restaurant"},
		},
		{
			StepID:       planID + "_collect_party_size",
			Description:  "Collect number of guests",
			Kind:         planx.KindCollectInfo,
			RequiredData: []string{"party_size"},
			Dependencies: []string{planID + "_select_restaurant"},
		},
		{
			StepID:       planID + "_check_availability",
			Description:  "Check table availability",
			Kind:         planx.KindValidate,
			RequiredData: []string{"restaurant_id", "date", "time", "party_size"},
			Dependencies: []string{planID + "_collect_datetime", planID + "_collect_party_size"},
		},
		{
			StepID:       planID + "_collect_contact",
			Description:  "Collect contact information",
			Kind:         planx.KindCollectInfo,
			RequiredData: []string{"name", "email", "phone"},
			Dependencies: []string{planID + "_check_availability"},
		},
		{
			StepID:       planID + "_create_booking",
			Description:  "Create the reservation",
			Kind:         planx.KindExecute,
			RequiredData: []string{"restaurant_id", "date", "time", "party_size", "name", "email", "phone"},
			Dependencies: []string{planID + "_collect_contact"},
		},
	}

	return &planx.ActionPlan{
		PlanID:            planID,
		Domain:            string(contract.DomainBooking),
		Goal:              "Search for restaurants and make a reservation",
		Steps:             steps,
		EstimatedTurns:    6,
		RequiresUserInput: true,
		Metadata:          map[string]any{"scenario": "search_and_book"},
	}
}

func clarificationPlan(a analysis) *planx.ActionPlan {
	planID := planx.NewID("booking")

	return &planx.ActionPlan{
		PlanID: planID,
		Domain: string(contract.DomainBooking),
		Goal:   "Clarify booking intent",
		Steps: []planx.ActionStep{{
			StepID:       planID + "_clarify_intent",
			Description:  "Ask user to clarify their booking intent",
			Kind:         planx.KindCollectInfo,
			RequiredData: []string{"clarified_intent"},
			Metadata:     map[string]any{"missing_info": a.MissingRequirements},
		}},
		EstimatedTurns:    1,
		RequiresUserInput: true,
		Metadata:          map[string]any{"scenario": "clarification"},
	}
}
