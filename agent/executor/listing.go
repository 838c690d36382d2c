package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wareechai/trio-concierge/agent/contract"
	"github.com/wareechai/trio-concierge/agent/listing"
	planx "github.com/wareechai/trio-concierge/agent/plan"
)

func stepIDs(steps []planx.ActionStep) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.StepID
	}
	return ids
}

// PropertiesExecutor runs property search plans in a single shot: it
// searches by the plan's criteria and presents the results.
type PropertiesExecutor struct {
	source listing.PropertySource
}

var _ contract.Executor = (*PropertiesExecutor)(nil)

func NewPropertiesExecutor(source listing.PropertySource) *PropertiesExecutor {
	return &PropertiesExecutor{source: source}
}

func (e *PropertiesExecutor) Execute(ctx context.Context, req contract.ExecutorRequest) (contract.ExecutorResponse, error) {
	if req.Plan == nil || len(req.Plan.Steps) == 0 {
		return contract.ExecutorResponse{}, fmt.Errorf("%w: empty plan", contract.ErrValidation)
	}

	criteria := propertyCriteria(req.Plan.Steps[0].Metadata)
	properties, err := e.source.SearchProperties(ctx, criteria)
	if err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("property search failed")
		return contract.ExecutorResponse{
			Content:  "I encountered an error searching for properties. Please try again.",
			Metadata: map[string]any{"error": err.Error()},
		}, nil
	}

	return contract.ExecutorResponse{
		Content:        formatProperties(properties),
		CompletedSteps: stepIDs(req.Plan.Steps),
		PlanCompleted:  true,
		Metadata:       map[string]any{"property_count": len(properties)},
	}, nil
}

// EducationExecutor runs school search plans the same way.
type EducationExecutor struct {
	source listing.SchoolSource
}

var _ contract.Executor = (*EducationExecutor)(nil)

func NewEducationExecutor(source listing.SchoolSource) *EducationExecutor {
	return &EducationExecutor{source: source}
}

func (e *EducationExecutor) Execute(ctx context.Context, req contract.ExecutorRequest) (contract.ExecutorResponse, error) {
	if req.Plan == nil || len(req.Plan.Steps) == 0 {
		return contract.ExecutorResponse{}, fmt.Errorf("%w: empty plan", contract.ErrValidation)
	}

	criteria := schoolCriteria(req.Plan.Steps[0].Metadata)
	schools, err := e.source.SearchSchools(ctx, criteria)
	if err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("school search failed")
		return contract.ExecutorResponse{
			Content:  "I encountered an error searching for schools. Please try again.",
			Metadata: map[string]any{"error": err.Error()},
		}, nil
	}

	return contract.ExecutorResponse{
		Content:        formatSchools(schools),
		CompletedSteps: stepIDs(req.Plan.Steps),
		PlanCompleted:  true,
		Metadata:       map[string]any{"school_count": len(schools)},
	}, nil
}

// propertyCriteria reads the planner's search criteria out of step
// metadata. The analysis payload is model-produced, so numbers arrive
// as float64.
func propertyCriteria(metadata map[string]any) listing.PropertyCriteria {
	var criteria listing.PropertyCriteria
	raw, ok := metadata["search_criteria"].(map[string]any)
	if !ok {
		return criteria
	}
	if v, ok := raw["bedrooms"].(float64); ok {
		criteria.MinBedrooms = int(v)
	}
	return criteria
}

func schoolCriteria(metadata map[string]any) listing.SchoolCriteria {
	var criteria listing.SchoolCriteria
	raw, ok := metadata["search_criteria"].(map[string]any)
	if !ok {
		return criteria
	}
	if v, ok := raw["grades"].(string); ok {
		criteria.Grades = v
	}
	if v, ok := raw["min_rating"].(float64); ok {
		criteria.MinRating = v
	}
	return criteria
}

func formatProperties(properties []listing.Property) string {
	if len(properties) == 0 {
		return "I couldn't find any properties matching your criteria. Would you like to adjust your search?"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d properties for you:\n\n", len(properties))
	for i, p := range properties {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Address)
		fmt.Fprintf(&b, "   Price: %s\n", p.Price)
		fmt.Fprintf(&b, "   Bedrooms: %d | Bathrooms: %g\n", p.Bedrooms, p.Bathrooms)
		fmt.Fprintf(&b, "   Size: %d sqft\n", p.SquareFt)
		fmt.Fprintf(&b, "   Type: %s\n", p.Type)
		if len(p.Amenities) > 0 {
			fmt.Fprintf(&b, "   Amenities: %s\n", strings.Join(p.Amenities, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString("Would you like more details on any of these properties?")
	return b.String()
}

func formatSchools(schools []listing.School) string {
	if len(schools) == 0 {
		return "I couldn't find any schools matching your criteria. Would you like to adjust your search?"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d schools for you:\n\n", len(schools))
	for i, s := range schools {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.Name)
		fmt.Fprintf(&b, "   Type: %s\n", s.Type)
		fmt.Fprintf(&b, "   Address: %s\n", s.Address)
		fmt.Fprintf(&b, "   Rating: %.1f/5\n", s.Rating)
		fmt.Fprintf(&b, "   Grades: %s\n", s.Grades)
		fmt.Fprintf(&b, "   Students: %d\n", s.Students)
		if len(s.Programs) > 0 {
			fmt.Fprintf(&b, "   Programs: %s\n", strings.Join(s.Programs, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString("Would you like more details on any of these schools?")
	return b.String()
}
