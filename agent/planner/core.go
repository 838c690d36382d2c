// Package planner turns routed queries into validated action plans.
// Each domain planner shares one analysis core: the model proposes an
// analysis, the planner synthesizes a deterministic template plan from
// it, and validation gates what leaves the package.
package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wareechai/trio-concierge/agent/contract"
	"github.com/wareechai/trio-concierge/agent/llmjson"
	planx "github.com/wareechai/trio-concierge/agent/plan"
)

// analysis is the model's reading of a query. A failed model call or
// undecodable reply degrades to the neutral envelope rather than
// failing the plan.
type analysis struct {
	Intent               string         `json:"intent"`
	ExplicitRequirements map[string]any `json:"explicit_requirements"`
	MissingRequirements  []string       `json:"missing_requirements"`
	Complexity           string         `json:"complexity"`
	EstimatedTurns       int            `json:"estimated_turns"`
}

func neutralAnalysis() analysis {
	return analysis{
		Intent:               "unknown",
		ExplicitRequirements: map[string]any{},
		Complexity:           "moderate",
		EstimatedTurns:       2,
	}
}

// core is the shared planning machinery embedded by domain planners.
type core struct {
	llm          contract.Completer
	domain       contract.Domain
	description  string
	capabilities string
}

func (c *core) systemPrompt() string {
	return fmt.Sprintf(`You are a planning agent for the %s domain.

Your role: %s

Capabilities: %s

Your task is to analyze user queries and create detailed action plans that include:
1. Breaking down the request into actionable steps
2. Identifying required information
3. Determining dependencies between steps
4. Estimating conversation complexity

Guidelines:
- Create clear, sequential steps
- Identify missing information early
- Plan for multi-turn conversations when needed
- Consider user context and history
- Be specific about data requirements
- Validate plan feasibility before returning
`, c.domain, c.description, c.capabilities)
}

func (c *core) analyzeQuery(ctx context.Context, query string) analysis {
	prompt := fmt.Sprintf(`Analyze the following user query for the %s domain:

Query: %q

Extract:
1. Primary intent (what the user wants to accomplish)
2. Explicit requirements (information provided by user)
3. Missing requirements (information needed but not provided)
4. Complexity level (simple/moderate/complex)
5. Estimated conversation turns needed

Respond in JSON format:
{
    "intent": "...",
    "explicit_requirements": {},
    "missing_requirements": [],
    "complexity": "simple|moderate|complex",
    "estimated_turns": 1
}
`, c.domain, query)

	raw, err := c.llm.Generate(ctx, c.systemPrompt(), []contract.Message{{Role: contract.RoleUser, Content: prompt}})
	if err != nil {
		log.Warn().Err(err).Str("domain", string(c.domain)).Msg("query analysis failed")
		return neutralAnalysis()
	}

	res, err := llmjson.Decode[analysis](raw)
	if err != nil {
		log.Warn().Err(err).Str("domain", string(c.domain)).Msg("query analysis undecodable")
		return neutralAnalysis()
	}

	a := res.Value
	if a.ExplicitRequirements == nil {
		a.ExplicitRequirements = map[string]any{}
	}
	return a
}

func (c *core) clarificationQuestions(ctx context.Context, query string, missing []string) []string {
	if len(missing) == 0 {
		return nil
	}

	prompt := fmt.Sprintf(`Given this user query: %q

The following information is missing: %s

Generate 1-3 friendly clarification questions to gather this information.
Return as a JSON array of strings.
`, query, strings.Join(missing, ", "))

	raw, err := c.llm.Generate(ctx, "", []contract.Message{{Role: contract.RoleUser, Content: prompt}})
	if err == nil {
		if res, decodeErr := llmjson.Decode[[]string](raw); decodeErr == nil && len(res.Value) > 0 {
			return res.Value
		}
	}
	return []string{fmt.Sprintf("Could you provide more details about %s?", strings.Join(missing, ", "))}
}

func (c *core) fallbackResponse(goal, question string) contract.PlannerResponse {
	planID := planx.NewID(string(c.domain))
	fallback := &planx.ActionPlan{
		PlanID: planID,
		Domain: string(c.domain),
		Goal:   goal,
		Steps: []planx.ActionStep{
			{
				StepID:      planID + "_fallback",
				Description: "Provide general assistance",
				Kind:        planx.KindCollectInfo,
			},
		},
		EstimatedTurns:    1,
		RequiresUserInput: true,
		Metadata:          map[string]any{"scenario": "fallback"},
	}

	return contract.PlannerResponse{
		Plan:                   fallback,
		Confidence:             0.3,
		Reasoning:              "created fallback plan due to planning error",
		RequiresClarification:  true,
		ClarificationQuestions: []string{question},
	}
}

func containsAnyWord(query string, words []string) bool {
	for _, w := range words {
		if strings.Contains(query, w) {
			return true
		}
	}
	return false
}
