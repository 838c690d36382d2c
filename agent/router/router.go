// Package router classifies user queries into assistant domains.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wareechai/trio-concierge/agent/contract"
	"github.com/wareechai/trio-concierge/agent/llmjson"
	statex "github.com/wareechai/trio-concierge/agent/state"
)

// historyContext is how many recent turns are quoted in the prompt.
const historyContext = 3

var domainDescriptions = map[contract.Domain]string{
	contract.DomainBooking:    "Restaurant reservations, dining recommendations, table bookings, food-related queries",
	contract.DomainProperties: "Real estate search, property listings, housing, apartments, rentals, buying/selling homes",
	contract.DomainEducation:  "Schools, educational resources, children profiles, school districts, educational planning",
}

var domainKeywords = map[contract.Domain][]string{
	contract.DomainBooking:    {"restaurant", "book", "table", "dining", "food", "eat"},
	contract.DomainProperties: {"property", "apartment", "house", "rent", "real estate"},
	contract.DomainEducation:  {"school", "education", "child", "student", "learning"},
}

// Router decides which domain owns a query. It never returns an error:
// every failure degrades down the parse chain and bottoms out at an
// unclear decision with zero confidence.
type Router struct {
	llm contract.Completer
}

var _ contract.Router = (*Router)(nil)

func New(llm contract.Completer) *Router {
	return &Router{llm: llm}
}

type routingPayload struct {
	Domain                string   `json:"domain"`
	Confidence            float64  `json:"confidence"`
	Reasoning             string   `json:"reasoning"`
	IsMultiDomain         bool     `json:"is_multi_domain"`
	Domains               []string `json:"domains"`
	RequiresClarification bool     `json:"requires_clarification"`
}

func (r *Router) Route(ctx context.Context, query, sessionID string, history []statex.MemoryEntry) contract.RoutingDecision {
	raw, err := r.llm.Generate(ctx, systemPrompt(), []contract.Message{
		{Role: contract.RoleUser, Content: buildPrompt(query, history)},
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("routing model call failed")
		return unclearDecision("routing model call failed")
	}

	decision := parseResponse(raw)
	log.Info().
		Str("session_id", sessionID).
		Str("domain", string(decision.Domain)).
		Float64("confidence", decision.Confidence).
		Msg("routing decision")
	return decision
}

func systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are an intelligent routing agent that analyzes user queries and determines which domain should handle them.\n\nAvailable domains:\n")
	for _, d := range contract.KnownDomains {
		fmt.Fprintf(&b, "- %s: %s\n", d, domainDescriptions[d])
	}
	b.WriteString(`
Your task:
1. Analyze the user query carefully
2. Consider conversation context and history
3. Determine the most appropriate domain
4. Assess confidence in your decision
5. Identify if the query spans multiple domains
6. Determine if clarification is needed

Guidelines:
- Use context from previous messages to improve routing
- Be confident when the domain is clear
- Request clarification when the query is ambiguous
- Identify multi-domain queries (e.g., "book a restaurant near this property")
- Default to "unclear" if you cannot confidently route
`)
	return b.String()
}

func buildPrompt(query string, history []statex.MemoryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this user query and determine the appropriate domain:\n\nUser Query: %q\n", query)

	if len(history) > 0 {
		recent := history
		if len(recent) > historyContext {
			recent = recent[len(recent)-historyContext:]
		}
		b.WriteString("\nRecent Conversation:\n")
		for _, msg := range recent {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
	}

	b.WriteString(`
Respond in JSON format:
{
    "domain": "booking|properties|education|unclear",
    "confidence": 0.0-1.0,
    "reasoning": "explanation of your decision",
    "is_multi_domain": false,
    "domains": [],
    "requires_clarification": false
}
`)
	return b.String()
}

// parseResponse walks the fallback chain: structured decode, then a
// domain-name scan (0.7), then keyword lists (0.8), then unclear.
func parseResponse(raw string) contract.RoutingDecision {
	res, err := llmjson.Decode[routingPayload](raw)
	if err == nil {
		return decisionFromPayload(res.Value)
	}

	lower := strings.ToLower(raw)
	for _, d := range contract.KnownDomains {
		if strings.Contains(lower, string(d)) {
			return contract.RoutingDecision{
				Domain:     d,
				Confidence: 0.7,
				Reasoning:  "extracted domain from text response",
				Domains:    []contract.Domain{d},
			}
		}
	}

	for _, d := range contract.KnownDomains {
		for _, word := range domainKeywords[d] {
			if strings.Contains(lower, word) {
				return contract.RoutingDecision{
					Domain:     d,
					Confidence: 0.8,
					Reasoning:  fmt.Sprintf("detected %s keywords in response", d),
					Domains:    []contract.Domain{d},
				}
			}
		}
	}

	return unclearDecision("could not parse routing response")
}

func decisionFromPayload(p routingPayload) contract.RoutingDecision {
	domain, known := contract.ParseDomain(strings.ToLower(strings.TrimSpace(p.Domain)))
	if !known {
		domain = contract.DomainUnclear
	}

	confidence := p.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	reasoning := strings.TrimSpace(p.Reasoning)
	if reasoning == "" {
		reasoning = "no reasoning provided"
	}

	var domains []contract.Domain
	for _, raw := range p.Domains {
		if d, ok := contract.ParseDomain(strings.ToLower(strings.TrimSpace(raw))); ok && d != contract.DomainUnclear {
			domains = append(domains, d)
		}
	}
	if len(domains) == 0 && domain != contract.DomainUnclear {
		domains = []contract.Domain{domain}
	}

	return contract.RoutingDecision{
		Domain:                domain,
		Confidence:            confidence,
		Reasoning:             reasoning,
		IsMultiDomain:         p.IsMultiDomain,
		Domains:               domains,
		RequiresClarification: p.RequiresClarification,
	}
}

func unclearDecision(reason string) contract.RoutingDecision {
	return contract.RoutingDecision{
		Domain:                contract.DomainUnclear,
		Confidence:            0.0,
		Reasoning:             reason,
		RequiresClarification: true,
	}
}

// ClarificationMessage renders the menu shown when routing cannot pick
// a single domain.
func ClarificationMessage(decision contract.RoutingDecision) string {
	if decision.IsMultiDomain && len(decision.Domains) > 0 {
		names := make([]string, len(decision.Domains))
		for i, d := range decision.Domains {
			names[i] = string(d)
		}
		return fmt.Sprintf(`I noticed your query might involve multiple areas: %s.

Could you clarify which aspect you'd like help with first?

- Restaurant Bookings: find and reserve tables
- Property Search: search for homes and apartments
- Education: find schools and educational resources
`, strings.Join(names, ", "))
	}

	return `I'd be happy to help! I can assist you with:

- Restaurant Bookings: find and reserve tables at restaurants
- Property Search: search for apartments, houses, and rentals
- Education: find schools and manage children's educational needs

Could you please clarify what you're looking for?`
}
