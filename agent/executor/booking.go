package executor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wareechai/trio-concierge/agent/booking"
	"github.com/wareechai/trio-concierge/agent/contract"
	planx "github.com/wareechai/trio-concierge/agent/plan"
	"github.com/wareechai/trio-concierge/agent/state"
)

const listLimit = 5

// BookingExecutor drives restaurant reservation plans: searches and
// lookups, availability validation, contact collection, and booking
// creation. Progress persists in the execution context store, so a plan
// survives process restarts mid-conversation.
type BookingExecutor struct {
	llm      contract.Completer
	catalog  *booking.Catalog
	svc      booking.DataService
	contexts *state.ContextStore
}

var _ contract.Executor = (*BookingExecutor)(nil)

func NewBookingExecutor(llm contract.Completer, catalog *booking.Catalog, svc booking.DataService, contexts *state.ContextStore) *BookingExecutor {
	return &BookingExecutor{llm: llm, catalog: catalog, svc: svc, contexts: contexts}
}

func (e *BookingExecutor) Execute(ctx context.Context, req contract.ExecutorRequest) (contract.ExecutorResponse, error) {
	if req.Plan == nil {
		return contract.ExecutorResponse{}, fmt.Errorf("%w: nil plan", contract.ErrValidation)
	}

	ec, err := e.contexts.Load(ctx, string(contract.DomainBooking), req.SessionID, req.Plan.PlanID)
	if err != nil {
		return contract.ExecutorResponse{}, fmt.Errorf("load execution context: %w", err)
	}

	// A turn that answers a pending step folds the input in first.
	// Collect_info and search steps complete once their data is in;
	// validate and execute steps still have to run against the
	// collected data.
	if req.CurrentStepID != "" && req.UserInput != "" {
		if step, ok := req.Plan.Step(req.CurrentStepID); ok {
			e.absorbUserInput(ctx, step, req.UserInput, ec)
			switch step.Kind {
			case planx.KindCollectInfo, planx.KindSearch:
				if len(missingRequired(step, ec.CollectedData)) == 0 {
					ec.MarkCompleted(step.StepID)
				}
			}
		}
	}

	next := req.Plan.NextEligible(ec.CompletedSet())
	if next == nil {
		resp := e.completionResponse(ec)
		if err := e.contexts.Clear(ctx, string(contract.DomainBooking), req.SessionID); err != nil {
			log.Warn().Err(err).Str("session_id", req.SessionID).Msg("execution context clear failed")
		}
		return resp, nil
	}

	result := e.executeStep(ctx, next, req.UserInput, ec)

	var resp contract.ExecutorResponse
	if result.success && !result.requiresUserInput {
		ec.MarkCompleted(next.StepID)
		following := req.Plan.NextEligible(ec.CompletedSet())

		resp = contract.ExecutorResponse{
			Content:           result.message,
			CompletedSteps:    ec.CompletedSteps,
			CurrentStepID:     next.StepID,
			PlanCompleted:     req.Plan.Completed(ec.CompletedSet()),
			RequiresUserInput: following != nil && following.Kind == planx.KindCollectInfo,
			Metadata: map[string]any{
				"step_type":      string(next.Kind),
				"collected_data": ec.CollectedData,
			},
		}
		if following != nil {
			resp.NextStepID = following.StepID
		}
	} else {
		resp = contract.ExecutorResponse{
			Content:           result.message,
			CompletedSteps:    ec.CompletedSteps,
			CurrentStepID:     next.StepID,
			NextStepID:        next.StepID,
			RequiresUserInput: true,
			Metadata: map[string]any{
				"step_type":      string(next.Kind),
				"awaiting_input": result.awaitingInput,
			},
		}
		if resp.Metadata["awaiting_input"] == "" {
			resp.Metadata["awaiting_input"] = "user_response"
		}
	}

	if err := e.contexts.Save(ctx, string(contract.DomainBooking), req.SessionID, ec); err != nil {
		log.Warn().Err(err).Str("session_id", req.SessionID).Msg("execution context save failed")
	}
	return resp, nil
}

func (e *BookingExecutor) executeStep(ctx context.Context, step *planx.ActionStep, userInput string, ec *state.ExecutionContext) stepResult {
	log.Info().Str("step_id", step.StepID).Str("kind", string(step.Kind)).Msg("executing booking step")

	switch step.Kind {
	case planx.KindSearch:
		return e.executeSearch(ctx, step, ec)
	case planx.KindValidate:
		return e.executeValidation(ctx, step, ec)
	case planx.KindCollectInfo:
		return e.executeCollection(step, ec)
	case planx.KindExecute:
		return e.executeBooking(ctx, step, ec)
	default:
		return stepResult{message: fmt.Sprintf("Unknown action type: %s", step.Kind)}
	}
}

func (e *BookingExecutor) executeSearch(ctx context.Context, step *planx.ActionStep, ec *state.ExecutionContext) stepResult {
	name, _ := step.Metadata["restaurant_name"].(string)

	if name != "" {
		restaurant, ok := e.catalog.FindByName(ctx, name, booking.MatchThreshold)
		if !ok {
			return stepResult{
				message:           fmt.Sprintf("Could not find restaurant %q", name),
				requiresUserInput: true,
				awaitingInput:     "restaurant_name",
			}
		}

		ec.Collect("restaurant_id", restaurant.ID)
		ec.Collect("restaurant_name", restaurant.Name)
		return stepResult{success: true, message: restaurantCard(restaurant)}
	}

	restaurants := e.catalog.All(ctx)
	if len(restaurants) == 0 {
		return stepResult{message: "Error searching for restaurants"}
	}
	return stepResult{
		success:           true,
		message:           restaurantList(restaurants),
		requiresUserInput: true,
		awaitingInput:     "restaurant_selection",
	}
}

func (e *BookingExecutor) executeValidation(ctx context.Context, step *planx.ActionStep, ec *state.ExecutionContext) stepResult {
	if missing := missingRequired(step, ec.CollectedData); len(missing) > 0 {
		return stepResult{
			message:           "Missing required information: " + joinFields(missing),
			requiresUserInput: true,
			awaitingInput:     missing[0],
		}
	}

	collected := ec.CollectedData
	startDate, err := time.Parse("2006-01-02", collected["date"])
	if err != nil {
		return stepResult{
			message:           fmt.Sprintf("I couldn't understand the date %q. Could you give it as YYYY-MM-DD?", collected["date"]),
			requiresUserInput: true,
			awaitingInput:     "date",
		}
	}

	slots, err := e.svc.CheckAvailability(ctx, collected["restaurant_id"], startDate, 1)
	if err != nil {
		log.Error().Err(err).Str("restaurant_id", collected["restaurant_id"]).Msg("availability check failed")
		return stepResult{message: "Error checking availability"}
	}

	partySize, _ := strconv.Atoi(collected["party_size"])
	for _, slot := range slots {
		if slot.Date == collected["date"] && slot.Time == collected["time"] && slot.Available {
			if partySize > 0 && slot.MaxGuests > 0 && partySize > slot.MaxGuests {
				continue
			}
			return stepResult{success: true, message: "Great news! A table is available for your requested time."}
		}
	}

	return stepResult{
		message:           "Sorry, no tables available for that time. Please choose a different time.",
		requiresUserInput: true,
		awaitingInput:     "datetime",
	}
}

func (e *BookingExecutor) executeCollection(step *planx.ActionStep, ec *state.ExecutionContext) stepResult {
	if len(step.RequiredData) == 0 {
		return stepResult{success: true, message: "No information needed"}
	}

	if missing := missingRequired(step, ec.CollectedData); len(missing) > 0 {
		return stepResult{
			message:           collectionPrompt(missing[0]),
			requiresUserInput: true,
			awaitingInput:     missing[0],
		}
	}
	return stepResult{success: true, message: "All information collected"}
}

func (e *BookingExecutor) executeBooking(ctx context.Context, step *planx.ActionStep, ec *state.ExecutionContext) stepResult {
	if missing := missingRequired(step, ec.CollectedData); len(missing) > 0 {
		return stepResult{
			message:           "Cannot create booking: missing " + joinFields(missing),
			requiresUserInput: true,
			awaitingInput:     missing[0],
		}
	}

	collected := ec.CollectedData
	partySize, _ := strconv.Atoi(collected["party_size"])

	confirmation, err := e.svc.CreateBooking(ctx, booking.BookingRequest{
		RestaurantID:   collected["restaurant_id"],
		RestaurantName: collected["restaurant_name"],
		Date:           collected["date"],
		Time:           collected["time"],
		GuestCount:     partySize,
		UserName:       collected["name"],
		Email:          collected["email"],
		Phone:          collected["phone"],
	})
	if err != nil {
		log.Error().Err(err).Msg("booking creation failed")
		return stepResult{message: "Failed to create booking. Please try again."}
	}

	ec.Collect("confirmation_number", confirmation.ConfirmationNumber)
	return stepResult{success: true, message: confirmationMessage(confirmation)}
}

// absorbUserInput folds a reply into the collected data for the step it
// answers. Extraction failures leave the field missing, so the step
// stays open and re-asks.
func (e *BookingExecutor) absorbUserInput(ctx context.Context, step *planx.ActionStep, input string, ec *state.ExecutionContext) {
	fields := step.RequiredData
	if step.Kind == planx.KindSearch {
		// A search step that rendered a numbered list awaits the
		// selection on behalf of the collect step that follows it.
		fields = append(append([]string(nil), fields...), "selected_restaurant")
	}

	if containsField(fields, "date") || containsField(fields, "time") {
		parts := extractDateTime(ctx, e.llm, input)
		if parts.Date != "" {
			ec.Collect("date", parts.Date)
		}
		if parts.Time != "" {
			ec.Collect("time", parts.Time)
		}
	}

	if containsField(fields, "party_size") || containsField(fields, "guest_count") {
		if n, ok := extractNumber(input); ok {
			ec.Collect("party_size", strconv.Itoa(n))
			ec.Collect("guest_count", strconv.Itoa(n))
		}
	}

	// Name is free text, so it is taken once and not overwritten by the
	// replies that answer the later contact prompts.
	if containsField(fields, "name") && ec.CollectedData["name"] == "" {
		if _, looksLikeEmail := extractEmail(input); !looksLikeEmail {
			ec.Collect("name", strings.TrimSpace(input))
		}
	}

	if containsField(fields, "email") {
		if email, ok := extractEmail(input); ok {
			ec.Collect("email", email)
		}
	}

	if containsField(fields, "phone") {
		if phone, ok := extractPhone(input); ok {
			ec.Collect("phone", phone)
		}
	}

	if containsField(fields, "selected_restaurant") {
		if n, ok := extractNumber(input); ok {
			restaurants := e.catalog.All(ctx)
			if n > 0 && n <= len(restaurants) {
				r := restaurants[n-1]
				ec.Collect("selected_restaurant", r.Name)
				ec.Collect("restaurant_id", r.ID)
				ec.Collect("restaurant_name", r.Name)
			}
		}
	}

	// Free-form fields with no extractor, like clarified_intent, take
	// the reply verbatim.
	for _, field := range step.RequiredData {
		if extractedFields[field] {
			continue
		}
		if ec.CollectedData[field] == "" {
			ec.Collect(field, strings.TrimSpace(input))
		}
	}
}

func (e *BookingExecutor) completionResponse(ec *state.ExecutionContext) contract.ExecutorResponse {
	content := "The booking process is complete. Is there anything else I can help you with?"
	metadata := map[string]any{}

	if num := ec.CollectedData["confirmation_number"]; num != "" {
		content = fmt.Sprintf(`Your reservation at %s is confirmed.
Confirmation #: %s

Is there anything else I can help you with?`, ec.CollectedData["restaurant_name"], num)
		metadata["confirmation_number"] = num
	}

	return contract.ExecutorResponse{
		Content:        content,
		CompletedSteps: ec.CompletedSteps,
		PlanCompleted:  true,
		Metadata:       metadata,
	}
}

func restaurantCard(r booking.Restaurant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Great! I found %s.\n\n", r.Name)
	fmt.Fprintf(&b, "Location: %s\n", r.Location)
	fmt.Fprintf(&b, "Cuisine: %s\n", r.Cuisine)
	fmt.Fprintf(&b, "Rating: %.1f/5\n", r.Rating)
	fmt.Fprintf(&b, "Price: %s\n", r.PriceRange)
	if r.Description != "" {
		b.WriteString("\n" + r.Description + "\n")
	}
	b.WriteString("\nLet's proceed with your reservation!")
	return b.String()
}

func restaurantList(restaurants []booking.Restaurant) string {
	var b strings.Builder
	b.WriteString("Here are the available restaurants:\n\n")
	for i, r := range restaurants {
		if i == listLimit {
			break
		}
		fmt.Fprintf(&b, "%d. %s - %s (%s) - %s\n", i+1, r.Name, r.Cuisine, r.Location, r.PriceRange)
	}
	b.WriteString("\nWhich restaurant would you like to book? (Enter the number)")
	return b.String()
}

func confirmationMessage(c booking.BookingConfirmation) string {
	return fmt.Sprintf(`Booking confirmed!

Confirmation Number: %s
Restaurant: %s
Date: %s
Time: %s
Guests: %d
Name: %s

A confirmation email has been sent. See you there!`,
		c.ConfirmationNumber, c.RestaurantName, c.Date, c.Time, c.GuestCount, c.UserName)
}
