// Package bookingmachine is the hand-authored booking conversation
// flow: a step-driven state machine that walks a session from
// restaurant selection through contact collection to a confirmed
// reservation.
package bookingmachine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wareechai/trio-concierge/agent/booking"
	"github.com/wareechai/trio-concierge/agent/contract"
	"github.com/wareechai/trio-concierge/agent/llmjson"
)

const agentName = "booking"

var (
	yesWords = []string{"yes", "yeah", "yep", "correct", "right", "sure", "confirm"}
	noWords  = []string{"no", "nope", "wrong", "different", "change"}

	numberRe = regexp.MustCompile(`\d+`)
	emailRe  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRe  = regexp.MustCompile(`^[\d\s\-()+]+$`)
	digitRe  = regexp.MustCompile(`\d`)
)

// Machine implements contract.DomainHandler for the booking domain.
type Machine struct {
	llm     contract.Completer
	catalog *booking.Catalog
	svc     booking.DataService
	states  *booking.StateManager
	now     func() time.Time
}

var _ contract.DomainHandler = (*Machine)(nil)

func New(llm contract.Completer, catalog *booking.Catalog, svc booking.DataService, states *booking.StateManager) *Machine {
	return &Machine{
		llm:     llm,
		catalog: catalog,
		svc:     svc,
		states:  states,
		now:     time.Now,
	}
}

func (m *Machine) HandleTurn(ctx context.Context, req contract.TurnRequest) (contract.TurnResponse, error) {
	st := m.states.Get(ctx, req.SessionID)
	log.Info().Str("session_id", req.SessionID).Str("step", string(st.Step)).Msg("booking turn")

	var resp contract.TurnResponse
	switch st.Step {
	case booking.StepInitial:
		resp = m.handleInitial(ctx, req, st)
	case booking.StepRestaurantSelection:
		resp = m.handleSelection(ctx, req, st)
	case booking.StepRestaurantConfirmation:
		resp = m.handleRestaurantConfirmation(ctx, req, st)
	case booking.StepDateTimeSelection:
		resp = m.handleDateTime(ctx, req, st)
	case booking.StepCollectingGuestCount:
		resp = m.handleGuestCount(ctx, req, st)
	case booking.StepCollectingName:
		resp = m.handleName(ctx, req, st)
	case booking.StepCollectingEmail:
		resp = m.handleEmail(ctx, req, st)
	case booking.StepCollectingPhone:
		resp = m.handlePhone(ctx, req, st)
	case booking.StepConfirmation:
		resp = m.handleConfirmation(ctx, req, st)
	default:
		// availability_check and completed never receive input
		// directly; anything else is a stale state.
		if err := m.states.Reset(ctx, req.SessionID); err != nil {
			log.Warn().Err(err).Str("session_id", req.SessionID).Msg("state reset failed")
		}
		resp = m.handleInitial(ctx, req, booking.NewState(req.SessionID))
	}

	resp.SessionID = req.SessionID
	return resp, nil
}

// advance applies a chain of step transitions, validating each hop,
// and persists the final state.
func (m *Machine) advance(ctx context.Context, st *booking.State, steps ...booking.Step) error {
	for _, next := range steps {
		if !booking.ValidStepTransition(st.Step, next) {
			return fmt.Errorf("illegal booking transition %s -> %s", st.Step, next)
		}
		st.Step = next
	}
	return m.states.Save(ctx, st)
}

func (m *Machine) handleInitial(ctx context.Context, req contract.TurnRequest, st *booking.State) contract.TurnResponse {
	name := m.extractRestaurantName(ctx, req.Content)
	if name == "" {
		return m.listRestaurants(ctx, st, m.cuisineFilter(ctx, req.Content))
	}
	return m.handleSpecificRestaurant(ctx, st, name)
}

// cuisineFilter narrows the opening list when the query mentions a
// cuisine the catalog actually serves.
func (m *Machine) cuisineFilter(ctx context.Context, query string) booking.SearchFilter {
	q := strings.ToLower(query)
	for _, r := range m.catalog.All(ctx) {
		cuisine := strings.ToLower(r.Cuisine)
		if cuisine != "" && strings.Contains(q, cuisine) {
			return booking.SearchFilter{Cuisine: r.Cuisine}
		}
	}
	return booking.SearchFilter{}
}

func (m *Machine) extractRestaurantName(ctx context.Context, query string) string {
	prompt := fmt.Sprintf(`Extract the restaurant name from this query if mentioned.
If no restaurant name is mentioned, respond with "NONE".
Only return the restaurant name or "NONE", nothing else.

Query: %q

Restaurant name:`, query)

	raw, err := m.llm.Generate(ctx, systemPrompt, []contract.Message{{Role: contract.RoleUser, Content: prompt}})
	if err != nil {
		log.Warn().Err(err).Msg("restaurant name extraction failed")
		return ""
	}

	name := strings.TrimSpace(raw)
	if name == "" || strings.EqualFold(name, "NONE") {
		return ""
	}
	return name
}

func (m *Machine) handleSpecificRestaurant(ctx context.Context, st *booking.State, name string) contract.TurnResponse {
	if matched, ok := m.catalog.FindByName(ctx, name, booking.MatchThreshold); ok {
		st.RestaurantID = matched.ID
		st.RestaurantName = matched.Name
		if err := m.advance(ctx, st, booking.StepRestaurantConfirmation); err != nil {
			return m.apology(err)
		}
		return turnResponse(
			fmt.Sprintf("I found %s (%s, %s). Is this the restaurant you'd like to book?", matched.Name, matched.Cuisine, matched.Location),
			"restaurant_confirmation", true,
			map[string]any{"restaurant_id": matched.ID},
		)
	}

	similar := m.catalog.FindSimilar(ctx, name, 3, booking.CandidateThreshold)
	if len(similar) == 0 {
		return m.listRestaurants(ctx, st, booking.SearchFilter{})
	}

	st.FuzzyMatches = nil
	for _, match := range similar {
		st.FuzzyMatches = append(st.FuzzyMatches, match.Restaurant)
	}
	if err := m.advance(ctx, st, booking.StepRestaurantSelection); err != nil {
		return m.apology(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I couldn't find an exact match for '%s'. Did you mean one of these?\n\n", name)
	for i, match := range similar {
		fmt.Fprintf(&b, "%d. %s - %s, %s\n", i+1, match.Restaurant.Name, match.Restaurant.Cuisine, match.Restaurant.Location)
	}
	b.WriteString("\nPlease select a restaurant by number or name.")

	return turnResponse(b.String(), "restaurant_selection", true, map[string]any{"fuzzy_matches": len(similar)})
}

func (m *Machine) listRestaurants(ctx context.Context, st *booking.State, filter booking.SearchFilter) contract.TurnResponse {
	restaurants := m.catalog.Search(ctx, filter)
	if len(restaurants) == 0 {
		restaurants = m.catalog.All(ctx)
	}
	if len(restaurants) == 0 {
		return turnResponse(
			"I apologize, but I couldn't retrieve the restaurant list at the moment. Please try again later.",
			"restaurant_list", false,
			map[string]any{"error": "no_restaurants"},
		)
	}

	// Selection by number refers to the list the user was shown.
	st.FuzzyMatches = restaurants
	if st.Step != booking.StepRestaurantSelection {
		if err := m.advance(ctx, st, booking.StepRestaurantSelection); err != nil {
			return m.apology(err)
		}
	} else if err := m.states.Save(ctx, st); err != nil {
		return m.apology(err)
	}

	var b strings.Builder
	b.WriteString("I'd be happy to help you book a table! Here are our available restaurants:\n\n")
	for i, r := range restaurants {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Name)
		fmt.Fprintf(&b, "   Cuisine: %s\n", r.Cuisine)
		fmt.Fprintf(&b, "   Location: %s\n", r.Location)
		if r.Rating > 0 {
			fmt.Fprintf(&b, "   Rating: %.1f\n", r.Rating)
		}
		if r.PriceRange != "" {
			fmt.Fprintf(&b, "   Price: %s\n", r.PriceRange)
		}
		b.WriteString("\n")
	}
	b.WriteString("Please select a restaurant by number or name.")

	return turnResponse(b.String(), "restaurant_list", true, map[string]any{"count": len(restaurants)})
}

func (m *Machine) handleSelection(ctx context.Context, req contract.TurnRequest, st *booking.State) contract.TurnResponse {
	query := strings.TrimSpace(req.Content)

	if n, err := strconv.Atoi(query); err == nil {
		listed := st.FuzzyMatches
		if len(listed) == 0 {
			listed = m.catalog.All(ctx)
		}
		if n >= 1 && n <= len(listed) {
			return m.proceedWithRestaurant(ctx, st, listed[n-1])
		}
	}

	if matched, ok := m.catalog.FindByName(ctx, query, booking.SelectionThreshold); ok {
		return m.proceedWithRestaurant(ctx, st, matched)
	}

	return turnResponse(
		"I didn't quite catch that. Please select a restaurant by entering its number (1, 2, 3...) or name.",
		"restaurant_selection", true,
		map[string]any{"error": "invalid_selection"},
	)
}

func (m *Machine) handleRestaurantConfirmation(ctx context.Context, req contract.TurnRequest, st *booking.State) contract.TurnResponse {
	query := strings.ToLower(req.Content)

	switch {
	case containsAny(query, yesWords):
		restaurant, ok := m.catalog.ByID(ctx, st.RestaurantID)
		if !ok {
			return m.apology(fmt.Errorf("%w: confirmed restaurant %s not in catalog", contract.ErrNotFound, st.RestaurantID))
		}
		return m.proceedWithRestaurant(ctx, st, restaurant)
	case containsAny(query, noWords):
		if err := m.advance(ctx, st, booking.StepRestaurantSelection); err != nil {
			return m.apology(err)
		}
		return m.listRestaurants(ctx, st, booking.SearchFilter{})
	default:
		return turnResponse(
			"Please confirm: Is this the correct restaurant? (Yes/No)",
			"confirmation_needed", true, nil,
		)
	}
}

func (m *Machine) proceedWithRestaurant(ctx context.Context, st *booking.State, restaurant booking.Restaurant) contract.TurnResponse {
	slots, err := m.svc.CheckAvailability(ctx, restaurant.ID, m.now(), 7)
	if err != nil {
		return m.apology(err)
	}

	var available []booking.AvailabilitySlot
	for _, slot := range slots {
		if slot.Available {
			available = append(available, slot)
		}
	}

	if len(available) == 0 {
		if err := m.states.Reset(ctx, st.SessionID); err != nil {
			log.Warn().Err(err).Msg("state reset failed")
		}
		return turnResponse(
			fmt.Sprintf("I'm sorry, but %s doesn't have any available slots at the moment. Would you like to choose a different restaurant?", restaurant.Name),
			"no_availability", true,
			map[string]any{"error": "no_availability"},
		)
	}

	st.RestaurantID = restaurant.ID
	st.RestaurantName = restaurant.Name
	st.AvailableSlots = available
	if err := m.advance(ctx, st, booking.StepAvailabilityCheck, booking.StepDateTimeSelection); err != nil {
		return m.apology(err)
	}

	return turnResponse(
		availabilityMessage(restaurant.Name, available),
		"availability_shown", true,
		map[string]any{"restaurant_id": restaurant.ID},
	)
}

// availabilityMessage shows the first three dates, up to five times each.
func availabilityMessage(restaurantName string, available []booking.AvailabilitySlot) string {
	type day struct {
		date  string
		times []string
	}
	var days []day
	for _, slot := range available {
		if len(days) == 0 || days[len(days)-1].date != slot.Date {
			if len(days) == 3 {
				break
			}
			days = append(days, day{date: slot.Date})
		}
		last := &days[len(days)-1]
		if len(last.times) < 5 {
			last.times = append(last.times, slot.Time)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Great choice! %s has the following availability:\n\n", restaurantName)
	for _, d := range days {
		label := d.date
		if parsed, err := time.Parse("2006-01-02", d.date); err == nil {
			label = parsed.Format("Monday, January 02")
		}
		fmt.Fprintf(&b, "%s: %s\n", label, strings.Join(d.times, ", "))
	}
	b.WriteString("\nPlease tell me your preferred date and time (e.g., 'Tomorrow at 7 PM' or '2026-01-25 at 19:00').")
	return b.String()
}

type datetimePayload struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func (m *Machine) handleDateTime(ctx context.Context, req contract.TurnRequest, st *booking.State) contract.TurnResponse {
	extracted, ok := m.extractDateTime(ctx, req.Content)
	if !ok {
		return turnResponse(
			"I couldn't understand the date and time. Please specify like 'Tomorrow at 7 PM' or '2026-01-25 at 19:00'.",
			"date_time_selection", true,
			map[string]any{"error": "invalid_datetime"},
		)
	}

	slotAvailable := false
	for _, slot := range st.AvailableSlots {
		if slot.Date == extracted.Date && slot.Time == extracted.Time && slot.Available {
			slotAvailable = true
			break
		}
	}
	if !slotAvailable {
		return turnResponse(
			fmt.Sprintf("I'm sorry, but %s at %s is not available. Please choose from the available times shown above.", extracted.Date, extracted.Time),
			"date_time_selection", true,
			map[string]any{"error": "slot_unavailable"},
		)
	}

	st.SelectedDate = extracted.Date
	st.SelectedTime = extracted.Time
	if err := m.advance(ctx, st, booking.StepCollectingGuestCount); err != nil {
		return m.apology(err)
	}

	return turnResponse(
		fmt.Sprintf("Perfect! I'll reserve a table for %s at %s. How many guests will be joining you?", extracted.Date, extracted.Time),
		"datetime_confirmed", true, nil,
	)
}

func (m *Machine) extractDateTime(ctx context.Context, query string) (datetimePayload, bool) {
	prompt := fmt.Sprintf(`Extract the date and time from this query.
Return ONLY a JSON object with "date" (YYYY-MM-DD format) and "time" (HH:MM format).
If you cannot extract both, return {"date": null, "time": null}.

Today is %s.

Query: %q

JSON:`, m.now().Format("2006-01-02"), query)

	raw, err := m.llm.Generate(ctx, systemPrompt, []contract.Message{{Role: contract.RoleUser, Content: prompt}})
	if err != nil {
		log.Warn().Err(err).Msg("datetime extraction failed")
		return datetimePayload{}, false
	}

	res, err := llmjson.Decode[datetimePayload](raw)
	if err != nil || res.Value.Date == "" || res.Value.Time == "" {
		return datetimePayload{}, false
	}
	return res.Value, true
}

func (m *Machine) handleGuestCount(ctx context.Context, req contract.TurnRequest, st *booking.State) contract.TurnResponse {
	if match := numberRe.FindString(req.Content); match != "" {
		if count, err := strconv.Atoi(match); err == nil && count >= 1 && count <= 20 {
			st.GuestCount = count
			if err := m.advance(ctx, st, booking.StepCollectingName); err != nil {
				return m.apology(err)
			}
			return turnResponse(
				fmt.Sprintf("Table for %d, noted! May I have your name please?", count),
				"guest_count_collected", true, nil,
			)
		}
	}

	return turnResponse(
		"Please provide the number of guests (e.g., '4 people' or just '4').",
		"collecting_guest_count", true,
		map[string]any{"error": "invalid_guest_count"},
	)
}

func (m *Machine) handleName(ctx context.Context, req contract.TurnRequest, st *booking.State) contract.TurnResponse {
	name := strings.TrimSpace(req.Content)
	if len(name) < 2 {
		return turnResponse("Please provide your name.", "collecting_name", true, map[string]any{"error": "invalid_name"})
	}

	st.UserName = name
	if err := m.advance(ctx, st, booking.StepCollectingEmail); err != nil {
		return m.apology(err)
	}
	return turnResponse(
		fmt.Sprintf("Thank you, %s! What's the best email to send the confirmation?", name),
		"name_collected", true, nil,
	)
}

func (m *Machine) handleEmail(ctx context.Context, req contract.TurnRequest, st *booking.State) contract.TurnResponse {
	email := strings.TrimSpace(req.Content)
	if !emailRe.MatchString(email) {
		return turnResponse("Please provide a valid email address.", "collecting_email", true, map[string]any{"error": "invalid_email"})
	}

	st.Email = email
	if err := m.advance(ctx, st, booking.StepCollectingPhone); err != nil {
		return m.apology(err)
	}
	return turnResponse("Got it! And your phone number?", "email_collected", true, nil)
}

func (m *Machine) handlePhone(ctx context.Context, req contract.TurnRequest, st *booking.State) contract.TurnResponse {
	phone := strings.TrimSpace(req.Content)
	if !phoneRe.MatchString(phone) || len(digitRe.FindAllString(phone, -1)) < 10 {
		return turnResponse("Please provide a valid phone number.", "collecting_phone", true, map[string]any{"error": "invalid_phone"})
	}

	st.Phone = phone
	if err := m.advance(ctx, st, booking.StepConfirmation); err != nil {
		return m.apology(err)
	}

	summary := fmt.Sprintf(`Let me confirm your booking details:

Restaurant: %s
Date: %s
Time: %s
Guests: %d
Name: %s
Email: %s
Phone: %s

Is this correct? (Yes/No)`,
		st.RestaurantName, st.SelectedDate, st.SelectedTime, st.GuestCount, st.UserName, st.Email, phone)

	return turnResponse(summary, "confirmation_shown", true, nil)
}

func (m *Machine) handleConfirmation(ctx context.Context, req contract.TurnRequest, st *booking.State) contract.TurnResponse {
	query := strings.ToLower(req.Content)

	switch {
	case containsAny(query, yesWords):
		confirmation, err := m.svc.CreateBooking(ctx, booking.BookingRequest{
			RestaurantID:   st.RestaurantID,
			RestaurantName: st.RestaurantName,
			Date:           st.SelectedDate,
			Time:           st.SelectedTime,
			GuestCount:     st.GuestCount,
			UserName:       st.UserName,
			Email:          st.Email,
			Phone:          st.Phone,
		})
		if err != nil {
			return m.apology(err)
		}

		st.ConfirmationNumber = confirmation.ConfirmationNumber
		if err := m.advance(ctx, st, booking.StepCompleted); err != nil {
			return m.apology(err)
		}

		content := fmt.Sprintf(`Excellent! Your booking is confirmed!

Confirmation Number: %s
Restaurant: %s
Date: %s
Time: %s
Guests: %d

You'll receive a confirmation email at %s shortly.
Looking forward to seeing you at %s!`,
			confirmation.ConfirmationNumber, st.RestaurantName, st.SelectedDate, st.SelectedTime, st.GuestCount, st.Email, st.RestaurantName)

		return turnResponse(content, "booking_confirmed", false, map[string]any{
			"confirmation_number": confirmation.ConfirmationNumber,
		})
	case containsAny(query, noWords):
		if err := m.advance(ctx, st, booking.StepCollectingGuestCount); err != nil {
			return m.apology(err)
		}
		return turnResponse(
			"No problem! Let's update your details. How many guests will be joining you?",
			"restart_details", true, nil,
		)
	default:
		return turnResponse(
			"Please confirm: Is the booking information correct? (Yes/No)",
			"confirmation_needed", true, nil,
		)
	}
}

func (m *Machine) apology(err error) contract.TurnResponse {
	log.Error().Err(err).Msg("booking machine error")
	return turnResponse(
		"I apologize, but I encountered an error. Let's start over. Would you like to book a table?",
		"booking_error", true,
		map[string]any{"error": err.Error()},
	)
}

func turnResponse(content, intent string, followup bool, metadata map[string]any) contract.TurnResponse {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["agent"] = agentName
	return contract.TurnResponse{
		Response:         content,
		Intent:           intent,
		RequiresFollowup: followup,
		Metadata:         metadata,
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

const systemPrompt = `You are the Booking Agent, a specialized AI assistant for restaurant reservations.

Your capabilities:
- Finding and browsing restaurants
- Making restaurant reservations
- Checking availability
- Managing booking details

IMPORTANT INSTRUCTIONS:
1. Be Concise: keep responses brief and to the point.

2. Restaurant Name Extraction:
   - When extracting restaurant names, be precise and return only the name
   - If no restaurant is mentioned, return "NONE" exactly

3. Date and Time Parsing:
   - Always return dates in YYYY-MM-DD format
   - Always return times in HH:MM 24-hour format
   - Handle natural language like "tomorrow", "next Friday", "7 PM" correctly
   - If you cannot extract both date AND time, return null for both

4. JSON Responses:
   - When asked to return JSON, return ONLY valid JSON with no additional text
   - Do not wrap JSON in markdown code blocks

Remember: your responses are used programmatically, so format adherence is critical.`
