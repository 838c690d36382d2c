package bookingmachine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/wareechai/trio-concierge/agent/booking"
	"github.com/wareechai/trio-concierge/agent/contract"
	statex "github.com/wareechai/trio-concierge/agent/state"
)

type scriptedCompleter struct {
	responses []string
	calls     int
}

func (s *scriptedCompleter) Generate(context.Context, string, []contract.Message) (string, error) {
	if s.calls >= len(s.responses) {
		return "NONE", nil
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

type fakeDataService struct {
	restaurants  []booking.Restaurant
	slots        []booking.AvailabilitySlot
	lastBooking  booking.BookingRequest
	bookingCalls int
}

func (f *fakeDataService) FetchRestaurants(context.Context) ([]booking.Restaurant, error) {
	return f.restaurants, nil
}

func (f *fakeDataService) CheckAvailability(context.Context, string, time.Time, int) ([]booking.AvailabilitySlot, error) {
	return f.slots, nil
}

func (f *fakeDataService) CreateBooking(_ context.Context, req booking.BookingRequest) (booking.BookingConfirmation, error) {
	f.bookingCalls++
	f.lastBooking = req
	return booking.BookingConfirmation{
		ConfirmationNumber: "AB12CD34",
		RestaurantName:     req.RestaurantName,
		Date:               req.Date,
		Time:               req.Time,
		GuestCount:         req.GuestCount,
		UserName:           req.UserName,
		Status:             "confirmed",
	}, nil
}

func newTestMachine(llm contract.Completer, svc *fakeDataService, states *booking.StateManager) *Machine {
	m := New(llm, booking.NewCatalog(svc), svc, states)
	m.now = func() time.Time { return time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC) }
	return m
}

func defaultService() *fakeDataService {
	return &fakeDataService{
		restaurants: []booking.Restaurant{
			{ID: "r-1", Name: "Ocean Grill", Cuisine: "Seafood", Location: "Harbor"},
			{ID: "r-2", Name: "Pasta Palace", Cuisine: "Italian", Location: "Downtown"},
		},
		slots: []booking.AvailabilitySlot{
			{Date: "2026-01-21", Time: "19:00", Available: true, MaxGuests: 8},
			{Date: "2026-01-21", Time: "20:00", Available: true, MaxGuests: 4},
			{Date: "2026-01-22", Time: "18:00", Available: true, MaxGuests: 6},
		},
	}
}

func turn(t *testing.T, m *Machine, session, content string) contract.TurnResponse {
	t.Helper()
	resp, err := m.HandleTurn(context.Background(), contract.TurnRequest{SessionID: session, Content: content})
	if err != nil {
		t.Fatalf("HandleTurn(%q) error = %v", content, err)
	}
	return resp
}

func TestFuzzyRestaurantMentionAsksForConfirmation(t *testing.T) {
	t.Parallel()

	llm := &scriptedCompleter{responses: []string{"Ocean Gril"}}
	svc := defaultService()
	states := booking.NewStateManager(statex.NewMemoryStore())
	m := newTestMachine(llm, svc, states)

	resp := turn(t, m, "s1", "book a table at Ocean Gril")
	if resp.Intent != "restaurant_confirmation" {
		t.Fatalf("intent = %s, want restaurant_confirmation", resp.Intent)
	}
	if !strings.Contains(resp.Response, "Ocean Grill") {
		t.Fatalf("response should name Ocean Grill: %s", resp.Response)
	}

	st := states.Get(context.Background(), "s1")
	if st.Step != booking.StepRestaurantConfirmation || st.RestaurantID != "r-1" {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestNoRestaurantMentionListsAll(t *testing.T) {
	t.Parallel()

	llm := &scriptedCompleter{responses: []string{"NONE"}}
	svc := defaultService()
	states := booking.NewStateManager(statex.NewMemoryStore())
	m := newTestMachine(llm, svc, states)

	resp := turn(t, m, "s2", "I want to book a table")
	if resp.Intent != "restaurant_list" {
		t.Fatalf("intent = %s, want restaurant_list", resp.Intent)
	}
	if !strings.Contains(resp.Response, "Ocean Grill") || !strings.Contains(resp.Response, "Pasta Palace") {
		t.Fatalf("response should list restaurants: %s", resp.Response)
	}
	if states.Get(context.Background(), "s2").Step != booking.StepRestaurantSelection {
		t.Fatal("expected restaurant_selection step")
	}
}

func TestCuisineMentionFiltersList(t *testing.T) {
	t.Parallel()

	llm := &scriptedCompleter{responses: []string{"NONE"}}
	svc := defaultService()
	states := booking.NewStateManager(statex.NewMemoryStore())
	m := newTestMachine(llm, svc, states)

	resp := turn(t, m, "s7", "book me an italian dinner")
	if resp.Intent != "restaurant_list" {
		t.Fatalf("intent = %s, want restaurant_list", resp.Intent)
	}
	if !strings.Contains(resp.Response, "Pasta Palace") {
		t.Fatalf("filtered list should contain Pasta Palace: %s", resp.Response)
	}
	if strings.Contains(resp.Response, "Ocean Grill") {
		t.Fatalf("filtered list should not contain Ocean Grill: %s", resp.Response)
	}

	// "1" selects from the filtered list, not the full catalog.
	turn(t, m, "s7", "1")
	st := states.Get(context.Background(), "s7")
	if st.RestaurantName != "Pasta Palace" {
		t.Fatalf("selected restaurant = %q, want Pasta Palace", st.RestaurantName)
	}
}

func TestSelectionByNumber(t *testing.T) {
	t.Parallel()

	llm := &scriptedCompleter{responses: []string{"NONE"}}
	svc := defaultService()
	states := booking.NewStateManager(statex.NewMemoryStore())
	m := newTestMachine(llm, svc, states)

	turn(t, m, "s3", "show me restaurants")
	resp := turn(t, m, "s3", "2")
	if resp.Intent != "availability_shown" {
		t.Fatalf("intent = %s, want availability_shown", resp.Intent)
	}

	st := states.Get(context.Background(), "s3")
	if st.RestaurantName != "Pasta Palace" || st.Step != booking.StepDateTimeSelection {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestGuestCountParsing(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input    string
		accepted bool
		want     int
	}{
		{"4", true, 4},
		{"4 people", true, 4},
		{"0", false, 0},
		{"25", false, 0},
		{"a few", false, 0},
	}

	for _, tc := range cases {
		llm := &scriptedCompleter{}
		svc := defaultService()
		states := booking.NewStateManager(statex.NewMemoryStore())
		m := newTestMachine(llm, svc, states)

		ctx := context.Background()
		st := booking.NewState("sg")
		st.Step = booking.StepCollectingGuestCount
		st.RestaurantID = "r-1"
		st.RestaurantName = "Ocean Grill"
		st.SelectedDate = "2026-01-21"
		st.SelectedTime = "19:00"
		if err := states.Save(ctx, st); err != nil {
			t.Fatalf("seed state: %v", err)
		}

		resp := turn(t, m, "sg", tc.input)
		got := states.Get(ctx, "sg")
		if tc.accepted {
			if resp.Intent != "guest_count_collected" || got.GuestCount != tc.want || got.Step != booking.StepCollectingName {
				t.Fatalf("input %q: resp=%s state=%+v", tc.input, resp.Intent, got)
			}
		} else {
			if got.Step != booking.StepCollectingGuestCount {
				t.Fatalf("input %q should be rejected, state=%+v", tc.input, got)
			}
		}
	}
}

func TestEmailValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input    string
		accepted bool
	}{
		{"a@b.com", true},
		{"alex.chen+res@mail.example.org", true},
		{"not-an-email", false},
		{"missing@tld", false},
	}

	for _, tc := range cases {
		llm := &scriptedCompleter{}
		svc := defaultService()
		states := booking.NewStateManager(statex.NewMemoryStore())
		m := newTestMachine(llm, svc, states)

		ctx := context.Background()
		st := booking.NewState("se")
		st.Step = booking.StepCollectingEmail
		if err := states.Save(ctx, st); err != nil {
			t.Fatalf("seed state: %v", err)
		}

		turn(t, m, "se", tc.input)
		got := states.Get(ctx, "se")
		if tc.accepted && got.Step != booking.StepCollectingPhone {
			t.Fatalf("email %q should advance, state=%+v", tc.input, got)
		}
		if !tc.accepted && got.Step != booking.StepCollectingEmail {
			t.Fatalf("email %q should be rejected, state=%+v", tc.input, got)
		}
	}
}

func TestPhoneValidation(t *testing.T) {
	t.Parallel()

	llm := &scriptedCompleter{}
	svc := defaultService()
	states := booking.NewStateManager(statex.NewMemoryStore())
	m := newTestMachine(llm, svc, states)

	ctx := context.Background()
	st := booking.NewState("sp")
	st.Step = booking.StepCollectingPhone
	st.RestaurantName = "Ocean Grill"
	if err := states.Save(ctx, st); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	turn(t, m, "sp", "call me")
	if states.Get(ctx, "sp").Step != booking.StepCollectingPhone {
		t.Fatal("invalid phone should not advance")
	}

	resp := turn(t, m, "sp", "(555) 123-4567")
	if resp.Intent != "confirmation_shown" {
		t.Fatalf("intent = %s, want confirmation_shown", resp.Intent)
	}
	if states.Get(ctx, "sp").Step != booking.StepConfirmation {
		t.Fatal("valid phone should advance to confirmation")
	}
}

func TestUnavailableSlotRejected(t *testing.T) {
	t.Parallel()

	llm := &scriptedCompleter{responses: []string{`{"date":"2026-01-21","time":"17:30"}`}}
	svc := defaultService()
	states := booking.NewStateManager(statex.NewMemoryStore())
	m := newTestMachine(llm, svc, states)

	ctx := context.Background()
	st := booking.NewState("su")
	st.Step = booking.StepDateTimeSelection
	st.RestaurantID = "r-1"
	st.RestaurantName = "Ocean Grill"
	st.AvailableSlots = svc.slots
	if err := states.Save(ctx, st); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	resp := turn(t, m, "su", "the 21st at 5:30pm")
	if resp.Metadata["error"] != "slot_unavailable" {
		t.Fatalf("expected slot_unavailable, got %+v", resp.Metadata)
	}
	if states.Get(ctx, "su").Step != booking.StepDateTimeSelection {
		t.Fatal("unavailable slot should not advance")
	}
}

func TestFullBookingConversation(t *testing.T) {
	t.Parallel()

	llm := &scriptedCompleter{responses: []string{
		"Ocean Gril",
		`{"date":"2026-01-21","time":"19:00"}`,
	}}
	svc := defaultService()
	states := booking.NewStateManager(statex.NewMemoryStore())
	m := newTestMachine(llm, svc, states)
	const session = "e2e"

	turn(t, m, session, "book a table at Ocean Gril")
	turn(t, m, session, "yes")
	turn(t, m, session, "the 21st at 7pm")
	turn(t, m, session, "4 people")
	turn(t, m, session, "Alex Chen")
	turn(t, m, session, "alex@example.com")
	turn(t, m, session, "555-123-4567")
	resp := turn(t, m, session, "yes, confirm")

	if resp.Intent != "booking_confirmed" {
		t.Fatalf("intent = %s, want booking_confirmed", resp.Intent)
	}
	if resp.RequiresFollowup {
		t.Fatal("confirmed booking should not require followup")
	}
	if !strings.Contains(resp.Response, "AB12CD34") {
		t.Fatalf("response missing confirmation number: %s", resp.Response)
	}

	if svc.bookingCalls != 1 {
		t.Fatalf("bookingCalls = %d, want 1", svc.bookingCalls)
	}
	want := booking.BookingRequest{
		RestaurantID:   "r-1",
		RestaurantName: "Ocean Grill",
		Date:           "2026-01-21",
		Time:           "19:00",
		GuestCount:     4,
		UserName:       "Alex Chen",
		Email:          "alex@example.com",
		Phone:          "555-123-4567",
	}
	if svc.lastBooking != want {
		t.Fatalf("booking request = %+v, want %+v", svc.lastBooking, want)
	}

	if st := states.Get(context.Background(), session); st.Step != booking.StepCompleted {
		t.Fatalf("final step = %s, want completed", st.Step)
	}
}

func TestConfirmationNoRestartsDetails(t *testing.T) {
	t.Parallel()

	llm := &scriptedCompleter{}
	svc := defaultService()
	states := booking.NewStateManager(statex.NewMemoryStore())
	m := newTestMachine(llm, svc, states)

	ctx := context.Background()
	st := booking.NewState("sn")
	st.Step = booking.StepConfirmation
	st.RestaurantID = "r-1"
	st.RestaurantName = "Ocean Grill"
	if err := states.Save(ctx, st); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	resp := turn(t, m, "sn", "no, change it")
	if resp.Intent != "restart_details" {
		t.Fatalf("intent = %s, want restart_details", resp.Intent)
	}
	if states.Get(ctx, "sn").Step != booking.StepCollectingGuestCount {
		t.Fatal("expected loop back to guest count")
	}
}
