package booking

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// timeSlots are the bookable evening slots offered every day.
var timeSlots = []string{"17:00", "17:30", "18:00", "18:30", "19:00", "19:30", "20:00", "20:30", "21:00"}

// DataService is the booking backend: listing, availability, and
// reservation creation.
type DataService interface {
	Source
	CheckAvailability(ctx context.Context, restaurantID string, startDate time.Time, days int) ([]AvailabilitySlot, error)
	CreateBooking(ctx context.Context, req BookingRequest) (BookingConfirmation, error)
}

// MockService serves fixture restaurants and generated availability.
// It stands in for the real reservations API in dev and tests.
type MockService struct {
	restaurants []Restaurant
	rng         *rand.Rand
}

var _ DataService = (*MockService)(nil)

// MockOption customizes MockService.
type MockOption func(*MockService)

// WithSeed makes the availability calendar deterministic.
func WithSeed(seed int64) MockOption {
	return func(s *MockService) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRestaurants replaces the fixture catalog.
func WithRestaurants(restaurants []Restaurant) MockOption {
	return func(s *MockService) {
		s.restaurants = restaurants
	}
}

func NewMockService(opts ...MockOption) *MockService {
	s := &MockService{
		restaurants: fixtureRestaurants(),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func fixtureRestaurants() []Restaurant {
	return []Restaurant{
		{ID: "r-001", Name: "Ocean Grill", Cuisine: "Seafood", Location: "12 Harbor Way", Rating: 4.6, PriceRange: "$$$", Phone: "+1-555-0101"},
		{ID: "r-002", Name: "Oceanview Bistro", Cuisine: "French", Location: "88 Cliffside Rd", Rating: 4.4, PriceRange: "$$$$", Phone: "+1-555-0102"},
		{ID: "r-003", Name: "Pasta Palace", Cuisine: "Italian", Location: "5 Mulberry St", Rating: 4.2, PriceRange: "$$", Phone: "+1-555-0103"},
		{ID: "r-004", Name: "Spice Garden", Cuisine: "Indian", Location: "201 Curry Lane", Rating: 4.5, PriceRange: "$$", Phone: "+1-555-0104"},
		{ID: "r-005", Name: "Golden Dragon", Cuisine: "Chinese", Location: "43 Lantern Ave", Rating: 4.1, PriceRange: "$$", Phone: "+1-555-0105"},
		{ID: "r-006", Name: "The Steakhouse", Cuisine: "Steakhouse", Location: "9 Prime Cut Blvd", Rating: 4.7, PriceRange: "$$$$", Phone: "+1-555-0106"},
		{ID: "r-007", Name: "Sakura Sushi", Cuisine: "Japanese", Location: "17 Blossom St", Rating: 4.3, PriceRange: "$$$", Phone: "+1-555-0107"},
		{ID: "r-008", Name: "Taco Verde", Cuisine: "Mexican", Location: "66 Cantina Row", Rating: 4.0, PriceRange: "$", Phone: "+1-555-0108"},
	}
}

func (s *MockService) FetchRestaurants(_ context.Context) ([]Restaurant, error) {
	out := make([]Restaurant, len(s.restaurants))
	copy(out, s.restaurants)
	return out, nil
}

// CheckAvailability generates a 7-day-style calendar of evening slots
// with roughly 75% of slots open.
func (s *MockService) CheckAvailability(_ context.Context, restaurantID string, startDate time.Time, days int) ([]AvailabilitySlot, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, fmt.Errorf("restaurant id is required")
	}
	if days <= 0 {
		days = 7
	}
	if startDate.IsZero() {
		startDate = time.Now()
	}

	slots := make([]AvailabilitySlot, 0, days*len(timeSlots))
	for offset := 0; offset < days; offset++ {
		date := startDate.AddDate(0, 0, offset).Format("2006-01-02")
		for _, ts := range timeSlots {
			available := s.rng.Intn(4) != 0
			slot := AvailabilitySlot{Date: date, Time: ts, Available: available}
			if available {
				slot.MaxGuests = []int{2, 4, 6, 8}[s.rng.Intn(4)]
			}
			slots = append(slots, slot)
		}
	}

	log.Debug().Str("restaurant_id", restaurantID).Int("slots", len(slots)).Msg("availability generated")
	return slots, nil
}

func (s *MockService) CreateBooking(_ context.Context, req BookingRequest) (BookingConfirmation, error) {
	if err := validateBookingRequest(req); err != nil {
		return BookingConfirmation{}, err
	}

	confirmation := BookingConfirmation{
		ConfirmationNumber: newConfirmationNumber(),
		RestaurantName:     req.RestaurantName,
		Date:               req.Date,
		Time:               req.Time,
		GuestCount:         req.GuestCount,
		UserName:           req.UserName,
		Status:             "confirmed",
	}
	log.Info().
		Str("confirmation", confirmation.ConfirmationNumber).
		Str("restaurant", req.RestaurantName).
		Msg("booking created")
	return confirmation, nil
}

func validateBookingRequest(req BookingRequest) error {
	switch {
	case strings.TrimSpace(req.RestaurantID) == "":
		return fmt.Errorf("booking request missing restaurant id")
	case strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Time) == "":
		return fmt.Errorf("booking request missing date or time")
	case req.GuestCount <= 0:
		return fmt.Errorf("booking request missing guest count")
	case strings.TrimSpace(req.UserName) == "":
		return fmt.Errorf("booking request missing user name")
	default:
		return nil
	}
}

func newConfirmationNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:8])
}
