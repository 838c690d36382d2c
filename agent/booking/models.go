// Package booking holds the restaurant domain: catalog data, the
// booking data service, and per-session conversation state.
package booking

type Restaurant struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Cuisine     string  `json:"cuisine"`
	Location    string  `json:"location"`
	Description string  `json:"description,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	PriceRange  string  `json:"price_range,omitempty"`
	Phone       string  `json:"phone,omitempty"`
}

// AvailabilitySlot is one bookable date/time at a restaurant.
type AvailabilitySlot struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
	MaxGuests int    `json:"max_guests,omitempty"`
}

type BookingRequest struct {
	RestaurantID   string `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	GuestCount     int    `json:"guest_count"`
	UserName       string `json:"user_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
}

type BookingConfirmation struct {
	ConfirmationNumber string `json:"confirmation_number"`
	RestaurantName     string `json:"restaurant_name"`
	Date               string `json:"date"`
	Time               string `json:"time"`
	GuestCount         int    `json:"guest_count"`
	UserName           string `json:"user_name"`
	Status             string `json:"status"`
}

// SearchFilter narrows the catalog; zero values mean "no filter".
type SearchFilter struct {
	Cuisine    string
	Location   string
	MinRating  float64
	PriceRange string
}
