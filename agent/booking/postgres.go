package booking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PostgresConfig struct {
	DSN string `envconfig:"DSN" split_words:"true" required:"true"`
}

// NewDB opens a bun-wrapped Postgres connection.
func NewDB(cfg PostgresConfig) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	return bun.NewDB(sqldb, pgdialect.New())
}

type restaurantRow struct {
	bun.BaseModel `bun:"table:restaurants"`

	ID          string  `bun:"id,pk"`
	Name        string  `bun:"name"`
	Cuisine     string  `bun:"cuisine"`
	Location    string  `bun:"location"`
	Description string  `bun:"description"`
	Rating      float64 `bun:"rating"`
	PriceRange  string  `bun:"price_range"`
	Phone       string  `bun:"phone"`
}

type availabilityRow struct {
	bun.BaseModel `bun:"table:availability_slots"`

	RestaurantID string `bun:"restaurant_id"`
	Date         string `bun:"date"`
	Time         string `bun:"time"`
	Available    bool   `bun:"available"`
	MaxGuests    int    `bun:"max_guests"`
}

type bookingRow struct {
	bun.BaseModel `bun:"table:bookings"`

	ConfirmationNumber string    `bun:"confirmation_number,pk"`
	RestaurantID       string    `bun:"restaurant_id"`
	RestaurantName     string    `bun:"restaurant_name"`
	Date               string    `bun:"date"`
	Time               string    `bun:"time"`
	GuestCount         int       `bun:"guest_count"`
	UserName           string    `bun:"user_name"`
	Email              string    `bun:"email"`
	Phone              string    `bun:"phone"`
	Status             string    `bun:"status"`
	CreatedAt          time.Time `bun:"created_at,default:current_timestamp"`
}

// PostgresService is the production DataService, backed by the
// restaurants, availability_slots, and bookings tables.
type PostgresService struct {
	db *bun.DB
}

var _ DataService = (*PostgresService)(nil)

func NewPostgresService(db *bun.DB) *PostgresService {
	return &PostgresService{db: db}
}

func (s *PostgresService) FetchRestaurants(ctx context.Context) ([]Restaurant, error) {
	var rows []restaurantRow
	if err := s.db.NewSelect().Model(&rows).Order("name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select restaurants: %w", err)
	}

	restaurants := make([]Restaurant, 0, len(rows))
	for _, row := range rows {
		restaurants = append(restaurants, Restaurant{
			ID:          row.ID,
			Name:        row.Name,
			Cuisine:     row.Cuisine,
			Location:    row.Location,
			Description: row.Description,
			Rating:      row.Rating,
			PriceRange:  row.PriceRange,
			Phone:       row.Phone,
		})
	}
	return restaurants, nil
}

func (s *PostgresService) CheckAvailability(ctx context.Context, restaurantID string, startDate time.Time, days int) ([]AvailabilitySlot, error) {
	if days <= 0 {
		days = 7
	}
	if startDate.IsZero() {
		startDate = time.Now()
	}
	from := startDate.Format("2006-01-02")
	to := startDate.AddDate(0, 0, days).Format("2006-01-02")

	var rows []availabilityRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("restaurant_id = ?", restaurantID).
		Where("date >= ? AND date < ?", from, to).
		Order("date ASC", "time ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select availability: %w", err)
	}

	slots := make([]AvailabilitySlot, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, AvailabilitySlot{
			Date:      row.Date,
			Time:      row.Time,
			Available: row.Available,
			MaxGuests: row.MaxGuests,
		})
	}
	return slots, nil
}

func (s *PostgresService) CreateBooking(ctx context.Context, req BookingRequest) (BookingConfirmation, error) {
	if err := validateBookingRequest(req); err != nil {
		return BookingConfirmation{}, err
	}

	row := bookingRow{
		ConfirmationNumber: newConfirmationNumber(),
		RestaurantID:       req.RestaurantID,
		RestaurantName:     req.RestaurantName,
		Date:               req.Date,
		Time:               req.Time,
		GuestCount:         req.GuestCount,
		UserName:           req.UserName,
		Email:              req.Email,
		Phone:              req.Phone,
		Status:             "confirmed",
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return BookingConfirmation{}, fmt.Errorf("insert booking: %w", err)
	}

	return BookingConfirmation{
		ConfirmationNumber: row.ConfirmationNumber,
		RestaurantName:     row.RestaurantName,
		Date:               row.Date,
		Time:               row.Time,
		GuestCount:         row.GuestCount,
		UserName:           row.UserName,
		Status:             row.Status,
	}, nil
}
