package booking

import (
	"context"
	"testing"
	"time"
)

func TestMockServiceAvailabilityCalendar(t *testing.T) {
	t.Parallel()

	svc := NewMockService(WithSeed(42))
	start := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

	slots, err := svc.CheckAvailability(context.Background(), "r-001", start, 7)
	if err != nil {
		t.Fatalf("CheckAvailability() error = %v", err)
	}
	if len(slots) != 7*len(timeSlots) {
		t.Fatalf("slot count = %d, want %d", len(slots), 7*len(timeSlots))
	}
	if slots[0].Date != "2026-01-20" || slots[0].Time != "17:00" {
		t.Fatalf("first slot = %+v", slots[0])
	}
	if last := slots[len(slots)-1]; last.Date != "2026-01-26" || last.Time != "21:00" {
		t.Fatalf("last slot = %+v", last)
	}

	for _, slot := range slots {
		if slot.Available && slot.MaxGuests == 0 {
			t.Fatalf("available slot without max guests: %+v", slot)
		}
		if !slot.Available && slot.MaxGuests != 0 {
			t.Fatalf("unavailable slot with max guests: %+v", slot)
		}
	}
}

func TestMockServiceAvailabilityDeterministicWithSeed(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	a, err := NewMockService(WithSeed(7)).CheckAvailability(context.Background(), "r-001", start, 3)
	if err != nil {
		t.Fatalf("CheckAvailability() error = %v", err)
	}
	b, err := NewMockService(WithSeed(7)).CheckAvailability(context.Background(), "r-001", start, 3)
	if err != nil {
		t.Fatalf("CheckAvailability() error = %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("slot %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestMockServiceAvailabilityRequiresRestaurant(t *testing.T) {
	t.Parallel()

	if _, err := NewMockService().CheckAvailability(context.Background(), "  ", time.Now(), 7); err == nil {
		t.Fatal("expected error for empty restaurant id")
	}
}

func TestMockServiceCreateBooking(t *testing.T) {
	t.Parallel()

	svc := NewMockService()
	confirmation, err := svc.CreateBooking(context.Background(), BookingRequest{
		RestaurantID:   "r-001",
		RestaurantName: "Ocean Grill",
		Date:           "2026-01-21",
		Time:           "19:00",
		GuestCount:     4,
		UserName:       "Alex Chen",
		Email:          "alex@example.com",
		Phone:          "555-123-4567",
	})
	if err != nil {
		t.Fatalf("CreateBooking() error = %v", err)
	}
	if confirmation.Status != "confirmed" {
		t.Fatalf("status = %s, want confirmed", confirmation.Status)
	}
	if len(confirmation.ConfirmationNumber) != 8 {
		t.Fatalf("confirmation number = %q, want 8 chars", confirmation.ConfirmationNumber)
	}
	if confirmation.RestaurantName != "Ocean Grill" || confirmation.GuestCount != 4 {
		t.Fatalf("unexpected confirmation: %+v", confirmation)
	}
}

func TestMockServiceCreateBookingRejectsIncomplete(t *testing.T) {
	t.Parallel()

	svc := NewMockService()
	if _, err := svc.CreateBooking(context.Background(), BookingRequest{RestaurantID: "r-001"}); err == nil {
		t.Fatal("expected error for incomplete request")
	}
}
