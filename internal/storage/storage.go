package storage

import (
	"context"
	"errors"
	"time"

	bookingdomain "github.com/pitchside/fieldbook/internal/booking/domain"
	"github.com/pitchside/fieldbook/internal/directory"
	matchdomain "github.com/pitchside/fieldbook/internal/match/domain"
	scheduledomain "github.com/pitchside/fieldbook/internal/schedule/domain"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// SlotStore persists availability slot records.
type SlotStore interface {
	PutSlot(ctx context.Context, slot scheduledomain.Slot) error
	ListSlots(ctx context.Context) ([]scheduledomain.Slot, error)
}

// BookingStore persists booking lifecycle records.
type BookingStore interface {
	PutBooking(ctx context.Context, booking bookingdomain.Booking) error
	GetBooking(ctx context.Context, id string) (bookingdomain.Booking, error)
	ListBookingsByStatus(ctx context.Context, status bookingdomain.Status) ([]bookingdomain.Booking, error)
}

// MatchStore persists match lifecycle records, including rosters.
type MatchStore interface {
	PutMatch(ctx context.Context, match matchdomain.Match) error
	GetMatch(ctx context.Context, id string) (matchdomain.Match, error)
	ListMatchesByStatus(ctx context.Context, status matchdomain.Status) ([]matchdomain.Match, error)
}

// FieldStore resolves field records and their managers.
type FieldStore interface {
	PutField(ctx context.Context, field directory.Field, updatedAt time.Time) error
	GetField(ctx context.Context, id string) (directory.Field, error)
}

// UserStore resolves user records referenced by bookings and matches.
type UserStore interface {
	PutUser(ctx context.Context, user directory.User, updatedAt time.Time) error
	GetUser(ctx context.Context, id string) (directory.User, error)
}
