package domain

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/pitchside/fieldbook/internal/platform/errors"
	scheduledomain "github.com/pitchside/fieldbook/internal/schedule/domain"
)

func validInput() CreateBookingInput {
	return CreateBookingInput{
		FieldID:     "field-1",
		RequesterID: "alice",
		SlotID:      "slot-1",
		Date:        time.Date(2026, 9, 7, 15, 30, 0, 0, time.UTC),
		Range:       scheduledomain.MustTimeRange(time.Monday, 600, 660),
	}
}

func TestCreateBookingStartsPending(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	booking, err := CreateBooking(validInput(), func() time.Time { return now }, func() (string, error) { return "booking-1", nil })
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if booking.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", StatusLabel(booking.Status))
	}
	if booking.ID != "booking-1" {
		t.Fatalf("booking id = %q", booking.ID)
	}
	if booking.Date.Hour() != 0 {
		t.Fatalf("expected date truncated to midnight, got %v", booking.Date)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*CreateBookingInput)
		code   apperrors.Code
	}{
		{"empty field", func(in *CreateBookingInput) { in.FieldID = " " }, apperrors.CodeBookingEmptyFieldID},
		{"empty requester", func(in *CreateBookingInput) { in.RequesterID = "" }, apperrors.CodeBookingEmptyRequesterID},
		{"zero date", func(in *CreateBookingInput) { in.Date = time.Time{} }, apperrors.CodeBookingDateRequired},
		{"inverted range", func(in *CreateBookingInput) { in.Range = scheduledomain.TimeRange{Day: time.Monday, Start: 660, End: 600} }, apperrors.CodeTimeRangeInvalid},
		{"date off the range's day", func(in *CreateBookingInput) { in.Date = time.Date(2026, 9, 8, 15, 30, 0, 0, time.UTC) }, apperrors.CodeBookingDateDayMismatch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			input := validInput()
			tc.mutate(&input)
			_, err := CreateBooking(input, nil, nil)
			if !errors.Is(err, apperrors.New(tc.code, "")) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestCanTransitionClosure(t *testing.T) {
	t.Parallel()

	legal := map[[2]Status]bool{
		{StatusPending, StatusApproved}:  true,
		{StatusPending, StatusRejected}:  true,
		{StatusPending, StatusCancelled}: true,
		{StatusApproved, StatusCancelled}: true,
	}
	all := []Status{StatusUnspecified, StatusPending, StatusApproved, StatusRejected, StatusCancelled}
	for _, from := range all {
		for _, to := range all {
			want := legal[[2]Status{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", StatusLabel(from), StatusLabel(to), got, want)
			}
		}
	}
}

func TestTransitionLeavesStateUnchangedOnError(t *testing.T) {
	t.Parallel()

	booking := Booking{ID: "booking-1", Status: StatusRejected}
	got, err := Transition(booking, StatusApproved, nil)
	if !errors.Is(err, apperrors.New(apperrors.CodeBookingInvalidTransition, "")) {
		t.Fatalf("expected BOOKING_INVALID_STATUS_TRANSITION, got %v", err)
	}
	if got.Status != StatusRejected {
		t.Fatalf("expected state unchanged, got %s", StatusLabel(got.Status))
	}
}

func TestElapsedBy(t *testing.T) {
	t.Parallel()

	booking := Booking{
		Date:  time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		Range: scheduledomain.MustTimeRange(time.Monday, 600, 660),
	}
	before := time.Date(2026, 9, 7, 10, 59, 0, 0, time.UTC)
	after := time.Date(2026, 9, 7, 11, 1, 0, 0, time.UTC)
	if booking.ElapsedBy(before) {
		t.Fatal("expected booking not elapsed before its end")
	}
	if !booking.ElapsedBy(after) {
		t.Fatal("expected booking elapsed after its end")
	}
}
