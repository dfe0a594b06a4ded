// Package domain holds the booking record and its pure transition rules.
package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/pitchside/fieldbook/internal/platform/errors"
	"github.com/pitchside/fieldbook/internal/platform/id"
	scheduledomain "github.com/pitchside/fieldbook/internal/schedule/domain"
)

// Status describes the lifecycle state of a booking.
type Status int

const (
	// StatusUnspecified represents an invalid booking status value.
	StatusUnspecified Status = iota
	// StatusPending indicates the booking awaits the field manager's review.
	StatusPending
	// StatusApproved indicates the booking holds its slot.
	StatusApproved
	// StatusRejected indicates the manager declined the booking. Terminal.
	StatusRejected
	// StatusCancelled indicates the booking was withdrawn or swept. Terminal.
	StatusCancelled
)

// StatusLabel returns the string label for a booking status.
func StatusLabel(status Status) string {
	switch status {
	case StatusPending:
		return "PENDING"
	case StatusApproved:
		return "APPROVED"
	case StatusRejected:
		return "REJECTED"
	case StatusCancelled:
		return "CANCELLED"
	default:
		return "UNSPECIFIED"
	}
}

// Booking is a request to reserve a field slot for a specific date,
// independent of any match. Fields and requesters are weak references
// resolved through the directory collaborator.
type Booking struct {
	ID          string
	FieldID     string
	RequesterID string
	SlotID      string
	Date        time.Time
	Range       scheduledomain.TimeRange
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ElapsedBy reports whether the booking's reserved time has fully passed.
func (b Booking) ElapsedBy(now time.Time) bool {
	return b.Range.EndOn(b.Date).Before(now)
}

// CreateBookingInput describes the metadata needed to request a booking.
type CreateBookingInput struct {
	FieldID     string
	RequesterID string
	SlotID      string
	Date        time.Time
	Range       scheduledomain.TimeRange
}

// CreateBooking creates a new PENDING booking with a generated ID and
// timestamps.
func CreateBooking(input CreateBookingInput, now func() time.Time, idGenerator func() (string, error)) (Booking, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateBookingInput(input)
	if err != nil {
		return Booking{}, err
	}

	bookingID, err := idGenerator()
	if err != nil {
		return Booking{}, fmt.Errorf("generate booking id: %w", err)
	}

	createdAt := now().UTC()
	return Booking{
		ID:          bookingID,
		FieldID:     normalized.FieldID,
		RequesterID: normalized.RequesterID,
		SlotID:      normalized.SlotID,
		Date:        normalized.Date,
		Range:       normalized.Range,
		Status:      StatusPending,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}, nil
}

// NormalizeCreateBookingInput trims and validates booking input metadata.
func NormalizeCreateBookingInput(input CreateBookingInput) (CreateBookingInput, error) {
	input.FieldID = strings.TrimSpace(input.FieldID)
	if input.FieldID == "" {
		return CreateBookingInput{}, apperrors.New(apperrors.CodeBookingEmptyFieldID, "field id is required")
	}
	input.RequesterID = strings.TrimSpace(input.RequesterID)
	if input.RequesterID == "" {
		return CreateBookingInput{}, apperrors.New(apperrors.CodeBookingEmptyRequesterID, "requester id is required")
	}
	input.SlotID = strings.TrimSpace(input.SlotID)
	if input.Date.IsZero() {
		return CreateBookingInput{}, apperrors.New(apperrors.CodeBookingDateRequired, "booking date is required")
	}
	if _, err := scheduledomain.NewTimeRange(input.Range.Day, input.Range.Start, input.Range.End); err != nil {
		return CreateBookingInput{}, err
	}
	input.Date = input.Date.UTC().Truncate(24 * time.Hour)
	if input.Date.Weekday() != input.Range.Day {
		return CreateBookingInput{}, apperrors.WithMetadata(
			apperrors.CodeBookingDateDayMismatch,
			"booking date does not fall on the range's day",
			map[string]string{
				"Date": input.Date.Format("2006-01-02"),
				"Day":  input.Range.Day.String(),
			},
		)
	}
	return input, nil
}

// CanTransition reports whether a booking may move between two statuses.
// REJECTED and CANCELLED are terminal; nothing re-enters PENDING.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected || to == StatusCancelled
	case StatusApproved:
		return to == StatusCancelled
	default:
		return false
	}
}

// Transition applies a status change, failing with
// BOOKING_INVALID_STATUS_TRANSITION on an illegal edge. The booking is
// returned unchanged on error.
func Transition(booking Booking, to Status, now func() time.Time) (Booking, error) {
	if now == nil {
		now = time.Now
	}
	if !CanTransition(booking.Status, to) {
		return booking, apperrors.WithMetadata(
			apperrors.CodeBookingInvalidTransition,
			"illegal booking status transition",
			map[string]string{
				"BookingID": booking.ID,
				"From":      StatusLabel(booking.Status),
				"To":        StatusLabel(to),
			},
		)
	}
	booking.Status = to
	booking.UpdatedAt = now().UTC()
	return booking, nil
}
