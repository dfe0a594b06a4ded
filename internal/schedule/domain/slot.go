package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/pitchside/fieldbook/internal/platform/errors"
	"github.com/pitchside/fieldbook/internal/platform/id"
)

// SlotStatus describes the availability state of a weekly slot.
type SlotStatus int

const (
	// SlotStatusUnspecified represents an invalid slot status value.
	SlotStatusUnspecified SlotStatus = iota
	// SlotStatusAvailable indicates the slot is open for booking.
	SlotStatusAvailable
	// SlotStatusBooked indicates the slot is held by an approved booking.
	SlotStatusBooked
	// SlotStatusBlocked indicates the slot is withheld by the field manager.
	SlotStatusBlocked
)

// SlotStatusLabel returns the string label for a slot status.
func SlotStatusLabel(status SlotStatus) string {
	switch status {
	case SlotStatusAvailable:
		return "AVAILABLE"
	case SlotStatusBooked:
		return "BOOKED"
	case SlotStatusBlocked:
		return "BLOCKED"
	default:
		return "UNSPECIFIED"
	}
}

// Slot is one weekly recurring availability window owned by a field.
type Slot struct {
	ID        string
	FieldID   string
	Range     TimeRange
	Status    SlotStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateSlotInput describes the metadata needed to register a slot.
type CreateSlotInput struct {
	FieldID string
	Range   TimeRange
}

// CreateSlot creates a new AVAILABLE slot with a generated ID and timestamps.
func CreateSlot(input CreateSlotInput, now func() time.Time, idGenerator func() (string, error)) (Slot, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.FieldID = strings.TrimSpace(input.FieldID)
	if input.FieldID == "" {
		return Slot{}, errors.New(errors.CodeSlotEmptyFieldID, "field id is required")
	}
	if _, err := NewTimeRange(input.Range.Day, input.Range.Start, input.Range.End); err != nil {
		return Slot{}, err
	}

	slotID, err := idGenerator()
	if err != nil {
		return Slot{}, fmt.Errorf("generate slot id: %w", err)
	}

	createdAt := now().UTC()
	return Slot{
		ID:        slotID,
		FieldID:   input.FieldID,
		Range:     input.Range,
		Status:    SlotStatusAvailable,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}
