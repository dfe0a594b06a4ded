package domain

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/pitchside/fieldbook/internal/platform/errors"
)

func TestCreateSlotGeneratesIDAndTimestamps(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	slot, err := CreateSlot(CreateSlotInput{
		FieldID: "field-1",
		Range:   MustTimeRange(time.Monday, 600, 660),
	}, func() time.Time { return now }, func() (string, error) { return "slot-1", nil })
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}
	if slot.ID != "slot-1" {
		t.Fatalf("slot id = %q", slot.ID)
	}
	if slot.Status != SlotStatusAvailable {
		t.Fatalf("expected new slot to be AVAILABLE, got %s", SlotStatusLabel(slot.Status))
	}
	if !slot.CreatedAt.Equal(now) || !slot.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected timestamps: %v / %v", slot.CreatedAt, slot.UpdatedAt)
	}
}

func TestCreateSlotRequiresFieldID(t *testing.T) {
	t.Parallel()

	_, err := CreateSlot(CreateSlotInput{
		FieldID: "  ",
		Range:   MustTimeRange(time.Monday, 600, 660),
	}, nil, nil)
	if !errors.Is(err, apperrors.New(apperrors.CodeSlotEmptyFieldID, "")) {
		t.Fatalf("expected SLOT_EMPTY_FIELD_ID, got %v", err)
	}
}

func TestCreateSlotRejectsInvalidRange(t *testing.T) {
	t.Parallel()

	_, err := CreateSlot(CreateSlotInput{
		FieldID: "field-1",
		Range:   TimeRange{Day: time.Monday, Start: 660, End: 600},
	}, nil, nil)
	if !errors.Is(err, apperrors.New(apperrors.CodeTimeRangeInvalid, "")) {
		t.Fatalf("expected TIMERANGE_INVALID, got %v", err)
	}
}
