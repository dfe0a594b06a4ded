// Package registry owns the in-memory set of weekly availability slots per
// field and answers availability and conflict queries.
package registry

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	apperrors "github.com/pitchside/fieldbook/internal/platform/errors"
	"github.com/pitchside/fieldbook/internal/platform/id"
	"github.com/pitchside/fieldbook/internal/schedule/domain"
)

// SlotStore is the persistence hook called after a slot mutation commits
// in memory.
type SlotStore interface {
	PutSlot(ctx context.Context, slot domain.Slot) error
}

// Registry is the source of truth for field availability.
//
// Reads take a shared lock and may run concurrently; writes take the
// exclusive lock. Lifecycle services serialize their own check-then-act
// sequences, so the registry itself needs no transaction semantics.
type Registry struct {
	mu      sync.RWMutex
	slots   map[string]domain.Slot
	byField map[string][]string

	store SlotStore
	clock func() time.Time
	newID func() (string, error)
}

// NewRegistry creates an empty registry with default dependencies.
func NewRegistry(store SlotStore) *Registry {
	return &Registry{
		slots:   make(map[string]domain.Slot),
		byField: make(map[string][]string),
		store:   store,
		clock:   time.Now,
		newID:   id.NewID,
	}
}

// Load seeds the registry from persisted slots, replacing current contents.
// Overlapping AVAILABLE slots in the input are a data error.
func (r *Registry) Load(slots []domain.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.slots = make(map[string]domain.Slot, len(slots))
	r.byField = make(map[string][]string)
	for _, slot := range slots {
		for _, existingID := range r.byField[slot.FieldID] {
			existing := r.slots[existingID]
			if existing.Range.Overlaps(slot.Range) {
				return apperrors.WithMetadata(
					apperrors.CodeSlotConflict,
					"persisted slots overlap",
					map[string]string{"SlotID": slot.ID, "OtherSlotID": existing.ID},
				)
			}
		}
		r.slots[slot.ID] = slot
		r.byField[slot.FieldID] = append(r.byField[slot.FieldID], slot.ID)
	}
	return nil
}

// RegisterSlot adds a new AVAILABLE weekly slot for a field. It fails with
// SLOT_CONFLICT when the range overlaps any existing slot of the field on
// the same day.
func (r *Registry) RegisterSlot(ctx context.Context, fieldID string, timeRange domain.TimeRange) (domain.Slot, error) {
	slot, err := domain.CreateSlot(domain.CreateSlotInput{
		FieldID: fieldID,
		Range:   timeRange,
	}, r.clock, r.newID)
	if err != nil {
		return domain.Slot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existingID := range r.byField[slot.FieldID] {
		existing := r.slots[existingID]
		if existing.Range.Overlaps(slot.Range) {
			return domain.Slot{}, apperrors.WithMetadata(
				apperrors.CodeSlotConflict,
				"slot overlaps an existing slot",
				map[string]string{
					"FieldID":     slot.FieldID,
					"OtherSlotID": existing.ID,
				},
			)
		}
	}

	r.slots[slot.ID] = slot
	r.byField[slot.FieldID] = append(r.byField[slot.FieldID], slot.ID)

	if err := r.persist(ctx, slot); err != nil {
		return slot, err
	}
	return slot, nil
}

// FindAvailable returns a lazy, restartable sequence of the field's
// AVAILABLE slots for a day. Each iteration observes the registry state at
// the time it starts.
func (r *Registry) FindAvailable(fieldID string, day time.Weekday) iter.Seq[domain.Slot] {
	return func(yield func(domain.Slot) bool) {
		for _, slot := range r.fieldSlots(fieldID) {
			if slot.Status != domain.SlotStatusAvailable || slot.Range.Day != day {
				continue
			}
			if !yield(slot) {
				return
			}
		}
	}
}

// FindConflicting returns every slot of the field, regardless of status,
// whose range overlaps the given range on the given day. The scan is linear
// in the field's slot count.
func (r *Registry) FindConflicting(fieldID string, day time.Weekday, timeRange domain.TimeRange) []domain.Slot {
	probe := timeRange
	probe.Day = day

	var conflicting []domain.Slot
	for _, slot := range r.fieldSlots(fieldID) {
		if slot.Range.Overlaps(probe) {
			conflicting = append(conflicting, slot)
		}
	}
	return conflicting
}

// MarkBooked transitions a slot to BOOKED. It is idempotent when the slot is
// already BOOKED.
func (r *Registry) MarkBooked(ctx context.Context, slotID string) error {
	return r.setStatus(ctx, slotID, domain.SlotStatusBooked)
}

// MarkAvailable releases a slot back to AVAILABLE. It is idempotent when the
// slot is already AVAILABLE.
func (r *Registry) MarkAvailable(ctx context.Context, slotID string) error {
	return r.setStatus(ctx, slotID, domain.SlotStatusAvailable)
}

// Slot returns one slot by id.
func (r *Registry) Slot(slotID string) (domain.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slot, ok := r.slots[slotID]
	if !ok {
		return domain.Slot{}, slotNotFound(slotID)
	}
	return slot, nil
}

func (r *Registry) setStatus(ctx context.Context, slotID string, status domain.SlotStatus) error {
	r.mu.Lock()
	slot, ok := r.slots[slotID]
	if !ok {
		r.mu.Unlock()
		return slotNotFound(slotID)
	}
	if slot.Status == status {
		r.mu.Unlock()
		return nil
	}
	slot.Status = status
	slot.UpdatedAt = r.clock().UTC()
	r.slots[slotID] = slot
	r.mu.Unlock()

	return r.persist(ctx, slot)
}

// fieldSlots copies the field's slots under the read lock in registration order.
func (r *Registry) fieldSlots(fieldID string) []domain.Slot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byField[fieldID]
	slots := make([]domain.Slot, 0, len(ids))
	for _, slotID := range ids {
		slots = append(slots, r.slots[slotID])
	}
	return slots
}

func (r *Registry) persist(ctx context.Context, slot domain.Slot) error {
	if r.store == nil {
		return nil
	}
	if err := r.store.PutSlot(ctx, slot); err != nil {
		return apperrors.Wrap(apperrors.CodePersistence, fmt.Sprintf("save slot %s", slot.ID), err)
	}
	return nil
}

func slotNotFound(slotID string) error {
	return apperrors.WithMetadata(
		apperrors.CodeSlotNotFound,
		"slot not found",
		map[string]string{"SlotID": slotID},
	)
}
