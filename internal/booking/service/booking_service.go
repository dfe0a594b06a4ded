// Package service orchestrates the booking lifecycle: conflict checks
// against the slot registry, status transitions, and event publication.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pitchside/fieldbook/internal/booking/domain"
	"github.com/pitchside/fieldbook/internal/directory"
	"github.com/pitchside/fieldbook/internal/event"
	apperrors "github.com/pitchside/fieldbook/internal/platform/errors"
	"github.com/pitchside/fieldbook/internal/platform/id"
	scheduledomain "github.com/pitchside/fieldbook/internal/schedule/domain"
	"github.com/pitchside/fieldbook/internal/schedule/registry"
	"github.com/pitchside/fieldbook/internal/storage"
)

// Service drives booking transitions. All writes serialize on one exclusive
// scope; concurrent transitions on the same booking observe each other's
// post-transition state.
type Service struct {
	mu       sync.Mutex
	store    storage.BookingStore
	registry *registry.Registry
	lookup   directory.Lookup
	bus      *event.Bus
	logger   *slog.Logger
	clock    func() time.Time
	newID    func() (string, error)
}

// NewService creates a booking service with default clock and id generator.
func NewService(store storage.BookingStore, reg *registry.Registry, lookup directory.Lookup, bus *event.Bus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		registry: reg,
		lookup:   lookup,
		bus:      bus,
		logger:   logger,
		clock:    time.Now,
		newID:    id.NewID,
	}
}

// RequestInput describes a booking request for a field on a specific date.
type RequestInput struct {
	FieldID     string
	RequesterID string
	Date        time.Time
	Range       scheduledomain.TimeRange
}

// Request creates a PENDING booking against the field's availability.
//
// The requested range is checked against every slot of the field on that
// day: an overlap with a BOOKED or BLOCKED slot fails with BOOKING_CONFLICT;
// with no overlapping AVAILABLE slot it fails with BOOKING_NO_AVAILABILITY.
// The first overlapping AVAILABLE slot becomes the booking's slot. The slot
// is only marked BOOKED on approval, so concurrent PENDING requests for the
// same slot are allowed.
func (s *Service) Request(ctx context.Context, input RequestInput) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized, err := domain.NormalizeCreateBookingInput(domain.CreateBookingInput{
		FieldID:     input.FieldID,
		RequesterID: input.RequesterID,
		Date:        input.Date,
		Range:       input.Range,
	})
	if err != nil {
		return domain.Booking{}, err
	}

	var available *scheduledomain.Slot
	for _, slot := range s.registry.FindConflicting(normalized.FieldID, normalized.Range.Day, normalized.Range) {
		switch slot.Status {
		case scheduledomain.SlotStatusBooked, scheduledomain.SlotStatusBlocked:
			return domain.Booking{}, apperrors.WithMetadata(
				apperrors.CodeBookingConflict,
				"requested time conflicts with a held slot",
				map[string]string{
					"FieldID": normalized.FieldID,
					"SlotID":  slot.ID,
					"Range":   slot.Range.String(),
				},
			)
		case scheduledomain.SlotStatusAvailable:
			if available == nil {
				held := slot
				available = &held
			}
		}
	}
	if available == nil {
		return domain.Booking{}, apperrors.WithMetadata(
			apperrors.CodeBookingNoAvailability,
			"no availability covers the requested time",
			map[string]string{"FieldID": normalized.FieldID, "Range": normalized.Range.String()},
		)
	}
	normalized.SlotID = available.ID

	booking, err := domain.CreateBooking(normalized, s.clock, s.newID)
	if err != nil {
		return domain.Booking{}, err
	}
	if err := s.store.PutBooking(ctx, booking); err != nil {
		wrapped := apperrors.Wrap(apperrors.CodePersistence, "booking could not be saved", err)
		wrapped.Metadata = map[string]string{"BookingID": booking.ID}
		return domain.Booking{}, wrapped
	}

	s.publishToManager(ctx, event.TypeBookingRequest, booking, "notification.booking.request.title", "notification.booking.request.message")
	return booking, nil
}

// Approve moves a PENDING booking to APPROVED and marks its slot BOOKED.
// Only the field's manager may approve. Approval fails with BOOKING_CONFLICT
// when another booking already holds the slot.
func (s *Service) Approve(ctx context.Context, bookingID, approverID string) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if err := s.requireManager(ctx, booking.FieldID, approverID); err != nil {
		return domain.Booking{}, err
	}

	booking, err = domain.Transition(booking, domain.StatusApproved, s.clock)
	if err != nil {
		return domain.Booking{}, err
	}
	// Another approved booking may hold the slot: PENDING requests are
	// admitted while the slot is AVAILABLE, so the slot is re-checked here.
	slot, err := s.registry.Slot(booking.SlotID)
	if err != nil {
		return domain.Booking{}, err
	}
	if slot.Status != scheduledomain.SlotStatusAvailable {
		return domain.Booking{}, apperrors.WithMetadata(
			apperrors.CodeBookingConflict,
			"slot is no longer available",
			map[string]string{
				"BookingID":  booking.ID,
				"SlotID":     slot.ID,
				"SlotStatus": scheduledomain.SlotStatusLabel(slot.Status),
			},
		)
	}
	if err := s.registry.MarkBooked(ctx, booking.SlotID); err != nil {
		return domain.Booking{}, err
	}
	if err := s.store.PutBooking(ctx, booking); err != nil {
		return booking, s.persistenceError(booking.ID, err)
	}

	s.publish(ctx, event.Event{
		Type:        event.TypeBookingCreated,
		RecipientID: booking.RequesterID,
		SenderID:    approverID,
		TitleKey:    "notification.booking.created.title",
		MessageKey:  "notification.booking.created.message",
		Metadata: map[string]string{
			"BookingID": booking.ID,
			"FieldID":   booking.FieldID,
			"Status":    domain.StatusLabel(booking.Status),
		},
		Timestamp: s.clock().UTC(),
	})
	return booking, nil
}

// Reject moves a PENDING booking to REJECTED. Only the field's manager may
// reject; the reason key is forwarded to the requester.
func (s *Service) Reject(ctx context.Context, bookingID, approverID, reason string) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	if err := s.requireManager(ctx, booking.FieldID, approverID); err != nil {
		return domain.Booking{}, err
	}

	booking, err = domain.Transition(booking, domain.StatusRejected, s.clock)
	if err != nil {
		return domain.Booking{}, err
	}
	if err := s.store.PutBooking(ctx, booking); err != nil {
		return booking, s.persistenceError(booking.ID, err)
	}

	metadata := map[string]string{
		"BookingID": booking.ID,
		"FieldID":   booking.FieldID,
		"Status":    domain.StatusLabel(booking.Status),
	}
	if reason != "" {
		metadata["Reason"] = reason
	}
	s.publish(ctx, event.Event{
		Type:        event.TypeStatusChanged,
		RecipientID: booking.RequesterID,
		SenderID:    approverID,
		TitleKey:    "notification.booking.status.title",
		MessageKey:  "notification.booking.status.message",
		Metadata:    metadata,
		Timestamp:   s.clock().UTC(),
	})
	return booking, nil
}

// Cancel moves a PENDING or APPROVED booking to CANCELLED. Cancelling an
// APPROVED booking releases its slot back to AVAILABLE.
func (s *Service) Cancel(ctx context.Context, bookingID, actorID string) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}

	wasApproved := booking.Status == domain.StatusApproved
	booking, err = domain.Transition(booking, domain.StatusCancelled, s.clock)
	if err != nil {
		return domain.Booking{}, err
	}
	if wasApproved {
		if err := s.registry.MarkAvailable(ctx, booking.SlotID); err != nil {
			return domain.Booking{}, err
		}
	}
	if err := s.store.PutBooking(ctx, booking); err != nil {
		return booking, s.persistenceError(booking.ID, err)
	}

	s.publishToManager(ctx, event.TypeStatusChanged, booking, "notification.booking.status.title", "notification.booking.status.message")
	return booking, nil
}

// ExpireStale cancels every PENDING or APPROVED booking whose reserved time
// has fully passed, releasing held slots. Inconsistent records are logged
// and skipped; the sweep never aborts on one bad row. It returns the number
// of bookings cancelled.
func (s *Service) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []domain.Booking
	for _, status := range []domain.Status{domain.StatusPending, domain.StatusApproved} {
		bookings, err := s.store.ListBookingsByStatus(ctx, status)
		if err != nil {
			return 0, fmt.Errorf("list %s bookings: %w", domain.StatusLabel(status), err)
		}
		stale = append(stale, bookings...)
	}

	expired := 0
	for _, booking := range stale {
		if !booking.ElapsedBy(now) {
			continue
		}
		wasApproved := booking.Status == domain.StatusApproved
		cancelled, err := domain.Transition(booking, domain.StatusCancelled, s.clock)
		if err != nil {
			s.logger.Error("skip inconsistent booking during sweep",
				"booking_id", booking.ID, "status", domain.StatusLabel(booking.Status), "error", err)
			continue
		}
		if wasApproved {
			if err := s.registry.MarkAvailable(ctx, cancelled.SlotID); err != nil {
				s.logger.Error("release slot during sweep", "booking_id", booking.ID, "slot_id", cancelled.SlotID, "error", err)
				continue
			}
		}
		if err := s.store.PutBooking(ctx, cancelled); err != nil {
			s.logger.Error("persist swept booking", "booking_id", booking.ID, "error", err)
			continue
		}
		s.publishToManager(ctx, event.TypeStatusChanged, cancelled, "notification.booking.status.title", "notification.booking.status.message")
		expired++
	}
	return expired, nil
}

// Get returns one booking by id.
func (s *Service) Get(ctx context.Context, bookingID string) (domain.Booking, error) {
	return s.getBooking(ctx, bookingID)
}

func (s *Service) getBooking(ctx context.Context, bookingID string) (domain.Booking, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Booking{}, apperrors.WithMetadata(
				apperrors.CodeNotFound,
				"booking not found",
				map[string]string{"BookingID": bookingID},
			)
		}
		return domain.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return booking, nil
}

func (s *Service) requireManager(ctx context.Context, fieldID, actorID string) error {
	managerID, err := s.lookup.GetManager(ctx, fieldID)
	if err != nil {
		return fmt.Errorf("resolve field manager: %w", err)
	}
	if managerID != actorID {
		return apperrors.WithMetadata(
			apperrors.CodeActorNotManager,
			"actor does not manage this field",
			map[string]string{"FieldID": fieldID, "ActorID": actorID},
		)
	}
	return nil
}

// persistenceError wraps a failed save after the in-memory transition
// already committed. Callers must treat the transition as applied but not
// yet durable and may retry the save.
func (s *Service) persistenceError(bookingID string, err error) error {
	wrapped := apperrors.Wrap(apperrors.CodePersistence, "booking changed but could not be saved", err)
	wrapped.Metadata = map[string]string{"BookingID": bookingID}
	return wrapped
}

func (s *Service) publishToManager(ctx context.Context, eventType event.Type, booking domain.Booking, titleKey, messageKey string) {
	recipientID, err := s.lookup.GetManager(ctx, booking.FieldID)
	if err != nil {
		s.logger.Error("resolve manager for notification", "field_id", booking.FieldID, "error", err)
		return
	}
	s.publish(ctx, event.Event{
		Type:        eventType,
		RecipientID: recipientID,
		SenderID:    booking.RequesterID,
		TitleKey:    titleKey,
		MessageKey:  messageKey,
		Metadata: map[string]string{
			"BookingID": booking.ID,
			"FieldID":   booking.FieldID,
			"Status":    domain.StatusLabel(booking.Status),
		},
		Timestamp: s.clock().UTC(),
	})
}

func (s *Service) publish(ctx context.Context, evt event.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, evt)
}
