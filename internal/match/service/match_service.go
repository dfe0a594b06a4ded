// Package service orchestrates the match lifecycle: organizing against an
// approved booking, roster changes, status transitions, and event
// publication.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	bookingdomain "github.com/pitchside/fieldbook/internal/booking/domain"
	"github.com/pitchside/fieldbook/internal/directory"
	"github.com/pitchside/fieldbook/internal/event"
	"github.com/pitchside/fieldbook/internal/match/domain"
	"github.com/pitchside/fieldbook/internal/match/invite"
	apperrors "github.com/pitchside/fieldbook/internal/platform/errors"
	"github.com/pitchside/fieldbook/internal/platform/id"
	"github.com/pitchside/fieldbook/internal/storage"
)

// Service drives match transitions. Matches are downstream of bookings: the
// backing booking must already be APPROVED, and approving a match never
// touches the booking.
type Service struct {
	mu       sync.Mutex
	matches  storage.MatchStore
	bookings storage.BookingStore
	lookup   directory.Lookup
	bus      *event.Bus
	verifier *invite.VerifierConfig
	logger   *slog.Logger
	clock    func() time.Time
	newID    func() (string, error)
}

// NewService creates a match service with default clock and id generator.
// The verifier is optional; without it JoinWithGrant rejects every grant.
func NewService(matches storage.MatchStore, bookings storage.BookingStore, lookup directory.Lookup, bus *event.Bus, verifier *invite.VerifierConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		matches:  matches,
		bookings: bookings,
		lookup:   lookup,
		bus:      bus,
		verifier: verifier,
		logger:   logger,
		clock:    time.Now,
		newID:    id.NewID,
	}
}

// OrganizeInput describes a match organized against an approved booking.
type OrganizeInput struct {
	BookingID       string
	OrganizerID     string
	Sport           domain.Sport
	RequiredPlayers int
}

// Organize creates a PENDING match backed by an APPROVED booking. The match
// inherits the booking's date and range; the organizer joins the roster.
func (s *Service) Organize(ctx context.Context, input OrganizeInput) (domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, err := s.getBooking(ctx, input.BookingID)
	if err != nil {
		return domain.Match{}, err
	}
	if booking.Status != bookingdomain.StatusApproved {
		return domain.Match{}, apperrors.WithMetadata(
			apperrors.CodeMatchBookingNotApproved,
			"backing booking is not approved",
			map[string]string{
				"BookingID": booking.ID,
				"Status":    bookingdomain.StatusLabel(booking.Status),
			},
		)
	}

	match, err := domain.CreateMatch(domain.CreateMatchInput{
		BookingID:       booking.ID,
		OrganizerID:     input.OrganizerID,
		Sport:           input.Sport,
		Date:            booking.Date,
		Range:           booking.Range,
		RequiredPlayers: input.RequiredPlayers,
	}, s.clock, s.newID)
	if err != nil {
		return domain.Match{}, err
	}
	if err := s.matches.PutMatch(ctx, match); err != nil {
		wrapped := apperrors.Wrap(apperrors.CodePersistence, "match could not be saved", err)
		wrapped.Metadata = map[string]string{"MatchID": match.ID}
		return domain.Match{}, wrapped
	}

	recipientID, err := s.lookup.GetManager(ctx, booking.FieldID)
	if err != nil {
		s.logger.Error("resolve manager for notification", "field_id", booking.FieldID, "error", err)
		return match, nil
	}
	s.publish(ctx, event.Event{
		Type:        event.TypeMatchCreated,
		RecipientID: recipientID,
		SenderID:    match.OrganizerID,
		TitleKey:    "notification.match.created.title",
		MessageKey:  "notification.match.created.message",
		Metadata: map[string]string{
			"MatchID":   match.ID,
			"BookingID": booking.ID,
			"FieldID":   booking.FieldID,
			"Sport":     string(match.Sport),
		},
		Timestamp: s.clock().UTC(),
	})
	return match, nil
}

// Join adds a player to a match roster.
func (s *Service) Join(ctx context.Context, matchID, userID string) (domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.join(ctx, matchID, userID)
}

// JoinWithGrant adds a player after verifying a signed join grant minted
// for exactly this match and user.
func (s *Service) JoinWithGrant(ctx context.Context, matchID, userID, grant string) (domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.verifier == nil {
		return domain.Match{}, apperrors.New(apperrors.CodeInviteGrantInvalid, "join grants are not accepted")
	}
	if _, err := invite.Validate(grant, invite.Expectation{MatchID: matchID, UserID: userID}, *s.verifier); err != nil {
		return domain.Match{}, err
	}
	return s.join(ctx, matchID, userID)
}

func (s *Service) join(ctx context.Context, matchID, userID string) (domain.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return domain.Match{}, err
	}

	joined, err := domain.Join(match, userID, s.clock)
	if err != nil {
		return domain.Match{}, err
	}
	if len(joined.JoinedPlayers) == len(match.JoinedPlayers) {
		// Duplicate join: nothing changed, nothing to persist or announce.
		return joined, nil
	}
	if err := s.matches.PutMatch(ctx, joined); err != nil {
		return joined, s.persistenceError(joined.ID, err)
	}

	s.publishRosterChange(ctx, joined, userID, "joined")
	return joined, nil
}

// Leave removes a player from a match roster. The organizer role survives
// the organizer leaving.
func (s *Service) Leave(ctx context.Context, matchID, userID string) (domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return domain.Match{}, err
	}

	left, err := domain.Leave(match, userID, s.clock)
	if err != nil {
		return domain.Match{}, err
	}
	if len(left.JoinedPlayers) == len(match.JoinedPlayers) {
		return left, nil
	}
	if err := s.matches.PutMatch(ctx, left); err != nil {
		return left, s.persistenceError(left.ID, err)
	}

	s.publishRosterChange(ctx, left, userID, "left")
	return left, nil
}

// Approve moves a PENDING match to APPROVED. Only the manager of the
// backing booking's field may approve, and the booking must still be
// APPROVED.
func (s *Service) Approve(ctx context.Context, matchID, approverID string) (domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return domain.Match{}, err
	}
	booking, err := s.getBooking(ctx, match.BookingID)
	if err != nil {
		return domain.Match{}, err
	}
	if err := s.requireManager(ctx, booking.FieldID, approverID); err != nil {
		return domain.Match{}, err
	}
	if booking.Status != bookingdomain.StatusApproved {
		return domain.Match{}, apperrors.WithMetadata(
			apperrors.CodeMatchBookingNotApproved,
			"backing booking is not approved",
			map[string]string{
				"BookingID": booking.ID,
				"Status":    bookingdomain.StatusLabel(booking.Status),
			},
		)
	}

	return s.transition(ctx, match, domain.StatusApproved, approverID)
}

// Reject moves a PENDING match to REJECTED. Only the field's manager may
// reject.
func (s *Service) Reject(ctx context.Context, matchID, approverID string) (domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return domain.Match{}, err
	}
	booking, err := s.getBooking(ctx, match.BookingID)
	if err != nil {
		return domain.Match{}, err
	}
	if err := s.requireManager(ctx, booking.FieldID, approverID); err != nil {
		return domain.Match{}, err
	}

	return s.transition(ctx, match, domain.StatusRejected, approverID)
}

// Cancel moves a PENDING or APPROVED match to CANCELLED.
func (s *Service) Cancel(ctx context.Context, matchID, actorID string) (domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return domain.Match{}, err
	}
	return s.transition(ctx, match, domain.StatusCancelled, actorID)
}

// ExpireStale sweeps matches whose scheduled time has fully passed: an
// APPROVED match that was never played becomes EXPIRED, a PENDING one
// becomes CANCELLED. The sweep is independent of the backing booking's own
// expiry. Inconsistent records are logged and skipped. It returns the
// number of matches swept.
func (s *Service) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type sweep struct {
		from domain.Status
		to   domain.Status
	}
	swept := 0
	for _, rule := range []sweep{
		{from: domain.StatusApproved, to: domain.StatusExpired},
		{from: domain.StatusPending, to: domain.StatusCancelled},
	} {
		matches, err := s.matches.ListMatchesByStatus(ctx, rule.from)
		if err != nil {
			return swept, fmt.Errorf("list %s matches: %w", domain.StatusLabel(rule.from), err)
		}
		for _, match := range matches {
			if !match.ElapsedBy(now) {
				continue
			}
			expired, err := domain.Transition(match, rule.to, s.clock)
			if err != nil {
				s.logger.Error("skip inconsistent match during sweep",
					"match_id", match.ID, "status", domain.StatusLabel(match.Status), "error", err)
				continue
			}
			if err := s.matches.PutMatch(ctx, expired); err != nil {
				s.logger.Error("persist swept match", "match_id", match.ID, "error", err)
				continue
			}
			s.publishStatusChange(ctx, expired, "")
			swept++
		}
	}
	return swept, nil
}

// Get returns one match by id.
func (s *Service) Get(ctx context.Context, matchID string) (domain.Match, error) {
	return s.getMatch(ctx, matchID)
}

func (s *Service) transition(ctx context.Context, match domain.Match, to domain.Status, actorID string) (domain.Match, error) {
	changed, err := domain.Transition(match, to, s.clock)
	if err != nil {
		return domain.Match{}, err
	}
	if err := s.matches.PutMatch(ctx, changed); err != nil {
		return changed, s.persistenceError(changed.ID, err)
	}
	s.publishStatusChange(ctx, changed, actorID)
	return changed, nil
}

func (s *Service) getMatch(ctx context.Context, matchID string) (domain.Match, error) {
	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Match{}, apperrors.WithMetadata(
				apperrors.CodeNotFound,
				"match not found",
				map[string]string{"MatchID": matchID},
			)
		}
		return domain.Match{}, fmt.Errorf("get match: %w", err)
	}
	return match, nil
}

func (s *Service) getBooking(ctx context.Context, bookingID string) (bookingdomain.Booking, error) {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return bookingdomain.Booking{}, apperrors.WithMetadata(
				apperrors.CodeNotFound,
				"booking not found",
				map[string]string{"BookingID": bookingID},
			)
		}
		return bookingdomain.Booking{}, fmt.Errorf("get booking: %w", err)
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

func (s *Service) persistenceError(matchID string, err error) error {
	wrapped := apperrors.Wrap(apperrors.CodePersistence, "match changed but could not be saved", err)
	wrapped.Metadata = map[string]string{"MatchID": matchID}
	return wrapped
}

func (s *Service) publishStatusChange(ctx context.Context, match domain.Match, actorID string) {
	s.publish(ctx, event.Event{
		Type:        event.TypeStatusChanged,
		RecipientID: match.OrganizerID,
		SenderID:    actorID,
		TitleKey:    "notification.match.status.title",
		MessageKey:  "notification.match.status.message",
		Metadata: map[string]string{
			"MatchID": match.ID,
			"Status":  domain.StatusLabel(match.Status),
		},
		Timestamp: s.clock().UTC(),
	})
}

func (s *Service) publishRosterChange(ctx context.Context, match domain.Match, userID, action string) {
	s.publish(ctx, event.Event{
		Type:        event.TypeStatusChanged,
		RecipientID: match.OrganizerID,
		SenderID:    userID,
		TitleKey:    "notification.match.roster.title",
		MessageKey:  "notification.match.roster.message",
		Metadata: map[string]string{
			"MatchID": match.ID,
			"UserID":  userID,
			"Action":  action,
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
