package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	bookingdomain "github.com/pitchside/fieldbook/internal/booking/domain"
	"github.com/pitchside/fieldbook/internal/directory"
	"github.com/pitchside/fieldbook/internal/event"
	"github.com/pitchside/fieldbook/internal/match/domain"
	"github.com/pitchside/fieldbook/internal/match/invite"
	apperrors "github.com/pitchside/fieldbook/internal/platform/errors"
	scheduledomain "github.com/pitchside/fieldbook/internal/schedule/domain"
	"github.com/pitchside/fieldbook/internal/storage"
)

type fakeMatchStore struct {
	mu      sync.Mutex
	matches map[string]domain.Match
	putErr  error
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{matches: make(map[string]domain.Match)}
}

func (f *fakeMatchStore) PutMatch(_ context.Context, match domain.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.matches[match.ID] = match
	return nil
}

func (f *fakeMatchStore) GetMatch(_ context.Context, id string) (domain.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	match, ok := f.matches[id]
	if !ok {
		return domain.Match{}, storage.ErrNotFound
	}
	return match, nil
}

func (f *fakeMatchStore) ListMatchesByStatus(_ context.Context, status domain.Status) ([]domain.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Match
	for _, match := range f.matches {
		if match.Status == status {
			out = append(out, match)
		}
	}
	return out, nil
}

type fakeBookingStore struct {
	bookings map[string]bookingdomain.Booking
}

func (f *fakeBookingStore) PutBooking(_ context.Context, booking bookingdomain.Booking) error {
	f.bookings[booking.ID] = booking
	return nil
}

func (f *fakeBookingStore) GetBooking(_ context.Context, id string) (bookingdomain.Booking, error) {
	booking, ok := f.bookings[id]
	if !ok {
		return bookingdomain.Booking{}, storage.ErrNotFound
	}
	return booking, nil
}

func (f *fakeBookingStore) ListBookingsByStatus(_ context.Context, status bookingdomain.Status) ([]bookingdomain.Booking, error) {
	var out []bookingdomain.Booking
	for _, booking := range f.bookings {
		if booking.Status == status {
			out = append(out, booking)
		}
	}
	return out, nil
}

type fakeLookup struct {
	managers map[string]string
}

func (f *fakeLookup) GetField(_ context.Context, fieldID string) (directory.Field, error) {
	managerID, ok := f.managers[fieldID]
	if !ok {
		return directory.Field{}, storage.ErrNotFound
	}
	return directory.Field{ID: fieldID, ManagerID: managerID}, nil
}

func (f *fakeLookup) GetManager(_ context.Context, fieldID string) (string, error) {
	managerID, ok := f.managers[fieldID]
	if !ok {
		return "", storage.ErrNotFound
	}
	return managerID, nil
}

func (f *fakeLookup) GetUser(_ context.Context, userID string) (directory.User, error) {
	return directory.User{ID: userID, Role: directory.RolePlayer}, nil
}

type recordingObserver struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recordingObserver) OnEvent(_ context.Context, evt event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recordingObserver) byType(eventType event.Type) []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.Event
	for _, evt := range r.events {
		if evt.Type == eventType {
			out = append(out, evt)
		}
	}
	return out
}

type fixture struct {
	service  *Service
	matches  *fakeMatchStore
	bookings *fakeBookingStore
	observer *recordingObserver
	verifier invite.VerifierConfig
	signer   invite.SignerConfig
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	matches := newFakeMatchStore()
	bookings := &fakeBookingStore{bookings: make(map[string]bookingdomain.Booking)}
	lookup := &fakeLookup{managers: map[string]string{"field-1": "mgr-1"}}
	bus := event.NewBus(logger)
	observer := &recordingObserver{}
	bus.Subscribe(observer)

	clock := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	verifier := invite.VerifierConfig{Issuer: "fieldbook", Audience: "scheduler", Key: publicKey, Now: now}
	signer := invite.SignerConfig{Issuer: "fieldbook", Audience: "scheduler", Key: privateKey, TTL: time.Hour, Now: now}

	svc := NewService(matches, bookings, lookup, bus, &verifier, logger)
	svc.clock = now
	seq := 0
	svc.newID = func() (string, error) {
		seq++
		return fmt.Sprintf("match-%d", seq), nil
	}
	return &fixture{
		service:  svc,
		matches:  matches,
		bookings: bookings,
		observer: observer,
		verifier: verifier,
		signer:   signer,
		clock:    clock,
	}
}

func (f *fixture) seedBooking(t *testing.T, id string, status bookingdomain.Status) bookingdomain.Booking {
	t.Helper()
	booking := bookingdomain.Booking{
		ID:          id,
		FieldID:     "field-1",
		RequesterID: "alice",
		SlotID:      "slot-1",
		Date:        time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		Range:       scheduledomain.MustTimeRange(time.Monday, 600, 660),
		Status:      status,
		CreatedAt:   f.clock,
		UpdatedAt:   f.clock,
	}
	f.bookings.bookings[id] = booking
	return booking
}

func (f *fixture) organize(t *testing.T) domain.Match {
	t.Helper()
	f.seedBooking(t, "booking-1", bookingdomain.StatusApproved)
	match, err := f.service.Organize(context.Background(), OrganizeInput{
		BookingID:   "booking-1",
		OrganizerID: "alice",
		Sport:       domain.SportTennis, // roster of 4 keeps capacity tests short
	})
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	return match
}

func TestOrganizeRequiresApprovedBooking(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedBooking(t, "booking-1", bookingdomain.StatusPending)

	_, err := f.service.Organize(context.Background(), OrganizeInput{
		BookingID:   "booking-1",
		OrganizerID: "alice",
		Sport:       domain.SportFutsal,
	})
	if !errors.Is(err, apperrors.New(apperrors.CodeMatchBookingNotApproved, "")) {
		t.Fatalf("expected MATCH_BOOKING_NOT_APPROVED, got %v", err)
	}
}

func TestOrganizeInheritsBookingSchedule(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	match := f.organize(t)

	if match.Status != domain.StatusPending {
		t.Fatalf("expected PENDING, got %s", domain.StatusLabel(match.Status))
	}
	if !match.Date.Equal(time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("match date = %v", match.Date)
	}
	if match.Range.Day != time.Monday || match.Range.Start != 600 {
		t.Fatalf("match range = %+v", match.Range)
	}
	if !match.HasJoined("alice") {
		t.Fatal("expected organizer on the roster")
	}

	created := f.observer.byType(event.TypeMatchCreated)
	if len(created) != 1 || created[0].RecipientID != "mgr-1" {
		t.Fatalf("expected one match.created to the manager, got %+v", created)
	}
}

func TestJoinUpToCapacity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	match := f.organize(t)
	ctx := context.Background()

	for _, player := range []string{"bob", "carol", "dave"} {
		if _, err := f.service.Join(ctx, match.ID, player); err != nil {
			t.Fatalf("join %s: %v", player, err)
		}
	}
	if _, err := f.service.Join(ctx, match.ID, "erin"); !errors.Is(err, apperrors.New(apperrors.CodeMatchFull, "")) {
		t.Fatalf("expected MATCH_FULL, got %v", err)
	}
}

func TestDuplicateJoinPublishesNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	match := f.organize(t)
	ctx := context.Background()

	if _, err := f.service.Join(ctx, match.ID, "bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	before := len(f.observer.byType(event.TypeStatusChanged))
	if _, err := f.service.Join(ctx, match.ID, "bob"); err != nil {
		t.Fatalf("duplicate join: %v", err)
	}
	if after := len(f.observer.byType(event.TypeStatusChanged)); after != before {
		t.Fatalf("duplicate join published an event: %d -> %d", before, after)
	}
}

func TestJoinWithGrant(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	match := f.organize(t)
	ctx := context.Background()

	grant, err := invite.Mint(match.ID, "bob", f.signer)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	joined, err := f.service.JoinWithGrant(ctx, match.ID, "bob", grant)
	if err != nil {
		t.Fatalf("join with grant: %v", err)
	}
	if !joined.HasJoined("bob") {
		t.Fatal("expected bob on the roster")
	}

	// A grant minted for bob does not admit mallory.
	if _, err := f.service.JoinWithGrant(ctx, match.ID, "mallory", grant); !errors.Is(err, apperrors.New(apperrors.CodeInviteGrantMismatch, "")) {
		t.Fatalf("expected INVITE_GRANT_MISMATCH, got %v", err)
	}
}

func TestLeaveOrganizerKeepsMatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	match := f.organize(t)
	ctx := context.Background()

	left, err := f.service.Leave(ctx, match.ID, "alice")
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if left.HasJoined("alice") {
		t.Fatal("expected organizer off the roster")
	}
	if left.OrganizerID != "alice" {
		t.Fatalf("organizer role changed: %q", left.OrganizerID)
	}
	if left.Status != domain.StatusPending {
		t.Fatalf("match dissolved on organizer leave: %s", domain.StatusLabel(left.Status))
	}
}

func TestApproveRequiresManagerAndApprovedBooking(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	match := f.organize(t)
	ctx := context.Background()

	if _, err := f.service.Approve(ctx, match.ID, "alice"); !errors.Is(err, apperrors.New(apperrors.CodeActorNotManager, "")) {
		t.Fatalf("expected ACTOR_NOT_MANAGER, got %v", err)
	}

	// Booking cancelled after organize: match can no longer reach APPROVED.
	booking := f.bookings.bookings["booking-1"]
	booking.Status = bookingdomain.StatusCancelled
	f.bookings.bookings["booking-1"] = booking
	if _, err := f.service.Approve(ctx, match.ID, "mgr-1"); !errors.Is(err, apperrors.New(apperrors.CodeMatchBookingNotApproved, "")) {
		t.Fatalf("expected MATCH_BOOKING_NOT_APPROVED, got %v", err)
	}

	booking.Status = bookingdomain.StatusApproved
	f.bookings.bookings["booking-1"] = booking
	approved, err := f.service.Approve(ctx, match.ID, "mgr-1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.StatusApproved {
		t.Fatalf("expected APPROVED, got %s", domain.StatusLabel(approved.Status))
	}
}

func TestExpireStaleSweepsBothStates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedBooking(t, "booking-1", bookingdomain.StatusApproved)

	pending, err := f.service.Organize(ctx, OrganizeInput{BookingID: "booking-1", OrganizerID: "alice", Sport: domain.SportFutsal})
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	approved, err := f.service.Organize(ctx, OrganizeInput{BookingID: "booking-1", OrganizerID: "bob", Sport: domain.SportFutsal})
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	if _, err := f.service.Approve(ctx, approved.ID, "mgr-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	before := time.Date(2026, 9, 7, 10, 30, 0, 0, time.UTC)
	count, err := f.service.ExpireStale(ctx, before)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no sweeps before end time, got %d", count)
	}

	after := time.Date(2026, 9, 7, 11, 1, 0, 0, time.UTC)
	count, err = f.service.ExpireStale(ctx, after)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 sweeps, got %d", count)
	}

	gotPending, err := f.service.Get(ctx, pending.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotPending.Status != domain.StatusCancelled {
		t.Fatalf("expected PENDING match CANCELLED, got %s", domain.StatusLabel(gotPending.Status))
	}
	gotApproved, err := f.service.Get(ctx, approved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotApproved.Status != domain.StatusExpired {
		t.Fatalf("expected APPROVED match EXPIRED, got %s", domain.StatusLabel(gotApproved.Status))
	}
}

func TestJoinUnknownMatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.service.Join(context.Background(), "missing", "bob"); !errors.Is(err, apperrors.New(apperrors.CodeNotFound, "")) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestOrganizePersistenceFailureSurfaces(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedBooking(t, "booking-1", bookingdomain.StatusApproved)

	f.matches.putErr = errors.New("disk full")
	_, err := f.service.Organize(context.Background(), OrganizeInput{
		BookingID:   "booking-1",
		OrganizerID: "alice",
		Sport:       domain.SportTennis,
	})
	if !errors.Is(err, apperrors.New(apperrors.CodePersistence, "")) {
		t.Fatalf("expected PERSISTENCE, got %v", err)
	}
}

func TestPersistenceFailureSurfaces(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	match := f.organize(t)

	f.matches.putErr = errors.New("disk full")
	if _, err := f.service.Join(context.Background(), match.ID, "bob"); !errors.Is(err, apperrors.New(apperrors.CodePersistence, "")) {
		t.Fatalf("expected PERSISTENCE, got %v", err)
	}
}
