// Package sqlite provides SQLite-backed persistence for scheduling state.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	bookingdomain "github.com/pitchside/fieldbook/internal/booking/domain"
	"github.com/pitchside/fieldbook/internal/directory"
	matchdomain "github.com/pitchside/fieldbook/internal/match/domain"
	sqlitemigrate "github.com/pitchside/fieldbook/internal/platform/storage/sqlitemigrate"
	scheduledomain "github.com/pitchside/fieldbook/internal/schedule/domain"
	"github.com/pitchside/fieldbook/internal/storage"
	"github.com/pitchside/fieldbook/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for slots, bookings, matches,
// and directory records.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a scheduling SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS, "")
}

type scanner func(dest ...any) error

// PutSlot upserts one availability slot row.
func (s *Store) PutSlot(ctx context.Context, slot scheduledomain.Slot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(slot.ID) == "" {
		return fmt.Errorf("slot id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO slots (id, field_id, day, start_minute, end_minute, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    field_id = excluded.field_id,
    day = excluded.day,
    start_minute = excluded.start_minute,
    end_minute = excluded.end_minute,
    status = excluded.status,
    updated_at = excluded.updated_at
`, slot.ID, slot.FieldID, int(slot.Range.Day), slot.Range.Start, slot.Range.End,
		scheduledomain.SlotStatusLabel(slot.Status), toMillis(slot.CreatedAt), toMillis(slot.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put slot: %w", err)
	}
	return nil
}

// ListSlots returns all availability slot rows.
func (s *Store) ListSlots(ctx context.Context) ([]scheduledomain.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, field_id, day, start_minute, end_minute, status, created_at, updated_at
FROM slots
ORDER BY field_id, day, start_minute
`)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []scheduledomain.Slot
	for rows.Next() {
		slot, err := scanSlot(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return slots, nil
}

func scanSlot(scan scanner) (scheduledomain.Slot, error) {
	var (
		slot      scheduledomain.Slot
		day       int
		status    string
		createdAt int64
		updatedAt int64
	)
	if err := scan(&slot.ID, &slot.FieldID, &day, &slot.Range.Start, &slot.Range.End, &status, &createdAt, &updatedAt); err != nil {
		return scheduledomain.Slot{}, err
	}
	slot.Range.Day = time.Weekday(day)
	slot.Status = slotStatusFromLabel(status)
	slot.CreatedAt = fromMillis(createdAt)
	slot.UpdatedAt = fromMillis(updatedAt)
	return slot, nil
}

func slotStatusFromLabel(label string) scheduledomain.SlotStatus {
	switch label {
	case "AVAILABLE":
		return scheduledomain.SlotStatusAvailable
	case "BOOKED":
		return scheduledomain.SlotStatusBooked
	case "BLOCKED":
		return scheduledomain.SlotStatusBlocked
	default:
		return scheduledomain.SlotStatusUnspecified
	}
}

// PutBooking upserts one booking row.
func (s *Store) PutBooking(ctx context.Context, booking bookingdomain.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(booking.ID) == "" {
		return fmt.Errorf("booking id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO bookings (id, field_id, requester_id, slot_id, date, day, start_minute, end_minute, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    field_id = excluded.field_id,
    requester_id = excluded.requester_id,
    slot_id = excluded.slot_id,
    date = excluded.date,
    day = excluded.day,
    start_minute = excluded.start_minute,
    end_minute = excluded.end_minute,
    status = excluded.status,
    updated_at = excluded.updated_at
`, booking.ID, booking.FieldID, booking.RequesterID, booking.SlotID, toMillis(booking.Date),
		int(booking.Range.Day), booking.Range.Start, booking.Range.End,
		bookingdomain.StatusLabel(booking.Status), toMillis(booking.CreatedAt), toMillis(booking.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put booking: %w", err)
	}
	return nil
}

// GetBooking returns one booking row by id.
func (s *Store) GetBooking(ctx context.Context, id string) (bookingdomain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return bookingdomain.Booking{}, err
	}
	if s == nil || s.sqlDB == nil {
		return bookingdomain.Booking{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return bookingdomain.Booking{}, fmt.Errorf("booking id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, field_id, requester_id, slot_id, date, day, start_minute, end_minute, status, created_at, updated_at
FROM bookings
WHERE id = ?
`, id)
	booking, err := scanBooking(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bookingdomain.Booking{}, storage.ErrNotFound
		}
		return bookingdomain.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return booking, nil
}

// ListBookingsByStatus returns booking rows in one lifecycle state.
func (s *Store) ListBookingsByStatus(ctx context.Context, status bookingdomain.Status) ([]bookingdomain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, field_id, requester_id, slot_id, date, day, start_minute, end_minute, status, created_at, updated_at
FROM bookings
WHERE status = ?
ORDER BY date, start_minute, id
`, bookingdomain.StatusLabel(status))
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []bookingdomain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}

func scanBooking(scan scanner) (bookingdomain.Booking, error) {
	var (
		booking   bookingdomain.Booking
		date      int64
		day       int
		status    string
		createdAt int64
		updatedAt int64
	)
	if err := scan(&booking.ID, &booking.FieldID, &booking.RequesterID, &booking.SlotID, &date,
		&day, &booking.Range.Start, &booking.Range.End, &status, &createdAt, &updatedAt); err != nil {
		return bookingdomain.Booking{}, err
	}
	booking.Date = fromMillis(date)
	booking.Range.Day = time.Weekday(day)
	booking.Status = bookingStatusFromLabel(status)
	booking.CreatedAt = fromMillis(createdAt)
	booking.UpdatedAt = fromMillis(updatedAt)
	return booking, nil
}

func bookingStatusFromLabel(label string) bookingdomain.Status {
	switch label {
	case "PENDING":
		return bookingdomain.StatusPending
	case "APPROVED":
		return bookingdomain.StatusApproved
	case "REJECTED":
		return bookingdomain.StatusRejected
	case "CANCELLED":
		return bookingdomain.StatusCancelled
	default:
		return bookingdomain.StatusUnspecified
	}
}

// PutMatch upserts one match row and replaces its roster atomically.
func (s *Store) PutMatch(ctx context.Context, match matchdomain.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(match.ID) == "" {
		return fmt.Errorf("match id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put match: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO matches (id, booking_id, organizer_id, sport, date, day, start_minute, end_minute, status, required_players, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    booking_id = excluded.booking_id,
    organizer_id = excluded.organizer_id,
    sport = excluded.sport,
    date = excluded.date,
    day = excluded.day,
    start_minute = excluded.start_minute,
    end_minute = excluded.end_minute,
    status = excluded.status,
    required_players = excluded.required_players,
    updated_at = excluded.updated_at
`, match.ID, match.BookingID, match.OrganizerID, string(match.Sport), toMillis(match.Date),
		int(match.Range.Day), match.Range.Start, match.Range.End,
		matchdomain.StatusLabel(match.Status), match.RequiredPlayers,
		toMillis(match.CreatedAt), toMillis(match.UpdatedAt)); err != nil {
		return fmt.Errorf("put match: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM match_players WHERE match_id = ?`, match.ID); err != nil {
		return fmt.Errorf("clear match roster: %w", err)
	}
	for _, playerID := range match.Roster() {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO match_players (match_id, player_id) VALUES (?, ?)
`, match.ID, playerID); err != nil {
			return fmt.Errorf("put match roster: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put match: %w", err)
	}
	return nil
}

// GetMatch returns one match row with its roster by id.
func (s *Store) GetMatch(ctx context.Context, id string) (matchdomain.Match, error) {
	if err := ctx.Err(); err != nil {
		return matchdomain.Match{}, err
	}
	if s == nil || s.sqlDB == nil {
		return matchdomain.Match{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return matchdomain.Match{}, fmt.Errorf("match id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, booking_id, organizer_id, sport, date, day, start_minute, end_minute, status, required_players, created_at, updated_at
FROM matches
WHERE id = ?
`, id)
	match, err := scanMatch(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return matchdomain.Match{}, storage.ErrNotFound
		}
		return matchdomain.Match{}, fmt.Errorf("get match: %w", err)
	}
	if err := s.loadRoster(ctx, &match); err != nil {
		return matchdomain.Match{}, err
	}
	return match, nil
}

// ListMatchesByStatus returns match rows in one lifecycle state, rosters
// included.
func (s *Store) ListMatchesByStatus(ctx context.Context, status matchdomain.Status) ([]matchdomain.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, booking_id, organizer_id, sport, date, day, start_minute, end_minute, status, required_players, created_at, updated_at
FROM matches
WHERE status = ?
ORDER BY date, start_minute, id
`, matchdomain.StatusLabel(status))
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []matchdomain.Match
	for rows.Next() {
		match, err := scanMatch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	for i := range matches {
		if err := s.loadRoster(ctx, &matches[i]); err != nil {
			return nil, err
		}
	}
	return matches, nil
}

func (s *Store) loadRoster(ctx context.Context, match *matchdomain.Match) error {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT player_id FROM match_players WHERE match_id = ? ORDER BY player_id
`, match.ID)
	if err != nil {
		return fmt.Errorf("load match roster: %w", err)
	}
	defer rows.Close()

	match.JoinedPlayers = make(map[string]struct{})
	for rows.Next() {
		var playerID string
		if err := rows.Scan(&playerID); err != nil {
			return fmt.Errorf("scan match player: %w", err)
		}
		match.JoinedPlayers[playerID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate match players: %w", err)
	}
	return nil
}

func scanMatch(scan scanner) (matchdomain.Match, error) {
	var (
		match     matchdomain.Match
		sport     string
		date      int64
		day       int
		status    string
		createdAt int64
		updatedAt int64
	)
	if err := scan(&match.ID, &match.BookingID, &match.OrganizerID, &sport, &date,
		&day, &match.Range.Start, &match.Range.End, &status, &match.RequiredPlayers,
		&createdAt, &updatedAt); err != nil {
		return matchdomain.Match{}, err
	}
	match.Sport = matchdomain.Sport(sport)
	match.Date = fromMillis(date)
	match.Range.Day = time.Weekday(day)
	match.Status = matchStatusFromLabel(status)
	match.CreatedAt = fromMillis(createdAt)
	match.UpdatedAt = fromMillis(updatedAt)
	return match, nil
}

func matchStatusFromLabel(label string) matchdomain.Status {
	switch label {
	case "PENDING":
		return matchdomain.StatusPending
	case "APPROVED":
		return matchdomain.StatusApproved
	case "REJECTED":
		return matchdomain.StatusRejected
	case "CANCELLED":
		return matchdomain.StatusCancelled
	case "EXPIRED":
		return matchdomain.StatusExpired
	default:
		return matchdomain.StatusUnspecified
	}
}

// PutField upserts one field directory row.
func (s *Store) PutField(ctx context.Context, field directory.Field, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(field.ID) == "" {
		return fmt.Errorf("field id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO fields (id, name, location, manager_id, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    location = excluded.location,
    manager_id = excluded.manager_id,
    updated_at = excluded.updated_at
`, field.ID, field.Name, field.Location, field.ManagerID, toMillis(updatedAt))
	if err != nil {
		return fmt.Errorf("put field: %w", err)
	}
	return nil
}

// GetField returns one field directory row by id.
func (s *Store) GetField(ctx context.Context, id string) (directory.Field, error) {
	if err := ctx.Err(); err != nil {
		return directory.Field{}, err
	}
	if s == nil || s.sqlDB == nil {
		return directory.Field{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return directory.Field{}, fmt.Errorf("field id is required")
	}

	var field directory.Field
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, location, manager_id FROM fields WHERE id = ?
`, id)
	if err := row.Scan(&field.ID, &field.Name, &field.Location, &field.ManagerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return directory.Field{}, storage.ErrNotFound
		}
		return directory.Field{}, fmt.Errorf("get field: %w", err)
	}
	return field, nil
}

// PutUser upserts one user directory row.
func (s *Store) PutUser(ctx context.Context, user directory.User, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(user.ID) == "" {
		return fmt.Errorf("user id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO users (id, display_name, role, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    display_name = excluded.display_name,
    role = excluded.role,
    updated_at = excluded.updated_at
`, user.ID, user.DisplayName, directory.RoleLabel(user.Role), toMillis(updatedAt))
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// GetUser returns one user directory row by id.
func (s *Store) GetUser(ctx context.Context, id string) (directory.User, error) {
	if err := ctx.Err(); err != nil {
		return directory.User{}, err
	}
	if s == nil || s.sqlDB == nil {
		return directory.User{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return directory.User{}, fmt.Errorf("user id is required")
	}

	var (
		user directory.User
		role string
	)
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, display_name, role FROM users WHERE id = ?
`, id)
	if err := row.Scan(&user.ID, &user.DisplayName, &role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return directory.User{}, storage.ErrNotFound
		}
		return directory.User{}, fmt.Errorf("get user: %w", err)
	}
	user.Role = roleFromLabel(role)
	return user, nil
}

func roleFromLabel(label string) directory.Role {
	switch label {
	case "PLAYER":
		return directory.RolePlayer
	case "MANAGER":
		return directory.RoleManager
	default:
		return directory.RoleUnspecified
	}
}

// GetManager resolves the manager user id for one field, satisfying the
// directory lookup contract.
func (s *Store) GetManager(ctx context.Context, fieldID string) (string, error) {
	field, err := s.GetField(ctx, fieldID)
	if err != nil {
		return "", err
	}
	return field.ManagerID, nil
}
