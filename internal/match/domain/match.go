// Package domain holds the match record, its roster rules, and its pure
// transition rules.
package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/pitchside/fieldbook/internal/platform/errors"
	"github.com/pitchside/fieldbook/internal/platform/id"
	scheduledomain "github.com/pitchside/fieldbook/internal/schedule/domain"
)

// Status describes the lifecycle state of a match.
type Status int

const (
	// StatusUnspecified represents an invalid match status value.
	StatusUnspecified Status = iota
	// StatusPending indicates the match awaits the field manager's review.
	StatusPending
	// StatusApproved indicates the match is confirmed to play.
	StatusApproved
	// StatusRejected indicates the manager declined the match. Terminal.
	StatusRejected
	// StatusCancelled indicates the match was withdrawn or swept. Terminal.
	StatusCancelled
	// StatusExpired indicates the match date passed while approved but the
	// match was never played. Terminal.
	StatusExpired
)

// StatusLabel returns the string label for a match status.
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
	case StatusExpired:
		return "EXPIRED"
	default:
		return "UNSPECIFIED"
	}
}

// Sport identifies the sport a match is organized for. The sport fixes the
// default roster size.
type Sport string

const (
	SportFootball   Sport = "football"
	SportFutsal     Sport = "futsal"
	SportBasketball Sport = "basketball"
	SportVolleyball Sport = "volleyball"
	SportTennis     Sport = "tennis"
)

// defaultRosterSizes maps each known sport to the total players needed to
// field both sides.
var defaultRosterSizes = map[Sport]int{
	SportFootball:   22,
	SportFutsal:     10,
	SportBasketball: 10,
	SportVolleyball: 12,
	SportTennis:     4,
}

// DefaultRosterSize returns the total players needed for a sport, or false
// when the sport is unknown.
func DefaultRosterSize(sport Sport) (int, bool) {
	size, ok := defaultRosterSizes[sport]
	return size, ok
}

// Match is an organized play event backed by an approved booking. The
// booking, organizer, and players are weak references resolved through
// collaborators; the match never embeds them.
type Match struct {
	ID              string
	BookingID       string
	OrganizerID     string
	Sport           Sport
	Date            time.Time
	Range           scheduledomain.TimeRange
	Status          Status
	RequiredPlayers int
	JoinedPlayers   map[string]struct{}
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ElapsedBy reports whether the match's scheduled time has fully passed.
func (m Match) ElapsedBy(now time.Time) bool {
	return m.Range.EndOn(m.Date).Before(now)
}

// HasJoined reports whether a user is on the roster.
func (m Match) HasJoined(userID string) bool {
	_, ok := m.JoinedPlayers[userID]
	return ok
}

// Roster returns the joined player ids in sorted order.
func (m Match) Roster() []string {
	players := make([]string, 0, len(m.JoinedPlayers))
	for playerID := range m.JoinedPlayers {
		players = append(players, playerID)
	}
	sort.Strings(players)
	return players
}

// cloneRoster copies the roster set so transition helpers never alias the
// caller's map.
func cloneRoster(roster map[string]struct{}) map[string]struct{} {
	cloned := make(map[string]struct{}, len(roster))
	for playerID := range roster {
		cloned[playerID] = struct{}{}
	}
	return cloned
}

// CreateMatchInput describes the metadata needed to organize a match.
type CreateMatchInput struct {
	BookingID   string
	OrganizerID string
	Sport       Sport
	Date        time.Time
	Range       scheduledomain.TimeRange
	// RequiredPlayers overrides the sport's default roster size when > 0.
	RequiredPlayers int
}

// CreateMatch creates a new PENDING match with the organizer already on the
// roster.
func CreateMatch(input CreateMatchInput, now func() time.Time, idGenerator func() (string, error)) (Match, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateMatchInput(input)
	if err != nil {
		return Match{}, err
	}

	matchID, err := idGenerator()
	if err != nil {
		return Match{}, fmt.Errorf("generate match id: %w", err)
	}

	createdAt := now().UTC()
	return Match{
		ID:              matchID,
		BookingID:       normalized.BookingID,
		OrganizerID:     normalized.OrganizerID,
		Sport:           normalized.Sport,
		Date:            normalized.Date,
		Range:           normalized.Range,
		Status:          StatusPending,
		RequiredPlayers: normalized.RequiredPlayers,
		JoinedPlayers:   map[string]struct{}{normalized.OrganizerID: {}},
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}, nil
}

// NormalizeCreateMatchInput trims and validates match input metadata,
// resolving the roster size from the sport when none is given.
func NormalizeCreateMatchInput(input CreateMatchInput) (CreateMatchInput, error) {
	input.BookingID = strings.TrimSpace(input.BookingID)
	if input.BookingID == "" {
		return CreateMatchInput{}, apperrors.New(apperrors.CodeMatchEmptyBookingID, "booking id is required")
	}
	input.OrganizerID = strings.TrimSpace(input.OrganizerID)
	if input.OrganizerID == "" {
		return CreateMatchInput{}, apperrors.New(apperrors.CodeMatchEmptyOrganizerID, "organizer id is required")
	}
	input.Sport = Sport(strings.ToLower(strings.TrimSpace(string(input.Sport))))
	defaultSize, ok := DefaultRosterSize(input.Sport)
	if !ok {
		return CreateMatchInput{}, apperrors.WithMetadata(
			apperrors.CodeMatchInvalidSport,
			"unknown sport",
			map[string]string{"Sport": string(input.Sport)},
		)
	}
	if input.RequiredPlayers <= 0 {
		input.RequiredPlayers = defaultSize
	}
	if _, err := scheduledomain.NewTimeRange(input.Range.Day, input.Range.Start, input.Range.End); err != nil {
		return CreateMatchInput{}, err
	}
	input.Date = input.Date.UTC().Truncate(24 * time.Hour)
	return input, nil
}

// CanTransition reports whether a match may move between two statuses.
// REJECTED, CANCELLED, and EXPIRED are terminal.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected || to == StatusCancelled
	case StatusApproved:
		return to == StatusCancelled || to == StatusExpired
	default:
		return false
	}
}

// Transition applies a status change, failing with
// MATCH_INVALID_STATUS_TRANSITION on an illegal edge. The match is returned
// unchanged on error.
func Transition(match Match, to Status, now func() time.Time) (Match, error) {
	if now == nil {
		now = time.Now
	}
	if !CanTransition(match.Status, to) {
		return match, apperrors.WithMetadata(
			apperrors.CodeMatchInvalidTransition,
			"illegal match status transition",
			map[string]string{
				"MatchID": match.ID,
				"From":    StatusLabel(match.Status),
				"To":      StatusLabel(to),
			},
		)
	}
	match.Status = to
	match.UpdatedAt = now().UTC()
	return match, nil
}

// Join adds a player to the roster. Joining twice is a no-op. The roster is
// open only while the match is PENDING or APPROVED, and never grows past
// RequiredPlayers.
func Join(match Match, userID string, now func() time.Time) (Match, error) {
	if now == nil {
		now = time.Now
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return match, apperrors.New(apperrors.CodeMatchEmptyUserID, "user id is required")
	}
	if match.Status != StatusPending && match.Status != StatusApproved {
		return match, apperrors.WithMetadata(
			apperrors.CodeMatchRosterClosed,
			"match roster is closed",
			map[string]string{"MatchID": match.ID, "Status": StatusLabel(match.Status)},
		)
	}
	if match.HasJoined(userID) {
		return match, nil
	}
	if len(match.JoinedPlayers) >= match.RequiredPlayers {
		return match, apperrors.WithMetadata(
			apperrors.CodeMatchFull,
			"match roster is full",
			map[string]string{
				"MatchID":         match.ID,
				"RequiredPlayers": fmt.Sprintf("%d", match.RequiredPlayers),
			},
		)
	}
	roster := cloneRoster(match.JoinedPlayers)
	roster[userID] = struct{}{}
	match.JoinedPlayers = roster
	match.UpdatedAt = now().UTC()
	return match, nil
}

// Leave removes a player from the roster. The organizer leaving keeps the
// organizer role; only membership changes. Leaving when not joined is a
// no-op.
func Leave(match Match, userID string, now func() time.Time) (Match, error) {
	if now == nil {
		now = time.Now
	}
	userID = strings.TrimSpace(userID)
	if match.Status != StatusPending && match.Status != StatusApproved {
		return match, apperrors.WithMetadata(
			apperrors.CodeMatchRosterClosed,
			"match roster is closed",
			map[string]string{"MatchID": match.ID, "Status": StatusLabel(match.Status)},
		)
	}
	if !match.HasJoined(userID) {
		return match, nil
	}
	roster := cloneRoster(match.JoinedPlayers)
	delete(roster, userID)
	match.JoinedPlayers = roster
	match.UpdatedAt = now().UTC()
	return match, nil
}
