// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Time range errors
	CodeTimeRangeInvalid    Code = "TIMERANGE_INVALID"
	CodeTimeRangeInvalidDay Code = "TIMERANGE_INVALID_DAY"

	// Slot errors
	CodeSlotEmptyFieldID Code = "SLOT_EMPTY_FIELD_ID"
	CodeSlotConflict     Code = "SLOT_CONFLICT"
	CodeSlotNotFound     Code = "SLOT_NOT_FOUND"

	// Booking errors
	CodeBookingEmptyFieldID     Code = "BOOKING_EMPTY_FIELD_ID"
	CodeBookingEmptyRequesterID Code = "BOOKING_EMPTY_REQUESTER_ID"
	CodeBookingDateRequired     Code = "BOOKING_DATE_REQUIRED"
	CodeBookingDateDayMismatch  Code = "BOOKING_DATE_DAY_MISMATCH"
	CodeBookingConflict         Code = "BOOKING_CONFLICT"
	CodeBookingNoAvailability   Code = "BOOKING_NO_AVAILABILITY"
	CodeBookingInvalidTransition Code = "BOOKING_INVALID_STATUS_TRANSITION"

	// Match errors
	CodeMatchEmptyBookingID      Code = "MATCH_EMPTY_BOOKING_ID"
	CodeMatchEmptyOrganizerID    Code = "MATCH_EMPTY_ORGANIZER_ID"
	CodeMatchEmptyUserID         Code = "MATCH_EMPTY_USER_ID"
	CodeMatchInvalidSport        Code = "MATCH_INVALID_SPORT"
	CodeMatchInvalidTransition   Code = "MATCH_INVALID_STATUS_TRANSITION"
	CodeMatchBookingNotApproved  Code = "MATCH_BOOKING_NOT_APPROVED"
	CodeMatchFull                Code = "MATCH_FULL"
	CodeMatchRosterClosed        Code = "MATCH_ROSTER_CLOSED"

	// Invite grant errors
	CodeInviteGrantInvalid  Code = "INVITE_GRANT_INVALID"
	CodeInviteGrantExpired  Code = "INVITE_GRANT_EXPIRED"
	CodeInviteGrantMismatch Code = "INVITE_GRANT_MISMATCH"

	// Authorization errors
	CodeActorNotManager Code = "ACTOR_NOT_MANAGER"

	// Storage errors
	CodeNotFound    Code = "NOT_FOUND"
	CodePersistence Code = "PERSISTENCE"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeTimeRangeInvalid,
		CodeTimeRangeInvalidDay,
		CodeSlotEmptyFieldID,
		CodeBookingEmptyFieldID,
		CodeBookingEmptyRequesterID,
		CodeBookingDateRequired,
		CodeBookingDateDayMismatch,
		CodeMatchEmptyBookingID,
		CodeMatchEmptyOrganizerID,
		CodeMatchEmptyUserID,
		CodeMatchInvalidSport,
		CodeInviteGrantInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeSlotConflict,
		CodeBookingConflict,
		CodeBookingNoAvailability,
		CodeBookingInvalidTransition,
		CodeMatchInvalidTransition,
		CodeMatchBookingNotApproved,
		CodeMatchFull,
		CodeMatchRosterClosed,
		CodeInviteGrantExpired,
		CodeInviteGrantMismatch:
		return codes.FailedPrecondition

	// PermissionDenied - actor lacks the role for the operation
	case CodeActorNotManager:
		return codes.PermissionDenied

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeSlotNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
