package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeTimeRangeInvalid         = "TIMERANGE_INVALID"
	CodeTimeRangeInvalidDay      = "TIMERANGE_INVALID_DAY"
	CodeSlotEmptyFieldID         = "SLOT_EMPTY_FIELD_ID"
	CodeSlotConflict             = "SLOT_CONFLICT"
	CodeSlotNotFound             = "SLOT_NOT_FOUND"
	CodeBookingEmptyFieldID      = "BOOKING_EMPTY_FIELD_ID"
	CodeBookingEmptyRequesterID  = "BOOKING_EMPTY_REQUESTER_ID"
	CodeBookingDateRequired      = "BOOKING_DATE_REQUIRED"
	CodeBookingDateDayMismatch   = "BOOKING_DATE_DAY_MISMATCH"
	CodeBookingConflict          = "BOOKING_CONFLICT"
	CodeBookingNoAvailability    = "BOOKING_NO_AVAILABILITY"
	CodeBookingInvalidTransition = "BOOKING_INVALID_STATUS_TRANSITION"
	CodeMatchEmptyBookingID      = "MATCH_EMPTY_BOOKING_ID"
	CodeMatchEmptyOrganizerID    = "MATCH_EMPTY_ORGANIZER_ID"
	CodeMatchEmptyUserID         = "MATCH_EMPTY_USER_ID"
	CodeMatchInvalidSport        = "MATCH_INVALID_SPORT"
	CodeMatchInvalidTransition   = "MATCH_INVALID_STATUS_TRANSITION"
	CodeMatchBookingNotApproved  = "MATCH_BOOKING_NOT_APPROVED"
	CodeMatchFull                = "MATCH_FULL"
	CodeMatchRosterClosed        = "MATCH_ROSTER_CLOSED"
	CodeInviteGrantInvalid       = "INVITE_GRANT_INVALID"
	CodeInviteGrantExpired       = "INVITE_GRANT_EXPIRED"
	CodeInviteGrantMismatch      = "INVITE_GRANT_MISMATCH"
	CodeActorNotManager          = "ACTOR_NOT_MANAGER"
	CodeNotFound                 = "NOT_FOUND"
	CodePersistence              = "PERSISTENCE"
)

var messagesEnUS = map[Code]string{
	CodeTimeRangeInvalid:         "The time range is invalid: the start time must be before the end time.",
	CodeTimeRangeInvalidDay:      "The day of week is not valid.",
	CodeSlotEmptyFieldID:         "A field is required to register an availability slot.",
	CodeSlotConflict:             "The slot overlaps an existing slot for this field.",
	CodeSlotNotFound:             "The availability slot could not be found.",
	CodeBookingEmptyFieldID:      "A field is required to request a booking.",
	CodeBookingEmptyRequesterID:  "A requester is required for a booking.",
	CodeBookingDateRequired:      "A date is required for a booking.",
	CodeBookingDateDayMismatch:   "The booking date does not fall on {{.Day}}.",
	CodeBookingConflict:          "The requested time conflicts with an existing booking{{if .FieldID}} on field {{.FieldID}}{{end}}.",
	CodeBookingNoAvailability:    "The field has no availability covering the requested time.",
	CodeBookingInvalidTransition: "The booking cannot change from {{.From}} to {{.To}}.",
	CodeMatchEmptyBookingID:      "A booking is required to organize a match.",
	CodeMatchEmptyOrganizerID:    "An organizer is required for a match.",
	CodeMatchEmptyUserID:         "A player is required to join or leave a match.",
	CodeMatchInvalidSport:        "The sport {{.Sport}} is not supported.",
	CodeMatchInvalidTransition:   "The match cannot change from {{.From}} to {{.To}}.",
	CodeMatchBookingNotApproved:  "The backing booking must be approved before organizing a match.",
	CodeMatchFull:                "The match already has all {{.RequiredPlayers}} required players.",
	CodeMatchRosterClosed:        "The match roster is closed.",
	CodeInviteGrantInvalid:       "The invite is not valid.",
	CodeInviteGrantExpired:       "The invite has expired.",
	CodeInviteGrantMismatch:      "The invite was issued for a different {{.Field}}.",
	CodeActorNotManager:          "Only the field manager can perform this action.",
	CodeNotFound:                 "The requested record could not be found.",
	CodePersistence:              "The change was applied but could not be saved. Please retry.",
}
