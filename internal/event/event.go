// Package event defines fieldbook domain events and the in-process bus that
// fans them out to observers.
package event

import "time"

// Type identifies the type of a domain event.
type Type string

const (
	// TypeBookingRequest notifies a field manager that a booking awaits review.
	TypeBookingRequest Type = "booking.request"
	// TypeBookingCreated notifies a requester that a booking was approved.
	TypeBookingCreated Type = "booking.created"
	// TypeMatchCreated notifies a field manager that a match was organized.
	TypeMatchCreated Type = "match.created"
	// TypeStatusChanged records any other booking or match status transition.
	TypeStatusChanged Type = "status.changed"
)

// Event is the immutable payload delivered to observers. It is created once
// per triggering transition and never mutated after publish.
//
// TitleKey and MessageKey are i18n keys; presentation layers render them,
// the core never formats user-facing text.
type Event struct {
	Type        Type
	RecipientID string
	SenderID    string
	TitleKey    string
	MessageKey  string
	Metadata    map[string]string
	Timestamp   time.Time
}

// DedupeKey derives a stable key for persistence-side deduplication of one
// logical notification.
func (e Event) DedupeKey() string {
	entity := e.Metadata["BookingID"]
	if entity == "" {
		entity = e.Metadata["MatchID"]
	}
	status := e.Metadata["Status"]
	key := string(e.Type) + ":" + entity + ":" + e.RecipientID
	if status != "" {
		key += ":" + status
	}
	return key
}
