// Package domain holds the notification inbox: persisted, deduplicated,
// user-targeted records of the events the bus fans out.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pitchside/fieldbook/internal/platform/id"
)

var (
	// ErrNotFound indicates a notification record was not found.
	ErrNotFound = errors.New("notification not found")
	// ErrConflict indicates a write conflicted with existing uniqueness constraints.
	ErrConflict = errors.New("notification conflict")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("notification store is not configured")
	// ErrRecipientIDRequired indicates recipient identity is required.
	ErrRecipientIDRequired = errors.New("recipient id is required")
	// ErrTopicRequired indicates a topic is required.
	ErrTopicRequired = errors.New("notification topic is required")
	// ErrNotificationIDRequired indicates notification ID is required.
	ErrNotificationIDRequired = errors.New("notification id is required")
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Notification captures one user-targeted inbox item.
type Notification struct {
	ID          string
	RecipientID string
	Topic       string
	TitleKey    string
	MessageKey  string
	PayloadJSON string
	DedupeKey   string
	SenderID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ReadAt      *time.Time
}

// NotificationPage is a paged recipient inbox view.
type NotificationPage struct {
	Notifications []Notification
	NextPageToken string
}

// CreateIntentInput describes one producer notification request.
type CreateIntentInput struct {
	RecipientID string
	Topic       string
	TitleKey    string
	MessageKey  string
	PayloadJSON string
	DedupeKey   string
	SenderID    string
}

// ListInboxInput configures recipient inbox listing.
type ListInboxInput struct {
	RecipientID string
	PageSize    int
	PageToken   string
}

// MarkReadInput identifies one recipient notification to acknowledge.
type MarkReadInput struct {
	RecipientID    string
	NotificationID string
}

// Store is the domain persistence boundary for inbox lifecycle behavior.
type Store interface {
	GetNotificationByRecipientAndDedupeKey(ctx context.Context, recipientID string, dedupeKey string) (Notification, error)
	PutNotification(ctx context.Context, notification Notification) error
	ListNotificationsByRecipient(ctx context.Context, recipientID string, pageSize int, pageToken string) (NotificationPage, error)
	CountUnreadByRecipient(ctx context.Context, recipientID string) (int, error)
	MarkNotificationRead(ctx context.Context, recipientID string, notificationID string, readAt time.Time) (Notification, error)
}

// Service orchestrates recipient inbox lifecycle behavior.
type Service struct {
	store Store
	clock func() time.Time
	newID func() (string, error)
}

// NewService constructs notification inbox use-cases.
func NewService(store Store, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store: store,
		clock: clock,
		newID: newID,
	}
}

// CreateIntent stores one inbox item and de-duplicates by recipient+dedupe
// key: replaying the same triggering transition yields the already-stored
// record, never a second row.
func (s *Service) CreateIntent(ctx context.Context, input CreateIntentInput) (Notification, error) {
	if s == nil || s.store == nil {
		return Notification{}, ErrStoreNotConfigured
	}
	recipientID := strings.TrimSpace(input.RecipientID)
	if recipientID == "" {
		return Notification{}, ErrRecipientIDRequired
	}
	topic := strings.TrimSpace(input.Topic)
	if topic == "" {
		return Notification{}, ErrTopicRequired
	}
	dedupeKey := strings.TrimSpace(input.DedupeKey)
	if dedupeKey != "" {
		existing, err := s.store.GetNotificationByRecipientAndDedupeKey(ctx, recipientID, dedupeKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Notification{}, err
		}
	}

	notificationID, err := s.newID()
	if err != nil {
		return Notification{}, err
	}
	now := s.nowUTC()
	notification := Notification{
		ID:          notificationID,
		RecipientID: recipientID,
		Topic:       topic,
		TitleKey:    strings.TrimSpace(input.TitleKey),
		MessageKey:  strings.TrimSpace(input.MessageKey),
		PayloadJSON: strings.TrimSpace(input.PayloadJSON),
		DedupeKey:   dedupeKey,
		SenderID:    strings.TrimSpace(input.SenderID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.PutNotification(ctx, notification); err != nil {
		// A racing writer may have stored the same dedupe key first.
		if dedupeKey != "" && errors.Is(err, ErrConflict) {
			existing, lookupErr := s.store.GetNotificationByRecipientAndDedupeKey(ctx, recipientID, dedupeKey)
			if lookupErr == nil {
				return existing, nil
			}
			if errors.Is(lookupErr, ErrNotFound) {
				return Notification{}, err
			}
			return Notification{}, lookupErr
		}
		return Notification{}, err
	}
	return notification, nil
}

// ListInbox lists recipient inbox notifications newest first.
func (s *Service) ListInbox(ctx context.Context, input ListInboxInput) (NotificationPage, error) {
	if s == nil || s.store == nil {
		return NotificationPage{}, ErrStoreNotConfigured
	}
	recipientID := strings.TrimSpace(input.RecipientID)
	if recipientID == "" {
		return NotificationPage{}, ErrRecipientIDRequired
	}
	pageSize := input.PageSize
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return s.store.ListNotificationsByRecipient(ctx, recipientID, pageSize, strings.TrimSpace(input.PageToken))
}

// CountUnread returns the unread inbox count for one recipient.
func (s *Service) CountUnread(ctx context.Context, recipientID string) (int, error) {
	if s == nil || s.store == nil {
		return 0, ErrStoreNotConfigured
	}
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return 0, ErrRecipientIDRequired
	}
	return s.store.CountUnreadByRecipient(ctx, recipientID)
}

// MarkRead marks one recipient notification as read.
func (s *Service) MarkRead(ctx context.Context, input MarkReadInput) (Notification, error) {
	if s == nil || s.store == nil {
		return Notification{}, ErrStoreNotConfigured
	}
	recipientID := strings.TrimSpace(input.RecipientID)
	if recipientID == "" {
		return Notification{}, ErrRecipientIDRequired
	}
	notificationID := strings.TrimSpace(input.NotificationID)
	if notificationID == "" {
		return Notification{}, ErrNotificationIDRequired
	}
	return s.store.MarkNotificationRead(ctx, recipientID, notificationID, s.nowUTC())
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}
