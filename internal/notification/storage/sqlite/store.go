// Package sqlite provides SQLite-backed persistence for notification inbox
// state.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pitchside/fieldbook/internal/notification/domain"
	"github.com/pitchside/fieldbook/internal/notification/storage/sqlite/migrations"
	sqlitemigrate "github.com/pitchside/fieldbook/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for the notification inbox.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a notification SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
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

// PutNotification persists one inbox row. A duplicate recipient+dedupe key
// surfaces domain.ErrConflict.
func (s *Store) PutNotification(ctx context.Context, notification domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeNotification(notification)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO notifications (id, recipient_id, topic, title_key, message_key, payload_json, dedupe_key, sender_id, created_at, updated_at, read_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    topic = excluded.topic,
    title_key = excluded.title_key,
    message_key = excluded.message_key,
    payload_json = excluded.payload_json,
    sender_id = excluded.sender_id,
    updated_at = excluded.updated_at,
    read_at = excluded.read_at
`, normalized.ID, normalized.RecipientID, normalized.Topic, normalized.TitleKey, normalized.MessageKey,
		normalized.PayloadJSON, normalized.DedupeKey, normalized.SenderID,
		toMillis(normalized.CreatedAt), toMillis(normalized.UpdatedAt), readAtMillis(normalized.ReadAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("put notification: %w", err)
	}
	return nil
}

// GetNotificationByRecipientAndDedupeKey returns one inbox row by its
// dedupe identity.
func (s *Store) GetNotificationByRecipientAndDedupeKey(ctx context.Context, recipientID, dedupeKey string) (domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		return domain.Notification{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Notification{}, fmt.Errorf("storage is not configured")
	}
	recipientID = strings.TrimSpace(recipientID)
	dedupeKey = strings.TrimSpace(dedupeKey)
	if recipientID == "" || dedupeKey == "" {
		return domain.Notification{}, fmt.Errorf("recipient id and dedupe key are required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, recipient_id, topic, title_key, message_key, payload_json, dedupe_key, sender_id, created_at, updated_at, read_at
FROM notifications
WHERE recipient_id = ? AND dedupe_key = ?
`, recipientID, dedupeKey)
	notification, err := scanNotification(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Notification{}, domain.ErrNotFound
		}
		return domain.Notification{}, fmt.Errorf("get notification by dedupe key: %w", err)
	}
	return notification, nil
}

// ListNotificationsByRecipient lists one recipient inbox newest-first with
// token pagination. The token is the last notification id of the previous
// page.
func (s *Store) ListNotificationsByRecipient(ctx context.Context, recipientID string, pageSize int, pageToken string) (domain.NotificationPage, error) {
	if err := ctx.Err(); err != nil {
		return domain.NotificationPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.NotificationPage{}, fmt.Errorf("storage is not configured")
	}
	recipientID = strings.TrimSpace(recipientID)
	pageToken = strings.TrimSpace(pageToken)
	if recipientID == "" {
		return domain.NotificationPage{}, fmt.Errorf("recipient id is required")
	}
	if pageSize <= 0 {
		return domain.NotificationPage{}, fmt.Errorf("page size must be greater than zero")
	}

	limit := pageSize + 1
	if pageToken == "" {
		rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, recipient_id, topic, title_key, message_key, payload_json, dedupe_key, sender_id, created_at, updated_at, read_at
FROM notifications
WHERE recipient_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`, recipientID, limit)
		if err != nil {
			return domain.NotificationPage{}, fmt.Errorf("list notifications: %w", err)
		}
		defer rows.Close()
		return collectPage(rows, pageSize)
	}

	tokenCreatedAt, err := s.notificationCreatedAtByID(ctx, recipientID, pageToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NotificationPage{}, nil
		}
		return domain.NotificationPage{}, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, recipient_id, topic, title_key, message_key, payload_json, dedupe_key, sender_id, created_at, updated_at, read_at
FROM notifications
WHERE recipient_id = ?
  AND (created_at < ? OR (created_at = ? AND id < ?))
ORDER BY created_at DESC, id DESC
LIMIT ?
`, recipientID, toMillis(tokenCreatedAt), toMillis(tokenCreatedAt), pageToken, limit)
	if err != nil {
		return domain.NotificationPage{}, fmt.Errorf("list notifications with token: %w", err)
	}
	defer rows.Close()
	return collectPage(rows, pageSize)
}

// CountUnreadByRecipient returns unread inbox count for one recipient.
func (s *Store) CountUnreadByRecipient(ctx context.Context, recipientID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return 0, fmt.Errorf("recipient id is required")
	}

	var unreadCount int
	if err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(1) FROM notifications WHERE recipient_id = ? AND read_at IS NULL
`, recipientID).Scan(&unreadCount); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return unreadCount, nil
}

// MarkNotificationRead marks one inbox row as read for a recipient.
func (s *Store) MarkNotificationRead(ctx context.Context, recipientID, notificationID string, readAt time.Time) (domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		return domain.Notification{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Notification{}, fmt.Errorf("storage is not configured")
	}
	recipientID = strings.TrimSpace(recipientID)
	notificationID = strings.TrimSpace(notificationID)
	if recipientID == "" || notificationID == "" {
		return domain.Notification{}, fmt.Errorf("recipient id and notification id are required")
	}
	if readAt.IsZero() {
		return domain.Notification{}, fmt.Errorf("read at is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE notifications
SET read_at = ?, updated_at = ?
WHERE recipient_id = ? AND id = ? AND read_at IS NULL
`, toMillis(readAt), toMillis(readAt), recipientID, notificationID)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	if _, err := result.RowsAffected(); err != nil {
		return domain.Notification{}, fmt.Errorf("mark notification read rows affected: %w", err)
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, recipient_id, topic, title_key, message_key, payload_json, dedupe_key, sender_id, created_at, updated_at, read_at
FROM notifications
WHERE recipient_id = ? AND id = ?
`, recipientID, notificationID)
	notification, err := scanNotification(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Notification{}, domain.ErrNotFound
		}
		return domain.Notification{}, fmt.Errorf("get notification: %w", err)
	}
	return notification, nil
}

func (s *Store) notificationCreatedAtByID(ctx context.Context, recipientID, notificationID string) (time.Time, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT created_at FROM notifications WHERE recipient_id = ? AND id = ?
`, recipientID, notificationID)
	var createdAtMillis int64
	if err := row.Scan(&createdAtMillis); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, domain.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("lookup notification cursor: %w", err)
	}
	return fromMillis(createdAtMillis), nil
}

func collectPage(rows *sql.Rows, pageSize int) (domain.NotificationPage, error) {
	var notifications []domain.Notification
	for rows.Next() {
		notification, err := scanNotification(rows.Scan)
		if err != nil {
			return domain.NotificationPage{}, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, notification)
	}
	if err := rows.Err(); err != nil {
		return domain.NotificationPage{}, fmt.Errorf("iterate notifications: %w", err)
	}

	page := domain.NotificationPage{}
	if len(notifications) > pageSize {
		notifications = notifications[:pageSize]
		page.NextPageToken = notifications[pageSize-1].ID
	}
	page.Notifications = notifications
	return page, nil
}

func scanNotification(scan scanner) (domain.Notification, error) {
	var (
		notification domain.Notification
		createdAt    int64
		updatedAt    int64
		readAt       sql.NullInt64
	)
	if err := scan(&notification.ID, &notification.RecipientID, &notification.Topic,
		&notification.TitleKey, &notification.MessageKey, &notification.PayloadJSON,
		&notification.DedupeKey, &notification.SenderID, &createdAt, &updatedAt, &readAt); err != nil {
		return domain.Notification{}, err
	}
	notification.CreatedAt = fromMillis(createdAt)
	notification.UpdatedAt = fromMillis(updatedAt)
	if readAt.Valid {
		readTime := fromMillis(readAt.Int64)
		notification.ReadAt = &readTime
	}
	return notification, nil
}

func normalizeNotification(notification domain.Notification) (domain.Notification, error) {
	notification.ID = strings.TrimSpace(notification.ID)
	notification.RecipientID = strings.TrimSpace(notification.RecipientID)
	notification.Topic = strings.TrimSpace(notification.Topic)
	notification.DedupeKey = strings.TrimSpace(notification.DedupeKey)
	notification.PayloadJSON = strings.TrimSpace(notification.PayloadJSON)
	if notification.PayloadJSON == "" {
		notification.PayloadJSON = "{}"
	}
	if notification.ID == "" {
		return domain.Notification{}, fmt.Errorf("notification id is required")
	}
	if notification.RecipientID == "" {
		return domain.Notification{}, fmt.Errorf("recipient id is required")
	}
	if notification.Topic == "" {
		return domain.Notification{}, fmt.Errorf("topic is required")
	}
	if notification.CreatedAt.IsZero() {
		return domain.Notification{}, fmt.Errorf("created_at is required")
	}
	if notification.UpdatedAt.IsZero() {
		notification.UpdatedAt = notification.CreatedAt
	}
	return notification, nil
}

func readAtMillis(readAt *time.Time) any {
	if readAt == nil {
		return nil
	}
	return toMillis(*readAt)
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "UNIQUE constraint failed") ||
		strings.Contains(message, "constraint failed: UNIQUE")
}
