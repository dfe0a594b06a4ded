package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pitchside/fieldbook/internal/event"
)

// Writer is a bus observer that persists each event as an inbox record.
// The event's dedupe key keeps replayed transitions from producing
// duplicate rows.
type Writer struct {
	service *Service
}

// NewWriter creates an inbox-writing observer.
func NewWriter(service *Service) *Writer {
	return &Writer{service: service}
}

// OnEvent persists one published event to the recipient's inbox.
func (w *Writer) OnEvent(ctx context.Context, evt event.Event) error {
	if w == nil || w.service == nil {
		return ErrStoreNotConfigured
	}

	payload := ""
	if len(evt.Metadata) > 0 {
		encoded, err := json.Marshal(evt.Metadata)
		if err != nil {
			return fmt.Errorf("encode event metadata: %w", err)
		}
		payload = string(encoded)
	}

	_, err := w.service.CreateIntent(ctx, CreateIntentInput{
		RecipientID: evt.RecipientID,
		Topic:       string(evt.Type),
		TitleKey:    evt.TitleKey,
		MessageKey:  evt.MessageKey,
		PayloadJSON: payload,
		DedupeKey:   evt.DedupeKey(),
		SenderID:    evt.SenderID,
	})
	if err != nil {
		return fmt.Errorf("write inbox notification: %w", err)
	}
	return nil
}

// Alerter is a bus observer that surfaces events as structured log alerts.
// It stands in for a push/email transport; anything slower than logging
// must offload to its own worker before returning.
type Alerter struct {
	logger *slog.Logger
}

// NewAlerter creates a log-based alerting observer.
func NewAlerter(logger *slog.Logger) *Alerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Alerter{logger: logger}
}

// OnEvent logs one published event as a user alert.
func (a *Alerter) OnEvent(_ context.Context, evt event.Event) error {
	a.logger.Info("user alert",
		"type", string(evt.Type),
		"recipient_id", evt.RecipientID,
		"sender_id", evt.SenderID,
		"message_key", evt.MessageKey,
		"timestamp", evt.Timestamp,
	)
	return nil
}
