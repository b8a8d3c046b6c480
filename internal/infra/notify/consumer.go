// Package notify connects relayed outbox events to the notification
// dispatcher, either through Kafka or in process.
package notify

import (
	"context"
	"log/slog"

	"github.com/IBM/sarama"

	appoutbox "travelstay/internal/app/outbox"
	"travelstay/internal/infra/outbox"
)

// Inbox filters redelivered events.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

// EventHandler consumes one decoded event record.
type EventHandler interface {
	Handle(ctx context.Context, rec appoutbox.EventRecord) error
}

// Handler decodes CloudEvents, drops duplicates and hands the rest to the
// dispatcher. Dispatch failures are logged and the message is acknowledged;
// only inbox outages are returned so the broker redelivers.
type Handler struct {
	Inbox      Inbox
	Dispatcher EventHandler
	Logger     *slog.Logger
}

func (h *Handler) HandlePayload(ctx context.Context, payload []byte) error {
	rec, err := outbox.DecodeCloudEvent(payload)
	if err != nil {
		h.log().Warn("notification event discarded", "error", err)
		return nil
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, rec.ID)
		if err != nil {
			return err
		}
		if seen {
			h.log().Debug("duplicate event skipped", "event_id", rec.ID, "event", rec.Name)
			return nil
		}
	}
	if err := h.Dispatcher.Handle(ctx, rec); err != nil {
		h.log().Error("notification dispatch failed", "event_id", rec.ID, "event", rec.Name, "error", err)
		return nil
	}
	h.log().Info("notification dispatched", "event_id", rec.ID, "event", rec.Name)
	return nil
}

// Handle adapts the handler to the Kafka consumer group.
func (h *Handler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	return h.HandlePayload(ctx, msg.Value)
}

func (h *Handler) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// LocalProducer delivers published events straight to a Handler. It stands in
// for Kafka in single-process deployments.
type LocalProducer struct {
	Handler *Handler
}

func (p LocalProducer) Publish(ctx context.Context, _ string, _ string, payload []byte, _ map[string]string) error {
	return p.Handler.HandlePayload(ctx, payload)
}

var _ outbox.Producer = LocalProducer{}
