package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"

	appoutbox "travelstay/internal/app/outbox"
	"travelstay/internal/infra/outbox"
	"travelstay/internal/infra/storage/memory"
)

type recordingDispatcher struct {
	got []appoutbox.EventRecord
	err error
}

func (d *recordingDispatcher) Handle(_ context.Context, rec appoutbox.EventRecord) error {
	d.got = append(d.got, rec)
	return d.err
}

type brokenInbox struct{}

func (brokenInbox) Seen(context.Context, string) (bool, error) {
	return false, errors.New("inbox unavailable")
}

func encode(t *testing.T, id string) []byte {
	t.Helper()
	payload, _, err := outbox.EncodeCloudEvent(&outbox.Envelope{
		ID:         id,
		Name:       "booking.created",
		Aggregate:  "booking-1",
		Payload:    []byte(`{"booking_id":"booking-1"}`),
		OccurredAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}, "app://test")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return payload
}

func TestHandlerDedupesByEventID(t *testing.T) {
	t.Parallel()
	dispatcher := &recordingDispatcher{}
	h := &Handler{Inbox: memory.NewInbox(), Dispatcher: dispatcher}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := h.Handle(ctx, &sarama.ConsumerMessage{Value: encode(t, "evt-1")}); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if err := (LocalProducer{Handler: h}).Publish(ctx, "booking.events.v1", "booking-1", encode(t, "evt-2"), nil); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(dispatcher.got) != 2 {
		t.Fatalf("expected two dispatches, got %d", len(dispatcher.got))
	}
	if rec := dispatcher.got[0]; rec.Name != "booking.created" || rec.Aggregate != "booking-1" || string(rec.Payload) != `{"booking_id":"booking-1"}` {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestHandlerAcknowledgesFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := &Handler{Dispatcher: &recordingDispatcher{err: errors.New("smtp down")}}
	if err := h.HandlePayload(ctx, encode(t, "evt-1")); err != nil {
		t.Fatalf("dispatch failures are acknowledged, got %v", err)
	}
	if err := h.HandlePayload(ctx, []byte("not json")); err != nil {
		t.Fatalf("malformed messages are discarded, got %v", err)
	}

	h = &Handler{Inbox: brokenInbox{}, Dispatcher: &recordingDispatcher{}}
	if err := h.HandlePayload(ctx, encode(t, "evt-1")); err == nil {
		t.Fatalf("inbox outages must be retried")
	}
}
