package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker relays committed outbox entries to a Producer. It polls on Interval
// and drains immediately when nudged through Flush.
type Worker struct {
	Store       Store
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Logger      *slog.Logger

	nudge chan struct{}
}

func NewWorker(store Store, producer Producer) *Worker {
	return &Worker{Store: store, Producer: producer, nudge: make(chan struct{}, 1)}
}

// Flush wakes the worker without waiting for the drain to finish.
func (w *Worker) Flush(context.Context) error {
	if w.nudge == nil {
		return nil
	}
	select {
	case w.nudge <- struct{}{}:
	default:
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-w.nudge:
		}
		if err := w.Drain(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log().Error("outbox drain failed", "worker_id", w.ID, "error", err)
		}
	}
}

// Drain publishes due entries until none is left. Publish failures are
// rescheduled with backoff and do not stop the drain.
func (w *Worker) Drain(ctx context.Context) error {
	for {
		processed, err := w.processOnce(ctx)
		if err != nil || !processed {
			return err
		}
	}
}

func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	env, err := w.Store.Claim(ctx, w.ID, time.Now().UTC())
	if err != nil || env == nil {
		return false, err
	}
	payload, headers, err := EncodeCloudEvent(env, w.source())
	if err == nil {
		err = w.Producer.Publish(ctx, TopicFor(w.TopicPrefix, env.Name), env.Aggregate, payload, headers)
	}
	if err != nil {
		w.log().Warn("outbox publish failed", "event_id", env.ID, "event", env.Name, "attempts", env.Attempts+1, "error", err)
		return true, w.Store.MarkFailed(ctx, env.ID, w.nextRetry(env.Attempts), err.Error())
	}
	return true, w.Store.MarkSent(ctx, env.ID)
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().UTC().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().UTC().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().UTC().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://travelstay"
}

func (w *Worker) log() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
