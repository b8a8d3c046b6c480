package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"travelstay/internal/app/handlers/support"
	"travelstay/internal/app/outbox"
	"travelstay/internal/app/uow"
	"travelstay/internal/domain/shared/daterange"
)

const BookingRemindersJob = "booking.reminders"

// ReminderRun is the job payload. An empty Day means the day after the run
// and makes the job reschedule itself for the following day.
type ReminderRun struct {
	Day string `json:"day,omitempty"`
}

// BookingReminders queues a reminder for every confirmed stay that starts the
// next day. Each booking is reminded at most once, so overlapping runs are
// harmless.
type BookingReminders struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
	Scheduler  Scheduler
	// At is the UTC time of day of the recurring run.
	At     time.Duration
	Now    func() time.Time
	Logger *slog.Logger
}

// Start queues an immediate catch-up run; every recurring run books the next.
func (r *BookingReminders) Start(ctx context.Context) error {
	if r.Scheduler == nil {
		return errors.New("schedule: reminders need a scheduler")
	}
	return r.Scheduler.Schedule(ctx, BookingRemindersJob, ReminderRun{}, r.now())
}

func (r *BookingReminders) Handle(ctx context.Context, payload []byte) error {
	var run ReminderRun
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &run); err != nil {
			return fmt.Errorf("schedule: decode %s: %w", BookingRemindersJob, err)
		}
	}
	now := r.now()
	day := daterange.Day(now).AddDate(0, 0, 1)
	if run.Day != "" {
		parsed, err := daterange.ParseDate(run.Day)
		if err != nil {
			return err
		}
		day = parsed
	}

	_, err := r.Remind(ctx, day)
	if run.Day == "" && r.Scheduler != nil {
		if serr := r.Scheduler.Schedule(ctx, BookingRemindersJob, ReminderRun{}, r.NextRun(now)); serr != nil {
			err = errors.Join(err, serr)
		}
	}
	return err
}

// Remind records reminders for confirmed stays checking in on day and
// reports how many were queued.
func (r *BookingReminders) Remind(ctx context.Context, day time.Time) (int, error) {
	scope, ctx, err := support.BeginUnit(ctx, r.UoWFactory)
	if err != nil {
		return 0, err
	}
	defer scope.Close(ctx)
	unit := scope.Unit

	due, err := unit.Bookings().ConfirmedCheckingIn(ctx, day)
	if err != nil {
		return 0, err
	}
	now := r.now()
	queued := 0
	for _, candidate := range due {
		booking, err := unit.Bookings().ByIDForUpdate(ctx, candidate.ID)
		if err != nil {
			return 0, err
		}
		if !booking.Remind(now) {
			continue
		}
		if err := unit.Bookings().Save(ctx, booking); err != nil {
			return 0, err
		}
		if err := support.RecordEvents(ctx, unit, r.Encoder, booking); err != nil {
			return 0, err
		}
		queued++
	}
	if queued > 0 && r.Logger != nil {
		uow.AfterCommit(ctx, func() {
			r.Logger.Info("booking reminders queued", "check_in", day.Format(daterange.DateLayout), "count", queued)
		})
	}
	if err := scope.Commit(ctx); err != nil {
		return 0, err
	}
	return queued, nil
}

// NextRun is the first daily run time strictly after now.
func (r *BookingReminders) NextRun(now time.Time) time.Time {
	next := daterange.Day(now).Add(r.At)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (r *BookingReminders) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}
