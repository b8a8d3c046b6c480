// Package schedule runs delayed jobs inside the process.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	appschedule "travelstay/internal/app/schedule"
)

var ErrUnknownJob = errors.New("schedule: unknown job")

type JobFunc func(ctx context.Context, payload []byte) error

type entry struct {
	name    string
	payload []byte
	runAt   time.Time
}

// Local keeps pending runs in memory and polls for due ones on Interval.
// Pending runs do not survive a restart, so recurring jobs must book their
// first run on startup.
type Local struct {
	Interval time.Duration
	Logger   *slog.Logger

	mu      sync.Mutex
	jobs    map[string]JobFunc
	pending []entry
	nudge   chan struct{}
}

func NewLocal(logger *slog.Logger) *Local {
	return &Local{Logger: logger, jobs: make(map[string]JobFunc), nudge: make(chan struct{}, 1)}
}

func (l *Local) Register(name string, fn JobFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.jobs[name] = fn
}

func (l *Local) Schedule(_ context.Context, name string, payload any, runAt time.Time) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("schedule: encode %s: %w", name, err)
	}
	l.mu.Lock()
	if _, ok := l.jobs[name]; !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	l.pending = append(l.pending, entry{name: name, payload: raw, runAt: runAt.UTC()})
	l.mu.Unlock()
	select {
	case l.nudge <- struct{}{}:
	default:
	}
	return nil
}

func (l *Local) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-l.nudge:
		}
		l.RunDue(ctx, time.Now())
	}
}

// RunDue runs every pending job due at now, oldest first, and reports how
// many ran. Jobs may schedule further runs while executing.
func (l *Local) RunDue(ctx context.Context, now time.Time) int {
	l.mu.Lock()
	var due, later []entry
	for _, e := range l.pending {
		if e.runAt.After(now) {
			later = append(later, e)
		} else {
			due = append(due, e)
		}
	}
	l.pending = later
	jobs := make(map[string]JobFunc, len(due))
	for _, e := range due {
		jobs[e.name] = l.jobs[e.name]
	}
	l.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].runAt.Before(due[j].runAt) })
	for _, e := range due {
		if err := jobs[e.name](ctx, e.payload); err != nil && l.Logger != nil {
			l.Logger.Error("scheduled job failed", "job", e.name, "run_at", e.runAt, "error", err)
		}
	}
	return len(due)
}

// Pending reports how many runs are waiting.
func (l *Local) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

func (l *Local) interval() time.Duration {
	if l.Interval <= 0 {
		return time.Second
	}
	return l.Interval
}

var _ appschedule.Scheduler = (*Local)(nil)
