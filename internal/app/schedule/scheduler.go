package schedule

import (
	"context"
	"time"
)

// Scheduler runs the job registered under name once runAt has passed.
type Scheduler interface {
	Schedule(ctx context.Context, name string, payload any, runAt time.Time) error
}
