package outbox

import (
	"context"
	"errors"
	"time"
)

// Delivery states of an outbox entry.
const (
	StateNew     = "NEW"
	StateClaimed = "CLAIMED"
	StateSent    = "SENT"
	StateFailed  = "FAILED"
)

// ClaimLease is how long a claimed entry stays reserved for its worker.
// Entries whose worker died are claimable again afterwards.
const ClaimLease = time.Minute

// Envelope is a committed outbox entry handed to the worker.
type Envelope struct {
	ID         string
	Name       string
	Aggregate  string
	Payload    []byte
	Headers    map[string]string
	OccurredAt time.Time
	Attempts   int
}

// Store is the persistence side of the relay. Claim returns nil, nil when
// nothing is due.
type Store interface {
	Claim(ctx context.Context, workerID string, now time.Time) (*Envelope, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")
