package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "travelstay/internal/app/outbox"
	infraoutbox "travelstay/internal/infra/outbox"
)

type queueEntry struct {
	record      appoutbox.EventRecord
	state       string
	attempts    int
	nextAttempt time.Time
	claimedBy   string
	claimedAt   time.Time
	lastError   string
}

// OutboxQueue holds committed outbox records in commit order and implements
// the relay worker's store contract.
type OutboxQueue struct {
	mu      sync.Mutex
	entries []*queueEntry
	index   map[string]*queueEntry
}

func NewOutboxQueue() *OutboxQueue {
	return &OutboxQueue{index: make(map[string]*queueEntry)}
}

func (q *OutboxQueue) push(records []appoutbox.EventRecord) {
	if len(records) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	now := time.Now().UTC()
	for _, rec := range records {
		e := &queueEntry{record: rec, state: infraoutbox.StateNew, nextAttempt: now}
		q.entries = append(q.entries, e)
		q.index[rec.ID] = e
	}
}

func (q *OutboxQueue) Claim(_ context.Context, workerID string, now time.Time) (*infraoutbox.Envelope, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		due := (e.state == infraoutbox.StateNew || e.state == infraoutbox.StateFailed) && !e.nextAttempt.After(now)
		stale := e.state == infraoutbox.StateClaimed && now.Sub(e.claimedAt) > infraoutbox.ClaimLease
		if !due && !stale {
			continue
		}
		e.state = infraoutbox.StateClaimed
		e.claimedBy = workerID
		e.claimedAt = now
		headers := make(map[string]string, len(e.record.Headers))
		for k, v := range e.record.Headers {
			headers[k] = v
		}
		return &infraoutbox.Envelope{
			ID:         e.record.ID,
			Name:       e.record.Name,
			Aggregate:  e.record.Aggregate,
			Payload:    append([]byte(nil), e.record.Payload...),
			Headers:    headers,
			OccurredAt: e.record.OccurredAt,
			Attempts:   e.attempts,
		}, nil
	}
	return nil, nil
}

// MarkSent drops the entry; sent records are not kept in memory.
func (q *OutboxQueue) MarkSent(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.index[id]; !ok {
		return nil
	}
	delete(q.index, id)
	kept := q.entries[:0]
	for _, e := range q.entries {
		if e.record.ID != id {
			kept = append(kept, e)
		}
	}
	q.entries = kept
	return nil
}

func (q *OutboxQueue) MarkFailed(_ context.Context, id string, next time.Time, errMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e, ok := q.index[id]; ok {
		e.state = infraoutbox.StateFailed
		e.attempts++
		e.nextAttempt = next
		e.lastError = errMsg
	}
	return nil
}

// Pending reports how many records await delivery.
func (q *OutboxQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

var _ infraoutbox.Store = (*OutboxQueue)(nil)
