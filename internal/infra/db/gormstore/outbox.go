package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appoutbox "travelstay/internal/app/outbox"
	infraoutbox "travelstay/internal/infra/outbox"
)

type unitOutbox struct{ u *Unit }

// Add writes the record inside the unit's transaction; it becomes claimable
// when the unit commits.
func (o unitOutbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if err := o.u.writable(); err != nil {
		return err
	}
	var headers datatypes.JSON
	if len(record.Headers) > 0 {
		raw, err := json.Marshal(record.Headers)
		if err != nil {
			return wrap("encode outbox headers", err)
		}
		headers = datatypes.JSON(raw)
	}
	occurred := record.OccurredAt.UTC()
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	row := OutboxEvent{
		ID:            record.ID,
		Name:          record.Name,
		Aggregate:     record.Aggregate,
		Payload:       datatypes.JSON(record.Payload),
		Headers:       headers,
		OccurredAt:    occurred,
		State:         infraoutbox.StateNew,
		NextAttemptAt: occurred,
	}
	if err := o.u.conn(ctx).Create(&row).Error; err != nil {
		return wrap("append outbox", err)
	}
	return nil
}

func (o unitOutbox) Flush(context.Context) error { return nil }

// OutboxStore is the relay side of the outbox_events table.
type OutboxStore struct {
	db     *gorm.DB
	driver string
}

func NewOutboxStore(db *gorm.DB, driver string) *OutboxStore {
	return &OutboxStore{db: db, driver: driver}
}

// Claim reserves the oldest due entry for workerID. Entries claimed longer
// than the lease ago are reclaimed. On PostgreSQL concurrent workers skip
// each other's locked rows; everywhere the conditional update makes the
// claim exclusive.
func (s *OutboxStore) Claim(ctx context.Context, workerID string, now time.Time) (*infraoutbox.Envelope, error) {
	now = now.UTC()
	var claimed *OutboxEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if s.driver == DriverPostgres {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		var row OutboxEvent
		err := q.
			Where("(state IN ? AND next_attempt_at <= ?) OR (state = ? AND claimed_at < ?)",
				[]string{infraoutbox.StateNew, infraoutbox.StateFailed}, now,
				infraoutbox.StateClaimed, now.Add(-infraoutbox.ClaimLease)).
			Order("occurred_at ASC").Order("id ASC").
			Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		res := tx.Model(&OutboxEvent{}).
			Where("id = ? AND state = ?", row.ID, row.State).
			Updates(map[string]any{"state": infraoutbox.StateClaimed, "claimed_by": workerID, "claimed_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			claimed = &row
		}
		return nil
	})
	if err != nil {
		return nil, wrap("claim outbox", err)
	}
	if claimed == nil {
		return nil, nil
	}
	headers := map[string]string{}
	if len(claimed.Headers) > 0 {
		if err := json.Unmarshal(claimed.Headers, &headers); err != nil {
			return nil, wrap("decode outbox headers", err)
		}
	}
	return &infraoutbox.Envelope{
		ID:         claimed.ID,
		Name:       claimed.Name,
		Aggregate:  claimed.Aggregate,
		Payload:    []byte(claimed.Payload),
		Headers:    headers,
		OccurredAt: claimed.OccurredAt.UTC(),
		Attempts:   claimed.Attempts,
	}, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Model(&OutboxEvent{}).Where("id = ?", id).
		Updates(map[string]any{"state": infraoutbox.StateSent, "sent_at": now, "last_error": ""}).Error
	if err != nil {
		return wrap("mark outbox sent", err)
	}
	return nil
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	err := s.db.WithContext(ctx).Model(&OutboxEvent{}).Where("id = ?", id).
		Updates(map[string]any{
			"state":           infraoutbox.StateFailed,
			"attempts":        gorm.Expr("attempts + 1"),
			"next_attempt_at": next.UTC(),
			"last_error":      errMsg,
		}).Error
	if err != nil {
		return wrap("mark outbox failed", err)
	}
	return nil
}

// Pending counts entries not yet delivered.
func (s *OutboxStore) Pending(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&OutboxEvent{}).Where("state <> ?", infraoutbox.StateSent).Count(&n).Error
	if err != nil {
		return 0, wrap("count outbox", err)
	}
	return n, nil
}

var _ infraoutbox.Store = (*OutboxStore)(nil)
