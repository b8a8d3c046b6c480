package support

import (
	"context"

	"travelstay/internal/app/outbox"
	"travelstay/internal/app/uow"
	"travelstay/internal/domain/shared/events"
)

// BeginReadOnlyUnit reuses the unit carried by ctx or opens a read-only one.
// The returned cleanup is nil when the unit is not owned by the caller.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, nil, nil
	}
	unit, execCtx, err := uow.Begin(ctx, factory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	cleanup := func() {
		_ = unit.Rollback(execCtx)
	}
	return unit, execCtx, cleanup, nil
}

// Scope is a write unit that is either borrowed from the Transaction
// middleware or owned by the handler that opened it.
type Scope struct {
	Unit      uow.UnitOfWork
	managed   bool
	committed bool
}

func BeginUnit(ctx context.Context, factory uow.UoWFactory) (*Scope, context.Context, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return &Scope{Unit: unit}, ctx, nil
	}
	unit, execCtx, err := uow.Begin(ctx, factory, uow.TxOptions{})
	if err != nil {
		return nil, ctx, err
	}
	return &Scope{Unit: unit, managed: true}, execCtx, nil
}

// Commit commits owned units only; borrowed units are committed by their owner.
func (s *Scope) Commit(ctx context.Context) error {
	if !s.managed || s.committed {
		return nil
	}
	if err := s.Unit.Commit(ctx); err != nil {
		return err
	}
	s.committed = true
	uow.RunAfterCommit(ctx)
	return nil
}

// Close rolls back an owned unit that was not committed.
func (s *Scope) Close(ctx context.Context) {
	if s.managed && !s.committed {
		_ = s.Unit.Rollback(ctx)
	}
}

type EventSource interface {
	DrainEvents() []events.DomainEvent
}

// RecordEvents drains pending domain events from sources into the unit's outbox.
func RecordEvents(ctx context.Context, unit uow.UnitOfWork, encoder outbox.EventEncoder, sources ...EventSource) error {
	var pending []events.DomainEvent
	for _, src := range sources {
		pending = append(pending, src.DrainEvents()...)
	}
	return outbox.RecordDomainEvents(ctx, unit.Outbox(), encoder, pending)
}
