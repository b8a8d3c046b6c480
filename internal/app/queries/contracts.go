package queries

import (
	"context"
	"errors"
	"fmt"
)

// Query is a read request. Queries never mutate state and run outside the
// transaction middleware.
type Query interface {
	Key() string
}

type Handler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

// Bus routes queries to registered handlers.
type Bus interface {
	Ask(ctx context.Context, query Query) (any, error)
}

var (
	ErrHandlerNotFound = errors.New("queries: handler not found")
	ErrInvalidQuery    = errors.New("queries: invalid query for handler")
	ErrResultType      = errors.New("queries: result type mismatch")
	ErrNilBus          = errors.New("queries: nil bus")
)

// Ask runs query on bus and asserts the view type the caller expects. A nil
// result yields the zero view.
func Ask[Q Query, R any](ctx context.Context, bus Bus, query Q) (R, error) {
	var view R
	if bus == nil {
		return view, ErrNilBus
	}
	res, err := bus.Ask(ctx, query)
	if err != nil || res == nil {
		return view, err
	}
	typed, ok := res.(R)
	if !ok {
		return view, fmt.Errorf("%w: %s returned %T", ErrResultType, query.Key(), res)
	}
	return typed, nil
}
