// Package memory is an in-process store for local runs and tests. Write units
// are serialized by a store-wide mutex and work on a private copy of the
// state that replaces the shared one on commit, so a rolled back unit leaves
// no trace.
package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "travelstay/internal/app/outbox"
	"travelstay/internal/app/uow"
	domainbooking "travelstay/internal/domain/booking"
	domainlistings "travelstay/internal/domain/listings"
	domainpayments "travelstay/internal/domain/payments"
	domainreviews "travelstay/internal/domain/reviews"
	domainuser "travelstay/internal/domain/user"
)

var (
	ErrReadOnly     = errors.New("memory: write attempted in read-only unit")
	ErrUnitFinished = errors.New("memory: unit already committed or rolled back")
)

type state struct {
	listings map[domainlistings.ListingID]*domainlistings.Listing
	images   map[domainlistings.ImageID]*domainlistings.Image
	bookings map[domainbooking.BookingID]*domainbooking.Booking
	reviews  map[domainreviews.ReviewID]*domainreviews.Review
	payments map[domainpayments.PaymentID]*domainpayments.Payment
	users    map[domainuser.ID]*domainuser.User
}

func newState() *state {
	return &state{
		listings: make(map[domainlistings.ListingID]*domainlistings.Listing),
		images:   make(map[domainlistings.ImageID]*domainlistings.Image),
		bookings: make(map[domainbooking.BookingID]*domainbooking.Booking),
		reviews:  make(map[domainreviews.ReviewID]*domainreviews.Review),
		payments: make(map[domainpayments.PaymentID]*domainpayments.Payment),
		users:    make(map[domainuser.ID]*domainuser.User),
	}
}

// clone copies the maps only. Stored entities are never mutated in place, so
// sharing them between states is safe.
func (s *state) clone() *state {
	out := newState()
	for k, v := range s.listings {
		out.listings[k] = v
	}
	for k, v := range s.images {
		out.images[k] = v
	}
	for k, v := range s.bookings {
		out.bookings[k] = v
	}
	for k, v := range s.reviews {
		out.reviews[k] = v
	}
	for k, v := range s.payments {
		out.payments[k] = v
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	return out
}

// Store owns the committed state and the outbox queue.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	current *state
	queue   *OutboxQueue
}

func NewStore() *Store {
	return &Store{current: newState(), queue: NewOutboxQueue()}
}

// Outbox exposes the committed outbox entries to the relay worker.
func (s *Store) Outbox() *OutboxQueue {
	return s.queue
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Begin opens a unit. Write units block until the previous writer finished.
func (s *Store) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.ReadOnly {
		return &Unit{store: s, st: s.snapshot(), readOnly: true}, nil
	}
	s.writeMu.Lock()
	return &Unit{store: s, st: s.snapshot().clone()}, nil
}

// Unit is a uow.UnitOfWork over one state version.
type Unit struct {
	store    *Store
	st       *state
	readOnly bool
	pending  []appoutbox.EventRecord
	done     bool
}

func (u *Unit) Listings() domainlistings.Repository    { return listingRepo{u} }
func (u *Unit) Images() domainlistings.ImageRepository { return imageRepo{u} }
func (u *Unit) Bookings() domainbooking.Repository     { return bookingRepo{u} }
func (u *Unit) Reviews() domainreviews.Repository      { return reviewRepo{u} }
func (u *Unit) Payments() domainpayments.Repository    { return paymentRepo{u} }
func (u *Unit) Users() domainuser.Repository           { return userRepo{u} }
func (u *Unit) Outbox() appoutbox.Outbox               { return unitOutbox{u} }

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return ErrUnitFinished
	}
	u.done = true
	if u.readOnly {
		return nil
	}
	u.store.mu.Lock()
	u.store.current = u.st
	u.store.mu.Unlock()
	u.store.queue.push(u.pending)
	u.pending = nil
	u.store.writeMu.Unlock()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	u.pending = nil
	if !u.readOnly {
		u.store.writeMu.Unlock()
	}
	return nil
}

func (u *Unit) writable() error {
	if u.done {
		return ErrUnitFinished
	}
	if u.readOnly {
		return ErrReadOnly
	}
	return nil
}

type unitOutbox struct{ u *Unit }

func (o unitOutbox) Add(_ context.Context, record appoutbox.EventRecord) error {
	if err := o.u.writable(); err != nil {
		return err
	}
	o.u.pending = append(o.u.pending, record)
	return nil
}

// Flush is a no-op: records reach the queue when the unit commits.
func (o unitOutbox) Flush(context.Context) error { return nil }

var (
	_ uow.UoWFactory   = (*Store)(nil)
	_ uow.UnitOfWork   = (*Unit)(nil)
	_ appoutbox.Outbox = unitOutbox{}
)
