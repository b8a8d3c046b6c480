// Package gormstore persists the marketplace in PostgreSQL or SQLite through
// GORM. Every unit of work is one database transaction.
package gormstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appoutbox "travelstay/internal/app/outbox"
	"travelstay/internal/app/uow"
	domainbooking "travelstay/internal/domain/booking"
	domainlistings "travelstay/internal/domain/listings"
	domainpayments "travelstay/internal/domain/payments"
	domainreviews "travelstay/internal/domain/reviews"
	domainuser "travelstay/internal/domain/user"
)

const (
	pgUniqueViolationCode = "23505"
	sqliteConstraintCode  = 19
)

var (
	ErrUnitFinished = errors.New("gormstore: unit of work already finished")
	ErrReadOnly     = errors.New("gormstore: unit of work is read-only")
)

type Store struct {
	db     *gorm.DB
	driver string
}

func New(db *gorm.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// DB exposes the connection for health checks.
func (s *Store) DB() *gorm.DB { return s.db }

// Begin opens a transaction. PostgreSQL units run at read committed; the
// booking overlap check relies on the listing row lock rather than on a
// stricter isolation level.
func (s *Store) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	db := s.db.WithContext(ctx)
	var tx *gorm.DB
	if s.driver == DriverPostgres {
		tx = db.Begin(&sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: opts.ReadOnly})
	} else {
		tx = db.Begin()
	}
	if tx.Error != nil {
		return nil, fmt.Errorf("gormstore: begin: %w", tx.Error)
	}
	return &Unit{tx: tx, driver: s.driver, readOnly: opts.ReadOnly}, nil
}

type Unit struct {
	tx       *gorm.DB
	driver   string
	readOnly bool
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
	if err := u.tx.Commit().Error; err != nil {
		return fmt.Errorf("gormstore: commit: %w", err)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("gormstore: rollback: %w", err)
	}
	return nil
}

func (u *Unit) conn(ctx context.Context) *gorm.DB {
	return u.tx.WithContext(ctx)
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

// forUpdate adds a row lock where the dialect supports one. SQLite already
// serializes writers on the database lock.
func (u *Unit) forUpdate(ctx context.Context) *gorm.DB {
	db := u.conn(ctx)
	if u.driver == DriverPostgres && !u.readOnly {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func upsert() clause.OnConflict {
	return clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}

func wrap(op string, err error) error {
	return fmt.Errorf("gormstore: %s: %w", op, err)
}

var (
	_ uow.UoWFactory = (*Store)(nil)
	_ uow.UnitOfWork = (*Unit)(nil)
)
