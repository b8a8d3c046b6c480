package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domainbooking "travelstay/internal/domain/booking"
	domainlistings "travelstay/internal/domain/listings"
	"travelstay/internal/domain/shared/daterange"
	"travelstay/internal/domain/shared/money"
)

var blockingStatuses = []string{string(domainbooking.StatusPending), string(domainbooking.StatusConfirmed)}

type bookingRepo struct{ u *Unit }

func (r bookingRepo) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	return r.find(r.u.conn(ctx), id)
}

func (r bookingRepo) ByIDForUpdate(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	if err := r.u.writable(); err != nil {
		return nil, err
	}
	return r.find(r.u.forUpdate(ctx), id)
}

func (r bookingRepo) find(db *gorm.DB, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var row Booking
	if err := db.Where("id = ?", string(id)).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, wrap("booking by id", err)
	}
	return row.toDomain()
}

func (r bookingRepo) Save(ctx context.Context, booking *domainbooking.Booking) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	row := Booking{
		ID:              string(booking.ID),
		ListingID:       string(booking.ListingID),
		GuestID:         booking.GuestID,
		CheckIn:         booking.Range.CheckIn.Format(daterange.DateLayout),
		CheckOut:        booking.Range.CheckOut.Format(daterange.DateLayout),
		Guests:          booking.Guests,
		TotalAmount:     booking.TotalPrice.Amount,
		Currency:        booking.TotalPrice.Currency,
		SpecialRequests: booking.SpecialRequests,
		Status:          string(booking.Status),
		RemindedAt:      optionalTime(booking.RemindedAt),
		CreatedAt:       booking.CreatedAt,
		UpdatedAt:       booking.UpdatedAt,
	}
	if err := r.u.conn(ctx).Clauses(upsert()).Create(&row).Error; err != nil {
		return wrap("save booking", err)
	}
	return nil
}

// Overlapping uses half-open ranges: a stay ending on another's check-in day
// does not collide with it.
func (r bookingRepo) Overlapping(ctx context.Context, listingID domainlistings.ListingID, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	return r.list(r.u.conn(ctx).
		Where("listing_id = ?", string(listingID)).
		Where("status IN ?", blockingStatuses).
		Where("check_in < ? AND check_out > ?", dr.CheckOut.Format(daterange.DateLayout), dr.CheckIn.Format(daterange.DateLayout)),
		"overlapping bookings")
}

func (r bookingRepo) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.list(r.u.conn(ctx).Where("guest_id = ?", guestID), "bookings by guest")
}

func (r bookingRepo) ListByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	return r.list(r.u.conn(ctx).Where("listing_id = ?", string(listingID)), "bookings by listing")
}

func (r bookingRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domainbooking.Booking, error) {
	owned := r.u.conn(ctx).Model(&Listing{}).Select("id").Where("owner_id = ?", ownerID)
	return r.list(r.u.conn(ctx).Where("listing_id IN (?)", owned), "bookings by owner")
}

func (r bookingRepo) LatestCompleted(ctx context.Context, listingID domainlistings.ListingID, guestID string) (*domainbooking.Booking, error) {
	var row Booking
	err := r.u.conn(ctx).
		Where("listing_id = ? AND guest_id = ? AND status = ?", string(listingID), guestID, string(domainbooking.StatusCompleted)).
		Order("check_out DESC").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, wrap("latest completed booking", err)
	}
	return row.toDomain()
}

func (r bookingRepo) ConfirmedCheckingIn(ctx context.Context, day time.Time) ([]*domainbooking.Booking, error) {
	q := r.u.conn(ctx).Where("status = ? AND check_in = ?", string(domainbooking.StatusConfirmed), daterange.Day(day).Format(daterange.DateLayout))
	return r.list(q, "bookings checking in")
}

// list returns matching bookings newest first.
func (r bookingRepo) list(q *gorm.DB, op string) ([]*domainbooking.Booking, error) {
	var rows []Booking
	if err := q.Order("created_at DESC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, wrap(op, err)
	}
	out := make([]*domainbooking.Booking, 0, len(rows))
	for _, row := range rows {
		b, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (row Booking) toDomain() (*domainbooking.Booking, error) {
	dr, err := daterange.Parse(row.CheckIn, row.CheckOut)
	if err != nil {
		return nil, wrap("decode booking range", err)
	}
	b := &domainbooking.Booking{
		ID:              domainbooking.BookingID(row.ID),
		ListingID:       domainlistings.ListingID(row.ListingID),
		GuestID:         row.GuestID,
		Range:           dr,
		Guests:          row.Guests,
		TotalPrice:      money.Money{Amount: row.TotalAmount, Currency: row.Currency},
		SpecialRequests: row.SpecialRequests,
		Status:          domainbooking.Status(row.Status),
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
	if row.RemindedAt != nil {
		b.RemindedAt = row.RemindedAt.UTC()
	}
	return b, nil
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
