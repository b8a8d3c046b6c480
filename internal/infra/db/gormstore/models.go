package gormstore

import (
	"time"

	"gorm.io/datatypes"
)

// Stay dates are stored as YYYY-MM-DD text so range comparisons behave the
// same on PostgreSQL and SQLite.

type Listing struct {
	ID          string         `gorm:"primaryKey;size:64"`
	OwnerID     string         `gorm:"size:64;not null;index"`
	Title       string         `gorm:"size:200;not null"`
	Description string         `gorm:"type:text"`
	Type        string         `gorm:"size:32;not null;index"`
	PriceAmount int64          `gorm:"not null"`
	Currency    string         `gorm:"size:3;not null"`
	Location    string         `gorm:"size:200;not null"`
	Address     string         `gorm:"size:300"`
	MaxGuests   int            `gorm:"not null"`
	Bedrooms    int            `gorm:"not null;default:0"`
	Bathrooms   int            `gorm:"not null;default:0"`
	Amenities   datatypes.JSON `gorm:"not null"`
	IsActive    bool           `gorm:"not null;index"`
	CreatedAt   time.Time      `gorm:"not null;index"`
	UpdatedAt   time.Time      `gorm:"not null"`
}

func (Listing) TableName() string { return "listings" }

type ListingImage struct {
	ID        string    `gorm:"primaryKey;size:64"`
	ListingID string    `gorm:"size:64;not null;index:idx_listing_images_listing_created,priority:1"`
	URL       string    `gorm:"size:1024;not null"`
	Caption   string    `gorm:"size:300"`
	IsPrimary bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_listing_images_listing_created,priority:2"`
}

func (ListingImage) TableName() string { return "listing_images" }

type Booking struct {
	ID              string     `gorm:"primaryKey;size:64"`
	ListingID       string     `gorm:"size:64;not null;index:idx_bookings_listing_range,priority:1"`
	GuestID         string     `gorm:"size:64;not null;index"`
	CheckIn         string     `gorm:"size:10;not null;index:idx_bookings_listing_range,priority:2"`
	CheckOut        string     `gorm:"size:10;not null;index:idx_bookings_listing_range,priority:3"`
	Guests          int        `gorm:"not null"`
	TotalAmount     int64      `gorm:"not null"`
	Currency        string     `gorm:"size:3;not null"`
	SpecialRequests string     `gorm:"type:text"`
	Status          string     `gorm:"size:16;not null;index"`
	RemindedAt      *time.Time `gorm:""`
	CreatedAt       time.Time  `gorm:"not null"`
	UpdatedAt       time.Time  `gorm:"not null"`
}

func (Booking) TableName() string { return "bookings" }

type Review struct {
	ID         string    `gorm:"primaryKey;size:64"`
	ListingID  string    `gorm:"size:64;not null;uniqueIndex:uniq_reviews_listing_reviewer,priority:1"`
	ReviewerID string    `gorm:"size:64;not null;uniqueIndex:uniq_reviews_listing_reviewer,priority:2"`
	BookingID  string    `gorm:"size:64;not null"`
	Rating     int       `gorm:"not null"`
	Comment    string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (Review) TableName() string { return "reviews" }

type Payment struct {
	ID             string         `gorm:"primaryKey;size:64"`
	BookingID      string         `gorm:"size:64;not null;uniqueIndex"`
	TransactionID  string         `gorm:"size:100;not null;uniqueIndex"`
	Amount         int64          `gorm:"not null"`
	Currency       string         `gorm:"size:3;not null"`
	Status         string         `gorm:"size:16;not null"`
	CheckoutURL    string         `gorm:"size:1024"`
	GatewayPayload datatypes.JSON `gorm:""`
	CreatedAt      time.Time      `gorm:"not null"`
	UpdatedAt      time.Time      `gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

// PaymentReference keeps a superseded transaction reference resolvable.
type PaymentReference struct {
	TransactionID string `gorm:"primaryKey;size:100"`
	PaymentID     string `gorm:"size:64;not null;index"`
}

func (PaymentReference) TableName() string { return "payment_references" }

type User struct {
	ID           string    `gorm:"primaryKey;size:64"`
	Email        string    `gorm:"size:320;not null;uniqueIndex"`
	FirstName    string    `gorm:"size:100;not null"`
	LastName     string    `gorm:"size:100"`
	PasswordHash string    `gorm:"size:200;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (User) TableName() string { return "users" }

// OutboxEvent is a domain event committed together with the state change that
// produced it.
type OutboxEvent struct {
	ID            string         `gorm:"primaryKey;size:64"`
	Name          string         `gorm:"size:100;not null"`
	Aggregate     string         `gorm:"size:64;not null"`
	Payload       datatypes.JSON `gorm:"not null"`
	Headers       datatypes.JSON `gorm:""`
	OccurredAt    time.Time      `gorm:"not null;index:idx_outbox_due,priority:3"`
	State         string         `gorm:"size:16;not null;index:idx_outbox_due,priority:1"`
	Attempts      int            `gorm:"not null;default:0"`
	NextAttemptAt time.Time      `gorm:"not null;index:idx_outbox_due,priority:2"`
	ClaimedBy     string         `gorm:"size:64"`
	ClaimedAt     *time.Time
	SentAt        *time.Time
	LastError     string `gorm:"type:text"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{&Listing{}, &ListingImage{}, &Booking{}, &Review{}, &Payment{}, &PaymentReference{}, &User{}, &OutboxEvent{}}
}
