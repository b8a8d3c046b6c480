package listings

import (
	"context"
	"strings"
	"time"

	"travelstay/internal/domain/shared/fault"
	"travelstay/internal/domain/shared/money"
)

var (
	ErrIDRequired      = fault.Validation("listings: id is required")
	ErrOwnerRequired   = fault.Validation("listings: owner is required")
	ErrTitleRequired   = fault.Validation("listings: title is required")
	ErrLocationMissing = fault.Validation("listings: location is required")
	ErrGuestsLimit     = fault.Validation("listings: max guests must be at least 1")
	ErrNightlyPrice    = fault.Validation("listings: nightly price must be positive")
	ErrRooms           = fault.Validation("listings: bedrooms and bathrooms must be non-negative")
	ErrInvalidType     = fault.Validation("listings: unknown listing type")
	ErrNotOwner        = fault.Permission("listings: only the owner may modify this listing")
	ErrInactive        = fault.State("listings: listing is not active")
	ErrNotFound        = fault.NotFound("listings: not found")
)

type ListingID string

type ListingType string

const (
	TypeHotel     ListingType = "hotel"
	TypeApartment ListingType = "apartment"
	TypeVilla     ListingType = "villa"
	TypeResort    ListingType = "resort"
	TypeHostel    ListingType = "hostel"
	TypeOther     ListingType = "other"
)

// ParseType accepts the lowercase wire value; an empty value maps to TypeOther.
func ParseType(raw string) (ListingType, error) {
	switch t := ListingType(strings.ToLower(strings.TrimSpace(raw))); t {
	case "":
		return TypeOther, nil
	case TypeHotel, TypeApartment, TypeVilla, TypeResort, TypeHostel, TypeOther:
		return t, nil
	default:
		return "", ErrInvalidType
	}
}

type Listing struct {
	ID           ListingID
	OwnerID      string
	Title        string
	Description  string
	Type         ListingType
	NightlyPrice money.Money
	Location     string
	Address      string
	MaxGuests    int
	Bedrooms     int
	Bathrooms    int
	Amenities    []string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	// ByIDForUpdate loads the listing and holds a row lock until the surrounding
	// transaction ends. Booking creation relies on it to serialize overlap checks.
	ByIDForUpdate(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

type CreateParams struct {
	ID           ListingID
	OwnerID      string
	Title        string
	Description  string
	Type         ListingType
	NightlyPrice money.Money
	Location     string
	Address      string
	MaxGuests    int
	Bedrooms     int
	Bathrooms    int
	Amenities    []string
	Now          time.Time
}

func NewListing(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(params.OwnerID) == "" {
		return nil, ErrOwnerRequired
	}
	listingType := params.Type
	if listingType == "" {
		listingType = TypeOther
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	l := &Listing{
		ID:           params.ID,
		OwnerID:      strings.TrimSpace(params.OwnerID),
		Title:        strings.TrimSpace(params.Title),
		Description:  strings.TrimSpace(params.Description),
		Type:         listingType,
		NightlyPrice: params.NightlyPrice,
		Location:     strings.TrimSpace(params.Location),
		Address:      strings.TrimSpace(params.Address),
		MaxGuests:    params.MaxGuests,
		Bedrooms:     params.Bedrooms,
		Bathrooms:    params.Bathrooms,
		Amenities:    normalizeAmenities(params.Amenities),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// UpdateParams carries a partial update; nil fields are left untouched.
type UpdateParams struct {
	Title        *string
	Description  *string
	Type         *ListingType
	NightlyPrice *money.Money
	Location     *string
	Address      *string
	MaxGuests    *int
	Bedrooms     *int
	Bathrooms    *int
	Amenities    []string
	IsActive     *bool
	Now          time.Time
}

func (l *Listing) Update(actorID string, params UpdateParams) error {
	if err := l.EnsureOwner(actorID); err != nil {
		return err
	}
	next := *l
	if params.Title != nil {
		next.Title = strings.TrimSpace(*params.Title)
	}
	if params.Description != nil {
		next.Description = strings.TrimSpace(*params.Description)
	}
	if params.Type != nil {
		next.Type = *params.Type
	}
	if params.NightlyPrice != nil {
		next.NightlyPrice = *params.NightlyPrice
	}
	if params.Location != nil {
		next.Location = strings.TrimSpace(*params.Location)
	}
	if params.Address != nil {
		next.Address = strings.TrimSpace(*params.Address)
	}
	if params.MaxGuests != nil {
		next.MaxGuests = *params.MaxGuests
	}
	if params.Bedrooms != nil {
		next.Bedrooms = *params.Bedrooms
	}
	if params.Bathrooms != nil {
		next.Bathrooms = *params.Bathrooms
	}
	if params.Amenities != nil {
		next.Amenities = normalizeAmenities(params.Amenities)
	}
	if params.IsActive != nil {
		next.IsActive = *params.IsActive
	}
	if err := next.validate(); err != nil {
		return err
	}
	next.UpdatedAt = stamp(params.Now)
	*l = next
	return nil
}

// Deactivate hides the listing from search and blocks new bookings. Listings
// are never hard-deleted because bookings keep referencing them.
func (l *Listing) Deactivate(actorID string, now time.Time) error {
	if err := l.EnsureOwner(actorID); err != nil {
		return err
	}
	if !l.IsActive {
		return nil
	}
	l.IsActive = false
	l.UpdatedAt = stamp(now)
	return nil
}

func (l *Listing) EnsureOwner(actorID string) error {
	if strings.TrimSpace(actorID) == "" || actorID != l.OwnerID {
		return ErrNotOwner
	}
	return nil
}

func (l *Listing) IsOwner(actorID string) bool {
	return actorID != "" && actorID == l.OwnerID
}

func (l *Listing) validate() error {
	switch {
	case l.Title == "":
		return ErrTitleRequired
	case l.Location == "":
		return ErrLocationMissing
	case l.MaxGuests < 1:
		return ErrGuestsLimit
	case !l.NightlyPrice.IsPositive():
		return ErrNightlyPrice
	case l.Bedrooms < 0 || l.Bathrooms < 0:
		return ErrRooms
	}
	if _, err := ParseType(string(l.Type)); err != nil {
		return err
	}
	if _, err := money.New(l.NightlyPrice.Amount, l.NightlyPrice.Currency); err != nil {
		return fault.Wrap(fault.ErrValidation, err)
	}
	return nil
}

func normalizeAmenities(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		key := strings.ToLower(a)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

func stamp(now time.Time) time.Time {
	if now.IsZero() {
		now = time.Now()
	}
	return now.UTC()
}
