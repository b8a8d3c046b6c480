package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	domainlistings "travelstay/internal/domain/listings"
	"travelstay/internal/domain/shared/money"
)

type listingRepo struct{ u *Unit }

func (r listingRepo) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	return r.find(r.u.conn(ctx), id)
}

// ByIDForUpdate locks the listing row until the unit ends so concurrent
// bookings of the same listing run their overlap checks one after another.
func (r listingRepo) ByIDForUpdate(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	if err := r.u.writable(); err != nil {
		return nil, err
	}
	return r.find(r.u.forUpdate(ctx), id)
}

func (r listingRepo) find(db *gorm.DB, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var row Listing
	if err := db.Where("id = ?", string(id)).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, wrap("listing by id", err)
	}
	return row.toDomain()
}

func (r listingRepo) Save(ctx context.Context, listing *domainlistings.Listing) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	row, err := newListingRow(listing)
	if err != nil {
		return err
	}
	if err := r.u.conn(ctx).Clauses(upsert()).Create(&row).Error; err != nil {
		return wrap("save listing", err)
	}
	return nil
}

func (r listingRepo) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	params = params.Normalized()
	q := r.u.conn(ctx).Model(&Listing{})
	if !params.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if params.OwnerID != "" {
		q = q.Where("owner_id = ?", params.OwnerID)
	}
	if params.Type != "" {
		q = q.Where("type = ?", string(params.Type))
	}
	if params.Location != "" {
		q = q.Where("LOWER(location) LIKE ?", likePattern(params.Location))
	}
	if params.MinPrice != nil {
		q = q.Where("price_amount >= ?", *params.MinPrice)
	}
	if params.MaxPrice != nil {
		q = q.Where("price_amount <= ?", *params.MaxPrice)
	}
	if params.Guests > 0 {
		q = q.Where("max_guests >= ?", params.Guests)
	}
	if params.Text != "" {
		p := likePattern(params.Text)
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location) LIKE ?", p, p, p)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return domainlistings.SearchResult{}, wrap("count listings", err)
	}
	var rows []Listing
	err := q.Order("created_at DESC").Order("id ASC").Limit(params.Limit).Offset(params.Offset).Find(&rows).Error
	if err != nil {
		return domainlistings.SearchResult{}, wrap("search listings", err)
	}
	result := domainlistings.SearchResult{Total: int(total), Items: make([]*domainlistings.Listing, 0, len(rows))}
	for _, row := range rows {
		l, err := row.toDomain()
		if err != nil {
			return domainlistings.SearchResult{}, err
		}
		result.Items = append(result.Items, l)
	}
	return result, nil
}

func likePattern(term string) string {
	return "%" + strings.ToLower(term) + "%"
}

func newListingRow(l *domainlistings.Listing) (Listing, error) {
	amenities := l.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	raw, err := json.Marshal(amenities)
	if err != nil {
		return Listing{}, wrap("encode amenities", err)
	}
	return Listing{
		ID:          string(l.ID),
		OwnerID:     l.OwnerID,
		Title:       l.Title,
		Description: l.Description,
		Type:        string(l.Type),
		PriceAmount: l.NightlyPrice.Amount,
		Currency:    l.NightlyPrice.Currency,
		Location:    l.Location,
		Address:     l.Address,
		MaxGuests:   l.MaxGuests,
		Bedrooms:    l.Bedrooms,
		Bathrooms:   l.Bathrooms,
		Amenities:   datatypes.JSON(raw),
		IsActive:    l.IsActive,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}, nil
}

func (row Listing) toDomain() (*domainlistings.Listing, error) {
	var amenities []string
	if len(row.Amenities) > 0 {
		if err := json.Unmarshal(row.Amenities, &amenities); err != nil {
			return nil, wrap("decode amenities", err)
		}
	}
	return &domainlistings.Listing{
		ID:           domainlistings.ListingID(row.ID),
		OwnerID:      row.OwnerID,
		Title:        row.Title,
		Description:  row.Description,
		Type:         domainlistings.ListingType(row.Type),
		NightlyPrice: money.Money{Amount: row.PriceAmount, Currency: row.Currency},
		Location:     row.Location,
		Address:      row.Address,
		MaxGuests:    row.MaxGuests,
		Bedrooms:     row.Bedrooms,
		Bathrooms:    row.Bathrooms,
		Amenities:    amenities,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}, nil
}

type imageRepo struct{ u *Unit }

func (r imageRepo) ListImages(ctx context.Context, listingID domainlistings.ListingID) ([]*domainlistings.Image, error) {
	var rows []ListingImage
	err := r.u.conn(ctx).Where("listing_id = ?", string(listingID)).Order("created_at ASC").Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, wrap("list images", err)
	}
	out := make([]*domainlistings.Image, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r imageRepo) ImageByID(ctx context.Context, id domainlistings.ImageID) (*domainlistings.Image, error) {
	var row ListingImage
	if err := r.u.conn(ctx).Where("id = ?", string(id)).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainlistings.ErrImageNotFound
		}
		return nil, wrap("image by id", err)
	}
	return row.toDomain(), nil
}

func (r imageRepo) SaveImage(ctx context.Context, image *domainlistings.Image) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	row := ListingImage{
		ID:        string(image.ID),
		ListingID: string(image.ListingID),
		URL:       image.URL,
		Caption:   image.Caption,
		IsPrimary: image.IsPrimary,
		CreatedAt: image.CreatedAt,
	}
	if err := r.u.conn(ctx).Clauses(upsert()).Create(&row).Error; err != nil {
		return wrap("save image", err)
	}
	return nil
}

func (r imageRepo) DeleteImage(ctx context.Context, id domainlistings.ImageID) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	res := r.u.conn(ctx).Where("id = ?", string(id)).Delete(&ListingImage{})
	if res.Error != nil {
		return wrap("delete image", res.Error)
	}
	if res.RowsAffected == 0 {
		return domainlistings.ErrImageNotFound
	}
	return nil
}

func (row ListingImage) toDomain() *domainlistings.Image {
	return &domainlistings.Image{
		ID:        domainlistings.ImageID(row.ID),
		ListingID: domainlistings.ListingID(row.ListingID),
		URL:       row.URL,
		Caption:   row.Caption,
		IsPrimary: row.IsPrimary,
		CreatedAt: row.CreatedAt.UTC(),
	}
}
