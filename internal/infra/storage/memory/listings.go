package memory

import (
	"context"
	"sort"

	domainlistings "travelstay/internal/domain/listings"
)

type listingRepo struct{ u *Unit }

func (r listingRepo) ByID(_ context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	l, ok := r.u.st.listings[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return cloneListing(l), nil
}

// ByIDForUpdate needs no extra locking: the unit already holds the store's
// write mutex.
func (r listingRepo) ByIDForUpdate(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	if err := r.u.writable(); err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

func (r listingRepo) Save(_ context.Context, listing *domainlistings.Listing) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	r.u.st.listings[listing.ID] = cloneListing(listing)
	return nil
}

func (r listingRepo) Search(_ context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	params = params.Normalized()
	matched := make([]*domainlistings.Listing, 0)
	for _, l := range r.u.st.listings {
		if params.Matches(l) {
			matched = append(matched, l)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	result := domainlistings.SearchResult{Total: len(matched), Items: []*domainlistings.Listing{}}
	if params.Offset >= len(matched) {
		return result, nil
	}
	end := params.Offset + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	for _, l := range matched[params.Offset:end] {
		result.Items = append(result.Items, cloneListing(l))
	}
	return result, nil
}

type imageRepo struct{ u *Unit }

func (r imageRepo) ListImages(_ context.Context, listingID domainlistings.ListingID) ([]*domainlistings.Image, error) {
	out := make([]*domainlistings.Image, 0)
	for _, img := range r.u.st.images {
		if img.ListingID == listingID {
			c := *img
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r imageRepo) ImageByID(_ context.Context, id domainlistings.ImageID) (*domainlistings.Image, error) {
	img, ok := r.u.st.images[id]
	if !ok {
		return nil, domainlistings.ErrImageNotFound
	}
	c := *img
	return &c, nil
}

func (r imageRepo) SaveImage(_ context.Context, image *domainlistings.Image) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	c := *image
	r.u.st.images[image.ID] = &c
	return nil
}

func (r imageRepo) DeleteImage(_ context.Context, id domainlistings.ImageID) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if _, ok := r.u.st.images[id]; !ok {
		return domainlistings.ErrImageNotFound
	}
	delete(r.u.st.images, id)
	return nil
}

func cloneListing(l *domainlistings.Listing) *domainlistings.Listing {
	c := *l
	c.Amenities = append([]string(nil), l.Amenities...)
	return &c
}
