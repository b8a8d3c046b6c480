package listings

import (
	"errors"
	"testing"
	"time"

	"travelstay/internal/domain/shared/fault"
	"travelstay/internal/domain/shared/money"
)

func newTestListing(t *testing.T) *Listing {
	t.Helper()
	l, err := NewListing(CreateParams{
		ID:           "lst-1",
		OwnerID:      "host-1",
		Title:        " Sea view ",
		Description:  "Two rooms near the beach",
		Type:         TypeApartment,
		NightlyPrice: money.Must(10000, "USD"),
		Location:     "Addis Ababa",
		MaxGuests:    3,
		Amenities:    []string{"wifi", "WiFi", " ", "pool"},
		Now:          time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("new listing: %v", err)
	}
	return l
}

func TestNewListingNormalizes(t *testing.T) {
	t.Parallel()
	l := newTestListing(t)
	if l.Title != "Sea view" {
		t.Fatalf("expected trimmed title, got %q", l.Title)
	}
	if !l.IsActive {
		t.Fatalf("new listing must be active")
	}
	if len(l.Amenities) != 2 {
		t.Fatalf("expected deduplicated amenities, got %v", l.Amenities)
	}
}

func TestNewListingValidation(t *testing.T) {
	t.Parallel()
	base := CreateParams{ID: "x", OwnerID: "o", Title: "t", Location: "l", MaxGuests: 1, NightlyPrice: money.Must(1, "USD")}
	cases := []struct {
		name   string
		mutate func(*CreateParams)
		want   error
	}{
		{"no title", func(p *CreateParams) { p.Title = "" }, ErrTitleRequired},
		{"no guests", func(p *CreateParams) { p.MaxGuests = 0 }, ErrGuestsLimit},
		{"free", func(p *CreateParams) { p.NightlyPrice = money.Must(0, "USD") }, ErrNightlyPrice},
		{"no owner", func(p *CreateParams) { p.OwnerID = "" }, ErrOwnerRequired},
		{"bad type", func(p *CreateParams) { p.Type = "castle" }, ErrInvalidType},
	}
	for _, tc := range cases {
		params := base
		tc.mutate(&params)
		_, err := NewListing(params)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: error = %v, want %v", tc.name, err, tc.want)
		}
		if !errors.Is(err, fault.ErrValidation) {
			t.Fatalf("%s: expected validation kind", tc.name)
		}
	}
}

func TestUpdateRequiresOwner(t *testing.T) {
	t.Parallel()
	l := newTestListing(t)
	title := "Hijacked"
	err := l.Update("someone-else", UpdateParams{Title: &title})
	if !errors.Is(err, ErrNotOwner) || !errors.Is(err, fault.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if l.Title != "Sea view" {
		t.Fatalf("listing mutated on rejected update")
	}
}

func TestUpdateKeepsListingOnValidationFailure(t *testing.T) {
	t.Parallel()
	l := newTestListing(t)
	guests := 0
	if err := l.Update("host-1", UpdateParams{MaxGuests: &guests}); !errors.Is(err, ErrGuestsLimit) {
		t.Fatalf("expected guests error, got %v", err)
	}
	if l.MaxGuests != 3 {
		t.Fatalf("listing mutated on invalid update")
	}
	guests = 5
	if err := l.Update("host-1", UpdateParams{MaxGuests: &guests}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if l.MaxGuests != 5 {
		t.Fatalf("expected 5 guests, got %d", l.MaxGuests)
	}
}

func TestDeactivate(t *testing.T) {
	t.Parallel()
	l := newTestListing(t)
	if err := l.Deactivate("guest", time.Now()); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected owner check, got %v", err)
	}
	if err := l.Deactivate("host-1", time.Now()); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if l.IsActive {
		t.Fatalf("expected inactive listing")
	}
}

func TestNewImageOwnershipAndPrimary(t *testing.T) {
	t.Parallel()
	l := newTestListing(t)
	if _, err := l.NewImage("intruder", "img-1", "http://cdn/x.jpg", "", 0, time.Now()); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ownership failure, got %v", err)
	}
	first, err := l.NewImage("host-1", "img-1", "http://cdn/x.jpg", " front ", 0, time.Now())
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	if !first.IsPrimary || first.Caption != "front" {
		t.Fatalf("unexpected first image %+v", first)
	}
	second, err := l.NewImage("host-1", "img-2", "http://cdn/y.jpg", "", 1, time.Now())
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	if second.IsPrimary {
		t.Fatalf("second image must not be primary")
	}
}

func TestSearchParamsMatches(t *testing.T) {
	t.Parallel()
	l := newTestListing(t)
	low, high := int64(5000), int64(20000)
	tooLow := int64(5000)
	cases := []struct {
		name   string
		params SearchParams
		want   bool
	}{
		{"empty", SearchParams{}, true},
		{"type", SearchParams{Type: TypeVilla}, false},
		{"location", SearchParams{Location: "addis"}, true},
		{"price window", SearchParams{MinPrice: &low, MaxPrice: &high}, true},
		{"price above max", SearchParams{MaxPrice: &tooLow}, false},
		{"guests", SearchParams{Guests: 4}, false},
		{"text", SearchParams{Text: "BEACH"}, true},
		{"owner", SearchParams{OwnerID: "host-2"}, false},
	}
	for _, tc := range cases {
		if got := tc.params.Normalized().Matches(l); got != tc.want {
			t.Fatalf("%s: Matches = %v, want %v", tc.name, got, tc.want)
		}
	}
	l.IsActive = false
	if (SearchParams{}).Matches(l) {
		t.Fatalf("inactive listing must be hidden by default")
	}
	if !(SearchParams{IncludeInactive: true}).Matches(l) {
		t.Fatalf("inactive listing must match when requested")
	}
}
