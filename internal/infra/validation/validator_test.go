package validation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"travelstay/internal/domain/shared/fault"
)

type sampleCommand struct {
	ListingID string `validate:"required"`
	Guests    int    `validate:"min=1"`
	Role      string `validate:"omitempty,oneof=guest host"`
}

func TestValidateReportsEveryField(t *testing.T) {
	t.Parallel()
	v := New()
	ctx := context.Background()

	if err := v.Validate(ctx, sampleCommand{ListingID: "l-1", Guests: 2, Role: "host"}); err != nil {
		t.Fatalf("valid command rejected: %v", err)
	}
	err := v.Validate(ctx, &sampleCommand{Role: "admin"})
	if !errors.Is(err, fault.ErrValidation) {
		t.Fatalf("expected validation fault, got %v", err)
	}
	for _, want := range []string{"listing_id is required", "guests must be at least 1", "role must be one of guest host"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("missing %q in %q", want, err.Error())
		}
	}
	if err := v.Validate(ctx, "not a struct"); err != nil {
		t.Fatalf("non-struct messages pass through, got %v", err)
	}
}
