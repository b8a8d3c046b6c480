package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMatchesKindAndSentinel(t *testing.T) {
	t.Parallel()
	sentinel := Conflict("review: already exists")
	wrapped := fmt.Errorf("create review: %w", sentinel)

	if !errors.Is(wrapped, sentinel) {
		t.Fatalf("expected wrapped error to match sentinel")
	}
	if !errors.Is(wrapped, ErrConflict) {
		t.Fatalf("expected wrapped error to match conflict kind")
	}
	if errors.Is(wrapped, ErrValidation) {
		t.Fatalf("conflict must not match validation kind")
	}
	if got := wrapped.Error(); got != "create review: review: already exists" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		err  error
		want error
	}{
		{name: "validation", err: Validation("bad"), want: ErrValidation},
		{name: "permission", err: Permission("no"), want: ErrPermission},
		{name: "not found", err: NotFound("gone"), want: ErrNotFound},
		{name: "state", err: State("late"), want: ErrState},
		{name: "wrapped", err: Wrap(ErrConflict, errors.New("dup")), want: ErrConflict},
		{name: "plain", err: errors.New("boom"), want: nil},
		{name: "nil", err: nil, want: nil},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("KindOf() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	t.Parallel()
	if Wrap(ErrState, nil) != nil {
		t.Fatalf("expected nil")
	}
}
