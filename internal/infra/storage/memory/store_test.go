package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	appoutbox "travelstay/internal/app/outbox"
	"travelstay/internal/app/uow"
	domainlistings "travelstay/internal/domain/listings"
	domainreviews "travelstay/internal/domain/reviews"
	"travelstay/internal/domain/shared/money"
)

func newListing(t *testing.T, id string) *domainlistings.Listing {
	t.Helper()
	l, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:           domainlistings.ListingID(id),
		OwnerID:      "owner",
		Title:        "Lakeside cabin",
		Location:     "Bishoftu",
		MaxGuests:    4,
		NightlyPrice: money.Must(10000, "ETB"),
	})
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	return l
}

func TestRollbackDiscardsWrites(t *testing.T) {
	t.Parallel()
	store := NewStore()
	ctx := context.Background()

	unit, err := store.Begin(ctx, uow.TxOptions{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := unit.Listings().Save(ctx, newListing(t, "l-1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := unit.Outbox().Add(ctx, appoutbox.EventRecord{ID: "e-1", Name: "booking.created", Payload: []byte(`{}`)}); err != nil {
		t.Fatalf("outbox add: %v", err)
	}
	if err := unit.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	reader, _ := store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if _, err := reader.Listings().ByID(ctx, "l-1"); !errors.Is(err, domainlistings.ErrNotFound) {
		t.Fatalf("expected not found after rollback, got %v", err)
	}
	if store.Outbox().Pending() != 0 {
		t.Fatalf("rolled back records must not reach the queue")
	}
}

func TestCommitPublishesStateAndOutbox(t *testing.T) {
	t.Parallel()
	store := NewStore()
	ctx := context.Background()

	unit, _ := store.Begin(ctx, uow.TxOptions{})
	if err := unit.Listings().Save(ctx, newListing(t, "l-1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = unit.Outbox().Add(ctx, appoutbox.EventRecord{ID: "e-1", Name: "booking.created", Payload: []byte(`{}`)})
	if err := unit.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := unit.Commit(ctx); !errors.Is(err, ErrUnitFinished) {
		t.Fatalf("expected finished unit error, got %v", err)
	}

	reader, _ := store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	got, err := reader.Listings().ByID(ctx, "l-1")
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	got.Title = "mutated"
	again, _ := reader.Listings().ByID(ctx, "l-1")
	if again.Title != "Lakeside cabin" {
		t.Fatalf("stored entity must not alias returned copies")
	}
	if err := reader.Listings().Save(ctx, got); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected read-only error, got %v", err)
	}

	env, err := store.Outbox().Claim(ctx, "w", time.Now().UTC())
	if err != nil || env == nil || env.ID != "e-1" {
		t.Fatalf("expected claimed e-1, got %+v err=%v", env, err)
	}
	if next, _ := store.Outbox().Claim(ctx, "w", time.Now().UTC()); next != nil {
		t.Fatalf("claimed entry must not be handed out twice")
	}
	if err := store.Outbox().MarkSent(ctx, env.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if store.Outbox().Pending() != 0 {
		t.Fatalf("sent entry should be dropped")
	}
}

func TestFailedEntryIsRetriedAfterBackoff(t *testing.T) {
	t.Parallel()
	q := NewOutboxQueue()
	q.push([]appoutbox.EventRecord{{ID: "e-1", Name: "payment.status_changed", Payload: []byte(`{}`)}})
	ctx := context.Background()
	now := time.Now().UTC()

	env, _ := q.Claim(ctx, "w", now)
	_ = q.MarkFailed(ctx, env.ID, now.Add(time.Minute), "boom")
	if again, _ := q.Claim(ctx, "w", now); again != nil {
		t.Fatalf("entry must wait for its next attempt")
	}
	again, _ := q.Claim(ctx, "w", now.Add(2*time.Minute))
	if again == nil || again.Attempts != 1 {
		t.Fatalf("expected retry with one attempt, got %+v", again)
	}
}

func TestWriteUnitsAreSerialized(t *testing.T) {
	t.Parallel()
	store := NewStore()
	ctx := context.Background()

	first, _ := store.Begin(ctx, uow.TxOptions{})
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		second, err := store.Begin(ctx, uow.TxOptions{})
		if err == nil {
			_ = second.Rollback(ctx)
		}
		close(done)
	}()
	<-started
	select {
	case <-done:
		t.Fatalf("second writer must wait for the first")
	case <-time.After(50 * time.Millisecond):
	}
	_ = first.Commit(ctx)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("second writer never started")
	}
}

func TestReviewUniquenessAndSummary(t *testing.T) {
	t.Parallel()
	store := NewStore()
	ctx := context.Background()
	unit, _ := store.Begin(ctx, uow.TxOptions{})
	defer unit.Rollback(ctx)

	reviews := unit.Reviews()
	if err := reviews.Create(ctx, &domainreviews.Review{ID: "r-1", ListingID: "l-1", ReviewerID: "g-1", Rating: 5}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := reviews.Create(ctx, &domainreviews.Review{ID: "r-2", ListingID: "l-1", ReviewerID: "g-1", Rating: 1}); !errors.Is(err, domainreviews.ErrAlreadyReviewed) {
		t.Fatalf("expected already reviewed, got %v", err)
	}
	_ = reviews.Create(ctx, &domainreviews.Review{ID: "r-3", ListingID: "l-1", ReviewerID: "g-2", Rating: 4})
	summary, err := reviews.Summary(ctx, "l-1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Count != 2 || summary.Average != 4.5 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}
