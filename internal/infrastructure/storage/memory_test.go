package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"ContentEngine/internal/domain"
)

func TestMemoryStoreGetByIDNotFound(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	if _, err := store.GetByID(context.Background(), "nope"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestMemoryStoreCompareAndUpdate(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Create(ctx, domain.ContentRecord{ID: "r1", Status: domain.StatusPendingApproval}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := store.CompareAndUpdate(ctx, "r1", domain.StatusPendingApproval, func(r *domain.ContentRecord) error {
		r.Status = domain.StatusApproved
		return nil
	})
	if err != nil {
		t.Fatalf("CompareAndUpdate: %v", err)
	}
	if updated.Status != domain.StatusApproved {
		t.Fatalf("expected approved, got %s", updated.Status)
	}

	_, err = store.CompareAndUpdate(ctx, "r1", domain.StatusPendingApproval, func(r *domain.ContentRecord) error {
		r.Status = domain.StatusRejected
		return nil
	})
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Expected != domain.StatusPendingApproval || conflict.Actual != domain.StatusApproved {
		t.Fatalf("unexpected conflict detail: %+v", conflict)
	}

	stored, _ := store.GetByID(ctx, "r1")
	if stored.Status != domain.StatusApproved {
		t.Fatalf("losing update must not change the record, got %s", stored.Status)
	}
}

func TestMemoryStoreMutateErrorDiscardsChanges(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.Create(ctx, domain.ContentRecord{ID: "r1", Status: domain.StatusPublishing})

	boom := errors.New("boom")
	_, err := store.CompareAndUpdate(ctx, "r1", domain.StatusPublishing, func(r *domain.ContentRecord) error {
		r.Status = domain.StatusPublished
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutate error, got %v", err)
	}

	stored, _ := store.GetByID(ctx, "r1")
	if stored.Status != domain.StatusPublishing {
		t.Fatalf("failed mutate must not persist, got %s", stored.Status)
	}
}

func TestMemoryStoreListFiltersAndOrders(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, time.August, 1, 7, 0, 0, 0, time.UTC)

	_ = store.Create(ctx, domain.ContentRecord{ID: "old", CreatedAt: base, Status: domain.StatusPendingApproval})
	_ = store.Create(ctx, domain.ContentRecord{ID: "new", CreatedAt: base.Add(24 * time.Hour), Status: domain.StatusPendingApproval})
	_ = store.Create(ctx, domain.ContentRecord{ID: "done", CreatedAt: base.Add(48 * time.Hour), Status: domain.StatusPublished})

	pending, err := store.List(ctx, domain.StatusPendingApproval, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "new" || pending[1].ID != "old" {
		t.Fatalf("expected [new old], got %+v", pending)
	}

	all, _ := store.List(ctx, "", 2)
	if len(all) != 2 || all[0].ID != "done" {
		t.Fatalf("expected limit to keep the 2 newest, got %+v", all)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.Create(ctx, domain.ContentRecord{
		ID:     "r1",
		Status: domain.StatusPublishing,
		Results: []domain.PlatformResult{
			{Platform: domain.PlatformLinkedIn, Outcome: domain.OutcomeSuccess, ExternalID: "li-1"},
		},
	})

	got, _ := store.GetByID(ctx, "r1")
	got.Results[0].ExternalID = "tampered"
	got.Status = domain.StatusPublished

	stored, _ := store.GetByID(ctx, "r1")
	if stored.Results[0].ExternalID != "li-1" || stored.Status != domain.StatusPublishing {
		t.Fatal("mutating a returned record must not affect the store")
	}
}
