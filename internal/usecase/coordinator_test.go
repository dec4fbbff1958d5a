package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/infrastructure/storage"
	"ContentEngine/internal/platform"
)

func newCoordinator(t *testing.T, store *storage.MemoryStore, creds *fakeCredentials, pubs ...*fakePublisher) *Coordinator {
	t.Helper()

	registry := platform.NewRegistry()
	for _, p := range pubs {
		registry.Register(p)
	}
	if creds == nil {
		creds = &fakeCredentials{tokens: map[domain.Platform]string{
			domain.PlatformLinkedIn: "li-token",
			domain.PlatformMedium:   "md-token",
		}}
	}

	coord, err := NewCoordinator(CoordinatorDeps{
		Store:       store,
		Credentials: creds,
		Registry:    registry,
	})
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	return coord
}

func TestCoordinatorPublishAllSucceed(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	seeded := seedRecord(t, store, domain.StatusApproved)
	li := &fakePublisher{platform: domain.PlatformLinkedIn, receipt: domain.PublishReceipt{ExternalID: "li-1", URL: "https://linkedin/li-1"}}
	md := &fakePublisher{platform: domain.PlatformMedium, receipt: domain.PublishReceipt{ExternalID: "md-1", URL: "https://medium/md-1"}}
	coord := newCoordinator(t, store, nil, li, md)

	record, err := coord.Publish(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if record.Status != domain.StatusPublished {
		t.Fatalf("expected published, got %s", record.Status)
	}
	if len(record.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(record.Results))
	}
	for _, p := range []domain.Platform{domain.PlatformLinkedIn, domain.PlatformMedium} {
		res, ok := record.LatestResult(p)
		if !ok || res.Outcome != domain.OutcomeSuccess {
			t.Fatalf("expected %s success, got %+v", p, res)
		}
		if res.ExternalID == "" || res.AttemptedAt.IsZero() {
			t.Fatalf("result missing receipt data: %+v", res)
		}
	}
}

func TestCoordinatorPublishAllFail(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	seeded := seedRecord(t, store, domain.StatusApproved)
	li := &fakePublisher{platform: domain.PlatformLinkedIn, err: &domain.PublishError{Platform: domain.PlatformLinkedIn, Kind: domain.PublishErrorAuth, StatusCode: 401}}
	md := &fakePublisher{platform: domain.PlatformMedium, err: &domain.PublishError{Platform: domain.PlatformMedium, Kind: domain.PublishErrorRateLimit, StatusCode: 429}}
	coord := newCoordinator(t, store, nil, li, md)

	record, err := coord.Publish(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if record.Status != domain.StatusPublishFailed {
		t.Fatalf("expected publish_failed, got %s", record.Status)
	}

	res, _ := record.LatestResult(domain.PlatformLinkedIn)
	if res.ErrorKind != domain.PublishErrorAuth || res.Error == "" {
		t.Fatalf("expected classified auth failure, got %+v", res)
	}
	res, _ = record.LatestResult(domain.PlatformMedium)
	if res.ErrorKind != domain.PublishErrorRateLimit {
		t.Fatalf("expected classified rate_limited failure, got %+v", res)
	}
}

func TestCoordinatorPublishPartialFailure(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	seeded := seedRecord(t, store, domain.StatusApproved)
	li := &fakePublisher{platform: domain.PlatformLinkedIn, receipt: domain.PublishReceipt{ExternalID: "li-1"}}
	md := &fakePublisher{platform: domain.PlatformMedium}
	creds := &fakeCredentials{
		tokens: map[domain.Platform]string{domain.PlatformLinkedIn: "li-token"},
		errs: map[domain.Platform]error{
			domain.PlatformMedium: &domain.CredentialError{Platform: domain.PlatformMedium, Reason: domain.CredentialMissing},
		},
	}
	coord := newCoordinator(t, store, creds, li, md)

	record, err := coord.Publish(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if record.Status != domain.StatusPartiallyPublished {
		t.Fatalf("expected partially_published, got %s", record.Status)
	}
	if md.callCount() != 0 {
		t.Fatal("publisher must not run without a credential")
	}

	res, _ := record.LatestResult(domain.PlatformMedium)
	if res.Outcome != domain.OutcomeFailure || res.ErrorKind != domain.PublishErrorCredential {
		t.Fatalf("expected credential failure recorded, got %+v", res)
	}
}

func TestCoordinatorRetrySkipsSucceededPlatforms(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	seeded := seedRecord(t, store, domain.StatusApproved)
	li := &fakePublisher{platform: domain.PlatformLinkedIn, receipt: domain.PublishReceipt{ExternalID: "li-1"}}
	md := &fakePublisher{platform: domain.PlatformMedium, err: &domain.PublishError{Platform: domain.PlatformMedium, Kind: domain.PublishErrorAPI, StatusCode: 502}}
	coord := newCoordinator(t, store, nil, li, md)

	record, err := coord.Publish(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("first Publish: %v", err)
	}
	if record.Status != domain.StatusPartiallyPublished {
		t.Fatalf("expected partially_published, got %s", record.Status)
	}

	// Operator retry: the failed platform recovers.
	md.err = nil
	md.receipt = domain.PublishReceipt{ExternalID: "md-2"}

	record, err = coord.Publish(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("retry Publish: %v", err)
	}

	if record.Status != domain.StatusPublished {
		t.Fatalf("expected published after retry, got %s", record.Status)
	}
	if li.callCount() != 1 {
		t.Fatalf("succeeded platform must not be re-attempted, got %d calls", li.callCount())
	}
	if md.callCount() != 2 {
		t.Fatalf("failed platform must be re-attempted once, got %d calls", md.callCount())
	}

	res, _ := record.LatestResult(domain.PlatformLinkedIn)
	if res.ExternalID != "li-1" {
		t.Fatalf("original external id must survive the retry, got %q", res.ExternalID)
	}
}

func TestCoordinatorPublishInvalidEntryStates(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	li := &fakePublisher{platform: domain.PlatformLinkedIn}
	md := &fakePublisher{platform: domain.PlatformMedium}

	pending := seedRecord(t, store, domain.StatusPendingApproval)
	inFlight := seedRecord(t, store, domain.StatusPublishing)
	coord := newCoordinator(t, store, nil, li, md)

	_, err := coord.Publish(context.Background(), pending.ID)
	var invalid *domain.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError for pending record, got %v", err)
	}

	_, err = coord.Publish(context.Background(), inFlight.ID)
	var inProgress *domain.AlreadyInProgressError
	if !errors.As(err, &inProgress) {
		t.Fatalf("expected AlreadyInProgressError for publishing record, got %v", err)
	}

	_, err = coord.Publish(context.Background(), "missing")
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestCoordinatorConcurrentPublish(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	seeded := seedRecord(t, store, domain.StatusApproved)
	li := &fakePublisher{
		platform: domain.PlatformLinkedIn,
		receipt:  domain.PublishReceipt{ExternalID: "li-1"},
		block:    make(chan struct{}),
		started:  make(chan struct{}, 1),
	}
	md := &fakePublisher{platform: domain.PlatformMedium, receipt: domain.PublishReceipt{ExternalID: "md-1"}}
	coord := newCoordinator(t, store, nil, li, md)

	done := make(chan error, 1)
	go func() {
		_, err := coord.Publish(context.Background(), seeded.ID)
		done <- err
	}()

	// Wait until the first caller holds the record in publishing.
	select {
	case <-li.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first publish never started")
	}

	_, err := coord.Publish(context.Background(), seeded.ID)
	var inProgress *domain.AlreadyInProgressError
	if !errors.As(err, &inProgress) {
		t.Fatalf("expected AlreadyInProgressError for the second caller, got %v", err)
	}

	close(li.block)
	if err := <-done; err != nil {
		t.Fatalf("first publish failed: %v", err)
	}

	record, err := store.GetByID(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if record.Status != domain.StatusPublished {
		t.Fatalf("expected published, got %s", record.Status)
	}
	if li.callCount() != 1 || md.callCount() != 1 {
		t.Fatalf("each platform must be attempted exactly once, got li=%d md=%d", li.callCount(), md.callCount())
	}
}

func TestCoordinatorRequiresFullRegistryCoverage(t *testing.T) {
	t.Parallel()

	registry := platform.NewRegistry()
	registry.Register(&fakePublisher{platform: domain.PlatformLinkedIn})

	_, err := NewCoordinator(CoordinatorDeps{
		Store:       storage.NewMemoryStore(),
		Credentials: &fakeCredentials{},
		Registry:    registry,
	})
	if err == nil {
		t.Fatal("expected error when a target platform has no publisher")
	}
}
