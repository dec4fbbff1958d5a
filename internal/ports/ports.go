package ports

import (
	"context"
	"time"

	"ContentEngine/internal/domain"
)

// DiscoverySource finds fresh stories for the configured topics.
type DiscoverySource interface {
	Search(ctx context.Context, topics []string) (domain.DiscoveryReport, error)
}

// DraftWriter turns a discovery report into the two content facets.
type DraftWriter interface {
	Write(ctx context.Context, report domain.DiscoveryReport) (domain.DraftBundle, error)
}

// CredentialProvider resolves a valid bearer credential for a platform.
// Failures are classified via *domain.CredentialError.
type CredentialProvider interface {
	Get(ctx context.Context, platform domain.Platform) (domain.Credential, error)
}

// Publisher performs exactly one publish attempt against its platform.
type Publisher interface {
	Platform() domain.Platform
	Publish(ctx context.Context, draft domain.DraftBundle, cred domain.Credential) (domain.PublishReceipt, error)
}

// RecordStore persists content records. CompareAndUpdate is the only write
// path after creation: it atomically reloads the record, verifies the
// expected status, applies mutate, and commits, failing with
// *domain.ConflictError when the status no longer matches.
type RecordStore interface {
	Create(ctx context.Context, record domain.ContentRecord) error
	GetByID(ctx context.Context, id string) (domain.ContentRecord, error)
	List(ctx context.Context, status domain.Status, limit int) ([]domain.ContentRecord, error)
	CompareAndUpdate(ctx context.Context, id string, expected domain.Status, mutate func(*domain.ContentRecord) error) (domain.ContentRecord, error)
}

// Notifier pushes best-effort review notifications; failures are logged,
// never propagated into pipeline outcomes.
type Notifier interface {
	NotifyPending(ctx context.Context, record domain.ContentRecord) error
	NotifyPublishOutcome(ctx context.Context, record domain.ContentRecord) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
