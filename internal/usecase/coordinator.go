package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/platform"
	"ContentEngine/internal/ports"
)

// CoordinatorDeps wires the publish-side adapters.
type CoordinatorDeps struct {
	Store       ports.RecordStore
	Credentials ports.CredentialProvider
	Registry    *platform.Registry
	Platforms   []domain.Platform
	Notifier    ports.Notifier
	Timeouts    Timeouts
	Logger      *slog.Logger
	Now         func() time.Time
}

// Coordinator drives an approved record through per-platform publish
// attempts, persists each outcome while the record sits in publishing,
// and derives the final status from the latest outcome per platform.
type Coordinator struct {
	store     ports.RecordStore
	creds     ports.CredentialProvider
	registry  *platform.Registry
	platforms []domain.Platform
	notifier  ports.Notifier
	timeouts  Timeouts
	logger    *slog.Logger
	now       func() time.Time
}

// NewCoordinator validates that the registry covers the configured
// platform set, so an unknown platform surfaces at wiring time.
func NewCoordinator(deps CoordinatorDeps) (*Coordinator, error) {
	if deps.Store == nil {
		return nil, errors.New("record store is required")
	}
	if deps.Credentials == nil {
		return nil, errors.New("credential provider is required")
	}
	if deps.Registry == nil {
		return nil, errors.New("publisher registry is required")
	}
	if len(deps.Platforms) == 0 {
		deps.Platforms = domain.TargetPlatforms()
	}
	if err := deps.Registry.Covers(deps.Platforms); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Coordinator{
		store:     deps.Store,
		creds:     deps.Credentials,
		registry:  deps.Registry,
		platforms: deps.Platforms,
		notifier:  deps.Notifier,
		timeouts:  deps.Timeouts.orDefault(),
		logger:    deps.Logger,
		now:       deps.Now,
	}, nil
}

// Publish runs one approval cycle's publish attempts for the record. It
// is idempotent across retries: platforms whose latest recorded outcome
// is success are skipped, so re-submitting a partially_published or
// publish_failed record only re-attempts the platforms that failed.
func (c *Coordinator) Publish(ctx context.Context, id string) (domain.ContentRecord, error) {
	record, err := c.store.GetByID(ctx, id)
	if err != nil {
		return domain.ContentRecord{}, err
	}

	if record.Status == domain.StatusPublishing {
		return domain.ContentRecord{}, &domain.AlreadyInProgressError{ID: id}
	}
	if !record.Status.CanTransition(domain.StatusPublishing) {
		return domain.ContentRecord{}, &domain.InvalidTransitionError{ID: id, From: record.Status, To: domain.StatusPublishing}
	}

	// Claim the record. A concurrent caller either observes publishing
	// above or loses this compare-and-swap.
	entry := record.Status
	record, err = c.store.CompareAndUpdate(ctx, id, entry, func(r *domain.ContentRecord) error {
		r.Status = domain.StatusPublishing
		return nil
	})
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) && conflict.Actual == domain.StatusPublishing {
			return domain.ContentRecord{}, &domain.AlreadyInProgressError{ID: id}
		}
		return domain.ContentRecord{}, err
	}
	c.logger.Info("publishing", "id", id, "from", entry)

	for _, p := range c.platforms {
		if last, ok := record.LatestResult(p); ok && last.Outcome == domain.OutcomeSuccess {
			c.logger.Info("platform already published, skipping", "id", id, "platform", p, "external_id", last.ExternalID)
			continue
		}

		result := c.attempt(ctx, record, p)

		// Persist the outcome immediately so partial progress survives a
		// crash; the record stays in publishing until every platform has
		// been attempted.
		record, err = c.store.CompareAndUpdate(ctx, id, domain.StatusPublishing, func(r *domain.ContentRecord) error {
			r.AppendResult(result)
			return nil
		})
		if err != nil {
			return domain.ContentRecord{}, fmt.Errorf("persist %s outcome: %w", p, err)
		}
	}

	final := c.deriveStatus(&record)
	record, err = c.store.CompareAndUpdate(ctx, id, domain.StatusPublishing, func(r *domain.ContentRecord) error {
		r.Status = final
		return nil
	})
	if err != nil {
		return domain.ContentRecord{}, fmt.Errorf("finalize status: %w", err)
	}
	c.logger.Info("publish finished", "id", id, "status", final)

	if final != domain.StatusPublished {
		c.notifyOutcome(ctx, record)
	}

	return record, nil
}

// attempt runs credential-fetch-then-publish for one platform. Failures
// never propagate as errors; they become that platform's recorded outcome
// so one platform can never block another.
func (c *Coordinator) attempt(ctx context.Context, record domain.ContentRecord, p domain.Platform) domain.PlatformResult {
	cctx, cancel := context.WithTimeout(ctx, c.timeouts.Credential)
	cred, err := c.creds.Get(cctx, p)
	cancel()
	if err != nil {
		c.logger.Warn("credential unavailable", "id", record.ID, "platform", p, "error", err)
		return domain.PlatformResult{
			Platform:    p,
			AttemptedAt: c.now(),
			Outcome:     domain.OutcomeFailure,
			ErrorKind:   domain.PublishErrorCredential,
			Error:       err.Error(),
		}
	}

	pub, err := c.registry.Resolve(p)
	if err != nil {
		// Covers() at construction makes this unreachable.
		panic(err)
	}

	pctx, cancel := context.WithTimeout(ctx, c.timeouts.Publish)
	receipt, err := pub.Publish(pctx, record.Draft, cred)
	cancel()
	if err != nil {
		c.logger.Warn("publish attempt failed", "id", record.ID, "platform", p, "error", err)
		return domain.PlatformResult{
			Platform:    p,
			AttemptedAt: c.now(),
			Outcome:     domain.OutcomeFailure,
			ErrorKind:   classifyPublishErr(err),
			Error:       err.Error(),
		}
	}

	return domain.PlatformResult{
		Platform:    p,
		AttemptedAt: c.now(),
		Outcome:     domain.OutcomeSuccess,
		ExternalID:  receipt.ExternalID,
		PostURL:     receipt.URL,
	}
}

// deriveStatus folds the latest outcome per configured platform into the
// terminal status for this cycle.
func (c *Coordinator) deriveStatus(record *domain.ContentRecord) domain.Status {
	succeeded := 0
	for _, p := range c.platforms {
		if last, ok := record.LatestResult(p); ok && last.Outcome == domain.OutcomeSuccess {
			succeeded++
		}
	}

	switch succeeded {
	case len(c.platforms):
		return domain.StatusPublished
	case 0:
		return domain.StatusPublishFailed
	default:
		return domain.StatusPartiallyPublished
	}
}

func (c *Coordinator) notifyOutcome(ctx context.Context, record domain.ContentRecord) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.NotifyPublishOutcome(ctx, record); err != nil {
		c.logger.Warn("outcome notification failed", "id", record.ID, "error", err)
	}
}

func classifyPublishErr(err error) domain.PublishErrorKind {
	var pubErr *domain.PublishError
	if errors.As(err, &pubErr) {
		return pubErr.Kind
	}
	return domain.PublishErrorNetwork
}
