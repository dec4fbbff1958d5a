package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

// OrchestratorDeps wires the driven adapters into the drafting pipeline.
type OrchestratorDeps struct {
	Discovery ports.DiscoverySource
	Writer    ports.DraftWriter
	Store     ports.RecordStore
	Notifier  ports.Notifier
	Topics    []string
	Timeouts  Timeouts
	Logger    *slog.Logger
	Now       func() time.Time
	NewID     func() string
}

// Orchestrator drives a content record from discovery through drafting to
// pending approval. One record per invocation; no partial records on
// failure, since creation is deferred until both capabilities succeed.
type Orchestrator struct {
	discovery ports.DiscoverySource
	writer    ports.DraftWriter
	store     ports.RecordStore
	notifier  ports.Notifier
	topics    []string
	timeouts  Timeouts
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewOrchestrator constructs the pipeline component.
func NewOrchestrator(deps OrchestratorDeps) (*Orchestrator, error) {
	if deps.Discovery == nil {
		return nil, errors.New("discovery source is required")
	}
	if deps.Writer == nil {
		return nil, errors.New("draft writer is required")
	}
	if deps.Store == nil {
		return nil, errors.New("record store is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}

	return &Orchestrator{
		discovery: deps.Discovery,
		writer:    deps.Writer,
		store:     deps.Store,
		notifier:  deps.Notifier,
		topics:    deps.Topics,
		timeouts:  deps.Timeouts.orDefault(),
		logger:    deps.Logger,
		now:       deps.Now,
		newID:     deps.NewID,
	}, nil
}

// Run executes one discovery+drafting cycle and leaves a new record in
// pending_approval. A discovery run with zero items still yields a record
// carrying an empty short draft and a note, so reviewers can observe
// scheduler health.
func (o *Orchestrator) Run(ctx context.Context) (domain.ContentRecord, error) {
	report, err := o.search(ctx)
	if err != nil {
		return domain.ContentRecord{}, &domain.DiscoveryError{Err: err}
	}
	o.logger.Info("discovery finished", "items", len(report.Items))

	var bundle domain.DraftBundle
	if len(report.Items) == 0 {
		report.Note = "discovery returned no items"
		bundle = domain.DraftBundle{Note: "no stories discovered for this run; nothing to draft"}
	} else {
		bundle, err = o.write(ctx, report)
		if err != nil {
			return domain.ContentRecord{}, &domain.DraftingError{Err: err}
		}
		if bundle.Empty() {
			return domain.ContentRecord{}, &domain.DraftingError{Err: errors.New("writer produced an empty draft")}
		}
	}

	record := domain.ContentRecord{
		ID:        o.newID(),
		CreatedAt: o.now(),
		Discovery: report,
		Draft:     bundle,
		Status:    domain.StatusDrafted,
	}
	record.Status = domain.StatusPendingApproval

	if err := o.store.Create(ctx, record); err != nil {
		return domain.ContentRecord{}, fmt.Errorf("create record: %w", err)
	}
	o.logger.Info("record pending approval", "id", record.ID)

	o.notifyPending(ctx, record)

	return record, nil
}

// RunFromReport skips discovery and drafts from a prepared report, used by
// the manual import surface. The rest of the lifecycle is identical.
func (o *Orchestrator) RunFromReport(ctx context.Context, report domain.DiscoveryReport) (domain.ContentRecord, error) {
	if len(report.Items) == 0 {
		return domain.ContentRecord{}, &domain.DiscoveryError{Err: errors.New("imported report has no items")}
	}

	bundle, err := o.write(ctx, report)
	if err != nil {
		return domain.ContentRecord{}, &domain.DraftingError{Err: err}
	}
	if bundle.Empty() {
		return domain.ContentRecord{}, &domain.DraftingError{Err: errors.New("writer produced an empty draft")}
	}

	record := domain.ContentRecord{
		ID:        o.newID(),
		CreatedAt: o.now(),
		Discovery: report,
		Draft:     bundle,
		Status:    domain.StatusPendingApproval,
	}

	if err := o.store.Create(ctx, record); err != nil {
		return domain.ContentRecord{}, fmt.Errorf("create record: %w", err)
	}
	o.logger.Info("imported record pending approval", "id", record.ID)

	o.notifyPending(ctx, record)

	return record, nil
}

func (o *Orchestrator) search(ctx context.Context) (domain.DiscoveryReport, error) {
	sctx, cancel := context.WithTimeout(ctx, o.timeouts.Discovery)
	defer cancel()
	return o.discovery.Search(sctx, o.topics)
}

func (o *Orchestrator) write(ctx context.Context, report domain.DiscoveryReport) (domain.DraftBundle, error) {
	wctx, cancel := context.WithTimeout(ctx, o.timeouts.Drafting)
	defer cancel()
	return o.writer.Write(wctx, report)
}

func (o *Orchestrator) notifyPending(ctx context.Context, record domain.ContentRecord) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.NotifyPending(ctx, record); err != nil {
		o.logger.Warn("pending notification failed", "id", record.ID, "error", err)
	}
}
