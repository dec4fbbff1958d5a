package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/ports"
)

// defaultListLimit caps the pending-review listing.
const defaultListLimit = 50

// Gateway is the operation surface the review workflow calls. Every
// transition goes through the store's compare-and-update, so racing
// callers observe the already-updated status instead of clobbering it.
type Gateway struct {
	store  ports.RecordStore
	logger *slog.Logger
	now    func() time.Time
}

// NewGateway constructs the approval surface.
func NewGateway(store ports.RecordStore, logger *slog.Logger) (*Gateway, error) {
	if store == nil {
		return nil, errors.New("record store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// ListPending returns records awaiting review, newest first.
func (g *Gateway) ListPending(ctx context.Context) ([]domain.ContentRecord, error) {
	return g.store.List(ctx, domain.StatusPendingApproval, defaultListLimit)
}

// Approve moves a pending record to approved, recording who approved it
// and when. A supplied edited draft replaces the stored draft wholesale
// before the transition.
func (g *Gateway) Approve(ctx context.Context, id, editor string, edits *domain.DraftBundle) (domain.ContentRecord, error) {
	if editor == "" {
		return domain.ContentRecord{}, errors.New("editor identity is required")
	}
	if edits != nil && edits.Empty() {
		return domain.ContentRecord{}, &domain.DraftingError{Err: errors.New("edited draft is empty")}
	}

	updated, err := g.store.CompareAndUpdate(ctx, id, domain.StatusPendingApproval, func(r *domain.ContentRecord) error {
		if edits != nil {
			r.Draft = *edits
		}
		r.Status = domain.StatusApproved
		r.ApprovedBy = editor
		r.ApprovedAt = g.now()
		return nil
	})
	if err != nil {
		return domain.ContentRecord{}, g.mapConflict(err, id, domain.StatusApproved)
	}

	g.logger.Info("record approved", "id", id, "editor", editor, "edited", edits != nil)
	return updated, nil
}

// Reject moves a pending record to rejected. Terminal: a corrected version
// must be produced as a new record by re-running the pipeline.
func (g *Gateway) Reject(ctx context.Context, id, editor, reason string) (domain.ContentRecord, error) {
	if editor == "" {
		return domain.ContentRecord{}, errors.New("editor identity is required")
	}

	updated, err := g.store.CompareAndUpdate(ctx, id, domain.StatusPendingApproval, func(r *domain.ContentRecord) error {
		r.Status = domain.StatusRejected
		r.RejectedBy = editor
		r.RejectReason = reason
		return nil
	})
	if err != nil {
		return domain.ContentRecord{}, g.mapConflict(err, id, domain.StatusRejected)
	}

	g.logger.Info("record rejected", "id", id, "editor", editor)
	return updated, nil
}

// mapConflict converts a lost CAS against a pending precondition into the
// InvalidTransition the caller should see: the record simply is not in
// pending_approval anymore.
func (g *Gateway) mapConflict(err error, id string, to domain.Status) error {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return &domain.InvalidTransitionError{ID: id, From: conflict.Actual, To: to}
	}
	return err
}
