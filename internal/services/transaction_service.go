// Package services holds the application logic between the HTTP layer and
// the repositories.
package services

import (
	"context"
	"log/slog"

	"duit/internal/core"
)

// TransactionStore is the repository surface the service needs.
type TransactionStore interface {
	Create(ctx context.Context, draft core.TransactionDraft) (core.Transaction, error)
	GetByID(ctx context.Context, id int64) (core.Transaction, error)
	GetByDateRange(ctx context.Context, start, end core.Date) ([]core.Transaction, error)
	Update(ctx context.Context, id int64, patch core.TransactionPatch) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	MonthlySummary(ctx context.Context, year, month int) ([]core.CategoryTotal, error)
}

// Publisher emits ledger events. Publishing failures are logged, never
// surfaced to API callers.
type Publisher interface {
	PublishTransactionCreated(ctx context.Context, id int64) error
	PublishUploadProcessed(ctx context.Context, uploadID int64, sourceApp string, extracted, duplicates int) error
}

type TransactionService struct {
	store     TransactionStore
	publisher Publisher // may be nil when no broker is configured
}

func NewTransactionService(store TransactionStore, publisher Publisher) *TransactionService {
	return &TransactionService{store: store, publisher: publisher}
}

// CreateBatch persists drafts one by one. Each draft succeeds or fails on
// its own; one invalid entry never rolls back the others. Returned ids are
// in input order for the drafts that succeeded.
func (s *TransactionService) CreateBatch(ctx context.Context, drafts []core.TransactionDraft) (core.BatchResult, []core.Transaction) {
	var (
		result  core.BatchResult
		created []core.Transaction
	)
	for i, draft := range drafts {
		tx, err := s.store.Create(ctx, draft)
		if err != nil {
			slog.WarnContext(ctx, "Batch entry rejected",
				"index", i, "error", err)
			result.Failed++
			continue
		}
		result.Created++
		created = append(created, tx)
		s.publishCreated(ctx, tx.ID)
	}
	return result, created
}

func (s *TransactionService) publishCreated(ctx context.Context, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionCreated(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction.created",
			"transaction_id", id, "error", err)
	}
}

func (s *TransactionService) GetByDateRange(ctx context.Context, start, end core.Date) ([]core.Transaction, error) {
	return s.store.GetByDateRange(ctx, start, end)
}

func (s *TransactionService) MonthlySummary(ctx context.Context, year, month int) ([]core.CategoryTotal, error) {
	return s.store.MonthlySummary(ctx, year, month)
}

// Update applies a partial update and returns the fresh row. A patch that
// touches no row yields core.ErrNotFound; an empty patch returns the row
// unchanged.
func (s *TransactionService) Update(ctx context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error) {
	if patch.IsEmpty() {
		return s.store.GetByID(ctx, id)
	}
	affected, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return core.Transaction{}, err
	}
	if !affected {
		return core.Transaction{}, core.ErrNotFound
	}
	return s.store.GetByID(ctx, id)
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	affected, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !affected {
		return core.ErrNotFound
	}
	return nil
}
