package services

import (
	"context"
	"errors"
	"testing"

	"duit/internal/core"
)

type fakeTransactionStore struct {
	nextID  int64
	rows    map[int64]core.Transaction
	created []core.TransactionDraft
}

func newFakeTransactionStore() *fakeTransactionStore {
	return &fakeTransactionStore{rows: make(map[int64]core.Transaction)}
}

func (f *fakeTransactionStore) Create(ctx context.Context, draft core.TransactionDraft) (core.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return core.Transaction{}, err
	}
	f.nextID++
	tx := core.Transaction{
		ID:          f.nextID,
		Date:        draft.Date,
		Amount:      draft.Amount,
		Description: draft.Description,
		SourceApp:   draft.SourceApp,
	}
	f.rows[tx.ID] = tx
	f.created = append(f.created, draft)
	return tx, nil
}

func (f *fakeTransactionStore) GetByID(ctx context.Context, id int64) (core.Transaction, error) {
	tx, ok := f.rows[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

func (f *fakeTransactionStore) GetByDateRange(ctx context.Context, start, end core.Date) ([]core.Transaction, error) {
	return nil, nil
}

func (f *fakeTransactionStore) Update(ctx context.Context, id int64, patch core.TransactionPatch) (bool, error) {
	tx, ok := f.rows[id]
	if !ok {
		return false, nil
	}
	if patch.Description != nil {
		tx.Description = *patch.Description
	}
	f.rows[id] = tx
	return true, nil
}

func (f *fakeTransactionStore) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := f.rows[id]; !ok {
		return false, nil
	}
	delete(f.rows, id)
	return true, nil
}

func (f *fakeTransactionStore) MonthlySummary(ctx context.Context, year, month int) ([]core.CategoryTotal, error) {
	return nil, nil
}

type recordingPublisher struct {
	transactionIDs []int64
	uploadIDs      []int64
	err            error
}

func (p *recordingPublisher) PublishTransactionCreated(ctx context.Context, id int64) error {
	if p.err != nil {
		return p.err
	}
	p.transactionIDs = append(p.transactionIDs, id)
	return nil
}

func (p *recordingPublisher) PublishUploadProcessed(ctx context.Context, uploadID int64, sourceApp string, extracted, duplicates int) error {
	if p.err != nil {
		return p.err
	}
	p.uploadIDs = append(p.uploadIDs, uploadID)
	return nil
}

func validDraft(description string) core.TransactionDraft {
	return core.TransactionDraft{
		Date:        core.NewDate(2026, 1, 15),
		Amount:      core.Money{Cents: 1250},
		Description: description,
		SourceApp:   "Wallet",
	}
}

func TestCreateBatchPartialSuccess(t *testing.T) {
	store := newFakeTransactionStore()
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub)

	drafts := []core.TransactionDraft{
		validDraft("One"),
		{Date: core.NewDate(2026, 1, 15), Amount: core.Money{}, Description: "Bad", SourceApp: "Wallet"},
		validDraft("Two"),
		validDraft("Three"),
	}

	result, created := svc.CreateBatch(context.Background(), drafts)
	if result.Created != 3 || result.Failed != 1 {
		t.Errorf("result = %+v, want created 3 failed 1", result)
	}
	if len(created) != 3 {
		t.Fatalf("got %d created rows, want 3", len(created))
	}
	if created[0].Description != "One" || created[2].Description != "Three" {
		t.Errorf("creation order lost: %+v", created)
	}
	if len(pub.transactionIDs) != 3 {
		t.Errorf("published %d events, want one per created row", len(pub.transactionIDs))
	}
}

func TestCreateBatchPublisherFailureDoesNotFailBatch(t *testing.T) {
	store := newFakeTransactionStore()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewTransactionService(store, pub)

	result, _ := svc.CreateBatch(context.Background(), []core.TransactionDraft{validDraft("One")})
	if result.Created != 1 || result.Failed != 0 {
		t.Errorf("publish failure must not fail the create: %+v", result)
	}
}

func TestCreateBatchWithoutPublisher(t *testing.T) {
	svc := NewTransactionService(newFakeTransactionStore(), nil)
	result, _ := svc.CreateBatch(context.Background(), []core.TransactionDraft{validDraft("One")})
	if result.Created != 1 {
		t.Errorf("nil publisher must be tolerated: %+v", result)
	}
}

func TestServiceUpdate(t *testing.T) {
	store := newFakeTransactionStore()
	svc := NewTransactionService(store, nil)
	ctx := context.Background()

	created, err := store.Create(ctx, validDraft("Coffee"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	t.Run("returns fresh row", func(t *testing.T) {
		desc := "Espresso"
		got, err := svc.Update(ctx, created.ID, core.TransactionPatch{Description: &desc})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.Description != "Espresso" {
			t.Errorf("description = %q", got.Description)
		}
	})

	t.Run("empty patch returns row unchanged", func(t *testing.T) {
		got, err := svc.Update(ctx, created.ID, core.TransactionPatch{})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.ID != created.ID {
			t.Errorf("got id %d", got.ID)
		}
	})

	t.Run("missing row", func(t *testing.T) {
		desc := "x"
		if _, err := svc.Update(ctx, 9999, core.TransactionPatch{Description: &desc}); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})
}

func TestServiceDelete(t *testing.T) {
	store := newFakeTransactionStore()
	svc := NewTransactionService(store, nil)
	ctx := context.Background()

	created, _ := store.Create(ctx, validDraft("Coffee"))

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}
