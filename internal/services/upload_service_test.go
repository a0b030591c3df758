package services

import (
	"context"
	"errors"
	"testing"

	"duit/internal/core"
)

type fakeUploadStore struct {
	nextID int64
	byHash map[string]core.UploadRecord
	counts map[int64][2]int
}

func newFakeUploadStore() *fakeUploadStore {
	return &fakeUploadStore{
		byHash: make(map[string]core.UploadRecord),
		counts: make(map[int64][2]int),
	}
}

func (f *fakeUploadStore) Create(ctx context.Context, sourceApp, hash string) (core.UploadRecord, error) {
	if _, ok := f.byHash[hash]; ok {
		return core.UploadRecord{}, core.ErrConflict
	}
	f.nextID++
	rec := core.UploadRecord{ID: f.nextID, SourceApp: sourceApp, ScreenshotHash: hash}
	f.byHash[hash] = rec
	return rec, nil
}

func (f *fakeUploadStore) GetByHash(ctx context.Context, hash string) (core.UploadRecord, error) {
	rec, ok := f.byHash[hash]
	if !ok {
		return core.UploadRecord{}, core.ErrNotFound
	}
	return rec, nil
}

func (f *fakeUploadStore) UpdateCounts(ctx context.Context, id int64, extracted, duplicates int) (bool, error) {
	f.counts[id] = [2]int{extracted, duplicates}
	return true, nil
}

type fakeParser struct {
	items []core.ParsedTransaction
	err   error
}

func (f *fakeParser) ParseScreenshot(ctx context.Context, image []byte, sourceApp string) ([]core.ParsedTransaction, error) {
	return f.items, f.err
}

type fakeChecker struct {
	// matches maps candidate description to the stored original id
	matches map[string]int64
}

func (f *fakeChecker) Check(ctx context.Context, candidate core.ParsedTransaction, sourceApp string) (*core.Transaction, error) {
	if id, ok := f.matches[candidate.Description]; ok {
		return &core.Transaction{ID: id}, nil
	}
	return nil, nil
}

func parsed(description string) core.ParsedTransaction {
	return core.ParsedTransaction{
		Date:        core.NewDate(2026, 1, 15),
		Amount:      core.Money{Cents: 1250},
		Description: description,
	}
}

func TestProcessScreenshot(t *testing.T) {
	uploads := newFakeUploadStore()
	pub := &recordingPublisher{}
	svc := NewUploadService(uploads,
		&fakeParser{items: []core.ParsedTransaction{parsed("Coffee"), parsed("Lunch"), parsed("Taxi")}},
		&fakeChecker{matches: map[string]int64{"Lunch": 42}},
		pub,
		t.TempDir())

	image := []byte("\x89PNG\r\n\x1a\nfakeimagedata")
	result, err := svc.ProcessScreenshot(context.Background(), image, "Wallet")
	if err != nil {
		t.Fatalf("ProcessScreenshot: %v", err)
	}

	if len(result.Transactions) != 3 {
		t.Fatalf("got %d review items, want 3", len(result.Transactions))
	}
	if result.Transactions[0].IsDuplicate || result.Transactions[2].IsDuplicate {
		t.Error("non-matching candidates flagged as duplicates")
	}
	lunch := result.Transactions[1]
	if !lunch.IsDuplicate || lunch.DuplicateOf == nil || *lunch.DuplicateOf != 42 {
		t.Errorf("lunch should duplicate id 42: %+v", lunch)
	}

	if got := uploads.counts[result.UploadID]; got != [2]int{3, 1} {
		t.Errorf("counters = %v, want [3 1]", got)
	}
	if len(pub.uploadIDs) != 1 || pub.uploadIDs[0] != result.UploadID {
		t.Errorf("upload.processed not published: %v", pub.uploadIDs)
	}
}

func TestProcessScreenshotSameImageConflicts(t *testing.T) {
	uploads := newFakeUploadStore()
	svc := NewUploadService(uploads, &fakeParser{}, &fakeChecker{}, nil, t.TempDir())
	ctx := context.Background()

	image := []byte("same bytes")
	if _, err := svc.ProcessScreenshot(ctx, image, "Wallet"); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if _, err := svc.ProcessScreenshot(ctx, image, "Wallet"); !errors.Is(err, core.ErrConflict) {
		t.Errorf("got %v, want ErrConflict on identical image", err)
	}

	t.Run("different image is accepted", func(t *testing.T) {
		if _, err := svc.ProcessScreenshot(ctx, []byte("other bytes"), "Wallet"); err != nil {
			t.Errorf("different image: %v", err)
		}
	})
}

func TestProcessScreenshotParserFailure(t *testing.T) {
	uploads := newFakeUploadStore()
	wantErr := errors.New("model timeout")
	svc := NewUploadService(uploads, &fakeParser{err: wantErr}, &fakeChecker{}, nil, t.TempDir())

	_, err := svc.ProcessScreenshot(context.Background(), []byte("img"), "Wallet")
	if !errors.Is(err, wantErr) {
		t.Errorf("got %v, want wrapped parser error", err)
	}
}

func TestProcessScreenshotEmptyParse(t *testing.T) {
	uploads := newFakeUploadStore()
	svc := NewUploadService(uploads, &fakeParser{}, &fakeChecker{}, nil, t.TempDir())

	result, err := svc.ProcessScreenshot(context.Background(), []byte("img"), "Wallet")
	if err != nil {
		t.Fatalf("ProcessScreenshot: %v", err)
	}
	if len(result.Transactions) != 0 {
		t.Errorf("expected no review items: %+v", result.Transactions)
	}
	if got := uploads.counts[result.UploadID]; got != [2]int{0, 0} {
		t.Errorf("counters = %v, want [0 0]", got)
	}
}
