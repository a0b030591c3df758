package dupe

import (
	"context"
	"errors"
	"testing"

	"duit/internal/core"
)

type stubFinder struct {
	matches []core.Transaction
	err     error
}

func (s *stubFinder) FindPotentialDuplicates(ctx context.Context, date core.Date, amount core.Money, sourceApp, description string) ([]core.Transaction, error) {
	return s.matches, s.err
}

func stored(id int64, date string, cents int64, description string) core.Transaction {
	d, _ := core.ParseDate(date)
	return core.Transaction{
		ID:          id,
		Date:        d,
		Amount:      core.Money{Cents: cents},
		Description: description,
		SourceApp:   "Wallet",
	}
}

func candidate(date string, cents int64, description string) core.ParsedTransaction {
	d, _ := core.ParseDate(date)
	return core.ParsedTransaction{
		Date:        d,
		Amount:      core.Money{Cents: cents},
		Description: description,
	}
}

func TestDetectorCheck(t *testing.T) {
	tests := []struct {
		name      string
		matches   []core.Transaction
		candidate core.ParsedTransaction
		wantID    int64 // 0 means no match expected
	}{
		{
			name:      "no candidates",
			matches:   nil,
			candidate: candidate("2026-01-15", 1250, "Coffee"),
			wantID:    0,
		},
		{
			name: "exact match scores full",
			matches: []core.Transaction{
				stored(1, "2026-01-15", 1250, "Coffee at Blue Bottle"),
			},
			candidate: candidate("2026-01-15", 1250, "Coffee at Blue Bottle"),
			wantID:    1,
		},
		{
			name: "case and spacing differences still match",
			matches: []core.Transaction{
				stored(2, "2026-01-15", 1250, "COFFEE  at blue bottle"),
			},
			candidate: candidate("2026-01-15", 1250, "Coffee at Blue Bottle"),
			wantID:    2,
		},
		{
			name: "adjacent day with exact text and amount still clears threshold",
			matches: []core.Transaction{
				stored(3, "2026-01-16", 1250, "Coffee at Blue Bottle"),
			},
			// 0.60*1.0 + 0.25*0.5 + 0.15*1.0 = 0.875
			candidate: candidate("2026-01-15", 1250, "Coffee at Blue Bottle"),
			wantID:    3,
		},
		{
			name: "dissimilar description stays below threshold",
			matches: []core.Transaction{
				stored(4, "2026-01-15", 1250, "Grocery run downtown"),
			},
			candidate: candidate("2026-01-15", 1250, "Coffee"),
			wantID:    0,
		},
		{
			name: "one cent off on an adjacent day misses",
			matches: []core.Transaction{
				stored(5, "2026-01-16", 1251, "Coffee at Blue Bottle"),
			},
			// 0.60*1.0 + 0.25*0.5 + 0.15*0 = 0.725
			candidate: candidate("2026-01-15", 1250, "Coffee at Blue Bottle"),
			wantID:    0,
		},
		{
			name: "best of several candidates wins",
			matches: []core.Transaction{
				stored(6, "2026-01-16", 1250, "Coffee at Blue Bottle"),
				stored(7, "2026-01-15", 1250, "Coffee at Blue Bottle"),
			},
			candidate: candidate("2026-01-15", 1250, "Coffee at Blue Bottle"),
			wantID:    7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detector := NewDetector(&stubFinder{matches: tt.matches}, DefaultThreshold)
			got, err := detector.Check(context.Background(), tt.candidate, "Wallet")
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if tt.wantID == 0 {
				if got != nil {
					t.Errorf("expected no match, got id %d", got.ID)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a match, got nil")
			}
			if got.ID != tt.wantID {
				t.Errorf("matched id %d, want %d", got.ID, tt.wantID)
			}
		})
	}
}

func TestDetectorPropagatesFinderError(t *testing.T) {
	wantErr := errors.New("db down")
	detector := NewDetector(&stubFinder{err: wantErr}, DefaultThreshold)
	_, err := detector.Check(context.Background(), candidate("2026-01-15", 1250, "Coffee"), "Wallet")
	if !errors.Is(err, wantErr) {
		t.Errorf("got %v, want wrapped finder error", err)
	}
}

func TestNewDetectorClampsThreshold(t *testing.T) {
	for _, bad := range []float64{0, -1, 1.5} {
		d := NewDetector(&stubFinder{}, bad)
		if d.threshold != DefaultThreshold {
			t.Errorf("threshold %v should clamp to default, got %v", bad, d.threshold)
		}
	}
}

func TestDiceCoefficient(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"coffee", "coffee", 1.0},
		{"a", "a", 1.0},
		{"a", "b", 0.0},
		{"ab", "cd", 0.0},
	}
	for _, tt := range tests {
		if got := diceCoefficient(tt.a, tt.b); got != tt.want {
			t.Errorf("diceCoefficient(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}

	partial := diceCoefficient("night", "nacht")
	if partial <= 0 || partial >= 1 {
		t.Errorf("partial overlap should be in (0, 1), got %v", partial)
	}
}
