package core

import (
	"errors"
	"testing"
)

func TestParseDate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d, err := ParseDate("2026-01-15")
		if err != nil {
			t.Fatalf("ParseDate: %v", err)
		}
		if d.String() != "2026-01-15" {
			t.Errorf("got %s", d.String())
		}
	})

	for _, s := range []string{"", "15-01-2026", "2026-13-01", "2026-01-32", "not a date"} {
		if _, err := ParseDate(s); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) = %v, want ErrInvalidDate", s, err)
		}
	}
}

func TestDateAddDays(t *testing.T) {
	d := NewDate(2026, 3, 1)
	if got := d.AddDays(-1).String(); got != "2026-02-28" {
		t.Errorf("day before Mar 1 = %s, want 2026-02-28", got)
	}
	if got := d.AddDays(1).String(); got != "2026-03-02" {
		t.Errorf("day after Mar 1 = %s, want 2026-03-02", got)
	}
}

func TestNewDateNormalizesMonth(t *testing.T) {
	// Month 13 rolls into January of the next year, which the monthly
	// summary relies on for December ranges.
	if got := NewDate(2025, 13, 1).String(); got != "2026-01-01" {
		t.Errorf("NewDate(2025, 13, 1) = %s, want 2026-01-01", got)
	}
}

func TestTransactionDraftValidate(t *testing.T) {
	ref := int64(1)
	valid := TransactionDraft{
		Date:        NewDate(2026, 1, 15),
		Amount:      Money{Cents: 1250},
		Description: "Coffee",
		SourceApp:   "Wallet",
	}

	tests := []struct {
		name    string
		mutate  func(*TransactionDraft)
		wantErr error
	}{
		{"valid", func(d *TransactionDraft) {}, nil},
		{"zero date", func(d *TransactionDraft) { d.Date = Date{} }, ErrInvalidDate},
		{"zero amount", func(d *TransactionDraft) { d.Amount = Money{} }, ErrInvalidAmount},
		{"blank description", func(d *TransactionDraft) { d.Description = "   " }, ErrEmptyDescription},
		{"blank source app", func(d *TransactionDraft) { d.SourceApp = "" }, ErrEmptySourceApp},
		{"duplicate without ref", func(d *TransactionDraft) { d.IsDuplicate = true }, ErrInvalidDuplicateRef},
		{"duplicate with ref", func(d *TransactionDraft) {
			d.IsDuplicate = true
			d.DuplicateOfID = &ref
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := valid
			tt.mutate(&draft)
			err := draft.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionPatchIsEmpty(t *testing.T) {
	if !(TransactionPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
	desc := "Lunch"
	if (TransactionPatch{Description: &desc}).IsEmpty() {
		t.Error("patch with a field should not be empty")
	}
}

func TestIsValidation(t *testing.T) {
	for _, err := range []error{
		ErrInvalidDate, ErrInvalidAmount, ErrEmptyDescription,
		ErrEmptySourceApp, ErrEmptyName, ErrInvalidDuplicateRef,
	} {
		if !IsValidation(err) {
			t.Errorf("%v should be a validation error", err)
		}
	}
	if IsValidation(ErrNotFound) || IsValidation(ErrConflict) {
		t.Error("not found and conflict are not validation errors")
	}
}
