package core

import (
	"strconv"
	"strings"
	"time"
)

// Date is a calendar day without a time component. It is persisted and
// serialized in ISO form (YYYY-MM-DD).
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(strings.TrimSpace(string(data)))
	if err != nil {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Category is a user-defined spending bucket. Names are globally unique.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Transaction is one persisted ledger entry. A transaction flagged as
// duplicate references its original through DuplicateOfID; the original
// must itself be a non-duplicate.
type Transaction struct {
	ID            int64     `json:"id"`
	Date          Date      `json:"date"`
	Amount        Money     `json:"amount"`
	Description   string    `json:"description"`
	SourceApp     string    `json:"source_app"`
	PaymentMethod *string   `json:"payment_method,omitempty"`
	TargetAccount *string   `json:"target_account,omitempty"`
	CategoryID    *int64    `json:"category_id,omitempty"`
	IsDuplicate   bool      `json:"is_duplicate"`
	DuplicateOfID *int64    `json:"duplicate_of_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TransactionDraft is the payload for creating a transaction.
type TransactionDraft struct {
	Date          Date    `json:"date"`
	Amount        Money   `json:"amount"`
	Description   string  `json:"description"`
	SourceApp     string  `json:"source_app"`
	PaymentMethod *string `json:"payment_method,omitempty"`
	TargetAccount *string `json:"target_account,omitempty"`
	CategoryID    *int64  `json:"category_id,omitempty"`
	IsDuplicate   bool    `json:"is_duplicate"`
	DuplicateOfID *int64  `json:"duplicate_of_id,omitempty"`
}

func (t TransactionDraft) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(t.SourceApp) == "" {
		return ErrEmptySourceApp
	}
	if t.IsDuplicate && t.DuplicateOfID == nil {
		return ErrInvalidDuplicateRef
	}
	return nil
}

// TransactionPatch is a partial update. Nil fields are left untouched;
// there is deliberately no way to clear an optional field to NULL through
// a patch (absent and null are not distinguished).
type TransactionPatch struct {
	Date          *Date   `json:"date"`
	Amount        *Money  `json:"amount"`
	Description   *string `json:"description"`
	SourceApp     *string `json:"source_app"`
	PaymentMethod *string `json:"payment_method"`
	TargetAccount *string `json:"target_account"`
	CategoryID    *int64  `json:"category_id"`
	IsDuplicate   *bool   `json:"is_duplicate"`
	DuplicateOfID *int64  `json:"duplicate_of_id"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p TransactionPatch) IsEmpty() bool {
	return p.Date == nil && p.Amount == nil && p.Description == nil &&
		p.SourceApp == nil && p.PaymentMethod == nil && p.TargetAccount == nil &&
		p.CategoryID == nil && p.IsDuplicate == nil && p.DuplicateOfID == nil
}

// ParsedTransaction is one candidate extracted from a screenshot by the
// parser. It carries no identity; the user reviews it before it is saved.
type ParsedTransaction struct {
	Date          Date    `json:"date"`
	Amount        Money   `json:"amount"`
	Description   string  `json:"description"`
	TargetAccount *string `json:"target_account,omitempty"`
	PaymentMethod *string `json:"payment_method,omitempty"`
}

// ReviewItem pairs a parsed transaction with the outcome of duplicate
// detection against the stored ledger.
type ReviewItem struct {
	Transaction ParsedTransaction `json:"transaction"`
	IsDuplicate bool              `json:"is_duplicate"`
	DuplicateOf *int64            `json:"duplicate_of,omitempty"`
}

// ProcessingResult is what an upload returns for user review.
type ProcessingResult struct {
	UploadID     int64        `json:"upload_id"`
	Transactions []ReviewItem `json:"transactions"`
}

// UploadRecord is one screenshot upload attempt, keyed by content hash.
type UploadRecord struct {
	ID                    int64     `json:"id"`
	UploadTimestamp       time.Time `json:"upload_timestamp"`
	SourceApp             string    `json:"source_app"`
	ScreenshotHash        string    `json:"screenshot_hash"`
	TransactionsExtracted int       `json:"transactions_extracted"`
	DuplicatesDetected    int       `json:"duplicates_detected"`
}

// CategoryTotal is one row of a monthly summary: the category name (or
// "Uncategorized") and the summed amount for the month.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    Money  `json:"total"`
}

// BatchResult reports partial-success counts for a batch create.
type BatchResult struct {
	Created int `json:"created"`
	Failed  int `json:"failed"`
}

// UncategorizedBucket is the summary label for transactions without a
// category assignment.
const UncategorizedBucket = "Uncategorized"
