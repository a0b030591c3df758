package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"duit/internal/core"
)

// TransactionRepo provides CRUD, duplicate-candidate search and monthly
// aggregation over the transactions table.
//
// Dates are stored as ISO YYYY-MM-DD text and amounts as canonical
// two-decimal text, so both round-trip exactly. All amount arithmetic in
// queries happens on integer cents via CAST(ROUND(amount*100) AS INTEGER);
// a binary floating-point tolerance never touches the decimal data.
type TransactionRepo struct {
	store *Store
}

func NewTransactionRepo(store *Store) *TransactionRepo {
	return &TransactionRepo{store: store}
}

const transactionColumns = `id, date, amount, description, source_app,
	payment_method, target_account, category_id, is_duplicate,
	duplicate_of_id, created_at, updated_at`

// Create inserts a transaction and returns the stored record. When the
// draft is flagged as duplicate its duplicate_of_id must reference an
// existing non-duplicate row; the check runs inside the same transaction
// as the insert.
func (r *TransactionRepo) Create(ctx context.Context, draft core.TransactionDraft) (core.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var created core.Transaction
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		if draft.IsDuplicate {
			if err := checkDuplicateRef(ctx, tx, *draft.DuplicateOfID); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (
				date, amount, description, source_app, payment_method,
				target_account, category_id, is_duplicate, duplicate_of_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			draft.Date.String(),
			draft.Amount.String(),
			draft.Description,
			draft.SourceApp,
			draft.PaymentMethod,
			draft.TargetAccount,
			draft.CategoryID,
			draft.IsDuplicate,
			draft.DuplicateOfID,
		)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", translateErr(err))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("transaction insert id: %w", err)
		}

		created, err = scanTransaction(tx.QueryRowContext(ctx,
			"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id))
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return created, nil
}

// GetByID fetches one transaction or core.ErrNotFound.
func (r *TransactionRepo) GetByID(ctx context.Context, id int64) (core.Transaction, error) {
	var t core.Transaction
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		t, err = scanTransaction(tx.QueryRowContext(ctx,
			"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id))
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// GetByDateRange returns all transactions with date in [start, end]
// inclusive, most recent first, with id as the tie-break for same-day
// entries.
func (r *TransactionRepo) GetByDateRange(ctx context.Context, start, end core.Date) ([]core.Transaction, error) {
	var out []core.Transaction
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			"SELECT "+transactionColumns+` FROM transactions
			WHERE date BETWEEN ? AND ?
			ORDER BY date DESC, id DESC`,
			start.String(), end.String())
		if err != nil {
			return fmt.Errorf("query transactions by date range: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTransaction(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies only the fields present in the patch, refreshes
// updated_at, and reports whether a row was affected. An empty patch
// affects nothing.
func (r *TransactionRepo) Update(ctx context.Context, id int64, patch core.TransactionPatch) (bool, error) {
	if patch.IsEmpty() {
		return false, nil
	}

	var affected bool
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		// Load the current row so the duplicate-reference invariant can be
		// checked against the effective post-update state.
		current, err := scanTransaction(tx.QueryRowContext(ctx,
			"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id))
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return nil // affected stays false; caller reports not found
			}
			return err
		}

		effectiveDup := current.IsDuplicate
		if patch.IsDuplicate != nil {
			effectiveDup = *patch.IsDuplicate
		}
		effectiveRef := current.DuplicateOfID
		if patch.DuplicateOfID != nil {
			effectiveRef = patch.DuplicateOfID
		}
		if effectiveDup {
			if effectiveRef == nil {
				return core.ErrInvalidDuplicateRef
			}
			if err := checkDuplicateRef(ctx, tx, *effectiveRef); err != nil {
				return err
			}
		}

		var (
			sets   []string
			params []any
		)
		if patch.Date != nil {
			sets = append(sets, "date = ?")
			params = append(params, patch.Date.String())
		}
		if patch.Amount != nil {
			sets = append(sets, "amount = ?")
			params = append(params, patch.Amount.String())
		}
		if patch.Description != nil {
			sets = append(sets, "description = ?")
			params = append(params, *patch.Description)
		}
		if patch.SourceApp != nil {
			sets = append(sets, "source_app = ?")
			params = append(params, *patch.SourceApp)
		}
		if patch.PaymentMethod != nil {
			sets = append(sets, "payment_method = ?")
			params = append(params, *patch.PaymentMethod)
		}
		if patch.TargetAccount != nil {
			sets = append(sets, "target_account = ?")
			params = append(params, *patch.TargetAccount)
		}
		if patch.CategoryID != nil {
			sets = append(sets, "category_id = ?")
			params = append(params, *patch.CategoryID)
		}
		if patch.IsDuplicate != nil {
			sets = append(sets, "is_duplicate = ?")
			params = append(params, *patch.IsDuplicate)
		}
		if patch.DuplicateOfID != nil {
			sets = append(sets, "duplicate_of_id = ?")
			params = append(params, *patch.DuplicateOfID)
		}

		params = append(params, id)
		res, err := tx.ExecContext(ctx,
			"UPDATE transactions SET "+strings.Join(sets, ", ")+
				", updated_at = STRFTIME('%Y-%m-%d %H:%M:%f', 'now') WHERE id = ?",
			params...)
		if err != nil {
			return fmt.Errorf("update transaction %d: %w", id, translateErr(err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("transaction update rows affected: %w", err)
		}
		affected = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return affected, nil
}

// Delete removes a transaction by id and reports whether a row was
// affected.
func (r *TransactionRepo) Delete(ctx context.Context, id int64) (bool, error) {
	var affected bool
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete transaction %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("transaction delete rows affected: %w", err)
		}
		affected = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return affected, nil
}

// FindPotentialDuplicates returns stored originals that could match a new
// transaction: date within one calendar day, amount within one cent
// (compared in integer cents), same source app, the given description
// contained in the stored description, and not themselves flagged as
// duplicates. Ranking and selection are the caller's job.
func (r *TransactionRepo) FindPotentialDuplicates(ctx context.Context, date core.Date, amount core.Money, sourceApp, description string) ([]core.Transaction, error) {
	var out []core.Transaction
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			"SELECT "+transactionColumns+` FROM transactions
			WHERE date BETWEEN ? AND ?
			AND ABS(CAST(ROUND(amount * 100) AS INTEGER) - ?) <= 1
			AND source_app = ?
			AND description LIKE ?
			AND is_duplicate = 0
			ORDER BY date DESC, id DESC`,
			date.AddDays(-1).String(),
			date.AddDays(1).String(),
			amount.Cents,
			sourceApp,
			"%"+description+"%",
		)
		if err != nil {
			return fmt.Errorf("query duplicate candidates: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTransaction(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MonthlySummary aggregates total amount per category for the given
// year/month, skipping transactions flagged as duplicates. Transactions
// without a category land in the "Uncategorized" bucket. Rows are ordered
// by total descending; categories without transactions in the month are
// absent. Sums are computed in integer cents.
func (r *TransactionRepo) MonthlySummary(ctx context.Context, year, month int) ([]core.CategoryTotal, error) {
	first := core.NewDate(year, month, 1)
	next := core.NewDate(year, month+1, 1)

	var out []core.CategoryTotal
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT
				COALESCE(c.name, ?) AS category_name,
				SUM(CAST(ROUND(t.amount * 100) AS INTEGER)) AS total_cents
			FROM transactions AS t
			LEFT JOIN categories AS c ON t.category_id = c.id
			WHERE t.date >= ? AND t.date < ?
			AND t.is_duplicate = 0
			GROUP BY category_name
			ORDER BY total_cents DESC`,
			core.UncategorizedBucket,
			first.String(),
			next.String(),
		)
		if err != nil {
			return fmt.Errorf("query monthly summary: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				name  string
				cents int64
			)
			if err := rows.Scan(&name, &cents); err != nil {
				return fmt.Errorf("scan summary row: %w", err)
			}
			out = append(out, core.CategoryTotal{
				Category: name,
				Total:    core.Money{Cents: cents},
			})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkDuplicateRef verifies that refID names an existing transaction that
// is not itself a duplicate.
func checkDuplicateRef(ctx context.Context, tx *sql.Tx, refID int64) error {
	var isDup bool
	err := tx.QueryRowContext(ctx,
		"SELECT is_duplicate FROM transactions WHERE id = ?", refID).Scan(&isDup)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrInvalidDuplicateRef
	}
	if err != nil {
		return fmt.Errorf("check duplicate reference %d: %w", refID, err)
	}
	if isDup {
		return core.ErrInvalidDuplicateRef
	}
	return nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t             core.Transaction
		dateStr       string
		amountStr     string
		paymentMethod sql.NullString
		targetAccount sql.NullString
		categoryID    sql.NullInt64
		duplicateOfID sql.NullInt64
		createdAt     string
		updatedAt     string
	)
	err := row.Scan(
		&t.ID, &dateStr, &amountStr, &t.Description, &t.SourceApp,
		&paymentMethod, &targetAccount, &categoryID, &t.IsDuplicate,
		&duplicateOfID, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, core.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	t.Date, err = core.ParseDate(dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", dateStr, err)
	}
	t.Amount, err = core.ParseAmount(amountStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored amount %q: %w", amountStr, err)
	}
	if paymentMethod.Valid {
		t.PaymentMethod = &paymentMethod.String
	}
	if targetAccount.Valid {
		t.TargetAccount = &targetAccount.String
	}
	if categoryID.Valid {
		t.CategoryID = &categoryID.Int64
	}
	if duplicateOfID.Valid {
		t.DuplicateOfID = &duplicateOfID.Int64
	}
	if t.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return core.Transaction{}, err
	}
	if t.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}
