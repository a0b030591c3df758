package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"duit/internal/core"
)

// UploadRepo records screenshot upload attempts keyed by content hash.
// Hash uniqueness is enforced by the schema; re-inserting an existing hash
// yields core.ErrConflict.
type UploadRepo struct {
	store *Store
}

func NewUploadRepo(store *Store) *UploadRepo {
	return &UploadRepo{store: store}
}

// Create records one upload attempt with zeroed counters.
func (r *UploadRepo) Create(ctx context.Context, sourceApp, screenshotHash string) (core.UploadRecord, error) {
	var rec core.UploadRecord
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO upload_history (source_app, screenshot_hash)
			VALUES (?, ?)`,
			sourceApp, screenshotHash)
		if err != nil {
			return fmt.Errorf("insert upload record: %w", translateErr(err))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("upload insert id: %w", err)
		}
		rec, err = scanUpload(tx.QueryRowContext(ctx,
			uploadSelect+" WHERE id = ?", id))
		return err
	})
	if err != nil {
		return core.UploadRecord{}, err
	}
	return rec, nil
}

// GetByHash looks up an upload by screenshot hash for idempotency checks.
func (r *UploadRepo) GetByHash(ctx context.Context, screenshotHash string) (core.UploadRecord, error) {
	var rec core.UploadRecord
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		rec, err = scanUpload(tx.QueryRowContext(ctx,
			uploadSelect+" WHERE screenshot_hash = ?", screenshotHash))
		return err
	})
	if err != nil {
		return core.UploadRecord{}, err
	}
	return rec, nil
}

// UpdateCounts overwrites the extracted/duplicate counters for a record
// and reports whether a row was affected.
func (r *UploadRepo) UpdateCounts(ctx context.Context, id int64, extracted, duplicates int) (bool, error) {
	var affected bool
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE upload_history
			SET transactions_extracted = ?, duplicates_detected = ?
			WHERE id = ?`,
			extracted, duplicates, id)
		if err != nil {
			return fmt.Errorf("update upload counts %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("upload update rows affected: %w", err)
		}
		affected = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return affected, nil
}

const uploadSelect = `SELECT id, upload_timestamp, source_app,
	screenshot_hash, transactions_extracted, duplicates_detected
	FROM upload_history`

func scanUpload(row rowScanner) (core.UploadRecord, error) {
	var (
		rec core.UploadRecord
		ts  string
	)
	err := row.Scan(&rec.ID, &ts, &rec.SourceApp, &rec.ScreenshotHash,
		&rec.TransactionsExtracted, &rec.DuplicatesDetected)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.UploadRecord{}, core.ErrNotFound
		}
		return core.UploadRecord{}, fmt.Errorf("scan upload record: %w", err)
	}
	if rec.UploadTimestamp, err = parseTimestamp(ts); err != nil {
		return core.UploadRecord{}, err
	}
	return rec, nil
}
