package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"duit/internal/core"
)

// CategoryRepo provides CRUD over the categories table. Name uniqueness is
// enforced by the schema's UNIQUE constraint.
type CategoryRepo struct {
	store *Store
}

func NewCategoryRepo(store *Store) *CategoryRepo {
	return &CategoryRepo{store: store}
}

// Create inserts a category and returns the stored record. A duplicate
// name yields core.ErrConflict.
func (r *CategoryRepo) Create(ctx context.Context, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.ErrEmptyName
	}

	var cat core.Category
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "INSERT INTO categories (name) VALUES (?)", name)
		if err != nil {
			return fmt.Errorf("insert category %q: %w", name, translateErr(err))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("category insert id: %w", err)
		}
		cat, err = scanCategory(tx.QueryRowContext(ctx,
			"SELECT id, name, created_at FROM categories WHERE id = ?", id))
		return err
	})
	if err != nil {
		return core.Category{}, err
	}
	return cat, nil
}

// GetByID returns the category or core.ErrNotFound.
func (r *CategoryRepo) GetByID(ctx context.Context, id int64) (core.Category, error) {
	var cat core.Category
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		cat, err = scanCategory(tx.QueryRowContext(ctx,
			"SELECT id, name, created_at FROM categories WHERE id = ?", id))
		return err
	})
	if err != nil {
		return core.Category{}, err
	}
	return cat, nil
}

// GetByName returns the category or core.ErrNotFound.
func (r *CategoryRepo) GetByName(ctx context.Context, name string) (core.Category, error) {
	var cat core.Category
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		cat, err = scanCategory(tx.QueryRowContext(ctx,
			"SELECT id, name, created_at FROM categories WHERE name = ?", name))
		return err
	})
	if err != nil {
		return core.Category{}, err
	}
	return cat, nil
}

// GetAll returns all categories ordered alphabetically by name.
func (r *CategoryRepo) GetAll(ctx context.Context) ([]core.Category, error) {
	var cats []core.Category
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			"SELECT id, name, created_at FROM categories ORDER BY name")
		if err != nil {
			return fmt.Errorf("query categories: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			cat, err := scanCategory(rows)
			if err != nil {
				return err
			}
			cats = append(cats, cat)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return cats, nil
}

// Delete removes a category by id and reports whether a row was affected.
func (r *CategoryRepo) Delete(ctx context.Context, id int64) (bool, error) {
	var affected bool
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete category %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("category delete rows affected: %w", err)
		}
		affected = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		cat       core.Category
		createdAt string
	)
	if err := row.Scan(&cat.ID, &cat.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Category{}, core.ErrNotFound
		}
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	ts, err := parseTimestamp(createdAt)
	if err != nil {
		return core.Category{}, err
	}
	cat.CreatedAt = ts
	return cat, nil
}
