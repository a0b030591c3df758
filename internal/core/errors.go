package core

import "errors"

// Error taxonomy. Repository and service failures wrap these sentinels so
// the HTTP boundary can map them without knowing the storage layer.
var (
	// ErrNotFound signals that a referenced id or key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a unique-key collision (category name,
	// screenshot hash). It originates from the storage engine's own
	// constraint, never from a check-then-insert.
	ErrConflict = errors.New("already exists")

	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptySourceApp   = errors.New("empty source app")
	ErrEmptyName        = errors.New("empty name")

	// ErrInvalidDuplicateRef rejects writes where a transaction marked
	// duplicate does not reference an existing non-duplicate original.
	ErrInvalidDuplicateRef = errors.New("duplicate must reference an existing non-duplicate transaction")
)

// IsValidation reports whether err belongs to the validation bucket of the
// taxonomy (malformed input caught at the boundary).
func IsValidation(err error) bool {
	for _, e := range []error{
		ErrInvalidDate, ErrInvalidAmount, ErrEmptyDescription,
		ErrEmptySourceApp, ErrEmptyName, ErrInvalidDuplicateRef,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
