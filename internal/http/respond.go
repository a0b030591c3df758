package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"duit/internal/core"
)

// CategoryService is the category surface the handlers need.
type CategoryService interface {
	Create(ctx context.Context, name string) (core.Category, error)
	GetAll(ctx context.Context) ([]core.Category, error)
}

// TransactionService is the transaction surface the handlers need.
type TransactionService interface {
	CreateBatch(ctx context.Context, drafts []core.TransactionDraft) (core.BatchResult, []core.Transaction)
	GetByDateRange(ctx context.Context, start, end core.Date) ([]core.Transaction, error)
	MonthlySummary(ctx context.Context, year, month int) ([]core.CategoryTotal, error)
	Update(ctx context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

// UploadService is the screenshot pipeline surface the handlers need.
type UploadService interface {
	ProcessScreenshot(ctx context.Context, image []byte, sourceApp string) (core.ProcessingResult, error)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeDomainError maps domain errors to HTTP statuses: not found 404,
// conflict 409, validation 422, everything else 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrConflict):
		writeError(w, http.StatusConflict, "already exists")
	case core.IsValidation(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
