// Package worker handles consumed ledger events in the background process.
package worker

import (
	"context"
	"errors"
	"log/slog"

	"duit/internal/amqp"
	"duit/internal/core"
)

// TransactionSource loads rows referenced by events.
type TransactionSource interface {
	GetByID(ctx context.Context, id int64) (core.Transaction, error)
}

// CategorySource resolves category names for exported rows.
type CategorySource interface {
	GetByID(ctx context.Context, id int64) (core.Category, error)
}

// RowAppender is the export sink, normally Google Sheets.
type RowAppender interface {
	AppendRow(ctx context.Context, row []any) error
}

// ExportWorker mirrors created transactions into a spreadsheet and logs
// upload summaries.
type ExportWorker struct {
	transactions TransactionSource
	categories   CategorySource
	sink         RowAppender
}

func NewExportWorker(transactions TransactionSource, categories CategorySource, sink RowAppender) *ExportWorker {
	return &ExportWorker{
		transactions: transactions,
		categories:   categories,
		sink:         sink,
	}
}

// Handlers wires the worker methods into the consumer dispatch table.
func (w *ExportWorker) Handlers() amqp.Handlers {
	return amqp.Handlers{
		OnTransactionCreated: w.HandleTransactionCreated,
		OnUploadProcessed:    w.HandleUploadProcessed,
	}
}

// HandleTransactionCreated exports one transaction as a spreadsheet row. A
// transaction deleted before the event is consumed is skipped, not retried.
func (w *ExportWorker) HandleTransactionCreated(ctx context.Context, p amqp.TransactionCreatedPayload) error {
	tx, err := w.transactions.GetByID(ctx, p.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction deleted before export, skipping",
			"transaction_id", p.ID)
		return nil
	}
	if err != nil {
		return err
	}

	category := core.UncategorizedBucket
	if tx.CategoryID != nil {
		c, err := w.categories.GetByID(ctx, *tx.CategoryID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return err
		}
		if err == nil {
			category = c.Name
		}
	}

	row := []any{
		tx.Date.String(),
		tx.Amount.String(),
		tx.Description,
		category,
		tx.SourceApp,
	}
	if err := w.sink.AppendRow(ctx, row); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction exported",
		"transaction_id", tx.ID,
		"category", category)
	return nil
}

// HandleUploadProcessed logs the upload outcome for operators.
func (w *ExportWorker) HandleUploadProcessed(ctx context.Context, p amqp.UploadProcessedPayload) error {
	slog.InfoContext(ctx, "Upload processed",
		"upload_id", p.UploadID,
		"source_app", p.SourceApp,
		"extracted", p.Extracted,
		"duplicates", p.Duplicates)
	return nil
}
