package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"duit/internal/core"
)

// UploadStore is the upload-history repository surface.
type UploadStore interface {
	Create(ctx context.Context, sourceApp, screenshotHash string) (core.UploadRecord, error)
	GetByHash(ctx context.Context, screenshotHash string) (core.UploadRecord, error)
	UpdateCounts(ctx context.Context, id int64, extracted, duplicates int) (bool, error)
}

// ScreenshotParser extracts transaction candidates from a screenshot image.
type ScreenshotParser interface {
	ParseScreenshot(ctx context.Context, image []byte, sourceApp string) ([]core.ParsedTransaction, error)
}

// DuplicateChecker finds the stored original a candidate duplicates, if any.
type DuplicateChecker interface {
	Check(ctx context.Context, candidate core.ParsedTransaction, sourceApp string) (*core.Transaction, error)
}

// UploadService runs the screenshot pipeline: dedupe the image by content
// hash, persist it, parse it, flag duplicate candidates and record the
// counters. Nothing is written to the transactions table here; the parsed
// candidates go back to the client for review.
type UploadService struct {
	uploads   UploadStore
	parser    ScreenshotParser
	checker   DuplicateChecker
	publisher Publisher // may be nil
	uploadDir string
}

func NewUploadService(uploads UploadStore, parser ScreenshotParser, checker DuplicateChecker, publisher Publisher, uploadDir string) *UploadService {
	return &UploadService{
		uploads:   uploads,
		parser:    parser,
		checker:   checker,
		publisher: publisher,
		uploadDir: uploadDir,
	}
}

// ProcessScreenshot handles one uploaded image. An image whose hash was
// already processed yields core.ErrConflict.
func (s *UploadService) ProcessScreenshot(ctx context.Context, image []byte, sourceApp string) (core.ProcessingResult, error) {
	sum := sha256.Sum256(image)
	hash := hex.EncodeToString(sum[:])

	if _, err := s.uploads.GetByHash(ctx, hash); err == nil {
		return core.ProcessingResult{}, core.ErrConflict
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.ProcessingResult{}, err
	}

	if err := s.saveImage(image); err != nil {
		// The stored file is an audit trail, not the source of truth.
		slog.WarnContext(ctx, "Failed to save screenshot file", "error", err)
	}

	record, err := s.uploads.Create(ctx, sourceApp, hash)
	if err != nil {
		// Lost the race with a concurrent identical upload.
		return core.ProcessingResult{}, err
	}

	candidates, err := s.parser.ParseScreenshot(ctx, image, sourceApp)
	if err != nil {
		return core.ProcessingResult{}, fmt.Errorf("parse screenshot: %w", err)
	}

	result := core.ProcessingResult{UploadID: record.ID}
	duplicates := 0
	for _, candidate := range candidates {
		item := core.ReviewItem{Transaction: candidate}
		original, err := s.checker.Check(ctx, candidate, sourceApp)
		if err != nil {
			return core.ProcessingResult{}, err
		}
		if original != nil {
			item.IsDuplicate = true
			item.DuplicateOf = &original.ID
			duplicates++
		}
		result.Transactions = append(result.Transactions, item)
	}

	if _, err := s.uploads.UpdateCounts(ctx, record.ID, len(candidates), duplicates); err != nil {
		slog.ErrorContext(ctx, "Failed to update upload counters",
			"upload_id", record.ID, "error", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishUploadProcessed(ctx, record.ID, sourceApp, len(candidates), duplicates); err != nil {
			slog.ErrorContext(ctx, "Failed to publish upload.processed",
				"upload_id", record.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Screenshot processed",
		"upload_id", record.ID,
		"source_app", sourceApp,
		"extracted", len(candidates),
		"duplicates", duplicates)

	return result, nil
}

func (s *UploadService) saveImage(image []byte) error {
	if s.uploadDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	name := uuid.NewString() + extensionFor(image)
	path := filepath.Join(s.uploadDir, name)
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

func extensionFor(image []byte) string {
	switch http.DetectContentType(image) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
