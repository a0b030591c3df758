// Package parser extracts transaction candidates from bank and e-wallet
// screenshots. Implementations share one contract: given image bytes and a
// source-app label, produce a list of parsed transactions for review.
package parser

import (
	"context"
	"fmt"

	"duit/internal/core"
)

// Parser turns a screenshot into transaction candidates.
type Parser interface {
	ParseScreenshot(ctx context.Context, image []byte, sourceApp string) ([]core.ParsedTransaction, error)
}

// Config selects and configures a parser implementation.
type Config struct {
	Provider     string // "gemini" or "none"
	GeminiAPIKey string
}

// New builds the parser named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Parser, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(ctx, cfg.GeminiAPIKey)
	case "none", "":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown parser provider %q", cfg.Provider)
	}
}

// Noop is the disabled parser: every screenshot yields no candidates.
type Noop struct{}

func (Noop) ParseScreenshot(ctx context.Context, image []byte, sourceApp string) ([]core.ParsedTransaction, error) {
	return nil, nil
}
