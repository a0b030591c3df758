package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"duit/internal/core"
)

const geminiModel = "gemini-2.5-flash"

// Gemini parses screenshots with the Gemini vision model. The model is
// instructed to answer with a strict JSON array; responses are cleaned of
// stray code fences before decoding.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini parser: API key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: geminiModel}, nil
}

func (g *Gemini) ParseScreenshot(ctx context.Context, image []byte, sourceApp string) ([]core.ParsedTransaction, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildPrompt(sourceApp)},
				{
					InlineData: &genai.Blob{
						MIMEType: http.DetectContentType(image),
						Data:     image,
					},
				},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	items, err := decodeModelResponse(raw)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Screenshot parsed",
		"source_app", sourceApp,
		"model", g.model,
		"candidates", len(items))

	return items, nil
}

// modelItem is the wire shape the prompt demands from the model.
type modelItem struct {
	Date          string  `json:"date"`
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`
	TargetAccount *string `json:"target_account"`
	PaymentMethod *string `json:"payment_method"`
}

// decodeModelResponse strips Markdown fences the model sometimes adds
// despite instructions, then decodes and converts the array. Items the
// model mangled (bad date, zero amount, empty description) are dropped
// rather than failing the whole screenshot.
func decodeModelResponse(raw string) ([]core.ParsedTransaction, error) {
	clean := stripFences(raw)

	var items []modelItem
	if err := json.Unmarshal([]byte(clean), &items); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}

	var out []core.ParsedTransaction
	for _, item := range items {
		date, err := core.ParseDate(item.Date)
		if err != nil {
			continue
		}
		amount := core.Money{Cents: core.CentsFromFloat(item.Amount)}
		if amount.Cents == 0 || strings.TrimSpace(item.Description) == "" {
			continue
		}
		out = append(out, core.ParsedTransaction{
			Date:          date,
			Amount:        amount,
			Description:   strings.TrimSpace(item.Description),
			TargetAccount: item.TargetAccount,
			PaymentMethod: item.PaymentMethod,
		})
	}
	return out, nil
}

// stripFences removes ```json ... ``` wrappers and keeps only the content
// between the first '[' and the last ']'.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
