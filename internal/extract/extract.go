// Package extract turns Telegram voice messages into transaction
// candidates using the Gemini API.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"

	"hisobchi/internal/core"
)

const extractionPrompt = `Analyze this voice message and extract financial transactions.
Context: The user is speaking Uzbek.

Identify multiple transactions if present.
For each transaction determine:
1. "type": is it "income" (kirim, oldim, tushdi, oylik) or "expense" (chiqim, ishlatdim, ketdi, harajat)?
2. "amount": the numeric value nicely formatted (integers).
3. "description": short summary of what it is.

Return STRICT JSON ARRAY like this:
[
    {"type": "income", "amount": 50000, "description": "Oylik"},
    {"type": "expense", "amount": 20000, "description": "Taksi"}
]

If no numbers found or unclear, return: {"error": "tushunarsiz"}`

// Extractor talks to Gemini with a pool of rotating API keys.
type Extractor struct {
	pool    *KeyPool
	model   string
	timeout time.Duration
}

func NewExtractor(pool *KeyPool, model string, timeout time.Duration) *Extractor {
	return &Extractor{pool: pool, model: model, timeout: timeout}
}

// ExtractVoice sends the audio to Gemini and parses the reply into
// transaction candidates. A quota error rotates to the next key; only
// when every key is benched does the call fail with ErrKeysExhausted.
func (e *Extractor) ExtractVoice(ctx context.Context, audio []byte, mimeType string) ([]core.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	for {
		key, err := e.pool.Next()
		if err != nil {
			return nil, err
		}

		candidates, err := e.callGemini(ctx, key, audio, mimeType)
		switch {
		case err == nil:
			return candidates, nil
		case errors.Is(err, context.DeadlineExceeded):
			return nil, core.ErrExtractionTimeout
		case isQuotaError(err):
			slog.WarnContext(ctx, "Extraction key exhausted, rotating", "error", err)
			e.pool.MarkExhausted(key)
			continue
		default:
			return nil, err
		}
	}
}

func (e *Extractor) callGemini(ctx context.Context, apiKey string, audio []byte, mimeType string) ([]core.Transaction, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(e.model)
	resp, err := model.GenerateContent(ctx,
		genai.Text(extractionPrompt),
		genai.Blob{MIMEType: mimeType, Data: audio})
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, core.ErrExtractionUnintelligible
	}
	text := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	return parseCandidates(text)
}

// The amount stays raw: the model is asked for bare numbers but renders
// them as quoted strings often enough that both must decode.
type rawCandidate struct {
	Type        string          `json:"type"`
	Amount      json.RawMessage `json:"amount"`
	Description string          `json:"description"`
	Error       string          `json:"error"`
}

// parseCandidates decodes the model's reply. The model is asked for a
// strict JSON array but sometimes returns a lone object or wraps the
// payload in a markdown fence; both are tolerated.
func parseCandidates(text string) ([]core.Transaction, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var raw []rawCandidate
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		var single rawCandidate
		if err := json.Unmarshal([]byte(cleaned), &single); err != nil {
			return nil, core.ErrExtractionUnintelligible
		}
		raw = []rawCandidate{single}
	}

	var out []core.Transaction
	for _, rc := range raw {
		if rc.Error != "" {
			return nil, core.ErrExtractionUnintelligible
		}
		kind := core.TransactionKind(rc.Type)
		if !kind.Valid() {
			continue
		}
		d, err := decimal.NewFromString(strings.Trim(string(rc.Amount), `"`))
		if err != nil {
			continue
		}
		amount, err := core.MoneyFromDecimal(d)
		if err != nil {
			continue
		}
		desc := strings.TrimSpace(rc.Description)
		if desc == "" {
			continue
		}
		out = append(out, core.Transaction{
			Kind:        kind,
			Amount:      amount,
			Currency:    core.UZS,
			Description: desc,
		})
	}
	if len(out) == 0 {
		return nil, core.ErrExtractionUnintelligible
	}
	return out, nil
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "quota")
}
