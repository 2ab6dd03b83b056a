package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ledgerly/bill-extraction-service/internal/logger"
	"github.com/ledgerly/bill-extraction-service/internal/models"
)

// Extractor runs structured extraction through an AI provider: a first pass
// from OCR text plus the bill image, and a best-effort self-verification
// pass that feeds the first extraction back to the model for auditing.
type Extractor struct {
	provider Provider
}

// NewExtractor creates an extractor over the given provider.
func NewExtractor(provider Provider) *Extractor {
	return &Extractor{provider: provider}
}

// ExtractBill performs the first extraction pass. Any transport or parse
// failure comes back as an error so the caller can fall back to pattern
// extraction; the raw response never leaks past this boundary.
func (e *Extractor) ExtractBill(ctx context.Context, ocrText string, image []byte) (*models.BillExtraction, error) {
	prompt := buildExtractionPrompt(ocrText)

	raw, err := e.provider.Generate(ctx, prompt, image)
	if err != nil {
		return nil, fmt.Errorf("bill extraction call failed: %w", err)
	}

	bill, err := ParseBillResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("bill extraction response: %w", err)
	}

	return bill, nil
}

// VerifyBill issues the second, auditing pass against the original image.
// Strictly best-effort: on any failure the first-pass extraction is kept.
func (e *Extractor) VerifyBill(ctx context.Context, bill *models.BillExtraction, image []byte) *models.BillExtraction {
	log := logger.GetLogger()

	extractedJSON, err := json.MarshalIndent(bill, "", "  ")
	if err != nil {
		return bill
	}

	raw, err := e.provider.Generate(ctx, buildVerificationPrompt(string(extractedJSON)), image)
	if err != nil {
		log.Debugw("verification pass failed, keeping first extraction", "error", err)
		return bill
	}

	verified, err := ParseBillResponse(raw)
	if err != nil {
		log.Debugw("verification response unusable, keeping first extraction", "error", err)
		return bill
	}

	return verified
}

// ExtractVoice extracts an accounting entry from a voice transcript. No
// image and no verification pass; failures surface as errors for the
// caller's fallback.
func (e *Extractor) ExtractVoice(ctx context.Context, transcript string) (*models.VoiceExtraction, error) {
	raw, err := e.provider.Generate(ctx, buildVoicePrompt(transcript), nil)
	if err != nil {
		return nil, fmt.Errorf("voice extraction call failed: %w", err)
	}

	voice, err := ParseVoiceResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("voice extraction response: %w", err)
	}

	return voice, nil
}
