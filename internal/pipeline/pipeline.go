// Package pipeline sequences the extraction stages for bill uploads and
// voice transcripts: normalization, AI extraction, self-verification,
// fallback pattern extraction, validation, and item backfill.
package pipeline

import (
	"context"
	"os"

	"github.com/ledgerly/bill-extraction-service/internal/ai"
	"github.com/ledgerly/bill-extraction-service/internal/logger"
	"github.com/ledgerly/bill-extraction-service/internal/models"
	"github.com/ledgerly/bill-extraction-service/internal/ocr"
	"github.com/ledgerly/bill-extraction-service/internal/services"
)

// ExtractionSource records which path produced the final record.
type ExtractionSource string

const (
	SourceAI       ExtractionSource = "ai"
	SourceFallback ExtractionSource = "fallback"
)

// aiOutcome is the explicit result of an AI extraction attempt, so the
// fallback decision below is a decision table rather than error plumbing.
type aiOutcome int

const (
	// outcomeExtracted: usable structured data came back.
	outcomeExtracted aiOutcome = iota
	// outcomeLowValue: the call succeeded but yielded neither a total
	// nor items; treated the same as failure.
	outcomeLowValue
	// outcomeFailed: transport or parse failure.
	outcomeFailed
)

// BillResult is what the orchestrator hands to the persistence layer.
type BillResult struct {
	Bill   *models.BillExtraction
	Source ExtractionSource
}

// BillPipeline runs the full bill extraction sequence. With a nil extractor
// (no AI credentials) it skips every AI stage and runs pattern extraction
// only.
type BillPipeline struct {
	extractor    *ai.Extractor
	preprocessor *ocr.Preprocessor
	fallback     *services.FallbackExtractor
	validator    *services.Validator
}

// NewBillPipeline creates the bill orchestrator. extractor may be nil.
func NewBillPipeline(extractor *ai.Extractor) *BillPipeline {
	return &BillPipeline{
		extractor:    extractor,
		preprocessor: ocr.NewPreprocessor(),
		fallback:     services.NewFallbackExtractor(),
		validator:    services.NewValidator(),
	}
}

// Run takes the uploaded image and its OCR text through extraction,
// validation, and item backfill. detectedAmount is the caller's quick scan
// of the OCR text; it only prices the inferred item when extraction found
// no total. Run always produces a record; AI problems are recovered via the
// pattern extractor, never surfaced.
func (p *BillPipeline) Run(ctx context.Context, imagePath, ocrText string, detectedAmount *float64) *BillResult {
	bill, source := p.extract(ctx, imagePath, ocrText)
	bill = p.validator.Validate(bill)
	p.backfillItems(bill, detectedAmount)
	return &BillResult{Bill: bill, Source: source}
}

func (p *BillPipeline) extract(ctx context.Context, imagePath, ocrText string) (*models.BillExtraction, ExtractionSource) {
	log := logger.GetLogger()

	if p.extractor == nil {
		return p.fallback.Extract(ocrText), SourceFallback
	}

	// The derived artifact lives only for this request.
	processedPath := p.preprocessor.Prepare(imagePath)
	defer p.preprocessor.Cleanup(imagePath, processedPath)

	image, err := os.ReadFile(processedPath)
	if err != nil {
		log.Warnw("cannot read image for AI extraction, using pattern extraction",
			"path", processedPath, "error", err)
		return p.fallback.Extract(ocrText), SourceFallback
	}

	bill, outcome := p.tryAI(ctx, ocrText, image)
	if outcome != outcomeExtracted {
		return p.fallback.Extract(ocrText), SourceFallback
	}

	// Verification runs only on AI-extracted records, never on fallback
	// output, and keeps the first pass on any failure.
	bill = p.extractor.VerifyBill(ctx, bill, image)

	return bill, SourceAI
}

func (p *BillPipeline) tryAI(ctx context.Context, ocrText string, image []byte) (*models.BillExtraction, aiOutcome) {
	log := logger.GetLogger()

	bill, err := p.extractor.ExtractBill(ctx, ocrText, image)
	if err != nil {
		log.Infow("AI extraction failed, falling back to pattern extraction", "error", err)
		return nil, outcomeFailed
	}

	if (bill.TotalAmount == nil || *bill.TotalAmount == 0) && len(bill.Items) == 0 {
		log.Infow("AI extraction returned no usable total and no items, falling back")
		return bill, outcomeLowValue
	}

	return bill, outcomeExtracted
}

// backfillItems synthesizes a single inferred line item when no items were
// extracted, so downstream ledger views always have at least one line to
// show. The validated total prices the item; the quick detected amount is
// the last resort when extraction found no total.
func (p *BillPipeline) backfillItems(bill *models.BillExtraction, detectedAmount *float64) {
	if bill == nil || len(bill.Items) > 0 {
		return
	}
	amount := 0.0
	if bill.TotalAmount != nil {
		amount = *bill.TotalAmount
	}
	if amount == 0 && detectedAmount != nil {
		amount = *detectedAmount
	}
	if amount <= 0 {
		return
	}
	bill.Items = []models.LineItem{{
		Description: "Inferred item",
		Quantity:    1,
		Rate:        amount,
		Amount:      amount,
	}}
}
