package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledgerly/bill-extraction-service/internal/ai"
	"github.com/ledgerly/bill-extraction-service/internal/logger"
	"github.com/ledgerly/bill-extraction-service/internal/models"
	"github.com/ledgerly/bill-extraction-service/internal/services"
)

// ErrAmountNotFound means neither the AI path, the pattern fallback, nor a
// direct transcript scan produced a positive amount. This is the one place
// the pipeline fails a request instead of inventing an entry.
var ErrAmountNotFound = errors.New("could not extract amount from transcript")

// VoicePipeline runs the reduced extraction sequence for voice transcripts:
// AI on the transcript text only, no image and no verification pass, with a
// transcript-specific pattern fallback.
type VoicePipeline struct {
	extractor *ai.Extractor
	fallback  *services.VoiceFallbackExtractor
}

// NewVoicePipeline creates the voice orchestrator. extractor may be nil.
func NewVoicePipeline(extractor *ai.Extractor) *VoicePipeline {
	return &VoicePipeline{
		extractor: extractor,
		fallback:  services.NewVoiceFallbackExtractor(),
	}
}

// Run extracts an accounting entry from the transcript. The fallback covers
// AI failure and an AI amount of zero; if even a direct transcript scan
// finds no positive amount, ErrAmountNotFound is returned.
func (p *VoicePipeline) Run(ctx context.Context, transcript string) (*models.VoiceExtraction, error) {
	log := logger.GetLogger()

	var voice *models.VoiceExtraction
	if p.extractor != nil {
		extracted, err := p.extractor.ExtractVoice(ctx, transcript)
		switch {
		case err != nil:
			log.Infow("AI voice extraction failed, using pattern extraction", "error", err)
		case extracted.Amount <= 0:
			log.Infow("AI voice extraction found no amount, using pattern extraction")
		default:
			voice = extracted
		}
	}
	if voice == nil {
		voice = p.fallback.Extract(transcript)
	}

	if voice.EntryType != "income" && voice.EntryType != "expense" {
		voice.EntryType = "income"
	}

	if voice.Amount <= 0 {
		voice.Amount = services.DetectTranscriptAmount(transcript)
	}
	if voice.Amount <= 0 {
		return nil, ErrAmountNotFound
	}

	if voice.Note == "" {
		voice.Note = transcript
	}
	voice.Note = enrichNote(voice.Note, voice.Items)
	if voice.Items == nil {
		voice.Items = []models.VoiceItem{}
	}

	return voice, nil
}

// enrichNote appends an item summary to the note so the ledger entry is
// readable on its own: "5 kg chawal @ ₹100.00".
func enrichNote(note string, items []models.VoiceItem) string {
	if len(items) == 0 {
		return note
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		s := fmt.Sprintf("%g %s %s", qty, item.Unit, item.Name)
		if item.Price != nil {
			s = fmt.Sprintf("%s @ ₹%.2f", s, *item.Price)
		}
		parts = append(parts, strings.Join(strings.Fields(s), " "))
	}

	return fmt.Sprintf("%s | Items: %s", note, strings.Join(parts, ", "))
}
