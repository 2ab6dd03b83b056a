package services

import (
	"regexp"
	"strings"

	"github.com/ledgerly/bill-extraction-service/internal/models"
)

// currencyPatterns find spoken amounts in Hinglish transcripts, highest
// priority first: "500 rupaye", "rs 500", "500 ka".
var currencyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+(?:,\d+)*(?:\.\d+)?)\s*(?:rupaye|rupees|rupiya|rs\.?|₹)`),
	regexp.MustCompile(`(?:rupaye|rupees|rupiya|rs\.?|₹)\s*(\d+(?:,\d+)*(?:\.\d+)?)`),
	regexp.MustCompile(`(\d+(?:,\d+)*(?:\.\d+)?)\s*(?:ka|ke|ki|mein|me|में)`),
}

var anyNumberPattern = regexp.MustCompile(`(\d+(?:,\d+)*(?:\.\d+)?)`)

// voiceItemPattern spots "5 kilo chawal" style quantity/unit/name phrases.
var voiceItemPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(kg|kilo|gram|litre|liter|pcs|piece|packet|dozen)\s+([a-z]+)`)

var incomeKeywords = []string{
	"sold", "received", "income", "becha", "bech", "diya",
	"milaa", "mila", "aaya", "aayi", "payment received",
}

var expenseKeywords = []string{
	"bought", "purchased", "kharida", "liya", "spent", "paid", "expense",
}

// VoiceFallbackExtractor extracts an accounting entry from a voice
// transcript with keyword and pattern heuristics. Used when no AI provider
// is configured or the AI path failed or found no amount. Never fails; an
// amount of zero signals that nothing usable was found.
type VoiceFallbackExtractor struct{}

// NewVoiceFallbackExtractor creates a transcript pattern extractor.
func NewVoiceFallbackExtractor() *VoiceFallbackExtractor {
	return &VoiceFallbackExtractor{}
}

// Extract classifies the transcript as income or expense and detects the
// amount: currency-marked numbers first, then the largest bare number.
func (e *VoiceFallbackExtractor) Extract(transcript string) *models.VoiceExtraction {
	lower := strings.ToLower(transcript)

	var amount float64
	for _, pattern := range currencyPatterns {
		if m := pattern.FindStringSubmatch(lower); m != nil {
			if amt, ok := parseAmount(m[1]); ok {
				amount = amt
				break
			}
		}
	}

	// No currency marker: the largest number in the transcript is the
	// most likely amount.
	if amount == 0 {
		for _, m := range anyNumberPattern.FindAllStringSubmatch(transcript, -1) {
			if amt, ok := parseAmount(m[1]); ok && amt > amount {
				amount = amt
			}
		}
	}

	entryType := "expense"
	for _, keyword := range incomeKeywords {
		if strings.Contains(lower, keyword) {
			entryType = "income"
			break
		}
	}
	if entryType != "income" {
		for _, keyword := range expenseKeywords {
			if strings.Contains(lower, keyword) {
				entryType = "expense"
				break
			}
		}
	}

	return &models.VoiceExtraction{
		EntryType: entryType,
		Amount:    amount,
		Note:      transcript,
		Items:     e.extractItems(lower),
	}
}

func (e *VoiceFallbackExtractor) extractItems(lower string) []models.VoiceItem {
	items := []models.VoiceItem{}
	for _, m := range voiceItemPattern.FindAllStringSubmatch(lower, -1) {
		qty, ok := parseAmount(m[1])
		if !ok {
			continue
		}
		items = append(items, models.VoiceItem{
			Name:     m[3],
			Quantity: qty,
			Unit:     m[2],
		})
	}
	return items
}

// DetectTranscriptAmount is the last-ditch scan the voice pipeline runs when
// both AI and fallback extraction produced a non-positive amount: the first
// number in the raw transcript.
func DetectTranscriptAmount(transcript string) float64 {
	if m := anyNumberPattern.FindStringSubmatch(transcript); m != nil {
		if amt, ok := parseAmount(m[1]); ok {
			return amt
		}
	}
	return 0
}
