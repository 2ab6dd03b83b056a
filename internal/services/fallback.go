package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ledgerly/bill-extraction-service/internal/models"
)

// amountPatterns are tried in priority order: labeled totals first, then
// currency-marked amounts, then anything decimal-looking, then any 3+ digit
// number. All matches across every pattern are collected and the maximum
// wins, since bills print line amounts before the grand total.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Grand\s*Total|Net\s*Amount|Total\s*Amount|Amount\s*Payable)[:\s]*(?:₹|Rs\.?|INR)?\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)(?:Grand\s*Total|Net\s*Amount|Total\s*Amount|Amount\s*Payable)[:\s]*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)(?:₹|Rs\.?|INR)\s*([\d,]+\.?\d*)\s*(?:only|/-)?`),
	regexp.MustCompile(`(?i)Total[:\s]*(?:₹|Rs\.?|INR)?\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)Amount[:\s]*(?:₹|Rs\.?|INR)?\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)(?:₹|Rs\.?|INR)\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`\b([\d,]+\.\d{2})\b`),
	regexp.MustCompile(`\b(\d{3,}(?:,\d{3})*(?:\.\d{2})?)\b`),
}

// gstinPattern matches India's 15-character GSTIN on uppercased text.
var gstinPattern = regexp.MustCompile(`\b(\d{2}[A-Z]{5}\d{4}[A-Z]\d[A-Z\d]{2})\b`)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Date|Dt\.?|Dated)[:\s]*(\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4})`),
	regexp.MustCompile(`(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`),
	regexp.MustCompile(`(\d{4}[-/]\d{1,2}[-/]\d{1,2})`),
	regexp.MustCompile(`(?i)(\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{2,4})`),
}

var billNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Invoice|Bill|Receipt)\s*(?:No\.?|Number|#)[:\s]*([A-Z0-9\-/]+)`),
	regexp.MustCompile(`(?i)(?:No\.?|#)[:\s]*([A-Z0-9\-/]{3,})`),
}

var (
	cgstPattern     = regexp.MustCompile(`(?i)CGST[:\s@%\d]*(?:₹|Rs\.?)?\s*([\d,]+\.?\d*)`)
	sgstPattern     = regexp.MustCompile(`(?i)SGST[:\s@%\d]*(?:₹|Rs\.?)?\s*([\d,]+\.?\d*)`)
	igstPattern     = regexp.MustCompile(`(?i)IGST[:\s@%\d]*(?:₹|Rs\.?)?\s*([\d,]+\.?\d*)`)
	subtotalPattern = regexp.MustCompile(`(?i)(?:Sub\s*Total|Taxable\s*(?:Value|Amount))[:\s]*(?:₹|Rs\.?)?\s*([\d,]+\.?\d*)`)
)

// numericLinePattern matches lines that are purely digits, punctuation and
// currency symbols; those are never vendor names.
var numericLinePattern = regexp.MustCompile(`^[\d\s\-/.,:₹]+$`)

// vendorSkipLabels disqualify a line from being a vendor name.
var vendorSkipLabels = []string{
	"invoice", "bill", "date", "gst", "total", "amount",
	"tax", "receipt", "cash", "credit", "payment",
}

// FallbackExtractor extracts bill fields from raw OCR text with regex
// heuristics only. It serves both as the sole extraction path when no AI
// provider is configured and as the repair path when AI output is unusable.
// It never fails: any input, including the empty string, yields a record.
type FallbackExtractor struct{}

// NewFallbackExtractor creates a deterministic text-pattern extractor.
func NewFallbackExtractor() *FallbackExtractor {
	return &FallbackExtractor{}
}

// Extract runs every field heuristic over ocrText and assembles the result
// with a heuristic confidence score. Fields with no match stay nil.
func (e *FallbackExtractor) Extract(ocrText string) *models.BillExtraction {
	bill := &models.BillExtraction{
		Items: []models.LineItem{},
	}

	bill.TotalAmount = e.extractAmount(ocrText)
	bill.VendorGSTIN = e.extractGSTIN(ocrText)
	bill.BillDate = firstMatch(datePatterns, ocrText)
	bill.BillNumber = firstMatch(billNumberPatterns, ocrText)
	bill.CGSTAmount = matchAmount(cgstPattern, ocrText)
	bill.SGSTAmount = matchAmount(sgstPattern, ocrText)
	bill.IGSTAmount = matchAmount(igstPattern, ocrText)
	bill.Subtotal = matchAmount(subtotalPattern, ocrText)
	bill.VendorName = e.extractVendorName(ocrText)

	confidence := e.scoreConfidence(bill)
	bill.Confidence = &confidence

	return bill
}

// extractAmount collects every positive parseable match from every amount
// pattern and returns the maximum, or nil when nothing matched.
func (e *FallbackExtractor) extractAmount(ocrText string) *float64 {
	var best *float64
	for _, pattern := range amountPatterns {
		for _, m := range pattern.FindAllStringSubmatch(ocrText, -1) {
			amt, ok := parseAmount(m[1])
			if !ok || amt <= 0 {
				continue
			}
			if best == nil || amt > *best {
				v := amt
				best = &v
			}
		}
	}
	return best
}

func (e *FallbackExtractor) extractGSTIN(ocrText string) *string {
	m := gstinPattern.FindStringSubmatch(strings.ToUpper(ocrText))
	if m == nil {
		return nil
	}
	gstin := m[1]
	return &gstin
}

// extractVendorName scans the first 10 lines for the first line that looks
// like a business name: long enough, not a known label, not pure numbers.
func (e *FallbackExtractor) extractVendorName(ocrText string) *string {
	lines := strings.Split(ocrText, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) < 3 {
			continue
		}
		lower := strings.ToLower(line)
		if containsAny(lower, vendorSkipLabels) {
			continue
		}
		if numericLinePattern.MatchString(line) {
			continue
		}
		name := truncate(line, 50)
		return &name
	}
	return nil
}

// scoreConfidence builds the heuristic score for a pattern-extracted record:
// 0.3 base, plus bonuses per recovered field, capped at 1.0.
func (e *FallbackExtractor) scoreConfidence(bill *models.BillExtraction) float64 {
	confidence := 0.3
	if bill.TotalAmount != nil && *bill.TotalAmount > 10 {
		confidence += 0.25
	}
	if bill.VendorGSTIN != nil {
		confidence += 0.15
	}
	if bill.BillDate != nil {
		confidence += 0.1
	}
	if bill.VendorName != nil {
		confidence += 0.1
	}
	if bill.CGSTAmount != nil || bill.SGSTAmount != nil || bill.IGSTAmount != nil {
		confidence += 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// detectPatterns is the quick first-match scan stored on the bill record as
// detected_amount, kept separate from the max-wins pipeline extraction so
// reviewers can compare the two.
var detectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:₹|Rs\.?|INR)\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)Total[:\s]*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)Amount[:\s]*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)Grand\s*Total[:\s]*([\d,]+\.?\d*)`),
	regexp.MustCompile(`\b([\d,]+\.\d{2})\b`),
}

// DetectAmount returns the first currency-looking amount in ocrText, or nil.
func DetectAmount(ocrText string) *float64 {
	for _, pattern := range detectPatterns {
		if m := pattern.FindStringSubmatch(ocrText); m != nil {
			if amt, ok := parseAmount(m[1]); ok {
				return &amt
			}
		}
	}
	return nil
}

func firstMatch(patterns []*regexp.Regexp, text string) *string {
	for _, pattern := range patterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			v := m[1]
			return &v
		}
	}
	return nil
}

func matchAmount(pattern *regexp.Regexp, text string) *float64 {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	amt, ok := parseAmount(m[1])
	if !ok {
		return nil
	}
	return &amt
}

// parseAmount parses a matched numeric string, tolerating thousands commas.
// Unparseable matches are discarded silently.
func parseAmount(s string) (float64, bool) {
	cleaned := strings.ReplaceAll(s, ",", "")
	if cleaned == "" {
		return 0, false
	}
	amt, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return amt, true
}

func containsAny(s string, labels []string) bool {
	for _, label := range labels {
		if strings.Contains(s, label) {
			return true
		}
	}
	return false
}

// truncate shortens s to at most n characters, cutting on rune boundaries so
// multi-byte vendor names never end in a partial rune.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
