package ai

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ledgerly/bill-extraction-service/internal/models"
)

// ErrUnparsableResponse means no stage of response cleanup recovered a valid
// JSON object. Callers must treat this as an extraction failure, never as
// partial data.
var ErrUnparsableResponse = errors.New("ai response contains no parsable JSON object")

// ExtractJSONObject recovers the single JSON object a model response is
// supposed to contain, tolerating code fences, a leading "json" label, and
// surrounding prose. Stages, in order: strict parse of the trimmed text,
// first fenced segment starting with "{", label strip and re-parse, and as a
// last resort the first balanced {...} span.
func ExtractJSONObject(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	if isJSONObject(cleaned) {
		return cleaned, nil
	}

	if strings.Contains(cleaned, "```") {
		for _, part := range strings.Split(cleaned, "```") {
			part = strings.TrimSpace(part)
			part = strings.TrimSpace(strings.TrimPrefix(part, "json"))
			if strings.HasPrefix(part, "{") {
				cleaned = part
				break
			}
		}
	}

	cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "json"))
	if isJSONObject(cleaned) {
		return cleaned, nil
	}

	if span := firstObjectSpan(cleaned); isJSONObject(span) {
		return span, nil
	}

	return "", ErrUnparsableResponse
}

func isJSONObject(s string) bool {
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}

// firstObjectSpan returns the first brace-balanced {...} span in s, tracking
// string literals so braces inside values do not break the balance.
func firstObjectSpan(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// rawBill mirrors the extraction schema with untyped numbers, since models
// return amounts as numbers, quoted numbers, or strings with thousands
// separators.
type rawBill struct {
	VendorName  *string       `json:"vendor_name"`
	VendorGSTIN *string       `json:"vendor_gstin"`
	BillNumber  *string       `json:"bill_number"`
	BillDate    *string       `json:"bill_date"`
	Items       []rawLineItem `json:"items"`
	Subtotal    interface{}   `json:"subtotal"`
	CGSTRate    interface{}   `json:"cgst_rate"`
	CGSTAmount  interface{}   `json:"cgst_amount"`
	SGSTRate    interface{}   `json:"sgst_rate"`
	SGSTAmount  interface{}   `json:"sgst_amount"`
	IGSTRate    interface{}   `json:"igst_rate"`
	IGSTAmount  interface{}   `json:"igst_amount"`
	TotalAmount interface{}   `json:"total_amount"`
}

type rawLineItem struct {
	Description string      `json:"description"`
	HSNCode     *string     `json:"hsn_code"`
	Quantity    interface{} `json:"quantity"`
	Rate        interface{} `json:"rate"`
	Amount      interface{} `json:"amount"`
}

// ParseBillResponse cleans a raw model response and coerces it into a
// BillExtraction. Items is never nil on success.
func ParseBillResponse(raw string) (*models.BillExtraction, error) {
	jsonText, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var rb rawBill
	if err := json.Unmarshal([]byte(jsonText), &rb); err != nil {
		return nil, ErrUnparsableResponse
	}

	bill := &models.BillExtraction{
		VendorName:  cleanStringPtr(rb.VendorName),
		VendorGSTIN: cleanStringPtr(rb.VendorGSTIN),
		BillNumber:  cleanStringPtr(rb.BillNumber),
		BillDate:    cleanStringPtr(rb.BillDate),
		Subtotal:    toFloatPtr(rb.Subtotal),
		CGSTRate:    toFloatPtr(rb.CGSTRate),
		CGSTAmount:  toFloatPtr(rb.CGSTAmount),
		SGSTRate:    toFloatPtr(rb.SGSTRate),
		SGSTAmount:  toFloatPtr(rb.SGSTAmount),
		IGSTRate:    toFloatPtr(rb.IGSTRate),
		IGSTAmount:  toFloatPtr(rb.IGSTAmount),
		TotalAmount: toFloatPtr(rb.TotalAmount),
		Items:       make([]models.LineItem, 0, len(rb.Items)),
	}

	for _, ri := range rb.Items {
		bill.Items = append(bill.Items, models.LineItem{
			Description: ri.Description,
			HSNCode:     cleanStringPtr(ri.HSNCode),
			Quantity:    toFloat(ri.Quantity),
			Rate:        toFloat(ri.Rate),
			Amount:      toFloat(ri.Amount),
		})
	}

	return bill, nil
}

type rawVoice struct {
	EntryType string         `json:"entry_type"`
	Amount    interface{}    `json:"amount"`
	Note      string         `json:"note"`
	Items     []rawVoiceItem `json:"items"`
}

type rawVoiceItem struct {
	Name     string      `json:"name"`
	Quantity interface{} `json:"quantity"`
	Unit     string      `json:"unit"`
	Price    interface{} `json:"price"`
}

// ParseVoiceResponse cleans a raw model response and coerces it into a
// VoiceExtraction.
func ParseVoiceResponse(raw string) (*models.VoiceExtraction, error) {
	jsonText, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var rv rawVoice
	if err := json.Unmarshal([]byte(jsonText), &rv); err != nil {
		return nil, ErrUnparsableResponse
	}

	voice := &models.VoiceExtraction{
		EntryType: rv.EntryType,
		Amount:    toFloat(rv.Amount),
		Note:      rv.Note,
		Items:     make([]models.VoiceItem, 0, len(rv.Items)),
	}
	for _, ri := range rv.Items {
		voice.Items = append(voice.Items, models.VoiceItem{
			Name:     ri.Name,
			Quantity: toFloat(ri.Quantity),
			Unit:     ri.Unit,
			Price:    toFloatPtr(ri.Price),
		})
	}

	return voice, nil
}

// toDecimal coerces a loosely typed JSON value into a decimal. Supports
// numbers, strings with thousands commas, and json.Number.
func toDecimal(v interface{}) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		if cleaned == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case json.Number:
		d, err := decimal.NewFromString(string(val))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// toFloatPtr returns nil for absent or uncoercible values, keeping "absent"
// distinct from zero.
func toFloatPtr(v interface{}) *float64 {
	if v == nil {
		return nil
	}
	d, ok := toDecimal(v)
	if !ok {
		return nil
	}
	f, _ := d.Float64()
	return &f
}

func toFloat(v interface{}) float64 {
	if p := toFloatPtr(v); p != nil {
		return *p
	}
	return 0
}

// cleanStringPtr normalizes empty strings to absent, since the prompt schema
// uses "" as its placeholder.
func cleanStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
