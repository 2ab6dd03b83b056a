package models

// BillExtraction is the canonical structured record produced by the bill
// pipeline. Every optional field is a pointer so that "absent" and "zero"
// stay distinguishable across stages; consumers must handle nil.
type BillExtraction struct {
	VendorName  *string `json:"vendor_name"`
	VendorGSTIN *string `json:"vendor_gstin"`
	BillNumber  *string `json:"bill_number"`
	BillDate    *string `json:"bill_date"` // free-form, never normalized to a calendar type

	Items []LineItem `json:"items"` // never nil after normalization

	Subtotal *float64 `json:"subtotal"` // pre-tax taxable value

	CGSTRate   *float64 `json:"cgst_rate"`
	CGSTAmount *float64 `json:"cgst_amount"`
	SGSTRate   *float64 `json:"sgst_rate"`
	SGSTAmount *float64 `json:"sgst_amount"`
	IGSTRate   *float64 `json:"igst_rate"`
	IGSTAmount *float64 `json:"igst_amount"`

	TotalAmount *float64 `json:"total_amount"`

	// GSTAmount is the sum of the present CGST/SGST/IGST amounts. The
	// validator derives it when absent and may null it out (rule: GST
	// cannot exceed the total).
	GSTAmount *float64 `json:"gst_amount,omitempty"`

	// Confidence is attached only by the validator, absent from raw
	// extractions. Always clamped into [0,1] after validation.
	Confidence *float64 `json:"confidence,omitempty"`

	// Validated marks a record that already passed the rule-based
	// validator, so re-validation is a no-op instead of stacking
	// penalties. Not serialized.
	Validated bool `json:"-"`
}

// LineItem is one line of a bill.
type LineItem struct {
	Description string  `json:"description"`
	HSNCode     *string `json:"hsn_code"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

// GSTComponentSum returns the sum of the present tax component amounts and
// whether at least one component was present.
func (b *BillExtraction) GSTComponentSum() (float64, bool) {
	var sum float64
	var found bool
	for _, amt := range []*float64{b.CGSTAmount, b.SGSTAmount, b.IGSTAmount} {
		if amt != nil {
			sum += *amt
			found = true
		}
	}
	return sum, found
}

// VoiceExtraction is the transient record produced from one voice
// transcript. It is consumed immediately to build a ledger entry and never
// persisted in this shape.
type VoiceExtraction struct {
	EntryType string      `json:"entry_type"` // "income" or "expense"
	Amount    float64     `json:"amount"`
	Note      string      `json:"note"`
	Items     []VoiceItem `json:"items"`
}

// VoiceItem is a spoken line item ("5 kilo chawal").
type VoiceItem struct {
	Name     string   `json:"name"`
	Quantity float64  `json:"quantity"`
	Unit     string   `json:"unit"`
	Price    *float64 `json:"price"`
}
