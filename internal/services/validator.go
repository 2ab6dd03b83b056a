package services

import (
	"math"

	"github.com/ledgerly/bill-extraction-service/internal/models"
)

const (
	// baseConfidence is assumed when a record arrives without a score.
	baseConfidence = 0.5

	// minPlausibleTotal is the floor below which a bill total is treated
	// as implausible for a real transaction.
	minPlausibleTotal = 10.0

	// gstRateFloor and gstRateCeiling bound the legal Indian GST band.
	gstRateFloor   = 0.0
	gstRateCeiling = 28.0

	// totalMismatchTolerance is the relative tolerance for
	// subtotal + gst vs total.
	totalMismatchTolerance = 0.1
)

// Validator applies deterministic sanity rules to a structured bill record,
// adjusting its confidence and nulling implausible fields. Penalties stack;
// the final score is clamped into [0,1]. Validating an already-validated
// record is a no-op, so re-validation never accrues further penalties.
type Validator struct{}

// NewValidator creates a rule-based validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns a validated copy of bill. A nil record passes through as
// nil. The input record is not modified.
func (v *Validator) Validate(bill *models.BillExtraction) *models.BillExtraction {
	if bill == nil {
		return nil
	}
	if bill.Validated {
		return bill
	}

	out := *bill

	confidence := baseConfidence
	if out.Confidence != nil {
		confidence = *out.Confidence
	}

	// Derive the aggregate GST amount from the components when absent.
	if out.GSTAmount == nil {
		if sum, ok := out.GSTComponentSum(); ok {
			out.GSTAmount = &sum
		}
	}

	// Rule 1: totals below the floor are implausible.
	if out.TotalAmount != nil && *out.TotalAmount < minPlausibleTotal {
		confidence -= 0.2
	}

	// Rule 2: GST cannot exceed the total.
	if out.GSTAmount != nil && out.TotalAmount != nil && *out.GSTAmount > *out.TotalAmount {
		out.GSTAmount = nil
		confidence -= 0.15
	}

	// Rule 3: GST percentages outside the legal band are nulled, one
	// penalty per offending rate field.
	for _, rate := range []**float64{&out.CGSTRate, &out.SGSTRate, &out.IGSTRate} {
		if *rate != nil && (**rate < gstRateFloor || **rate > gstRateCeiling) {
			*rate = nil
			confidence -= 0.1
		}
	}

	// Rule 4: subtotal + GST should approximately equal the total.
	if out.Subtotal != nil && out.GSTAmount != nil && out.TotalAmount != nil {
		expected := *out.Subtotal + *out.GSTAmount
		if math.Abs(expected-*out.TotalAmount) > *out.TotalAmount*totalMismatchTolerance {
			confidence -= 0.15
		}
	}

	// Rule 5: a bill with no line items is suspicious.
	if len(out.Items) == 0 {
		confidence -= 0.1
	}

	confidence = clamp(confidence, 0.0, 1.0)
	out.Confidence = &confidence
	out.Validated = true

	return &out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
