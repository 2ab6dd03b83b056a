package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackExtractor_AmountMaxWins(t *testing.T) {
	e := NewFallbackExtractor()

	// Line amounts appear before the grand total; the maximum must win.
	bill := e.Extract("Rice 42.00\nDal 120.00\nGrand Total: ₹500.00")

	require.NotNil(t, bill.TotalAmount)
	assert.InDelta(t, 500.0, *bill.TotalAmount, 0.001)
}

func TestFallbackExtractor_GSTINUppercased(t *testing.T) {
	e := NewFallbackExtractor()

	bill := e.Extract("gstin: 27aaaaa0000a1z5")

	require.NotNil(t, bill.VendorGSTIN)
	assert.Equal(t, "27AAAAA0000A1Z5", *bill.VendorGSTIN)
}

func TestFallbackExtractor_EmptyInput(t *testing.T) {
	e := NewFallbackExtractor()

	bill := e.Extract("")

	require.NotNil(t, bill)
	assert.Nil(t, bill.TotalAmount)
	assert.Nil(t, bill.VendorName)
	assert.Nil(t, bill.VendorGSTIN)
	assert.Nil(t, bill.BillDate)
	assert.NotNil(t, bill.Items)
	assert.Empty(t, bill.Items)
	require.NotNil(t, bill.Confidence)
	assert.InDelta(t, 0.3, *bill.Confidence, 0.001)
}

func TestFallbackExtractor_DateKeptVerbatim(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled date", "Date: 15/04/2024", "15/04/2024"},
		{"bare slashed date", "some text 1-4-24 more", "1-4-24"},
		{"month name date", "Dated 15 Apr 2024", "15 Apr 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewFallbackExtractor()
			bill := e.Extract(tt.text)
			require.NotNil(t, bill.BillDate)
			assert.Equal(t, tt.want, *bill.BillDate)
		})
	}
}

func TestFallbackExtractor_VendorName(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "first plausible line wins",
			text: "Sharma Kirana Store\nDate: 15/04/2024\nTotal: 500",
			want: "Sharma Kirana Store",
		},
		{
			name: "label lines are skipped",
			text: "TAX INVOICE\nCASH MEMO\nGupta Traders\nTotal: 500",
			want: "Gupta Traders",
		},
		{
			name: "numeric lines are skipped",
			text: "12/04/2024\n₹ 500.00\nPatel Provision Mart",
			want: "Patel Provision Mart",
		},
		{
			name: "long names are truncated to 50 characters",
			text: strings.Repeat("A", 60),
			want: strings.Repeat("A", 50),
		},
		{
			name: "multi-byte names are truncated on rune boundaries",
			text: strings.Repeat("शर", 30) + " किराना",
			want: strings.Repeat("शर", 25),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewFallbackExtractor()
			bill := e.Extract(tt.text)
			require.NotNil(t, bill.VendorName)
			assert.Equal(t, tt.want, *bill.VendorName)
			assert.True(t, utf8.ValidString(*bill.VendorName))
		})
	}
}

func TestFallbackExtractor_GSTComponents(t *testing.T) {
	e := NewFallbackExtractor()

	bill := e.Extract("Subtotal: 100.00\nCGST @ 9%: 9.00\nSGST @ 9%: 9.00\nTotal: 118.00")

	require.NotNil(t, bill.Subtotal)
	assert.InDelta(t, 100.0, *bill.Subtotal, 0.001)
	require.NotNil(t, bill.CGSTAmount)
	assert.InDelta(t, 9.0, *bill.CGSTAmount, 0.001)
	require.NotNil(t, bill.SGSTAmount)
	assert.InDelta(t, 9.0, *bill.SGSTAmount, 0.001)
	assert.Nil(t, bill.IGSTAmount)
}

func TestFallbackExtractor_BillNumber(t *testing.T) {
	e := NewFallbackExtractor()

	bill := e.Extract("Invoice No: INV-2024/101\nTotal: 500")

	require.NotNil(t, bill.BillNumber)
	assert.Equal(t, "INV-2024/101", *bill.BillNumber)
}

func TestFallbackExtractor_ConfidenceCapsAtOne(t *testing.T) {
	e := NewFallbackExtractor()

	text := "Sharma Kirana Store\n" +
		"GSTIN: 27AAAAA0000A1Z5\n" +
		"Dt: 15/04/2024\n" +
		"CGST: 45.00\n" +
		"Grand Total: ₹545.00"
	bill := e.Extract(text)

	require.NotNil(t, bill.Confidence)
	assert.InDelta(t, 1.0, *bill.Confidence, 0.001)
}

func TestDetectAmount_FirstMatchNotMax(t *testing.T) {
	// The quick scan takes the first currency-looking amount while the
	// pipeline extraction takes the maximum.
	text := "Rs. 123.45 paid\nTotal: 999"

	detected := DetectAmount(text)
	require.NotNil(t, detected)
	assert.InDelta(t, 123.45, *detected, 0.001)

	extracted := NewFallbackExtractor().Extract(text)
	require.NotNil(t, extracted.TotalAmount)
	assert.InDelta(t, 999.0, *extracted.TotalAmount, 0.001)
}

func TestDetectAmount_NoMatch(t *testing.T) {
	assert.Nil(t, DetectAmount("no numbers to see"))
}
