package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "clean object passes through",
			raw:  `{"total_amount": 10}`,
			want: `{"total_amount": 10}`,
		},
		{
			name: "fenced json block",
			raw:  "```json\n{\"total_amount\": 10}\n```",
			want: `{"total_amount": 10}`,
		},
		{
			name: "fence without language label",
			raw:  "```\n{\"total_amount\": 10}\n```",
			want: `{"total_amount": 10}`,
		},
		{
			name: "leading json label without fences",
			raw:  "json\n{\"total_amount\": 10}",
			want: `{"total_amount": 10}`,
		},
		{
			name: "object surrounded by prose",
			raw:  `Here is the extraction: {"total_amount": 10} hope that helps`,
			want: `{"total_amount": 10}`,
		},
		{
			name: "braces inside string values do not break the span",
			raw:  `Result: {"vendor_name": "A {B} C", "total_amount": 10} done`,
			want: `{"vendor_name": "A {B} C", "total_amount": 10}`,
		},
		{
			name:    "no object at all",
			raw:     "I could not read the bill, sorry.",
			wantErr: true,
		},
		{
			name:    "unbalanced braces",
			raw:     `{"total_amount": 10`,
			wantErr: true,
		},
		{
			name:    "empty response",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnparsableResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBillResponse(t *testing.T) {
	raw := "```json\n" + `{
		"vendor_name": "Sharma Kirana Store",
		"vendor_gstin": "",
		"bill_number": "INV-101",
		"bill_date": "15/04/2024",
		"items": [
			{"description": "Rice", "hsn_code": "1006", "quantity": 5, "rate": "60", "amount": "300"}
		],
		"subtotal": "1,234.56",
		"cgst_rate": 9,
		"cgst_amount": "111.11",
		"total_amount": 1456.78
	}` + "\n```"

	bill, err := ParseBillResponse(raw)
	require.NoError(t, err)

	require.NotNil(t, bill.VendorName)
	assert.Equal(t, "Sharma Kirana Store", *bill.VendorName)

	// Empty-string placeholders become absent, not empty.
	assert.Nil(t, bill.VendorGSTIN)

	require.NotNil(t, bill.Subtotal)
	assert.InDelta(t, 1234.56, *bill.Subtotal, 0.001)
	require.NotNil(t, bill.CGSTRate)
	assert.InDelta(t, 9.0, *bill.CGSTRate, 0.001)
	require.NotNil(t, bill.CGSTAmount)
	assert.InDelta(t, 111.11, *bill.CGSTAmount, 0.001)
	require.NotNil(t, bill.TotalAmount)
	assert.InDelta(t, 1456.78, *bill.TotalAmount, 0.001)
	assert.Nil(t, bill.SGSTRate)

	require.Len(t, bill.Items, 1)
	assert.Equal(t, "Rice", bill.Items[0].Description)
	require.NotNil(t, bill.Items[0].HSNCode)
	assert.Equal(t, "1006", *bill.Items[0].HSNCode)
	assert.InDelta(t, 5.0, bill.Items[0].Quantity, 0.001)
	assert.InDelta(t, 60.0, bill.Items[0].Rate, 0.001)
	assert.InDelta(t, 300.0, bill.Items[0].Amount, 0.001)
}

func TestParseBillResponse_Garbage(t *testing.T) {
	_, err := ParseBillResponse("the model refused to answer")
	assert.ErrorIs(t, err, ErrUnparsableResponse)
}

func TestParseBillResponse_ItemsNeverNil(t *testing.T) {
	bill, err := ParseBillResponse(`{"total_amount": 100}`)
	require.NoError(t, err)
	assert.NotNil(t, bill.Items)
	assert.Empty(t, bill.Items)
}

func TestParseVoiceResponse(t *testing.T) {
	raw := `{
		"entry_type": "income",
		"amount": "1,500",
		"note": "sold rice",
		"items": [{"name": "chawal", "quantity": 5, "unit": "kg", "price": "300"}]
	}`

	voice, err := ParseVoiceResponse(raw)
	require.NoError(t, err)

	assert.Equal(t, "income", voice.EntryType)
	assert.InDelta(t, 1500.0, voice.Amount, 0.001)
	assert.Equal(t, "sold rice", voice.Note)
	require.Len(t, voice.Items, 1)
	assert.Equal(t, "chawal", voice.Items[0].Name)
	require.NotNil(t, voice.Items[0].Price)
	assert.InDelta(t, 300.0, *voice.Items[0].Price, 0.001)
}
