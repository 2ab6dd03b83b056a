package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestGSTComponentSum(t *testing.T) {
	tests := []struct {
		name    string
		bill    BillExtraction
		wantSum float64
		wantOK  bool
	}{
		{
			name:    "cgst plus sgst",
			bill:    BillExtraction{CGSTAmount: f(9), SGSTAmount: f(9)},
			wantSum: 18,
			wantOK:  true,
		},
		{
			name:    "igst only",
			bill:    BillExtraction{IGSTAmount: f(45)},
			wantSum: 45,
			wantOK:  true,
		},
		{
			name:   "no components",
			bill:   BillExtraction{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, ok := tt.bill.GSTComponentSum()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.wantSum, sum, 0.001)
			}
		})
	}
}

func TestBillExtraction_ValidatedNotSerialized(t *testing.T) {
	bill := BillExtraction{Validated: true, TotalAmount: f(100)}

	data, err := json.Marshal(bill)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.NotContains(t, decoded, "Validated")
	assert.NotContains(t, decoded, "validated")
}
