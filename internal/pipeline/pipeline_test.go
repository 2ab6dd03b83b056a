package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerly/bill-extraction-service/internal/ai"
)

// scriptedProvider returns canned responses in order, then repeats the last.
type scriptedProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, image []byte) (string, error) {
	i := p.calls
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	p.calls++
	if p.errs != nil && p.errs[i] != nil {
		return "", p.errs[i]
	}
	return p.responses[i], nil
}

func writeTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bill.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not really a jpeg"), 0o644))
	return path
}

func TestBillPipeline_NoExtractorUsesFallback(t *testing.T) {
	p := NewBillPipeline(nil)

	result := p.Run(context.Background(), "does-not-exist.jpg", "Grand Total: ₹500.00", nil)

	assert.Equal(t, SourceFallback, result.Source)
	require.NotNil(t, result.Bill)
	require.NotNil(t, result.Bill.TotalAmount)
	assert.InDelta(t, 500.0, *result.Bill.TotalAmount, 0.001)
	assert.True(t, result.Bill.Validated)
}

func TestBillPipeline_AISuccess(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{`{"vendor_name": "Gupta Traders", "total_amount": 750, "items": [{"description": "Rice", "quantity": 5, "rate": 150, "amount": 750}]}`},
	}
	p := NewBillPipeline(ai.NewExtractor(provider))

	result := p.Run(context.Background(), writeTempImage(t), "some ocr text", nil)

	assert.Equal(t, SourceAI, result.Source)
	require.NotNil(t, result.Bill.VendorName)
	assert.Equal(t, "Gupta Traders", *result.Bill.VendorName)
	require.NotNil(t, result.Bill.TotalAmount)
	assert.InDelta(t, 750.0, *result.Bill.TotalAmount, 0.001)
	// Extraction and verification both hit the provider.
	assert.Equal(t, 2, provider.calls)
}

func TestBillPipeline_AIErrorFallsBack(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{""},
		errs:      []error{errors.New("rate limited")},
	}
	p := NewBillPipeline(ai.NewExtractor(provider))

	result := p.Run(context.Background(), writeTempImage(t), "Total: ₹320.00", nil)

	assert.Equal(t, SourceFallback, result.Source)
	require.NotNil(t, result.Bill.TotalAmount)
	assert.InDelta(t, 320.0, *result.Bill.TotalAmount, 0.001)
}

func TestBillPipeline_LowValueAIResultFallsBack(t *testing.T) {
	// A syntactically valid response with neither total nor items is as
	// useless as a failure.
	provider := &scriptedProvider{
		responses: []string{`{"vendor_name": "Someone"}`},
	}
	p := NewBillPipeline(ai.NewExtractor(provider))

	result := p.Run(context.Background(), writeTempImage(t), "Total: ₹320.00", nil)

	assert.Equal(t, SourceFallback, result.Source)
	require.NotNil(t, result.Bill.TotalAmount)
	assert.InDelta(t, 320.0, *result.Bill.TotalAmount, 0.001)
	// No verification pass for fallback output.
	assert.Equal(t, 1, provider.calls)
}

func TestBillPipeline_VerificationFailureKeepsFirstPass(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{
			`{"vendor_name": "Gupta Traders", "total_amount": 750}`,
			`I cannot verify this.`,
		},
	}
	p := NewBillPipeline(ai.NewExtractor(provider))

	result := p.Run(context.Background(), writeTempImage(t), "ocr", nil)

	assert.Equal(t, SourceAI, result.Source)
	require.NotNil(t, result.Bill.VendorName)
	assert.Equal(t, "Gupta Traders", *result.Bill.VendorName)
	require.NotNil(t, result.Bill.TotalAmount)
	assert.InDelta(t, 750.0, *result.Bill.TotalAmount, 0.001)
}

func TestBillPipeline_BackfillsInferredItem(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{`{"total_amount": 250, "items": []}`},
	}
	p := NewBillPipeline(ai.NewExtractor(provider))

	result := p.Run(context.Background(), writeTempImage(t), "ocr", nil)

	require.Len(t, result.Bill.Items, 1)
	item := result.Bill.Items[0]
	assert.Equal(t, "Inferred item", item.Description)
	assert.InDelta(t, 1.0, item.Quantity, 0.001)
	assert.InDelta(t, 250.0, item.Rate, 0.001)
	assert.InDelta(t, 250.0, item.Amount, 0.001)
}

func TestBillPipeline_BackfillUsesDetectedAmountWithoutTotal(t *testing.T) {
	p := NewBillPipeline(nil)
	detected := 300.0

	result := p.Run(context.Background(), "does-not-exist.jpg", "nothing useful here", &detected)

	assert.Nil(t, result.Bill.TotalAmount)
	require.Len(t, result.Bill.Items, 1)
	assert.InDelta(t, 300.0, result.Bill.Items[0].Amount, 0.001)
}

func TestBillPipeline_TotalBeatsDetectedAmountForBackfill(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{`{"total_amount": 250, "items": []}`},
	}
	p := NewBillPipeline(ai.NewExtractor(provider))
	detected := 99.0

	result := p.Run(context.Background(), writeTempImage(t), "ocr", &detected)

	require.Len(t, result.Bill.Items, 1)
	assert.InDelta(t, 250.0, result.Bill.Items[0].Amount, 0.001)
}

func TestBillPipeline_NoBackfillWithoutAnyAmount(t *testing.T) {
	p := NewBillPipeline(nil)

	result := p.Run(context.Background(), "does-not-exist.jpg", "nothing useful here", nil)

	assert.Nil(t, result.Bill.TotalAmount)
	assert.Empty(t, result.Bill.Items)
}
