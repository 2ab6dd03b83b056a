package ocr

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			// Dark band across the middle, light elsewhere.
			if y > 12 && y < 20 {
				img.Set(x, y, color.RGBA{A: 255})
			} else {
				img.Set(x, y, color.RGBA{R: 240, G: 240, B: 240, A: 255})
			}
		}
	}

	path := filepath.Join(t.TempDir(), "bill.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestPreprocessor_PrepareProducesSibling(t *testing.T) {
	p := NewPreprocessor()
	original := writeTestPNG(t)

	processed := p.Prepare(original)

	assert.NotEqual(t, original, processed)
	assert.Equal(t, filepath.Dir(original), filepath.Dir(processed))
	assert.Equal(t, "processed_bill.png", filepath.Base(processed))
	_, err := os.Stat(processed)
	assert.NoError(t, err)
}

func TestPreprocessor_PrepareNeverFails(t *testing.T) {
	p := NewPreprocessor()

	// A missing file falls back to the original path instead of erroring.
	path := filepath.Join(t.TempDir(), "missing.png")
	assert.Equal(t, path, p.Prepare(path))

	// So does a file that is not an image.
	garbage := filepath.Join(t.TempDir(), "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))
	assert.Equal(t, garbage, p.Prepare(garbage))
}

func TestPreprocessor_CleanupRemovesDerivedOnly(t *testing.T) {
	p := NewPreprocessor()
	original := writeTestPNG(t)
	processed := p.Prepare(original)
	require.NotEqual(t, original, processed)

	p.Cleanup(original, processed)

	_, err := os.Stat(processed)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(original)
	assert.NoError(t, err)
}

func TestPreprocessor_CleanupNoOpWhenUnprocessed(t *testing.T) {
	p := NewPreprocessor()
	original := writeTestPNG(t)

	// Prepare failed upstream and returned the original; Cleanup must not
	// remove it.
	p.Cleanup(original, original)

	_, err := os.Stat(original)
	assert.NoError(t, err)
}
