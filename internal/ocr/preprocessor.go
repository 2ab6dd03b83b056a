package ocr

import (
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/ledgerly/bill-extraction-service/internal/logger"
)

// Adaptive threshold parameters: neighborhood size and the constant
// subtracted from the local mean.
const (
	thresholdBlockSize = 11
	thresholdOffset    = 2.0
)

// Preprocessor derives a grayscale, adaptively thresholded copy of a bill
// image to lift OCR and vision-model accuracy on shadowed or handwritten
// bills. It must never fail the caller: on any decode or write error the
// original path is returned unchanged.
type Preprocessor struct{}

// NewPreprocessor creates an image preprocessor.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// Prepare writes a processed_<name> sibling of imagePath and returns its
// path, or imagePath itself when processing is not possible.
func (p *Preprocessor) Prepare(imagePath string) string {
	log := logger.GetLogger()

	img, err := imaging.Open(imagePath)
	if err != nil {
		log.Debugw("preprocess skipped, cannot decode image", "path", imagePath, "error", err)
		return imagePath
	}

	gray := toGray(imaging.Grayscale(img))
	binary := adaptiveThreshold(gray, thresholdBlockSize, thresholdOffset)

	processedPath := filepath.Join(filepath.Dir(imagePath), "processed_"+filepath.Base(imagePath))
	if err := imaging.Save(binary, processedPath); err != nil {
		log.Debugw("preprocess skipped, cannot save artifact", "path", processedPath, "error", err)
		return imagePath
	}

	return processedPath
}

// Cleanup removes the derived artifact. Best-effort: deletion failure is
// non-fatal and only logged.
func (p *Preprocessor) Cleanup(originalPath, processedPath string) {
	if processedPath == "" || processedPath == originalPath {
		return
	}
	if err := os.Remove(processedPath); err != nil && !os.IsNotExist(err) {
		logger.GetLogger().Debugw("failed to remove processed image", "path", processedPath, "error", err)
	}
}

func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}

// adaptiveThreshold binarizes against the local mean of a block x block
// neighborhood minus offset, which flattens shadows and uneven lighting.
// Uses a summed-area table so cost stays linear in pixel count.
func adaptiveThreshold(src *image.Gray, block int, offset float64) *image.Gray {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return src
	}

	// integral[y][x] is the sum over the rectangle [0,x) x [0,y).
	integral := make([][]uint64, h+1)
	integral[0] = make([]uint64, w+1)
	for y := 0; y < h; y++ {
		integral[y+1] = make([]uint64, w+1)
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			integral[y+1][x+1] = integral[y][x+1] + rowSum
		}
	}

	radius := block / 2
	dst := image.NewGray(bounds)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := max(0, x-radius), max(0, y-radius)
			x1, y1 := min(w, x+radius+1), min(h, y+radius+1)
			area := uint64((x1 - x0) * (y1 - y0))
			sum := integral[y1][x1] - integral[y0][x1] - integral[y1][x0] + integral[y0][x0]
			mean := float64(sum) / float64(area)

			v := src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y
			out := color.Gray{Y: 0}
			if float64(v) > mean-offset {
				out.Y = 255
			}
			dst.SetGray(bounds.Min.X+x, bounds.Min.Y+y, out)
		}
	}
	return dst
}
