package frame

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/classpulse/classpulse/internal/models"
)

// Fixed preprocessing parameters. The downscale factor halves both axes;
// scale factors are still computed from the real pixel dimensions so a
// future change here cannot silently skew detection geometry.
const (
	blurSigma       = 1.5
	downscaleFactor = 2
)

// Normalized is the detection-ready form of a frame plus the factors
// needed to map detection coordinates back to the original resolution.
type Normalized struct {
	Image  *image.NRGBA
	ScaleX float64
	ScaleY float64
}

// Preprocess decodes a frame and normalizes it for detection: luminance
// conversion, Gaussian smoothing, global histogram equalization, then a
// uniform downscale. The step order is fixed; reordering changes the
// geometry the detector sees. Returns the original image alongside the
// normalized one so the caller can annotate at full resolution.
func Preprocess(imageBytes []byte) (image.Image, *Normalized, error) {
	original, err := imaging.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrInvalidImage, err)
	}

	bounds := original.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < downscaleFactor || height < downscaleFactor {
		return nil, nil, fmt.Errorf("%w: image %dx%d too small to normalize", models.ErrInvalidImage, width, height)
	}

	gray := imaging.Grayscale(original)
	blurred := imaging.Blur(gray, blurSigma)
	equalized := equalizeHistogram(blurred)
	normalized := imaging.Resize(equalized, width/downscaleFactor, height/downscaleFactor, imaging.Linear)

	normBounds := normalized.Bounds()
	return original, &Normalized{
		Image:  normalized,
		ScaleX: float64(width) / float64(normBounds.Dx()),
		ScaleY: float64(height) / float64(normBounds.Dy()),
	}, nil
}

// equalizeHistogram applies global histogram equalization to a grayscale
// NRGBA image (all channels equal). The imaging package has no
// equalization primitive, so the standard CDF remap is done here over its
// pixel representation.
func equalizeHistogram(img *image.NRGBA) *image.NRGBA {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return img
	}

	var histogram [256]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.PixOffset(bounds.Min.X, y)
		for x := 0; x < bounds.Dx(); x++ {
			histogram[img.Pix[row+x*4]]++
		}
	}

	// Build the remap table from the cumulative distribution, anchored at
	// the first non-empty bin so the darkest level maps to zero.
	var lut [256]uint8
	cumulative := 0
	cdfMin := 0
	for _, count := range histogram {
		if count > 0 {
			cdfMin = count
			break
		}
	}
	denominator := total - cdfMin
	if denominator <= 0 {
		// Flat image, nothing to equalize.
		return img
	}
	for level := 0; level < 256; level++ {
		cumulative += histogram[level]
		value := (cumulative - cdfMin) * 255 / denominator
		if value < 0 {
			value = 0
		}
		if value > 255 {
			value = 255
		}
		lut[level] = uint8(value)
	}

	out := imaging.Clone(img)
	outBounds := out.Bounds()
	for y := outBounds.Min.Y; y < outBounds.Max.Y; y++ {
		row := out.PixOffset(outBounds.Min.X, y)
		for x := 0; x < outBounds.Dx(); x++ {
			offset := row + x*4
			level := lut[out.Pix[offset]]
			out.Pix[offset] = level
			out.Pix[offset+1] = level
			out.Pix[offset+2] = level
		}
	}
	return out
}
