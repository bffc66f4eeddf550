package frame

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/classpulse/classpulse/internal/faceapi"
)

// CropFace extracts the face region named by box from img and encodes it
// as JPEG. The box is clamped to the image bounds; a box that clamps to
// nothing is an error so callers can skip the detection instead of
// submitting an empty crop for recognition.
func CropFace(img image.Image, box faceapi.Box) ([]byte, error) {
	bounds := img.Bounds()
	rect := image.Rect(box.X, box.Y, box.X+box.W, box.Y+box.H).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("face box (%d,%d %dx%d) outside image bounds %v",
			box.X, box.Y, box.W, box.H, bounds)
	}

	cropped := imaging.Crop(img, rect)

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, cropped, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return nil, fmt.Errorf("failed to encode face crop: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG encodes an image as JPEG bytes, used to ship the normalized
// frame to the analysis service.
func EncodeJPEG(img image.Image) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
