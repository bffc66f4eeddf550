package frame

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/classpulse/classpulse/internal/faceapi"
	"github.com/classpulse/classpulse/internal/models"
)

const (
	boxThickness  = 2
	eyeRadius     = 12
	labelPadding  = 4
	labelOffsetY  = 10
	encodeQuality = 90
)

var (
	boxColor   = color.NRGBA{R: 0, G: 0, B: 255, A: 255}
	eyeColor   = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
	labelColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Annotation pairs a detection's geometry with the label to render next
// to it ("happy" or "happy - Jane Doe").
type Annotation struct {
	Box   faceapi.Box
	Label string
}

// Annotate draws bounding boxes, eye markers and labels onto the
// original-resolution image. Box and eye coordinates are in
// normalized-image space and are mapped back through scaleX/scaleY.
// Returns the annotated frame as JPEG bytes.
func Annotate(original image.Image, annotations []Annotation, scaleX, scaleY float64) ([]byte, error) {
	canvas := imaging.Clone(original)

	for _, annotation := range annotations {
		box := annotation.Box
		x := int(float64(box.X) * scaleX)
		y := int(float64(box.Y) * scaleY)
		w := int(float64(box.W) * scaleX)
		h := int(float64(box.H) * scaleY)

		drawRectOutline(canvas, image.Rect(x, y, x+w, y+h), boxColor, boxThickness)

		drawDisc(canvas, int(float64(box.LeftEye.X)*scaleX), int(float64(box.LeftEye.Y)*scaleY), eyeRadius, eyeColor)
		drawDisc(canvas, int(float64(box.RightEye.X)*scaleX), int(float64(box.RightEye.Y)*scaleY), eyeRadius, eyeColor)

		if annotation.Label != "" {
			drawLabel(canvas, annotation.Label, x, y)
		}
	}

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, canvas, imaging.JPEG, imaging.JPEGQuality(encodeQuality)); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrImageEncode, err)
	}
	return buf.Bytes(), nil
}

// drawLabel renders text above the box corner with a filled background
// sized to the rendered text extent.
func drawLabel(canvas *image.NRGBA, label string, x, y int) {
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, label).Ceil()
	textHeight := face.Metrics().Height.Ceil()

	// Keep the label inside the frame when the box touches the top edge.
	baseline := y - labelOffsetY
	if baseline-textHeight < 0 {
		baseline = y + labelOffsetY + textHeight
	}

	background := image.Rect(
		x-labelPadding,
		baseline-textHeight-labelPadding,
		x+textWidth+labelPadding,
		baseline+labelPadding,
	).Intersect(canvas.Bounds())
	fillRect(canvas, background, boxColor)

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(labelColor),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	drawer.DrawString(label)
}

// drawRectOutline draws a rectangle border of the given thickness, drawn
// inward from the rectangle edge.
func drawRectOutline(canvas *image.NRGBA, rect image.Rectangle, col color.NRGBA, thickness int) {
	fillRect(canvas, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+thickness), col)
	fillRect(canvas, image.Rect(rect.Min.X, rect.Max.Y-thickness, rect.Max.X, rect.Max.Y), col)
	fillRect(canvas, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+thickness, rect.Max.Y), col)
	fillRect(canvas, image.Rect(rect.Max.X-thickness, rect.Min.Y, rect.Max.X, rect.Max.Y), col)
}

func fillRect(canvas *image.NRGBA, rect image.Rectangle, col color.NRGBA) {
	rect = rect.Intersect(canvas.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			canvas.SetNRGBA(x, y, col)
		}
	}
}

func drawDisc(canvas *image.NRGBA, cx, cy, radius int, col color.NRGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				point := image.Pt(cx+dx, cy+dy)
				if point.In(canvas.Bounds()) {
					canvas.SetNRGBA(point.X, point.Y, col)
				}
			}
		}
	}
}
