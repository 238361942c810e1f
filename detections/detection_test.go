package detections

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDetectionString validates the logging string form for a plain detection.
func TestDetectionString(t *testing.T) {
	d := Detection{XMin: 10, YMin: 20, XMax: 110, YMax: 220, Score: 0.8764, Class: 3, Label: "car"}

	assert.Equal(t, "(10, 20, 110, 220, 0.876, 3, car)", d.String(),
		"Score should be rendered with three decimals")
}

// TestDetectionStringWithMask validates that the occupied pixel count is appended
// when a mask payload is attached.
func TestDetectionStringWithMask(t *testing.T) {
	d := Detection{
		XMin: 0, YMin: 0, XMax: 4, YMax: 4, Score: 0.5, Class: 1, Label: "person",
		Mask: &Mask{
			Data:   []float32{0.9, 0.2, 0.6, 0.1},
			Width:  2,
			Height: 2,
		},
	}

	assert.Equal(t, "(0, 0, 4, 4, 0.500, 1, person, 2)", d.String(),
		"Only pixels above 0.5 should count as occupied")
}

// TestDetectionStringWithRotatedRects validates the rotated rectangle suffix.
func TestDetectionStringWithRotatedRects(t *testing.T) {
	d := Detection{
		XMin: 0, YMin: 0, XMax: 4, YMax: 4, Score: 1, Class: 0, Label: "box",
		Mask: &Mask{Data: []float32{1}, Width: 1, Height: 1},
		RotatedRects: []RotatedRect{
			{CenterX: 2, CenterY: 2, Width: 4, Height: 4, Angle: 90},
		},
	}

	assert.Equal(t,
		"(0, 0, 4, 4, 1.000, 0, box, 1, RotatedRect: 2.000 2.000 4.000 4.000 90.000)",
		d.String(),
		"Rotated rects should be rendered in order after the mask pixel count")
}

// TestMaskPixelCount validates the 0.5 occupancy threshold.
func TestMaskPixelCount(t *testing.T) {
	m := Mask{Data: []float32{0.0, 0.5, 0.51, 1.0}, Width: 2, Height: 2}

	assert.Equal(t, 2, m.PixelCount(), "0.5 itself should not count as occupied")
	assert.Equal(t, float32(0.51), m.At(0, 1), "At should index row-major")
}

// TestGetCoords validates the coordinate accessor.
func TestGetCoords(t *testing.T) {
	d := Detection{XMin: 1, YMin: 2, XMax: 3, YMax: 4}
	xmin, ymin, xmax, ymax := d.GetCoords()

	assert.Equal(t, float32(1), xmin)
	assert.Equal(t, float32(2), ymin)
	assert.Equal(t, float32(3), xmax)
	assert.Equal(t, float32(4), ymax)
}
