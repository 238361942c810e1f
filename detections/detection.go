// Package detections - geometry value types produced by the post-processing stages.
package detections

import (
	"fmt"
	"strings"
)

// Point is a single landmark coordinate.
type Point struct {
	X, Y float32
}

// RotatedRect is a minimum-area enclosing rectangle of a mask contour,
// allowed to be rotated relative to the image axes. Angle is in degrees.
type RotatedRect struct {
	CenterX float32
	CenterY float32
	Width   float32
	Height  float32
	Angle   float32
}

// Mask is a dense per-pixel occupancy map aligned to a detection. A pixel is
// considered occupied when its value is greater than 0.5.
type Mask struct {
	Data   []float32
	Width  int
	Height int
}

// At returns the mask value at (x, y).
func (m *Mask) At(x, y int) float32 {
	return m.Data[y*m.Width+x]
}

// PixelCount returns the number of occupied pixels.
func (m *Mask) PixelCount() int {
	count := 0
	for _, v := range m.Data {
		if v > 0.5 {
			count++
		}
	}
	return count
}

// Detection represents a single detected object. Coordinates live in the
// coordinate space of whatever stage last produced them (model input space,
// then output space after rescaling); callers track which space is current.
//
// Optional payloads (Landmarks, Mask, RotatedRects) are attached by the stage
// that produces them and stay nil/empty otherwise, so consumers can branch on
// presence instead of on a type hierarchy.
type Detection struct {
	XMin  float32
	YMin  float32
	XMax  float32
	YMax  float32
	Score float32
	Class int
	Label string

	Landmarks    []Point
	Mask         *Mask
	RotatedRects []RotatedRect
}

// GetCoords returns the box corners in their current coordinate space.
func (d *Detection) GetCoords() (xmin, ymin, xmax, ymax float32) {
	return d.XMin, d.YMin, d.XMax, d.YMax
}

// String formats the detection for logging:
//
//	(xmin, ymin, xmax, ymax, score, id, label[, mask-pixel-count][, RotatedRect: cx cy w h angle]*)
//
// The score is printed with three decimals; rotated rectangle fields likewise.
func (d *Detection) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(%v, %v, %v, %v, %.3f, %d, %s", d.XMin, d.YMin, d.XMax, d.YMax, d.Score, d.Class, d.Label)
	if d.Mask != nil {
		fmt.Fprintf(&b, ", %d", d.Mask.PixelCount())
	}
	for _, r := range d.RotatedRects {
		fmt.Fprintf(&b, ", RotatedRect: %.3f %.3f %.3f %.3f %.3f", r.CenterX, r.CenterY, r.Width, r.Height, r.Angle)
	}
	b.WriteString(")")
	return b.String()
}
