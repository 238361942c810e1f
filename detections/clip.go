package detections

import (
	"image"

	"github.com/chewxy/math32"
)

// Clip clamps every detection's box to the image bounds: x coordinates to
// [0, width] and y coordinates to [0, height], rounding to the nearest integer
// before clamping. The slice is mutated in place and returned for chaining.
//
// Arguments:
//   - dets: The detections to clamp.
//   - size: The image size, X is width and Y is height.
//
// Returns:
//   - The same slice with clamped coordinates.
func Clip(dets []Detection, size image.Point) []Detection {
	w := float32(size.X)
	h := float32(size.Y)
	for i := range dets {
		dets[i].XMin = clamp(math32.Round(dets[i].XMin), 0, w)
		dets[i].YMin = clamp(math32.Round(dets[i].YMin), 0, h)
		dets[i].XMax = clamp(math32.Round(dets[i].XMax), 0, w)
		dets[i].YMax = clamp(math32.Round(dets[i].YMax), 0, h)
	}
	return dets
}

func clamp(v, lo, hi float32) float32 {
	return math32.Min(math32.Max(v, lo), hi)
}
