package transforms

import (
	"image"

	"github.com/chewxy/math32"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-modelapi/detections"
)

// OutputTransform maps model-space results back to a requested presentation
// resolution. A zero OutputResolution makes it a permanent identity for both
// Resize and Scale.
//
// The transform is stateful per instance: the scale factor is cached against
// the last-seen input size and only recomputed when a differently-sized frame
// arrives, so repeated same-sized frames (the common video case) skip the
// recompute. One instance per logical stream; the cache is not safe to share
// across streams with differing frame sizes.
type OutputTransform struct {
	OutputResolution image.Point

	inputSize     image.Point
	newResolution image.Point
	scaleFactor   float32
}

// NewOutputTransform builds a transform targeting outputResolution for frames
// of inputSize. Both sizes are (width, height); a zero outputResolution
// disables rescaling entirely.
func NewOutputTransform(inputSize, outputResolution image.Point) *OutputTransform {
	t := &OutputTransform{
		OutputResolution: outputResolution,
		scaleFactor:      1,
	}
	if t.hasOutputResolution() {
		t.newResolution = t.computeResolution(inputSize)
	}
	return t
}

func (t *OutputTransform) hasOutputResolution() bool {
	return t.OutputResolution != image.Point{}
}

// ScaleFactor exposes the cached factor; 1 means identity.
func (t *OutputTransform) ScaleFactor() float32 {
	if !t.hasOutputResolution() {
		return 1
	}
	return t.scaleFactor
}

// computeResolution recomputes the cached scale factor for the given input
// size and returns the derived output resolution.
func (t *OutputTransform) computeResolution(inputSize image.Point) image.Point {
	t.inputSize = inputSize
	t.scaleFactor = math32.Min(
		float32(t.OutputResolution.X)/float32(inputSize.X),
		float32(t.OutputResolution.Y)/float32(inputSize.Y),
	)
	return image.Pt(
		int(math32.Round(float32(inputSize.X)*t.scaleFactor)),
		int(math32.Round(float32(inputSize.Y)*t.scaleFactor)),
	)
}

// Resize rescales a frame to the cached output resolution. A frame whose size
// differs from the last-seen input size triggers a recompute first. Identity
// (no output resolution, or scale factor 1) returns src unchanged; otherwise
// the caller owns the returned Mat.
func (t *OutputTransform) Resize(src gocv.Mat) gocv.Mat {
	if !t.hasOutputResolution() {
		return src
	}
	curr := image.Pt(src.Cols(), src.Rows())
	if curr != t.inputSize {
		t.newResolution = t.computeResolution(curr)
	}
	if t.scaleFactor == 1 {
		return src
	}
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, t.newResolution, 0, 0, gocv.InterpolationLinear)
	return dst
}

// Scale maps coordinate values into output space by multiplying with the
// cached scale factor and truncating to integers. The factor is whatever the
// most recent Resize (or construction) computed; calling Scale before Resize
// on a new size intentionally reuses the previous factor.
func (t *OutputTransform) Scale(values []float32) []int {
	out := make([]int, len(values))
	if !t.hasOutputResolution() || t.scaleFactor == 1 {
		for i, v := range values {
			out[i] = int(v)
		}
		return out
	}
	for i, v := range values {
		out[i] = int(v * t.scaleFactor)
	}
	return out
}

// ScaleDetections rescales detection boxes and landmarks in place with the
// cached factor, truncating to integral coordinates. Identity transforms leave
// the slice untouched. Returns the same slice for chaining.
func (t *OutputTransform) ScaleDetections(dets []detections.Detection) []detections.Detection {
	if !t.hasOutputResolution() || t.scaleFactor == 1 {
		return dets
	}
	f := t.scaleFactor
	for i := range dets {
		dets[i].XMin = float32(int(dets[i].XMin * f))
		dets[i].YMin = float32(int(dets[i].YMin * f))
		dets[i].XMax = float32(int(dets[i].XMax * f))
		dets[i].YMax = float32(int(dets[i].YMax * f))
		for j := range dets[i].Landmarks {
			dets[i].Landmarks[j].X = float32(int(dets[i].Landmarks[j].X * f))
			dets[i].Landmarks[j].Y = float32(int(dets[i].Landmarks[j].Y * f))
		}
	}
	return dets
}
