package detections

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClipBoundsInvariant validates that after clipping every coordinate lies
// inside the image: 0 <= xmin <= xmax <= W and 0 <= ymin <= ymax <= H.
func TestClipBoundsInvariant(t *testing.T) {
	dets := []Detection{
		{XMin: -15.4, YMin: -3.6, XMax: 700.2, YMax: 500.9, Score: 0.9},
		{XMin: 10.4, YMin: 20.5, XMax: 99.49, YMax: 350.51, Score: 0.8},
		{XMin: 640, YMin: 480, XMax: 9000, YMax: 9000, Score: 0.7},
	}
	size := image.Pt(640, 480)

	out := Clip(dets, size)

	for i := range out {
		assert.GreaterOrEqual(t, out[i].XMin, float32(0), "xmin should be non-negative")
		assert.GreaterOrEqual(t, out[i].YMin, float32(0), "ymin should be non-negative")
		assert.LessOrEqual(t, out[i].XMax, float32(640), "xmax should not exceed width")
		assert.LessOrEqual(t, out[i].YMax, float32(480), "ymax should not exceed height")
		assert.LessOrEqual(t, out[i].XMin, out[i].XMax, "box should stay ordered on x")
		assert.LessOrEqual(t, out[i].YMin, out[i].YMax, "box should stay ordered on y")
	}
}

// TestClipRoundsBeforeClamping validates round-to-nearest semantics.
func TestClipRoundsBeforeClamping(t *testing.T) {
	dets := []Detection{{XMin: 10.4, YMin: 20.5, XMax: 99.49, YMax: 350.51}}

	Clip(dets, image.Pt(640, 480))

	assert.Equal(t, float32(10), dets[0].XMin)
	assert.Equal(t, float32(21), dets[0].YMin, "halfway values round away from zero")
	assert.Equal(t, float32(99), dets[0].XMax)
	assert.Equal(t, float32(351), dets[0].YMax)
}

// TestClipMutatesInPlace validates the scoped mutable batch contract: the
// returned slice is the input slice.
func TestClipMutatesInPlace(t *testing.T) {
	dets := []Detection{{XMin: -5, YMin: -5, XMax: 10, YMax: 10}}

	out := Clip(dets, image.Pt(8, 8))

	require.Len(t, out, 1)
	assert.Equal(t, float32(0), dets[0].XMin, "input slice should be mutated")
	assert.Equal(t, float32(8), dets[0].XMax, "input slice should be mutated")
	assert.Same(t, &dets[0], &out[0], "Clip should return the same backing array")
}

// TestClipInBoundsNoOp validates that already-in-bounds integral boxes pass
// through unchanged.
func TestClipInBoundsNoOp(t *testing.T) {
	dets := []Detection{{XMin: 5, YMin: 6, XMax: 100, YMax: 200}}

	Clip(dets, image.Pt(640, 480))

	assert.Equal(t, Detection{XMin: 5, YMin: 6, XMax: 100, YMax: 200}, dets[0])
}
