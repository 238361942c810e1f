package transforms

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func solidMat(rows, cols int, value float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(value, value, value, 0), rows, cols, gocv.MatTypeCV8UC3)
}

// TestResizeImageExactTarget validates the standard policy: exact target
// dimensions regardless of aspect ratio.
func TestResizeImageExactTarget(t *testing.T) {
	src := solidMat(50, 100, 255)
	defer src.Close()

	dst := ResizeImage(src, image.Pt(64, 64), gocv.InterpolationLinear)
	defer dst.Close()

	assert.Equal(t, 64, dst.Cols(), "Width should match the target exactly")
	assert.Equal(t, 64, dst.Rows(), "Height should match the target exactly")
}

// TestResizeImageWithAspect validates the fit-to-window policy: a single scale
// factor, output dimensions following the source aspect ratio.
func TestResizeImageWithAspect(t *testing.T) {
	src := solidMat(50, 100, 255)
	defer src.Close()

	dst := ResizeImageWithAspect(src, image.Pt(64, 64), gocv.InterpolationLinear)
	defer dst.Close()

	assert.Equal(t, 64, dst.Cols(), "The limiting dimension should reach the target")
	assert.Equal(t, 32, dst.Rows(), "The other dimension should keep the 2:1 aspect ratio")
}

// TestResizeImageLetterbox validates the concrete scenario from the contract:
// a 100x50 source into a 64x64 letterbox scales to 64x32 and pads 16 rows on
// top and bottom.
func TestResizeImageLetterbox(t *testing.T) {
	src := solidMat(50, 100, 255)
	defer src.Close()

	dst := ResizeImageLetterbox(src, image.Pt(64, 64), gocv.InterpolationLinear)
	defer dst.Close()

	require.Equal(t, 64, dst.Cols())
	require.Equal(t, 64, dst.Rows())

	assert.EqualValues(t, 0, dst.GetVecbAt(0, 32)[0], "Top padding should be fill value")
	assert.EqualValues(t, 0, dst.GetVecbAt(63, 32)[0], "Bottom padding should be fill value")
	assert.EqualValues(t, 255, dst.GetVecbAt(32, 32)[0], "Content region should keep source pixels")
	assert.EqualValues(t, 0, dst.GetVecbAt(15, 32)[0], "Content should start at row 16")
	assert.EqualValues(t, 255, dst.GetVecbAt(16, 32)[0], "Content should start at row 16")
	assert.EqualValues(t, 255, dst.GetVecbAt(47, 32)[0], "Content should end at row 47")
	assert.EqualValues(t, 0, dst.GetVecbAt(48, 32)[0], "Content should end at row 47")
}

// TestResizeImageLetterboxPadValue validates the constant fill value.
func TestResizeImageLetterboxPadValue(t *testing.T) {
	src := solidMat(50, 100, 255)
	defer src.Close()

	dst := ResizeImageLetterboxPad(src, image.Pt(64, 64), gocv.InterpolationLinear, 114)
	defer dst.Close()

	assert.EqualValues(t, 114, dst.GetVecbAt(0, 0)[0], "Padding should use the requested fill value")
}

// TestResizeImageLetterboxOddPadding validates the floor/ceil split when the
// total padding is odd.
func TestResizeImageLetterboxOddPadding(t *testing.T) {
	// 100x33 scaled into 64x64: scale 0.64, 64x21 content, 43 rows of padding
	// split 21 on top and 22 on the bottom.
	src := solidMat(33, 100, 255)
	defer src.Close()

	dst := ResizeImageLetterbox(src, image.Pt(64, 64), gocv.InterpolationLinear)
	defer dst.Close()

	require.Equal(t, 64, dst.Rows())
	assert.EqualValues(t, 0, dst.GetVecbAt(20, 32)[0], "Top padding should be 21 rows")
	assert.EqualValues(t, 255, dst.GetVecbAt(21, 32)[0], "Content should start at row 21")
	assert.EqualValues(t, 255, dst.GetVecbAt(41, 32)[0], "Content should end at row 41")
	assert.EqualValues(t, 0, dst.GetVecbAt(42, 32)[0], "Bottom padding should be 22 rows")
}

// TestCropResizeSquareTarget validates center-cropping for a square target on
// a non-square source.
func TestCropResizeSquareTarget(t *testing.T) {
	src := solidMat(50, 100, 255)
	defer src.Close()

	dst := CropResize(src, image.Pt(32, 32), gocv.InterpolationLinear)
	defer dst.Close()

	assert.Equal(t, 32, dst.Cols())
	assert.Equal(t, 32, dst.Rows())
}

// TestCropResizeWideAndTallTargets validates the two rectangular crop cases.
func TestCropResizeWideAndTallTargets(t *testing.T) {
	src := solidMat(100, 100, 255)
	defer src.Close()

	wide := CropResize(src, image.Pt(64, 32), gocv.InterpolationLinear)
	defer wide.Close()
	assert.Equal(t, 64, wide.Cols())
	assert.Equal(t, 32, wide.Rows())

	tall := CropResize(src, image.Pt(32, 64), gocv.InterpolationLinear)
	defer tall.Close()
	assert.Equal(t, 32, tall.Cols())
	assert.Equal(t, 64, tall.Rows())
}

// TestResizeFuncByType validates the closed strategy table, including the
// lookup error for unknown keys.
func TestResizeFuncByType(t *testing.T) {
	for _, rt := range []ResizeType{ResizeStandard, ResizeFitToWindow, ResizeFitToWindowLetterbox, ResizeCrop} {
		fn, err := ResizeFuncByType(rt)
		assert.NoError(t, err, "Known resize type %q should resolve", rt)
		assert.NotNil(t, fn)
	}

	_, err := ResizeFuncByType("bilinear")
	assert.Error(t, err, "Unknown resize types should fail, not fall back")
}

// TestInterpolationByName validates the interpolation table.
func TestInterpolationByName(t *testing.T) {
	flag, err := InterpolationByName("LINEAR")
	require.NoError(t, err)
	assert.Equal(t, gocv.InterpolationLinear, flag)

	flag, err = InterpolationByName("AREA")
	require.NoError(t, err)
	assert.Equal(t, gocv.InterpolationArea, flag)

	_, err = InterpolationByName("linear")
	assert.Error(t, err, "Lookups should be case-sensitive with no fallback")
}
