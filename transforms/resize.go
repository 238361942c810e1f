// Package transforms - image-space transforms applied around an inference
// call: interchangeable resize policies, model-input normalization, and
// output-resolution rescaling.
package transforms

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ResizeType selects one of the closed set of resize policies.
type ResizeType string

const (
	// ResizeStandard resizes directly to the target size, ignoring aspect ratio.
	ResizeStandard ResizeType = "standard"
	// ResizeFitToWindow scales by a single factor so the image fits within the
	// target bounds; output dimensions follow the input aspect ratio.
	ResizeFitToWindow ResizeType = "fit_to_window"
	// ResizeFitToWindowLetterbox scales preserving aspect ratio, then pads
	// symmetrically to the exact target size.
	ResizeFitToWindowLetterbox ResizeType = "fit_to_window_letterbox"
	// ResizeCrop center-crops to the target aspect ratio, then resizes.
	ResizeCrop ResizeType = "crop"
)

// ResizeFunc resizes src to the target size, returning a new Mat the caller
// owns. The target size is (width, height).
type ResizeFunc func(src gocv.Mat, size image.Point, interp gocv.InterpolationFlags) gocv.Mat

var resizeTypes = map[ResizeType]ResizeFunc{
	ResizeStandard:             ResizeImage,
	ResizeFitToWindow:          ResizeImageWithAspect,
	ResizeFitToWindowLetterbox: ResizeImageLetterbox,
	ResizeCrop:                 CropResize,
}

var interpolationTypes = map[string]gocv.InterpolationFlags{
	"LINEAR":  gocv.InterpolationLinear,
	"CUBIC":   gocv.InterpolationCubic,
	"NEAREST": gocv.InterpolationNearestNeighbor,
	"AREA":    gocv.InterpolationArea,
}

// ResizeFuncByType returns the strategy registered under the given name. The
// set is fixed and closed; unknown keys are a caller error surfaced directly.
func ResizeFuncByType(rt ResizeType) (ResizeFunc, error) {
	fn, ok := resizeTypes[rt]
	if !ok {
		return nil, errors.Errorf("unknown resize type %q", rt)
	}
	return fn, nil
}

// InterpolationByName maps an interpolation name (LINEAR, CUBIC, NEAREST,
// AREA) to the OpenCV interpolation flag.
func InterpolationByName(name string) (gocv.InterpolationFlags, error) {
	flag, ok := interpolationTypes[name]
	if !ok {
		return 0, errors.Errorf("unknown interpolation type %q", name)
	}
	return flag, nil
}

// ResizeImage resizes src to exactly size, ignoring aspect ratio.
func ResizeImage(src gocv.Mat, size image.Point, interp gocv.InterpolationFlags) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, size, 0, 0, interp)
	return dst
}

// ResizeImageWithAspect scales src by the single factor that fits it inside
// size without exceeding either dimension. The output size varies with the
// input aspect ratio.
func ResizeImageWithAspect(src gocv.Mat, size image.Point, interp gocv.InterpolationFlags) gocv.Mat {
	scale := math.Min(
		float64(size.X)/float64(src.Cols()),
		float64(size.Y)/float64(src.Rows()),
	)
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, image.Point{}, scale, scale, interp)
	return dst
}

// ResizeImageLetterbox scales src preserving aspect ratio to fit within size,
// then pads symmetrically with black to reach the exact target dimensions.
// Scaled dimensions are rounded; an odd padding total is split floor/ceil.
func ResizeImageLetterbox(src gocv.Mat, size image.Point, interp gocv.InterpolationFlags) gocv.Mat {
	return ResizeImageLetterboxPad(src, size, interp, 0)
}

// ResizeImageLetterboxPad is ResizeImageLetterbox with an explicit constant
// fill value for the padded border.
func ResizeImageLetterboxPad(src gocv.Mat, size image.Point, interp gocv.InterpolationFlags, padValue uint8) gocv.Mat {
	iw := src.Cols()
	ih := src.Rows()
	w := size.X
	h := size.Y

	scale := math.Min(float64(w)/float64(iw), float64(h)/float64(ih))
	nw := int(math.Round(float64(iw) * scale))
	nh := int(math.Round(float64(ih) * scale))

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(src, &resized, image.Pt(nw, nh), 0, 0, interp)

	dx := (w - nw) / 2
	dy := (h - nh) / 2

	dst := gocv.NewMat()
	gocv.CopyMakeBorder(resized, &dst, dy, h-nh-dy, dx, w-nw-dx, gocv.BorderConstant,
		color.RGBA{R: padValue, G: padValue, B: padValue})
	return dst
}

// CropResize crops the centered region matching the target aspect ratio, then
// resizes the crop to exactly size. Offsets use floor division; the crop edge
// derived from the aspect ratio is floored.
func CropResize(src gocv.Mat, size image.Point, interp gocv.InterpolationFlags) gocv.Mat {
	desired := float64(size.X) / float64(size.Y)
	rows := src.Rows()
	cols := src.Cols()

	var roi image.Rectangle
	switch {
	case desired == 1:
		if rows > cols {
			offset := (rows - cols) / 2
			roi = image.Rect(0, offset, cols, offset+cols)
		} else {
			offset := (cols - rows) / 2
			roi = image.Rect(offset, 0, offset+rows, rows)
		}
	case desired < 1:
		newWidth := int(math.Floor(float64(rows) * desired))
		offset := (cols - newWidth) / 2
		roi = image.Rect(offset, 0, offset+newWidth, rows)
	default:
		newHeight := int(math.Floor(float64(cols) / desired))
		offset := (rows - newHeight) / 2
		roi = image.Rect(0, offset, cols, offset+newHeight)
	}

	region := src.Region(roi)
	defer region.Close()

	dst := gocv.NewMat()
	gocv.Resize(region, &dst, size, 0, 0, interp)
	return dst
}
