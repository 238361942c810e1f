// Package segmentation - rotated-rectangle extraction for instance masks.
//
// The extractor binarizes each detection's mask, finds contours with full
// hierarchy, and fits a minimum-area rotated rectangle to every surviving
// top-level contour. It is the oriented-object post-processing step that runs
// after boxes have been deduplicated and clipped.
package segmentation

import (
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-modelapi/detections"
)

// AddRotatedRects derives minimum-area rotated rectangles from the mask of
// every input object.
//
// Contours are extracted with full hierarchy; only top-level contours (no
// parent) are kept, and contours with two or fewer points or an area below 1.0
// are discarded as degenerate. Rectangles are appended in contour-discovery
// order.
//
// Arguments:
//   - objects: Detections carrying mask payloads. Objects without a mask pass
//     through with an empty rectangle list.
//
// Returns:
//   - Copies of the input objects, each with RotatedRects populated. An object
//     whose mask produced no contours is still included, with an empty list.
func AddRotatedRects(objects []detections.Detection) []detections.Detection {
	out := make([]detections.Detection, 0, len(objects))
	for _, obj := range objects {
		withRects := obj
		withRects.RotatedRects = []detections.RotatedRect{}
		out = append(out, withRects)

		if obj.Mask == nil || len(obj.Mask.Data) == 0 {
			continue
		}

		binary := maskToMat(obj.Mask)
		hierarchy := gocv.NewMat()
		contours := gocv.FindContoursWithParams(binary, &hierarchy, gocv.RetrievalCComp, gocv.ChainApproxSimple)

		for i := 0; i < contours.Size(); i++ {
			// Holes have a parent contour; skip them.
			if hierarchy.GetVeciAt(0, i)[3] != -1 {
				continue
			}
			contour := contours.At(i)
			if contour.Size() <= 2 || gocv.ContourArea(contour) < 1.0 {
				continue
			}
			rect := gocv.MinAreaRect(contour)
			out[len(out)-1].RotatedRects = append(out[len(out)-1].RotatedRects, detections.RotatedRect{
				CenterX: float32(rect.Center.X),
				CenterY: float32(rect.Center.Y),
				Width:   float32(rect.Width),
				Height:  float32(rect.Height),
				Angle:   float32(rect.Angle),
			})
		}

		contours.Close()
		hierarchy.Close()
		binary.Close()
	}
	return out
}

// maskToMat binarizes a float mask at the 0.5 occupancy threshold into a
// CV_8U Mat suitable for contour extraction.
func maskToMat(m *detections.Mask) gocv.Mat {
	mat := gocv.NewMatWithSize(m.Height, m.Width, gocv.MatTypeCV8U)
	data, err := mat.DataPtrUint8()
	if err != nil {
		// Freshly allocated Mats are always contiguous.
		panic(err)
	}
	for i, v := range m.Data {
		if v > 0.5 {
			data[i] = 1
		} else {
			data[i] = 0
		}
	}
	return mat
}
