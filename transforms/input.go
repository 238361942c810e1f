package transforms

import (
	"gocv.io/x/gocv"
)

// InputTransform normalizes a decoded frame the way the model was trained:
// optional BGR to RGB channel reversal followed by an elementwise
// (pixel - mean) / scale per channel. Immutable after construction.
type InputTransform struct {
	ReverseInputChannels bool
	Means                [3]float32
	StdScales            [3]float32
	// IsTrivial is true when no transform was requested, enabling the
	// zero-copy fast path in Apply.
	IsTrivial bool
}

// NewInputTransform builds an InputTransform. Nil or empty mean/scale slices
// default to 0 and 1 respectively (no-op).
func NewInputTransform(reverseInputChannels bool, meanValues, scaleValues []float32) InputTransform {
	t := InputTransform{
		ReverseInputChannels: reverseInputChannels,
		Means:                [3]float32{0, 0, 0},
		StdScales:            [3]float32{1, 1, 1},
		IsTrivial:            !reverseInputChannels && len(meanValues) == 0 && len(scaleValues) == 0,
	}
	for i := 0; i < 3 && i < len(meanValues); i++ {
		t.Means[i] = meanValues[i]
	}
	for i := 0; i < 3 && i < len(scaleValues); i++ {
		t.StdScales[i] = scaleValues[i]
	}
	return t
}

// Apply normalizes a 3-channel frame. The trivial transform returns src
// unchanged; otherwise a new CV_32FC3 Mat is returned and the caller owns it.
func (t InputTransform) Apply(src gocv.Mat) gocv.Mat {
	if t.IsTrivial {
		return src
	}

	work := src
	if t.ReverseInputChannels {
		rgb := gocv.NewMat()
		defer rgb.Close()
		gocv.CvtColor(src, &rgb, gocv.ColorBGRToRGB)
		work = rgb
	}

	dst := gocv.NewMat()
	work.ConvertTo(&dst, gocv.MatTypeCV32FC3)

	data, err := dst.DataPtrFloat32()
	if err != nil {
		// Non-contiguous Mats cannot come out of ConvertTo.
		panic(err)
	}
	for i := 0; i+2 < len(data); i += 3 {
		data[i] = (data[i] - t.Means[0]) / t.StdScales[0]
		data[i+1] = (data[i+1] - t.Means[1]) / t.StdScales[1]
		data[i+2] = (data[i+2] - t.Means[2]) / t.StdScales[2]
	}
	return dst
}
