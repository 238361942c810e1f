package postprocess

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Softmax converts logits into a probability distribution over the whole
// slice. The maximum logit is subtracted before exponentiation for numerical
// stability; the output sums to 1 and is invariant under adding a constant to
// every logit.
func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}

	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}

	out := make([]float32, len(logits))
	var sum float32
	for i, v := range logits {
		e := math32.Exp(v - maxLogit)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// SoftmaxAxis applies softmax along one axis of a dense float32 tensor,
// returning a new tensor of the same shape. Each 1D slice along the axis is
// normalized independently with the stable subtract-max formulation.
//
// Arguments:
//   - t: Dense tensor with float32 backing.
//   - axis: Axis to normalize along; negative values count from the end.
//
// Returns:
//   - A new tensor of the same shape, or an error for an invalid axis or a
//     non-float32 backing.
func SoftmaxAxis(t *tensor.Dense, axis int) (*tensor.Dense, error) {
	shape := t.Shape()
	if axis < 0 {
		axis += len(shape)
	}
	if axis < 0 || axis >= len(shape) {
		return nil, errors.Errorf("softmax axis %d out of range for shape %v", axis, shape)
	}

	data, ok := t.Data().([]float32)
	if !ok {
		return nil, errors.Errorf("softmax expects a float32 tensor, got %T", t.Data())
	}

	inner := 1
	for _, d := range shape[axis+1:] {
		inner *= d
	}
	n := shape[axis]
	outer := len(data) / (inner * n)

	out := make([]float32, len(data))
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*n*inner + in

			maxLogit := data[base]
			for k := 1; k < n; k++ {
				if v := data[base+k*inner]; v > maxLogit {
					maxLogit = v
				}
			}

			var sum float32
			for k := 0; k < n; k++ {
				e := math32.Exp(data[base+k*inner] - maxLogit)
				out[base+k*inner] = e
				sum += e
			}
			for k := 0; k < n; k++ {
				out[base+k*inner] /= sum
			}
		}
	}

	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(out)), nil
}
