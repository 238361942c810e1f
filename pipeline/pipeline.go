// Package pipeline - end-to-end post-processing around an external inference
// engine: resize, input normalization, inference, NMS, clipping, output
// rescaling, and rotated-rectangle extraction for segmentation models.
package pipeline

import (
	"image"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-modelapi/config"
	"github.com/nvr-ai/go-modelapi/detections"
	"github.com/nvr-ai/go-modelapi/logger"
	"github.com/nvr-ai/go-modelapi/postprocess"
	"github.com/nvr-ai/go-modelapi/segmentation"
	"github.com/nvr-ai/go-modelapi/transforms"
	"github.com/nvr-ai/go-modelapi/util"
)

// RawOutput is the per-image result of an external inference call: parallel
// per-detection arrays plus the image size the coordinates refer to.
type RawOutput struct {
	X1, Y1, X2, Y2 []float32
	Scores         []float32
	Classes        []int
	// Landmarks holds one ordered landmark sequence per detection; nil for
	// models without landmarks.
	Landmarks [][]detections.Point
	// Masks holds one instance mask per detection; nil for pure detectors.
	Masks []*detections.Mask
	// ImageSize is the (width, height) the coordinates are expressed in.
	ImageSize image.Point
}

// Inferencer produces raw detection arrays for a prepared frame.
// Implementations wrap whatever engine actually runs the network; the
// pipeline consumes exactly these arrays and nothing else about it.
type Inferencer interface {
	Infer(input gocv.Mat) (*RawOutput, error)
}

// InferencerFunc adapts a function to the Inferencer interface.
type InferencerFunc func(input gocv.Mat) (*RawOutput, error)

// Infer calls f.
func (f InferencerFunc) Infer(input gocv.Mat) (*RawOutput, error) {
	return f(input)
}

// Pipeline drives one inference session's pre- and post-processing. One
// instance per logical stream; the embedded output transform caches a scale
// factor keyed to the last frame size.
type Pipeline struct {
	cfg        *config.Config
	resize     transforms.ResizeFunc
	interp     gocv.InterpolationFlags
	input      transforms.InputTransform
	output     *transforms.OutputTransform
	labels     []string
	inferencer Inferencer
	log        *zap.Logger
}

// New builds a pipeline from a validated config and an inference producer.
// Lookup failures (resize/interpolation keys) and label-file IO errors are
// surfaced immediately.
func New(cfg *config.Config, inferencer Inferencer) (*Pipeline, error) {
	if inferencer == nil {
		return nil, errors.New("inferencer is required")
	}

	resizeFn, err := transforms.ResizeFuncByType(transforms.ResizeType(cfg.ResizeType))
	if err != nil {
		return nil, err
	}
	interp, err := transforms.InterpolationByName(cfg.Interpolation)
	if err != nil {
		return nil, err
	}

	var labels []string
	if cfg.LabelsPath != "" {
		labels, err = util.LoadLabels(cfg.LabelsPath)
		if err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		cfg:        cfg,
		resize:     resizeFn,
		interp:     interp,
		input:      transforms.NewInputTransform(cfg.ReverseInputChannels, cfg.MeanValues, cfg.ScaleValues),
		output:     transforms.NewOutputTransform(cfg.InputSize(), cfg.OutputSize()),
		labels:     labels,
		inferencer: inferencer,
		log:        logger.Log(),
	}, nil
}

// Labels exposes the loaded class labels.
func (p *Pipeline) Labels() []string {
	return p.labels
}

// Prepare maps a raw frame into the model input plane: resize policy followed
// by input normalization. The caller owns the returned Mat unless it aliases
// src (trivial transform on a same-sized frame).
func (p *Pipeline) Prepare(frame gocv.Mat) gocv.Mat {
	resized := p.resize(frame, p.cfg.InputSize(), p.interp)
	if p.input.IsTrivial {
		return resized
	}
	defer resized.Close()
	return p.input.Apply(resized)
}

// Process runs the full loop for one frame: prepare, infer, suppress, clip,
// rescale to the output resolution, and extract rotated rectangles when masks
// are present.
//
// Arguments:
//   - frame: The raw BGR frame.
//
// Returns:
//   - Final detections in output-space coordinates, best score first when NMS
//     is enabled.
//   - error from the inference producer, unmodified post-processing is never
//     retried.
func (p *Pipeline) Process(frame gocv.Mat) ([]detections.Detection, error) {
	input := p.Prepare(frame)
	defer input.Close()

	raw, err := p.inferencer.Infer(input)
	if err != nil {
		return nil, errors.Wrap(err, "inference")
	}

	dets := p.collect(raw)

	if p.cfg.NMS != nil {
		dets = postprocess.Apply(dets, &postprocess.Config{
			IoUThreshold:      p.cfg.NMS.IoUThreshold,
			IncludeBoundaries: p.cfg.NMS.IncludeBoundaries,
			KeepTopK:          p.cfg.NMS.KeepTopK,
			ClassAware:        p.cfg.NMS.ClassAware,
		})
	}

	size := raw.ImageSize
	if size == (image.Point{}) {
		size = image.Pt(frame.Cols(), frame.Rows())
	}
	detections.Clip(dets, size)

	p.output.ScaleDetections(dets)

	if raw.Masks != nil {
		dets = segmentation.AddRotatedRects(dets)
	}

	p.log.Debug("processed frame",
		zap.Int("raw_detections", len(raw.Scores)),
		zap.Int("final_detections", len(dets)),
		zap.Int("frame_width", frame.Cols()),
		zap.Int("frame_height", frame.Rows()),
	)

	return dets, nil
}

// collect turns raw parallel arrays into detection records, applying the
// confidence threshold and attaching labels and optional payloads.
func (p *Pipeline) collect(raw *RawOutput) []detections.Detection {
	dets := make([]detections.Detection, 0, len(raw.Scores))
	for i := range raw.Scores {
		if raw.Scores[i] < p.cfg.ConfidenceThreshold {
			continue
		}

		d := detections.Detection{
			XMin:  raw.X1[i],
			YMin:  raw.Y1[i],
			XMax:  raw.X2[i],
			YMax:  raw.Y2[i],
			Score: raw.Scores[i],
			Class: raw.Classes[i],
		}
		if d.Class >= 0 && d.Class < len(p.labels) {
			d.Label = p.labels[d.Class]
		}
		if raw.Landmarks != nil {
			d.Landmarks = raw.Landmarks[i]
		}
		if raw.Masks != nil {
			d.Mask = raw.Masks[i]
		}
		dets = append(dets, d)
	}
	return dets
}
