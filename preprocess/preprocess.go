// Package preprocess - pure-Go preparation of raw image bytes for inference,
// for deployments where frames arrive as encoded JPEG/PNG rather than decoded
// OpenCV buffers. Produces the float32 input tensor plus the scale/padding
// metadata needed to map detections back to source coordinates.
package preprocess

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"math"
	"sync"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-modelapi/logger"
)

// ImageFormat represents the format of an encoded input image.
type ImageFormat string

const (
	// ImageFormatJPEG represents JPEG image format.
	ImageFormatJPEG ImageFormat = "jpeg"
	// ImageFormatPNG represents PNG image format.
	ImageFormatPNG ImageFormat = "png"
)

// Image represents an encoded input image.
type Image struct {
	Format ImageFormat `json:"format" yaml:"format"`
	Data   []byte      `json:"data" yaml:"data"`
}

// ChannelOrder defines the ordering of tensor channels.
type ChannelOrder int

const (
	// ChannelOrderCHW is Channel-Height-Width ordering (common for ONNX).
	ChannelOrderCHW ChannelOrder = iota
	// ChannelOrderHWC is Height-Width-Channel ordering.
	ChannelOrderHWC
)

// ColorMode defines the channel color order of the tensor.
type ColorMode int

const (
	// ColorModeRGB is standard RGB order.
	ColorModeRGB ColorMode = iota
	// ColorModeBGR is BGR order (common for OpenCV-trained models).
	ColorModeBGR
)

// Config defines preprocessing for a specific model.
type Config struct {
	// Name of the model, used in log fields.
	Name string
	// InputWidth/InputHeight are the model's expected input dimensions.
	InputWidth  int
	InputHeight int
	// MeanValues and ScaleValues drive per-channel (pixel-mean)/scale
	// normalization; empty slices leave pixels in 0-255.
	MeanValues  []float32
	ScaleValues []float32
	// ChannelOrder and ColorMode control the tensor layout.
	ChannelOrder ChannelOrder
	ColorMode    ColorMode
	// KeepAspectRatio letterboxes instead of stretching.
	KeepAspectRatio bool
	// LetterboxColor fills the padded border; nil means black.
	LetterboxColor color.Color
}

// Result contains the prepared tensor and the metadata needed to map
// detections back to source-image coordinates.
type Result struct {
	// Tensor is the float32 input tensor, shaped per the configured layout.
	Tensor *tensor.Dense
	// OriginalWidth/OriginalHeight are the source dimensions before resizing.
	OriginalWidth  int
	OriginalHeight int
	// Scale is the factor applied to the source (per-axis factors are equal
	// when KeepAspectRatio is set).
	ScaleX float64
	ScaleY float64
	// PadLeft/PadTop are the letterbox offsets, zero without letterboxing.
	PadLeft int
	PadTop  int
}

// Preprocessor prepares encoded images for a single model configuration.
// Safe for concurrent use.
type Preprocessor struct {
	config     *Config
	bufferPool *sync.Pool
	log        *zap.Logger
}

// New creates a Preprocessor for the given model configuration.
func New(config *Config) *Preprocessor {
	if config.LetterboxColor == nil {
		config.LetterboxColor = color.Black
	}
	return &Preprocessor{
		config: config,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return new(bytes.Buffer)
			},
		},
		log: logger.Log().With(zap.String("model", config.Name)),
	}
}

// Run decodes, resizes, and normalizes one image.
//
// Arguments:
//   - img: The encoded input image.
//
// Returns:
//   - Result with the input tensor and coordinate-mapping metadata.
//   - error if decoding fails or the input is malformed.
func (p *Preprocessor) Run(img *Image) (*Result, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, errors.New("image data is empty")
	}

	decoded, err := p.decode(img)
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}

	originalWidth := decoded.Bounds().Dx()
	originalHeight := decoded.Bounds().Dy()

	resized, scaleX, scaleY, padLeft, padTop := p.resize(decoded)

	data := p.toTensorData(resized)
	p.normalize(data)

	var shape []int
	if p.config.ChannelOrder == ChannelOrderCHW {
		shape = []int{3, p.config.InputHeight, p.config.InputWidth}
	} else {
		shape = []int{p.config.InputHeight, p.config.InputWidth, 3}
	}

	p.log.Debug("preprocessed image",
		zap.Int("original_width", originalWidth),
		zap.Int("original_height", originalHeight),
		zap.Float64("scale_x", scaleX),
		zap.Float64("scale_y", scaleY),
		zap.Int("pad_left", padLeft),
		zap.Int("pad_top", padTop),
		zap.Ints("shape", shape),
	)

	return &Result{
		Tensor:         tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data)),
		OriginalWidth:  originalWidth,
		OriginalHeight: originalHeight,
		ScaleX:         scaleX,
		ScaleY:         scaleY,
		PadLeft:        padLeft,
		PadTop:         padTop,
	}, nil
}

// decode turns the encoded bytes into an image.Image.
func (p *Preprocessor) decode(img *Image) (image.Image, error) {
	buf := p.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		p.bufferPool.Put(buf)
	}()

	buf.Write(img.Data)
	reader := bytes.NewReader(buf.Bytes())

	switch img.Format {
	case ImageFormatJPEG:
		return jpeg.Decode(reader)
	default:
		decoded, _, err := image.Decode(reader)
		return decoded, err
	}
}

// resize maps the source into the model input plane, letterboxing when the
// aspect ratio must be preserved. Scaled dimensions are rounded and the
// padding offsets use floor division, matching the transforms package so
// coordinate un-mapping agrees across the two paths.
func (p *Preprocessor) resize(img image.Image) (image.Image, float64, float64, int, int) {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	if !p.config.KeepAspectRatio {
		resized := resize.Resize(uint(p.config.InputWidth), uint(p.config.InputHeight), img, resize.Lanczos3)
		scaleX := float64(p.config.InputWidth) / float64(srcWidth)
		scaleY := float64(p.config.InputHeight) / float64(srcHeight)
		return resized, scaleX, scaleY, 0, 0
	}

	scale := math.Min(
		float64(p.config.InputWidth)/float64(srcWidth),
		float64(p.config.InputHeight)/float64(srcHeight),
	)
	newWidth := int(math.Round(float64(srcWidth) * scale))
	newHeight := int(math.Round(float64(srcHeight) * scale))

	resized := resize.Resize(uint(newWidth), uint(newHeight), img, resize.Lanczos3)

	padLeft := (p.config.InputWidth - newWidth) / 2
	padTop := (p.config.InputHeight - newHeight) / 2

	letterboxed := image.NewRGBA(image.Rect(0, 0, p.config.InputWidth, p.config.InputHeight))
	draw.Draw(letterboxed, letterboxed.Bounds(), &image.Uniform{C: p.config.LetterboxColor}, image.Point{}, draw.Src)
	draw.Draw(letterboxed, image.Rect(padLeft, padTop, padLeft+newWidth, padTop+newHeight),
		resized, image.Point{}, draw.Over)

	return letterboxed, scale, scale, padLeft, padTop
}

// toTensorData flattens pixels into the configured layout without normalizing.
func (p *Preprocessor) toTensorData(img image.Image) []float32 {
	width := p.config.InputWidth
	height := p.config.InputHeight
	data := make([]float32, 3*width*height)

	idx := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x, y).RGBA()

			ch0 := float32(r >> 8)
			ch1 := float32(g >> 8)
			ch2 := float32(b >> 8)
			if p.config.ColorMode == ColorModeBGR {
				ch0, ch2 = ch2, ch0
			}

			if p.config.ChannelOrder == ChannelOrderCHW {
				data[0*height*width+y*width+x] = ch0
				data[1*height*width+y*width+x] = ch1
				data[2*height*width+y*width+x] = ch2
			} else {
				data[idx] = ch0
				data[idx+1] = ch1
				data[idx+2] = ch2
				idx += 3
			}
		}
	}

	return data
}

// normalize applies per-channel (pixel-mean)/scale in place. Without
// configured vectors the tensor keeps raw 0-255 values.
func (p *Preprocessor) normalize(data []float32) {
	if len(p.config.MeanValues) != 3 && len(p.config.ScaleValues) != 3 {
		return
	}

	means := [3]float32{0, 0, 0}
	scales := [3]float32{1, 1, 1}
	for i := 0; i < 3 && i < len(p.config.MeanValues); i++ {
		means[i] = p.config.MeanValues[i]
	}
	for i := 0; i < 3 && i < len(p.config.ScaleValues); i++ {
		scales[i] = p.config.ScaleValues[i]
	}

	if p.config.ChannelOrder == ChannelOrderCHW {
		pixelsPerChannel := len(data) / 3
		for c := 0; c < 3; c++ {
			offset := c * pixelsPerChannel
			for i := 0; i < pixelsPerChannel; i++ {
				data[offset+i] = (data[offset+i] - means[c]) / scales[c]
			}
		}
		return
	}

	for i := 0; i+2 < len(data); i += 3 {
		data[i] = (data[i] - means[0]) / scales[0]
		data[i+1] = (data[i+1] - means[1]) / scales[1]
		data[i+2] = (data[i+2] - means[2]) / scales[2]
	}
}

// RunBatch preprocesses multiple images with bounded concurrency.
//
// Arguments:
//   - images: Encoded images to prepare.
//   - maxConcurrency: Maximum number of images processed at once; values
//     below 1 are treated as 1.
//
// Returns:
//   - Results in input order, or the first error encountered.
func (p *Preprocessor) RunBatch(images []*Image, maxConcurrency int) ([]*Result, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	results := make([]*Result, len(images))
	errs := make([]error, len(images))

	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for i, img := range images {
		wg.Add(1)
		go func(idx int, img *Image) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := p.Run(img)
			if err != nil {
				errs[idx] = errors.Wrapf(err, "preprocess image %d", idx)
				return
			}
			results[idx] = result
		}(i, img)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
