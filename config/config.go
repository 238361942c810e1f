// Package config - YAML-loaded pipeline configuration.
package config

import (
	"image"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-modelapi/transforms"
)

// NMS holds the suppression parameters; a nil NMS section disables the stage.
type NMS struct {
	IoUThreshold      float32 `yaml:"iou_threshold"`
	IncludeBoundaries bool    `yaml:"include_boundaries"`
	KeepTopK          int     `yaml:"keep_top_k"`
	ClassAware        bool    `yaml:"class_aware"`
}

// Config describes one inference session's pre- and post-processing.
type Config struct {
	// InputWidth/InputHeight are the model's expected input dimensions.
	InputWidth  int `yaml:"input_width"`
	InputHeight int `yaml:"input_height"`

	// ResizeType selects the resize policy; one of standard, fit_to_window,
	// fit_to_window_letterbox, crop.
	ResizeType string `yaml:"resize_type"`
	// Interpolation is one of LINEAR, CUBIC, NEAREST, AREA.
	Interpolation string `yaml:"interpolation"`

	ReverseInputChannels bool      `yaml:"reverse_input_channels"`
	MeanValues           []float32 `yaml:"mean_values"`
	ScaleValues          []float32 `yaml:"scale_values"`

	// OutputResolution is [width, height]; empty disables output rescaling.
	OutputResolution []int `yaml:"output_resolution"`

	// ConfidenceThreshold drops raw detections below it before NMS.
	ConfidenceThreshold float32 `yaml:"confidence_threshold"`

	LabelsPath string `yaml:"labels_path"`

	NMS *NMS `yaml:"nms"`
}

// Default returns a config with the values most models are exported with.
func Default() *Config {
	return &Config{
		InputWidth:    640,
		InputHeight:   640,
		ResizeType:    string(transforms.ResizeStandard),
		Interpolation: "LINEAR",
	}
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "validate config %s", path)
	}
	return cfg, nil
}

// Validate resolves the resize and interpolation keys eagerly so bad keys fail
// at load time rather than on the first frame, and checks the vector shapes.
func (c *Config) Validate() error {
	if c.InputWidth <= 0 || c.InputHeight <= 0 {
		return errors.Errorf("invalid input dimensions %dx%d", c.InputWidth, c.InputHeight)
	}
	if _, err := transforms.ResizeFuncByType(transforms.ResizeType(c.ResizeType)); err != nil {
		return err
	}
	if _, err := transforms.InterpolationByName(c.Interpolation); err != nil {
		return err
	}
	if len(c.MeanValues) != 0 && len(c.MeanValues) != 3 {
		return errors.Errorf("mean_values needs 3 entries, got %d", len(c.MeanValues))
	}
	if len(c.ScaleValues) != 0 && len(c.ScaleValues) != 3 {
		return errors.Errorf("scale_values needs 3 entries, got %d", len(c.ScaleValues))
	}
	if len(c.OutputResolution) != 0 && len(c.OutputResolution) != 2 {
		return errors.Errorf("output_resolution needs [width, height], got %v", c.OutputResolution)
	}
	return nil
}

// InputSize returns the model input dimensions as a point.
func (c *Config) InputSize() image.Point {
	return image.Pt(c.InputWidth, c.InputHeight)
}

// OutputSize returns the requested output resolution, or the zero point when
// rescaling is disabled.
func (c *Config) OutputSize() image.Point {
	if len(c.OutputResolution) != 2 {
		return image.Point{}
	}
	return image.Pt(c.OutputResolution[0], c.OutputResolution[1])
}
