package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-modelapi/config"
	"github.com/nvr-ai/go-modelapi/logger"
	"github.com/nvr-ai/go-modelapi/pipeline"
	"github.com/nvr-ai/go-modelapi/transforms"
)

func main() {
	var (
		configPath string
		imagePath  string
		dev        bool
	)
	flag.StringVar(&configPath, "config", "pipeline.yaml", "Path to the pipeline YAML config")
	flag.StringVar(&imagePath, "image", "", "Image to run the transform pipeline on")
	flag.BoolVar(&dev, "dev", false, "Use the development logger")
	flag.Parse()

	var err error
	if dev {
		err = logger.InitDevelopment()
	} else {
		err = logger.InitProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Log().Fatal("load config", zap.Error(err))
	}

	if imagePath == "" {
		logger.Log().Fatal("an -image path is required")
	}

	frame := gocv.IMRead(imagePath, gocv.IMReadColor)
	if frame.Empty() {
		logger.Log().Fatal("read image", zap.String("path", imagePath))
	}
	defer frame.Close()

	// Without a wired engine, demonstrate the transform path: prepare the
	// frame for inference and rescale it to the output resolution.
	p, err := pipeline.New(cfg, pipeline.InferencerFunc(func(input gocv.Mat) (*pipeline.RawOutput, error) {
		return &pipeline.RawOutput{}, nil
	}))
	if err != nil {
		logger.Log().Fatal("build pipeline", zap.Error(err))
	}

	input := p.Prepare(frame)
	defer input.Close()
	logger.Log().Info("prepared model input",
		zap.String("resize_type", cfg.ResizeType),
		zap.Int("width", input.Cols()),
		zap.Int("height", input.Rows()),
		zap.Int("source_width", frame.Cols()),
		zap.Int("source_height", frame.Rows()),
	)

	output := transforms.NewOutputTransform(cfg.InputSize(), cfg.OutputSize())
	display := output.Resize(frame)
	logger.Log().Info("output resolution mapping",
		zap.Float32("scale_factor", output.ScaleFactor()),
		zap.Int("width", display.Cols()),
		zap.Int("height", display.Rows()),
	)
	if display.Ptr() != frame.Ptr() {
		display.Close()
	}
}
