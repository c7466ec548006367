package main

import (
	"fmt"
	"image"
	"os"

	"github.com/sirupsen/logrus"

	"ghost-detector/internal/algorithms"
	"ghost-detector/internal/config"
	"ghost-detector/internal/core"
	"ghost-detector/internal/detect"
	"ghost-detector/internal/gui"
	"ghost-detector/internal/io"
	"ghost-detector/internal/stages"
)

type flagOverrides struct {
	debug    bool
	source   string
	display  string
	detector string
	model    string
	minArea  int
}

// overrides applies command line flags on top of the file configuration
func overrides(cfg *config.Config, f flagOverrides) {
	if f.debug {
		cfg.Debug = true
	}
	if f.source != "" {
		cfg.Source.Device = f.source
		if info, err := os.Stat(f.source); err == nil && info.IsDir() {
			cfg.Source.Kind = config.SourceImages
		} else {
			cfg.Source.Kind = config.SourceCapture
		}
	}
	if f.display != "" {
		cfg.Display.Kind = f.display
	}
	if f.detector != "" {
		cfg.Detector.Kind = f.detector
	}
	if f.model != "" {
		cfg.Detector.ModelPath = f.model
		if f.detector == "" && cfg.Detector.Kind == config.DetectorNone {
			cfg.Detector.Kind = config.DetectorYOLO
		}
	}
	if f.minArea >= 0 {
		cfg.Motion.MinArea = f.minArea
	}
}

func quitKeys(cfg *config.Config) []int {
	key := cfg.QuitKeyCode()
	if key == core.KeyEscape {
		return []int{key}
	}
	return []int{key, core.KeyEscape}
}

func newSource(cfg *config.Config, logger *logrus.Logger) (core.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceCapture:
		return io.NewCapture(cfg.Source.Device, cfg.Source.Width, cfg.Source.Height, logger), nil
	case config.SourceImages:
		return io.NewImageSequence(cfg.Source.Device, cfg.Source.Loop, logger), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}

func newDisplay(cfg *config.Config, logger *logrus.Logger) core.Display {
	if cfg.Display.Kind == config.DisplayNone {
		return gui.NewHeadless(cfg.Display.MaxFrames, cfg.QuitKeyCode(), logger)
	}
	return gui.NewWindow(logger)
}

func newDetector(cfg config.DetectorConfig, logger *logrus.Logger) (detect.Detector, error) {
	switch cfg.Kind {
	case config.DetectorYOLO:
		var labels []string
		if cfg.LabelsPath != "" {
			var err error
			if labels, err = detect.LoadLabels(cfg.LabelsPath); err != nil {
				return nil, err
			}
		}
		return detect.NewYOLO(detect.YOLOConfig{
			ModelPath:     cfg.ModelPath,
			ConfigPath:    cfg.ConfigPath,
			Labels:        labels,
			ConfThreshold: cfg.Confidence,
			NMSThreshold:  cfg.NMSThreshold,
		}, logger)
	case config.DetectorPigo:
		return detect.NewPigo(detect.PigoConfig{
			CascadePath: cfg.ModelPath,
			MinQuality:  cfg.MinQuality,
		}, logger)
	default:
		return detect.Nop{}, nil
	}
}

// stageBuilder returns the builder the pipeline calls once per run. Motion
// always runs; the detection overlay only when a detector is configured.
func stageBuilder(cfg *config.Config, logger *logrus.Logger) core.StageBuilder {
	return func() ([]core.Stage, error) {
		model, err := algorithms.New(cfg.Motion.Algorithm, cfg.Motion.Params)
		if err != nil {
			return nil, fmt.Errorf("background model: %w", err)
		}

		motion, err := stages.NewMotionStage(model, stages.MotionConfig{
			MinArea:       cfg.Motion.MinArea,
			MaskThreshold: cfg.Motion.MaskThreshold,
			CleanupKernel: cfg.Motion.CleanupKernel,
		}, logger)
		if err != nil {
			model.Close()
			return nil, err
		}

		if cfg.Detector.Kind == config.DetectorNone {
			return []core.Stage{motion}, nil
		}

		detector, err := newDetector(cfg.Detector, logger)
		if err != nil {
			motion.Close()
			return nil, fmt.Errorf("detector: %w", err)
		}

		target := image.Pt(cfg.Detector.TargetWidth, cfg.Detector.TargetHeight)
		overlay, err := stages.NewDetectionStage(detector, target, logger)
		if err != nil {
			detector.Close()
			motion.Close()
			return nil, err
		}

		return []core.Stage{motion, overlay}, nil
	}
}
