package config

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"ghost-detector/internal/algorithms"
)

// Validate checks every section and reports all problems at once
func Validate(cfg *Config) error {
	var errs []error
	fail := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch cfg.Source.Kind {
	case SourceCapture, SourceImages:
	default:
		fail("source.kind must be %q or %q, got %q", SourceCapture, SourceImages, cfg.Source.Kind)
	}
	if cfg.Source.Device == "" {
		fail("source.device is required")
	}
	if cfg.Source.Width < 0 || cfg.Source.Height < 0 {
		fail("source.width and source.height must not be negative")
	}

	if cfg.Queue.Capacity <= 0 {
		fail("queue.capacity must be > 0")
	}
	if cfg.Queue.PollInterval < 0 {
		fail("queue.poll_interval must not be negative")
	}
	if cfg.Queue.JoinTimeout <= 0 {
		fail("queue.join_timeout must be > 0")
	}

	if !algorithms.IsValidAlgorithm(cfg.Motion.Algorithm) {
		fail("motion.algorithm %q is unknown, available: %v", cfg.Motion.Algorithm, algorithms.Names())
	} else if err := algorithms.ValidateParameters(cfg.Motion.Algorithm, cfg.Motion.Params); err != nil {
		fail("motion.params: %w", err)
	}
	if cfg.Motion.MinArea < 0 {
		fail("motion.min_area must not be negative")
	}
	if cfg.Motion.MaskThreshold < 0 || cfg.Motion.MaskThreshold > 254 {
		fail("motion.mask_threshold must be in [0, 254]")
	}
	if cfg.Motion.CleanupKernel < 0 || cfg.Motion.CleanupKernel > 31 {
		fail("motion.cleanup_kernel must be in [0, 31]")
	}

	switch cfg.Detector.Kind {
	case DetectorNone:
	case DetectorYOLO, DetectorPigo:
		if cfg.Detector.ModelPath == "" {
			fail("detector.model_path is required for %s", cfg.Detector.Kind)
		}
	default:
		fail("detector.kind must be one of none, yolo, pigo, got %q", cfg.Detector.Kind)
	}
	if cfg.Detector.TargetWidth <= 0 || cfg.Detector.TargetHeight <= 0 {
		fail("detector.target_width and detector.target_height must be > 0")
	}
	if cfg.Detector.Confidence < 0 || cfg.Detector.Confidence > 1 {
		fail("detector.confidence must be in [0, 1]")
	}
	if cfg.Detector.NMSThreshold < 0 || cfg.Detector.NMSThreshold > 1 {
		fail("detector.nms_threshold must be in [0, 1]")
	}

	switch cfg.Display.Kind {
	case DisplayWindow, DisplayFyne, DisplayNone:
	default:
		fail("display.kind must be one of window, fyne, none, got %q", cfg.Display.Kind)
	}
	if cfg.Display.QuitKey != "esc" && utf8.RuneCountInString(cfg.Display.QuitKey) > 1 {
		fail("display.quit_key must be a single character or \"esc\"")
	}

	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		fail("log.level: %w", err)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		fail("log.format must be text or json, got %q", cfg.Log.Format)
	}

	return errors.Join(errs...)
}
