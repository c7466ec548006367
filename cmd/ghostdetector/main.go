// Advanced Ghost Detector - live motion anomaly and object overlay

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fyne.io/fyne/v2/app"
	"github.com/sirupsen/logrus"

	"ghost-detector/internal/config"
	"ghost-detector/internal/core"
	"ghost-detector/internal/gui"
)

const (
	AppName    = "Advanced Ghost Detector"
	AppID      = "com.ghostdetector.advanced"
	AppVersion = "1.0.0"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	source := flag.String("source", "", "Camera index, video file, stream URL or image directory")
	display := flag.String("display", "", "Display sink: window, fyne or none")
	detector := flag.String("detector", "", "Object detector: none, yolo or pigo")
	model := flag.String("model", "", "Detector model or cascade file")
	minArea := flag.Int("min-area", -1, "Minimum motion box area in pixels")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
			os.Exit(2)
		}
		cfg = loaded
	}

	overrides(cfg, flagOverrides{
		debug:    *debugMode,
		source:   *source,
		display:  *display,
		detector: *detector,
		model:    *model,
		minArea:  *minArea,
	})
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%s: invalid configuration: %v\n", AppName, err)
		os.Exit(2)
	}

	logger := initLogger(cfg)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": cfg.Debug,
		"source":     cfg.Source.Device,
		"algorithm":  cfg.Motion.Algorithm,
		"detector":   cfg.Detector.Kind,
		"display":    cfg.Display.Kind,
	}).Info("Starting Advanced Ghost Detector")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Detector stopped with error")
		os.Exit(1)
	}

	logger.Info("Application shutting down gracefully")
}

// run builds the pipeline for cfg and blocks until it stops
func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	src, err := newSource(cfg, logger)
	if err != nil {
		return err
	}

	opts := core.Options{
		WindowName:    cfg.Display.WindowName,
		QueueCapacity: cfg.Queue.Capacity,
		PollInterval:  cfg.Queue.PollInterval,
		JoinTimeout:   cfg.Queue.JoinTimeout,
		QuitKeys:      quitKeys(cfg),
		Debug:         cfg.Debug,
	}
	build := stageBuilder(cfg, logger)

	if cfg.Display.Kind != config.DisplayFyne {
		disp := newDisplay(cfg, logger)
		pipeline := core.NewPipeline(src, disp, build, opts, logger)
		return pipeline.Run(ctx)
	}

	// fyne owns the main goroutine; the pipeline runs beside it
	fyneApp := app.NewWithID(AppID)
	disp := gui.NewFyneDisplay(fyneApp, cfg.Display.WindowName, cfg.QuitKeyCode(), logger)
	pipeline := core.NewPipeline(src, disp, build, opts, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make(chan error, 1)
	go func() {
		err := pipeline.Run(ctx)
		disp.Quit()
		result <- err
	}()

	disp.ShowAndRun()
	cancel()
	return <-result
}

// initLogger initializes the logger with appropriate level
func initLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
		return logger
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
