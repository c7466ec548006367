package main

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghost-detector/internal/config"
	"ghost-detector/internal/core"
	"ghost-detector/internal/detect"
	"ghost-detector/internal/gui"
	"ghost-detector/internal/io"
)

func TestOverrides(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()

	overrides(cfg, flagOverrides{
		debug:   true,
		source:  dir,
		display: config.DisplayNone,
		model:   "yolov8n.onnx",
		minArea: 250,
	})

	assert.True(t, cfg.Debug)
	assert.Equal(t, config.SourceImages, cfg.Source.Kind)
	assert.Equal(t, dir, cfg.Source.Device)
	assert.Equal(t, config.DisplayNone, cfg.Display.Kind)
	assert.Equal(t, config.DetectorYOLO, cfg.Detector.Kind, "a model implies yolo")
	assert.Equal(t, 250, cfg.Motion.MinArea)
}

func TestOverridesKeepFileValues(t *testing.T) {
	cfg := config.Default()
	cfg.Motion.MinArea = 1500
	cfg.Detector.Kind = config.DetectorPigo

	overrides(cfg, flagOverrides{source: "rtsp://camera/stream", model: "facefinder", minArea: -1})

	assert.Equal(t, config.SourceCapture, cfg.Source.Kind)
	assert.Equal(t, 1500, cfg.Motion.MinArea)
	assert.Equal(t, config.DetectorPigo, cfg.Detector.Kind)
	assert.Equal(t, "facefinder", cfg.Detector.ModelPath)
}

func TestQuitKeys(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, []int{'q', core.KeyEscape}, quitKeys(cfg))

	cfg.Display.QuitKey = "esc"
	assert.Equal(t, []int{core.KeyEscape}, quitKeys(cfg))
}

func TestFactories(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := config.Default()

	src, err := newSource(cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &io.Capture{}, src)

	cfg.Source.Kind = config.SourceImages
	src, err = newSource(cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &io.ImageSequence{}, src)

	cfg.Source.Kind = "rtsp"
	_, err = newSource(cfg, logger)
	assert.Error(t, err)

	assert.IsType(t, &gui.Window{}, newDisplay(cfg, logger))
	cfg.Display.Kind = config.DisplayNone
	assert.IsType(t, &gui.Headless{}, newDisplay(cfg, logger))

	d, err := newDetector(config.DetectorConfig{Kind: config.DetectorNone}, logger)
	require.NoError(t, err)
	assert.Equal(t, detect.Nop{}, d)

	_, err = newDetector(config.DetectorConfig{Kind: config.DetectorYOLO, LabelsPath: "missing.txt"}, logger)
	assert.Error(t, err)
}

func TestStageBuilder(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := config.Default()
	cfg.Motion.Algorithm = "running_average"

	built, err := stageBuilder(cfg, logger)()
	require.NoError(t, err)
	require.Len(t, built, 1)
	assert.Equal(t, "motion", built[0].Name())
	assert.NoError(t, built[0].Close())

	cfg.Detector.Kind = config.DetectorPigo
	cfg.Detector.ModelPath = "missing-cascade"
	_, err = stageBuilder(cfg, logger)()
	assert.ErrorContains(t, err, "detector")

	cfg.Motion.Algorithm = "otsu"
	_, err = stageBuilder(cfg, logger)()
	assert.ErrorContains(t, err, "background model")
}
