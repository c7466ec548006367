package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete detector configuration
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Queue    QueueConfig    `yaml:"queue"`
	Motion   MotionConfig   `yaml:"motion"`
	Detector DetectorConfig `yaml:"detector"`
	Display  DisplayConfig  `yaml:"display"`
	Log      LogConfig      `yaml:"log"`
	Debug    bool           `yaml:"debug"`
}

// SourceConfig selects where frames come from
type SourceConfig struct {
	Kind   string `yaml:"kind"`   // capture, images
	Device string `yaml:"device"` // camera index, file, URL or image directory
	Width  int    `yaml:"width"`  // requested capture width, 0 keeps the device default
	Height int    `yaml:"height"`
	Loop   bool   `yaml:"loop"` // images only
}

// QueueConfig controls the producer/consumer hand-off
type QueueConfig struct {
	Capacity     int           `yaml:"capacity"`
	PollInterval time.Duration `yaml:"poll_interval"` // 0 spins
	JoinTimeout  time.Duration `yaml:"join_timeout"`
}

// MotionConfig configures the background model and box filter
type MotionConfig struct {
	Algorithm     string                 `yaml:"algorithm"` // mog2, knn, running_average
	Params        map[string]interface{} `yaml:"params"`
	MinArea       int                    `yaml:"min_area"`
	MaskThreshold float32                `yaml:"mask_threshold"`
	CleanupKernel int                    `yaml:"cleanup_kernel"`
}

// DetectorConfig selects the object detector
type DetectorConfig struct {
	Kind         string  `yaml:"kind"` // none, yolo, pigo
	ModelPath    string  `yaml:"model_path"`
	ConfigPath   string  `yaml:"config_path"` // darknet cfg, empty for onnx
	LabelsPath   string  `yaml:"labels_path"`
	TargetWidth  int     `yaml:"target_width"`
	TargetHeight int     `yaml:"target_height"`
	Confidence   float32 `yaml:"confidence"`
	NMSThreshold float64 `yaml:"nms_threshold"`
	MinQuality   float32 `yaml:"min_quality"` // pigo only
}

// DisplayConfig selects the display sink
type DisplayConfig struct {
	Kind       string `yaml:"kind"` // window, fyne, none
	WindowName string `yaml:"window_name"`
	QuitKey    string `yaml:"quit_key"`
	MaxFrames  uint64 `yaml:"max_frames"` // none only, 0 runs until the stream ends
}

// LogConfig controls logrus output
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json
}

const (
	SourceCapture = "capture"
	SourceImages  = "images"

	DetectorNone = "none"
	DetectorYOLO = "yolo"
	DetectorPigo = "pigo"

	DisplayWindow = "window"
	DisplayFyne   = "fyne"
	DisplayNone   = "none"
)

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:   SourceCapture,
			Device: "0",
		},
		Queue: QueueConfig{
			Capacity:     10,
			PollInterval: 5 * time.Millisecond,
			JoinTimeout:  2 * time.Second,
		},
		Motion: MotionConfig{
			Algorithm:     "mog2",
			MinArea:       1000,
			MaskThreshold: 200,
		},
		Detector: DetectorConfig{
			Kind:         DetectorNone,
			TargetWidth:  320,
			TargetHeight: 320,
			Confidence:   0.25,
			NMSThreshold: 0.45,
			MinQuality:   5,
		},
		Display: DisplayConfig{
			Kind:       DisplayWindow,
			WindowName: "Advanced Ghost Detector",
			QuitKey:    "q",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// QuitKeyCode returns the key code of the configured quit key
func (c *Config) QuitKeyCode() int {
	if c.Display.QuitKey == "" {
		return 'q'
	}
	if c.Display.QuitKey == "esc" {
		return 27
	}
	return int([]rune(c.Display.QuitKey)[0])
}
