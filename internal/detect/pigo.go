// Face detector backed by the pigo cascade classifier
package detect

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// PigoConfig configures the cascade face detector
type PigoConfig struct {
	CascadePath  string
	MinSize      int
	MaxSize      int
	ShiftFactor  float64
	ScaleFactor  float64
	IoUThreshold float64
	// MinQuality is the raw cascade score a detection must reach
	MinQuality float32
}

// pigo scores are unbounded; q/(q+qualityHalf) maps them into [0,1) with
// qualityHalf landing on 0.5
const qualityHalf = 10.0

// Pigo detects faces. Its only class is "face".
type Pigo struct {
	classifier *pigo.Pigo
	cfg        PigoConfig
	logger     *logrus.Entry

	resized gocv.Mat
	gray    gocv.Mat
}

// NewPigo unpacks the cascade file
func NewPigo(cfg PigoConfig, logger *logrus.Logger) (*Pigo, error) {
	if cfg.CascadePath == "" {
		return nil, fmt.Errorf("pigo cascade path is required")
	}
	cascade, err := os.ReadFile(cfg.CascadePath)
	if err != nil {
		return nil, fmt.Errorf("read cascade file: %w", err)
	}

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the cascade file: %w", err)
	}

	if cfg.MinSize <= 0 {
		cfg.MinSize = 20
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1000
	}
	if cfg.ShiftFactor <= 0 {
		cfg.ShiftFactor = 0.1
	}
	if cfg.ScaleFactor <= 0 {
		cfg.ScaleFactor = 1.1
	}
	if cfg.IoUThreshold <= 0 {
		cfg.IoUThreshold = 0.2
	}
	if cfg.MinQuality <= 0 {
		cfg.MinQuality = 5
	}

	entry := logger.WithField("cascade", cfg.CascadePath)
	entry.Info("DETECT: Pigo cascade loaded")

	return &Pigo{
		classifier: classifier,
		cfg:        cfg,
		logger:     entry,
		resized:    gocv.NewMat(),
		gray:       gocv.NewMat(),
	}, nil
}

// Detect runs the cascade on a grayscale copy of the RGB image resized to
// target. A zero target runs at the native size.
func (p *Pigo) Detect(img gocv.Mat, target image.Point) ([]Detection, error) {
	if img.Empty() {
		return nil, fmt.Errorf("input image is empty")
	}

	src := img
	if target.X > 0 && target.Y > 0 {
		if err := gocv.Resize(img, &p.resized, target, 0, 0, gocv.InterpolationLinear); err != nil {
			return nil, fmt.Errorf("resize for cascade: %w", err)
		}
		src = p.resized
	}
	if err := gocv.CvtColor(src, &p.gray, gocv.ColorRGBToGray); err != nil {
		return nil, fmt.Errorf("grayscale conversion: %w", err)
	}

	rows, cols := p.gray.Rows(), p.gray.Cols()
	params := pigo.CascadeParams{
		MinSize:     p.cfg.MinSize,
		MaxSize:     p.cfg.MaxSize,
		ShiftFactor: p.cfg.ShiftFactor,
		ScaleFactor: p.cfg.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: p.gray.ToBytes(),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	raw := p.classifier.RunCascade(params, 0.0)
	raw = p.classifier.ClusterDetections(raw, p.cfg.IoUThreshold)

	scaleX := float64(img.Cols()) / float64(cols)
	scaleY := float64(img.Rows()) / float64(rows)

	var dets []Detection
	for _, d := range raw {
		if d.Q < p.cfg.MinQuality {
			continue
		}
		half := d.Scale / 2
		box := image.Rect(
			int(float64(d.Col-half)*scaleX),
			int(float64(d.Row-half)*scaleY),
			int(float64(d.Col+half)*scaleX),
			int(float64(d.Row+half)*scaleY),
		)
		dets = append(dets, Detection{
			ClassID: 0,
			Score:   d.Q / (d.Q + qualityHalf),
			Box:     box,
		})
	}

	p.logger.WithField("detections", len(dets)).Debug("DETECT: Cascade complete")
	return dets, nil
}

// ClassName always reports "face"
func (p *Pigo) ClassName(int) string {
	return "face"
}

// Close releases scratch buffers
func (p *Pigo) Close() error {
	p.resized.Close()
	p.gray.Close()
	return nil
}
