// Motion anomaly stage: background subtraction and contour boxes
package stages

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"ghost-detector/internal/algorithms"
	"ghost-detector/internal/core"
)

// AnomalyLabel is drawn next to every motion box
const AnomalyLabel = "Anomaly Detected"

// MotionConfig tunes the motion stage
type MotionConfig struct {
	// MinArea is the bounding box area a region must exceed
	MinArea int
	// MaskThreshold binarises the model output; 0 keeps it as is
	MaskThreshold float32
	// CleanupKernel is the close/open kernel size; 0 disables cleanup
	CleanupKernel int
}

// MotionStage highlights regions that differ from the learned background.
// It owns the background model for the whole run.
type MotionStage struct {
	model  algorithms.BackgroundModel
	filter *algorithms.MaskFilter
	cfg    MotionConfig
	mask   gocv.Mat
	logger *logrus.Entry
}

// NewMotionStage takes ownership of model
func NewMotionStage(model algorithms.BackgroundModel, cfg MotionConfig, logger *logrus.Logger) (*MotionStage, error) {
	if model == nil {
		return nil, fmt.Errorf("background model is required")
	}
	if cfg.MinArea < 0 {
		return nil, fmt.Errorf("min area must not be negative")
	}

	filter, err := algorithms.NewMaskFilter(cfg.MaskThreshold, cfg.CleanupKernel)
	if err != nil {
		return nil, err
	}

	return &MotionStage{
		model:  model,
		filter: filter,
		cfg:    cfg,
		mask:   gocv.NewMat(),
		logger: logger.WithField("stage", "motion"),
	}, nil
}

func (s *MotionStage) Name() string {
	return "motion"
}

// Process updates the background model with the frame and draws a box
// around every sufficiently large foreground region
func (s *MotionStage) Process(f *core.Frame) error {
	_, err := s.Detect(f)
	return err
}

// Detect is Process returning the drawn boxes
func (s *MotionStage) Detect(f *core.Frame) ([]image.Rectangle, error) {
	if f.Mat.Empty() {
		return nil, fmt.Errorf("frame %d is empty", f.Seq)
	}

	if err := s.model.Apply(f.Mat, &s.mask); err != nil {
		return nil, fmt.Errorf("background model update: %w", err)
	}
	if err := s.filter.Apply(&s.mask); err != nil {
		return nil, fmt.Errorf("mask cleanup: %w", err)
	}

	bounds := f.Bounds()
	regions := algorithms.ForegroundRegions(s.mask, s.cfg.MinArea)
	boxes := make([]image.Rectangle, 0, len(regions))
	for _, r := range regions {
		box := clampBox(r, bounds)
		if box.Empty() {
			continue
		}
		drawBox(&f.Mat, box, AnomalyLabel)
		f.Annotate(core.Annotation{
			Kind:  core.AnnotationAnomaly,
			Label: AnomalyLabel,
			Box:   box,
		})
		boxes = append(boxes, box)
	}

	if len(boxes) > 0 {
		s.logger.WithFields(logrus.Fields{
			"seq":   f.Seq,
			"boxes": len(boxes),
		}).Debug("MOTION: Anomalies found")
	}
	return boxes, nil
}

// Close releases the background model and scratch buffers
func (s *MotionStage) Close() error {
	s.mask.Close()
	s.filter.Close()
	return s.model.Close()
}
