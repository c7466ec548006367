// Detection overlay stage: object detector boxes and labels
package stages

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"ghost-detector/internal/core"
	"ghost-detector/internal/detect"
)

// DefaultTargetSize is the resolution the detector runs at
var DefaultTargetSize = image.Pt(320, 320)

// DetectionStage overlays the results of an object detector. It owns the
// detector handle.
type DetectionStage struct {
	detector detect.Detector
	target   image.Point
	rgb      gocv.Mat
	logger   *logrus.Entry
}

// NewDetectionStage takes ownership of detector
func NewDetectionStage(detector detect.Detector, target image.Point, logger *logrus.Logger) (*DetectionStage, error) {
	if detector == nil {
		return nil, fmt.Errorf("detector is required")
	}
	if target.X <= 0 || target.Y <= 0 {
		target = DefaultTargetSize
	}

	return &DetectionStage{
		detector: detector,
		target:   target,
		rgb:      gocv.NewMat(),
		logger:   logger.WithField("stage", "detection"),
	}, nil
}

func (s *DetectionStage) Name() string {
	return "detection"
}

// Process runs the detector on an RGB copy of the frame and draws every
// detection it returns
func (s *DetectionStage) Process(f *core.Frame) error {
	_, err := s.Detect(f)
	return err
}

// Detect is Process returning the drawn detections
func (s *DetectionStage) Detect(f *core.Frame) ([]detect.Detection, error) {
	if f.Mat.Empty() {
		return nil, fmt.Errorf("frame %d is empty", f.Seq)
	}

	if err := gocv.CvtColor(f.Mat, &s.rgb, gocv.ColorBGRToRGB); err != nil {
		return nil, fmt.Errorf("convert to rgb: %w", err)
	}

	dets, err := s.detector.Detect(s.rgb, s.target)
	if err != nil {
		return nil, fmt.Errorf("detector: %w", err)
	}

	bounds := f.Bounds()
	drawn := make([]detect.Detection, 0, len(dets))
	for _, d := range dets {
		box := clampBox(d.Box, bounds)
		if box.Empty() {
			continue
		}
		label := detect.FormatLabel(s.detector.ClassName(d.ClassID), d.Score)
		drawBox(&f.Mat, box, label)
		f.Annotate(core.Annotation{
			Kind:  core.AnnotationDetection,
			Label: label,
			Score: d.Score,
			Box:   box,
		})
		d.Box = box
		drawn = append(drawn, d)
	}

	if len(drawn) > 0 {
		s.logger.WithFields(logrus.Fields{
			"seq":        f.Seq,
			"detections": len(drawn),
		}).Debug("DETECT: Objects drawn")
	}
	return drawn, nil
}

// Close releases the detector
func (s *DetectionStage) Close() error {
	s.rgb.Close()
	return s.detector.Close()
}
