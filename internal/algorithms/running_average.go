// Running-average background model: grayscale, blur, accumulate, threshold
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// RunningAverage keeps an exponentially weighted average of the blurred
// grayscale scene and marks pixels whose absolute difference from it
// exceeds a threshold. The first frame seeds the average and yields an
// empty mask.
type RunningAverage struct{}

// NewRunningAverage creates the running-average algorithm descriptor
func NewRunningAverage() *RunningAverage {
	return &RunningAverage{}
}

type runningAverageModel struct {
	alpha      float64
	threshold  float32
	blurKernel int

	background gocv.Mat // CV_32F accumulator
	gray       gocv.Mat
	reference  gocv.Mat
	delta      gocv.Mat
}

func (r *RunningAverage) New(params map[string]interface{}) (BackgroundModel, error) {
	blur := intParam(params, "blur_kernel", 5)
	if blur > 0 && blur%2 == 0 {
		blur++
	}

	return &runningAverageModel{
		alpha:      floatParam(params, "alpha", 0.05),
		threshold:  float32(floatParam(params, "threshold", 25)),
		blurKernel: blur,
		background: gocv.NewMat(),
		gray:       gocv.NewMat(),
		reference:  gocv.NewMat(),
		delta:      gocv.NewMat(),
	}, nil
}

func (m *runningAverageModel) Apply(frame gocv.Mat, mask *gocv.Mat) error {
	if frame.Empty() {
		return fmt.Errorf("input frame is empty")
	}

	if frame.Channels() == 1 {
		frame.CopyTo(&m.gray)
	} else if err := gocv.CvtColor(frame, &m.gray, gocv.ColorBGRToGray); err != nil {
		return fmt.Errorf("grayscale conversion: %w", err)
	}

	if m.blurKernel > 1 {
		gocv.GaussianBlur(m.gray, &m.gray, image.Pt(m.blurKernel, m.blurKernel), 0, 0, gocv.BorderDefault)
	}

	if m.background.Empty() || m.background.Rows() != m.gray.Rows() || m.background.Cols() != m.gray.Cols() {
		m.gray.ConvertTo(&m.background, gocv.MatTypeCV32F)
		zero := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), m.gray.Rows(), m.gray.Cols(), gocv.MatTypeCV8U)
		defer zero.Close()
		zero.CopyTo(mask)
		return nil
	}

	m.background.ConvertTo(&m.reference, gocv.MatTypeCV8U)
	gocv.AbsDiff(m.gray, m.reference, &m.delta)
	gocv.Threshold(m.delta, mask, m.threshold, 255, gocv.ThresholdBinary)

	gocv.AccumulatedWeighted(m.gray, &m.background, m.alpha)
	return nil
}

func (m *runningAverageModel) Close() error {
	m.background.Close()
	m.gray.Close()
	m.reference.Close()
	m.delta.Close()
	return nil
}

func (r *RunningAverage) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":       0.05,
		"threshold":   25.0,
		"blur_kernel": 5.0,
	}
}

func (r *RunningAverage) GetName() string {
	return "Running Average"
}

func (r *RunningAverage) GetDescription() string {
	return "Exponentially weighted grayscale background with absolute-difference threshold"
}

func (r *RunningAverage) Validate(params map[string]interface{}) error {
	if err := checkRange(params, "alpha", 0.0001, 1); err != nil {
		return err
	}
	if err := checkRange(params, "threshold", 1, 254); err != nil {
		return err
	}
	return checkRange(params, "blur_kernel", 0, 31)
}

func (r *RunningAverage) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "alpha",
			Type:        "float",
			Min:         0.0001,
			Max:         1.0,
			Default:     0.05,
			Description: "Weight of the newest frame in the background average",
		},
		{
			Name:        "threshold",
			Type:        "float",
			Min:         1.0,
			Max:         254.0,
			Default:     25.0,
			Description: "Minimum absolute difference marking a pixel as foreground",
		},
		{
			Name:        "blur_kernel",
			Type:        "int",
			Min:         0.0,
			Max:         31.0,
			Default:     5.0,
			Description: "Gaussian blur kernel applied before comparison, 0 disables",
		},
	}
}
