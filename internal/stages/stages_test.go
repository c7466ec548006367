package stages

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"ghost-detector/internal/core"
	"ghost-detector/internal/detect"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 0}

func newTestLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func blankFrame(rows, cols int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC3)
}

// maskModel replays a fixed foreground mask
type maskModel struct {
	mask   gocv.Mat
	err    error
	closed bool
}

func (m *maskModel) Apply(frame gocv.Mat, mask *gocv.Mat) error {
	if m.err != nil {
		return m.err
	}
	m.mask.CopyTo(mask)
	return nil
}

func (m *maskModel) Close() error {
	m.closed = true
	return m.mask.Close()
}

func newMaskModel(rows, cols int, regions ...image.Rectangle) *maskModel {
	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8U)
	for _, r := range regions {
		gocv.Rectangle(&mask, r, white, -1)
	}
	return &maskModel{mask: mask}
}

// scriptedDetector returns fixed detections and records what it was given
type scriptedDetector struct {
	dets   []detect.Detection
	err    error
	target image.Point
	first  uint8
	third  uint8
	closed bool
}

func (d *scriptedDetector) Detect(img gocv.Mat, target image.Point) ([]detect.Detection, error) {
	d.target = target
	d.first = img.GetUCharAt(0, 0)
	d.third = img.GetUCharAt(0, 2)
	return d.dets, d.err
}

func (d *scriptedDetector) ClassName(id int) string {
	return detect.CocoClasses[id]
}

func (d *scriptedDetector) Close() error {
	d.closed = true
	return nil
}

func TestMotionStageDrawsLargeRegions(t *testing.T) {
	large := image.Rect(20, 30, 80, 90)
	model := newMaskModel(120, 160, large, image.Rect(120, 10, 125, 15))

	stage, err := NewMotionStage(model, MotionConfig{MinArea: 1000, MaskThreshold: 200}, newTestLogger())
	require.NoError(t, err)

	frame := core.NewFrame(blankFrame(120, 160), 1)
	defer frame.Close()

	boxes, err := stage.Detect(frame)
	require.NoError(t, err)
	require.Equal(t, []image.Rectangle{large}, boxes)

	anomalies := frame.AnnotationsOf(core.AnnotationAnomaly)
	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyLabel, anomalies[0].Label)
	assert.Equal(t, large, anomalies[0].Box)

	// green outline on the box corner
	assert.Equal(t, uint8(0), frame.Mat.GetUCharAt(large.Min.Y, large.Min.X*3))
	assert.Equal(t, uint8(255), frame.Mat.GetUCharAt(large.Min.Y, large.Min.X*3+1))

	require.NoError(t, stage.Close())
	assert.True(t, model.closed)
}

func TestMotionStageBoxesInsideFrame(t *testing.T) {
	model := newMaskModel(60, 60, image.Rect(30, 30, 60, 60), image.Rect(0, 0, 25, 25))
	stage, err := NewMotionStage(model, MotionConfig{MinArea: 100}, newTestLogger())
	require.NoError(t, err)
	defer stage.Close()

	frame := core.NewFrame(blankFrame(60, 60), 1)
	defer frame.Close()

	boxes, err := stage.Detect(frame)
	require.NoError(t, err)
	require.Len(t, boxes, 2)
	for _, b := range boxes {
		assert.True(t, b.In(frame.Bounds()), "%v outside frame", b)
	}
}

func TestMotionStageErrors(t *testing.T) {
	_, err := NewMotionStage(nil, MotionConfig{}, newTestLogger())
	assert.Error(t, err)

	model := newMaskModel(10, 10)
	_, err = NewMotionStage(model, MotionConfig{MinArea: -1}, newTestLogger())
	assert.Error(t, err)
	_, err = NewMotionStage(model, MotionConfig{CleanupKernel: 40}, newTestLogger())
	assert.Error(t, err)
	model.Close()

	errModel := errors.New("subtractor failed")
	failing := newMaskModel(10, 10)
	failing.err = errModel
	stage, err := NewMotionStage(failing, MotionConfig{}, newTestLogger())
	require.NoError(t, err)
	defer stage.Close()

	frame := core.NewFrame(blankFrame(10, 10), 1)
	defer frame.Close()
	assert.ErrorIs(t, stage.Process(frame), errModel)

	empty := core.NewFrame(gocv.NewMat(), 2)
	defer empty.Close()
	assert.Error(t, stage.Process(empty))
}

func TestDetectionStageDrawsClampedBoxes(t *testing.T) {
	detector := &scriptedDetector{dets: []detect.Detection{
		{ClassID: 0, Score: 0.8734, Box: image.Rect(10, 10, 40, 60)},
		{ClassID: 2, Score: 0.5, Box: image.Rect(90, 50, 140, 120)},
		{ClassID: 15, Score: 0.4, Box: image.Rect(200, 200, 240, 240)},
	}}
	stage, err := NewDetectionStage(detector, image.Point{}, newTestLogger())
	require.NoError(t, err)

	// blue in BGR
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), 100, 120, gocv.MatTypeCV8UC3)
	frame := core.NewFrame(mat, 1)
	defer frame.Close()

	drawn, err := stage.Detect(frame)
	require.NoError(t, err)
	require.Len(t, drawn, 2, "boxes entirely outside the frame are skipped")

	assert.Equal(t, DefaultTargetSize, detector.target)
	assert.Equal(t, uint8(0), detector.first, "detector sees RGB")
	assert.Equal(t, uint8(255), detector.third)

	detections := frame.AnnotationsOf(core.AnnotationDetection)
	require.Len(t, detections, 2)
	assert.Equal(t, "person: 0.87", detections[0].Label)
	assert.Equal(t, "car: 0.50", detections[1].Label)
	assert.Equal(t, image.Rect(90, 50, 120, 100), detections[1].Box)
	for _, d := range detections {
		assert.True(t, d.Box.In(frame.Bounds()))
	}

	require.NoError(t, stage.Close())
	assert.True(t, detector.closed)
}

func TestDetectionStageDetectorErrorIsFatal(t *testing.T) {
	errNet := errors.New("forward failed")
	stage, err := NewDetectionStage(&scriptedDetector{err: errNet}, image.Pt(320, 320), newTestLogger())
	require.NoError(t, err)
	defer stage.Close()

	frame := core.NewFrame(blankFrame(20, 20), 1)
	defer frame.Close()

	err = stage.Process(frame)
	assert.ErrorIs(t, err, errNet)
	assert.Empty(t, frame.Annotations)

	_, err = NewDetectionStage(nil, image.Point{}, newTestLogger())
	assert.Error(t, err)
}

func TestLabelOrigin(t *testing.T) {
	assert.Equal(t, image.Pt(30, 40), labelOrigin(image.Rect(30, 50, 80, 90)))
	assert.Equal(t, image.Pt(30, 20), labelOrigin(image.Rect(30, 5, 80, 90)))
}

func TestClampBox(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)
	assert.Equal(t, image.Rect(0, 0, 20, 20), clampBox(image.Rect(-10, -10, 20, 20), bounds))
	assert.Equal(t, image.Rect(10, 10, 30, 30), clampBox(image.Rect(30, 30, 10, 10), bounds))
	assert.True(t, clampBox(image.Rect(150, 150, 160, 160), bounds).Empty())
}
