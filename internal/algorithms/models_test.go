package algorithms

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestRunningAverageSeedsOnFirstFrame(t *testing.T) {
	model, err := New("running_average", nil)
	require.NoError(t, err)
	defer model.Close()

	frame := frameWithSquare(120, 160, image.Rect(40, 40, 90, 90))
	defer frame.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	require.NoError(t, model.Apply(frame, &mask))
	assert.Equal(t, 120, mask.Rows())
	assert.Equal(t, 160, mask.Cols())
	assert.Equal(t, 1, mask.Channels())
	assert.Zero(t, gocv.CountNonZero(mask))
}

func TestRunningAverageStaticAndMoving(t *testing.T) {
	model, err := New("running_average", map[string]interface{}{"alpha": 0.05, "threshold": 25})
	require.NoError(t, err)
	defer model.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	background := blankFrame(120, 160)
	defer background.Close()
	for i := 0; i < 5; i++ {
		require.NoError(t, model.Apply(background, &mask))
		assert.Zero(t, gocv.CountNonZero(mask), "static frame %d", i)
	}

	square := image.Rect(60, 40, 110, 90)
	moving := frameWithSquare(120, 160, square)
	defer moving.Close()
	require.NoError(t, model.Apply(moving, &mask))

	boxes := ForegroundRegions(mask, 100)
	require.Len(t, boxes, 1)
	assert.True(t, boxes[0].Overlaps(square))
	assert.True(t, boxes[0].In(image.Rect(0, 0, 160, 120)))
}

func TestRunningAverageRejectsEmptyFrame(t *testing.T) {
	model, err := New("running_average", nil)
	require.NoError(t, err)
	defer model.Close()

	empty := gocv.NewMat()
	defer empty.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	assert.Error(t, model.Apply(empty, &mask))
}

func TestMOG2StaticThenMoving(t *testing.T) {
	model, err := New("mog2", nil)
	require.NoError(t, err)
	defer model.Close()

	filter, err := NewMaskFilter(200, 0)
	require.NoError(t, err)
	defer filter.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	background := blankFrame(120, 160)
	defer background.Close()
	for i := 0; i < 30; i++ {
		require.NoError(t, model.Apply(background, &mask))
	}
	require.NoError(t, filter.Apply(&mask))
	assert.Empty(t, ForegroundRegions(mask, 1000), "static scene after warm-up")

	square := image.Rect(50, 30, 110, 90)
	moving := frameWithSquare(120, 160, square)
	defer moving.Close()
	require.NoError(t, model.Apply(moving, &mask))
	require.NoError(t, filter.Apply(&mask))

	boxes := ForegroundRegions(mask, 1000)
	require.Len(t, boxes, 1)
	assert.True(t, boxes[0].Overlaps(square))
}

func TestSubtractorsRejectEmptyFrame(t *testing.T) {
	for _, name := range []string{"mog2", "knn"} {
		model, err := New(name, nil)
		require.NoError(t, err)

		empty := gocv.NewMat()
		mask := gocv.NewMat()
		assert.Error(t, model.Apply(empty, &mask), name)

		empty.Close()
		mask.Close()
		model.Close()
	}
}
