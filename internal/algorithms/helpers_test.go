package algorithms

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 0}

// blankFrame returns a black BGR frame
func blankFrame(rows, cols int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC3)
}

// frameWithSquare returns a black BGR frame with a filled white rectangle
func frameWithSquare(rows, cols int, r image.Rectangle) gocv.Mat {
	m := blankFrame(rows, cols)
	gocv.Rectangle(&m, r, white, -1)
	return m
}

func blankMask(rows, cols int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8U)
}

var (
	black  = color.RGBA{}
	shadow = color.RGBA{R: 127, G: 127, B: 127, A: 0}
)
