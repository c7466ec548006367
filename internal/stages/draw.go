package stages

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Box and label style shared by both overlays
var (
	boxColor      = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	boxThickness  = 2
	labelScale    = 0.5
	labelOffset   = 10
	labelFallback = 15
)

// clampBox restricts box to bounds; an empty result means nothing to draw
func clampBox(box, bounds image.Rectangle) image.Rectangle {
	return box.Canon().Intersect(bounds)
}

// labelOrigin places the label just above the box, or inside the top edge
// when the box touches the top of the frame
func labelOrigin(box image.Rectangle) image.Point {
	y := box.Min.Y - labelOffset
	if y < labelOffset {
		y = box.Min.Y + labelFallback
	}
	return image.Pt(box.Min.X, y)
}

// drawBox draws a rectangle with a text label on img
func drawBox(img *gocv.Mat, box image.Rectangle, label string) {
	gocv.Rectangle(img, box, boxColor, boxThickness)
	gocv.PutText(img, label, labelOrigin(box), gocv.FontHersheySimplex, labelScale, boxColor, 1)
}
