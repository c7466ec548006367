// Connected foreground regions from a binary mask
package algorithms

import (
	"image"

	"gocv.io/x/gocv"
)

// ForegroundRegions returns the bounding boxes of the outer contours of
// the connected regions in mask. Holes are ignored. Boxes are clamped to
// the mask and only those whose area is strictly greater than minArea are
// kept.
func ForegroundRegions(mask gocv.Mat, minArea int) []image.Rectangle {
	if mask.Empty() {
		return nil
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	bounds := image.Rect(0, 0, mask.Cols(), mask.Rows())
	var boxes []image.Rectangle
	for i := 0; i < contours.Size(); i++ {
		box := gocv.BoundingRect(contours.At(i)).Intersect(bounds)
		if box.Empty() {
			continue
		}
		if box.Dx()*box.Dy() <= minArea {
			continue
		}
		boxes = append(boxes, box)
	}
	return boxes
}
