// Object detector abstraction consumed by the detection overlay stage
package detect

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Detection is one labelled, scored box in frame coordinates
type Detection struct {
	ClassID int
	Score   float32
	Box     image.Rectangle
}

// Detector finds objects in a single RGB frame. target is the resolution
// the model runs at; returned boxes are in the coordinates of img. Only
// detections above the detector's own confidence threshold are returned.
type Detector interface {
	Detect(img gocv.Mat, target image.Point) ([]Detection, error)
	ClassName(id int) string
	Close() error
}

// FormatLabel renders "<class>: <score>" with two decimals
func FormatLabel(class string, score float32) string {
	return fmt.Sprintf("%s: %.2f", class, score)
}

// Nop is a Detector that never finds anything
type Nop struct{}

func (Nop) Detect(gocv.Mat, image.Point) ([]Detection, error) { return nil, nil }
func (Nop) ClassName(id int) string                          { return fmt.Sprintf("class_%d", id) }
func (Nop) Close() error                                      { return nil }
