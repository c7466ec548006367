// Captured frame with ownership and annotation tracking
package core

import (
	"image"
	"time"

	"gocv.io/x/gocv"
)

// AnnotationKind tells which stage drew an annotation
type AnnotationKind string

const (
	AnnotationAnomaly   AnnotationKind = "anomaly"
	AnnotationDetection AnnotationKind = "detection"
)

// Annotation records one box drawn on a frame
type Annotation struct {
	Kind  AnnotationKind
	Label string
	Score float32
	Box   image.Rectangle
}

// Frame is a single captured image. Whoever holds the frame owns the Mat
// and must Close it or hand it forward.
type Frame struct {
	Mat         gocv.Mat
	Seq         uint64
	CapturedAt  time.Time
	Annotations []Annotation

	hasMat bool
}

// NewFrame wraps a captured Mat. The frame takes ownership of mat.
func NewFrame(mat gocv.Mat, seq uint64) *Frame {
	return &Frame{
		Mat:        mat,
		Seq:        seq,
		CapturedAt: time.Now(),
		hasMat:     true,
	}
}

// Bounds returns the pixel rectangle of the frame
func (f *Frame) Bounds() image.Rectangle {
	if !f.hasMat {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, f.Mat.Cols(), f.Mat.Rows())
}

// Annotate records a drawn box
func (f *Frame) Annotate(a Annotation) {
	f.Annotations = append(f.Annotations, a)
}

// AnnotationsOf returns the annotations of one kind in drawing order
func (f *Frame) AnnotationsOf(kind AnnotationKind) []Annotation {
	var out []Annotation
	for _, a := range f.Annotations {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// Close releases the underlying Mat. Safe to call more than once.
func (f *Frame) Close() {
	if f == nil || !f.hasMat {
		return
	}
	f.Mat.Close()
	f.hasMat = false
}
