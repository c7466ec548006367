// Foreground mask cleanup: shadow removal and morphological close/open
package algorithms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// MaskFilter binarises a foreground mask and optionally closes small gaps
// and removes speckles with a square kernel. Subtractors that detect
// shadows mark them 127, so a threshold above that drops them.
type MaskFilter struct {
	threshold  float32
	kernelSize int
	kernel     gocv.Mat
}

// NewMaskFilter creates a filter. kernelSize 0 disables the morphology step
// and threshold 0 disables binarisation.
func NewMaskFilter(threshold float32, kernelSize int) (*MaskFilter, error) {
	if threshold < 0 || threshold > 254 {
		return nil, fmt.Errorf("mask threshold must be between 0 and 254")
	}
	if kernelSize < 0 || kernelSize > 31 {
		return nil, fmt.Errorf("kernel_size must be between 0 and 31")
	}

	f := &MaskFilter{
		threshold:  threshold,
		kernelSize: kernelSize,
		kernel:     gocv.NewMat(),
	}
	if kernelSize > 0 {
		f.kernel = gocv.GetStructuringElement(gocv.MorphRect, image.Pt(kernelSize, kernelSize))
	}
	return f, nil
}

// Apply cleans mask in place
func (f *MaskFilter) Apply(mask *gocv.Mat) error {
	if mask.Empty() {
		return nil
	}
	if mask.Channels() != 1 {
		return fmt.Errorf("foreground mask must have one channel, got %d", mask.Channels())
	}

	if f.threshold > 0 {
		gocv.Threshold(*mask, mask, f.threshold, 255, gocv.ThresholdBinary)
	}

	if f.kernelSize > 0 {
		gocv.MorphologyEx(*mask, mask, gocv.MorphClose, f.kernel)
		gocv.MorphologyEx(*mask, mask, gocv.MorphOpen, f.kernel)
	}
	return nil
}

// Close releases the kernel
func (f *MaskFilter) Close() error {
	return f.kernel.Close()
}
