// Camera, video file and stream capture
package io

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"ghost-detector/internal/core"
)

// ErrSourceNotOpen is returned when a source is used before Open
var ErrSourceNotOpen = errors.New("capture source is not open")

// Capture reads frames through gocv VideoCapture. Device is either a
// camera index ("0"), a video file path or a stream URL.
type Capture struct {
	Device string
	// Width and Height are requested from the device when non-zero
	Width  int
	Height int

	mu     sync.Mutex
	vc     *gocv.VideoCapture
	logger *logrus.Entry
}

var _ core.Source = (*Capture)(nil)

func NewCapture(device string, width, height int, logger *logrus.Logger) *Capture {
	return &Capture{
		Device: device,
		Width:  width,
		Height: height,
		logger: logger.WithField("device", device),
	}
}

// Open opens the device and applies the requested resolution
func (c *Capture) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.Device)
	if err != nil {
		return fmt.Errorf("open %q: %w", c.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("open %q: %w", c.Device, ErrSourceNotOpen)
	}

	if c.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(c.Width))
	}
	if c.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(c.Height))
	}

	c.vc = vc
	c.logger.WithFields(logrus.Fields{
		"width":  vc.Get(gocv.VideoCaptureFrameWidth),
		"height": vc.Get(gocv.VideoCaptureFrameHeight),
	}).Info("CAPTURE: Device opened")
	return nil
}

// Read grabs the next frame into dst. Close waits for a read in flight.
func (c *Capture) Read(dst *gocv.Mat) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc == nil {
		return false
	}
	return c.vc.Read(dst)
}

// Close releases the device. Closing twice is a no-op.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc == nil {
		return nil
	}
	err := c.vc.Close()
	c.vc = nil
	c.logger.Info("CAPTURE: Device released")
	return err
}
