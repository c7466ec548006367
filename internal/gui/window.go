// Display sinks for annotated frames
package gui

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"ghost-detector/internal/core"
)

// Window shows frames in an OpenCV highgui window. It must be driven from
// the goroutine that created it.
type Window struct {
	mu     sync.Mutex
	win    *gocv.Window
	name   string
	logger *logrus.Entry
}

var _ core.Display = (*Window)(nil)

func NewWindow(logger *logrus.Logger) *Window {
	return &Window{logger: logger.WithField("display", "highgui")}
}

// Show renders img, creating the window on first use
func (w *Window) Show(window string, img gocv.Mat) error {
	if img.Empty() {
		return fmt.Errorf("cannot show empty image")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.win == nil {
		w.win = gocv.NewWindow(window)
		w.name = window
		w.logger.WithField("window", window).Info("DISPLAY: Window opened")
	} else if w.name != window {
		w.win.SetWindowTitle(window)
		w.name = window
	}
	w.win.IMShow(img)
	return nil
}

// PollKey waits one millisecond for a key press
func (w *Window) PollKey() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.win == nil {
		return core.NoKey
	}
	key := w.win.WaitKey(1)
	if key < 0 {
		return core.NoKey
	}
	return key & 0xFF
}

func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.win == nil {
		return nil
	}
	err := w.win.Close()
	w.win = nil
	w.logger.Info("DISPLAY: Window closed")
	return err
}
