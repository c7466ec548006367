package gui

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"ghost-detector/internal/core"
)

// keyBuffer bounds the key presses held between two polls
const keyBuffer = 16

// FyneDisplay shows frames in a fyne window. Typed runes and ESC are
// forwarded to PollKey; closing the window reports the quit key.
type FyneDisplay struct {
	app     fyne.App
	window  fyne.Window
	image   *canvas.Image
	quitKey int
	keys    chan int
	logger  *logrus.Entry

	closeOnce sync.Once
	stopped   atomic.Bool
	mu        sync.Mutex
	title     string
}

var _ core.Display = (*FyneDisplay)(nil)

// NewFyneDisplay builds the window. Call ShowAndRun on the main goroutine
// to start the fyne event loop.
func NewFyneDisplay(app fyne.App, title string, quitKey int, logger *logrus.Logger) *FyneDisplay {
	d := &FyneDisplay{
		app:     app,
		quitKey: quitKey,
		keys:    make(chan int, keyBuffer),
		logger:  logger.WithField("display", "fyne"),
		title:   title,
	}

	d.image = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	d.image.FillMode = canvas.ImageFillContain
	d.image.ScaleMode = canvas.ImageScaleFastest

	d.window = app.NewWindow(title)
	d.window.Resize(fyne.NewSize(800, 600))
	d.window.SetContent(d.image)

	d.window.Canvas().SetOnTypedRune(func(r rune) {
		d.pushKey(int(r))
	})
	d.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			d.pushKey(core.KeyEscape)
		}
	})
	d.window.SetOnClosed(func() {
		d.logger.Info("DISPLAY: Window closed by user")
		d.pushKey(d.quitKey)
	})

	return d
}

// pushKey never blocks the fyne event loop; surplus keys are dropped
func (d *FyneDisplay) pushKey(key int) {
	select {
	case d.keys <- key:
	default:
	}
}

// Show converts img and swaps it into the canvas on the fyne thread
func (d *FyneDisplay) Show(window string, img gocv.Mat) error {
	if img.Empty() {
		return fmt.Errorf("cannot show empty image")
	}

	rendered, err := img.ToImage()
	if err != nil {
		return fmt.Errorf("convert frame: %w", err)
	}

	if d.stopped.Load() {
		return nil
	}

	d.mu.Lock()
	retitle := window != "" && window != d.title
	if retitle {
		d.title = window
	}
	d.mu.Unlock()

	fyne.Do(func() {
		if retitle {
			d.window.SetTitle(window)
		}
		d.image.Image = rendered
		d.image.Refresh()
	})
	return nil
}

// PollKey returns the oldest pending key press
func (d *FyneDisplay) PollKey() int {
	select {
	case key := <-d.keys:
		return key
	default:
		return core.NoKey
	}
}

// ShowAndRun blocks running the fyne event loop until Quit or the window
// is closed. Later Show and Close calls are ignored.
func (d *FyneDisplay) ShowAndRun() {
	d.window.ShowAndRun()
	d.stopped.Store(true)
}

// Quit stops the event loop from any goroutine
func (d *FyneDisplay) Quit() {
	if d.stopped.Load() {
		return
	}
	fyne.Do(func() {
		d.app.Quit()
	})
}

// Close closes the window once
func (d *FyneDisplay) Close() error {
	d.closeOnce.Do(func() {
		if d.stopped.Load() {
			return
		}
		fyne.Do(func() {
			d.window.Close()
		})
	})
	return nil
}
