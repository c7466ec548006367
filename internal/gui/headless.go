package gui

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"ghost-detector/internal/core"
)

// Headless discards frames. MaxFrames > 0 reports the quit key once that
// many frames were shown.
type Headless struct {
	MaxFrames uint64
	QuitKey   int

	shown  atomic.Uint64
	logger *logrus.Entry
}

var _ core.Display = (*Headless)(nil)

func NewHeadless(maxFrames uint64, quitKey int, logger *logrus.Logger) *Headless {
	return &Headless{
		MaxFrames: maxFrames,
		QuitKey:   quitKey,
		logger:    logger.WithField("display", "headless"),
	}
}

func (h *Headless) Show(window string, img gocv.Mat) error {
	if img.Empty() {
		return fmt.Errorf("cannot show empty image")
	}
	n := h.shown.Add(1)
	h.logger.WithFields(logrus.Fields{
		"window": window,
		"frame":  n,
		"width":  img.Cols(),
		"height": img.Rows(),
	}).Trace("DISPLAY: Frame discarded")
	return nil
}

func (h *Headless) PollKey() int {
	if h.MaxFrames > 0 && h.shown.Load() >= h.MaxFrames {
		return h.QuitKey
	}
	return core.NoKey
}

// Shown returns the number of frames displayed
func (h *Headless) Shown() uint64 {
	return h.shown.Load()
}

func (h *Headless) Close() error {
	h.logger.WithField("frames", h.shown.Load()).Info("DISPLAY: Headless sink closed")
	return nil
}
