package core

import "gocv.io/x/gocv"

// NoKey is returned by Display.PollKey when no key was pressed
const NoKey = -1

// Source hands out captured frames. Read is called from the producer
// goroutine only.
type Source interface {
	Open() error
	Read(dst *gocv.Mat) bool
	Close() error
}

// Display renders annotated frames and reports key presses
type Display interface {
	Show(window string, img gocv.Mat) error
	PollKey() int
	Close() error
}

// Stage transforms a frame in place
type Stage interface {
	Name() string
	Process(f *Frame) error
	Close() error
}

// StageBuilder constructs the processing stages for one run, in order
type StageBuilder func() ([]Stage, error)
