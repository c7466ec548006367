package core

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gocv.io/x/gocv"
)

func newTestLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

func newTestMat() gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 8, 8, gocv.MatTypeCV8UC3)
}

// fakeSource yields limit frames (unlimited when negative) then fails
type fakeSource struct {
	limit   int
	delay   time.Duration
	openErr error

	mu    sync.Mutex
	reads int

	opened int32
	closed int32
}

func (s *fakeSource) Open() error {
	atomic.AddInt32(&s.opened, 1)
	return s.openErr
}

func (s *fakeSource) Read(dst *gocv.Mat) bool {
	s.mu.Lock()
	if s.limit >= 0 && s.reads >= s.limit {
		s.mu.Unlock()
		return false
	}
	s.reads++
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	dst.Close()
	*dst = newTestMat()
	return true
}

func (s *fakeSource) Close() error {
	atomic.AddInt32(&s.closed, 1)
	return nil
}

func (s *fakeSource) Closed() int {
	return int(atomic.LoadInt32(&s.closed))
}

// fakeDisplay reports quitKey once quitAfter frames were shown
type fakeDisplay struct {
	quitAfter int
	quitKey   int
	showErr   error

	shown  int32
	closed int32
}

func (d *fakeDisplay) Show(window string, img gocv.Mat) error {
	if img.Empty() {
		return errors.New("empty frame")
	}
	if d.showErr != nil {
		return d.showErr
	}
	atomic.AddInt32(&d.shown, 1)
	return nil
}

func (d *fakeDisplay) PollKey() int {
	if d.quitAfter > 0 && int(atomic.LoadInt32(&d.shown)) >= d.quitAfter {
		return d.quitKey
	}
	return NoKey
}

func (d *fakeDisplay) Close() error {
	atomic.AddInt32(&d.closed, 1)
	return nil
}

func (d *fakeDisplay) Shown() int {
	return int(atomic.LoadInt32(&d.shown))
}

func (d *fakeDisplay) Closed() int {
	return int(atomic.LoadInt32(&d.closed))
}

// fakeStage annotates every frame and can fail or panic on a given frame
type fakeStage struct {
	name      string
	failOn    uint64
	failErr   error
	panicOn   uint64
	seen      []uint64
	closeHits int32
}

func (s *fakeStage) Name() string {
	return s.name
}

func (s *fakeStage) Process(f *Frame) error {
	if s.panicOn != 0 && f.Seq == s.panicOn {
		panic("boom")
	}
	if s.failOn != 0 && f.Seq == s.failOn {
		return s.failErr
	}
	s.seen = append(s.seen, f.Seq)
	f.Annotate(Annotation{Kind: AnnotationAnomaly, Label: s.name, Box: f.Bounds()})
	return nil
}

func (s *fakeStage) Close() error {
	atomic.AddInt32(&s.closeHits, 1)
	return nil
}

func (s *fakeStage) Closed() int {
	return int(atomic.LoadInt32(&s.closeHits))
}

func buildWith(stages ...Stage) StageBuilder {
	return func() ([]Stage, error) {
		return stages, nil
	}
}
