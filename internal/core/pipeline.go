// internal/core/pipeline.go
// Frame pipeline orchestrator: capture goroutine, bounded queue, staged processing and display
package core

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ghost-detector/internal/metrics"
)

// State is the lifecycle state of a Pipeline
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrAlreadyStarted is returned when Run is called a second time
var ErrAlreadyStarted = errors.New("pipeline already started")

// KeyEscape is the key code reported for ESC
const KeyEscape = 27

// Options tune a Pipeline
type Options struct {
	WindowName    string
	QueueCapacity int
	// PollInterval bounds how long the consumer waits on an empty queue.
	// Zero selects busy polling.
	PollInterval time.Duration
	// JoinTimeout bounds how long shutdown waits for the capture goroutine
	JoinTimeout time.Duration
	QuitKeys    []int
	Debug       bool
	// OnFrame, when set, sees every annotated frame before it is displayed.
	// The frame is closed after the call returns.
	OnFrame func(*Frame)
}

// DefaultOptions returns the options used by the ghost detector
func DefaultOptions() Options {
	return Options{
		WindowName:    "Advanced Ghost Detector",
		QueueCapacity: 10,
		PollInterval:  5 * time.Millisecond,
		JoinTimeout:   2 * time.Second,
		QuitKeys:      []int{'q', KeyEscape},
	}
}

// Pipeline owns the capture goroutine, the frame queue, the processing
// stages and the display for one run.
type Pipeline struct {
	source  Source
	display Display
	build   StageBuilder
	opts    Options

	runID    string
	logger   *logrus.Entry
	debugger *PipelineDebugger
	recorder *metrics.Recorder

	state   int32
	started int32

	queue    *FrameQueue
	producer *Producer
	stages   []Stage

	closeSource sync.Once
}

// NewPipeline wires a pipeline. Nothing is opened until Run.
func NewPipeline(source Source, display Display, build StageBuilder, opts Options, logger *logrus.Logger) *Pipeline {
	defaults := DefaultOptions()
	if opts.WindowName == "" {
		opts.WindowName = defaults.WindowName
	}
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = defaults.QueueCapacity
	}
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = defaults.JoinTimeout
	}
	if len(opts.QuitKeys) == 0 {
		opts.QuitKeys = defaults.QuitKeys
	}

	runID := uuid.NewString()
	entry := logger.WithField("run_id", runID)

	return &Pipeline{
		source:   source,
		display:  display,
		build:    build,
		opts:     opts,
		runID:    runID,
		logger:   entry,
		debugger: NewPipelineDebugger(entry, opts.Debug),
		recorder: metrics.NewRecorder(),
		queue:    NewFrameQueue(opts.QueueCapacity),
	}
}

// Run executes the pipeline until the quit key, ctx cancellation, end of
// stream, or a stage failure. Resources are released on every path. Only
// failures are returned; a requested stop returns nil.
func (p *Pipeline) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&p.started, 0, 1) {
		return ErrAlreadyStarted
	}

	p.logger.WithFields(logrus.Fields{
		"window":         p.opts.WindowName,
		"queue_capacity": p.queue.Cap(),
		"poll_interval":  p.opts.PollInterval,
	}).Info("PIPELINE: Starting")
	p.recorder.Start()

	if err := p.source.Open(); err != nil {
		p.logger.WithError(err).Error("PIPELINE: Could not open capture source")
		p.shutdown()
		return fmt.Errorf("open capture source: %w", err)
	}

	stages, err := p.build()
	if err != nil {
		p.logger.WithError(err).Error("PIPELINE: Could not build stages")
		p.shutdown()
		return fmt.Errorf("build stages: %w", err)
	}
	p.stages = stages

	producerCtx, cancelProducer := context.WithCancel(ctx)
	defer cancelProducer()

	p.producer = NewProducer(p.source, p.queue, p.recorder, p.logger)
	go p.producer.Run(producerCtx)
	p.setState(StateRunning)

	runErr := p.loop(ctx)
	if runErr != nil {
		p.logger.WithError(runErr).Error("PIPELINE: Unrecoverable failure")
	}

	cancelProducer()
	p.shutdown()
	return runErr
}

func (p *Pipeline) loop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			p.logger.Info("PIPELINE: Cancelled")
			return nil
		}

		frame, err := p.next(ctx)
		switch {
		case errors.Is(err, ErrQueueClosed):
			p.logger.Info("PIPELINE: End of stream")
			return nil
		case errors.Is(err, ErrQueueEmpty):
			continue
		case err != nil:
			// context cancelled while waiting
			continue
		}

		quit, err := p.handle(frame)
		if err != nil {
			return err
		}
		if quit {
			p.logger.Info("PIPELINE: Quit key pressed")
			return nil
		}
	}
}

// next fetches the oldest queued frame, spinning or waiting according to
// PollInterval
func (p *Pipeline) next(ctx context.Context) (*Frame, error) {
	if p.opts.PollInterval > 0 {
		return p.queue.Take(ctx, p.opts.PollInterval)
	}

	if f, ok := p.queue.TryTake(); ok {
		return f, nil
	}
	if p.queue.Closed() {
		// a frame may have been offered right before Close
		if f, ok := p.queue.TryTake(); ok {
			return f, nil
		}
		return nil, ErrQueueClosed
	}
	runtime.Gosched()
	return nil, ErrQueueEmpty
}

// handle runs every stage on frame, renders it and reports whether a quit
// key was pressed
func (p *Pipeline) handle(frame *Frame) (bool, error) {
	defer frame.Close()

	for _, st := range p.stages {
		before := len(frame.Annotations)
		start := time.Now()
		err := p.runStage(st, frame)
		duration := time.Since(start)

		p.recorder.ObserveStage(st.Name(), duration, err)
		p.debugger.LogOperation(st.Name(), frame.Seq, len(frame.Annotations)-before, duration, err)
		if err != nil {
			return false, fmt.Errorf("stage %s: %w", st.Name(), err)
		}
	}

	if p.opts.OnFrame != nil {
		p.opts.OnFrame(frame)
	}

	start := time.Now()
	err := p.display.Show(p.opts.WindowName, frame.Mat)
	p.debugger.LogOperation("display", frame.Seq, 0, time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("display: %w", err)
	}
	p.recorder.FrameProcessed()

	return p.isQuitKey(p.display.PollKey()), nil
}

func (p *Pipeline) runStage(st Stage, frame *Frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", st.Name(), r)
		}
	}()
	return st.Process(frame)
}

func (p *Pipeline) isQuitKey(key int) bool {
	if key == NoKey {
		return false
	}
	for _, k := range p.opts.QuitKeys {
		if key == k {
			return true
		}
	}
	return false
}

// shutdown stops the producer, releases the source, queued frames, stages
// and display, and moves the pipeline to Stopped
func (p *Pipeline) shutdown() {
	p.setState(StateShuttingDown)

	// late offers from a producer that misses the join are rejected and
	// released by the producer itself
	p.queue.Close()

	if p.producer != nil {
		select {
		case <-p.producer.Done():
			p.logger.Debug("PIPELINE: Producer joined")
		case <-time.After(p.opts.JoinTimeout):
			p.logger.WithField("timeout", p.opts.JoinTimeout).Warn("PIPELINE: Producer did not stop in time")
		}
	}

	p.closeSource.Do(func() {
		if err := p.source.Close(); err != nil {
			p.logger.WithError(err).Warn("PIPELINE: Failed to close capture source")
		}
	})

	for _, f := range p.queue.Drain() {
		f.Close()
	}

	for i := len(p.stages) - 1; i >= 0; i-- {
		if err := p.stages[i].Close(); err != nil {
			p.logger.WithError(err).WithField("stage", p.stages[i].Name()).Warn("PIPELINE: Failed to close stage")
		}
	}

	if err := p.display.Close(); err != nil {
		p.logger.WithError(err).Warn("PIPELINE: Failed to close display")
	}

	p.recorder.Stop()
	stats := p.recorder.Snapshot()
	p.logger.WithFields(logrus.Fields{
		"captured":  stats.Captured,
		"dropped":   stats.Dropped,
		"processed": stats.Processed,
		"fps":       fmt.Sprintf("%.1f", stats.FPS),
	}).Info("PIPELINE: Stopped")

	for _, st := range stats.Stages {
		p.logger.WithFields(logrus.Fields{
			"stage":   st.Name,
			"count":   st.Count,
			"mean_ms": float64(st.Mean.Microseconds()) / 1000,
			"max_ms":  float64(st.Max.Microseconds()) / 1000,
			"fails":   st.Fails,
		}).Debug("PIPELINE: Stage latency")
	}

	if p.opts.Debug {
		mem := metrics.ReadMemory()
		p.logger.WithFields(logrus.Fields{
			"alloc_mb":       fmt.Sprintf("%.2f", mem.AllocMB),
			"total_alloc_mb": fmt.Sprintf("%.2f", mem.TotalAllocMB),
			"sys_mb":         fmt.Sprintf("%.2f", mem.SysMB),
			"num_gc":         mem.NumGC,
		}).Debug("PIPELINE: Memory usage")
	}

	p.setState(StateStopped)
}

func (p *Pipeline) setState(to State) {
	from := State(atomic.SwapInt32(&p.state, int32(to)))
	if from != to {
		p.debugger.LogStateChange(from, to)
	}
}

// State returns the current lifecycle state
func (p *Pipeline) State() State {
	return State(atomic.LoadInt32(&p.state))
}

// Stats returns a snapshot of the runtime statistics
func (p *Pipeline) Stats() metrics.Snapshot {
	return p.recorder.Snapshot()
}

// RunID identifies this run in logs
func (p *Pipeline) RunID() string {
	return p.runID
}

// Debugger exposes the operation history of the run
func (p *Pipeline) Debugger() *PipelineDebugger {
	return p.debugger
}
