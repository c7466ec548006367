// Runtime counters and stage latency aggregation for the frame pipeline
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// StageStats aggregates the latency of one pipeline stage
type StageStats struct {
	Name  string
	Count uint64
	Mean  time.Duration
	Max   time.Duration
	Fails uint64
}

// Snapshot is a point-in-time copy of the recorder
type Snapshot struct {
	Captured  uint64
	Dropped   uint64
	Processed uint64
	Elapsed   time.Duration
	FPS       float64
	Stages    []StageStats
}

type stageAccumulator struct {
	count uint64
	total time.Duration
	max   time.Duration
	fails uint64
}

// Recorder collects pipeline statistics. Counters are safe for concurrent
// use by the producer and the consumer.
type Recorder struct {
	captured  uint64
	dropped   uint64
	processed uint64

	mu      sync.Mutex
	started time.Time
	stopped time.Time
	stages  map[string]*stageAccumulator
	order   []string
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{
		stages: make(map[string]*stageAccumulator),
	}
}

// Start marks the beginning of the measured interval
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = time.Now()
	r.stopped = time.Time{}
}

// Stop freezes the measured interval
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started.IsZero() && r.stopped.IsZero() {
		r.stopped = time.Now()
	}
}

// FrameCaptured counts a frame read from the source
func (r *Recorder) FrameCaptured() {
	atomic.AddUint64(&r.captured, 1)
}

// FrameDropped counts a frame rejected by the queue
func (r *Recorder) FrameDropped() {
	atomic.AddUint64(&r.dropped, 1)
}

// FrameProcessed counts a frame that went through every stage and was shown
func (r *Recorder) FrameProcessed() {
	atomic.AddUint64(&r.processed, 1)
}

// ObserveStage records one stage execution
func (r *Recorder) ObserveStage(name string, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acc, ok := r.stages[name]
	if !ok {
		acc = &stageAccumulator{}
		r.stages[name] = acc
		r.order = append(r.order, name)
	}
	acc.count++
	acc.total += d
	if d > acc.max {
		acc.max = d
	}
	if err != nil {
		acc.fails++
	}
}

// Snapshot returns the current statistics
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		Captured:  atomic.LoadUint64(&r.captured),
		Dropped:   atomic.LoadUint64(&r.dropped),
		Processed: atomic.LoadUint64(&r.processed),
	}

	if !r.started.IsZero() {
		end := r.stopped
		if end.IsZero() {
			end = time.Now()
		}
		s.Elapsed = end.Sub(r.started)
		if secs := s.Elapsed.Seconds(); secs > 0 {
			s.FPS = float64(s.Processed) / secs
		}
	}

	for _, name := range r.order {
		acc := r.stages[name]
		st := StageStats{
			Name:  name,
			Count: acc.count,
			Max:   acc.max,
			Fails: acc.fails,
		}
		if acc.count > 0 {
			st.Mean = acc.total / time.Duration(acc.count)
		}
		s.Stages = append(s.Stages, st)
	}
	return s
}

// Stage looks up the statistics of a single stage
func (s Snapshot) Stage(name string) (StageStats, bool) {
	for _, st := range s.Stages {
		if st.Name == name {
			return st, true
		}
	}
	return StageStats{}, false
}
