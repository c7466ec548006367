// Capture goroutine feeding the frame queue
package core

import (
	"context"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"ghost-detector/internal/metrics"
)

// Producer reads frames from a Source and offers them to a FrameQueue. It
// never waits on the queue; frames that do not fit are released.
type Producer struct {
	source   Source
	queue    *FrameQueue
	recorder *metrics.Recorder
	logger   *logrus.Entry

	seq  uint64
	done chan struct{}
}

// NewProducer creates a producer for source and queue
func NewProducer(source Source, queue *FrameQueue, recorder *metrics.Recorder, logger *logrus.Entry) *Producer {
	return &Producer{
		source:   source,
		queue:    queue,
		recorder: recorder,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Run captures until ctx is cancelled or the source stops delivering
// frames. On a failed read the queue is closed so the consumer sees end
// of stream.
func (p *Producer) Run(ctx context.Context) {
	defer close(p.done)

	p.logger.Debug("PRODUCER: Capture loop started")
	for {
		select {
		case <-ctx.Done():
			p.logger.WithField("frames", p.seq).Debug("PRODUCER: Cancelled")
			return
		default:
		}

		mat := gocv.NewMat()
		if ok := p.source.Read(&mat); !ok || mat.Empty() {
			mat.Close()
			p.logger.WithField("frames", p.seq).Warn("PRODUCER: Failed to capture frame, ending stream")
			p.queue.Close()
			return
		}

		p.seq++
		p.recorder.FrameCaptured()

		frame := NewFrame(mat, p.seq)
		if !p.queue.Offer(frame) {
			p.recorder.FrameDropped()
			frame.Close()
		}
	}
}

// Done is closed when Run returns
func (p *Producer) Done() <-chan struct{} {
	return p.done
}

// Captured returns the number of frames read so far. Only meaningful after
// Done is closed.
func (p *Producer) Captured() uint64 {
	return p.seq
}
