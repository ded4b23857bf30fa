// Package capture turns a continuous microphone stream into fixed-size
// encoded frames for the live connection, gated by the session mute flag.
package capture

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/muhannadalsrahen/speakright/domain/repositories"
	"github.com/muhannadalsrahen/speakright/internal/codec"
)

// DefaultFrameSize is the number of samples per outbound frame.
const DefaultFrameSize = 4096

// Pipeline chunks captured samples into frames, encodes them and forwards
// them to the live connection. Frames captured while muted are dropped on
// the spot; nothing is buffered for replay. Send failures are logged and
// swallowed: losing one frame must not abort the session.
type Pipeline struct {
	frameSize int
	send      func(chunk string) error
	logger    *zap.Logger

	muted atomic.Bool

	// pending holds the tail of the stream that has not yet filled a frame.
	// Touched only by the Run goroutine.
	pending []float32

	framesSent    atomic.Uint64
	framesDropped atomic.Uint64
}

// NewPipeline creates a capture pipeline forwarding frames via send.
func NewPipeline(frameSize int, send func(chunk string) error, logger *zap.Logger) *Pipeline {
	if frameSize <= 0 {
		frameSize = DefaultFrameSize
	}
	return &Pipeline{
		frameSize: frameSize,
		send:      send,
		logger:    logger,
		pending:   make([]float32, 0, frameSize),
	}
}

// Run consumes the microphone stream until the context is cancelled or the
// stream closes. It is the pipeline's single processing goroutine.
func (p *Pipeline) Run(ctx context.Context, stream repositories.MicrophoneStream) {
	for {
		select {
		case <-ctx.Done():
			return
		case samples, ok := <-stream.Samples():
			if !ok {
				return
			}
			p.Push(samples)
		}
	}
}

// Push feeds captured samples into the chunker, emitting every completed
// frame. Exported for transports that deliver samples by callback rather
// than channel.
func (p *Pipeline) Push(samples []float32) {
	p.pending = append(p.pending, samples...)
	for len(p.pending) >= p.frameSize {
		frame := p.pending[:p.frameSize]
		p.emit(frame)
		p.pending = p.pending[p.frameSize:]
	}
	if len(p.pending) == 0 {
		// Release the backing array; reslicing the drained tail would keep
		// the grown allocation alive.
		p.pending = nil
	}
}

func (p *Pipeline) emit(frame []float32) {
	if p.muted.Load() {
		p.framesDropped.Add(1)
		return
	}

	encoded := codec.EncodeFrame(frame)
	if err := p.send(encoded); err != nil {
		p.framesDropped.Add(1)
		p.logger.Warn("Dropping audio frame after send failure", zap.Error(err))
		return
	}
	p.framesSent.Add(1)
}

// SetMuted sets the shared mute flag consulted before every frame send.
func (p *Pipeline) SetMuted(muted bool) {
	p.muted.Store(muted)
}

// ToggleMute flips the mute flag and returns the new state.
func (p *Pipeline) ToggleMute() bool {
	for {
		old := p.muted.Load()
		if p.muted.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Muted reports the current mute state.
func (p *Pipeline) Muted() bool {
	return p.muted.Load()
}

// FramesSent returns the number of frames delivered to the transport.
func (p *Pipeline) FramesSent() uint64 {
	return p.framesSent.Load()
}

// FramesDropped returns the number of frames discarded by mute or send failure.
func (p *Pipeline) FramesDropped() uint64 {
	return p.framesDropped.Load()
}
