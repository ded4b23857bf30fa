package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muhannadalsrahen/speakright/domain/repositories"
)

// micSampleBuffer bounds how many capture slices can sit between the
// websocket read loop and the capture pipeline.
const micSampleBuffer = 32

// micBridge adapts binary websocket frames into a microphone stream. The
// browser records 16kHz mono 16-bit PCM and ships each recorder buffer as
// one binary frame; Push converts and forwards it to the capture pipeline.
type micBridge struct {
	samples chan []float32
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
	// carry holds a dangling byte when a frame splits a 16-bit sample.
	carry []byte
}

func newMicBridge(logger *zap.Logger) *micBridge {
	return &micBridge{
		samples: make(chan []float32, micSampleBuffer),
		logger:  logger,
	}
}

// Open satisfies repositories.Microphone. The browser already owns the
// device, so opening is just handing out the stream.
func (b *micBridge) Open(ctx context.Context, config repositories.AudioConfig) (repositories.MicrophoneStream, error) {
	return b, nil
}

// Samples returns the inbound sample stream.
func (b *micBridge) Samples() <-chan []float32 {
	return b.samples
}

// Push converts one binary frame of little-endian 16-bit PCM and queues it
// for the capture pipeline. Frames are dropped rather than blocking the
// websocket read loop when the pipeline falls behind.
func (b *micBridge) Push(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	if len(b.carry) > 0 {
		data = append(b.carry, data...)
		b.carry = nil
	}
	if len(data)%2 != 0 {
		b.carry = []byte{data[len(data)-1]}
		data = data[:len(data)-1]
	}
	if len(data) == 0 {
		return
	}

	converted := make([]float32, len(data)/2)
	for i := range converted {
		sample := int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
		converted[i] = float32(sample) / 32768.0
	}

	select {
	case b.samples <- converted:
	default:
		b.logger.Debug("Capture pipeline behind, dropping microphone frame",
			zap.Int("samples", len(converted)))
	}
}

// Close stops the stream. Idempotent.
func (b *micBridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.samples)
	return nil
}

// clientRenderer satisfies repositories.Renderer by forwarding synthesized
// PCM to the client's send channel as binary frames. The browser holds the
// jitter buffer; Flush tells it to discard whatever is queued there.
type clientRenderer struct {
	client *Client
}

func (r *clientRenderer) Write(pcm []byte) error {
	// Copy: the scheduler may reuse the slice after Write returns.
	payload := make([]byte, len(pcm))
	copy(payload, pcm)
	r.client.enqueue(WriteData{Type: websocket.BinaryMessage, Payload: payload})
	return nil
}

func (r *clientRenderer) Flush() error {
	r.client.sendJSON(CreatePlaybackClearMessage())
	return nil
}

func (r *clientRenderer) Close() error {
	return nil
}
