package repositories

import (
	"context"
	"errors"
)

// ErrPermissionDenied is returned by Microphone.Open when the platform
// refuses microphone access. Fatal for the session; no retry is attempted.
var ErrPermissionDenied = errors.New("microphone access denied")

// AudioConfig describes a raw PCM stream.
type AudioConfig struct {
	SampleRate int `json:"sample_rate"`
	Channels   int `json:"channels"`
}

// BytesPerSecond returns the byte rate of 16-bit PCM in this configuration.
func (c AudioConfig) BytesPerSecond() int {
	return c.SampleRate * c.Channels * 2
}

// Microphone acquires exclusive capture streams.
type Microphone interface {
	// Open starts capturing. At most one stream is open per session; the
	// stream lives until its Close or the context is cancelled.
	Open(ctx context.Context, config AudioConfig) (MicrophoneStream, error)
}

// MicrophoneStream is a live capture stream delivering raw mono samples
// normalized to [-1, 1]. Slices arrive in capture order and in
// arbitrary sizes; framing is the capture pipeline's job.
type MicrophoneStream interface {
	// Samples returns the inbound sample stream. Closed when capture stops.
	Samples() <-chan []float32

	// Close stops capture and releases the device. Idempotent.
	Close() error
}

// Renderer is a gapless PCM output queue for synthesized speech.
// Write appends 16-bit little-endian PCM to the queue; Flush discards
// whatever is queued but not yet audible.
type Renderer interface {
	Write(pcm []byte) error
	Flush() error
	Close() error
}
