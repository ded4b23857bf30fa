// Package codec converts between floating-point audio samples and the
// base64-wrapped 16-bit little-endian PCM exchanged with the
// conversational engine.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrMalformedPayload is returned when a base64 payload cannot be decoded.
	ErrMalformedPayload = errors.New("malformed audio payload")

	// ErrUnsupportedFormat is returned when raw PCM bytes do not align to
	// whole 16-bit frames for the requested channel count.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// EncodeFrame converts mono float samples in [-1, 1] to base64-encoded
// 16-bit little-endian PCM. Samples outside the range are clamped.
// Pure and deterministic.
func EncodeFrame(samples []float32) string {
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(math.Round(float64(s) * 32767))
		raw[2*i] = byte(v)
		raw[2*i+1] = byte(v >> 8)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// EncodeRaw encodes already-packed PCM bytes as a base64 payload.
func EncodeRaw(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeBytes decodes a base64 payload into raw bytes.
func DecodeBytes(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return raw, nil
}

// Buffer is a decoded, playable chunk of audio.
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// DecodeToBuffer reinterprets raw bytes as little-endian 16-bit signed PCM
// and rescales to float samples in [-1, 1].
func DecodeToBuffer(raw []byte, sampleRate, channels int) (Buffer, error) {
	if sampleRate <= 0 || channels <= 0 {
		return Buffer{}, fmt.Errorf("%w: sample rate %d, channels %d", ErrUnsupportedFormat, sampleRate, channels)
	}
	if len(raw)%(2*channels) != 0 {
		return Buffer{}, fmt.Errorf("%w: %d bytes do not align to %d-channel 16-bit frames", ErrUnsupportedFormat, len(raw), channels)
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(raw[2*i]) | int16(raw[2*i+1])<<8
		samples[i] = float32(v) / 32768.0
	}

	return Buffer{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

// Duration returns the playback duration of the buffer.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 || b.Channels <= 0 {
		return 0
	}
	frames := len(b.Samples) / b.Channels
	return time.Duration(float64(frames) / float64(b.SampleRate) * float64(time.Second))
}

// PCM serializes the buffer back to 16-bit little-endian bytes.
func (b Buffer) PCM() []byte {
	raw := make([]byte, len(b.Samples)*2)
	for i, s := range b.Samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(math.Round(float64(s) * 32767))
		raw[2*i] = byte(v)
		raw[2*i+1] = byte(v >> 8)
	}
	return raw
}
