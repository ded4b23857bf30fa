// Package audio provides local microphone capture and speaker playback for
// the terminal client, backed by the ffmpeg toolchain.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strconv"

	"go.uber.org/zap"

	"github.com/muhannadalsrahen/speakright/domain/repositories"
)

const micReadBytes = 4096

// FFmpegMicrophone captures the default input device through an ffmpeg
// subprocess emitting raw s16le PCM on stdout.
type FFmpegMicrophone struct {
	logger *zap.Logger
}

var _ repositories.Microphone = (*FFmpegMicrophone)(nil)

func NewFFmpegMicrophone(logger *zap.Logger) *FFmpegMicrophone {
	return &FFmpegMicrophone{logger: logger}
}

// Open starts the capture subprocess. A missing ffmpeg binary or an
// unsupported platform surfaces as ErrPermissionDenied so callers treat it
// like any other unavailable-microphone condition.
func (m *FFmpegMicrophone) Open(ctx context.Context, config repositories.AudioConfig) (repositories.MicrophoneStream, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found in PATH", repositories.ErrPermissionDenied)
	}
	args, err := micArgs(runtime.GOOS, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repositories.ErrPermissionDenied, err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open ffmpeg stdout: %w", err)
	}
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg capture: %w", err)
	}

	stream := &micStream{
		cmd:     cmd,
		stdout:  stdout,
		samples: make(chan []float32),
		done:    make(chan struct{}),
		logger:  m.logger,
	}
	go stream.readLoop()
	m.logger.Info("Microphone capture started",
		zap.Int("sampleRate", config.SampleRate),
		zap.Int("channels", config.Channels))
	return stream, nil
}

func micArgs(goos string, config repositories.AudioConfig) ([]string, error) {
	base := []string{"-hide_banner", "-loglevel", "error"}
	switch goos {
	case "darwin":
		base = append(base, "-f", "avfoundation", "-i", ":0")
	case "linux":
		base = append(base, "-f", "pulse", "-i", "default")
	default:
		return nil, fmt.Errorf("microphone capture is not implemented for %s", goos)
	}
	return append(base,
		"-ac", strconv.Itoa(config.Channels),
		"-ar", strconv.Itoa(config.SampleRate),
		"-f", "s16le", "-",
	), nil
}

type micStream struct {
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	samples chan []float32
	done    chan struct{}
	logger  *zap.Logger
}

func (s *micStream) Samples() <-chan []float32 {
	return s.samples
}

func (s *micStream) Close() error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	return nil
}

// readLoop converts the raw s16le stdout stream into float32 sample chunks.
func (s *micStream) readLoop() {
	defer close(s.samples)

	buf := make([]byte, micReadBytes)
	carry := make([]byte, 0, 1)
	for {
		n, err := s.stdout.Read(buf)
		if n > 0 {
			raw := append(carry, buf[:n]...)
			usable := len(raw) &^ 1
			chunk := make([]float32, usable/2)
			for i := range chunk {
				v := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
				chunk[i] = float32(v) / 32768.0
			}
			carry = append(carry[:0], raw[usable:]...)

			select {
			case s.samples <- chunk:
			case <-s.done:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				select {
				case <-s.done:
				default:
					s.logger.Warn("Microphone read failed", zap.Error(err))
				}
			}
			return
		}
	}
}
