package audio

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/muhannadalsrahen/speakright/domain/repositories"
)

// FFplayRenderer plays raw s16le PCM through an ffplay subprocess. Flush
// kills and restarts the process, discarding everything it had buffered;
// that is the only way to drop queued audio instantly on barge-in.
type FFplayRenderer struct {
	config repositories.AudioConfig
	logger *zap.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	closed bool
}

var _ repositories.Renderer = (*FFplayRenderer)(nil)

func NewFFplayRenderer(config repositories.AudioConfig, logger *zap.Logger) (*FFplayRenderer, error) {
	if _, err := exec.LookPath("ffplay"); err != nil {
		return nil, errors.New("ffplay is required for playback (install ffmpeg and ensure it is in PATH)")
	}
	r := &FFplayRenderer{config: config, logger: logger}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.startLocked(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FFplayRenderer) startLocked() error {
	r.cmd = exec.Command("ffplay",
		"-nodisp",
		"-autoexit",
		"-loglevel", "error",
		"-f", "s16le",
		"-ar", strconv.Itoa(r.config.SampleRate),
		"-ac", strconv.Itoa(r.config.Channels),
		"-i", "pipe:0",
	)
	stdin, err := r.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open ffplay stdin: %w", err)
	}
	r.cmd.Stdout = io.Discard
	r.cmd.Stderr = io.Discard
	if err := r.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffplay: %w", err)
	}
	r.stdin = stdin
	return nil
}

func (r *FFplayRenderer) stopLocked() {
	if r.cmd != nil && r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
		_ = r.cmd.Wait()
	}
	r.stdin = nil
}

// Write appends PCM to the playback pipe.
func (r *FFplayRenderer) Write(pcm []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.New("renderer is closed")
	}
	if r.stdin == nil {
		return errors.New("ffplay stdin is not initialized")
	}
	if _, err := r.stdin.Write(pcm); err != nil {
		return fmt.Errorf("failed to write playback audio: %w", err)
	}
	return nil
}

// Flush discards buffered audio by restarting the player.
func (r *FFplayRenderer) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.stopLocked()
	r.logger.Debug("Playback flushed, restarting player")
	return r.startLocked()
}

func (r *FFplayRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.stopLocked()
	return nil
}
