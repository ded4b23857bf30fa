// Package playback schedules decoded speech chunks for gapless sequential
// playback and cancels everything still queued when the user barges in.
package playback

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muhannadalsrahen/speakright/domain/repositories"
	"github.com/muhannadalsrahen/speakright/internal/codec"
)

// canceler is the slice of time.Timer the scheduler needs.
type canceler interface {
	Stop() bool
}

// handle is one scheduled, not-yet-finished playback unit.
type handle struct {
	timer canceler
}

// Scheduler owns the set of live playback handles and the monotonically
// advancing next-start cursor. Chunks are appended to the renderer
// immediately; handle completion tracks the engine-clock time at which each
// chunk finishes being audible. The speaking indicator is true exactly
// while the handle set is non-empty.
type Scheduler struct {
	renderer   repositories.Renderer
	config     repositories.AudioConfig
	onSpeaking func(bool)
	logger     *zap.Logger

	// now and afterFunc are swappable for deterministic tests.
	now       func() time.Time
	afterFunc func(d time.Duration, f func()) canceler

	mu       sync.Mutex
	epoch    time.Time
	cursor   time.Duration
	handles  map[uint64]*handle
	nextID   uint64
	speaking bool
	closed   bool
}

// NewScheduler creates a playback scheduler rendering through renderer.
// onSpeaking is invoked on every speaking-indicator edge.
func NewScheduler(renderer repositories.Renderer, config repositories.AudioConfig, onSpeaking func(bool), logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		renderer:   renderer,
		config:     config,
		onSpeaking: onSpeaking,
		logger:     logger,
		now:        time.Now,
		afterFunc: func(d time.Duration, f func()) canceler {
			return time.AfterFunc(d, f)
		},
		handles: make(map[uint64]*handle),
	}
	s.epoch = s.now()
	return s
}

// Schedule decodes one base64 chunk of synthesized speech and queues it to
// start at max(cursor, engine-clock-now). Codec failures are contained:
// the chunk is skipped with an error return and the session keeps going.
func (s *Scheduler) Schedule(encoded string) error {
	raw, err := codec.DecodeBytes(encoded)
	if err != nil {
		s.logger.Warn("Skipping undecodable audio chunk", zap.Error(err))
		return err
	}
	buf, err := codec.DecodeToBuffer(raw, s.config.SampleRate, s.config.Channels)
	if err != nil {
		s.logger.Warn("Skipping audio chunk with unsupported format", zap.Error(err))
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	engineNow := s.now().Sub(s.epoch)
	start := s.cursor
	if engineNow > start {
		start = engineNow
	}
	duration := buf.Duration()

	becameSpeaking := false
	if len(s.handles) == 0 && !s.speaking {
		s.speaking = true
		becameSpeaking = true
	}

	s.nextID++
	id := s.nextID
	s.handles[id] = &handle{
		timer: s.afterFunc(start+duration-engineNow, func() { s.complete(id) }),
	}
	s.cursor = start + duration
	s.mu.Unlock()

	// The renderer can stall on a slow sink; keep it outside the lock so
	// Interrupt stays responsive. The single dispatcher goroutine is the
	// only caller, so chunk order is preserved.
	if err := s.renderer.Write(buf.PCM()); err != nil {
		s.logger.Warn("Renderer rejected audio chunk", zap.Error(err))
	}

	if becameSpeaking && s.onSpeaking != nil {
		s.onSpeaking(true)
	}
	return nil
}

// complete removes a naturally finished handle and drops the speaking
// indicator when the last one goes.
func (s *Scheduler) complete(id uint64) {
	s.mu.Lock()
	if _, ok := s.handles[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.handles, id)
	stoppedSpeaking := false
	if len(s.handles) == 0 && s.speaking {
		s.speaking = false
		stoppedSpeaking = true
	}
	s.mu.Unlock()

	if stoppedSpeaking && s.onSpeaking != nil {
		s.onSpeaking(false)
	}
}

// Interrupt is the barge-in path: every live handle is stopped, the handle
// set cleared, the cursor reset to zero and queued-but-unplayed audio
// flushed from the renderer. Already-queued future audio never plays.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	for id, h := range s.handles {
		h.timer.Stop()
		delete(s.handles, id)
	}
	s.cursor = 0
	wasSpeaking := s.speaking
	s.speaking = false
	s.mu.Unlock()

	if err := s.renderer.Flush(); err != nil {
		s.logger.Warn("Failed to flush renderer on interruption", zap.Error(err))
	}
	if wasSpeaking && s.onSpeaking != nil {
		s.onSpeaking(false)
	}
}

// Close cancels all pending playback and releases the renderer. Idempotent.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id, h := range s.handles {
		h.timer.Stop()
		delete(s.handles, id)
	}
	wasSpeaking := s.speaking
	s.speaking = false
	s.mu.Unlock()

	if err := s.renderer.Close(); err != nil {
		s.logger.Warn("Failed to close renderer", zap.Error(err))
	}
	if wasSpeaking && s.onSpeaking != nil {
		s.onSpeaking(false)
	}
}

// Speaking reports whether any handle is live.
func (s *Scheduler) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// LiveHandles returns the current number of scheduled-but-unfinished chunks.
func (s *Scheduler) LiveHandles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// Cursor returns the next-start cursor relative to the engine epoch.
func (s *Scheduler) Cursor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}
