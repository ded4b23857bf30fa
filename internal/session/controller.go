// Package session runs one language practice session end to end: it wires
// microphone capture, the live conversational connection, playback and the
// transcript reconciler, and drives the session state machine.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muhannadalsrahen/speakright/domain/entities"
	"github.com/muhannadalsrahen/speakright/domain/repositories"
	"github.com/muhannadalsrahen/speakright/internal/capture"
	"github.com/muhannadalsrahen/speakright/internal/playback"
	"github.com/muhannadalsrahen/speakright/internal/scenario"
)

// Audio formats are fixed by the conversational engine: 16kHz mono up,
// 24kHz mono down.
var (
	captureFormat  = repositories.AudioConfig{SampleRate: 16000, Channels: 1}
	playbackFormat = repositories.AudioConfig{SampleRate: 24000, Channels: 1}
)

// Callbacks receive session state as it evolves. All callbacks are invoked
// from the session's own goroutines; nil callbacks are skipped.
type Callbacks struct {
	OnStatusChange       func(entities.SessionStatus)
	OnConversationUpdate func([]entities.Message)
	OnAISpeakingChange   func(bool)
	OnMicError           func(error)
}

// Options parameterizes one practice session.
type Options struct {
	// Context is the free-form scenario context shown to the learner and
	// matched against the scenario catalog for the persona instruction.
	Context string
	// VirtualWorld selects the role-play instruction set; otherwise the
	// session runs as free conversation practice on Context as its topic.
	VirtualWorld bool
	// Model and Voice override the engine defaults when non-empty.
	Model string
	Voice string
	// FrameSize is the capture frame size in samples; zero means the
	// capture default.
	FrameSize int
}

// Controller owns the lifecycle of a single practice session:
// connecting → connected → (error | ended). Start may be called once;
// End is idempotent and always yields the session's training log.
type Controller struct {
	opts      Options
	dialer    repositories.LiveDialer
	mic       repositories.Microphone
	renderer  repositories.Renderer
	callbacks Callbacks
	logger    *zap.Logger

	// swappable for tests
	now   func() time.Time
	newID func() string

	mu        sync.Mutex
	status    entities.SessionStatus
	live      repositories.LiveSession
	micStream repositories.MicrophoneStream
	pipeline  *capture.Pipeline
	scheduler *playback.Scheduler

	reconciler *Reconciler
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	endOnce    sync.Once
	log        *entities.TrainingLog
}

// NewController assembles a session controller. The microphone and renderer
// are injected so the same controller serves both the local terminal client
// and browser sessions bridged over a websocket.
func NewController(opts Options, dialer repositories.LiveDialer, mic repositories.Microphone, renderer repositories.Renderer, callbacks Callbacks, logger *zap.Logger) *Controller {
	return &Controller{
		opts:      opts,
		dialer:    dialer,
		mic:       mic,
		renderer:  renderer,
		callbacks: callbacks,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
		status:    entities.SessionStatusConnecting,
	}
}

// Start opens the microphone, dials the live connection and launches the
// capture and event-dispatch loops. A microphone failure aborts before any
// connection is attempted.
func (c *Controller) Start(ctx context.Context) error {
	c.setStatus(entities.SessionStatusConnecting)

	micStream, err := c.mic.Open(ctx, captureFormat)
	if err != nil {
		c.logger.Error("Microphone unavailable", zap.Error(err))
		if c.callbacks.OnMicError != nil {
			c.callbacks.OnMicError(err)
		}
		c.setStatus(entities.SessionStatusError)
		return fmt.Errorf("failed to open microphone: %w", err)
	}

	instruction := scenario.GeneralInstruction(c.opts.Context)
	if c.opts.VirtualWorld {
		instruction = scenario.SystemInstruction(c.opts.Context)
	}
	live, err := c.dialer.Connect(ctx, repositories.LiveOptions{
		SystemInstruction: instruction,
		Voice:             c.opts.Voice,
		Model:             c.opts.Model,
	})
	if err != nil {
		c.logger.Error("Failed to establish live connection", zap.Error(err))
		micStream.Close()
		c.setStatus(entities.SessionStatusError)
		return fmt.Errorf("failed to connect live session: %w", err)
	}

	sessionCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.micStream = micStream
	c.live = live
	c.cancel = cancel
	c.reconciler = NewReconciler(c.callbacks.OnConversationUpdate, c.logger)
	c.scheduler = playback.NewScheduler(c.renderer, playbackFormat, c.callbacks.OnAISpeakingChange, c.logger)
	c.pipeline = capture.NewPipeline(c.opts.FrameSize, live.SendAudioFrame, c.logger)
	c.mu.Unlock()

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.pipeline.Run(sessionCtx, micStream)
	}()
	go func() {
		defer c.wg.Done()
		c.dispatchEvents(sessionCtx, live)
	}()

	c.setStatus(entities.SessionStatusConnected)
	c.logger.Info("Practice session started",
		zap.String("context", c.opts.Context),
		zap.String("model", c.opts.Model))
	return nil
}

// dispatchEvents is the single consumer of the live event stream; all
// reconciler and scheduler mutations funnel through here in arrival order.
func (c *Controller) dispatchEvents(ctx context.Context, live repositories.LiveSession) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-live.Events():
			if !ok {
				return
			}
			c.handleEvent(ev, live)
		}
	}
}

func (c *Controller) handleEvent(ev repositories.ServerEvent, live repositories.LiveSession) {
	switch e := ev.(type) {
	case repositories.AudioChunkEvent:
		if err := c.scheduler.Schedule(e.Data); err != nil {
			c.logger.Warn("Dropped unplayable audio chunk", zap.Error(err))
		}
	case repositories.InputTranscriptEvent:
		c.reconciler.AppendInput(e.Text)
	case repositories.OutputTranscriptEvent:
		c.reconciler.AppendOutput(e.Text)
	case repositories.ToolCallEvent:
		for _, call := range e.Calls {
			if call.Name == repositories.ToolProvideAccentFeedback {
				c.reconciler.SetFeedback(FeedbackFromArgs(call.Args))
			} else {
				c.logger.Warn("Ignoring unknown tool call", zap.String("name", call.Name))
			}
			if err := live.AcknowledgeTool(call.CallID, call.Name); err != nil {
				c.logger.Warn("Failed to acknowledge tool call",
					zap.String("name", call.Name), zap.Error(err))
			}
		}
	case repositories.InterruptedEvent:
		c.logger.Debug("Barge-in, cancelling playback")
		c.scheduler.Interrupt()
	case repositories.TurnCompleteEvent:
		c.reconciler.CompleteTurn()
	case repositories.ErrorEvent:
		c.logger.Error("Live connection failed", zap.Error(e.Err))
		c.setStatus(entities.SessionStatusError)
	}
}

// ToggleMute flips microphone muting and returns the new state. Muted
// frames are dropped at capture, never buffered.
func (c *Controller) ToggleMute() bool {
	c.mu.Lock()
	pipeline := c.pipeline
	c.mu.Unlock()
	if pipeline == nil {
		return false
	}
	muted := pipeline.ToggleMute()
	c.logger.Debug("Microphone mute toggled", zap.Bool("muted", muted))
	return muted
}

// Muted reports the current microphone mute state.
func (c *Controller) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pipeline != nil && c.pipeline.Muted()
}

// Status returns the current session status.
func (c *Controller) Status() entities.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Conversation returns a copy of the transcript committed so far.
func (c *Controller) Conversation() []entities.Message {
	c.mu.Lock()
	reconciler := c.reconciler
	c.mu.Unlock()
	if reconciler == nil {
		return nil
	}
	return reconciler.Conversation()
}

// End tears the session down and returns its training log. Safe to call
// multiple times and safe concurrently; every call returns the same log.
func (c *Controller) End() *entities.TrainingLog {
	c.endOnce.Do(func() {
		c.mu.Lock()
		cancel := c.cancel
		micStream := c.micStream
		live := c.live
		scheduler := c.scheduler
		reconciler := c.reconciler
		c.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if micStream != nil {
			micStream.Close()
		}
		if live != nil {
			if err := live.Close(); err != nil {
				c.logger.Warn("Failed to close live connection", zap.Error(err))
			}
		}
		if scheduler != nil {
			scheduler.Close()
		}
		c.wg.Wait()

		var conversation []entities.Message
		if reconciler != nil {
			conversation = reconciler.Conversation()
		}
		c.mu.Lock()
		c.log = &entities.TrainingLog{
			ID:           c.newID(),
			Date:         c.now(),
			Context:      c.opts.Context,
			Conversation: conversation,
			Score:        entities.Score(conversation),
		}
		c.mu.Unlock()

		c.setStatus(entities.SessionStatusEnded)
		c.logger.Info("Practice session ended",
			zap.Int("messages", len(conversation)),
			zap.Int("score", entities.Score(conversation)))
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log
}

// setStatus applies a state transition, dropping transitions the state
// machine forbids (a session that failed stays failed).
func (c *Controller) setStatus(next entities.SessionStatus) {
	c.mu.Lock()
	if c.status == next || !c.status.CanTransitionTo(next) {
		c.mu.Unlock()
		return
	}
	c.status = next
	c.mu.Unlock()

	if c.callbacks.OnStatusChange != nil {
		c.callbacks.OnStatusChange(next)
	}
}
