package repositories

import "context"

// ToolProvideAccentFeedback is the single tool the conversational engine is
// allowed to call. The engine blocks further reasoning until every
// invocation is acknowledged.
const ToolProvideAccentFeedback = "provideAccentFeedback"

// LiveOptions parameterizes a live connection to the conversational engine.
type LiveOptions struct {
	// SystemInstruction is the opaque scenario/system prompt for the session.
	SystemInstruction string
	// Voice selects the prebuilt synthesis voice.
	Voice string
	// Model overrides the default conversational model when non-empty.
	Model string
}

// LiveDialer establishes live conversational sessions.
type LiveDialer interface {
	Connect(ctx context.Context, opts LiveOptions) (LiveSession, error)
}

// LiveSession is one bidirectional connection to the remote conversational
// engine: PCM frames go up, a typed event stream comes down. Events must be
// consumed by a single goroutine in arrival order.
type LiveSession interface {
	// SendAudioFrame transmits one base64-encoded 16kHz mono PCM frame.
	// Fire-and-forget; ordering is preserved per connection.
	SendAudioFrame(chunk string) error

	// AcknowledgeTool confirms a tool invocation with the fixed "ok" result.
	// Required for every received tool call regardless of local handling.
	AcknowledgeTool(callID, name string) error

	// Events returns the inbound event stream. The channel is closed when
	// the connection terminates.
	Events() <-chan ServerEvent

	// Close terminates the connection. Idempotent.
	Close() error
}

// ServerEvent is one item of the live session's inbound stream.
type ServerEvent interface {
	eventKind() string
}

// AudioChunkEvent carries one base64-encoded chunk of 24kHz mono
// synthesized speech.
type AudioChunkEvent struct {
	Data string
}

func (AudioChunkEvent) eventKind() string { return "audio_chunk" }

// InputTranscriptEvent carries a streamed fragment of the user's speech
// transcription.
type InputTranscriptEvent struct {
	Text string
}

func (InputTranscriptEvent) eventKind() string { return "input_transcript" }

// OutputTranscriptEvent carries a streamed fragment of the AI's speech
// transcription.
type OutputTranscriptEvent struct {
	Text string
}

func (OutputTranscriptEvent) eventKind() string { return "output_transcript" }

// ToolInvocation is one structured function call from the engine.
type ToolInvocation struct {
	CallID string
	Name   string
	Args   map[string]any
}

// ToolCallEvent carries the tool invocations of one server message.
type ToolCallEvent struct {
	Calls []ToolInvocation
}

func (ToolCallEvent) eventKind() string { return "tool_call" }

// InterruptedEvent signals barge-in: the user started speaking while AI
// audio was still rendering. All queued playback must be cancelled.
type InterruptedEvent struct{}

func (InterruptedEvent) eventKind() string { return "interrupted" }

// TurnCompleteEvent finalizes the in-flight conversational turn.
type TurnCompleteEvent struct{}

func (TurnCompleteEvent) eventKind() string { return "turn_complete" }

// ErrorEvent reports a transport failure. Fatal for the session.
type ErrorEvent struct {
	Err error
}

func (ErrorEvent) eventKind() string { return "error" }
