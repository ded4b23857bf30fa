// Package gemini adapts the Gemini Live API to the domain's live session
// interfaces.
package gemini

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/muhannadalsrahen/speakright/domain/repositories"
	"github.com/muhannadalsrahen/speakright/internal/codec"
)

const (
	defaultModel = "gemini-2.5-flash-native-audio-preview-09-2025"
	defaultVoice = "Zephyr"

	inputMIMEType = "audio/pcm;rate=16000"

	// eventBuffer absorbs bursts of audio chunks between consumer reads.
	eventBuffer = 256
)

// Dialer implements repositories.LiveDialer on top of the Gemini Live API.
type Dialer struct {
	client *genai.Client
	logger *zap.Logger
}

var _ repositories.LiveDialer = (*Dialer)(nil)

// NewDialer creates a Gemini live dialer.
func NewDialer(apiKey string, logger *zap.Logger) (*Dialer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Dialer{
		client: client,
		logger: logger,
	}, nil
}

// Connect opens a live audio session. The engine transcribes both
// directions itself, so input and output transcription are always enabled.
func (d *Dialer) Connect(ctx context.Context, opts repositories.LiveOptions) (repositories.LiveSession, error) {
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	voice := opts.Voice
	if voice == "" {
		voice = defaultVoice
	}

	config := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
		Tools: []*genai.Tool{
			{FunctionDeclarations: []*genai.FunctionDeclaration{accentFeedbackDeclaration()}},
		},
	}
	if opts.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: opts.SystemInstruction}},
		}
	}

	remote, err := d.client.Live.Connect(ctx, model, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect live session: %w", err)
	}

	s := &liveSession{
		remote: remote,
		events: make(chan repositories.ServerEvent, eventBuffer),
		done:   make(chan struct{}),
		logger: d.logger,
	}
	go s.receiveLoop()

	d.logger.Info("Live session connected",
		zap.String("model", model),
		zap.String("voice", voice))
	return s, nil
}

// accentFeedbackDeclaration describes the single tool the model must call
// for every user utterance.
func accentFeedbackDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        repositories.ToolProvideAccentFeedback,
		Description: "ALWAYS call this function for EVERY user message to provide: 1) Corrected English if there are mistakes, 2) Pronunciation/accent feedback if needed, 3) Arabic translation of what they said.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"correctedText": {
					Type:        genai.TypeString,
					Description: "The corrected English version of what the user said. If their English was perfect, return the same text.",
				},
				"feedback": {
					Type:        genai.TypeString,
					Description: "Specific, helpful feedback on pronunciation or grammar mistakes. If their English was perfect, you can say 'Perfect!' or leave empty.",
				},
				"arabicTranslation": {
					Type:        genai.TypeString,
					Description: "Arabic translation of the CORRECTED English text. Always provide this.",
				},
				"encouragement": {
					Type:        genai.TypeString,
					Description: "A short, encouraging phrase. Optional.",
				},
			},
			Required: []string{"correctedText", "arabicTranslation"},
		},
	}
}

type liveSession struct {
	remote *genai.Session
	events chan repositories.ServerEvent
	done   chan struct{}
	logger *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

var _ repositories.LiveSession = (*liveSession)(nil)

// SendAudioFrame decodes the base64 frame and forwards the raw PCM to the
// engine as realtime input.
func (s *liveSession) SendAudioFrame(chunk string) error {
	raw, err := codec.DecodeBytes(chunk)
	if err != nil {
		return fmt.Errorf("failed to decode audio frame: %w", err)
	}
	if err := s.remote.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{
			Data:     raw,
			MIMEType: inputMIMEType,
		},
	}); err != nil {
		return fmt.Errorf("failed to send audio frame: %w", err)
	}
	return nil
}

// AcknowledgeTool responds to a tool invocation with the fixed "ok" result.
// The model only cares that the call was answered; the payload is constant.
func (s *liveSession) AcknowledgeTool(callID, name string) error {
	if err := s.remote.SendToolResponse(genai.LiveToolResponseInput{
		FunctionResponses: []*genai.FunctionResponse{
			{
				ID:       callID,
				Name:     name,
				Response: map[string]any{"result": "ok"},
			},
		},
	}); err != nil {
		return fmt.Errorf("failed to send tool response: %w", err)
	}
	return nil
}

func (s *liveSession) Events() <-chan repositories.ServerEvent {
	return s.events
}

func (s *liveSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.remote.Close()
	})
	return s.closeErr
}

// receiveLoop translates the remote message stream into domain events.
// Ordering within one server message follows the engine contract: audio and
// transcriptions first, tool calls next, turn boundary markers last.
func (s *liveSession) receiveLoop() {
	defer close(s.events)

	for {
		msg, err := s.remote.Receive()
		if err != nil {
			// Receive fails with a close error after Close(); point of the
			// select is to not surface that to a consumer that's gone.
			select {
			case s.events <- repositories.ErrorEvent{Err: err}:
			case <-s.done:
			}
			return
		}
		s.translate(msg)
	}
}

func (s *liveSession) translate(msg *genai.LiveServerMessage) {
	if content := msg.ServerContent; content != nil {
		if content.ModelTurn != nil {
			for _, part := range content.ModelTurn.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					s.emit(repositories.AudioChunkEvent{
						Data: codec.EncodeRaw(part.InlineData.Data),
					})
				}
			}
		}
		if content.InputTranscription != nil && content.InputTranscription.Text != "" {
			s.emit(repositories.InputTranscriptEvent{Text: content.InputTranscription.Text})
		}
		if content.OutputTranscription != nil && content.OutputTranscription.Text != "" {
			s.emit(repositories.OutputTranscriptEvent{Text: content.OutputTranscription.Text})
		}
		if content.Interrupted {
			s.emit(repositories.InterruptedEvent{})
		}
		if content.TurnComplete {
			s.emit(repositories.TurnCompleteEvent{})
		}
	}

	if toolCall := msg.ToolCall; toolCall != nil && len(toolCall.FunctionCalls) > 0 {
		calls := make([]repositories.ToolInvocation, 0, len(toolCall.FunctionCalls))
		for _, fc := range toolCall.FunctionCalls {
			calls = append(calls, repositories.ToolInvocation{
				CallID: fc.ID,
				Name:   fc.Name,
				Args:   fc.Args,
			})
		}
		s.emit(repositories.ToolCallEvent{Calls: calls})
	}
}

// emit delivers an event to the consumer. Audio chunks are lossy: when the
// buffer is full the chunk is dropped rather than stalling the receive loop,
// since playback can absorb a gap. Every other event kind carries state the
// engine must see (transcripts, tool calls, turn boundaries), so those sends
// block until the consumer drains the buffer or the session closes.
func (s *liveSession) emit(ev repositories.ServerEvent) {
	if _, lossy := ev.(repositories.AudioChunkEvent); lossy {
		select {
		case s.events <- ev:
		default:
			s.logger.Warn("Dropping audio chunk, consumer too slow")
		}
		return
	}
	select {
	case s.events <- ev:
	case <-s.done:
	}
}
