package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/muhannadalsrahen/speakright/domain/entities"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	// Client to server
	MessageTypeSessionStart MessageType = "session_start"
	MessageTypeMuteToggle   MessageType = "mute_toggle"
	MessageTypeSessionEnd   MessageType = "session_end"

	// Server to client
	MessageTypeSessionStatus      MessageType = "session_status"
	MessageTypeConversationUpdate MessageType = "conversation_update"
	MessageTypeAISpeaking         MessageType = "ai_speaking"
	MessageTypeMuteState          MessageType = "mute_state"
	MessageTypeMicError           MessageType = "mic_error"
	MessageTypePlaybackClear      MessageType = "playback_clear"
	MessageTypeSessionEnded       MessageType = "session_ended"
	MessageTypeError              MessageType = "error"
)

// maxContextLength bounds the free-form scenario context a client may submit.
const maxContextLength = 500

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type" validate:"required"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"message_id,omitempty"`
}

// SessionStartMessage asks the server to open a practice session.
type SessionStartMessage struct {
	BaseMessage
	// Context is the scenario context, e.g. "Coffee Shop" or a free topic.
	Context string `json:"context"`
	// VirtualWorld selects scenario role-play instead of free conversation.
	VirtualWorld bool `json:"virtual_world"`
}

// MuteToggleMessage flips the microphone mute state.
type MuteToggleMessage struct {
	BaseMessage
}

// SessionEndMessage ends the active practice session.
type SessionEndMessage struct {
	BaseMessage
}

// SessionStatusMessage reports a session lifecycle transition.
type SessionStatusMessage struct {
	BaseMessage
	Status entities.SessionStatus `json:"status"`
}

// ConversationUpdateMessage carries the full transcript committed so far.
type ConversationUpdateMessage struct {
	BaseMessage
	Conversation []entities.Message `json:"conversation"`
}

// AISpeakingMessage reports whether AI speech is currently audible.
type AISpeakingMessage struct {
	BaseMessage
	Speaking bool `json:"speaking"`
}

// MuteStateMessage acknowledges a mute toggle with the new state.
type MuteStateMessage struct {
	BaseMessage
	Muted bool `json:"muted"`
}

// MicErrorMessage reports a fatal microphone failure.
type MicErrorMessage struct {
	BaseMessage
	Message string `json:"message"`
}

// PlaybackClearMessage tells the client to discard buffered audio after a
// barge-in.
type PlaybackClearMessage struct {
	BaseMessage
}

// SessionEndedMessage delivers the training log of a finished session.
type SessionEndedMessage struct {
	BaseMessage
	Log *entities.TrainingLog `json:"log"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// MessageValidator provides validation for WebSocket messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage validates an incoming message
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	// First parse as base message to get type
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	// Validate specific message type
	switch base.Type {
	case MessageTypeSessionStart:
		var msg SessionStartMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid session start message: %w", err)
		}
		if err := v.validateSessionStart(&msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case MessageTypeMuteToggle:
		var msg MuteToggleMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid mute toggle message: %w", err)
		}
		return &msg, nil

	case MessageTypeSessionEnd:
		var msg SessionEndMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid session end message: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

// validateSessionStart validates session start message fields
func (v *MessageValidator) validateSessionStart(msg *SessionStartMessage) error {
	if len(msg.Context) > maxContextLength {
		return fmt.Errorf("context must be at most %d characters", maxContextLength)
	}
	if msg.VirtualWorld && msg.Context == "" {
		return fmt.Errorf("context is required for virtual world sessions")
	}
	return nil
}

func newBaseMessage(messageType MessageType) BaseMessage {
	return BaseMessage{
		Type:      messageType,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// CreateSessionStatusMessage creates a session status notification
func CreateSessionStatusMessage(status entities.SessionStatus) *SessionStatusMessage {
	return &SessionStatusMessage{
		BaseMessage: newBaseMessage(MessageTypeSessionStatus),
		Status:      status,
	}
}

// CreateConversationUpdateMessage creates a transcript update notification
func CreateConversationUpdateMessage(conversation []entities.Message) *ConversationUpdateMessage {
	return &ConversationUpdateMessage{
		BaseMessage:  newBaseMessage(MessageTypeConversationUpdate),
		Conversation: conversation,
	}
}

// CreateAISpeakingMessage creates an AI speaking state notification
func CreateAISpeakingMessage(speaking bool) *AISpeakingMessage {
	return &AISpeakingMessage{
		BaseMessage: newBaseMessage(MessageTypeAISpeaking),
		Speaking:    speaking,
	}
}

// CreateMuteStateMessage creates a mute state acknowledgement
func CreateMuteStateMessage(muted bool) *MuteStateMessage {
	return &MuteStateMessage{
		BaseMessage: newBaseMessage(MessageTypeMuteState),
		Muted:       muted,
	}
}

// CreateMicErrorMessage creates a microphone failure notification
func CreateMicErrorMessage(message string) *MicErrorMessage {
	return &MicErrorMessage{
		BaseMessage: newBaseMessage(MessageTypeMicError),
		Message:     message,
	}
}

// CreatePlaybackClearMessage creates a playback clear notification
func CreatePlaybackClearMessage() *PlaybackClearMessage {
	return &PlaybackClearMessage{
		BaseMessage: newBaseMessage(MessageTypePlaybackClear),
	}
}

// CreateSessionEndedMessage creates a session ended notification
func CreateSessionEndedMessage(log *entities.TrainingLog) *SessionEndedMessage {
	return &SessionEndedMessage{
		BaseMessage: newBaseMessage(MessageTypeSessionEnded),
		Log:         log,
	}
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message, details string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: newBaseMessage(MessageTypeError),
		Code:        code,
		Message:     message,
		Details:     details,
	}
}
