package entities

import (
	"errors"
	"strings"
	"time"
)

// MessageSender identifies which side of the conversation produced a message.
type MessageSender string

const (
	MessageSenderUser MessageSender = "user"
	MessageSenderAI   MessageSender = "ai"
)

// Feedback is the structured coaching payload attached to a user message:
// the corrected English, pronunciation/accent notes, the Arabic translation
// of the corrected text and an optional encouragement phrase.
type Feedback struct {
	Correction        string `json:"correction,omitempty" bson:"correction,omitempty"`
	AccentFeedback    string `json:"accent_feedback,omitempty" bson:"accent_feedback,omitempty"`
	ArabicTranslation string `json:"arabic_translation,omitempty" bson:"arabic_translation,omitempty"`
	Encouragement     string `json:"encouragement,omitempty" bson:"encouragement,omitempty"`
}

// IsZero reports whether no feedback field is set.
func (f Feedback) IsZero() bool {
	return f.Correction == "" && f.AccentFeedback == "" && f.ArabicTranslation == "" && f.Encouragement == ""
}

// Message is a single finalized entry in the conversation transcript.
// Messages are immutable once appended; feedback fields are only ever
// populated on user messages.
type Message struct {
	Sender            MessageSender `json:"sender" bson:"sender"`
	Text              string        `json:"text" bson:"text"`
	Correction        string        `json:"correction,omitempty" bson:"correction,omitempty"`
	AccentFeedback    string        `json:"accent_feedback,omitempty" bson:"accent_feedback,omitempty"`
	ArabicTranslation string        `json:"arabic_translation,omitempty" bson:"arabic_translation,omitempty"`
	Encouragement     string        `json:"encouragement,omitempty" bson:"encouragement,omitempty"`
}

// NewUserMessage builds a user message, copying feedback fields when present.
func NewUserMessage(text string, feedback *Feedback) Message {
	msg := Message{
		Sender: MessageSenderUser,
		Text:   text,
	}
	if feedback != nil {
		msg.Correction = feedback.Correction
		msg.AccentFeedback = feedback.AccentFeedback
		msg.ArabicTranslation = feedback.ArabicTranslation
		msg.Encouragement = feedback.Encouragement
	}
	return msg
}

// NewAIMessage builds an AI message. AI messages never carry feedback fields.
func NewAIMessage(text string) Message {
	return Message{
		Sender: MessageSenderAI,
		Text:   text,
	}
}

// HasFeedback reports whether any coaching field is populated.
func (m Message) HasFeedback() bool {
	return m.Correction != "" || m.AccentFeedback != "" || m.ArabicTranslation != "" || m.Encouragement != ""
}

// Validate validates the message data.
func (m Message) Validate() error {
	if m.Sender != MessageSenderUser && m.Sender != MessageSenderAI {
		return errors.New("invalid message sender")
	}
	if strings.TrimSpace(m.Text) == "" {
		return errors.New("message text is required")
	}
	return nil
}

// SessionStatus represents the lifecycle state of a practice session.
type SessionStatus string

const (
	SessionStatusConnecting SessionStatus = "connecting"
	SessionStatusConnected  SessionStatus = "connected"
	SessionStatusError      SessionStatus = "error"
	SessionStatusEnded      SessionStatus = "ended"
)

// Terminal reports whether no further transitions may leave this status.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusError || s == SessionStatusEnded
}

// CanTransitionTo reports whether the status machine permits moving to next.
// connecting → connected|error, connected → error|ended; error and ended
// absorb everything.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	if s.Terminal() {
		return false
	}
	switch s {
	case SessionStatusConnecting:
		return next == SessionStatusConnected || next == SessionStatusError
	case SessionStatusConnected:
		return next == SessionStatusError || next == SessionStatusEnded
	default:
		return false
	}
}

// TrainingLog is the artifact produced by a completed practice session.
type TrainingLog struct {
	ID           string    `json:"id" bson:"_id"`
	Date         time.Time `json:"date" bson:"date"`
	Context      string    `json:"context" bson:"context"`
	Conversation []Message `json:"conversation" bson:"conversation"`
	Score        int       `json:"score" bson:"score"`
}

// Validate validates the training log data.
func (l *TrainingLog) Validate() error {
	if l.ID == "" {
		return errors.New("training log id is required")
	}
	if l.Date.IsZero() {
		return errors.New("training log date is required")
	}
	return nil
}

// Score computes the session score from a finished transcript:
// clamp(0..100, 100 - 20*corrections + 5*userMessages). Corrections are
// counted as AI messages carrying accent feedback, matching the product's
// historical scoring behavior.
func Score(conversation []Message) int {
	userMessages := 0
	corrections := 0
	for _, m := range conversation {
		switch {
		case m.Sender == MessageSenderUser:
			userMessages++
		case m.Sender == MessageSenderAI && m.AccentFeedback != "":
			corrections++
		}
	}

	score := 100 - corrections*20 + userMessages*5
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
