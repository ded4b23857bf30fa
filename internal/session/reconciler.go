package session

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/muhannadalsrahen/speakright/domain/entities"
)

// Reconciler folds the interleaved transcription fragments, tool-call
// feedback and turn boundaries coming off a live connection into an ordered
// conversation transcript. Fragments accumulate per turn; at each turn
// boundary the user message is committed before the model's reply.
type Reconciler struct {
	onUpdate func([]entities.Message)
	logger   *zap.Logger

	mu           sync.Mutex
	inputText    strings.Builder
	outputText   strings.Builder
	pending      *entities.Feedback
	conversation []entities.Message
}

// NewReconciler creates a transcript reconciler. onUpdate receives a copy of
// the full conversation after every turn that produced at least one message.
func NewReconciler(onUpdate func([]entities.Message), logger *zap.Logger) *Reconciler {
	return &Reconciler{
		onUpdate: onUpdate,
		logger:   logger,
	}
}

// AppendInput accumulates a fragment of the user's speech transcription.
func (r *Reconciler) AppendInput(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputText.WriteString(text)
}

// AppendOutput accumulates a fragment of the model's speech transcription.
func (r *Reconciler) AppendOutput(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputText.WriteString(text)
}

// SetFeedback stages accent feedback for the current turn. A later call in
// the same turn replaces the earlier one wholesale. Staged feedback lives
// only until the next turn boundary; feedback that arrives after its turn
// already flushed is lost.
func (r *Reconciler) SetFeedback(fb entities.Feedback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending != nil {
		r.logger.Debug("Replacing staged feedback within turn")
	}
	copied := fb
	r.pending = &copied
}

// CompleteTurn closes the current turn: trimmed non-empty transcriptions are
// committed as messages (user first, carrying any staged feedback, then the
// model's reply) and the accumulators reset. A turn with no speech on either
// side commits nothing and does not notify. Staged feedback is discarded at
// every boundary, even when no user message consumed it.
func (r *Reconciler) CompleteTurn() {
	r.mu.Lock()

	userText := strings.TrimSpace(r.inputText.String())
	aiText := strings.TrimSpace(r.outputText.String())
	pending := r.pending
	r.inputText.Reset()
	r.outputText.Reset()
	r.pending = nil

	appended := false
	if userText != "" {
		r.conversation = append(r.conversation, entities.NewUserMessage(userText, pending))
		appended = true
	}
	if aiText != "" {
		r.conversation = append(r.conversation, entities.NewAIMessage(aiText))
		appended = true
	}

	var snapshot []entities.Message
	if appended && r.onUpdate != nil {
		snapshot = snapshotConversation(r.conversation)
	}
	r.mu.Unlock()

	if snapshot != nil {
		r.onUpdate(snapshot)
	}
}

// Conversation returns a copy of the committed transcript.
func (r *Reconciler) Conversation() []entities.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return snapshotConversation(r.conversation)
}

func snapshotConversation(conversation []entities.Message) []entities.Message {
	out := make([]entities.Message, len(conversation))
	copy(out, conversation)
	return out
}

// FeedbackFromArgs maps the accent-feedback tool call arguments onto a
// Feedback value. Unknown keys are ignored, missing keys stay empty.
func FeedbackFromArgs(args map[string]any) entities.Feedback {
	str := func(key string) string {
		if v, ok := args[key].(string); ok {
			return v
		}
		return ""
	}
	return entities.Feedback{
		Correction:        str("correctedText"),
		AccentFeedback:    str("feedback"),
		ArabicTranslation: str("arabicTranslation"),
		Encouragement:     str("encouragement"),
	}
}
