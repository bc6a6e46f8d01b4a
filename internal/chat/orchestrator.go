package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"localvibe/internal/domain"
	"localvibe/internal/integrations/groq"
)

// apologyMessage replaces the assistant placeholder when the completion
// service fails. The user must resend; nothing is retried.
const apologyMessage = "Ne pare rău, a apărut o eroare. Te rog încearcă din nou."

// ErrBusy is returned when Send is called while a turn is already in
// flight. The call is a no-op: the transcript is not touched.
var ErrBusy = errors.New("chat: a completion is already in flight")

// Completer is the streamed completion surface the orchestrator needs;
// satisfied by *groq.Client.
type Completer interface {
	StreamChat(ctx context.Context, model string, messages []domain.ChatMessage, params groq.Params) (<-chan groq.Chunk, error)
}

// OnChunk is invoked for each streamed delta, in delivery order, with the
// id of the assistant message being built.
type OnChunk func(messageID, delta string)

// Orchestrator drives one conversation turn: append the user message,
// stream the assistant reply onto a placeholder, annotate venue mentions,
// and persist the finished transcript in one write.
type Orchestrator struct {
	store     *TranscriptStore
	completer Completer
	locations []domain.Location
	model     string
	logger    *slog.Logger

	mu        sync.Mutex
	streaming bool
}

// NewOrchestrator wires a transcript store to the completion service. The
// locations slice is the reference list the assistant may mention.
func NewOrchestrator(store *TranscriptStore, completer Completer, locations []domain.Location, model string, logger *slog.Logger) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("chat: transcript store must not be nil")
	}
	if completer == nil {
		return nil, errors.New("chat: completer must not be nil")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("chat: model must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:     store,
		completer: completer,
		locations: locations,
		model:     model,
		logger:    logger,
	}, nil
}

// IsStreaming reports whether a turn is in flight.
func (o *Orchestrator) IsStreaming() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.streaming
}

// Send runs one full turn. Empty input is ignored; a call while a turn is
// in flight returns ErrBusy without touching the transcript. onChunk may be
// nil. Completion-service failures degrade into the apology message and are
// not returned; Send only fails on misuse.
func (o *Orchestrator) Send(ctx context.Context, content string, onChunk OnChunk) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	o.mu.Lock()
	if o.streaming {
		o.mu.Unlock()
		return ErrBusy
	}
	o.streaming = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.streaming = false
		o.mu.Unlock()
	}()

	generation := o.store.Generation()
	history := o.store.Messages()

	user := domain.Message{
		ID:        newUUID(),
		Role:      domain.RoleUser,
		Content:   content,
		Timestamp: nowMillis(),
	}
	o.store.Append(user)
	o.store.PersistBestEffort(ctx)

	placeholder := domain.Message{
		ID:        newUUID(),
		Role:      domain.RoleAssistant,
		Timestamp: nowMillis(),
	}
	o.store.Append(placeholder)

	failed := o.streamInto(ctx, generation, placeholder.ID, history, content, onChunk)

	// The transcript was cleared or rebound mid-stream; whatever arrived
	// late belongs to a dead generation and must not be persisted.
	if o.store.Generation() != generation {
		return nil
	}

	if failed {
		o.store.SetContent(placeholder.ID, apologyMessage)
	} else {
		final := o.messageContent(placeholder.ID)
		o.store.SetLocationIDs(placeholder.ID, DetectMentions(final, o.locations))
	}
	o.store.PersistBestEffort(ctx)
	return nil
}

// streamInto feeds stream deltas onto the placeholder and reports whether
// the turn failed.
func (o *Orchestrator) streamInto(ctx context.Context, generation uint64, messageID string, history []domain.Message, content string, onChunk OnChunk) bool {
	stream, err := o.completer.StreamChat(ctx, o.model, buildTurnMessages(o.locations, history, content), groq.Params{})
	if err != nil {
		o.logger.Error("completion request failed", "err", err)
		return true
	}

	failed := false
	for chunk := range stream {
		if chunk.Err != nil {
			o.logger.Error("completion stream failed", "err", chunk.Err)
			failed = true
			continue
		}
		if chunk.Delta == "" {
			continue
		}
		if o.store.Generation() != generation {
			// Cleared mid-stream; drain the channel but apply nothing.
			continue
		}
		o.store.AppendContent(messageID, chunk.Delta)
		if onChunk != nil {
			onChunk(messageID, chunk.Delta)
		}
	}
	return failed
}

func (o *Orchestrator) messageContent(messageID string) string {
	for _, m := range o.store.Messages() {
		if m.ID == messageID {
			return m.Content
		}
	}
	return ""
}

var newUUID = func() string {
	return uuid.NewString()
}

var nowMillis = func() int64 {
	return time.Now().UnixMilli()
}
