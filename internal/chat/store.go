// Package chat holds the per-identity conversation transcript and the
// orchestrator that drives one streamed completion turn at a time.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"localvibe/internal/domain"
	"localvibe/internal/identity"
	"localvibe/internal/kvstore"
	"localvibe/internal/scoped"
)

const baseName = "chat_messages"

// TranscriptStore is the ordered in-memory message log for the active
// identity, persisted wholesale after each completed turn. The guest
// transcript lives under the historical unsuffixed "chat_messages" key.
type TranscriptStore struct {
	scoped *scoped.Store
	logger *slog.Logger

	mu         sync.Mutex
	id         identity.Identity
	messages   []domain.Message
	generation uint64
	version    uint64
}

// NewTranscriptStore creates a transcript store bound to the backend.
func NewTranscriptStore(backend kvstore.Backend, logger *slog.Logger) (*TranscriptStore, error) {
	if backend == nil {
		return nil, errors.New("chat: backend must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	sc, err := scoped.New(backend, baseName, logger, scoped.WithGuestKey(baseName))
	if err != nil {
		return nil, err
	}
	return &TranscriptStore{scoped: sc, logger: logger}, nil
}

// Load swaps the store to the given identity and replaces the in-memory
// transcript with whatever is persisted under its key. Missing or
// unreadable data yields an empty transcript. Loading invalidates any
// in-flight turn for the previous identity.
func (s *TranscriptStore) Load(ctx context.Context, id identity.Identity) {
	var messages []domain.Message
	if _, err := s.scoped.Load(ctx, id, &messages); err != nil {
		s.logger.Warn("failed to load transcript", "err", err)
		messages = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.messages = messages
	s.generation++
	s.version++
}

// Identity returns the identity the transcript is currently bound to.
func (s *TranscriptStore) Identity() identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Messages returns a copy of the transcript in creation order.
func (s *TranscriptStore) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the transcript.
func (s *TranscriptStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Generation identifies the current transcript incarnation. Clear and Load
// bump it; the orchestrator drops stream chunks that arrive for an older
// generation.
func (s *TranscriptStore) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Version increments on every visible mutation; UIs re-render when it moves.
func (s *TranscriptStore) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Append adds a message to the end of the transcript.
func (s *TranscriptStore) Append(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	s.version++
}

// AppendContent concatenates delta onto the identified message. It reports
// whether the message was found.
func (s *TranscriptStore) AppendContent(messageID, delta string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			s.messages[i].Content += delta
			s.version++
			return true
		}
	}
	return false
}

// SetContent replaces the identified message's content.
func (s *TranscriptStore) SetContent(messageID, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			s.messages[i].Content = content
			s.version++
			return true
		}
	}
	return false
}

// SetLocationIDs attaches the detected venue mentions to a message.
func (s *TranscriptStore) SetLocationIDs(messageID string, ids []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			s.messages[i].LocationIDs = ids
			s.version++
			return true
		}
	}
	return false
}

// Persist writes the full transcript under the active identity's key as one
// durable write.
func (s *TranscriptStore) Persist(ctx context.Context) error {
	s.mu.Lock()
	id := s.id
	snapshot := make([]domain.Message, len(s.messages))
	copy(snapshot, s.messages)
	s.mu.Unlock()

	return s.scoped.Save(ctx, id, snapshot)
}

// PersistBestEffort is Persist with the failure logged instead of returned.
func (s *TranscriptStore) PersistBestEffort(ctx context.Context) {
	if err := s.Persist(ctx); err != nil {
		s.logger.Warn("failed to persist transcript", "err", err)
	}
}

// Clear wipes the in-memory transcript and deletes the persisted key for
// the active identity. Other identities' transcripts are untouched.
func (s *TranscriptStore) Clear(ctx context.Context) {
	s.mu.Lock()
	id := s.id
	s.messages = nil
	s.generation++
	s.version++
	s.mu.Unlock()

	if err := s.scoped.Remove(ctx, id); err != nil {
		s.logger.Warn("failed to clear transcript", "err", err)
	}
}
