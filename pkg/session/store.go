// Package session owns the session list and the per-session message
// timeline cache. Every mutation funnels through the Store's operations:
// locally-originated optimistic edits and server-pushed events are
// reconciled here into one consistent view.
package session

import (
	"context"
	"sync"

	"github.com/satchelhq/satchel/pkg/api"
	"github.com/satchelhq/satchel/pkg/chat"
	"github.com/satchelhq/satchel/pkg/logger"
)

// Transport is the request/response surface the store needs. *api.Client
// satisfies it.
type Transport interface {
	GetSessions(ctx context.Context, query api.SessionQuery) ([]chat.Session, error)
	CreateSession(ctx context.Context, title, directory string) (chat.Session, error)
	DeleteSession(ctx context.Context, id string) error
	GetSessionMessages(ctx context.Context, sessionID string) ([]chat.Message, error)
	SendMessage(ctx context.Context, sessionID, prompt string, model *api.Model) error
}

// Store is the session reconciliation core. It owns the session list, the
// message cache and the typing indicator; no other component writes these.
type Store struct {
	mu        sync.Mutex
	transport Transport
	limit     int

	sessions         []chat.Session
	messages         map[string][]chat.Message
	currentSessionID string
	loading          bool
	err              string
	typing           bool
}

func NewStore(transport Transport) *Store {
	return &Store{
		transport: transport,
		messages:  make(map[string][]chat.Message),
	}
}

// SetSessionLimit caps the session list fetch. Zero means server default.
func (s *Store) SetSessionLimit(limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = limit
}

// LoadSessions replaces the session list with the server's, preserving
// server order. An empty directory means all directories. Failures are
// captured into the error field, never returned.
func (s *Store) LoadSessions(ctx context.Context, directory string) {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	limit := s.limit
	s.mu.Unlock()

	sessions, err := s.transport.GetSessions(ctx, api.SessionQuery{Limit: limit, Directory: directory})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err.Error()
		return
	}
	s.sessions = sessions
}

// SelectSession makes the session current and fetches its message history
// unless a cached sequence already exists. An explicitly empty cached
// sequence counts as present and suppresses the fetch; deleting the cache
// entry is how a refetch is forced.
func (s *Store) SelectSession(ctx context.Context, id string) {
	s.mu.Lock()
	s.currentSessionID = id
	_, cached := s.messages[id]
	s.mu.Unlock()

	if cached {
		return
	}

	messages, err := s.transport.GetSessionMessages(ctx, id)
	if err != nil {
		logger.Error("Failed to load messages for session %s: %v", id, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[id] = messages
}

// CreateSession creates a session, prepends it to the list, makes it
// current and seeds an empty message cache. The error is both recorded and
// returned: callers need to know whether to navigate.
func (s *Store) CreateSession(ctx context.Context, title, directory string) (string, error) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	created, err := s.transport.CreateSession(ctx, title, directory)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err.Error()
		return "", err
	}

	s.sessions = append([]chat.Session{created}, s.sessions...)
	s.currentSessionID = created.ID
	s.messages[created.ID] = []chat.Message{}
	return created.ID, nil
}

// DeleteSession removes the session and its cache on server confirmation.
// On failure only the error field changes: a deletion the server rejected
// must not visually remove a session it still has.
func (s *Store) DeleteSession(ctx context.Context, id string) {
	err := s.transport.DeleteSession(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err.Error()
		return
	}

	kept := s.sessions[:0:0]
	for _, sess := range s.sessions {
		if sess.ID != id {
			kept = append(kept, sess)
		}
	}
	s.sessions = kept
	delete(s.messages, id)
	if s.currentSessionID == id {
		s.currentSessionID = ""
	}
}

// SendMessage runs the optimistic-send protocol: a placeholder user message
// is appended and the typing flag raised before the network call. On send
// failure the placeholder is removed by its own id; on success it stays,
// to be reconciled away when the confirming message.created event arrives.
func (s *Store) SendMessage(ctx context.Context, sessionID, content string, model *api.Model) {
	placeholder := chat.NewOptimisticMessage(sessionID, content)

	s.mu.Lock()
	s.messages[sessionID] = append(s.messages[sessionID], placeholder)
	s.typing = true
	s.mu.Unlock()

	if err := s.transport.SendMessage(ctx, sessionID, content, model); err != nil {
		logger.Warn("Send failed for session %s: %v", sessionID, err)
		s.mu.Lock()
		defer s.mu.Unlock()

		kept := s.messages[sessionID][:0:0]
		for _, msg := range s.messages[sessionID] {
			if msg.Info.ID != placeholder.Info.ID {
				kept = append(kept, msg)
			}
		}
		s.messages[sessionID] = kept
		s.err = "Failed to send message"
		s.typing = false
	}
}

// ClearError resets the error field.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}

// ClearSessions empties the session list.
func (s *Store) ClearSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = nil
}

// Sessions returns a copy of the session list in server order.
func (s *Store) Sessions() []chat.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chat.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Messages returns a snapshot of the cached sequence for a session and
// whether a cache entry exists at all. Parts are deep-copied: the cached
// originals keep being mutated in place by streaming deltas, so a shared
// slice would race with readers on other goroutines.
func (s *Store) Messages(sessionID string) ([]chat.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.messages[sessionID]
	if !ok {
		return nil, false
	}
	out := make([]chat.Message, len(seq))
	for i, msg := range seq {
		out[i] = msg.Clone()
	}
	return out, true
}

// InvalidateMessages drops a session's cache entry so the next
// SelectSession refetches.
func (s *Store) InvalidateMessages(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, sessionID)
}

func (s *Store) CurrentSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSessionID
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store) Typing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}
