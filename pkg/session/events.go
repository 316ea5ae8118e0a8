package session

import (
	"github.com/satchelhq/satchel/pkg/chat"
)

// Event handlers invoked by the stream manager. Server pushes can arrive
// out of order relative to the request/response path, duplicated across
// delivery styles, or for sessions that were never opened; every handler
// here tolerates all three.

// OnMessageCreated inserts a pushed message idempotently. For user messages
// it first resolves the optimistic placeholder: when the last cached entry
// is an unconfirmed placeholder whose text matches the incoming message's
// text exactly, the placeholder is removed before the confirmed message is
// appended. A content mismatch leaves the placeholder in place, which shows
// as a duplicate rather than losing data. Assistant traffic clears the
// typing flag: it is the signal that the turn has begun responding.
func (s *Store) OnMessageCreated(sessionID string, message chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.messages[sessionID]

	exists := false
	for _, msg := range seq {
		if msg.Info.ID == message.Info.ID {
			exists = true
			break
		}
	}

	if !exists {
		if message.IsUser() && len(seq) > 0 {
			last := seq[len(seq)-1]
			if last.IsUser() && last.IsOptimistic() && last.TextContent() == message.TextContent() {
				seq = seq[:len(seq)-1]
			}
		}
		seq = append(seq, message)
		s.messages[sessionID] = seq
	}

	if message.IsAssistant() {
		s.typing = false
	}
}

// OnMessageUpdated replaces the matching cached message wholesale, or
// appends when the id is unknown. Events for sessions with no cache entry
// are dropped: there is nothing to update.
func (s *Store) OnMessageUpdated(sessionID string, message chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok := s.messages[sessionID]
	if !ok {
		return
	}

	replaced := false
	for i := range seq {
		if seq[i].Info.ID == message.Info.ID {
			seq[i] = message
			replaced = true
			break
		}
	}
	if !replaced {
		seq = append(seq, message)
		s.messages[sessionID] = seq
	}

	if message.IsAssistant() {
		s.typing = false
	}
}

// OnMessagePartDelta appends streamed text to an existing text part. Deltas
// for unknown sessions, messages or parts are dropped; non-text parts
// ignore deltas.
func (s *Store) OnMessagePartDelta(sessionID, messageID, partID, delta string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok := s.messages[sessionID]
	if !ok {
		return
	}

	for i := range seq {
		if seq[i].Info.ID != messageID {
			continue
		}
		part, found := seq[i].FindPart(partID)
		if !found {
			return
		}
		if text, isText := part.(*chat.TextPart); isText {
			text.Text += delta
		}
		return
	}
}

// OnMessagePartUpdated replaces a whole part, or appends it when the part
// is new mid-stream. The owning message is located via the part's own
// messageID; unknown owners drop the event.
func (s *Store) OnMessagePartUpdated(sessionID string, part chat.Part) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok := s.messages[sessionID]
	if !ok {
		return
	}

	for i := range seq {
		if seq[i].Info.ID != part.OwnerMessageID() {
			continue
		}
		for j := range seq[i].Parts {
			if seq[i].Parts[j].PartID() == part.PartID() {
				seq[i].Parts[j] = part
				return
			}
		}
		seq[i].Parts = append(seq[i].Parts, part)
		return
	}
}

// OnSessionStatus updates a listed session's status in place; unknown
// session ids are ignored.
func (s *Store) OnSessionStatus(sessionID string, status chat.SessionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			s.sessions[i].Status = &status
			return
		}
	}
}
