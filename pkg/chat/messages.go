package chat

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TempIDPrefix marks client-minted optimistic message ids. Server ids never
// carry it.
const TempIDPrefix = "temp-"

// MessageError carries a server-reported failure for a message.
type MessageError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// MessageInfo identifies one conversation turn.
type MessageInfo struct {
	ID         string        `json:"id"`
	SessionID  string        `json:"sessionID"`
	Role       string        `json:"role"`
	CreatedAt  int64         `json:"createdAt"`
	ProviderID string        `json:"providerID,omitempty"`
	ModelID    string        `json:"modelID,omitempty"`
	Error      *MessageError `json:"error,omitempty"`
}

// Message is one turn in a session, composed of typed parts. Parts are
// mutated in place as streaming updates arrive.
type Message struct {
	Info  MessageInfo `json:"info"`
	Parts []Part      `json:"parts"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Info  MessageInfo       `json:"info"`
		Parts []json.RawMessage `json:"parts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Info = raw.Info
	m.Parts = make([]Part, 0, len(raw.Parts))
	for _, rawPart := range raw.Parts {
		part, err := DecodePart(rawPart)
		if err != nil {
			// Unknown or malformed parts are dropped, not fatal
			continue
		}
		m.Parts = append(m.Parts, part)
	}
	return nil
}

func (m Message) IsUser() bool {
	return m.Info.Role == RoleUser
}

func (m Message) IsAssistant() bool {
	return m.Info.Role == RoleAssistant
}

// IsOptimistic reports whether the message is a client-minted placeholder
// awaiting server confirmation.
func (m Message) IsOptimistic() bool {
	return strings.HasPrefix(m.Info.ID, TempIDPrefix)
}

// TextContent returns the concatenated text of all text parts.
func (m Message) TextContent() string {
	var b strings.Builder
	for _, part := range m.Parts {
		if text, ok := part.(*TextPart); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String()
}

// Clone returns a deep copy whose parts are detached from the original.
// Snapshots handed to other goroutines use this; the originals keep being
// mutated in place as streaming updates arrive.
func (m Message) Clone() Message {
	if m.Parts == nil {
		return m
	}
	parts := make([]Part, len(m.Parts))
	for i, part := range m.Parts {
		parts[i] = part.Clone()
	}
	m.Parts = parts
	return m
}

// FindPart returns the part with the given id, if present.
func (m *Message) FindPart(partID string) (Part, bool) {
	for _, part := range m.Parts {
		if part.PartID() == partID {
			return part, true
		}
	}
	return nil, false
}

// NewOptimisticMessage builds the placeholder user message shown before the
// server confirms receipt of a send.
func NewOptimisticMessage(sessionID, content string) Message {
	messageID := TempIDPrefix + uuid.NewString()
	return Message{
		Info: MessageInfo{
			ID:        messageID,
			SessionID: sessionID,
			Role:      RoleUser,
			CreatedAt: time.Now().UnixMilli(),
		},
		Parts: []Part{
			&TextPart{
				PartBase: PartBase{
					ID:        "part-" + uuid.NewString(),
					SessionID: sessionID,
					MessageID: messageID,
				},
				Text: content,
			},
		},
	}
}
