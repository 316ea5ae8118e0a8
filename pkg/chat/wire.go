package chat

import (
	"encoding/json"
	"strings"
	"time"
)

// Wire shapes as the server sends them. The server's session and message
// formats differ from the domain model in a few places (nested time object,
// slug fallback for untitled sessions, worktree paths for projects), so the
// transport layer decodes these and maps them through To* before anything
// else sees them.

type serverTime struct {
	Created int64 `json:"created"`
	Updated int64 `json:"updated"`
}

// ServerSession is the wire shape of a session.
type ServerSession struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Slug      string         `json:"slug"`
	Directory string         `json:"directory"`
	Time      serverTime     `json:"time"`
	Status    *SessionStatus `json:"status"`
}

// ToSession maps the wire shape into the domain model. Untitled sessions
// fall back to the server-generated slug.
func (s ServerSession) ToSession() Session {
	title := s.Title
	if title == "" {
		title = s.Slug
	}
	return Session{
		ID:        s.ID,
		Title:     title,
		Directory: s.Directory,
		CreatedAt: s.Time.Created,
		UpdatedAt: s.Time.Updated,
		Status:    s.Status,
	}
}

// ServerProject is the wire shape of a project.
type ServerProject struct {
	ID       string `json:"id"`
	Worktree string `json:"worktree"`
}

// ToProject derives the display name from the last segment of the worktree
// path, tolerating both separator styles.
func (p ServerProject) ToProject() Project {
	segments := strings.FieldsFunc(p.Worktree, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	name := p.ID
	if len(segments) > 0 {
		name = segments[len(segments)-1]
	}
	return Project{
		ID:        p.ID,
		Name:      name,
		Directory: p.Worktree,
	}
}

// ServerMessageInfo tolerates both the flattened createdAt and the nested
// time.created representations the server has used.
type ServerMessageInfo struct {
	ID         string        `json:"id"`
	Role       string        `json:"role"`
	CreatedAt  int64         `json:"createdAt"`
	Time       *serverTime   `json:"time"`
	ProviderID string        `json:"providerID"`
	ModelID    string        `json:"modelID"`
	Error      *MessageError `json:"error"`
}

// ServerMessage is the wire shape of a message with its parts.
type ServerMessage struct {
	Info  ServerMessageInfo `json:"info"`
	Parts []json.RawMessage `json:"parts"`
}

// ToMessage maps the wire shape into the domain model. The session id is
// taken from the caller when known, else from the first part. Unknown part
// types are dropped.
func (m ServerMessage) ToMessage(sessionID string) Message {
	parts := make([]Part, 0, len(m.Parts))
	for _, rawPart := range m.Parts {
		part, err := DecodePart(rawPart)
		if err != nil {
			continue
		}
		parts = append(parts, part)
	}

	if sessionID == "" {
		for _, part := range parts {
			if id := part.OwnerSessionID(); id != "" {
				sessionID = id
				break
			}
		}
	}

	createdAt := m.Info.CreatedAt
	if m.Info.Time != nil && m.Info.Time.Created != 0 {
		createdAt = m.Info.Time.Created
	}
	if createdAt == 0 {
		createdAt = time.Now().UnixMilli()
	}

	return Message{
		Info: MessageInfo{
			ID:         m.Info.ID,
			SessionID:  sessionID,
			Role:       m.Info.Role,
			CreatedAt:  createdAt,
			ProviderID: m.Info.ProviderID,
			ModelID:    m.Info.ModelID,
			Error:      m.Info.Error,
		},
		Parts: parts,
	}
}
