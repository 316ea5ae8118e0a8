package chat

// Session states reported by the server.
const (
	SessionActive    = "active"
	SessionIdle      = "idle"
	SessionCompleted = "completed"
	SessionErrored   = "error"
)

// SessionStatus is the server-reported activity state of a session.
type SessionStatus struct {
	Status string `json:"status"`
}

// Session is a server-owned conversation thread scoped to a project
// directory. Identity is the server-assigned id.
type Session struct {
	ID        string         `json:"id"`
	Title     string         `json:"title,omitempty"`
	Directory string         `json:"directory"`
	CreatedAt int64          `json:"createdAt"`
	UpdatedAt int64          `json:"updatedAt"`
	Status    *SessionStatus `json:"status,omitempty"`
}

// Project is a server-side working tree sessions are scoped to.
type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Directory string `json:"directory"`
}
