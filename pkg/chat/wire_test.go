package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerSessionToSession(t *testing.T) {
	status := SessionStatus{Status: SessionActive}
	s := ServerSession{
		ID:        "ses_1",
		Title:     "Fix the build",
		Slug:      "quiet-river",
		Directory: "/src/app",
		Time:      serverTime{Created: 100, Updated: 200},
		Status:    &status,
	}

	session := s.ToSession()
	assert.Equal(t, "Fix the build", session.Title)
	assert.Equal(t, int64(100), session.CreatedAt)
	assert.Equal(t, int64(200), session.UpdatedAt)
	require.NotNil(t, session.Status)
	assert.Equal(t, SessionActive, session.Status.Status)
}

func TestServerSessionSlugFallback(t *testing.T) {
	s := ServerSession{ID: "ses_1", Slug: "quiet-river"}
	assert.Equal(t, "quiet-river", s.ToSession().Title)
}

func TestServerProjectNameFromWorktree(t *testing.T) {
	tests := []struct {
		worktree string
		want     string
	}{
		{"/home/dev/src/satchel", "satchel"},
		{"/home/dev/src/satchel/", "satchel"},
		{`C:\dev\satchel`, "satchel"},
		{"", "prj_1"},
	}

	for _, tt := range tests {
		p := ServerProject{ID: "prj_1", Worktree: tt.worktree}
		assert.Equal(t, tt.want, p.ToProject().Name, "worktree %q", tt.worktree)
	}
}

func TestServerMessageTimeFallbacks(t *testing.T) {
	t.Run("prefers nested time over flattened createdAt", func(t *testing.T) {
		var m ServerMessage
		data := `{"info": {"id": "msg_1", "role": "user", "createdAt": 50, "time": {"created": 100}}}`
		require.NoError(t, json.Unmarshal([]byte(data), &m))
		assert.Equal(t, int64(100), m.ToMessage("ses_1").Info.CreatedAt)
	})

	t.Run("uses flattened createdAt when time is absent", func(t *testing.T) {
		var m ServerMessage
		data := `{"info": {"id": "msg_1", "role": "user", "createdAt": 50}}`
		require.NoError(t, json.Unmarshal([]byte(data), &m))
		assert.Equal(t, int64(50), m.ToMessage("ses_1").Info.CreatedAt)
	})

	t.Run("falls back to the current time when both are missing", func(t *testing.T) {
		var m ServerMessage
		data := `{"info": {"id": "msg_1", "role": "user"}}`
		require.NoError(t, json.Unmarshal([]byte(data), &m))

		before := time.Now().UnixMilli()
		createdAt := m.ToMessage("ses_1").Info.CreatedAt
		assert.GreaterOrEqual(t, createdAt, before)
	})
}

func TestServerMessageSessionIDFromParts(t *testing.T) {
	var m ServerMessage
	data := `{
		"info": {"id": "msg_1", "role": "assistant"},
		"parts": [{"type": "text", "id": "prt_1", "sessionID": "ses_7", "messageID": "msg_1", "text": "hi"}]
	}`
	require.NoError(t, json.Unmarshal([]byte(data), &m))

	assert.Equal(t, "ses_7", m.ToMessage("").Info.SessionID)
	assert.Equal(t, "ses_1", m.ToMessage("ses_1").Info.SessionID)
}
