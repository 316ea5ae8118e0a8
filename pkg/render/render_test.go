package render

import (
	"testing"

	"github.com/satchelhq/satchel/pkg/chat"
	"github.com/stretchr/testify/assert"
)

func newTestFormatter() *Formatter {
	return NewFormatter(80)
}

func TestFormatMessageUser(t *testing.T) {
	f := newTestFormatter()
	msg := chat.Message{
		Info: chat.MessageInfo{ID: "msg_1", Role: chat.RoleUser},
		Parts: []chat.Part{
			&chat.TextPart{PartBase: chat.PartBase{ID: "prt_1"}, Text: "run the tests"},
		},
	}

	out := f.FormatMessage(msg)
	assert.Contains(t, out, "you")
	assert.Contains(t, out, "run the tests")
	assert.NotContains(t, out, "(sending...)")
}

func TestFormatMessageMarksOptimisticSends(t *testing.T) {
	f := newTestFormatter()
	msg := chat.NewOptimisticMessage("ses_1", "hello")
	assert.Contains(t, f.FormatMessage(msg), "(sending...)")
}

func TestFormatMessageAssistantWithModel(t *testing.T) {
	f := newTestFormatter()
	msg := chat.Message{
		Info: chat.MessageInfo{ID: "msg_1", Role: chat.RoleAssistant, ModelID: "claude-sonnet-4"},
	}
	assert.Contains(t, f.FormatMessage(msg), "assistant (claude-sonnet-4)")
}

func TestFormatMessageIncludesServerError(t *testing.T) {
	f := newTestFormatter()
	msg := chat.Message{
		Info: chat.MessageInfo{
			ID:    "msg_1",
			Role:  chat.RoleAssistant,
			Error: &chat.MessageError{Name: "AbortedError", Message: "interrupted"},
		},
	}

	out := f.FormatMessage(msg)
	assert.Contains(t, out, "AbortedError")
	assert.Contains(t, out, "interrupted")
}

func TestFormatToolStates(t *testing.T) {
	f := newTestFormatter()

	running := chat.Message{
		Info: chat.MessageInfo{Role: chat.RoleAssistant},
		Parts: []chat.Part{&chat.ToolPart{
			PartBase: chat.PartBase{ID: "prt_1"},
			Tool:     "bash",
			State:    chat.ToolState{Status: chat.ToolRunning},
		}},
	}
	assert.Contains(t, f.FormatMessage(running), "bash (running)")

	failed := chat.Message{
		Info: chat.MessageInfo{Role: chat.RoleAssistant},
		Parts: []chat.Part{&chat.ToolPart{
			PartBase: chat.PartBase{ID: "prt_1"},
			Tool:     "edit",
			State:    chat.ToolState{Status: chat.ToolError, Error: "file not found"},
		}},
	}
	assert.Contains(t, f.FormatMessage(failed), "file not found")
}

func TestFormatPatchShortensHash(t *testing.T) {
	f := newTestFormatter()
	msg := chat.Message{
		Info: chat.MessageInfo{Role: chat.RoleAssistant},
		Parts: []chat.Part{&chat.PatchPart{
			PartBase: chat.PartBase{ID: "prt_1"},
			Hash:     "deadbeefcafebabe",
			Files:    []string{"main.go", "go.mod"},
		}},
	}

	out := f.FormatMessage(msg)
	assert.Contains(t, out, "patch deadbeef")
	assert.NotContains(t, out, "deadbeefcafebabe")
	assert.Contains(t, out, "main.go")
}

func TestFormatSessionLineFallsBackToID(t *testing.T) {
	f := newTestFormatter()
	line := f.FormatSessionLine(chat.Session{ID: "ses_1"})
	assert.Contains(t, line, "ses_1")
}

func TestFormatCodeBlockEmpty(t *testing.T) {
	f := newTestFormatter()
	assert.Empty(t, f.FormatCodeBlock("", "go"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 2))
}
