package chat

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageUnmarshalDropsUnknownParts(t *testing.T) {
	data := `{
		"info": {"id": "msg_1", "sessionID": "ses_1", "role": "assistant", "createdAt": 100},
		"parts": [
			{"type": "text", "id": "prt_1", "sessionID": "ses_1", "messageID": "msg_1", "text": "hi "},
			{"type": "mystery", "id": "prt_2"},
			{"type": "text", "id": "prt_3", "sessionID": "ses_1", "messageID": "msg_1", "text": "there"}
		]
	}`

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(data), &msg))

	assert.Equal(t, "msg_1", msg.Info.ID)
	assert.Len(t, msg.Parts, 2)
	assert.Equal(t, "hi there", msg.TextContent())
}

func TestTextContentSkipsNonTextParts(t *testing.T) {
	msg := Message{
		Parts: []Part{
			&TextPart{PartBase: PartBase{ID: "prt_1"}, Text: "answer"},
			&ReasoningPart{PartBase: PartBase{ID: "prt_2"}, Text: "hidden"},
			&ToolPart{PartBase: PartBase{ID: "prt_3"}, Tool: "bash"},
		},
	}
	assert.Equal(t, "answer", msg.TextContent())
}

func TestFindPart(t *testing.T) {
	msg := Message{
		Parts: []Part{
			&TextPart{PartBase: PartBase{ID: "prt_1"}, Text: "a"},
			&ToolPart{PartBase: PartBase{ID: "prt_2"}},
		},
	}

	part, ok := msg.FindPart("prt_2")
	require.True(t, ok)
	assert.IsType(t, &ToolPart{}, part)

	_, ok = msg.FindPart("prt_9")
	assert.False(t, ok)
}

func TestNewOptimisticMessage(t *testing.T) {
	msg := NewOptimisticMessage("ses_1", "run the tests")

	assert.True(t, msg.IsOptimistic())
	assert.True(t, msg.IsUser())
	assert.True(t, strings.HasPrefix(msg.Info.ID, TempIDPrefix))
	assert.Equal(t, "ses_1", msg.Info.SessionID)
	assert.NotZero(t, msg.Info.CreatedAt)
	assert.Equal(t, "run the tests", msg.TextContent())

	require.Len(t, msg.Parts, 1)
	assert.Equal(t, msg.Info.ID, msg.Parts[0].OwnerMessageID())
	assert.Equal(t, "ses_1", msg.Parts[0].OwnerSessionID())
}

func TestCloneDetachesParts(t *testing.T) {
	original := Message{
		Info: MessageInfo{ID: "msg_1", Role: RoleAssistant},
		Parts: []Part{
			&TextPart{PartBase: PartBase{ID: "prt_1"}, Text: "hel"},
			&ToolPart{
				PartBase: PartBase{ID: "prt_2"},
				Tool:     "bash",
				State:    ToolState{Status: ToolRunning, Input: map[string]any{"command": "ls"}},
			},
			&PatchPart{PartBase: PartBase{ID: "prt_3"}, Files: []string{"main.go"}},
		},
	}

	clone := original.Clone()
	require.Equal(t, original, clone)

	original.Parts[0].(*TextPart).Text += "lo"
	original.Parts[1].(*ToolPart).State.Input["command"] = "rm"
	original.Parts[2].(*PatchPart).Files[0] = "go.mod"

	assert.Equal(t, "hel", clone.Parts[0].(*TextPart).Text)
	assert.Equal(t, "ls", clone.Parts[1].(*ToolPart).State.Input["command"])
	assert.Equal(t, []string{"main.go"}, clone.Parts[2].(*PatchPart).Files)
}

func TestNewOptimisticMessageMintsDistinctIDs(t *testing.T) {
	a := NewOptimisticMessage("ses_1", "x")
	b := NewOptimisticMessage("ses_1", "x")
	assert.NotEqual(t, a.Info.ID, b.Info.ID)
}
