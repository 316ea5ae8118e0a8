package chat

import (
	"encoding/json"
	"fmt"
)

// Part type discriminators as they appear on the wire.
const (
	PartTypeText      = "text"
	PartTypeTool      = "tool"
	PartTypePatch     = "patch"
	PartTypeReasoning = "reasoning"
)

// Part is a typed fragment of a message. The concrete variants are TextPart,
// ToolPart, PatchPart and ReasoningPart; dispatch sites type-switch over
// pointers to those. Parts are mutated in place by their owning store, so
// anything handed across a goroutine boundary goes through Clone.
type Part interface {
	PartID() string
	OwnerSessionID() string
	OwnerMessageID() string
	Clone() Part
	isPart()
}

// PartBase carries the identity fields shared by every part variant.
type PartBase struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionID"`
	MessageID string `json:"messageID"`
}

func (b PartBase) PartID() string         { return b.ID }
func (b PartBase) OwnerSessionID() string { return b.SessionID }
func (b PartBase) OwnerMessageID() string { return b.MessageID }

// TextPart is plain assistant or user text, extended incrementally by
// streaming deltas.
type TextPart struct {
	PartBase
	Text string `json:"text"`
}

func (*TextPart) isPart() {}

func (p *TextPart) Clone() Part {
	c := *p
	return &c
}

func (p *TextPart) MarshalJSON() ([]byte, error) {
	type alias TextPart
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{PartTypeText, (*alias)(p)})
}

// ToolStatus values for ToolState.Status.
const (
	ToolPending   = "pending"
	ToolRunning   = "running"
	ToolCompleted = "completed"
	ToolError     = "error"
)

// ToolTime records when a tool invocation started and finished.
type ToolTime struct {
	Start int64 `json:"start"`
	End   int64 `json:"end,omitempty"`
}

// ToolState is the tool invocation state machine:
// pending -> running -> completed | error.
type ToolState struct {
	Status string         `json:"status"`
	Input  map[string]any `json:"input,omitempty"`
	Raw    string         `json:"raw,omitempty"`
	Output string         `json:"output,omitempty"`
	Error  string         `json:"error,omitempty"`
	Time   *ToolTime      `json:"time,omitempty"`
}

// ToolPart is one tool invocation within an assistant turn.
type ToolPart struct {
	PartBase
	CallID string    `json:"callID"`
	Tool   string    `json:"tool"`
	State  ToolState `json:"state"`
}

func (*ToolPart) isPart() {}

func (p *ToolPart) Clone() Part {
	c := *p
	if p.State.Input != nil {
		c.State.Input = make(map[string]any, len(p.State.Input))
		for k, v := range p.State.Input {
			c.State.Input[k] = v
		}
	}
	if p.State.Time != nil {
		t := *p.State.Time
		c.State.Time = &t
	}
	return &c
}

func (p *ToolPart) MarshalJSON() ([]byte, error) {
	type alias ToolPart
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{PartTypeTool, (*alias)(p)})
}

// PatchPart describes a file patch produced by the assistant.
type PatchPart struct {
	PartBase
	Hash  string   `json:"hash"`
	Files []string `json:"files"`
}

func (*PatchPart) isPart() {}

func (p *PatchPart) Clone() Part {
	c := *p
	if p.Files != nil {
		c.Files = append([]string(nil), p.Files...)
	}
	return &c
}

func (p *PatchPart) MarshalJSON() ([]byte, error) {
	type alias PatchPart
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{PartTypePatch, (*alias)(p)})
}

// ReasoningPart is a reasoning trace emitted before the visible answer.
type ReasoningPart struct {
	PartBase
	Text string `json:"text"`
}

func (*ReasoningPart) isPart() {}

func (p *ReasoningPart) Clone() Part {
	c := *p
	return &c
}

func (p *ReasoningPart) MarshalJSON() ([]byte, error) {
	type alias ReasoningPart
	return json.Marshal(struct {
		Type string `json:"type"`
		*alias
	}{PartTypeReasoning, (*alias)(p)})
}

// DecodePart decodes a wire part by its type discriminator.
func DecodePart(data []byte) (Part, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to decode part header: %w", err)
	}

	switch head.Type {
	case PartTypeText:
		var p TextPart
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode text part: %w", err)
		}
		return &p, nil
	case PartTypeTool:
		var p ToolPart
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode tool part: %w", err)
		}
		return &p, nil
	case PartTypePatch:
		var p PatchPart
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode patch part: %w", err)
		}
		return &p, nil
	case PartTypeReasoning:
		var p ReasoningPart
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to decode reasoning part: %w", err)
		}
		return &p, nil
	default:
		return nil, fmt.Errorf("unknown part type %q", head.Type)
	}
}
