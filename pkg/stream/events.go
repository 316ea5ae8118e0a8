package stream

import (
	"encoding/json"

	"github.com/satchelhq/satchel/pkg/chat"
	"github.com/satchelhq/satchel/pkg/logger"
)

// The server uses two transport styles for the same logical events: named
// SSE channels carrying the bare payload, and a default channel carrying a
// discriminated envelope. Both are accepted. A bad frame must never tear
// down the stream, so every parse failure drops the frame with at most a
// debug log.

type envelope struct {
	Type       string          `json:"type"`
	Properties json.RawMessage `json:"properties"`
}

type messagePayload struct {
	SessionID string             `json:"sessionID"`
	Message   chat.ServerMessage `json:"message"`
}

type partDeltaPayload struct {
	SessionID string `json:"sessionID"`
	MessageID string `json:"messageID"`
	PartID    string `json:"partID"`
	Delta     string `json:"delta"`
}

type partUpdatedPayload struct {
	Part json.RawMessage `json:"part"`
}

type sessionStatusPayload struct {
	SessionID string             `json:"sessionID"`
	Status    chat.SessionStatus `json:"status"`
}

func (m *Manager) handleFrame(event string, data []byte) {
	if len(data) == 0 {
		return
	}

	switch event {
	case "":
		m.handleEnvelope(data)
	case "message.created":
		var payload messagePayload
		if err := json.Unmarshal(data, &payload); err != nil {
			logger.Debug("Dropping malformed message.created frame: %v", err)
			return
		}
		m.dispatcher.OnMessageCreated(payload.SessionID, payload.Message.ToMessage(payload.SessionID))
	case "message.updated":
		var payload messagePayload
		if err := json.Unmarshal(data, &payload); err != nil {
			logger.Debug("Dropping malformed message.updated frame: %v", err)
			return
		}
		m.dispatcher.OnMessageUpdated(payload.SessionID, payload.Message.ToMessage(payload.SessionID))
	case "message.part.delta":
		m.handlePartDelta(data)
	case "message.part.updated":
		m.handlePartUpdated(data)
	case "session.status":
		m.handleSessionStatus(data)
	case "error":
		// Registered but inert: the SSE client reconnects on its own, and
		// stream-level errors are not a connectivity signal.
	default:
		logger.Debug("Ignoring unrecognized stream channel %q", event)
	}
}

// handleEnvelope dispatches a default-channel frame by its type
// discriminator.
func (m *Manager) handleEnvelope(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		logger.Debug("Dropping malformed event envelope: %v", err)
		return
	}

	switch env.Type {
	case "server.connected", "server.heartbeat":
		// Keepalives; no state change.
	case "message.created", "message.updated":
		var payload messagePayload
		if err := json.Unmarshal(env.Properties, &payload); err != nil {
			logger.Debug("Dropping malformed %s envelope: %v", env.Type, err)
			return
		}
		message := payload.Message.ToMessage(payload.SessionID)
		if env.Type == "message.created" {
			m.dispatcher.OnMessageCreated(payload.SessionID, message)
		} else {
			m.dispatcher.OnMessageUpdated(payload.SessionID, message)
		}
	case "message.part.delta":
		m.handlePartDelta(env.Properties)
	case "message.part.updated":
		m.handlePartUpdated(env.Properties)
	case "session.status":
		m.handleSessionStatus(env.Properties)
	default:
		logger.Debug("Ignoring unrecognized event type %q", env.Type)
	}
}

func (m *Manager) handlePartDelta(data []byte) {
	var payload partDeltaPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		logger.Debug("Dropping malformed part delta: %v", err)
		return
	}
	m.dispatcher.OnMessagePartDelta(payload.SessionID, payload.MessageID, payload.PartID, payload.Delta)
}

func (m *Manager) handlePartUpdated(data []byte) {
	var payload partUpdatedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		logger.Debug("Dropping malformed part update: %v", err)
		return
	}
	part, err := chat.DecodePart(payload.Part)
	if err != nil {
		logger.Debug("Dropping part update: %v", err)
		return
	}
	m.dispatcher.OnMessagePartUpdated(part.OwnerSessionID(), part)
}

func (m *Manager) handleSessionStatus(data []byte) {
	var payload sessionStatusPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		logger.Debug("Dropping malformed session status: %v", err)
		return
	}
	m.dispatcher.OnSessionStatus(payload.SessionID, payload.Status)
}
