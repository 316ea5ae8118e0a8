// Package stream binds the lifecycle of the server's push-event stream to
// the connectivity status: the stream is open exactly while the app is
// connected, and inbound frames are parsed and dispatched to the session
// store.
package stream

import (
	"context"
	"errors"
	"sync"

	"github.com/satchelhq/satchel/pkg/api"
	"github.com/satchelhq/satchel/pkg/chat"
	"github.com/satchelhq/satchel/pkg/connection"
	"github.com/satchelhq/satchel/pkg/logger"
)

// Dispatcher is the event surface of the session store.
type Dispatcher interface {
	OnMessageCreated(sessionID string, message chat.Message)
	OnMessageUpdated(sessionID string, message chat.Message)
	OnMessagePartDelta(sessionID, messageID, partID, delta string)
	OnMessagePartUpdated(sessionID string, part chat.Part)
	OnSessionStatus(sessionID string, status chat.SessionStatus)
}

// Opener opens the push stream. *api.Client satisfies it.
type Opener interface {
	Events(ctx context.Context, handler api.FrameHandler) error
}

// Manager owns at most one open push stream at a time.
type Manager struct {
	mu         sync.Mutex
	opener     Opener
	dispatcher Dispatcher
	cancel     context.CancelFunc
	closed     bool
}

func NewManager(opener Opener, dispatcher Dispatcher) *Manager {
	return &Manager{
		opener:     opener,
		dispatcher: dispatcher,
	}
}

// Bind ties the stream lifecycle to the connection manager's status: the
// stream opens on entry into connected and tears down on exit to any other
// state.
func (m *Manager) Bind(conn *connection.Manager) {
	conn.Notify(func(status connection.Status) {
		if status == connection.StatusConnected {
			m.open()
		} else {
			m.teardown()
		}
	})
}

// open starts the stream unless one is already running or the manager has
// been closed. The subscribe call inherits a cancelable context, so a
// teardown that lands before the open completes still closes the stream as
// soon as it resolves.
func (m *Manager) open() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	go func() {
		err := m.opener.Events(ctx, m.handleFrame)
		if err != nil && !errors.Is(err, context.Canceled) {
			// Stream failures are not escalated to connectivity state; the
			// health check observes the server independently.
			logger.Warn("Event stream ended: %v", err)
		}
	}()
}

// teardown closes the currently-open stream, if any. Safe to call when no
// stream is open.
func (m *Manager) teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Close tears down the stream and prevents any future open.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.teardown()
}
