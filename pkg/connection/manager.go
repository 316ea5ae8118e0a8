// Package connection owns the connectivity state of the app: one status
// value, the health check that drives it, and the exponential-backoff
// reconnect schedule.
package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/satchelhq/satchel/pkg/api"
	"github.com/satchelhq/satchel/pkg/config"
	"github.com/satchelhq/satchel/pkg/keychain"
	"github.com/satchelhq/satchel/pkg/logger"
)

// Status is the connectivity state of the app. Exactly one instance exists,
// owned by the Manager.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

const maxReconnectDelay = 30 * time.Second

// Manager owns the connection settings, the connectivity status and the
// reconnect schedule. All other components observe status through Notify.
type Manager struct {
	mu        sync.Mutex
	url       string
	username  string
	status    Status
	lastError string
	attempts  int
	timer     *time.Timer
	watchers  []func(Status)

	client   *api.Client
	keychain keychain.Keychain
}

func NewManager(client *api.Client, kc keychain.Keychain, url, username string) *Manager {
	return &Manager{
		url:      url,
		username: username,
		status:   StatusDisconnected,
		client:   client,
		keychain: kc,
	}
}

// Configure updates the server settings and persists them. It never attempts
// a connection on its own.
func (m *Manager) Configure(url, username string) error {
	m.mu.Lock()
	m.url = url
	m.username = username
	m.mu.Unlock()

	m.client.SetTarget(url, username)

	config.SetServer(url, username)
	if err := config.Save(); err != nil {
		return fmt.Errorf("failed to persist connection settings: %w", err)
	}
	return nil
}

// SetCredential stores the server secret in the keychain collaborator.
func (m *Manager) SetCredential(secret string) error {
	return m.keychain.Set(secret)
}

// Credential returns the stored secret, empty when none is set or the
// platform has no secure storage.
func (m *Manager) Credential() (string, error) {
	return m.keychain.Get()
}

// TestConnection performs one health check and moves the status to
// connected or error accordingly. It reports success and never returns an
// error; failures are normalized into the error status message.
func (m *Manager) TestConnection(ctx context.Context) bool {
	m.setStatus(StatusConnecting, "")

	if err := m.client.CheckHealth(ctx); err != nil {
		message := normalizeError(err)
		logger.Warn("Health check failed: %s", message)
		m.setStatus(StatusError, message)
		return false
	}

	m.mu.Lock()
	m.attempts = 0
	m.mu.Unlock()

	m.setStatus(StatusConnected, "")
	return true
}

// AutoReconnect schedules exactly one future health check, doubling the
// delay on each call: min(1s * 2^attempts, 30s). A no-op while a connection
// attempt is already in flight. Callers re-invoke it on each failure signal;
// any pending timer is canceled before the new one is armed.
func (m *Manager) AutoReconnect() {
	m.mu.Lock()
	if m.status == StatusConnecting {
		m.mu.Unlock()
		return
	}

	delay := backoffDelay(m.attempts)
	m.attempts++

	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(delay, func() {
		m.TestConnection(context.Background())
	})
	m.mu.Unlock()

	logger.Debug("Scheduled reconnect attempt in %s", delay)
}

// Disconnect resets the reconnect schedule and forces the status back to
// disconnected. Idempotent.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.attempts = 0
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()

	m.setStatus(StatusDisconnected, "")
}

// Notify registers a status-change callback. Callbacks run outside the
// manager's lock, in registration order.
func (m *Manager) Notify(fn func(Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers = append(m.watchers, fn)
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

func (m *Manager) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url
}

func (m *Manager) Username() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.username
}

func (m *Manager) setStatus(status Status, errMessage string) {
	m.mu.Lock()
	m.status = status
	m.lastError = errMessage
	watchers := make([]func(Status), len(m.watchers))
	copy(watchers, m.watchers)
	m.mu.Unlock()

	for _, fn := range watchers {
		fn(status)
	}
}

func backoffDelay(attempts int) time.Duration {
	// 2^attempts overflows quickly; anything past the cap is clamped anyway
	if attempts > 5 {
		return maxReconnectDelay
	}
	delay := time.Duration(1000<<attempts) * time.Millisecond
	if delay > maxReconnectDelay {
		delay = maxReconnectDelay
	}
	return delay
}

// normalizeError turns any health-check failure into the human-readable
// message stored on the error status.
func normalizeError(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("Server returned %d: %s", apiErr.Status, apiErr.Body)
	}
	return err.Error()
}
