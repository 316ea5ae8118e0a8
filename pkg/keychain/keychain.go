// Package keychain stores the server credential in the platform's secure
// storage. Platforms without a usable secret service fall back to the Noop
// implementation, which reports no credential rather than failing.
package keychain

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Keychain is the secure credential storage collaborator.
type Keychain interface {
	Set(secret string) error
	Get() (string, error)
	Delete() error
}

const service = "satchel"

// System stores the credential via the OS secret service.
type System struct {
	account string
}

// NewSystem returns a Keychain backed by the OS secret service, scoped to
// the given account name.
func NewSystem(account string) *System {
	return &System{account: account}
}

func (s *System) Set(secret string) error {
	if err := keyring.Set(service, s.account, secret); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Get returns the stored credential, or empty with no error when none is set.
func (s *System) Get() (string, error) {
	secret, err := keyring.Get(service, s.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read credential: %w", err)
	}
	return secret, nil
}

func (s *System) Delete() error {
	if err := keyring.Delete(service, s.account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// Noop is the platform gate for environments without secure storage. All
// operations succeed and Get reports no credential.
type Noop struct{}

func (Noop) Set(string) error { return nil }
func (Noop) Get() (string, error) { return "", nil }
func (Noop) Delete() error { return nil }

// InMemory keeps the credential in process memory. Used in tests and as a
// session-lifetime fallback.
type InMemory struct {
	secret string
	set    bool
}

func (m *InMemory) Set(secret string) error {
	m.secret = secret
	m.set = true
	return nil
}

func (m *InMemory) Get() (string, error) {
	if !m.set {
		return "", nil
	}
	return m.secret, nil
}

func (m *InMemory) Delete() error {
	m.secret = ""
	m.set = false
	return nil
}
