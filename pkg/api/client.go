package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrNoServerURL is returned before any network attempt when the client has
// no base URL configured.
var ErrNoServerURL = errors.New("server URL not configured")

// Error is a non-2xx server response, carrying the status code and the
// response body text.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Body)
}

// CredentialSource supplies the secret half of the Basic-auth pair.
// keychain.Keychain satisfies it.
type CredentialSource interface {
	Get() (string, error)
}

// Client issues authenticated request/response calls against the
// coding-assistant server and opens its push event stream.
type Client struct {
	mu          sync.RWMutex
	baseURL     string
	username    string
	credentials CredentialSource
	httpClient  *http.Client
}

func NewClient(baseURL, username string, credentials CredentialSource) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		username:    username,
		credentials: credentials,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetTarget repoints the client at a different server. Used when the
// connection settings change at runtime.
func (c *Client) SetTarget(baseURL, username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.username = username
}

func (c *Client) target() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL, c.username
}

func (c *Client) authHeader() (string, error) {
	_, username := c.target()
	secret := ""
	if c.credentials != nil {
		var err error
		secret, err = c.credentials.Get()
		if err != nil {
			return "", fmt.Errorf("failed to read credential: %w", err)
		}
	}
	token := base64.StdEncoding.EncodeToString([]byte(username + ":" + secret))
	return "Basic " + token, nil
}

// do performs one authenticated JSON call. A nil out skips body decoding;
// HTTP 204 always leaves out at its zero value.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	baseURL, _ := c.target()
	if baseURL == "" {
		return ErrNoServerURL
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	auth, err := c.authHeader()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		return &Error{Status: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
