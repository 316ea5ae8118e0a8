package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/satchelhq/satchel/pkg/chat"
)

// SessionQuery filters the session list. Zero values are omitted from the
// request.
type SessionQuery struct {
	Limit     int
	Directory string
}

// Model selects the provider/model pair for a prompt.
type Model struct {
	ProviderID string `json:"providerID"`
	ModelID    string `json:"modelID"`
}

func (c *Client) GetSessions(ctx context.Context, query SessionQuery) ([]chat.Session, error) {
	params := url.Values{}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Directory != "" {
		params.Set("directory", query.Directory)
	}

	path := "/session"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var serverSessions []chat.ServerSession
	if err := c.do(ctx, "GET", path, nil, &serverSessions); err != nil {
		return nil, err
	}

	sessions := make([]chat.Session, len(serverSessions))
	for i, s := range serverSessions {
		sessions[i] = s.ToSession()
	}
	return sessions, nil
}

func (c *Client) GetSession(ctx context.Context, id string) (chat.Session, error) {
	var serverSession chat.ServerSession
	if err := c.do(ctx, "GET", "/session/"+id, nil, &serverSession); err != nil {
		return chat.Session{}, err
	}
	return serverSession.ToSession(), nil
}

// CreateSession creates a new session. Empty title and directory are omitted
// from the request body.
func (c *Client) CreateSession(ctx context.Context, title, directory string) (chat.Session, error) {
	body := map[string]string{}
	if title != "" {
		body["title"] = title
	}
	if directory != "" {
		body["directory"] = directory
	}

	var serverSession chat.ServerSession
	if err := c.do(ctx, "POST", "/session", body, &serverSession); err != nil {
		return chat.Session{}, err
	}
	return serverSession.ToSession(), nil
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", "/session/"+id, nil, nil)
}

func (c *Client) GetSessionMessages(ctx context.Context, sessionID string) ([]chat.Message, error) {
	var serverMessages []chat.ServerMessage
	if err := c.do(ctx, "GET", fmt.Sprintf("/session/%s/message", sessionID), nil, &serverMessages); err != nil {
		return nil, err
	}

	messages := make([]chat.Message, len(serverMessages))
	for i, m := range serverMessages {
		messages[i] = m.ToMessage(sessionID)
	}
	return messages, nil
}

// SendMessage submits a prompt for asynchronous processing. The resulting
// assistant turn is observed on the event stream, not in this response.
func (c *Client) SendMessage(ctx context.Context, sessionID, prompt string, model *Model) error {
	body := map[string]any{"prompt": prompt}
	if model != nil {
		body["model"] = model
	}
	return c.do(ctx, "POST", fmt.Sprintf("/session/%s/prompt_async", sessionID), body, nil)
}
