package api

import (
	"context"

	"github.com/r3labs/sse/v2"
)

// FrameHandler receives one raw stream frame: the SSE event name (empty for
// frames on the default channel) and the payload bytes.
type FrameHandler func(event string, data []byte)

// Events opens the persistent push stream and invokes handler for every
// frame until ctx is canceled. The auth header is attached at open time;
// reconnection of the stream itself is handled by the SSE client.
func (c *Client) Events(ctx context.Context, handler FrameHandler) error {
	baseURL, _ := c.target()
	if baseURL == "" {
		return ErrNoServerURL
	}

	auth, err := c.authHeader()
	if err != nil {
		return err
	}

	client := sse.NewClient(baseURL + "/global/event")
	client.Headers["Authorization"] = auth

	return client.SubscribeRawWithContext(ctx, func(msg *sse.Event) {
		handler(string(msg.Event), msg.Data)
	})
}
