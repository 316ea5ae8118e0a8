package api

import (
	"context"
	"errors"
)

// ErrUnhealthy means the server answered the health check but reported
// itself unhealthy. Treated like any other connection failure.
var ErrUnhealthy = errors.New("server reported unhealthy status")

type healthResponse struct {
	Healthy bool `json:"healthy"`
}

// CheckHealth performs one authenticated health check against the server.
func (c *Client) CheckHealth(ctx context.Context) error {
	var health healthResponse
	if err := c.do(ctx, "GET", "/global/health", nil, &health); err != nil {
		return err
	}
	if !health.Healthy {
		return ErrUnhealthy
	}
	return nil
}
