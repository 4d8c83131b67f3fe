package client

import (
	"context"

	// Packages
	mcp "github.com/zhaohuiwang/adk-samples/pkg/mcp"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Ping connects if needed, and returns an error if the server does not
// respond to a ping
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, mcp.MessageTypePing, nil, nil)
}
