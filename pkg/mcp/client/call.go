package client

import (
	"context"
	"encoding/json"
	"fmt"

	// Packages
	mcp "github.com/zhaohuiwang/adk-samples/pkg/mcp"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// CallTool runs a tool on the server and returns its result. The tool must
// have been listed, and the arguments must match its input schema, before
// the request is sent. Tools are listed on the first call when needed.
func (c *Client) CallTool(ctx context.Context, name string, args json.RawMessage) (*mcp.ResponseToolCall, error) {
	if err := c.validate(ctx, name, args); err != nil {
		return nil, err
	}
	var result mcp.ResponseToolCall
	if err := c.call(ctx, mcp.MessageTypeCallTool, mcp.RequestToolCall{
		Name:      name,
		Arguments: args,
	}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// validate returns a protocol error for an unknown tool or for arguments
// which do not match the input schema
func (c *Client) validate(ctx context.Context, name string, args json.RawMessage) error {
	tool, err := c.lookup(ctx, name)
	if err != nil {
		return err
	} else if tool == nil {
		return mcp.NewError(mcp.ErrorCodeMethodNotFound, fmt.Sprintf("tool not found: %q", name))
	} else if tool.schema == nil {
		return nil
	}

	// Missing arguments are an empty object
	var value any = map[string]any{}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &value); err != nil {
			return mcp.NewError(mcp.ErrorCodeInvalidParameters, fmt.Sprintf("invalid arguments JSON: %v", err))
		}
	}
	if err := tool.schema.Validate(value); err != nil {
		return mcp.NewError(mcp.ErrorCodeInvalidParameters, fmt.Sprintf("argument validation failed: %v", err))
	}
	return nil
}

// lookup returns a listed tool, listing the tools when they have not been
// listed since the client connected
func (c *Client) lookup(ctx context.Context, name string) (*entry, error) {
	c.mu.Lock()
	listed := c.tools != nil
	c.mu.Unlock()
	if !listed {
		if _, err := c.ListTools(ctx); err != nil {
			return nil, fmt.Errorf("failed to fetch tools: %w", err)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tools[name], nil
}
