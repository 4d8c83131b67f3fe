package client

import (
	"context"

	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
	mcp "github.com/zhaohuiwang/adk-samples/pkg/mcp"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ListTools returns the tools available on the server, following pages
// until the server returns no cursor. The tools are kept for validating
// the arguments of later calls.
func (c *Client) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	var result []*mcp.Tool
	var cursor string
	for {
		var params any
		if cursor != "" {
			params = mcp.RequestList{Cursor: cursor}
		}
		var page mcp.ResponseListTools
		if err := c.call(ctx, mcp.MessageTypeListTools, params, &page); err != nil {
			return nil, err
		}
		result = append(result, page.Tools...)
		if cursor = page.NextCursor; cursor == "" {
			break
		}
	}

	tools := make(map[string]*entry, len(result))
	for _, t := range result {
		if t == nil {
			continue
		}
		tools[t.Name] = &entry{tool: t, schema: c.resolve(t)}
	}
	c.mu.Lock()
	c.tools = tools
	c.mu.Unlock()

	return result, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// resolve returns the resolved input schema of a tool, or nil when the
// tool has none or it cannot be resolved
func (c *Client) resolve(t *mcp.Tool) *jsonschema.Resolved {
	if t.InputSchema == nil {
		return nil
	}
	var schema jsonschema.Schema
	if err := decodeResult(t.InputSchema, &schema); err != nil {
		c.log.Debug().Err(err).Str("tool", t.Name).Msg("input schema not decoded")
		return nil
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		c.log.Debug().Err(err).Str("tool", t.Name).Msg("input schema not resolved")
		return nil
	}
	return resolved
}
