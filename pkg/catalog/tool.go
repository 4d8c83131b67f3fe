package catalog

import (
	"context"
	"encoding/json"
	"strings"

	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
	types "github.com/mutablelogic/go-server/pkg/types"
	zerolog "github.com/rs/zerolog"
	adk "github.com/zhaohuiwang/adk-samples"
	mcp "github.com/zhaohuiwang/adk-samples/pkg/mcp"
	tool "github.com/zhaohuiwang/adk-samples/pkg/tool"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// remoteTool is a tool which runs on the server of its catalog
type remoteTool struct {
	catalog     *Catalog
	name        string
	description string
	schema      *jsonschema.Schema
}

var _ tool.Tool = (*remoteTool)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newRemoteTool(ctx context.Context, c *Catalog, t *mcp.Tool) *remoteTool {
	r := &remoteTool{
		catalog:     c,
		name:        t.Name,
		description: strings.TrimSpace(t.Description),
	}
	if s, err := decodeSchema(t.InputSchema); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("tool", t.Name).Msg("input schema ignored")
	} else {
		r.schema = s
	}
	return r
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (t *remoteTool) Name() string {
	return t.name
}

func (t *remoteTool) Description() string {
	return t.description
}

func (t *remoteTool) Schema() (*jsonschema.Schema, error) {
	return t.schema, nil
}

// Run calls the tool on the server. A result flagged as an error by the
// server is returned as an error payload rather than a Go error.
func (t *remoteTool) Run(ctx context.Context, input json.RawMessage) (any, error) {
	if t.catalog.Closed() {
		return nil, adk.ErrUnavailable.Withf("tool %q: catalog is closed", t.name)
	}
	if strings.TrimSpace(string(input)) == "null" {
		input = nil
	}

	resp, err := t.catalog.client.CallTool(ctx, t.name, input)
	if err != nil {
		return nil, err
	}

	text := resp.Text()
	if resp.Error {
		return map[string]any{
			"status": "error",
			"error":  text,
		}, nil
	}

	// Results are JSON where possible, text otherwise
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		value = text
	}
	return map[string]any{
		"result": value,
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// decodeSchema converts an advertised input schema. The dialect keyword is
// dropped so the schema resolves regardless of the draft it declares.
func decodeSchema(v any) (*jsonschema.Schema, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	s.Schema = ""
	return &s, nil
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (t *remoteTool) String() string {
	return types.Stringify(tool.Describe(t))
}
