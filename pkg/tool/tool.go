package tool

import (
	"context"
	"encoding/json"
	"strings"

	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
	types "github.com/mutablelogic/go-server/pkg/types"
	adk "github.com/zhaohuiwang/adk-samples"
	schema "github.com/zhaohuiwang/adk-samples/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Tool is a callable handle with a name, description and JSON schema
type Tool interface {
	// Return the name of the tool
	Name() string

	// Return the description of the tool
	Description() string

	// Return the JSON schema for the tool input
	Schema() (*jsonschema.Schema, error)

	// Run the tool with the given input as JSON (may be nil)
	Run(ctx context.Context, input json.RawMessage) (any, error)
}

// RunFunc is the implementation of a tool created with New
type RunFunc func(ctx context.Context, input json.RawMessage) (any, error)

type funcTool struct {
	name        string
	description string
	schema      *jsonschema.Schema
	fn          RunFunc
}

var _ Tool = (*funcTool)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a tool backed by a function. The schema may be nil for
// tools without parameters.
func New(name, description string, s *jsonschema.Schema, fn RunFunc) Tool {
	return &funcTool{
		name:        name,
		description: description,
		schema:      s,
		fn:          fn,
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (t *funcTool) Name() string {
	return t.name
}

func (t *funcTool) Description() string {
	return t.description
}

func (t *funcTool) Schema() (*jsonschema.Schema, error) {
	return t.schema, nil
}

func (t *funcTool) Run(ctx context.Context, input json.RawMessage) (any, error) {
	if t.fn == nil {
		return nil, adk.ErrNotImplemented.Withf("tool %q", t.name)
	}
	return t.fn(ctx, input)
}

// Describe returns the descriptor of a tool. A schema which cannot be
// generated results in a descriptor without parameters.
func Describe(t Tool) schema.ToolDescriptor {
	s, err := t.Schema()
	if err != nil {
		s = nil
	}
	return schema.NewToolDescriptor(t.Name(), t.Description(), s)
}

// Validate checks the input against the tool schema. Empty input is
// validated as an empty object.
func Validate(t Tool, input json.RawMessage) error {
	s, err := t.Schema()
	if err != nil {
		return adk.ErrBadParameter.Withf("schema generation failed: %v", err)
	} else if s == nil {
		return nil
	}

	var value any = map[string]any{}
	if len(input) > 0 && strings.TrimSpace(string(input)) != "null" {
		if err := json.Unmarshal(input, &value); err != nil {
			return adk.ErrBadParameter.Withf("failed to unmarshal JSON input: %v", err)
		}
	}

	// Schemas which cannot be resolved are not enforced
	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil
	}
	if err := resolved.Validate(value); err != nil {
		return adk.ErrBadParameter.Withf("input validation failed: %v", err)
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (t *funcTool) String() string {
	return types.Stringify(Describe(t))
}
