package tool_test

import (
	"context"
	"encoding/json"
	"testing"

	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
	assert "github.com/stretchr/testify/assert"
	adk "github.com/zhaohuiwang/adk-samples"
	tool "github.com/zhaohuiwang/adk-samples/pkg/tool"
)

func Test_tool_001(t *testing.T) {
	assert := assert.New(t)

	// A tool without a function is not implemented
	noop := tool.New("noop", "Does nothing", nil, nil)
	_, err := noop.Run(context.Background(), nil)
	assert.ErrorIs(err, adk.ErrNotImplemented)

	// Without a schema any input validates
	assert.NoError(tool.Validate(noop, json.RawMessage(`{"x":1}`)))

	desc := tool.Describe(noop)
	assert.Equal("noop", desc.Name)
	assert.Equal("Does nothing", desc.Description)
	assert.Empty(desc.Parameters)
}

func Test_tool_002(t *testing.T) {
	assert := assert.New(t)

	s := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"request": {Type: "string"},
		},
		Required: []string{"request"},
	}
	echo := tool.New("echo", "Echo", s, nil)

	assert.NoError(tool.Validate(echo, json.RawMessage(`{"request":"hi"}`)))
	assert.ErrorIs(tool.Validate(echo, nil), adk.ErrBadParameter)
	assert.ErrorIs(tool.Validate(echo, json.RawMessage(`null`)), adk.ErrBadParameter)
	assert.ErrorIs(tool.Validate(echo, json.RawMessage(`{"request":1}`)), adk.ErrBadParameter)
	assert.ErrorIs(tool.Validate(echo, json.RawMessage(`{`)), adk.ErrBadParameter)
}
