package runtime

import (
	"context"
	"encoding/json"
	"strings"

	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
	adk "github.com/zhaohuiwang/adk-samples"
	session "github.com/zhaohuiwang/adk-samples/pkg/session"
	tool "github.com/zhaohuiwang/adk-samples/pkg/tool"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// agentTool runs a sub-agent as a tool
type agentTool struct {
	runner *Runner
}

var _ tool.Tool = (*agentTool)(nil)

type agentToolRequest struct {
	Request string `json:"request"`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// AgentToolUser is the user of the sessions created by agent tools
	AgentToolUser = "agent-tool"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewAgentTool returns a tool with the name and description of the runner's
// agent. Each call runs one turn in a new in-memory session and returns the
// text of the response.
func NewAgentTool(runner *Runner) tool.Tool {
	sub := *runner
	sub.store = session.NewMemoryStore()
	return &agentTool{runner: &sub}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (t *agentTool) Name() string {
	return t.runner.agent.Name
}

func (t *agentTool) Description() string {
	return t.runner.agent.Description
}

func (t *agentTool) Schema() (*jsonschema.Schema, error) {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"request": {Type: "string"},
		},
		Required: []string{"request"},
	}, nil
}

func (t *agentTool) Run(ctx context.Context, input json.RawMessage) (any, error) {
	var req agentToolRequest
	if len(input) > 0 {
		if err := json.Unmarshal(input, &req); err != nil {
			return nil, adk.ErrBadParameter.Withf("%s: %v", t.Name(), err)
		}
	}

	s, err := t.runner.store.Create(ctx, t.runner.agent.Name, AgentToolUser)
	if err != nil {
		return nil, err
	}

	// Collect the text, the first error ends the call
	var text strings.Builder
	for event := range t.runner.Run(ctx, s.ID, req.Request) {
		if event.IsError() {
			return nil, adk.ErrInternalServerError.Withf("%s: %s %s", t.Name(), event.ErrorCode, event.ErrorMessage)
		}
		text.WriteString(event.Text())
	}

	// The output key holds the final response
	if key := t.runner.agent.OutputKey; key != "" {
		if output, ok := s.Output(key); ok {
			return map[string]any{"result": output}, nil
		}
	}
	return map[string]any{"result": text.String()}, nil
}
