// Package runtime runs language-model agents: each user turn calls the
// model, executes the tools it requests and yields the events of the turn.
package runtime

import (
	"strings"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
	adk "github.com/zhaohuiwang/adk-samples"
	tool "github.com/zhaohuiwang/adk-samples/pkg/tool"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Agent is the definition of a language-model agent
type Agent struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	Model        string         `json:"model"`
	Instruction  string         `json:"instruction,omitempty"`
	Tools        *tool.Registry `json:"-"`
	OutputKey    string         `json:"output_key,omitempty"` // Tag for the final response
	GoogleSearch bool           `json:"google_search,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Validate returns an error if the agent cannot be run
func (a *Agent) Validate() error {
	if a == nil {
		return adk.ErrBadParameter.With("agent is nil")
	}
	if strings.TrimSpace(a.Name) == "" {
		return adk.ErrBadParameter.With("agent name is required")
	}
	if strings.TrimSpace(a.Model) == "" {
		return adk.ErrBadParameter.Withf("agent %q: model is required", a.Name)
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (a Agent) String() string {
	type agentJSON struct {
		Agent
		Tools []string `json:"tools,omitempty"`
	}
	return types.Stringify(agentJSON{Agent: a, Tools: a.Tools.Names()})
}
