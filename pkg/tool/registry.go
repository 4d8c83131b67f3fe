package tool

import (
	"context"
	"encoding/json"
	"regexp"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
	zerolog "github.com/rs/zerolog"
	adk "github.com/zhaohuiwang/adk-samples"
	schema "github.com/zhaohuiwang/adk-samples/pkg/schema"
	errgroup "golang.org/x/sync/errgroup"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Registry is an ordered, immutable set of tools with unique names
type Registry struct {
	tools   []Tool
	index   map[string]Tool
	dropped []Dropped
}

// Dropped records a tool which was left out of a registry
type Dropped struct {
	Name   string `json:"name"`
	Source int    `json:"source"` // Index of the source, or -1 for local tools
	Reason string `json:"reason"`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Function names accepted by the model service
var reName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.\-]{0,63}$`)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Build returns a registry holding the tools of each source in order,
// followed by the local tools. When two tools share a name the later one
// is dropped and a warning is logged to the context logger.
func Build(ctx context.Context, sources [][]Tool, local ...Tool) *Registry {
	r := &Registry{
		index: make(map[string]Tool),
	}
	log := zerolog.Ctx(ctx)
	for i, source := range sources {
		for _, t := range source {
			r.add(log, i, t)
		}
	}
	for _, t := range local {
		r.add(log, -1, t)
	}
	return r
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Tools returns the tools in registry order
func (r *Registry) Tools() []Tool {
	if r == nil {
		return nil
	}
	return append([]Tool(nil), r.tools...)
}

// Len returns the number of tools
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.tools)
}

// Lookup returns a tool by name, or nil if not found
func (r *Registry) Lookup(name string) Tool {
	if r == nil {
		return nil
	}
	return r.index[name]
}

// Names returns the tool names in registry order
func (r *Registry) Names() []string {
	result := make([]string, 0, r.Len())
	for _, t := range r.Tools() {
		result = append(result, t.Name())
	}
	return result
}

// Descriptors returns the tool descriptors in registry order
func (r *Registry) Descriptors() []schema.ToolDescriptor {
	result := make([]schema.ToolDescriptor, 0, r.Len())
	for _, t := range r.Tools() {
		result = append(result, Describe(t))
	}
	return result
}

// Dropped returns the tools left out when the registry was built
func (r *Registry) Dropped() []Dropped {
	if r == nil {
		return nil
	}
	return append([]Dropped(nil), r.dropped...)
}

// Run executes one tool by name. The input is validated against the tool
// schema before the tool is called.
func (r *Registry) Run(ctx context.Context, name string, input json.RawMessage) (any, error) {
	t := r.Lookup(name)
	if t == nil {
		return nil, adk.ErrNotFound.Withf("tool not found: %q", name)
	}
	if err := Validate(t, input); err != nil {
		return nil, err
	}
	return t.Run(ctx, input)
}

// Call executes tool calls in parallel and returns one result block per
// call, in call order. A failing call produces an error result and does
// not affect the others.
func (r *Registry) Call(ctx context.Context, calls ...schema.ToolCall) []schema.ContentBlock {
	results := make([]schema.ContentBlock, len(calls))
	g, ctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			if value, err := r.Run(ctx, call.Name, call.Input); err != nil {
				zerolog.Ctx(ctx).Debug().Err(err).Str("tool", call.Name).Msg("tool call failed")
				results[i] = schema.NewToolError(call.ID, call.Name, err)
			} else {
				results[i] = schema.NewToolResult(call.ID, call.Name, value)
			}
			return nil
		})
	}

	// Tool failures are reported in the results, so Wait never fails
	_ = g.Wait()

	return results
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (r *Registry) add(log *zerolog.Logger, source int, t Tool) {
	if t == nil {
		r.drop(log, "", source, "nil tool")
		return
	}
	name := t.Name()
	if !reName.MatchString(name) {
		r.drop(log, name, source, "invalid name")
		return
	}
	if _, exists := r.index[name]; exists {
		r.drop(log, name, source, "duplicate name")
		return
	}
	r.tools = append(r.tools, t)
	r.index[name] = t
}

func (r *Registry) drop(log *zerolog.Logger, name string, source int, reason string) {
	r.dropped = append(r.dropped, Dropped{Name: name, Source: source, Reason: reason})
	log.Warn().Str("tool", name).Int("source", source).Str("reason", reason).Msg("tool dropped from registry")
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (r *Registry) String() string {
	return types.Stringify(r.Descriptors())
}
