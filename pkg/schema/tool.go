package schema

import (
	"sort"
	"strings"

	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// ToolDescriptor describes a callable tool: its name, a human-readable
// description and the parameters it accepts.
type ToolDescriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  []ToolParameter    `json:"parameters,omitempty"`
	InputSchema *jsonschema.Schema `json:"input_schema,omitempty"`
}

// ToolParameter is a single named, typed parameter of a tool
type ToolParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewToolDescriptor returns a descriptor with parameters derived from the
// top-level properties of the input schema, sorted by name with required
// parameters first.
func NewToolDescriptor(name, description string, input *jsonschema.Schema) ToolDescriptor {
	desc := ToolDescriptor{
		Name:        name,
		Description: strings.TrimSpace(description),
		InputSchema: input,
	}
	if input == nil {
		return desc
	}

	required := make(map[string]bool, len(input.Required))
	for _, name := range input.Required {
		required[name] = true
	}
	for name, prop := range input.Properties {
		param := ToolParameter{
			Name:     name,
			Required: required[name],
		}
		if prop != nil {
			param.Description = prop.Description
			param.Type = prop.Type
			if param.Type == "" && len(prop.Types) > 0 {
				param.Type = strings.Join(prop.Types, "|")
			}
		}
		desc.Parameters = append(desc.Parameters, param)
	}
	sort.Slice(desc.Parameters, func(i, j int) bool {
		a, b := desc.Parameters[i], desc.Parameters[j]
		if a.Required != b.Required {
			return a.Required
		}
		return a.Name < b.Name
	})

	return desc
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Required returns the names of the required parameters
func (d ToolDescriptor) Required() []string {
	var result []string
	for _, param := range d.Parameters {
		if param.Required {
			result = append(result, param.Name)
		}
	}
	return result
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (d ToolDescriptor) String() string {
	return types.Stringify(d)
}
