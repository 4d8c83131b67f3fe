package table

import (
	"strings"

	// Packages
	schema "github.com/zhaohuiwang/adk-samples/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Tools renders tool descriptors, one row per tool
type Tools []schema.ToolDescriptor

// Parameters renders the parameters of one tool
type Parameters []schema.ToolParameter

var _ Data = Tools(nil)
var _ Data = Parameters(nil)

const descriptionWidth = 60

///////////////////////////////////////////////////////////////////////////////
// TOOLS

func (t Tools) Header() []string {
	return []string{"Name", "Description", "Parameters"}
}

func (t Tools) Len() int {
	return len(t)
}

func (t Tools) Row(i int) []any {
	names := make([]string, 0, len(t[i].Parameters))
	for _, p := range t[i].Parameters {
		if p.Required {
			names = append(names, p.Name+"*")
		} else {
			names = append(names, p.Name)
		}
	}
	return []any{Bold{t[i].Name}, Truncate(t[i].Description, descriptionWidth), strings.Join(names, ", ")}
}

///////////////////////////////////////////////////////////////////////////////
// PARAMETERS

func (p Parameters) Header() []string {
	return []string{"Parameter", "Type", "Required", "Description"}
}

func (p Parameters) Len() int {
	return len(p)
}

func (p Parameters) Row(i int) []any {
	return []any{Bold{p[i].Name}, p[i].Type, p[i].Required, Truncate(p[i].Description, descriptionWidth)}
}
