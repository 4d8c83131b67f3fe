// Package adk holds the interfaces between the agent runtime and the model
// service, and the error codes shared by all packages.
package adk

import (
	"context"
	"iter"

	// Packages
	opt "github.com/zhaohuiwang/adk-samples/pkg/opt"
	schema "github.com/zhaohuiwang/adk-samples/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Generator is the model service: given a conversation it returns the
// next message from the model
type Generator interface {
	// Return the provider name
	Name() string

	// Generate returns the model response to the conversation. The
	// conversation is not modified.
	Generate(ctx context.Context, model string, conversation schema.Conversation, opts ...opt.Opt) (*schema.Message, *schema.Usage, error)
}

// Runner is the agent runtime: it runs one user turn within a session and
// produces the events of that turn
type Runner interface {
	// Return the agent name
	Name() string

	// Run appends the user text to the session and returns the events of
	// the turn. The sequence is lazy, finite and can be consumed once.
	Run(ctx context.Context, sessionID, text string) iter.Seq[*schema.Event]
}
