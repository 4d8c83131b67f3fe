// Package turn runs one user turn against an agent, streams its text to a
// writer and classifies how the turn ended.
package turn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"

	// Packages
	glamour "github.com/charmbracelet/glamour"
	otel "github.com/mutablelogic/go-client/pkg/otel"
	types "github.com/mutablelogic/go-server/pkg/types"
	zerolog "github.com/rs/zerolog"
	adk "github.com/zhaohuiwang/adk-samples"
	schema "github.com/zhaohuiwang/adk-samples/pkg/schema"
	session "github.com/zhaohuiwang/adk-samples/pkg/session"
	attribute "go.opentelemetry.io/otel/attribute"
	trace "go.opentelemetry.io/otel/trace"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Runner runs turns and writes the text of each turn as it arrives
type Runner struct {
	runner   adk.Runner
	w        io.Writer
	tracer   trace.Tracer
	markdown *glamour.TermRenderer
}

// Opt is a runner option
type Opt func(*Runner)

// Result is the outcome of one turn
type Result struct {
	Outcome   schema.Outcome `json:"outcome"`
	Text      string         `json:"text,omitempty"`
	Errors    []string       `json:"errors,omitempty"`
	ToolCalls int            `json:"tool_calls,omitempty"`
}

// fold accumulates the events of a turn
type fold struct {
	text   strings.Builder
	calls  int
	errors []string
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	msgNoText = "Agent used a tool but provided no text response."
	msgError  = "An error occurred during tool execution or in the agent's response processing."
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a turn runner which writes text to w
func New(runner adk.Runner, w io.Writer, opts ...Opt) *Runner {
	self := &Runner{runner: runner, w: w}
	for _, fn := range opts {
		fn(self)
	}
	return self
}

// WithTracer sets the tracer for turn spans
func WithTracer(tracer trace.Tracer) Opt {
	return func(r *Runner) {
		r.tracer = tracer
	}
}

// WithMarkdown renders the text of each turn as markdown once the turn is
// complete, instead of writing fragments as they arrive. Without it text is
// streamed unchanged. The style is a
// glamour style name such as "dark", "light" or "notty". Text is written
// unrendered when the renderer cannot be created.
func WithMarkdown(style string, width int) Opt {
	return func(r *Runner) {
		if renderer, err := glamour.NewTermRenderer(
			glamour.WithStylePath(style),
			glamour.WithWordWrap(width),
		); err == nil {
			r.markdown = renderer
		}
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Run sends the text to the agent within the session, and blocks until the
// turn is complete. Text fragments are written as they arrive. The outcome
// is logged and never changes the text written.
func (r *Runner) Run(ctx context.Context, s *session.Session, text string) Result {
	ctx, endSpan := otel.StartSpan(r.tracer, ctx, "Turn",
		attribute.String("agent", r.runner.Name()),
		attribute.String("session", s.ID),
	)

	var f fold
	for event := range r.runner.Run(ctx, s.ID, text) {
		if fragment := f.add(event); fragment != "" && r.markdown == nil {
			fmt.Fprint(r.w, fragment)
		}
	}
	result := f.result()
	if r.markdown != nil && result.Text != "" {
		r.render(ctx, result.Text)
	}

	// Report the outcome to the operator
	log := zerolog.Ctx(ctx)
	switch result.Outcome {
	case schema.ToolCalledNoText:
		log.Warn().Str("agent", r.runner.Name()).Msg(msgNoText)
	case schema.Errored:
		log.Warn().Str("agent", r.runner.Name()).Strs("errors", result.Errors).Msg(msgError)
	}

	var err error
	if result.Outcome == schema.Errored {
		err = errors.New(strings.Join(result.Errors, "; "))
	}
	endSpan(err)

	return result
}

// Classify folds a sequence of events into a result without writing
// anything
func Classify(events iter.Seq[*schema.Event]) Result {
	var f fold
	for event := range events {
		f.add(event)
	}
	return f.result()
}

// ClassifyEvents folds a list of events into a result
func ClassifyEvents(events ...*schema.Event) Result {
	return Classify(slices.Values(events))
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// render writes text as markdown, or as-is when it cannot be rendered
func (r *Runner) render(ctx context.Context, text string) {
	rendered, err := r.markdown.Render(text)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("markdown")
		rendered = text
	}
	fmt.Fprint(r.w, strings.TrimRight(rendered, "\n"))
}

// add records an event and returns its text
func (f *fold) add(event *schema.Event) string {
	if event == nil {
		return ""
	}
	var text strings.Builder
	for _, block := range event.Content {
		switch {
		case block.Text != nil:
			text.WriteString(*block.Text)
		case block.ToolCall != nil:
			f.calls++
		case block.ToolResult != nil:
			if block.ToolResult.Failed() {
				f.errors = append(f.errors, toolError(block.ToolResult))
			}
		}
	}
	if event.IsError() {
		f.errors = append(f.errors, strings.TrimSpace(event.ErrorCode+" "+event.ErrorMessage))
	}
	f.text.WriteString(text.String())
	return text.String()
}

func (f *fold) result() Result {
	result := Result{
		Text:      f.text.String(),
		Errors:    f.errors,
		ToolCalls: f.calls,
	}
	switch {
	case len(f.errors) > 0:
		result.Outcome = schema.Errored
	case f.calls > 0 && result.Text == "":
		result.Outcome = schema.ToolCalledNoText
	default:
		result.Outcome = schema.AnsweredWithText
	}
	return result
}

// toolError describes a failed tool result
func toolError(r *schema.ToolResult) string {
	payload := r.Payload()
	if v, exists := payload["error"]; exists && v != nil {
		return fmt.Sprintf("%s: %v", r.Name, v)
	}
	return fmt.Sprintf("%s: status %v", r.Name, payload["status"])
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (r Result) String() string {
	return types.Stringify(r)
}
