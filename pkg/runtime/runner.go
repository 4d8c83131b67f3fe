package runtime

import (
	"context"
	"errors"
	"iter"

	// Packages
	otel "github.com/mutablelogic/go-client/pkg/otel"
	zerolog "github.com/rs/zerolog"
	adk "github.com/zhaohuiwang/adk-samples"
	opt "github.com/zhaohuiwang/adk-samples/pkg/opt"
	schema "github.com/zhaohuiwang/adk-samples/pkg/schema"
	session "github.com/zhaohuiwang/adk-samples/pkg/session"
	attribute "go.opentelemetry.io/otel/attribute"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Runner runs the turns of one agent against a session store
type Runner struct {
	*opts
	agent     Agent
	generator adk.Generator
	store     session.Store
}

var _ adk.Runner = (*Runner)(nil)

// generation is the outcome of one model call
type generation struct {
	message  *schema.Message
	err      error
	streamed bool // Text was yielded as partial events
	stopped  bool // The consumer stopped the iteration
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a runner for the agent, which calls the generator and keeps
// conversations in the store
func New(agent *Agent, generator adk.Generator, store session.Store, opts ...Opt) (*Runner, error) {
	if err := agent.Validate(); err != nil {
		return nil, err
	}
	if generator == nil {
		return nil, adk.ErrBadParameter.With("generator is required")
	}
	if store == nil {
		return nil, adk.ErrBadParameter.With("session store is required")
	}
	o, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}
	return &Runner{
		opts:      o,
		agent:     *agent,
		generator: generator,
		store:     store,
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Name returns the agent name
func (r *Runner) Name() string {
	return r.agent.Name
}

// Agent returns the agent definition
func (r *Runner) Agent() Agent {
	return r.agent
}

// Run appends the user text to the session and returns the events of the
// turn. Stopping the iteration cancels the model request in flight.
func (r *Runner) Run(ctx context.Context, sessionID, text string) iter.Seq[*schema.Event] {
	return func(yield func(*schema.Event) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		var result error
		ctx, endSpan := otel.StartSpan(r.tracer, ctx, "Run",
			attribute.String("agent", r.agent.Name),
			attribute.String("session", sessionID),
		)
		defer func() { endSpan(result) }()

		s, err := r.store.Get(ctx, sessionID)
		if err != nil {
			result = err
			yield(schema.NewErrorEvent(r.agent.Name, schema.ErrorCodeUnknown, err.Error()))
			return
		}
		s.Append(schema.NewMessage(schema.RoleUser, text))
		r.write(ctx, s)

		for i := uint(0); ; i++ {
			if i >= r.maxIterations {
				result = adk.ErrMaxIterations.Withf("%d model calls", r.maxIterations)
				yield(schema.NewErrorEvent(r.agent.Name, schema.ErrorCodeMaxIterations, result.Error()))
				return
			}

			// Call the model
			g := r.generate(ctx, s.Messages, yield)
			if g.stopped {
				return
			} else if g.err != nil {
				result = g.err
				yield(schema.NewErrorEvent(r.agent.Name, errorCode(g.err), g.err.Error()))
				return
			}

			// Yield the text when it was not streamed
			message := g.message
			if text := message.Text(); text != "" && !g.streamed {
				if !yield(schema.NewTextEvent(r.agent.Name, text, false)) {
					s.Append(message)
					r.write(ctx, s)
					return
				}
			}

			// A response without tool calls ends the turn
			calls := message.ToolCalls()
			if len(calls) == 0 {
				if r.agent.OutputKey != "" {
					if message.Meta == nil {
						message.Meta = make(map[string]any, 1)
					}
					message.Meta[schema.MetaOutputKey] = r.agent.OutputKey
				}
				s.Append(message)
				r.write(ctx, s)
				return
			}

			// Run the tools and feed the results back to the model
			s.Append(message)
			r.write(ctx, s)
			callEvent := schema.NewEvent(r.agent.Name)
			for _, call := range calls {
				callEvent.Content = append(callEvent.Content, schema.NewToolCall(call.ID, call.Name, call.Input))
			}
			if !yield(callEvent) {
				return
			}

			zerolog.Ctx(ctx).Debug().Str("agent", r.agent.Name).Int("calls", len(calls)).Msg("running tools")
			results := r.agent.Tools.Call(ctx, calls...)
			s.Append(&schema.Message{Role: schema.RoleTool, Content: results})
			r.write(ctx, s)
			if !yield(schema.NewEvent(r.agent.Name, results...)) {
				return
			}
		}
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// generate calls the model in a goroutine, and yields text fragments as
// partial events while it runs
func (r *Runner) generate(ctx context.Context, conversation schema.Conversation, yield func(*schema.Event) bool) generation {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fragments := make(chan string)
	done := make(chan generation, 1)
	go func() {
		defer close(fragments)
		message, _, err := r.generator.Generate(ctx, r.agent.Model, conversation, r.generateOpts(func(role, text string) {
			if role != schema.RoleAssistant || text == "" {
				return
			}
			select {
			case fragments <- text:
			case <-ctx.Done():
			}
		})...)
		done <- generation{message: message, err: err}
	}()

	// Yield fragments until the model returns or the consumer stops
	var streamed, stopped bool
	for text := range fragments {
		if stopped {
			continue
		}
		streamed = true
		if !yield(schema.NewTextEvent(r.agent.Name, text, true)) {
			stopped = true
			cancel()
		}
	}

	result := <-done
	result.streamed = streamed
	result.stopped = stopped
	if result.err == nil && result.message == nil {
		result.err = adk.ErrInternalServerError.With("model returned no message")
	}
	return result
}

func (r *Runner) generateOpts(fn opt.StreamFn) []opt.Opt {
	result := make([]opt.Opt, 0, len(r.extra)+4)
	result = append(result, r.extra...)
	if r.agent.Instruction != "" {
		result = append(result, opt.WithSystemPrompt(r.agent.Instruction))
	}
	if r.agent.Tools.Len() > 0 {
		result = append(result, opt.WithTools(r.agent.Tools))
	}
	if r.agent.GoogleSearch {
		result = append(result, opt.WithGoogleSearch())
	}
	return append(result, opt.WithStream(fn))
}

// write persists the session, failures are logged
func (r *Runner) write(ctx context.Context, s *session.Session) {
	if err := r.store.Write(s); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("session", s.ID).Msg("session not saved")
	}
}

// errorCode maps a model error to an event error code
func errorCode(err error) string {
	switch {
	case errors.Is(err, adk.ErrMaxTokens):
		return schema.ErrorCodeMaxTokens
	case errors.Is(err, adk.ErrRefusal):
		return schema.ErrorCodeSafety
	case errors.Is(err, adk.ErrMaxIterations):
		return schema.ErrorCodeMaxIterations
	default:
		return schema.ErrorCodeUnknown
	}
}
