package turn_test

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"slices"
	"testing"

	// Packages
	zerolog "github.com/rs/zerolog"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
	schema "github.com/zhaohuiwang/adk-samples/pkg/schema"
	session "github.com/zhaohuiwang/adk-samples/pkg/session"
	turn "github.com/zhaohuiwang/adk-samples/pkg/turn"
)

///////////////////////////////////////////////////////////////////////////////
// FIXTURES

// scripted replays the same events for every turn
type scripted struct {
	events []*schema.Event
	texts  []string
}

func (s *scripted) Name() string { return "scripted" }

func (s *scripted) Run(_ context.Context, _ string, text string) iter.Seq[*schema.Event] {
	s.texts = append(s.texts, text)
	return slices.Values(s.events)
}

func textEvent(text string) *schema.Event {
	return schema.NewTextEvent("agent", text, true)
}

func callEvent(name string) *schema.Event {
	return schema.NewEvent("agent", schema.NewToolCall("call-1", name, json.RawMessage(`{}`)))
}

func resultEvent(name string, payload any) *schema.Event {
	return schema.NewEvent("agent", schema.NewToolResult("call-1", name, payload))
}

func newSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.NewMemoryStore().Create(context.Background(), "agent", "tmp-user")
	require.NoError(t, err)
	return s
}

///////////////////////////////////////////////////////////////////////////////
// CLASSIFY TESTS

func Test_classify_001(t *testing.T) {
	assert := assert.New(t)

	// Only text: answered, fragments concatenated in order
	result := turn.ClassifyEvents(textEvent("a"), textEvent("b"), textEvent("c"))
	assert.Equal(schema.AnsweredWithText, result.Outcome)
	assert.Equal("abc", result.Text)
	assert.Empty(result.Errors)

	// No events at all is an answer with no text
	assert.Equal(schema.AnsweredWithText, turn.ClassifyEvents().Outcome)
}

func Test_classify_002(t *testing.T) {
	assert := assert.New(t)

	// Tool calls and no text
	result := turn.ClassifyEvents(callEvent("lookup"), resultEvent("lookup", map[string]any{"rows": 3}))
	assert.Equal(schema.ToolCalledNoText, result.Outcome)
	assert.Equal(1, result.ToolCalls)
	assert.Empty(result.Text)
}

func Test_classify_003(t *testing.T) {
	assert := assert.New(t)

	// Text, a tool call, then more text
	result := turn.ClassifyEvents(textEvent("Result: "), callEvent("add"), textEvent("42"))
	assert.Equal(schema.AnsweredWithText, result.Outcome)
	assert.Equal("Result: 42", result.Text)
}

func Test_classify_004(t *testing.T) {
	assert := assert.New(t)

	// A tool result with status error
	result := turn.ClassifyEvents(callEvent("create_ticket"), resultEvent("create_ticket", map[string]any{"status": "error"}))
	assert.Equal(schema.Errored, result.Outcome)
	if assert.Len(result.Errors, 1) {
		assert.Contains(result.Errors[0], "create_ticket")
	}

	// Status is compared without case
	result = turn.ClassifyEvents(resultEvent("x", map[string]any{"status": "ERROR"}))
	assert.Equal(schema.Errored, result.Outcome)

	// An error key, even with text
	result = turn.ClassifyEvents(textEvent("done"), resultEvent("x", map[string]any{"error": "offline"}))
	assert.Equal(schema.Errored, result.Outcome)
	assert.Equal("done", result.Text)
	if assert.Len(result.Errors, 1) {
		assert.Contains(result.Errors[0], "offline")
	}

	// A successful status is not an error
	result = turn.ClassifyEvents(textEvent("ok"), resultEvent("x", map[string]any{"status": "success"}))
	assert.Equal(schema.AnsweredWithText, result.Outcome)
}

func Test_classify_005(t *testing.T) {
	assert := assert.New(t)

	// An error event wins over everything else
	result := turn.ClassifyEvents(textEvent("partial"), schema.NewErrorEvent("agent", schema.ErrorCodeMaxTokens, "truncated"))
	assert.Equal(schema.Errored, result.Outcome)
	if assert.Len(result.Errors, 1) {
		assert.Equal("MAX_TOKENS truncated", result.Errors[0])
	}

	// Nil events are ignored
	assert.Equal(schema.AnsweredWithText, turn.ClassifyEvents(nil, textEvent("x")).Outcome)
}

///////////////////////////////////////////////////////////////////////////////
// RUN TESTS

func Test_turn_001(t *testing.T) {
	assert := assert.New(t)

	// Text is written as it arrives and the result matches
	agent := &scripted{events: []*schema.Event{textEvent("Result: "), callEvent("add"), textEvent("42")}}
	var out bytes.Buffer
	result := turn.New(agent, &out).Run(context.Background(), newSession(t), "what is 40+2?")

	assert.Equal("Result: 42", out.String())
	assert.Equal(schema.AnsweredWithText, result.Outcome)
	assert.Equal([]string{"what is 40+2?"}, agent.texts)
}

func Test_turn_002(t *testing.T) {
	assert := assert.New(t)

	// Tool with no text logs a warning, writes nothing
	var out, logs bytes.Buffer
	ctx := zerolog.New(&logs).WithContext(context.Background())
	agent := &scripted{events: []*schema.Event{callEvent("lookup")}}

	result := turn.New(agent, &out).Run(ctx, newSession(t), "go")
	assert.Equal(schema.ToolCalledNoText, result.Outcome)
	assert.Empty(out.String())
	assert.Contains(logs.String(), "Agent used a tool but provided no text response.")
}

func Test_turn_003(t *testing.T) {
	assert := assert.New(t)

	// Errors log a warning and leave the text unchanged
	var out, logs bytes.Buffer
	ctx := zerolog.New(&logs).WithContext(context.Background())
	agent := &scripted{events: []*schema.Event{
		textEvent("Creating ticket. "),
		callEvent("create_ticket"),
		resultEvent("create_ticket", map[string]any{"status": "error", "error": "database offline"}),
	}}

	result := turn.New(agent, &out).Run(ctx, newSession(t), "new bug")
	assert.Equal(schema.Errored, result.Outcome)
	assert.Equal("Creating ticket. ", out.String())
	assert.Contains(logs.String(), "An error occurred during tool execution")
	assert.Contains(logs.String(), "database offline")
}

func Test_turn_004(t *testing.T) {
	assert := assert.New(t)

	// Markdown, when asked for, is rendered once the turn is complete
	agent := &scripted{events: []*schema.Event{textEvent("# Forecast\n\n"), callEvent("forecast"), textEvent("Sales will **rise**.")}}
	var out bytes.Buffer
	result := turn.New(agent, &out, turn.WithMarkdown("notty", 80)).Run(context.Background(), newSession(t), "forecast sales")

	assert.Equal(schema.AnsweredWithText, result.Outcome)
	assert.Equal("# Forecast\n\nSales will **rise**.", result.Text)
	assert.Contains(out.String(), "Forecast")
	assert.Contains(out.String(), "rise")
	assert.NotEqual(result.Text, out.String())
}

// observed records what has been written after each event is consumed
type observed struct {
	events []*schema.Event
	out    *bytes.Buffer
	seen   []string
}

func (o *observed) Name() string { return "observed" }

func (o *observed) Run(context.Context, string, string) iter.Seq[*schema.Event] {
	return func(yield func(*schema.Event) bool) {
		for _, event := range o.events {
			if !yield(event) {
				return
			}
			o.seen = append(o.seen, o.out.String())
		}
	}
}

func Test_turn_005(t *testing.T) {
	assert := assert.New(t)

	// Each fragment is on the writer before the next event is produced
	var out bytes.Buffer
	agent := &observed{out: &out, events: []*schema.Event{textEvent("Result: "), callEvent("add"), textEvent("42")}}
	result := turn.New(agent, &out).Run(context.Background(), newSession(t), "what is 40+2?")

	assert.Equal([]string{"Result: ", "Result: ", "Result: 42"}, agent.seen)
	assert.Equal(result.Text, out.String())
}
