package repl_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	// Packages
	assert "github.com/stretchr/testify/assert"
	repl "github.com/zhaohuiwang/adk-samples/pkg/repl"
	schema "github.com/zhaohuiwang/adk-samples/pkg/schema"
	session "github.com/zhaohuiwang/adk-samples/pkg/session"
	turn "github.com/zhaohuiwang/adk-samples/pkg/turn"
)

///////////////////////////////////////////////////////////////////////////////
// FIXTURES

type recorder struct {
	texts []string
}

func (r *recorder) Run(_ context.Context, _ *session.Session, text string) turn.Result {
	r.texts = append(r.texts, text)
	return turn.Result{Outcome: schema.AnsweredWithText}
}

func run(t *testing.T, input string, opts ...repl.Opt) (*recorder, *repl.Loop, string, error) {
	t.Helper()
	var out bytes.Buffer
	turns := new(recorder)
	loop := repl.New(strings.NewReader(input), &out, turns, &session.Session{ID: "s"}, opts...)
	err := loop.Run(context.Background())
	return turns, loop, out.String(), err
}

///////////////////////////////////////////////////////////////////////////////
// TESTS

func Test_repl_001(t *testing.T) {
	assert := assert.New(t)

	// quit runs no turns
	for _, input := range []string{"quit\n", "  QUIT  \n", "Quit\nhello\n"} {
		turns, loop, out, err := run(t, input)
		assert.NoError(err)
		assert.Empty(turns.texts)
		assert.Equal(0, loop.Turns())
		assert.Contains(out, "You > ")
		assert.True(strings.HasSuffix(out, "Exiting agent.\n"))
	}
}

func Test_repl_002(t *testing.T) {
	assert := assert.New(t)

	// Empty lines re-prompt without running a turn
	turns, _, out, err := run(t, "\n   \n\t\nquit\n")
	assert.NoError(err)
	assert.Empty(turns.texts)
	assert.Equal(4, strings.Count(out, "You > "))
	assert.NotContains(out, "Agent > ")
}

func Test_repl_003(t *testing.T) {
	assert := assert.New(t)

	// Each line is one turn, in order
	turns, loop, out, err := run(t, "forecast sales\n\nhow many trips\nquit\n")
	assert.NoError(err)
	assert.Equal([]string{"forecast sales", "how many trips"}, turns.texts)
	assert.Equal(2, loop.Turns())
	assert.Equal(2, strings.Count(out, "\nAgent > "))
}

func Test_repl_004(t *testing.T) {
	assert := assert.New(t)

	// End of input terminates cleanly, a last line without newline still runs
	turns, _, out, err := run(t, "")
	assert.NoError(err)
	assert.Empty(turns.texts)
	assert.Contains(out, "Exiting agent.")

	turns, _, _, err = run(t, "hello\nbye")
	assert.NoError(err)
	assert.Equal([]string{"hello", "bye"}, turns.texts)
}

func Test_repl_005(t *testing.T) {
	assert := assert.New(t)

	// Banner, plain when styling is off
	_, _, out, err := run(t, "quit\n", repl.WithStyle(false), repl.WithBanner(repl.Banner{
		Title:    "Time Series Forecasting Agent",
		Examples: []string{"predict next week's liquor sales in iowa"},
	}))
	assert.NoError(err)
	assert.True(strings.HasPrefix(out, "\nTime Series Forecasting Agent\n-----------------------------\nExamples:\npredict next week's liquor sales in iowa\n"))
}

func Test_repl_006(t *testing.T) {
	assert := assert.New(t)

	// Cancellation stops a loop waiting for input
	reader, writer := io.Pipe()
	defer writer.Close()
	var out bytes.Buffer
	loop := repl.New(reader, &out, new(recorder), &session.Session{ID: "s"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := loop.Run(ctx)
	assert.True(errors.Is(err, context.DeadlineExceeded))
}

func Test_repl_007(t *testing.T) {
	assert := assert.New(t)

	// Long examples wrap at word boundaries
	_, _, out, err := run(t, "quit\n", repl.WithStyle(false), repl.WithWidth(20), repl.WithBanner(repl.Banner{
		Title:    "Bug Assistant",
		Examples: []string{"Find open tickets about the espresso grinder"},
	}))
	assert.NoError(err)
	assert.Contains(out, "Find open tickets\nabout the espresso\ngrinder\n")
}
