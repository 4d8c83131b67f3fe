package agents_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	// Packages
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
	adk "github.com/zhaohuiwang/adk-samples"
	agents "github.com/zhaohuiwang/adk-samples/pkg/agents"
	bugassistant "github.com/zhaohuiwang/adk-samples/pkg/agents/bugassistant"
	forecast "github.com/zhaohuiwang/adk-samples/pkg/agents/forecast"
	server "github.com/zhaohuiwang/adk-samples/pkg/mcp/server"
	opt "github.com/zhaohuiwang/adk-samples/pkg/opt"
	repl "github.com/zhaohuiwang/adk-samples/pkg/repl"
	schema "github.com/zhaohuiwang/adk-samples/pkg/schema"
	tool "github.com/zhaohuiwang/adk-samples/pkg/tool"
	turn "github.com/zhaohuiwang/adk-samples/pkg/turn"
)

///////////////////////////////////////////////////////////////////////////////
// FIXTURES

// echoGenerator calls the first tool once, then answers with fixed text
type echoGenerator struct {
	answer string
	calls  int
}

func (g *echoGenerator) Name() string { return "echo" }

func (g *echoGenerator) Generate(_ context.Context, _ string, conversation schema.Conversation, opts ...opt.Opt) (*schema.Message, *schema.Usage, error) {
	options, err := opt.Apply(opts...)
	if err != nil {
		return nil, nil, err
	}
	g.calls++
	if registry, ok := options.Get(opt.ToolsKey).(*tool.Registry); ok && registry.Len() > 0 && conversation.Last().Role == schema.RoleUser {
		name := registry.Names()[0]
		return &schema.Message{
			Role:    schema.RoleAssistant,
			Content: []schema.ContentBlock{schema.NewToolCall("call-1", name, json.RawMessage(`{"horizon":168}`))},
		}, &schema.Usage{}, nil
	}
	return schema.NewMessage(schema.RoleAssistant, g.answer), &schema.Usage{}, nil
}

func toolbox(t *testing.T, names ...string) string {
	t.Helper()
	tools := make([]tool.Tool, 0, len(names))
	for _, name := range names {
		tools = append(tools, tool.New(name, "Remote "+name, nil, func(context.Context, json.RawMessage) (any, error) {
			return map[string]any{"forecast": []int{1, 2, 3}}, nil
		}))
	}
	srv := httptest.NewServer(server.New("toolbox", "0.0.1", tool.Build(context.Background(), [][]tool.Tool{tools})))
	t.Cleanup(srv.Close)
	return srv.URL + "/sse"
}

///////////////////////////////////////////////////////////////////////////////
// TESTS

func Test_agents_001(t *testing.T) {
	assert := assert.New(t)

	// No tool server: only the search sub-agent
	app, err := bugassistant.New(context.Background(), agents.Config{Generator: new(echoGenerator)})
	require.NoError(t, err)
	defer app.Close()

	assert.Equal([]string{bugassistant.SearchName}, app.Registry().Names())
	assert.Equal(bugassistant.Name, app.Agent().Name)
	assert.Equal(bugassistant.OutputKey, app.Agent().OutputKey)
	assert.Equal(agents.DefaultModel, app.Agent().Model)
	assert.Equal(0, app.Catalog().Len())
	assert.NoError(app.Close())
}

func Test_agents_002(t *testing.T) {
	assert := assert.New(t)

	// No tool server: no tools at all
	app, err := forecast.New(context.Background(), agents.Config{Generator: new(echoGenerator), Model: "gemini-test"})
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(0, app.Registry().Len())
	assert.Equal("gemini-test", app.Agent().Model)
	assert.Equal("Time Series Forecasting Agent", app.Banner().Title)
	assert.Len(app.Banner().Examples, 3)
}

func Test_agents_003(t *testing.T) {
	assert := assert.New(t)

	// A missing model service is a construction error
	_, err := forecast.New(context.Background(), agents.Config{})
	assert.ErrorIs(err, adk.ErrBadParameter)
	_, err = bugassistant.New(context.Background(), agents.Config{})
	assert.ErrorIs(err, adk.ErrBadParameter)
}

func Test_agents_004(t *testing.T) {
	assert := assert.New(t)

	// Remote tools come first, the search sub-agent last, duplicates dropped
	url := toolbox(t, "search_tickets", "create_ticket", bugassistant.SearchName)
	app, err := bugassistant.New(context.Background(), agents.Config{Generator: new(echoGenerator), ToolboxURL: url})
	require.NoError(t, err)
	defer app.Close()

	assert.Equal([]string{"search_tickets", "create_ticket", bugassistant.SearchName}, app.Registry().Names())
	assert.Equal("Remote "+bugassistant.SearchName, app.Registry().Lookup(bugassistant.SearchName).Description())
	if dropped := app.Registry().Dropped(); assert.Len(dropped, 1) {
		assert.Equal(bugassistant.SearchName, dropped[0].Name)
		assert.Equal(-1, dropped[0].Source)
	}
}

func Test_agents_005(t *testing.T) {
	assert := assert.New(t)

	// A turn through the loop: the tool is called and the answer is printed
	url := toolbox(t, "forecast_liquor_sales")
	g := &echoGenerator{answer: "Sales will rise."}
	app, err := forecast.New(context.Background(), agents.Config{Generator: g, ToolboxURL: url})
	require.NoError(t, err)
	defer app.Close()

	s, err := app.NewSession(context.Background())
	require.NoError(t, err)
	assert.Equal(forecast.Name, s.AgentName)
	assert.Equal(agents.DefaultUserID, s.UserID)

	var out bytes.Buffer
	loop := repl.New(strings.NewReader("forecast sales\nquit\n"), &out, turn.New(app.Runner(), &out), s, repl.WithBanner(app.Banner()))
	assert.NoError(loop.Run(context.Background()))

	assert.Equal(1, loop.Turns())
	assert.Equal(2, g.calls)
	assert.Contains(out.String(), "Agent > Sales will rise.")
	assert.Contains(out.String(), "Exiting agent.")

	// The session holds the user message, the call, the result and the answer
	if assert.Equal(4, s.Len()) {
		results := s.Messages[2].ToolResults()
		if assert.Len(results, 1) {
			assert.Equal(map[string]any{"result": map[string]any{"forecast": []any{float64(1), float64(2), float64(3)}}}, results[0].Payload())
		}
	}
}

func Test_agents_006(t *testing.T) {
	assert := assert.New(t)

	// The search sub-agent runs as a tool
	g := &echoGenerator{answer: "Pump failures are common."}
	search, err := bugassistant.NewSearchTool(agents.Config{Generator: g})
	require.NoError(t, err)
	assert.Equal(bugassistant.SearchName, search.Name())
	assert.Equal(bugassistant.SearchDescription, search.Description())

	value, err := search.Run(context.Background(), json.RawMessage(`{"request":"espresso pump"}`))
	assert.NoError(err)
	assert.Equal(map[string]any{"result": "Pump failures are common."}, value)
}
