package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	// Packages
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
	mcp "github.com/zhaohuiwang/adk-samples/pkg/mcp"
	tool "github.com/zhaohuiwang/adk-samples/pkg/tool"
)

///////////////////////////////////////////////////////////////////////////////
// FIXTURES

func newServer() *Server {
	hello := tool.New("hello", "Say hello", nil, func(context.Context, json.RawMessage) (any, error) {
		return "hello, world", nil
	})
	stats := tool.New("stats", "Return numbers", nil, func(context.Context, json.RawMessage) (any, error) {
		return map[string]any{"count": 3}, nil
	})
	broken := tool.New("broken", "Always fails", nil, func(context.Context, json.RawMessage) (any, error) {
		return nil, errors.New("grinder jammed")
	})
	return New("test", "1.2.3", tool.Build(context.Background(), [][]tool.Tool{{hello, stats, broken}}))
}

// call sends a request and decodes the response
func call(t *testing.T, server *Server, method string, params any) mcp.Response {
	t.Helper()
	request := map[string]any{"jsonrpc": mcp.RPCVersion, "id": 1, "method": method}
	if params != nil {
		request["params"] = params
	}
	payload, err := json.Marshal(request)
	require.NoError(t, err)
	data, err := server.processRequest(context.Background(), payload)
	require.NoError(t, err)
	require.NotNil(t, data)

	var response mcp.Response
	require.NoError(t, json.Unmarshal(data, &response))
	return response
}

func decode(t *testing.T, result any, dest any) {
	t.Helper()
	data, err := json.Marshal(result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, dest))
}

///////////////////////////////////////////////////////////////////////////////
// PROTOCOL TESTS

func Test_server_001(t *testing.T) {
	assert := assert.New(t)
	server := newServer()

	response := call(t, server, mcp.MessageTypeInitialize, mcp.RequestInitialize{
		ProtocolVersion: mcp.ProtocolVersion,
		ClientInfo:      mcp.ClientInfo{Name: "test-client", Version: "0.0.1"},
	})
	assert.Nil(response.Err)

	var result mcp.ResponseInitialize
	decode(t, response.Result, &result)
	assert.Equal(mcp.ProtocolVersion, result.Version)
	assert.Equal("test", result.ServerInfo.Name)
	assert.Equal("1.2.3", result.ServerInfo.Version)
	assert.NotNil(result.Capabilities.Tools)
}

func Test_server_002(t *testing.T) {
	assert := assert.New(t)
	server := newServer()

	// Parse errors are reported with a null identifier
	data, err := server.processRequest(context.Background(), []byte(`{not json`))
	assert.NoError(err)
	var response mcp.Response
	if assert.NoError(json.Unmarshal(data, &response)) && assert.NotNil(response.Err) {
		assert.Equal(mcp.ErrorCodeParseError, response.Err.Code)
	}

	// Notifications have no response
	data, err = server.processRequest(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	assert.NoError(err)
	assert.Nil(data)

	// Unknown methods
	response = call(t, server, "prompts/list", nil)
	if assert.NotNil(response.Err) {
		assert.Equal(mcp.ErrorCodeMethodNotFound, response.Err.Code)
	}

	// Ping
	response = call(t, server, mcp.MessageTypePing, nil)
	assert.Nil(response.Err)
	assert.NotNil(response.Result)
}

func Test_server_003(t *testing.T) {
	assert := assert.New(t)
	server := newServer()

	response := call(t, server, mcp.MessageTypeListTools, nil)
	assert.Nil(response.Err)

	var result mcp.ResponseListTools
	decode(t, response.Result, &result)
	if assert.Len(result.Tools, 3) {
		assert.Equal("hello", result.Tools[0].Name)
		assert.Equal("Say hello", result.Tools[0].Description)
		assert.Equal(map[string]any{"type": "object"}, result.Tools[0].InputSchema)
		assert.Equal("broken", result.Tools[2].Name)
	}
}

func Test_server_004(t *testing.T) {
	assert := assert.New(t)
	server := newServer()

	// Strings are returned as text, other values as JSON
	var result mcp.ResponseToolCall
	response := call(t, server, mcp.MessageTypeCallTool, map[string]any{"name": "hello"})
	assert.Nil(response.Err)
	decode(t, response.Result, &result)
	assert.False(result.Error)
	assert.Equal("hello, world", result.Text())

	result = mcp.ResponseToolCall{}
	response = call(t, server, mcp.MessageTypeCallTool, map[string]any{"name": "stats", "arguments": map[string]any{}})
	decode(t, response.Result, &result)
	assert.JSONEq(`{"count":3}`, result.Text())

	// Tool failures are results flagged as errors
	result = mcp.ResponseToolCall{}
	response = call(t, server, mcp.MessageTypeCallTool, map[string]any{"name": "broken"})
	assert.Nil(response.Err)
	decode(t, response.Result, &result)
	assert.True(result.Error)
	assert.Contains(result.Text(), "grinder jammed")

	// Unknown tools are protocol errors
	response = call(t, server, mcp.MessageTypeCallTool, map[string]any{"name": "missing"})
	if assert.NotNil(response.Err) {
		assert.Equal(mcp.ErrorCodeMethodNotFound, response.Err.Code)
	}
}

func Test_server_005(t *testing.T) {
	assert := assert.New(t)
	server := newServer()

	// Handlers can be replaced and removed
	server.HandlerFunc(mcp.MessageTypePing, func(context.Context, any, json.RawMessage) (any, error) {
		return nil, mcp.NewError(mcp.ErrorCodeInvalidParameters, "no pings")
	})
	response := call(t, server, mcp.MessageTypePing, nil)
	if assert.NotNil(response.Err) {
		assert.Equal(mcp.ErrorCodeInvalidParameters, response.Err.Code)
	}

	server.HandlerFunc(mcp.MessageTypePing, nil)
	response = call(t, server, mcp.MessageTypePing, nil)
	if assert.NotNil(response.Err) {
		assert.Equal(mcp.ErrorCodeMethodNotFound, response.Err.Code)
	}
}

///////////////////////////////////////////////////////////////////////////////
// TRANSPORT TESTS

func Test_server_006(t *testing.T) {
	assert := assert.New(t)
	srv := httptest.NewServer(newServer())
	defer srv.Close()

	// Posting to the stream path is not allowed
	resp, err := http.Post(srv.URL+"/sse", "application/json", strings.NewReader(`{}`))
	if assert.NoError(err) {
		resp.Body.Close()
		assert.Equal(http.StatusMethodNotAllowed, resp.StatusCode)
	}

	// Messages for an unknown session
	resp, err = http.Post(srv.URL+"/sse"+MessagePath+"?sessionId=missing", "application/json", strings.NewReader(`{}`))
	if assert.NoError(err) {
		resp.Body.Close()
		assert.Equal(http.StatusNotFound, resp.StatusCode)
	}

	// Only POST is accepted at the message path
	resp, err = http.Get(srv.URL + "/sse" + MessagePath)
	if assert.NoError(err) {
		resp.Body.Close()
		assert.Equal(http.StatusMethodNotAllowed, resp.StatusCode)
	}
}

func Test_server_007(t *testing.T) {
	assert := assert.New(t)
	server := newServer()

	// Requests on standard input, responses on standard output
	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		``,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	}, "\n"))
	var out bytes.Buffer
	assert.NoError(server.RunStdio(context.Background(), in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if assert.Len(lines, 2) {
		ids := map[float64]bool{}
		for _, line := range lines {
			var response map[string]any
			if assert.NoError(json.Unmarshal([]byte(line), &response)) {
				ids[response["id"].(float64)] = true
			}
		}
		assert.Equal(map[float64]bool{1: true, 2: true}, ids)
	}
}
