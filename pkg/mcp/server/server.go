// Package server publishes a tool registry as a Model Context Protocol
// server, over HTTP with the SSE transport or over standard input and output.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	// Packages
	zerolog "github.com/rs/zerolog"
	adk "github.com/zhaohuiwang/adk-samples"
	mcp "github.com/zhaohuiwang/adk-samples/pkg/mcp"
	tool "github.com/zhaohuiwang/adk-samples/pkg/tool"
)

///////////////////////////////////////////////////////////////////////
// TYPES

type Server struct {
	name     string
	version  string
	registry *tool.Registry

	// Private members
	mu       sync.RWMutex        // Handler map lock
	handlers map[string]Handler  // Method handlers
	sessions map[string]*session // SSE sessions by identifier
}

// Handler responds to a request. The result of a notification is discarded.
type Handler func(context.Context, any, json.RawMessage) (any, error)

///////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a server with the given name and version, which publishes
// the tools in the registry. The registry may be nil.
func New(name, version string, registry *tool.Registry) *Server {
	self := &Server{
		name:     name,
		version:  version,
		registry: registry,
		handlers: make(map[string]Handler, 10),
		sessions: make(map[string]*session),
	}

	// Register default handlers
	self.HandlerFunc(mcp.MessageTypeInitialize, self.handleInitialize)
	self.HandlerFunc(mcp.MessageTypePing, self.handlePing)
	self.HandlerFunc(mcp.NotificationTypeInitialize, self.handleInitialized)
	self.HandlerFunc(mcp.MessageTypeListTools, self.handleListTools)
	self.HandlerFunc(mcp.MessageTypeCallTool, self.handleCallTool)

	return self
}

///////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// HandlerFunc registers (or removes) a handler for a method
func (server *Server) HandlerFunc(method string, fn Handler) {
	server.mu.Lock()
	defer server.mu.Unlock()
	if fn == nil {
		delete(server.handlers, method)
	} else {
		server.handlers[method] = fn
	}
}

///////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// processRequest decodes a request, calls the handler and returns the
// encoded response, or nil for notifications
func (server *Server) processRequest(ctx context.Context, payload []byte) ([]byte, error) {
	var request mcp.Request
	if err := json.Unmarshal(payload, &request); err != nil {
		return json.Marshal(mcp.Response{
			Version: mcp.RPCVersion,
			Err:     mcp.NewError(mcp.ErrorCodeParseError, err.Error()),
		})
	}

	// Look up and call the handler
	response := mcp.Response{Version: mcp.RPCVersion, ID: request.ID}
	result, err := server.call(ctx, &request)
	if request.ID == nil {
		// Notification, no response
		return nil, nil
	} else if err != nil {
		var target *mcp.Error
		if errors.As(err, &target) {
			response.Err = target
		} else {
			response.Err = mcp.NewError(mcp.ErrorInternalError, err.Error())
		}
	} else if result == nil {
		response.Result = map[string]any{}
	} else {
		response.Result = result
	}

	return json.Marshal(response)
}

func (server *Server) call(ctx context.Context, request *mcp.Request) (any, error) {
	server.mu.RLock()
	fn, exists := server.handlers[request.Method]
	server.mu.RUnlock()
	if !exists {
		return nil, mcp.NewError(mcp.ErrorCodeMethodNotFound, "method not found", request.Method)
	}
	return fn(ctx, request.ID, request.Payload)
}

///////////////////////////////////////////////////////////////////////
// HANDLERS

func (server *Server) handleInitialize(ctx context.Context, _ any, payload json.RawMessage) (any, error) {
	var req mcp.RequestInitialize
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, mcp.NewError(mcp.ErrorCodeInvalidParameters, err.Error())
		}
	}
	zerolog.Ctx(ctx).Debug().Str("client", req.ClientInfo.Name).Str("version", req.ClientInfo.Version).Msg("initialize")

	response := new(mcp.ResponseInitialize)
	response.Version = mcp.ProtocolVersion
	response.ServerInfo.Name = server.name
	response.ServerInfo.Version = server.version
	response.Capabilities.Tools = map[string]any{
		"listChanged": false,
	}
	return response, nil
}

func (server *Server) handlePing(_ context.Context, _ any, _ json.RawMessage) (any, error) {
	return map[string]any{}, nil
}

func (server *Server) handleInitialized(_ context.Context, _ any, _ json.RawMessage) (any, error) {
	return nil, nil
}

func (server *Server) handleListTools(_ context.Context, _ any, _ json.RawMessage) (any, error) {
	response := &mcp.ResponseListTools{
		Tools: []*mcp.Tool{},
	}
	for _, t := range server.registry.Tools() {
		var input any = map[string]any{"type": "object"}
		if s, err := t.Schema(); err == nil && s != nil {
			input = s
		}
		response.Tools = append(response.Tools, &mcp.Tool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: input,
		})
	}
	return response, nil
}

func (server *Server) handleCallTool(ctx context.Context, _ any, payload json.RawMessage) (any, error) {
	var req mcp.RequestToolCall
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, mcp.NewError(mcp.ErrorCodeInvalidParameters, err.Error())
	}

	// Unknown tools are a protocol error, failing tools are reported in the result
	result, err := server.registry.Run(ctx, req.Name, req.Arguments)
	if errors.Is(err, adk.ErrNotFound) {
		return nil, mcp.NewError(mcp.ErrorCodeMethodNotFound, err.Error(), req.Name)
	} else if err != nil {
		return &mcp.ResponseToolCall{
			Content: []*mcp.Content{{Type: "text", Text: err.Error()}},
			Error:   true,
		}, nil
	}

	// Strings are returned as-is, other values as JSON
	var text string
	switch v := result.(type) {
	case string:
		text = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, mcp.NewError(mcp.ErrorInternalError, err.Error())
		}
		text = string(data)
	}

	return &mcp.ResponseToolCall{
		Content: []*mcp.Content{{Type: "text", Text: text}},
	}, nil
}
