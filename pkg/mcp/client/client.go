// Package client is a Model Context Protocol client. It connects with the
// Streamable HTTP transport, and falls back to the legacy SSE transport for
// servers which do not accept a POST at the endpoint.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
	client "github.com/mutablelogic/go-client"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	zerolog "github.com/rs/zerolog"
	adk "github.com/zhaohuiwang/adk-samples"
	mcp "github.com/zhaohuiwang/adk-samples/pkg/mcp"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// NotifyFunc is called for server notifications, such as progress updates
// or log messages
type NotifyFunc func(method string, params json.RawMessage)

// Client is an MCP client for one server. It connects on first use and
// remains connected until closed.
type Client struct {
	*client.Client
	url   string
	info  mcp.ClientInfo
	id    atomic.Int64
	token client.Token
	log   *zerolog.Logger

	// Connection state
	mu        sync.Mutex
	transport transport
	server    mcp.ResponseInitialize
	tools     map[string]*entry

	// Notification callback
	notifyMu sync.Mutex
	notify   NotifyFunc
}

// transport sends JSON-RPC messages to the server
type transport interface {
	// Name returns the transport name
	Name() string

	// Call sends a request and waits for its response
	Call(context.Context, *mcp.Request) (*mcp.Response, error)

	// Notify sends a notification, which has no response
	Notify(context.Context, *mcp.Request) error

	// Close ends the session with the server
	Close() error
}

// entry is a listed tool with its resolved input schema, which is nil when
// arguments are left for the server to validate
type entry struct {
	tool   *mcp.Tool
	schema *jsonschema.Resolved
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// Transport names
	TransportStreamable = "streamable-http"
	TransportSSE        = "sse"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a client for the server at url. The client info is sent in
// the handshake, and the options configure the HTTP client.
func New(url string, info mcp.ClientInfo, opts ...client.ClientOpt) (*Client, error) {
	if url == "" {
		return nil, adk.ErrBadParameter.With("missing server url")
	}
	c := &Client{
		url:  url,
		info: info,
		log:  zerolog.Ctx(context.Background()),
	}

	// Endpoint and user agent come first, so options can override them
	defaults := []client.ClientOpt{
		client.OptEndpoint(url),
		client.OptUserAgent(info.Name + "/" + info.Version),
	}
	if httpClient, err := client.New(append(defaults, opts...)...); err != nil {
		return nil, err
	} else {
		c.Client = httpClient
	}
	return c, nil
}

// Close ends the session and resets the client, so the next request
// connects again. Closing a client which is not connected does nothing.
func (c *Client) Close() error {
	c.mu.Lock()
	t := c.transport
	c.transport = nil
	c.server = mcp.ResponseInitialize{}
	c.tools = nil
	c.mu.Unlock()

	if t == nil {
		return nil
	}
	return t.Close()
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// URL returns the server endpoint
func (c *Client) URL() string {
	return c.url
}

// Transport returns the name of the transport in use, or an empty string
// when the client is not connected
func (c *Client) Transport() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport == nil {
		return ""
	}
	return c.transport.Name()
}

// ServerInfo returns the server information from the handshake, or nil
// when the client is not connected
func (c *Client) ServerInfo() *mcp.ResponseInitialize {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport == nil {
		return nil
	}
	server := c.server
	return &server
}

// OnNotification sets the callback for notifications which the server
// sends while a request is in progress, or on the SSE event stream
func (c *Client) OnNotification(fn NotifyFunc) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.notify = fn
}

// SetToken sets the token for requests which bypass the HTTP client, such
// as the SSE event stream. It should match the token set with
// client.OptReqToken.
func (c *Client) SetToken(token client.Token) {
	c.token = token
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// connect returns the transport, performing the handshake on first use.
// Servers which reject the Streamable HTTP handshake with 404 or 405 are
// connected with the SSE transport.
func (c *Client) connect(ctx context.Context) (transport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport != nil {
		return c.transport, nil
	}
	c.log = zerolog.Ctx(ctx)

	var t transport = newStreamable(c)
	server, err := c.handshake(ctx, t)
	if isHTTPStatus(err, http.StatusNotFound) || isHTTPStatus(err, http.StatusMethodNotAllowed) {
		c.log.Debug().Str("url", c.url).Msg("falling back to sse transport")
		var sse *sseTransport
		if sse, err = openSSE(ctx, c); err == nil {
			t = sse
			if server, err = c.handshake(ctx, t); err != nil {
				sse.Close()
			}
		}
	}
	if err != nil {
		return nil, err
	}

	c.transport = t
	c.server = *server
	return t, nil
}

// handshake sends the initialize request and the initialized notification
func (c *Client) handshake(ctx context.Context, t transport) (*mcp.ResponseInitialize, error) {
	var server mcp.ResponseInitialize
	if err := c.roundtrip(ctx, t, mcp.MessageTypeInitialize, mcp.RequestInitialize{
		ProtocolVersion: mcp.ProtocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      c.info,
	}, &server); err != nil {
		return nil, err
	}
	if err := t.Notify(ctx, &mcp.Request{
		Version: mcp.RPCVersion,
		Method:  mcp.NotificationTypeInitialize,
	}); err != nil {
		return nil, err
	}
	return &server, nil
}

// call connects if needed, sends a request and decodes the result into v,
// which may be nil
func (c *Client) call(ctx context.Context, method string, params, v any) error {
	t, err := c.connect(ctx)
	if err != nil {
		return err
	}
	return c.roundtrip(ctx, t, method, params, v)
}

func (c *Client) roundtrip(ctx context.Context, t transport, method string, params, v any) error {
	req := mcp.Request{
		Version: mcp.RPCVersion,
		Method:  method,
		ID:      c.id.Add(1),
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return err
		}
		req.Payload = data
	}

	resp, err := t.Call(ctx, &req)
	if err != nil {
		return err
	} else if resp.Err != nil {
		return resp.Err
	} else if v == nil || resp.Result == nil {
		return nil
	}
	return decodeResult(resp.Result, v)
}

// notifyFn returns the notification callback, or nil
func (c *Client) notifyFn() NotifyFunc {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	return c.notify
}

// dispatch calls the notification callback for a message which has a
// method and no identifier, and returns false for any other message
func (c *Client) dispatch(msg *mcp.Request) bool {
	if msg.ID != nil || msg.Method == "" {
		return false
	}
	if fn := c.notifyFn(); fn != nil {
		fn(msg.Method, msg.Payload)
	}
	return true
}

// authorize sets the token on a request which bypasses the HTTP client
func (c *Client) authorize(req *http.Request) {
	if c.token.Scheme != "" && c.token.Value != "" {
		req.Header.Set("Authorization", c.token.String())
	}
}

// isHTTPStatus returns true if err is an HTTP error with the status code,
// either a bare status or a JSON error body
func isHTTPStatus(err error, code int) bool {
	var httpErr httpresponse.Err
	if errors.As(err, &httpErr) {
		return int(httpErr) == code
	}
	var bodyErr httpresponse.ErrResponse
	if errors.As(err, &bodyErr) {
		return bodyErr.Code == code
	}
	return false
}

// decodeResult converts a decoded result into dest
func decodeResult(result any, dest any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}
