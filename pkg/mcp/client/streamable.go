package client

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"sync"

	// Packages
	client "github.com/mutablelogic/go-client"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	mcp "github.com/zhaohuiwang/adk-samples/pkg/mcp"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// streamable is the Streamable HTTP transport: every message is a POST to
// the endpoint, answered with JSON or with an event stream
type streamable struct {
	c       *Client
	mu      sync.Mutex
	session string // Mcp-Session-Id assigned by the server
}

// response decodes a JSON-RPC response and records the session identifier
type response struct {
	mcp.Response
	t *streamable
}

var _ transport = (*streamable)(nil)
var _ client.Unmarshaler = (*response)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// Both JSON and event streams are accepted
	mcpAccept = "application/json, text/event-stream"

	headerSession = "Mcp-Session-Id"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newStreamable(c *Client) *streamable {
	return &streamable{c: c}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (t *streamable) Name() string {
	return TransportStreamable
}

func (t *streamable) Call(ctx context.Context, req *mcp.Request) (*mcp.Response, error) {
	payload, err := client.NewJSONRequestEx(http.MethodPost, req, mcpAccept)
	if err != nil {
		return nil, err
	}
	resp := response{t: t}
	if err := t.c.DoWithContext(ctx, payload, &resp, t.opts(
		client.OptNoTimeout(),
		client.OptTextStreamCallback(resp.eventCallback(t.c)),
	)...); err != nil {
		return nil, err
	}
	return &resp.Response, nil
}

func (t *streamable) Notify(ctx context.Context, req *mcp.Request) error {
	payload, err := client.NewJSONRequestEx(http.MethodPost, req, mcpAccept)
	if err != nil {
		return err
	}
	return t.c.DoWithContext(ctx, payload, nil, t.opts()...)
}

// Close ends the session, when the server assigned one
func (t *streamable) Close() error {
	opts := t.opts()
	if len(opts) == 0 {
		return nil
	}
	return t.c.DoWithContext(context.Background(), client.MethodDelete, nil, opts...)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// opts returns the request options, with the session header when the
// server assigned a session
func (t *streamable) opts(extra ...client.RequestOpt) []client.RequestOpt {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == "" {
		return extra
	}
	return append([]client.RequestOpt{client.OptReqHeader(headerSession, t.session)}, extra...)
}

func (t *streamable) setSession(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session = id
}

///////////////////////////////////////////////////////////////////////////////
// UNMARSHALER

// Unmarshal decodes a JSON response. Event streams are left to the stream
// callback.
func (r *response) Unmarshal(header http.Header, body io.Reader) error {
	if id := header.Get(headerSession); id != "" {
		r.t.setSession(id)
	}
	if ct := header.Get("Content-Type"); ct != "" {
		if mimetype, _, err := mime.ParseMediaType(ct); err == nil && mimetype == client.ContentTypeTextStream {
			return httpresponse.ErrNotImplemented
		}
	}
	return json.NewDecoder(body).Decode(&r.Response)
}

// eventCallback decodes the response from an event stream. Notifications
// which arrive before the response are dispatched.
func (r *response) eventCallback(c *Client) client.TextStreamCallback {
	return func(event client.TextStreamEvent) error {
		if event.Event != "message" && event.Event != "" {
			return nil
		}
		var msg mcp.Request
		if err := event.Json(&msg); err != nil {
			return err
		}
		if c.dispatch(&msg) {
			return nil
		}
		if err := event.Json(&r.Response); err != nil {
			return err
		}
		return io.EOF
	}
}
