package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	// Packages
	client "github.com/mutablelogic/go-client"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	adk "github.com/zhaohuiwang/adk-samples"
	mcp "github.com/zhaohuiwang/adk-samples/pkg/mcp"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// sseTransport is the legacy SSE transport: the server announces a message
// endpoint on a long-lived event stream, messages are posted to the
// endpoint and responses arrive on the stream
type sseTransport struct {
	c        *Client
	endpoint string
	body     io.ReadCloser
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	once     sync.Once

	// Requests waiting for a response, by identifier
	mu      sync.Mutex
	pending map[int64]chan *mcp.Response
}

var _ transport = (*sseTransport)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// Time to wait for the server to announce the message endpoint
	endpointTimeout = 30 * time.Second

	eventEndpoint = "endpoint"
	eventMessage  = "message"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// openSSE opens the event stream and waits for the message endpoint. The
// stream outlives ctx, and is closed with the transport.
func openSSE(ctx context.Context, c *Client) (*sseTransport, error) {
	streamCtx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, c.url, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", client.ContentTypeTextStream)
	c.authorize(req)

	resp, err := streamClient(c).Do(req)
	if err != nil {
		cancel()
		return nil, adk.ErrUnavailable.With(err)
	} else if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, httpresponse.Err(resp.StatusCode).With("sse transport")
	}

	t := &sseTransport{
		c:       c,
		body:    resp.Body,
		cancel:  cancel,
		pending: make(map[int64]chan *mcp.Response),
	}

	// Read the stream in the background
	endpoint := make(chan string, 1)
	done := make(chan struct{})
	t.wg.Go(func() {
		defer close(done)
		t.read(streamCtx, endpoint)
	})

	// Wait for the endpoint, which is relative to the stream url
	var ep string
	select {
	case ep = <-endpoint:
	case <-done:
		t.Close()
		return nil, adk.ErrUnavailable.With("sse transport: stream closed before endpoint event")
	case <-time.After(endpointTimeout):
		t.Close()
		return nil, adk.ErrUnavailable.With("sse transport: timeout waiting for endpoint event")
	case <-ctx.Done():
		t.Close()
		return nil, ctx.Err()
	}
	if base, err := url.Parse(c.url); err != nil {
		t.Close()
		return nil, err
	} else if ref, err := url.Parse(ep); err != nil {
		t.Close()
		return nil, adk.ErrBadParameter.Withf("sse transport: invalid endpoint %q", ep)
	} else {
		t.endpoint = base.ResolveReference(ref).String()
	}

	c.log.Debug().Str("endpoint", t.endpoint).Msg("sse transport connected")
	return t, nil
}

// Close stops the stream reader and releases waiting requests
func (t *sseTransport) Close() error {
	t.once.Do(func() {
		t.cancel()
		t.body.Close()
		t.wg.Wait()
	})
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (t *sseTransport) Name() string {
	return TransportSSE
}

// Call posts the request, and waits for the response with the same
// identifier on the stream
func (t *sseTransport) Call(ctx context.Context, req *mcp.Request) (*mcp.Response, error) {
	id, ok := toInt64(req.ID)
	if !ok {
		return nil, adk.ErrBadParameter.With("sse transport: request has no numeric id")
	}

	ch := make(chan *mcp.Response, 1)
	t.mu.Lock()
	t.pending[id] = ch
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
	}()

	if err := t.post(ctx, req); err != nil {
		return nil, err
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, adk.ErrUnavailable.With("sse transport: stream closed while waiting for response")
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *sseTransport) Notify(ctx context.Context, req *mcp.Request) error {
	return t.post(ctx, req)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// read decodes the stream, sending the endpoint once and routing responses
// to the waiting requests. When the stream ends the waiting requests are
// released.
func (t *sseTransport) read(ctx context.Context, endpoint chan<- string) {
	defer t.release()
	_ = client.NewTextStream().Decode(t.body, func(event client.TextStreamEvent) error {
		if ctx.Err() != nil {
			return io.EOF
		}
		switch event.Event {
		case eventEndpoint:
			select {
			case endpoint <- endpointFromEvent(event.Data):
			default:
			}
		case eventMessage, "":
			t.route(event)
		}
		return nil
	})
}

// route delivers a response to its request, or dispatches a notification.
// Malformed events are skipped.
func (t *sseTransport) route(event client.TextStreamEvent) {
	var resp mcp.Response
	if err := event.Json(&resp); err != nil {
		return
	}
	if id, ok := toInt64(resp.ID); ok {
		t.mu.Lock()
		ch, exists := t.pending[id]
		t.mu.Unlock()
		if exists {
			select {
			case ch <- &resp:
			default:
			}
		}
		return
	}
	var msg mcp.Request
	if err := event.Json(&msg); err == nil {
		t.c.dispatch(&msg)
	}
}

func (t *sseTransport) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, ch := range t.pending {
		close(ch)
		delete(t.pending, id)
	}
}

// post sends a message to the endpoint. The server acknowledges with a
// status and no meaningful body.
func (t *sseTransport) post(ctx context.Context, msg *mcp.Request) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	t.c.authorize(req)

	resp, err := t.c.Client.Client.Do(req)
	if err != nil {
		return adk.ErrUnavailable.With(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpresponse.Err(resp.StatusCode).With("sse transport")
	}
	return nil
}

// endpointFromEvent accepts the endpoint as plain text or a JSON string
func endpointFromEvent(data string) string {
	ep := strings.TrimSpace(data)
	var quoted string
	if err := json.Unmarshal([]byte(ep), &quoted); err == nil {
		ep = quoted
	}
	return ep
}

// streamClient returns an HTTP client without an overall timeout, for
// long-lived event streams
func streamClient(c *Client) *http.Client {
	hc := *c.Client.Client
	hc.Timeout = 0
	return &hc
}

// toInt64 converts a decoded JSON-RPC identifier to an integer
func toInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}
