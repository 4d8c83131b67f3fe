// Package catalog discovers the tools published by a remote MCP server and
// exposes them as tool handles.
package catalog

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	// Packages
	otel "github.com/mutablelogic/go-client/pkg/otel"
	types "github.com/mutablelogic/go-server/pkg/types"
	zerolog "github.com/rs/zerolog"
	adk "github.com/zhaohuiwang/adk-samples"
	mcpclient "github.com/zhaohuiwang/adk-samples/pkg/mcp/client"
	tool "github.com/zhaohuiwang/adk-samples/pkg/tool"
	attribute "go.opentelemetry.io/otel/attribute"
	trace "go.opentelemetry.io/otel/trace"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Catalog is a connection to a tool server and the tools it advertised
// when it was discovered. The tools are bound to the catalog, and fail
// once the catalog is closed.
type Catalog struct {
	url    string
	client *mcpclient.Client
	tools  []tool.Tool
	server string
	once   sync.Once
	closed atomic.Bool
	err    error
}

type catalogJSON struct {
	URL       string   `json:"url,omitempty"`
	Server    string   `json:"server,omitempty"`
	Transport string   `json:"transport,omitempty"`
	Tools     []string `json:"tools"`
	Closed    bool     `json:"closed,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Discover returns the tools advertised by the server at url. An empty url
// or any failure results in an empty catalog and a log message, so the
// caller can continue without remote tools.
func Discover(ctx context.Context, url string, opts ...Opt) *Catalog {
	log := zerolog.Ctx(ctx)
	url = strings.TrimSpace(url)
	if url == "" {
		log.Info().Msg("No tool server URL configured, no remote tools will be loaded")
		return &Catalog{}
	}

	c, err := Connect(ctx, url, opts...)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Tool discovery failed, continuing without remote tools")
		return &Catalog{url: url}
	}

	log.Info().Str("url", url).Str("server", c.server).Int("tools", c.Len()).Msg("Tools discovered")
	return c
}

// Connect performs the handshake with the server at url and lists its
// tools. On error the connection is closed.
func Connect(ctx context.Context, url string, opts ...Opt) (_ *Catalog, err error) {
	o, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, adk.ErrBadParameter.With("missing tool server url")
	}

	// OTEL
	ctx, endSpan := otel.StartSpan(o.tracer, ctx, "Discover",
		attribute.String("url", url),
	)
	defer func() { endSpan(err) }()

	// Create the client
	c := &Catalog{url: url}
	if client, err := mcpclient.New(url, o.info, o.clientOpts...); err != nil {
		return nil, err
	} else {
		c.client = client
	}

	// List the tools within the timeout
	listCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	list, err := c.client.ListTools(listCtx)
	if err != nil {
		if closeErr := c.Close(); closeErr != nil {
			zerolog.Ctx(ctx).Debug().Err(closeErr).Str("url", url).Msg("close after failed discovery")
		}
		return nil, err
	}
	for _, t := range list {
		if t == nil {
			continue
		}
		c.tools = append(c.tools, newRemoteTool(ctx, c, t))
	}
	if info := c.client.ServerInfo(); info != nil {
		c.server = info.ServerInfo.Name
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("tools", len(c.tools)),
		attribute.String("transport", c.client.Transport()),
	)

	return c, nil
}

// Close releases the connection to the server. Only the first call has
// an effect, later calls return the same result.
func (c *Catalog) Close() error {
	c.once.Do(func() {
		c.closed.Store(true)
		if c.client != nil {
			c.err = c.client.Close()
		}
	})
	return c.err
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// URL returns the server url, or an empty string
func (c *Catalog) URL() string {
	return c.url
}

// Tools returns the discovered tools, in the order the server listed them
func (c *Catalog) Tools() []tool.Tool {
	return append([]tool.Tool(nil), c.tools...)
}

// Len returns the number of discovered tools
func (c *Catalog) Len() int {
	return len(c.tools)
}

// Transport returns the transport used to reach the server, or an empty
// string when there is no open connection
func (c *Catalog) Transport() string {
	if c.client == nil || c.Closed() {
		return ""
	}
	return c.client.Transport()
}

// Closed returns true after Close has been called
func (c *Catalog) Closed() bool {
	return c.closed.Load()
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (c *Catalog) String() string {
	j := catalogJSON{
		URL:       c.url,
		Server:    c.server,
		Transport: c.Transport(),
		Tools:     make([]string, 0, len(c.tools)),
		Closed:    c.Closed(),
	}
	for _, t := range c.tools {
		j.Tools = append(j.Tools, t.Name())
	}
	return types.Stringify(j)
}
