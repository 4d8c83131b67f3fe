package catalog

import (
	"time"

	// Packages
	client "github.com/mutablelogic/go-client"
	adk "github.com/zhaohuiwang/adk-samples"
	mcp "github.com/zhaohuiwang/adk-samples/pkg/mcp"
	version "github.com/zhaohuiwang/adk-samples/pkg/version"
	trace "go.opentelemetry.io/otel/trace"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is an option for discovery
type Opt func(*opts) error

type opts struct {
	info       mcp.ClientInfo
	clientOpts []client.ClientOpt
	timeout    time.Duration
	tracer     trace.Tracer
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// DefaultTimeout bounds the handshake and tool listing
	DefaultTimeout = 30 * time.Second
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func applyOpts(opt ...Opt) (*opts, error) {
	o := &opts{
		info:    mcp.ClientInfo{Name: version.Name(), Version: version.Version()},
		timeout: DefaultTimeout,
	}
	for _, fn := range opt {
		if fn == nil {
			continue
		}
		if err := fn(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithClientInfo sets the name and version sent in the handshake
func WithClientInfo(name, version string) Opt {
	return func(o *opts) error {
		if name == "" {
			return adk.ErrBadParameter.With("client name is required")
		}
		o.info = mcp.ClientInfo{Name: name, Version: version}
		return nil
	}
}

// WithClientOpts appends options for the HTTP client, such as tracing,
// timeouts and authentication
func WithClientOpts(v ...client.ClientOpt) Opt {
	return func(o *opts) error {
		o.clientOpts = append(o.clientOpts, v...)
		return nil
	}
}

// WithTimeout bounds the time taken to connect and list tools
func WithTimeout(v time.Duration) Opt {
	return func(o *opts) error {
		if v <= 0 {
			return adk.ErrBadParameter.Withf("invalid timeout: %v", v)
		}
		o.timeout = v
		return nil
	}
}

// WithTracer sets the tracer for discovery spans
func WithTracer(v trace.Tracer) Opt {
	return func(o *opts) error {
		o.tracer = v
		return nil
	}
}
