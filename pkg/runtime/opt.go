package runtime

import (
	// Packages
	adk "github.com/zhaohuiwang/adk-samples"
	opt "github.com/zhaohuiwang/adk-samples/pkg/opt"
	trace "go.opentelemetry.io/otel/trace"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a runner option
type Opt func(*opts) error

type opts struct {
	maxIterations uint
	extra         []opt.Opt
	tracer        trace.Tracer
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// DefaultMaxIterations is the number of model calls allowed in one turn
	DefaultMaxIterations = 10
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func applyOpts(o ...Opt) (*opts, error) {
	self := &opts{
		maxIterations: DefaultMaxIterations,
	}
	for _, fn := range o {
		if err := fn(self); err != nil {
			return nil, err
		}
	}
	return self, nil
}

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithMaxIterations sets the number of model calls allowed in one turn
func WithMaxIterations(n uint) Opt {
	return func(o *opts) error {
		if n == 0 {
			return adk.ErrBadParameter.With("max iterations must be greater than zero")
		}
		o.maxIterations = n
		return nil
	}
}

// WithGenerateOpts adds options passed to the model on every call, for
// example the temperature
func WithGenerateOpts(v ...opt.Opt) Opt {
	return func(o *opts) error {
		o.extra = append(o.extra, v...)
		return nil
	}
}

// WithTracer sets the tracer for turn spans
func WithTracer(tracer trace.Tracer) Opt {
	return func(o *opts) error {
		o.tracer = tracer
		return nil
	}
}
