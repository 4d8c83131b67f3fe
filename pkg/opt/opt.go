package opt

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// A generic option type, which can set options on a generator or runner
type Opt func(*Options) error

// StreamFn receives text fragments as they arrive. The role is "assistant"
// for response text and "thinking" for reasoning text.
type StreamFn func(role, text string)

// Options is the set of applied options. String-like values are held in
// url.Values, anything else in a separate map.
type Options struct {
	url.Values
	any map[string]any
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	SystemPromptKey   = "system"
	TemperatureKey    = "temperature"
	MaxTokensKey      = "max_tokens"
	GoogleSearchKey   = "google_search"
	ToolsKey          = "tools"
	StreamKey         = "stream"
	MaxIterationsKey  = "max_iterations"
	ThinkingBudgetKey = "thinking_budget"
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Apply returns a structure of applied options
func Apply(o ...Opt) (*Options, error) {
	opts := &Options{Values: make(url.Values), any: make(map[string]any)}
	for _, opt := range o {
		if opt == nil {
			continue
		}
		if err := opt(opts); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// GetString returns the trimmed value for key, or empty string if not set
func (o *Options) GetString(key string) string {
	if values, ok := o.Values[key]; ok && len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

// GetStringArray returns all values for key, each trimmed
func (o *Options) GetStringArray(key string) []string {
	values, ok := o.Values[key]
	if !ok {
		return nil
	}
	result := make([]string, len(values))
	for i, v := range values {
		result[i] = strings.TrimSpace(v)
	}
	return result
}

// GetBool returns true if key is present, false if absent
func (o *Options) GetBool(key string) bool {
	_, ok := o.Values[key]
	return ok
}

// GetFloat64 returns the float64 value for key, or 0 if not set or invalid
func (o *Options) GetFloat64(key string) float64 {
	if values, ok := o.Values[key]; ok && len(values) > 0 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(values[0]), 64); err == nil {
			return v
		}
	}
	return 0
}

// GetUint returns the uint value for key, or 0 if not set or invalid
func (o *Options) GetUint(key string) uint {
	if values, ok := o.Values[key]; ok && len(values) > 0 {
		if v, err := strconv.ParseUint(strings.TrimSpace(values[0]), 10, 64); err == nil {
			return uint(v)
		}
	}
	return 0
}

// Has returns true if the key exists
func (o *Options) Has(key string) bool {
	if _, ok := o.Values[key]; ok {
		return true
	}
	_, ok := o.any[key]
	return ok
}

// Get returns an arbitrary value for key, or nil
func (o *Options) Get(key string) any {
	return o.any[key]
}

// GetStream returns the stream callback, or nil if streaming is off
func (o *Options) GetStream() StreamFn {
	if fn, ok := o.any[StreamKey].(StreamFn); ok {
		return fn
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// Error returns an option that always returns an error
func Error(err error) Opt {
	return func(o *Options) error {
		return err
	}
}

// WithOpts combines multiple options into a single option
func WithOpts(options ...Opt) Opt {
	return func(o *Options) error {
		for _, opt := range options {
			if opt == nil {
				continue
			}
			if err := opt(o); err != nil {
				return err
			}
		}
		return nil
	}
}

func AddString(key string, value ...string) Opt {
	return func(o *Options) error {
		for _, v := range value {
			o.Values.Add(key, v)
		}
		return nil
	}
}

func SetString(key, value string) Opt {
	return func(o *Options) error {
		o.Values.Set(key, value)
		return nil
	}
}

func SetUint(key string, value uint) Opt {
	return func(o *Options) error {
		o.Values.Set(key, fmt.Sprintf("%d", value))
		return nil
	}
}

func SetFloat64(key string, value float64) Opt {
	return func(o *Options) error {
		o.Values.Set(key, strconv.FormatFloat(value, 'f', -1, 64))
		return nil
	}
}

func SetBool(key string, value bool) Opt {
	return func(o *Options) error {
		if value {
			o.Values.Set(key, "true")
		} else {
			o.Values.Del(key)
		}
		return nil
	}
}

func SetAny(key string, value any) Opt {
	return func(o *Options) error {
		if value == nil {
			delete(o.any, key)
		} else {
			o.any[key] = value
		}
		return nil
	}
}

// WithSystemPrompt sets the system instruction
func WithSystemPrompt(value string) Opt {
	return SetString(SystemPromptKey, value)
}

// WithTemperature sets the sampling temperature, between 0 and 2
func WithTemperature(value float64) Opt {
	if value < 0 || value > 2 {
		return Error(fmt.Errorf("temperature must be between 0 and 2"))
	}
	return SetFloat64(TemperatureKey, value)
}

// WithMaxTokens limits the number of output tokens
func WithMaxTokens(value uint) Opt {
	return SetUint(MaxTokensKey, value)
}

// WithGoogleSearch enables search grounding on the model request
func WithGoogleSearch() Opt {
	return SetBool(GoogleSearchKey, true)
}

// WithTools sets the tools offered to the model. The value is opaque
// to this package and interpreted by the generator.
func WithTools(value any) Opt {
	return SetAny(ToolsKey, value)
}

// WithStream sets a callback which receives text as it is generated
func WithStream(fn StreamFn) Opt {
	if fn == nil {
		return SetAny(StreamKey, nil)
	}
	return SetAny(StreamKey, fn)
}

// WithMaxIterations limits the number of model calls in one turn
func WithMaxIterations(value uint) Opt {
	if value == 0 {
		return Error(fmt.Errorf("max iterations must be at least 1"))
	}
	return SetUint(MaxIterationsKey, value)
}
