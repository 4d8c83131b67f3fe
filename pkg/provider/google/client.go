/*
google implements an API client for the Google Gemini REST API.
https://ai.google.dev/gemini-api/docs
*/
package google

import (
	"strings"

	// Packages
	client "github.com/mutablelogic/go-client"
	adk "github.com/zhaohuiwang/adk-samples"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Client struct {
	*client.Client
}

var _ adk.Generator = (*Client)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	endPoint    = "https://generativelanguage.googleapis.com/v1beta"
	defaultName = "gemini"

	// DefaultModel is the model used by the sample agents
	DefaultModel = "gemini-2.0-flash"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new Google Gemini API client with the given API key. Options
// are applied after the defaults, so the endpoint can be replaced.
func New(apiKey string, opts ...client.ClientOpt) (*Client, error) {
	if apiKey = strings.TrimSpace(apiKey); apiKey == "" {
		return nil, adk.ErrBadParameter.With("missing Gemini API key")
	}
	defaults := []client.ClientOpt{
		client.OptEndpoint(endPoint),
		client.OptHeader("x-goog-api-key", apiKey),
	}
	if c, err := client.New(append(defaults, opts...)...); err != nil {
		return nil, err
	} else {
		return &Client{c}, nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Name returns the provider name
func (*Client) Name() string {
	return defaultName
}
