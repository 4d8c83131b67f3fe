package opt_test

import (
	"errors"
	"testing"

	// Packages
	assert "github.com/stretchr/testify/assert"
	opt "github.com/zhaohuiwang/adk-samples/pkg/opt"
)

func TestApplyEmpty(t *testing.T) {
	assert := assert.New(t)
	opts, err := opt.Apply()
	assert.NoError(err)
	assert.NotNil(opts)
	assert.False(opts.Has("missing"))
	assert.Nil(opts.GetStream())
}

func TestStringOptions(t *testing.T) {
	assert := assert.New(t)
	opts, err := opt.Apply(opt.AddString("key", " value1 ", "value2"))
	assert.NoError(err)
	assert.Equal([]string{"value1", "value2"}, opts.GetStringArray("key"))
	assert.Equal("value1", opts.GetString("key"))
}

func TestNumberOptions(t *testing.T) {
	assert := assert.New(t)
	opts, err := opt.Apply(opt.WithTemperature(0.5), opt.WithMaxTokens(100))
	assert.NoError(err)
	assert.InDelta(0.5, opts.GetFloat64(opt.TemperatureKey), 1e-9)
	assert.Equal(uint(100), opts.GetUint(opt.MaxTokensKey))
}

func TestBoolOptions(t *testing.T) {
	assert := assert.New(t)
	opts, err := opt.Apply(opt.WithGoogleSearch())
	assert.NoError(err)
	assert.True(opts.GetBool(opt.GoogleSearchKey))

	opts, err = opt.Apply(opt.WithGoogleSearch(), opt.SetBool(opt.GoogleSearchKey, false))
	assert.NoError(err)
	assert.False(opts.GetBool(opt.GoogleSearchKey))
}

func TestStreamOption(t *testing.T) {
	assert := assert.New(t)
	var got string
	opts, err := opt.Apply(opt.WithStream(func(role, text string) {
		got = role + ":" + text
	}))
	assert.NoError(err)
	fn := opts.GetStream()
	if assert.NotNil(fn) {
		fn("assistant", "hi")
	}
	assert.Equal("assistant:hi", got)
}

func TestAnyOption(t *testing.T) {
	assert := assert.New(t)
	tools := []string{"a", "b"}
	opts, err := opt.Apply(opt.WithTools(tools))
	assert.NoError(err)
	assert.True(opts.Has(opt.ToolsKey))
	assert.Equal(tools, opts.Get(opt.ToolsKey))
}

func TestErrorOption(t *testing.T) {
	assert := assert.New(t)
	sentinel := errors.New("boom")
	_, err := opt.Apply(opt.WithOpts(opt.WithSystemPrompt("x"), opt.Error(sentinel)))
	assert.ErrorIs(err, sentinel)

	_, err = opt.Apply(opt.WithTemperature(3))
	assert.Error(err)

	_, err = opt.Apply(opt.WithMaxIterations(0))
	assert.Error(err)
}
