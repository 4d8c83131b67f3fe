package version_test

import (
	"encoding/json"
	"strings"
	"testing"

	// Packages
	assert "github.com/stretchr/testify/assert"
	version "github.com/zhaohuiwang/adk-samples/pkg/version"
)

func Test_version_001(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("adk-samples", version.Name())
	assert.NotEmpty(version.Version())
	assert.True(strings.HasPrefix(version.UserAgent(), "adk-samples/"))
}

func Test_version_002(t *testing.T) {
	assert := assert.New(t)

	version.GitTag = "v1.2.3"
	defer func() { version.GitTag = "" }()
	assert.Equal("v1.2.3", version.Version())

	var metadata map[string]string
	assert.NoError(json.Unmarshal(version.JSON("bug-assistant"), &metadata))
	assert.Equal("bug-assistant", metadata["name"])
	assert.Equal("v1.2.3", metadata["tag"])
	assert.NotEmpty(metadata["compiler"])
}
