// Package version reports the build metadata of the agent binaries
package version

import (
	"encoding/json"
	"runtime"
	"runtime/debug"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Set with -ldflags at build time
var (
	GitTag    string
	GitBranch string
)

const (
	name        = "adk-samples"
	revisionLen = 12
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Name returns the name used to identify the binaries to remote services
func Name() string {
	return name
}

// Version returns the tag, branch or short revision of the build
func Version() string {
	if GitTag != "" {
		return GitTag
	}
	if GitBranch != "" {
		return GitBranch
	}
	if revision := setting("vcs.revision"); revision != "" {
		return revision[:min(len(revision), revisionLen)]
	}
	return "dev"
}

// UserAgent returns name/version for HTTP requests
func UserAgent() string {
	return Name() + "/" + Version()
}

// JSON returns the build metadata for an executable
func JSON(execName string) []byte {
	metadata := map[string]string{
		"name":     execName,
		"version":  Version(),
		"compiler": runtime.Version(),
	}

	// Add ldflags values if set
	if GitTag != "" {
		metadata["tag"] = GitTag
	}
	if GitBranch != "" {
		metadata["branch"] = GitBranch
	}

	// Add build info from runtime/debug
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Path != "" {
		metadata["source"] = info.Main.Path
	}
	for key, value := range map[string]string{
		"hash":       setting("vcs.revision"),
		"build_time": setting("vcs.time"),
	} {
		if value != "" {
			metadata[key] = value
		}
	}
	if setting("vcs.modified") == "true" {
		metadata["modified"] = "true"
	}
	if goos, goarch := setting("GOOS"), setting("GOARCH"); goos != "" && goarch != "" {
		metadata["platform"] = goos + "/" + goarch
	}

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		panic(err)
	}
	return data
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func setting(key string) string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == key {
				return s.Value
			}
		}
	}
	return ""
}
