package main

import (
	// Packages
	bugassistant "github.com/zhaohuiwang/adk-samples/pkg/agents/bugassistant"
	cli "github.com/zhaohuiwang/adk-samples/pkg/agents/cli"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type CLI struct {
	cli.Globals
	ToolboxURL string `name:"toolbox-url" env:"MCP_TOOLBOX_URL" help:"MCP tool server URL, the agent runs without tools when empty"`
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func main() {
	cli.Main(&CLI{}, "bug-assistant", "Software bug assistant for QuantumRoast")
}

func (c *CLI) Run() error {
	return c.Globals.Run(bugassistant.Name, c.ToolboxURL, bugassistant.New)
}
