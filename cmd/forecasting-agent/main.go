package main

import (
	// Packages
	cli "github.com/zhaohuiwang/adk-samples/pkg/agents/cli"
	forecast "github.com/zhaohuiwang/adk-samples/pkg/agents/forecast"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type CLI struct {
	cli.Globals
	ToolboxURL string `name:"toolbox-url" env:"MCP_TOOLBOX_SERVER_URL" help:"MCP tool server URL, the agent runs without tools when empty"`
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func main() {
	cli.Main(&CLI{}, "forecasting-agent", forecast.Description)
}

func (c *CLI) Run() error {
	return c.Globals.Run(forecast.Name, c.ToolboxURL, forecast.New)
}
