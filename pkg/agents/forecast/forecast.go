// Package forecast builds the time series forecasting agent, which calls
// forecasting tools published by a remote tool server.
package forecast

import (
	"context"

	// Packages
	agents "github.com/zhaohuiwang/adk-samples/pkg/agents"
	repl "github.com/zhaohuiwang/adk-samples/pkg/repl"
	runtime "github.com/zhaohuiwang/adk-samples/pkg/runtime"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	Name        = "time-series-forecasting"
	Description = "A general-purpose agent that performs time series forecasting using provided tools."

	// EnvToolboxURL names the environment variable with the tool server
	EnvToolboxURL = "MCP_TOOLBOX_SERVER_URL"
)

const Instruction = `You are a highly skilled expert at time-series forecasting, possessing strong data science skills. You will be provided with tools to solve specific time series problems.

Your general process is as follows:

1.  **Understand the User Request:** Carefully analyze the user's request to determine the forecasting goal (e.g., "forecast Iowa liquor sales for 7 days").
2.  **Identify the Appropriate Tool:** Select the most suitable forecasting tool from the available tools (e.g., forecastIowaLiquorSalesTool) based on the request.
3.  **Determine Parameters:**
    *   Based on the context provided by the user, the tool metadata, and your general understanding of the problem, identify the required parameters for the selected tool.
    *   Pay close attention to units. If the user specifies a duration like "7 days" and the 'horizon' parameter is in hours, convert the duration to hours (7 days * 24 hours/day = 168 hours).
4.  **Validate Parameters:** Before calling the tool, double-check that all required parameters are present and valid. If any parameters are missing or invalid, inform the user and ask for clarification.
5.  **Call the Tool:** Once the parameters are validated, call the tool with the determined parameters.
6.  **Analyze Results and Provide Insights:**
    *   If the tool returns a successful forecast, provide the full forecast details in a human-readable format.
    *   **Crucially, leverage your data science expertise to provide qualitative analysis and insights.** This should include:
        *   Identifying key trends and patterns in the forecast data.
        *   Explaining the potential drivers behind these trends, drawing upon your knowledge of the domain.
        *   Discussing the limitations of the forecast and potential sources of error.
        *   Suggesting potential actions or decisions based on the forecast and your insights.
    *   If an error occurs or the tool returns an error message, inform the user clearly about what happened and what the tool returned (or that it returned nothing).
7.  **Output Forecast Data:** Make sure to output the complete and detailed forecast data as provided by the forecasting tool, along with your qualitative analysis and insights.

Refer to the specific names and descriptions of the tools provided to you to determine their requirements and parameters.
`

// Banner is shown before the first prompt
var Banner = repl.Banner{
	Title: "Time Series Forecasting Agent",
	Examples: []string{
		"predict next week's liquor sales in iowa",
		"how many SF bike trips are expected tomorrow",
		"forecast seattle air quality for the next 10 days",
	},
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns the forecasting agent with the tools discovered at the
// configured tool server. The app must be closed.
func New(ctx context.Context, cfg agents.Config) (*agents.App, error) {
	return agents.New(ctx, cfg, agents.Spec{
		Agent: runtime.Agent{
			Name:        Name,
			Description: Description,
			Model:       cfg.Model,
			Instruction: Instruction,
		},
		UserID: agents.DefaultUserID,
		Banner: Banner,
	})
}
