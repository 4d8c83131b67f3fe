// Package bugassistant builds the software bug assistant, which triages
// tickets with the tools of a remote tool server and searches the web
// through a sub-agent.
package bugassistant

import (
	"context"

	// Packages
	agents "github.com/zhaohuiwang/adk-samples/pkg/agents"
	repl "github.com/zhaohuiwang/adk-samples/pkg/repl"
	runtime "github.com/zhaohuiwang/adk-samples/pkg/runtime"
	session "github.com/zhaohuiwang/adk-samples/pkg/session"
	tool "github.com/zhaohuiwang/adk-samples/pkg/tool"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	Name        = "SoftwareBugAssistant"
	Description = "Helps fix bugs"
	OutputKey   = "bug_assistant_result"

	// EnvToolboxURL names the environment variable with the tool server
	EnvToolboxURL = "MCP_TOOLBOX_URL"
)

const (
	SearchName        = "google_search_agent"
	SearchDescription = "Search Google Search"
	SearchInstruction = "You're a specialist in Google Search\n"
	SearchOutputKey   = "google_search_result"
)

const Instruction = `You are a skilled expert in triaging and debugging software issues for a coffee machine company,QuantumRoast.

Your general process is as follows:

1. **Understand the user's request.** Analyze the user's initial request to understand the goal - for example, "I am seeing X issue. Can you help me find similar open issues?" If you do not understand the request, ask for more information.
2. **Identify the appropriate tools.** You will be provided with tools for a SQL-based bug ticket database (create, update, search tickets by description). You will also be able to web search via Google Search. Identify one **or more** appropriate tools to accomplish the user's request.
3. **Populate and validate the parameters.** Before calling the tools, do some reasoning to make sure that you are populating the tool parameters correctly. For example, when creating a new ticket, make sure that the Title and Description are different, and that the Priority field is set. Use common sense to assign P0 to high priority issues, down to P3 for low-priority issues. Always set the default status to “open” especially for new bugs.
4. **Call the tools.** Once the parameters are validated, call the tool with the determined parameters.
5. **Analyze the tools' results, and provide insights back to the user.** Return the tools' result in a human-readable format. State which tools you called, if any. If your result is 2 or more bugs, always use a markdown table to report back. If there is any code, or timestamp, in the result, format the code with markdown backticks, or codeblocks.
6. **Ask the user if they need anything else.**
`

// Banner is shown before the first prompt
var Banner = repl.Banner{
	Title: "Software Bug Assistant",
	Examples: []string{
		"I am seeing the machine display error E42, are there similar open issues?",
		"create a P1 ticket for the grinder jamming on dark roasts",
		"search the web for known espresso pump failure causes",
	},
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns the bug assistant with the tools discovered at the configured
// tool server, followed by the search sub-agent. The app must be closed.
func New(ctx context.Context, cfg agents.Config) (*agents.App, error) {
	search, err := NewSearchTool(cfg)
	if err != nil {
		return nil, err
	}
	return agents.New(ctx, cfg, agents.Spec{
		Agent: runtime.Agent{
			Name:        Name,
			Description: Description,
			Model:       cfg.Model,
			Instruction: Instruction,
			OutputKey:   OutputKey,
		},
		UserID: agents.DefaultUserID,
		Banner: Banner,
		Local:  []tool.Tool{search},
	})
}

// NewSearchTool returns the search sub-agent as a tool. Search grounding
// runs in its own agent, without function declarations.
func NewSearchTool(cfg agents.Config) (tool.Tool, error) {
	model := cfg.Model
	if model == "" {
		model = agents.DefaultModel
	}
	runner, err := runtime.New(&runtime.Agent{
		Name:         SearchName,
		Description:  SearchDescription,
		Model:        model,
		Instruction:  SearchInstruction,
		GoogleSearch: true,
		OutputKey:    SearchOutputKey,
	}, cfg.Generator, session.NewMemoryStore(), cfg.RuntimeOpts...)
	if err != nil {
		return nil, err
	}
	return runtime.NewAgentTool(runner), nil
}
