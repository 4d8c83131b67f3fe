// Package cli runs a sample agent from the command line: it reads the
// configuration from flags and the environment, builds the agent and runs
// the interactive loop until the user quits.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	// Packages
	kong "github.com/alecthomas/kong"
	termenv "github.com/muesli/termenv"
	client "github.com/mutablelogic/go-client"
	adk "github.com/zhaohuiwang/adk-samples"
	agents "github.com/zhaohuiwang/adk-samples/pkg/agents"
	catalog "github.com/zhaohuiwang/adk-samples/pkg/catalog"
	logger "github.com/zhaohuiwang/adk-samples/pkg/logger"
	opt "github.com/zhaohuiwang/adk-samples/pkg/opt"
	google "github.com/zhaohuiwang/adk-samples/pkg/provider/google"
	repl "github.com/zhaohuiwang/adk-samples/pkg/repl"
	runtime "github.com/zhaohuiwang/adk-samples/pkg/runtime"
	session "github.com/zhaohuiwang/adk-samples/pkg/session"
	turn "github.com/zhaohuiwang/adk-samples/pkg/turn"
	version "github.com/zhaohuiwang/adk-samples/pkg/version"
	otel "go.opentelemetry.io/otel"
	trace "go.opentelemetry.io/otel/trace"
	term "golang.org/x/term"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Globals are the flags shared by the agent binaries. The tool server URL
// is declared by each binary, since the environment variable differs.
type Globals struct {
	APIKey        string   `name:"api-key" env:"GOOGLE_API_KEY,GEMINI_API_KEY" help:"Gemini API key"`
	Model         string   `name:"model" env:"AGENT_MODEL" help:"Model name" default:"${model}"`
	MaxIterations uint     `name:"max-iterations" env:"AGENT_MAX_ITERATIONS" help:"Maximum model calls in one turn" default:"10"`
	Temperature   *float64 `name:"temperature" env:"AGENT_TEMPERATURE" help:"Sampling temperature, between 0 and 2"`
	MaxTokens     uint     `name:"max-tokens" env:"AGENT_MAX_TOKENS" help:"Maximum output tokens for each model call"`
	Thinking      uint     `name:"thinking-budget" env:"AGENT_THINKING_BUDGET" help:"Token budget for models which think"`
	SessionDir    string   `name:"session-dir" env:"AGENT_SESSION_DIR" help:"Directory for session files, sessions are kept in memory when empty" type:"path"`
	Markdown      bool     `name:"markdown" env:"AGENT_MARKDOWN" help:"Render each response as markdown on a terminal once complete, instead of streaming it"`
	Debug         bool     `name:"debug" env:"AGENT_DEBUG" help:"Enable debug logging and trace model requests"`
	LogLevel      string   `name:"log-level" env:"AGENT_LOG_LEVEL" help:"Log level (debug, info, warn, error)" default:"warn"`
	Version       bool     `name:"version" help:"Print the version and exit"`
}

// BuildFunc builds an agent from its configuration
type BuildFunc func(context.Context, agents.Config) (*agents.App, error)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Vars are the kong variables the globals refer to
var Vars = kong.Vars{
	"model": agents.DefaultModel,
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Run builds the agent and runs the interactive loop on standard input and
// output until the user quits, input ends or the process is interrupted
func (g *Globals) Run(name, toolboxURL string, build BuildFunc) error {
	if g.Version {
		_, err := fmt.Fprintln(os.Stdout, string(version.JSON(name)))
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Logs go to standard error, so they do not mix with the conversation
	log := logger.New(os.Stderr, logger.Config{Level: g.LogLevel, Debug: g.Debug})
	ctx = logger.WithContext(ctx, log)
	tracer := otel.Tracer(name)

	cfg, err := g.config(ctx, toolboxURL, tracer)
	if err != nil {
		return err
	}

	app, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}()
	log.Debug().Str("agent", app.String()).Msg("agent ready")

	s, err := app.NewSession(ctx)
	if err != nil {
		return err
	}

	turnOpts := []turn.Opt{turn.WithTracer(tracer)}
	width := terminalWidth(os.Stdout)
	if g.Markdown && width > 0 {
		turnOpts = append(turnOpts, turn.WithMarkdown(markdownStyle(), width))
	}
	turns := turn.New(app.Runner(), os.Stdout, turnOpts...)
	loop := repl.New(os.Stdin, os.Stdout, turns, s, repl.WithBanner(app.Banner()), repl.WithWidth(width))
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Main parses the command line into cli, and calls its Run method
func Main(cli any, name, description string) {
	ctx := kong.Parse(cli,
		kong.Name(name),
		kong.Description(description),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		Vars,
	)
	ctx.FatalIfErrorf(ctx.Run())
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (g *Globals) config(ctx context.Context, toolboxURL string, tracer trace.Tracer) (agents.Config, error) {
	var cfg agents.Config

	// Model service
	if strings.TrimSpace(g.APIKey) == "" {
		return cfg, adk.ErrBadParameter.With("GOOGLE_API_KEY is not set")
	}
	opts := []client.ClientOpt{client.OptUserAgent(version.UserAgent())}
	if g.Debug {
		opts = append(opts, client.OptTrace(os.Stderr, true))
	}
	opts = append(opts, client.OptTracer(tracer))
	generator, err := google.New(g.APIKey, opts...)
	if err != nil {
		return cfg, err
	}

	// Sessions
	var store session.Store
	if g.SessionDir != "" {
		if store, err = session.NewFileStore(g.SessionDir); err != nil {
			return cfg, err
		}
		logger.From(ctx).Debug().Str("dir", g.SessionDir).Msg("session files")
	}

	generate, err := g.generateOpts()
	if err != nil {
		return cfg, err
	}

	cfg = agents.Config{
		ToolboxURL:  toolboxURL,
		Model:       g.Model,
		Generator:   generator,
		Store:       store,
		CatalogOpts: []catalog.Opt{catalog.WithClientInfo(version.Name(), version.Version()), catalog.WithTracer(tracer)},
		RuntimeOpts: []runtime.Opt{runtime.WithMaxIterations(g.MaxIterations), runtime.WithGenerateOpts(generate...), runtime.WithTracer(tracer)},
	}
	return cfg, nil
}

// generateOpts returns the model options from the flags, which are checked
// before the agent starts
func (g *Globals) generateOpts() ([]opt.Opt, error) {
	var result []opt.Opt
	if g.Temperature != nil {
		result = append(result, opt.WithTemperature(*g.Temperature))
	}
	if g.MaxTokens > 0 {
		result = append(result, opt.WithMaxTokens(g.MaxTokens))
	}
	if g.Thinking > 0 {
		result = append(result, google.WithThinkingBudget(g.Thinking))
	}
	if _, err := opt.Apply(result...); err != nil {
		return nil, adk.ErrBadParameter.With(err)
	}
	return result, nil
}

// terminalWidth returns the width of the terminal, or zero when f is not
// a terminal
func terminalWidth(f *os.File) int {
	if !logger.IsTerminal(f) {
		return 0
	}
	if width, _, err := term.GetSize(int(f.Fd())); err == nil {
		return width
	}
	return 0
}

// markdownStyle returns the glamour style for the terminal background
func markdownStyle() string {
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
