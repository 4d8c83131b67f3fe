package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	// Packages
	kong "github.com/alecthomas/kong"
	client "github.com/mutablelogic/go-client"
	zerolog "github.com/rs/zerolog"
	hlog "github.com/rs/zerolog/hlog"
	adk "github.com/zhaohuiwang/adk-samples"
	catalog "github.com/zhaohuiwang/adk-samples/pkg/catalog"
	logger "github.com/zhaohuiwang/adk-samples/pkg/logger"
	mcp "github.com/zhaohuiwang/adk-samples/pkg/mcp"
	mcpclient "github.com/zhaohuiwang/adk-samples/pkg/mcp/client"
	server "github.com/zhaohuiwang/adk-samples/pkg/mcp/server"
	tool "github.com/zhaohuiwang/adk-samples/pkg/tool"
	table "github.com/zhaohuiwang/adk-samples/pkg/ui/table"
	version "github.com/zhaohuiwang/adk-samples/pkg/version"
	otel "go.opentelemetry.io/otel"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type CLI struct {
	Globals

	// Commands
	Ping    PingCommand    `cmd:"" help:"Ping the MCP server"`
	Tools   ToolsCommand   `cmd:"" help:"List available tools, or the parameters of one tool"`
	Do      DoCommand      `cmd:"" help:"Call a tool by name"`
	Serve   ServeCommand   `cmd:"" help:"Publish tools over HTTP or standard input and output"`
	Version VersionCommand `cmd:"" help:"Print the version"`
}

type Globals struct {
	Auth     string `name:"auth" env:"MCP_AUTH" help:"Authentication in the form scheme=token (e.g. bearer=TOKEN)" optional:""`
	Debug    bool   `name:"debug" help:"Enable debug output" default:"false"`
	LogLevel string `name:"log-level" env:"MCP_LOG_LEVEL" help:"Log level (debug, info, warn, error)" default:"warn"`

	// Private
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
}

type PingCommand struct {
	URL string `arg:"" help:"MCP server URL"`
}

type ToolsCommand struct {
	URL  string `arg:"" help:"MCP server URL"`
	Name string `arg:"" help:"Tool name" optional:""`
}

type DoCommand struct {
	URL  string   `arg:"" help:"MCP server URL"`
	Name string   `arg:"" help:"Tool name"`
	Args []string `arg:"" help:"Tool arguments as key=value pairs" optional:""`
}

type ServeCommand struct {
	Upstream string `name:"upstream" help:"Republish the tools of this MCP server" optional:""`
	Listen   string `name:"listen" help:"Listen address" default:"localhost:8080"`
	Stdio    bool   `name:"stdio" help:"Serve on standard input and output instead of HTTP"`
}

type VersionCommand struct{}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	name          = "mcp-client"
	streamPath    = "/sse"
	shutdownGrace = 5 * time.Second
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func main() {
	cli := CLI{}
	cmd := kong.Parse(&cli,
		kong.Name(name),
		kong.Description("MCP (Model Context Protocol) client"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	// Create context, which carries the logger
	cli.ctx, cli.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cli.cancel()
	cli.log = logger.New(os.Stderr, logger.Config{Level: cli.LogLevel, Debug: cli.Debug})
	cli.ctx = logger.WithContext(cli.ctx, cli.log)

	// Run the selected command
	cmd.FatalIfErrorf(cmd.Run(&cli.Globals))
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *PingCommand) Run(g *Globals) error {
	c, err := g.connect(cmd.URL)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Ping(g.ctx); err != nil {
		return err
	}
	fmt.Println("OK")

	// Print server info
	if info := c.ServerInfo(); info != nil {
		fmt.Printf("Server: %s %s (protocol %s, transport %s)\n", info.ServerInfo.Name, info.ServerInfo.Version, info.Version, c.Transport())
		fmt.Printf("Capabilities: tools=%v prompts=%v resources=%v logging=%v\n",
			info.Capabilities.Tools != nil,
			info.Capabilities.Prompts != nil,
			info.Capabilities.Resources != nil,
			info.Capabilities.Logging != nil,
		)
	}
	return nil
}

func (cmd *ToolsCommand) Run(g *Globals) error {
	c, err := g.catalog(cmd.URL)
	if err != nil {
		return err
	}
	defer c.Close()
	registry := tool.Build(g.ctx, [][]tool.Tool{c.Tools()})

	// One tool
	if cmd.Name != "" {
		t := registry.Lookup(cmd.Name)
		if t == nil {
			return adk.ErrNotFound.Withf("tool %q", cmd.Name)
		}
		desc := tool.Describe(t)
		fmt.Printf("%s\n  %s\n\n", table.FormatCell(table.Bold{Value: desc.Name}), desc.Description)
		return table.Write(os.Stdout, table.Parameters(desc.Parameters))
	}

	// All tools
	if err := table.Write(os.Stdout, table.Tools(registry.Descriptors())); err != nil {
		return err
	}
	fmt.Printf("\n%d tools\n", registry.Len())
	return nil
}

func (cmd *DoCommand) Run(g *Globals) error {
	c, err := g.connect(cmd.URL)
	if err != nil {
		return err
	}
	defer c.Close()

	// Parse key=value args into JSON object
	args, err := parseArgsJSON(cmd.Args)
	if err != nil {
		return err
	}

	result, err := c.CallTool(g.ctx, cmd.Name, args)
	if err != nil {
		return err
	}

	if result.Error {
		fmt.Fprintln(os.Stderr, "Tool returned an error")
	}
	for _, content := range result.Content {
		switch content.Type {
		case "text":
			fmt.Println(content.Text)
		default:
			fmt.Printf("[%s] %s\n", content.Type, content.MimeType)
		}
	}
	return nil
}

func (cmd *ServeCommand) Run(g *Globals) error {
	// Tools published: the upstream tools, then the local ones
	upstream, err := g.catalog(cmd.Upstream)
	if err != nil {
		return err
	}
	defer upstream.Close()
	registry := tool.Build(g.ctx, [][]tool.Tool{upstream.Tools()}, clockTool())
	srv := server.New(name, version.Version(), registry)

	if cmd.Stdio {
		return srv.RunStdio(g.ctx, os.Stdin, os.Stdout)
	}

	// Log each request with the logger of the command
	handler := hlog.NewHandler(g.log)(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().Str("method", r.Method).Stringer("url", r.URL).Int("status", status).Dur("duration", duration).Msg("request")
	})(srv))
	mux := http.NewServeMux()
	mux.Handle(streamPath, handler)
	mux.Handle(streamPath+server.MessagePath, handler)

	httpserver := &http.Server{Addr: cmd.Listen, Handler: mux}
	go func() {
		<-g.ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = httpserver.Shutdown(ctx)
	}()

	fmt.Fprintf(os.Stderr, "Serving %d tools on http://%s%s\n", registry.Len(), cmd.Listen, streamPath)
	if err := httpserver.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (cmd *VersionCommand) Run(g *Globals) error {
	_, err := fmt.Println(string(version.JSON(name)))
	return err
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// clientOpts returns the client options from the global flags
func (g *Globals) clientOpts() ([]client.ClientOpt, *client.Token, error) {
	var opts []client.ClientOpt
	var token *client.Token
	if g.Auth != "" {
		parts := strings.SplitN(g.Auth, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, nil, adk.ErrBadParameter.With("--auth must be in the form scheme=token (e.g. bearer=TOKEN)")
		}
		scheme := parts[0]
		if strings.EqualFold(scheme, "bearer") {
			scheme = client.Bearer
		}
		token = &client.Token{Scheme: scheme, Value: parts[1]}
		opts = append(opts, client.OptReqToken(*token))
	}
	if g.Debug {
		opts = append(opts, client.OptTrace(os.Stderr, true))
	}
	return opts, token, nil
}

// connect creates an MCP client
func (g *Globals) connect(url string) (*mcpclient.Client, error) {
	opts, token, err := g.clientOpts()
	if err != nil {
		return nil, err
	}
	c, err := mcpclient.New(url, mcp.ClientInfo{
		Name:    name,
		Version: version.Version(),
	}, opts...)
	if err != nil {
		return nil, err
	}

	// Store token for SSE transport raw HTTP requests
	if token != nil {
		c.SetToken(*token)
	}

	// Set notification callback
	c.OnNotification(func(method string, params json.RawMessage) {
		g.log.Info().Str("method", method).Str("params", string(params)).Msg("notification")
	})

	return c, nil
}

// catalog discovers the tools of a server. An empty url results in an
// empty catalog.
func (g *Globals) catalog(url string) (*catalog.Catalog, error) {
	if strings.TrimSpace(url) == "" {
		return catalog.Discover(g.ctx, url), nil
	}
	opts, _, err := g.clientOpts()
	if err != nil {
		return nil, err
	}
	return catalog.Connect(g.ctx, url,
		catalog.WithClientInfo(name, version.Version()),
		catalog.WithClientOpts(opts...),
		catalog.WithTracer(otel.Tracer(name)),
	)
}

// clockTool returns the current time, which agents can use to anchor
// relative dates
func clockTool() tool.Tool {
	return tool.New("current_time", "Returns the current time in RFC 3339 format", nil, func(context.Context, json.RawMessage) (any, error) {
		return time.Now().Format(time.RFC3339), nil
	})
}

// parseArgsJSON converts key=value pairs to a JSON object (json.RawMessage).
// Returns nil if no args are provided.
func parseArgsJSON(args []string) (json.RawMessage, error) {
	if len(args) == 0 {
		return nil, nil
	}
	m := make(map[string]any, len(args))
	for _, kv := range args {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, adk.ErrBadParameter.Withf("argument must be key=value, got %q", kv)
		}
		// Try to parse value as JSON (for numbers, booleans, objects)
		var v any
		if err := json.Unmarshal([]byte(parts[1]), &v); err != nil {
			v = parts[1]
		}
		m[parts[0]] = v
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
