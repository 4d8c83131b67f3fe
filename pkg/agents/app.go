// Package agents holds what the sample agents share: configuration, and the
// application which owns the tool catalog, the registry and the runner.
package agents

import (
	"context"
	"errors"

	// Packages
	adk "github.com/zhaohuiwang/adk-samples"
	catalog "github.com/zhaohuiwang/adk-samples/pkg/catalog"
	repl "github.com/zhaohuiwang/adk-samples/pkg/repl"
	runtime "github.com/zhaohuiwang/adk-samples/pkg/runtime"
	session "github.com/zhaohuiwang/adk-samples/pkg/session"
	tool "github.com/zhaohuiwang/adk-samples/pkg/tool"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Config is the configuration of a sample agent
type Config struct {
	ToolboxURL  string        // Tool server, empty for no remote tools
	Model       string        // Model name, empty for the default
	Generator   adk.Generator // Model service
	Store       session.Store // Session store, nil for memory
	CatalogOpts []catalog.Opt // Tool discovery options
	RuntimeOpts []runtime.Opt // Runner options
	Local       []tool.Tool   // Extra local tools, appended last
}

// App is a constructed agent ready to run. It owns the tool catalog and
// must be closed.
type App struct {
	agent   runtime.Agent
	runner  *runtime.Runner
	catalog *catalog.Catalog
	store   session.Store
	userID  string
	banner  repl.Banner
}

// Spec describes how to build an app
type Spec struct {
	Agent  runtime.Agent // Agent definition, without tools
	UserID string
	Banner repl.Banner
	Local  []tool.Tool
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	DefaultModel  = "gemini-2.0-flash"
	DefaultUserID = "tmp-user"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New discovers the remote tools, builds the registry with the local tools
// last, and returns the app. Discovery failures leave the agent without
// remote tools. Any other failure closes the catalog and returns an error.
func New(ctx context.Context, cfg Config, spec Spec) (_ *App, err error) {
	if cfg.Generator == nil {
		return nil, adk.ErrBadParameter.With("model service is required")
	}
	store := cfg.Store
	if store == nil {
		store = session.NewMemoryStore()
	}

	app := &App{
		agent:  spec.Agent,
		store:  store,
		userID: spec.UserID,
		banner: spec.Banner,
	}
	if app.agent.Model == "" {
		app.agent.Model = cfg.Model
	}
	if app.agent.Model == "" {
		app.agent.Model = DefaultModel
	}
	if app.userID == "" {
		app.userID = DefaultUserID
	}

	// Discover remote tools, and release them on error
	app.catalog = catalog.Discover(ctx, cfg.ToolboxURL, cfg.CatalogOpts...)
	defer func() {
		if err != nil {
			err = errors.Join(err, app.catalog.Close())
		}
	}()

	local := append(append([]tool.Tool{}, spec.Local...), cfg.Local...)
	app.agent.Tools = tool.Build(ctx, [][]tool.Tool{app.catalog.Tools()}, local...)

	if app.runner, err = runtime.New(&app.agent, cfg.Generator, store, cfg.RuntimeOpts...); err != nil {
		return nil, err
	}
	return app, nil
}

// Close releases the tool catalog
func (app *App) Close() error {
	return app.catalog.Close()
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Agent returns the agent definition, including its tools
func (app *App) Agent() runtime.Agent {
	return app.agent
}

// Runner returns the runner of the agent
func (app *App) Runner() *runtime.Runner {
	return app.runner
}

// Registry returns the tools of the agent
func (app *App) Registry() *tool.Registry {
	return app.agent.Tools
}

// Catalog returns the remote tool catalog, which may be empty
func (app *App) Catalog() *catalog.Catalog {
	return app.catalog
}

// Banner returns the banner printed by the interactive loop
func (app *App) Banner() repl.Banner {
	return app.banner
}

// NewSession creates the session of an interactive run
func (app *App) NewSession(ctx context.Context) (*session.Session, error) {
	return app.store.Create(ctx, app.agent.Name, app.userID)
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (app *App) String() string {
	return app.agent.String()
}
