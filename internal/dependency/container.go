// Package dependency wires the hub's core services using go.uber.org/dig.
package dependency

import (
	"go.uber.org/dig"

	"github.com/7divs7/mcp-hub/internal/config"
	"github.com/7divs7/mcp-hub/internal/httpapi"
	"github.com/7divs7/mcp-hub/internal/mcp"
	"github.com/7divs7/mcp-hub/internal/providers"
	"github.com/7divs7/mcp-hub/internal/registry"
	"github.com/7divs7/mcp-hub/internal/schema"
	"github.com/7divs7/mcp-hub/internal/supervisor"
)

// Options are the externally-supplied inputs for the container.
type Options struct {
	ServersPath string // YAML server list; uploads are persisted here
	ModelsPath  string // provider→model lookup table
	Timeouts    config.Timeouts
}

// Container holds the resolved core service singletons. Callers use the typed
// getters; they never need to import dig directly.
type Container struct {
	sup *supervisor.Supervisor
	reg *registry.Registry
	api *httpapi.Server
}

func (c *Container) Supervisor() *supervisor.Supervisor { return c.sup }
func (c *Container) Registry() *registry.Registry       { return c.reg }
func (c *Container) API() *httpapi.Server               { return c.api }

// New builds and wires all core services.
func New(opts Options) (*Container, error) {
	d := dig.New()

	if err := d.Provide(func() Options { return opts }); err != nil {
		return nil, err
	}
	if err := d.Provide(loadModels); err != nil {
		return nil, err
	}
	if err := d.Provide(newSupervisor); err != nil {
		return nil, err
	}
	if err := d.Provide(registry.New); err != nil {
		return nil, err
	}
	if err := d.Provide(newProviderFactory); err != nil {
		return nil, err
	}
	if err := d.Provide(newAPIServer); err != nil {
		return nil, err
	}

	var result *Container
	err := d.Invoke(func(sup *supervisor.Supervisor, reg *registry.Registry, api *httpapi.Server) {
		result = &Container{sup: sup, reg: reg, api: api}
	})
	return result, err
}

func loadModels(opts Options) (config.Models, error) {
	return config.LoadModels(opts.ModelsPath)
}

func newSupervisor(opts Options) *supervisor.Supervisor {
	return supervisor.New(mcp.NewSession, opts.Timeouts.Handshake)
}

func newProviderFactory(models config.Models) httpapi.ProviderFactory {
	return func(provider, model string) (schema.LLMProvider, error) {
		return providers.FromModels(models, provider, model)
	}
}

func newAPIServer(sup *supervisor.Supervisor, reg *registry.Registry, factory httpapi.ProviderFactory, opts Options) *httpapi.Server {
	return httpapi.New(sup, reg, factory, opts.Timeouts, opts.ServersPath)
}
