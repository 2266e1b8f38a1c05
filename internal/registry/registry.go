// Package registry wires GridHealth's compiled-in plugins together.
// It validates the dependency graph at startup, brings plugins up in
// dependency order, and tears them down in reverse.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Arwindpianist/gridhealth/pkg/plugin"
	"go.uber.org/zap"
)

// Compile-time check that the registry can serve as a plugin resolver.
var _ plugin.PluginResolver = (*Registry)(nil)

// Registry holds every registered plugin and the startup order computed
// by Validate. Optional plugins that fail validation, init, or start are
// taken out of service; required ones abort startup instead.
type Registry struct {
	mu         sync.RWMutex
	plugins    map[string]plugin.Plugin
	infos      map[string]plugin.PluginInfo
	startOrder []string // set by Validate
	disabled   map[string]bool
	logger     *zap.Logger
}

func New(logger *zap.Logger) *Registry {
	return &Registry{
		plugins:  make(map[string]plugin.Plugin),
		infos:    make(map[string]plugin.PluginInfo),
		disabled: make(map[string]bool),
		logger:   logger,
	}
}

// Register adds a plugin. All plugins must be registered before Validate.
func (r *Registry) Register(p plugin.Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := p.Info()
	if info.Name == "" {
		return fmt.Errorf("plugin has empty name")
	}
	if _, dup := r.plugins[info.Name]; dup {
		return fmt.Errorf("plugin %q already registered", info.Name)
	}

	r.plugins[info.Name] = p
	r.infos[info.Name] = info
	r.logger.Info("plugin registered",
		zap.String("plugin", info.Name),
		zap.String("version", info.Version),
		zap.Int("api_version", info.APIVersion),
	)
	return nil
}

// Validate checks API version compatibility and the dependency graph,
// then computes the startup order. A plugin whose dependency is missing
// or out of service is itself taken out of service, and that propagates
// to its dependents.
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.sortedNames() {
		if err := supportedAPIVersion(r.infos[name].APIVersion); err != nil {
			if derr := r.takeOutOfService(name, fmt.Errorf("plugin %q: %w", name, err)); derr != nil {
				return derr
			}
		}
	}

	// Missing and disabled dependencies, repeated until no plugin
	// changes state so disables reach transitive dependents.
	for changed := true; changed; {
		changed = false
		for _, name := range r.sortedNames() {
			if r.disabled[name] {
				continue
			}
			for _, dep := range r.infos[name].Dependencies {
				var cause error
				switch {
				case r.plugins[dep] == nil:
					cause = fmt.Errorf("plugin %q requires %q, which is not registered", name, dep)
				case r.disabled[dep]:
					cause = fmt.Errorf("plugin %q requires %q, which is out of service", name, dep)
				default:
					continue
				}
				if err := r.takeOutOfService(name, cause); err != nil {
					return err
				}
				changed = true
				break
			}
		}
	}

	order, err := r.computeStartOrder()
	if err != nil {
		return err
	}
	r.startOrder = order

	r.logger.Info("plugin graph validated",
		zap.Strings("start_order", order),
		zap.Int("out_of_service", len(r.disabled)),
	)
	return nil
}

// InitAll initializes plugins in start order. depsFn builds the scoped
// dependency set for each plugin. Declared event subscriptions are
// wired after a successful Init.
func (r *Registry) InitAll(ctx context.Context, depsFn func(name string) plugin.Dependencies) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.startOrder {
		if r.disabled[name] {
			continue
		}
		p := r.plugins[name]
		deps := depsFn(name)

		r.logger.Info("initializing plugin", zap.String("plugin", name))
		if err := initPlugin(ctx, p, deps); err != nil {
			if derr := r.takeOutOfService(name, fmt.Errorf("plugin %q init: %w", name, err)); derr != nil {
				return derr
			}
			continue
		}

		if sub, ok := p.(plugin.EventSubscriber); ok && deps.Bus != nil {
			for _, s := range sub.Subscriptions() {
				deps.Bus.Subscribe(s.Topic, s.Handler)
			}
		}
	}
	return nil
}

// StartAll starts initialized plugins in start order.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.startOrder {
		if r.disabled[name] {
			continue
		}
		r.logger.Info("starting plugin", zap.String("plugin", name))
		if err := startPlugin(ctx, r.plugins[name]); err != nil {
			if derr := r.takeOutOfService(name, fmt.Errorf("plugin %q start: %w", name, err)); derr != nil {
				return derr
			}
		}
	}
	return nil
}

// StopAll stops running plugins in reverse start order. Stop errors are
// logged, never propagated, so one plugin cannot block shutdown.
func (r *Registry) StopAll(ctx context.Context) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.startOrder) - 1; i >= 0; i-- {
		name := r.startOrder[i]
		if r.disabled[name] {
			continue
		}
		r.logger.Info("stopping plugin", zap.String("plugin", name))
		if err := stopPlugin(ctx, r.plugins[name]); err != nil {
			r.logger.Error("plugin stop failed", zap.String("plugin", name), zap.Error(err))
		}
	}
}

// Resolve returns an in-service plugin by name. Implements
// plugin.PluginResolver for cross-plugin lookups.
func (r *Registry) Resolve(name string) (plugin.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.disabled[name] {
		return nil, false
	}
	p, ok := r.plugins[name]
	return p, ok
}

// All returns the in-service plugins in start order.
func (r *Registry) All() []plugin.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]plugin.Plugin, 0, len(r.startOrder))
	for _, name := range r.startOrder {
		if !r.disabled[name] {
			out = append(out, r.plugins[name])
		}
	}
	return out
}

// AllRoutes collects HTTP routes from in-service plugins that expose
// them, keyed by plugin name.
func (r *Registry) AllRoutes() map[string][]plugin.Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make(map[string][]plugin.Route)
	for _, name := range r.startOrder {
		if r.disabled[name] {
			continue
		}
		if hp, ok := r.plugins[name].(plugin.HTTPProvider); ok {
			if pr := hp.Routes(); len(pr) > 0 {
				routes[name] = pr
			}
		}
	}
	return routes
}

// takeOutOfService disables an optional plugin, or returns the cause
// when the plugin is required. Callers hold r.mu.
func (r *Registry) takeOutOfService(name string, cause error) error {
	if r.infos[name].Required {
		return cause
	}
	r.logger.Warn("taking plugin out of service",
		zap.String("plugin", name),
		zap.Error(cause),
	)
	r.disabled[name] = true
	return nil
}

// sortedNames returns all registered plugin names in lexical order so
// validation and error reporting are stable run to run.
func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// computeStartOrder topologically sorts the in-service plugins with
// Kahn's algorithm, breaking ties lexically for a deterministic order.
func (r *Registry) computeStartOrder() ([]string, error) {
	inDegree := make(map[string]int)
	dependents := make(map[string][]string)

	for _, name := range r.sortedNames() {
		if r.disabled[name] {
			continue
		}
		inDegree[name] += 0
		for _, dep := range r.infos[name].Dependencies {
			if !r.disabled[dep] {
				inDegree[name]++
				dependents[dep] = append(dependents[dep], name)
			}
		}
	}

	var ready []string
	for name, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(inDegree))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		for _, dep := range dependents[name] {
			if inDegree[dep]--; inDegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
		sort.Strings(ready)
	}

	if len(order) != len(inDegree) {
		var stuck []string
		for name, degree := range inDegree {
			if degree > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("dependency cycle among plugins: %v", stuck)
	}
	return order, nil
}

// supportedAPIVersion rejects plugins built against an API version this
// server cannot honor.
func supportedAPIVersion(v int) error {
	if v < plugin.APIVersionMin {
		return fmt.Errorf("targets plugin API v%d, below the minimum v%d this server supports", v, plugin.APIVersionMin)
	}
	if v > plugin.APIVersionCurrent {
		return fmt.Errorf("targets plugin API v%d, newer than this server's v%d", v, plugin.APIVersionCurrent)
	}
	return nil
}

// initPlugin runs Init and post-Init config validation, converting a
// panic into an error so a faulty plugin cannot crash startup.
func initPlugin(ctx context.Context, p plugin.Plugin, deps plugin.Dependencies) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	if err := p.Init(ctx, deps); err != nil {
		return err
	}
	if v, ok := p.(plugin.Validator); ok {
		if err := v.ValidateConfig(); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
	}
	return nil
}

func startPlugin(ctx context.Context, p plugin.Plugin) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return p.Start(ctx)
}

func stopPlugin(ctx context.Context, p plugin.Plugin) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return p.Stop(ctx)
}
