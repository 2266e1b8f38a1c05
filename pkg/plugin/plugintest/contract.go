// Package plugintest holds the conformance suite every GridHealth
// plugin must pass. Each module's test file runs Conform against its
// constructor so the registry can rely on uniform lifecycle behavior.
package plugintest

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Arwindpianist/gridhealth/pkg/plugin"
)

// Conform verifies a plugin implementation against the lifecycle and
// metadata rules the registry assumes. Call it from the module's own
// test package:
//
//	func TestConformance(t *testing.T) {
//	    plugintest.Conform(t, func() plugin.Plugin { return fleet.New() })
//	}
func Conform(t *testing.T, factory func() plugin.Plugin) {
	t.Helper()

	t.Run("metadata", func(t *testing.T) {
		info := factory().Info()

		if info.Name == "" {
			t.Fatal("plugin name is empty")
		}
		// Names become URL path segments under /api/v1/ and config
		// sections under plugins.*; keep them lowercase and flat.
		if info.Name != strings.ToLower(info.Name) || strings.ContainsAny(info.Name, " /.") {
			t.Errorf("plugin name %q is not a clean lowercase identifier", info.Name)
		}
		if info.Version == "" {
			t.Error("plugin version is empty")
		}
		if info.APIVersion < plugin.APIVersionMin || info.APIVersion > plugin.APIVersionCurrent {
			t.Errorf("APIVersion = %d, want within [%d, %d]",
				info.APIVersion, plugin.APIVersionMin, plugin.APIVersionCurrent)
		}
		for _, dep := range info.Dependencies {
			if dep == info.Name {
				t.Errorf("plugin %q declares itself as a dependency", info.Name)
			}
		}
	})

	t.Run("metadata stable across calls", func(t *testing.T) {
		p := factory()
		first, second := p.Info(), p.Info()
		if first.Name != second.Name || first.Version != second.Version ||
			first.APIVersion != second.APIVersion || first.Required != second.Required {
			t.Errorf("Info() changed between calls: %+v vs %+v", first, second)
		}
	})

	t.Run("lifecycle", func(t *testing.T) {
		p := newInited(t, factory)
		if err := p.Start(context.Background()); err != nil {
			t.Fatalf("Start: %v", err)
		}
		if err := p.Stop(context.Background()); err != nil {
			t.Fatalf("Stop: %v", err)
		}
	})

	t.Run("stop before start", func(t *testing.T) {
		p := newInited(t, factory)
		if err := p.Stop(context.Background()); err != nil {
			t.Fatalf("Stop without Start: %v", err)
		}
	})

	t.Run("routes mounted under own namespace", func(t *testing.T) {
		p := factory()
		provider, ok := p.(plugin.HTTPProvider)
		if !ok {
			t.Skip("plugin exposes no HTTP routes")
		}
		for _, r := range provider.Routes() {
			if r.Handler == nil {
				t.Errorf("route %s %s has a nil handler", r.Method, r.Path)
			}
			if !strings.HasPrefix(r.Path, "/") {
				t.Errorf("route path %q is not rooted", r.Path)
			}
		}
	})
}

// newInited constructs a plugin and runs Init with the minimal
// dependency set the registry guarantees. Plugins must tolerate absent
// optional services (store, bus) at Init time.
func newInited(t *testing.T, factory func() plugin.Plugin) plugin.Plugin {
	t.Helper()
	p := factory()
	deps := plugin.Dependencies{
		Logger: zap.NewNop().Named(p.Info().Name),
	}
	if err := p.Init(context.Background(), deps); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return p
}
