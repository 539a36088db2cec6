package views

import (
	"fmt"

	"github.com/abdedarghal111/facturascripts/pkg/plugins"
)

// NamedPath is a caller-registered search directory.
type NamedPath struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir"`
}

// BuildOptions describes the install tree and the render mode.
type BuildOptions struct {
	Root  string
	Debug bool
	// Plugins lists enabled plugins; nil means none.
	Plugins plugins.Manager
	// DisablePlugins skips plugin registration even when Plugins is set.
	DisablePlugins bool
	// CustomPaths are registered after plugins, in order.
	CustomPaths []NamedPath
}

// Build registers the search paths for one render.
//
// The main namespace is Core/View in debug mode and Dinamic/View otherwise;
// outside debug mode plugin overrides are expected to have been merged into
// Dinamic/View by a deploy step. Missing plugin directories are skipped; a
// plugin path that exists but is not a directory is an error.
func Build(opts BuildOptions) (*Resolver, error) {
	layout := Layout{Root: opts.Root}

	main := layout.DynamicViews()
	if opts.Debug {
		main = layout.CoreViews()
	}
	r, err := NewResolver(main)
	if err != nil {
		return nil, err
	}
	if err := r.RegisterPath(CoreNamespace, layout.CoreViews()); err != nil {
		return nil, err
	}

	if !opts.DisablePlugins && opts.Plugins != nil {
		for _, name := range opts.Plugins.EnabledPlugins() {
			if err := registerOptional(r, PluginNamespace(name), layout.PluginViews(name), opts.Debug); err != nil {
				return nil, err
			}
			if err := registerOptional(r, ExtensionNamespace(name), layout.PluginExtensionViews(name), opts.Debug); err != nil {
				return nil, err
			}
		}
	}

	for _, custom := range opts.CustomPaths {
		if err := r.RegisterPath(custom.Name, custom.Dir); err != nil {
			return nil, fmt.Errorf("views: custom path %q: %w", custom.Name, err)
		}
		if opts.Debug {
			if err := r.PrependPath(custom.Dir); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

func registerOptional(r *Resolver, name, dir string, debug bool) error {
	ok, err := dirExists(dir)
	if err != nil {
		return fmt.Errorf("views: plugin path %s: %w", dir, err)
	}
	if !ok {
		return nil
	}
	if err := r.RegisterPath(name, dir); err != nil {
		return err
	}
	if debug {
		return r.PrependPath(dir)
	}
	return nil
}
