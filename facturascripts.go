// Package facturascripts renders FacturaScripts view trees: templates resolve
// across core, plugin and custom folders and plugins splice fragments into
// core views. Open wires the collaborators an install tree provides.
package facturascripts

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/abdedarghal111/facturascripts/pkg/attachments"
	"github.com/abdedarghal111/facturascripts/pkg/deploy"
	"github.com/abdedarghal111/facturascripts/pkg/html"
	"github.com/abdedarghal111/facturascripts/pkg/i18n"
	"github.com/abdedarghal111/facturascripts/pkg/plugins"
	"github.com/abdedarghal111/facturascripts/pkg/settings"
	"github.com/abdedarghal111/facturascripts/pkg/views"
)

// Config aliases html.Config.
type Config = html.Config

// Renderer aliases html.Renderer.
type Renderer = html.Renderer

// Option aliases html.Option.
type Option = html.Option

// NamedPath aliases views.NamedPath for callers registering custom folders.
type NamedPath = views.NamedPath

// Fragment aliases views.Fragment.
type Fragment = views.Fragment

// SettingsFile is the settings document read by Open, relative to the root.
const SettingsFile = "MyFiles/settings.yaml"

// Install is a renderer plus the collaborators loaded from its tree.
type Install struct {
	Renderer    *html.Renderer
	Plugins     plugins.Manager
	Settings    *settings.Store
	Translator  *i18n.Translator
	Attachments *attachments.Store
}

type openConfig struct {
	plugins     plugins.Manager
	attachments bool
	render      []html.Option
}

// OpenOption customises Open.
type OpenOption func(*openConfig)

// WithPluginManager replaces the MyFiles/plugins.json registry.
func WithPluginManager(mgr plugins.Manager) OpenOption {
	return func(c *openConfig) {
		c.plugins = mgr
	}
}

// WithAttachmentStore opens MyFiles/attachments.db for attachedFile().
func WithAttachmentStore() OpenOption {
	return func(c *openConfig) {
		c.attachments = true
	}
}

// WithRenderOptions passes options through to html.New. They run after the
// ones Open derives, so they win.
func WithRenderOptions(opts ...html.Option) OpenOption {
	return func(c *openConfig) {
		c.render = append(c.render, opts...)
	}
}

// Open loads the plugin registry, settings and translations under cfg.Root
// and builds a renderer over them.
func Open(cfg Config, opts ...OpenOption) (*Install, error) {
	var oc openConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&oc)
		}
	}
	if cfg.Root == "" {
		return nil, fmt.Errorf("facturascripts: root is required")
	}

	inst := &Install{Plugins: oc.plugins}
	if inst.Plugins == nil {
		mgr, err := plugins.Load(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("facturascripts: %w", err)
		}
		inst.Plugins = mgr
	}

	store, err := settings.Load(filepath.Join(cfg.Root, filepath.FromSlash(SettingsFile)))
	if err != nil {
		return nil, fmt.Errorf("facturascripts: %w", err)
	}
	inst.Settings = store

	translator, err := i18n.Load(cfg.Root, inst.Plugins, cfg.Lang)
	if err != nil {
		return nil, fmt.Errorf("facturascripts: %w", err)
	}
	inst.Translator = translator

	renderOpts := []html.Option{
		html.WithPlugins(inst.Plugins),
		html.WithSettings(store),
		html.WithTranslator(translator),
	}
	if oc.attachments {
		files, err := attachments.OpenRoot(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("facturascripts: %w", err)
		}
		inst.Attachments = files
		renderOpts = append(renderOpts, html.WithAttachments(files))
	}

	inst.Renderer, err = html.New(cfg, append(renderOpts, oc.render...)...)
	if err != nil {
		return nil, errors.Join(err, inst.Close())
	}
	return inst, nil
}

// Render renders one template.
func (i *Install) Render(ctx context.Context, name string, params map[string]any) (string, error) {
	return i.Renderer.Render(ctx, name, params)
}

// Deploy rebuilds Dinamic/View from the enabled plugins, or from the core
// views alone when plugins are disabled.
func (i *Install) Deploy(ctx context.Context) (deploy.Report, error) {
	cfg := i.Renderer.Config()
	var mgr plugins.Manager
	if !cfg.DisablePlugins {
		mgr = i.Plugins
	}
	return deploy.New(cfg.Root, mgr).Deploy(ctx)
}

// Close releases the attachment store when one was opened.
func (i *Install) Close() error {
	if i == nil || i.Attachments == nil {
		return nil
	}
	return i.Attachments.Close()
}

// Render opens the tree at cfg.Root, renders name and closes it again.
func Render(ctx context.Context, cfg Config, name string, params map[string]any) (string, error) {
	inst, err := Open(cfg)
	if err != nil {
		return "", err
	}
	defer inst.Close()
	return inst.Render(ctx, name, params)
}
