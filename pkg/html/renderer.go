// Package html renders view templates the way the application's controllers
// expect: templates resolve across core, plugin and custom view folders,
// plugins splice fragments in with getIncludeViews, and every template sees
// the built-in helpers and globals.
//
// A Renderer is safe for concurrent use. Each Render call builds its own
// resolver, collector, helper set and engine, so changes on disk are picked
// up by the next call.
package html

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abdedarghal111/facturascripts/pkg/assets"
	"github.com/abdedarghal111/facturascripts/pkg/helpers"
	"github.com/abdedarghal111/facturascripts/pkg/i18n"
	"github.com/abdedarghal111/facturascripts/pkg/minilog"
	"github.com/abdedarghal111/facturascripts/pkg/money"
	"github.com/abdedarghal111/facturascripts/pkg/plugins"
	"github.com/abdedarghal111/facturascripts/pkg/render/template"
	"github.com/abdedarghal111/facturascripts/pkg/render/template/pongo"
	"github.com/abdedarghal111/facturascripts/pkg/security"
	"github.com/abdedarghal111/facturascripts/pkg/settings"
	"github.com/abdedarghal111/facturascripts/pkg/views"
)

const tracerName = "github.com/abdedarghal111/facturascripts/pkg/html"

// Template globals merged over the caller parameters.
const (
	GlobalSettings = "appSettings"
	GlobalAssets   = "assetManager"
	GlobalI18n     = "i18n"
	GlobalLog      = "log"
)

// Config selects the install tree and render mode.
type Config struct {
	Root           string            `yaml:"root"`
	Debug          bool              `yaml:"debug"`
	DisablePlugins bool              `yaml:"disable_plugins"`
	Route          string            `yaml:"route"`
	Extension      string            `yaml:"extension"`
	Lang           string            `yaml:"lang"`
	Currency       string            `yaml:"currency"`
	CustomPaths    []views.NamedPath `yaml:"paths"`
}

// Option customises a Renderer.
type Option func(*Renderer) error

// WithPlugins sets the plugin manager. Without it no plugin folders are used.
func WithPlugins(mgr plugins.Manager) Option {
	return func(r *Renderer) error {
		r.plugins = mgr
		return nil
	}
}

// WithPath registers an extra named view directory, searched after the
// plugins. In debug mode it is also prepended to the main namespace.
func WithPath(name, dir string) Option {
	return func(r *Renderer) error {
		if strings.TrimSpace(name) == "" || strings.TrimSpace(dir) == "" {
			return fmt.Errorf("html: path name and directory are required")
		}
		r.paths = append(r.paths, views.NamedPath{Name: name, Dir: dir})
		return nil
	}
}

// WithFunction exposes fn to templates as name. It replaces a built-in with
// the same name.
func WithFunction(name string, fn any) Option {
	return func(r *Renderer) error {
		return r.functions.Set(helpers.Helper{Name: name, Func: fn})
	}
}

// WithSettings sets the store behind settings() and appSettings.
func WithSettings(store *settings.Store) Option {
	return func(r *Renderer) error {
		if store != nil {
			r.settings = store
		}
		return nil
	}
}

// WithTranslator sets the translator behind trans() and i18n.
func WithTranslator(tr *i18n.Translator) Option {
	return func(r *Renderer) error {
		if tr != nil {
			r.translator = tr
		}
		return nil
	}
}

// WithMoney sets the formatter behind money().
func WithMoney(f *money.Formatter) Option {
	return func(r *Renderer) error {
		if f != nil {
			r.money = f
		}
		return nil
	}
}

// WithAttachments sets the source behind attachedFile().
func WithAttachments(src helpers.AttachmentSource) Option {
	return func(r *Renderer) error {
		r.attachments = src
		return nil
	}
}

// WithTokens sets the issuer behind formToken().
func WithTokens(src helpers.TokenSource) Option {
	return func(r *Renderer) error {
		if src != nil {
			r.tokens = src
		}
		return nil
	}
}

// WithTheme lets asset() resolve the asset keys of a go-theme selection.
func WithTheme(selector theme.ThemeSelector, name, variant string) Option {
	return func(r *Renderer) error {
		r.theme = &themeChoice{selector: selector, name: name, variant: variant}
		return nil
	}
}

// WithTracer overrides the global OpenTelemetry tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Renderer) error {
		if tracer != nil {
			r.tracer = tracer
		}
		return nil
	}
}

// WithLogSink forwards every per-render log entry to sink.
func WithLogSink(sink minilog.Sink) Option {
	return func(r *Renderer) error {
		r.logSink = sink
		return nil
	}
}

// WithFragments replaces the plugin collector behind getIncludeViews.
func WithFragments(src helpers.FragmentSource) Option {
	return func(r *Renderer) error {
		r.fragments = src
		return nil
	}
}

// WithEngine replaces the pongo2 engine built for each render.
func WithEngine(factory EngineFactory) Option {
	return func(r *Renderer) error {
		if factory == nil {
			return fmt.Errorf("html: engine factory is required")
		}
		r.newEngine = factory
		return nil
	}
}

// EngineConfig is what an EngineFactory receives for one render.
type EngineConfig struct {
	Resolver  *views.Resolver
	Debug     bool
	Extension string
	Functions map[string]any
	Globals   map[string]any
}

// EngineFactory builds the template engine for one render.
type EngineFactory func(EngineConfig) (template.TemplateRenderer, error)

// PongoEngine is the default EngineFactory.
func PongoEngine(cfg EngineConfig) (template.TemplateRenderer, error) {
	return pongo.New(
		pongo.WithResolver(cfg.Resolver),
		pongo.WithDebug(cfg.Debug),
		pongo.WithExtension(cfg.Extension),
		pongo.WithTemplateFunc(cfg.Functions),
		pongo.WithGlobalData(cfg.Globals),
	)
}

type themeChoice struct {
	selector theme.ThemeSelector
	name     string
	variant  string
}

// Renderer renders templates for one install tree.
type Renderer struct {
	cfg         Config
	plugins     plugins.Manager
	paths       []views.NamedPath
	functions   *helpers.Registry
	settings    *settings.Store
	translator  *i18n.Translator
	money       helpers.MoneyFormatter
	attachments helpers.AttachmentSource
	tokens      helpers.TokenSource
	theme       *themeChoice
	assetURLs   *assets.URLResolver
	tracer      trace.Tracer
	logSink     minilog.Sink
	newEngine   EngineFactory
	fragments   helpers.FragmentSource
}

// New validates cfg and applies opts.
func New(cfg Config, opts ...Option) (*Renderer, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, fmt.Errorf("html: root is required")
	}
	if cfg.Extension == "" {
		cfg.Extension = views.DefaultExtension
	}
	if cfg.Lang == "" {
		cfg.Lang = i18n.DefaultLang
	}

	r := &Renderer{
		cfg:       cfg,
		paths:     append([]views.NamedPath(nil), cfg.CustomPaths...),
		functions: helpers.NewRegistry(),
		settings:  settings.New(nil),
		tracer:    otel.Tracer(tracerName),
		newEngine: PongoEngine,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if r.translator == nil {
		r.translator = i18n.New(cfg.Lang, nil)
	}
	if r.money == nil {
		code := cfg.Currency
		if code == "" {
			code = r.settings.String("coddivisa", settings.DefaultGroup, money.DefaultCode)
		}
		f, err := money.New(cfg.Lang, code)
		if err != nil {
			return nil, fmt.Errorf("html: %w", err)
		}
		r.money = f
	}
	if r.tokens == nil {
		r.tokens = security.NewTokenIssuer("")
	}

	r.assetURLs = assets.NewURLResolver(cfg.Route)
	if r.theme != nil {
		urls, err := r.assetURLs.WithTheme(r.theme.selector, r.theme.name, r.theme.variant)
		if err != nil {
			return nil, fmt.Errorf("html: %w", err)
		}
		r.assetURLs = urls
	}
	return r, nil
}

// Config returns the configuration in effect.
func (r *Renderer) Config() Config {
	cfg := r.cfg
	cfg.CustomPaths = append([]views.NamedPath(nil), r.paths...)
	return cfg
}

// Resolver builds the search paths a render would use right now.
func (r *Renderer) Resolver() (*views.Resolver, error) {
	return views.Build(views.BuildOptions{
		Root:           r.cfg.Root,
		Debug:          r.cfg.Debug,
		Plugins:        r.plugins,
		DisablePlugins: r.cfg.DisablePlugins,
		CustomPaths:    r.paths,
	})
}

// Fragments builds the collector behind getIncludeViews.
func (r *Renderer) Fragments(opts ...views.CollectorOption) *views.Collector {
	opts = append([]views.CollectorOption{views.WithExtension(r.cfg.Extension)}, opts...)
	return views.NewCollector(r.cfg.Root, r.activePlugins(), opts...)
}

// Helpers lists the helper names templates can call.
func (r *Renderer) Helpers() []string {
	reg, err := r.helperSet(helpers.Deps{})
	if err != nil {
		return r.functions.List()
	}
	return reg.List()
}

// Render executes the template called name with params. The globals
// appSettings, assetManager, i18n and log replace params of the same name.
func (r *Renderer) Render(ctx context.Context, name string, params map[string]any) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := r.tracer.Start(ctx, "html.Render", trace.WithAttributes(
		attribute.String("template", name),
		attribute.Bool("debug", r.cfg.Debug),
	))
	defer span.End()

	out, err := r.render(ctx, name, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("bytes", len(out)))
	return out, nil
}

func (r *Renderer) render(ctx context.Context, name string, params map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resolver, err := r.Resolver()
	if err != nil {
		return "", &template.Error{Kind: template.KindLoad, Template: name, Err: err}
	}

	log := minilog.New("master", r.logSink)
	var skipOpts []views.CollectorOption
	if r.cfg.Debug {
		skipOpts = append(skipOpts, views.WithSkipObserver(func(s views.Skipped) {
			log.Debug(fmt.Sprintf("fragment %s skipped: %s", s.Source, s.Reason), map[string]any{"plugin": s.Plugin})
		}))
	}

	fragments := r.fragments
	if fragments == nil {
		fragments = r.Fragments(skipOpts...)
	}

	var (
		mu        sync.Mutex
		helperErr error
	)
	reg, err := r.helperSet(helpers.Deps{
		Context:     ctx,
		Assets:      r.assetURLs,
		Attachments: r.attachments,
		Tokens:      r.tokens,
		Fragments:   &tracedCollector{ctx: ctx, tracer: r.tracer, collector: fragments},
		Money:       r.money,
		Settings:    r.settings,
		Translator:  r.translator,
		OnError: func(_ string, err error) {
			mu.Lock()
			defer mu.Unlock()
			if helperErr == nil {
				helperErr = err
			}
		},
	})
	if err != nil {
		return "", err
	}

	engine, err := r.newEngine(EngineConfig{
		Resolver:  resolver,
		Debug:     r.cfg.Debug,
		Extension: r.cfg.Extension,
		Functions: reg.Funcs(),
		Globals: map[string]any{
			GlobalSettings: r.settings,
			GlobalAssets:   assets.NewManager(),
			GlobalI18n:     r.translator,
			GlobalLog:      log,
		},
	})
	if err != nil {
		return "", err
	}

	// Globals win over parameters of the same name.
	data := make(map[string]any, len(params))
	for k, v := range params {
		switch k {
		case GlobalSettings, GlobalAssets, GlobalI18n, GlobalLog:
			continue
		}
		data[k] = v
	}

	out, err := engine.RenderTemplate(name, data)
	if err != nil {
		mu.Lock()
		cause := helperErr
		mu.Unlock()
		var te *template.Error
		if cause != nil && errors.As(err, &te) && te.Cause == nil {
			te.Cause = cause
		}
		return "", err
	}
	return out, nil
}

func (r *Renderer) helperSet(deps helpers.Deps) (*helpers.Registry, error) {
	reg := helpers.NewRegistry()
	if err := helpers.RegisterBuiltins(reg, deps); err != nil {
		return nil, err
	}
	for _, name := range r.functions.List() {
		h, err := r.functions.Get(name)
		if err != nil {
			return nil, err
		}
		if err := reg.Set(h); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (r *Renderer) activePlugins() plugins.Manager {
	if r.cfg.DisablePlugins || r.plugins == nil {
		return plugins.Static(nil)
	}
	return r.plugins
}

// tracedCollector records one span per getIncludeViews call.
type tracedCollector struct {
	ctx       context.Context
	tracer    trace.Tracer
	collector helpers.FragmentSource
}

func (c *tracedCollector) Collect(parent, position string) ([]views.Fragment, error) {
	_, span := c.tracer.Start(c.ctx, "views.Collect", trace.WithAttributes(
		attribute.String("parent", parent),
		attribute.String("position", position),
	))
	defer span.End()

	fragments, err := c.collector.Collect(parent, position)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("fragments", len(fragments)))
	return fragments, nil
}
