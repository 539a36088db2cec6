// Package config loads fsviews.yaml. A missing file yields defaults. FS_*
// environment variables override the file, and CLI flags override both by
// mutating the returned struct.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/abdedarghal111/facturascripts/pkg/html"
	"github.com/abdedarghal111/facturascripts/pkg/views"
)

// FileName is looked up in the working directory when --config is not given.
const FileName = "fsviews.yaml"

// Defaults.
const (
	DefaultRoot      = "."
	DefaultExtension = ".html.twig"
	DefaultLang      = "es_ES"
	DefaultAddr      = "127.0.0.1:8080"
)

// Config is the CLI configuration.
type Config struct {
	Root           string            `yaml:"root" env:"FS_FOLDER"`
	Debug          bool              `yaml:"debug" env:"FS_DEBUG"`
	DisablePlugins bool              `yaml:"disable_plugins" env:"FS_DISABLE_ADD_PLUGINS"`
	Route          string            `yaml:"route" env:"FS_ROUTE"`
	Extension      string            `yaml:"extension" env:"FS_EXTENSION"`
	Lang           string            `yaml:"lang" env:"FS_LANG"`
	Currency       string            `yaml:"currency" env:"FS_CURRENCY"`
	Addr           string            `yaml:"addr" env:"FS_ADDR"`
	Paths          map[string]string `yaml:"paths"`
}

func defaults() Config {
	return Config{
		Root:      DefaultRoot,
		Extension: DefaultExtension,
		Lang:      DefaultLang,
		Addr:      DefaultAddr,
	}
}

// partialConfig tells an absent field (nil) from one set to its zero value.
type partialConfig struct {
	Root           *string           `yaml:"root"`
	Debug          *bool             `yaml:"debug"`
	DisablePlugins *bool             `yaml:"disable_plugins"`
	Route          *string           `yaml:"route"`
	Extension      *string           `yaml:"extension"`
	Lang           *string           `yaml:"lang"`
	Currency       *string           `yaml:"currency"`
	Addr           *string           `yaml:"addr"`
	Paths          map[string]string `yaml:"paths"`
}

// Load reads path and applies the process environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, nil)
}

// LoadWithEnv is Load with an explicit environment. A nil map means the
// process environment.
func LoadWithEnv(path string, environ map[string]string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			var partial partialConfig
			if err := yaml.Unmarshal(data, &partial); err != nil {
				return nil, fmt.Errorf("config: decode %s: %w", path, err)
			}
			partial.apply(&cfg)
		}
	}

	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	return &cfg, nil
}

func (p partialConfig) apply(cfg *Config) {
	if p.Root != nil {
		cfg.Root = *p.Root
	}
	if p.Debug != nil {
		cfg.Debug = *p.Debug
	}
	if p.DisablePlugins != nil {
		cfg.DisablePlugins = *p.DisablePlugins
	}
	if p.Route != nil {
		cfg.Route = *p.Route
	}
	if p.Extension != nil {
		cfg.Extension = *p.Extension
	}
	if p.Lang != nil {
		cfg.Lang = *p.Lang
	}
	if p.Currency != nil {
		cfg.Currency = *p.Currency
	}
	if p.Addr != nil {
		cfg.Addr = *p.Addr
	}
	if p.Paths != nil {
		cfg.Paths = p.Paths
	}
}

// HTML converts the configuration for html.New. Custom paths are sorted by
// name so namespace registration is stable.
func (c Config) HTML() html.Config {
	names := make([]string, 0, len(c.Paths))
	for name := range c.Paths {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]views.NamedPath, 0, len(names))
	for _, name := range names {
		paths = append(paths, views.NamedPath{Name: name, Dir: c.Paths[name]})
	}
	return html.Config{
		Root:           c.Root,
		Debug:          c.Debug,
		DisablePlugins: c.DisablePlugins,
		Route:          c.Route,
		Extension:      c.Extension,
		Lang:           c.Lang,
		Currency:       c.Currency,
		CustomPaths:    paths,
	}
}
